//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// Bucket is one labelled count in an analytics breakdown.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AnalyticsSummary aggregates the dashboard analytics panels.
type AnalyticsSummary struct {
	Status     []Bucket `json:"status"`
	Aging      []Bucket `json:"aging"`
	Throughput []Bucket `json:"throughput"`
}

// Total sums the status breakdown.
func (s AnalyticsSummary) Total() int {
	n := 0
	for _, b := range s.Status {
		n += b.Count
	}
	return n
}
