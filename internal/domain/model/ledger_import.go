//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// LedgerImport records one ledger file ingested by the ledger service.
type LedgerImport struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	FileName    string     `json:"fileName"`
	Status      string     `json:"status"`
	ImportedBy  string     `json:"importedBy"`
	ImportedAt  *time.Time `json:"importedAt,omitempty"`
	RecordCount int        `json:"recordCount"`
}
