package gateway

import (
	"io"
	"sync"
)

// progressReader reports the percentage of total bytes read. Percentages are
// reported only when they increase, and 100 is reported once at EOF.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	last  int
	fn    func(percent int)
	mu    sync.Mutex
}

func newProgressReader(r io.Reader, total int64, fn func(int)) *progressReader {
	return &progressReader{r: r, total: total, last: -1, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.read += int64(n)
	pct := 0
	switch {
	case err == io.EOF:
		pct = 100
	case p.total > 0:
		pct = int(p.read * 100 / p.total)
	}
	if pct > 100 {
		pct = 100
	}
	if pct > p.last {
		p.last = pct
		p.fn(pct)
	}
	return n, err
}
