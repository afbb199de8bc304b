package listview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate_Length(t *testing.T) {
	for total := 0; total <= 60; total += 7 {
		items := seq(total)
		for _, size := range []int{10, 20, 50} {
			for page := 1; page <= 8; page++ {
				got := Paginate(items, page, size)
				offset := (page - 1) * size
				want := 0
				if total > offset {
					want = min(size, total-offset)
				}
				assert.Len(t, got, want, "total=%d page=%d size=%d", total, page, size)
				if want > 0 {
					assert.Equal(t, offset+1, got[0])
				}
			}
		}
	}
}

func TestPaginate_InvalidInputs(t *testing.T) {
	assert.Empty(t, Paginate(seq(5), 0, 10))
	assert.Empty(t, Paginate(seq(5), 1, 0))
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 10, 25))
	assert.Equal(t, 3, ClampPage(3, 10, 25))
	assert.Equal(t, 3, ClampPage(9, 10, 25))
	assert.Equal(t, 1, ClampPage(4, 10, 0))

	for total := 0; total <= 55; total++ {
		for page := 1; page <= 10; page++ {
			p := ClampPage(page, 10, total)
			assert.Less(t, (p-1)*10, max(total, 1))
		}
	}
}

func TestRangeLabel(t *testing.T) {
	assert.Equal(t, "1-2 of 2", RangeLabel(1, 10, 2, 2))
	assert.Equal(t, "11-20 of 25", RangeLabel(2, 10, 10, 25))
	assert.Equal(t, "21-25 of 25", RangeLabel(3, 10, 5, 25))
	assert.Equal(t, "0-0 of 0", RangeLabel(1, 10, 0, 0))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
}
