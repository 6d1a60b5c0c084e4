package ocr

import (
	"math"
	"sort"
)

// fallbackTolerance is used when no block height is available.
const fallbackTolerance = 10.0

// SortReadingOrder orders blocks on one page into natural left-to-right,
// top-to-bottom reading sequence and returns a new slice.
//
// A naive sort by y is fragile: blocks on the same visual line have slightly
// different y-centers. Instead each block is assigned to a line bucket
// floor(cy / y_tol) with y_tol = max(8, 0.6 * median block height), which
// absorbs that jitter while still separating distinct lines, then blocks are
// sorted by (bucket, cx). Sorting is idempotent.
func SortReadingOrder(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	if len(out) <= 1 {
		return out
	}

	heights := make([]float64, 0, len(out))
	for _, b := range out {
		if b.H > 0 {
			heights = append(heights, b.H)
		}
	}
	sort.Float64s(heights)

	medianH := fallbackTolerance
	if len(heights) > 0 {
		medianH = heights[len(heights)/2]
	}
	yTol := math.Max(8.0, 0.6*medianH)

	bucket := func(b Block) int {
		return int(math.Floor(b.CY / yTol))
	}
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := bucket(out[i]), bucket(out[j])
		if bi != bj {
			return bi < bj
		}
		return out[i].CX < out[j].CX
	})
	return out
}
