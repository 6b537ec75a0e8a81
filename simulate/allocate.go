package simulate

import (
	"math"
	"sort"
)

// Allocate splits n participants across ranges in proportion to their
// percentile width using the largest-remainder method. Floors are handed out
// first; the leftover goes one each to the largest fractional remainders,
// ties to the lower index. When every width is zero the split is even, with
// the lower indices taking any remainder. The counts always sum to n.
func Allocate(n int, ranges []PriceRange) []int {
	counts := make([]int, len(ranges))
	if n <= 0 || len(ranges) == 0 {
		return counts
	}

	var total float64
	for _, r := range ranges {
		total += math.Max(r.Width(), 0)
	}

	if total == 0 {
		base, extra := n/len(ranges), n%len(ranges)
		for i := range counts {
			counts[i] = base
			if i < extra {
				counts[i]++
			}
		}
		return counts
	}

	type remainder struct {
		index int
		frac  float64
	}
	rems := make([]remainder, len(ranges))
	assigned := 0
	for i, r := range ranges {
		quota := float64(n) * math.Max(r.Width(), 0) / total
		whole := math.Floor(quota)
		counts[i] = int(whole)
		assigned += counts[i]
		rems[i] = remainder{index: i, frac: quota - whole}
	}

	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac > rems[b].frac
	})
	for k := 0; assigned < n; k++ {
		counts[rems[k%len(rems)].index]++
		assigned++
	}
	return counts
}
