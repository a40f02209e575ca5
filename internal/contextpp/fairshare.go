package contextpp

import "sort"

// FairShareAllocate distributes budget tokens across len(sizes) items: sort
// ascending, give each item its own size if that's less than the evolving
// equal share, and push the unused remainder onto the items still unallocated
// (spec §4.4 step 2, the "equal share, accumulate leftovers" rule). The
// returned slice is in the same order as sizes.
func FairShareAllocate(sizes []int, budget int) []int {
	n := len(sizes)
	if n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return sizes[order[a]] < sizes[order[b]] })

	allocated := make([]int, n)
	remaining := budget
	for rank, idx := range order {
		left := n - rank
		share := remaining / left
		if sizes[idx] <= share {
			allocated[idx] = sizes[idx]
		} else {
			allocated[idx] = share
		}
		remaining -= allocated[idx]
	}
	return allocated
}
