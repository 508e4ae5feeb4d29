package vision

// MostFrequent returns the element with the highest occurrence count. Ties go
// to the element that appears first in items. ok is false for an empty slice.
func MostFrequent[T comparable](items []T) (winner T, ok bool) {
	if len(items) == 0 {
		return winner, false
	}

	counts := make(map[T]int, len(items))
	best := 0
	for _, item := range items {
		counts[item]++
		best = max(best, counts[item])
	}

	for _, item := range items {
		if counts[item] == best {
			return item, true
		}
	}

	return winner, false // unreachable
}
