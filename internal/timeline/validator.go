// Package timeline validates chronological placements. All functions are pure
// and operate on the release years of a timeline sorted in non-decreasing
// order; they know nothing about game state.
package timeline

import "sort"

// ValidInsertionIndices returns every index at which inserting year keeps the
// timeline sorted. An index i is valid iff the year before it (or -inf) is at
// most year and the year at it (or +inf) is at least year. Equal years make
// both sides of the run valid. The result is a contiguous range and is never
// empty.
func ValidInsertionIndices(years []int, year int) []int {
	indices := make([]int, 0, len(years)+1)

	for i := 0; i <= len(years); i++ {
		if i > 0 && years[i-1] > year {
			continue
		}
		if i < len(years) && year > years[i] {
			continue
		}
		indices = append(indices, i)
	}

	return indices
}

// CorrectInsertionIndex returns the leftmost valid insertion index for year,
// found by binary search. It is used for token-funded auto-placement, where a
// single canonical index is required; human placements are scored against the
// whole valid range instead.
func CorrectInsertionIndex(years []int, year int) int {
	return sort.SearchInts(years, year)
}

// IsPlacementCorrect reports whether the proposed index is one of the valid
// insertion indices for year.
func IsPlacementCorrect(years []int, proposedIndex, year int) bool {
	if proposedIndex < 0 || proposedIndex > len(years) {
		return false
	}
	if proposedIndex > 0 && years[proposedIndex-1] > year {
		return false
	}
	if proposedIndex < len(years) && year > years[proposedIndex] {
		return false
	}
	return true
}
