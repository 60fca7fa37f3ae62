package ratings

import (
	"slices"
	"sort"
)

// MaxRating is the highest rating a card can receive.
const MaxRating = 10

// Deciles reduces ascending, distinct values to at most ten boundaries.
// Up to ten values are returned unchanged; longer inputs yield the values at
// floor(i*n/10) for i = 1..9 followed by the maximum.
func Deciles(sorted []float64) []float64 {
	n := len(sorted)
	if n <= MaxRating {
		return slices.Clone(sorted)
	}

	boundaries := make([]float64, 0, MaxRating)
	for i := 1; i < MaxRating; i++ {
		boundaries = append(boundaries, sorted[i*n/MaxRating])
	}
	return append(boundaries, sorted[n-1])
}

// DistinctSorted returns the distinct values in ascending order.
func DistinctSorted(values []float64) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// Rate maps a value onto the boundaries. For ascending metrics the rating is the
// index of the first boundary not less than the value, plus one. For descending
// metrics it is the number of boundaries strictly greater than the value.
func Rate(value float64, deciles []float64, descending bool) int {
	if descending {
		// Boundaries are ascending; everything after the last one <= value is greater.
		return len(deciles) - sort.Search(len(deciles), func(i int) bool { return deciles[i] > value })
	}

	rating := sort.SearchFloat64s(deciles, value) + 1
	if rating > MaxRating {
		rating = MaxRating
	}
	return rating
}
