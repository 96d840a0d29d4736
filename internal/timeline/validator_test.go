package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidInsertionIndices(t *testing.T) {
	t.Run("Empty timeline accepts only index zero", func(t *testing.T) {
		// Given: an empty timeline
		// When: computing valid indices for any year
		indices := ValidInsertionIndices(nil, 1999)

		// Then: index 0 is the only valid slot
		assert.Equal(t, []int{0}, indices)
	})

	t.Run("Equal years make both adjacent slots valid", func(t *testing.T) {
		// Given: a timeline with an equal-year run
		years := []int{1990, 2005, 2005, 2020}

		// When: inserting a card from the same year
		indices := ValidInsertionIndices(years, 2005)

		// Then: every slot touching the run is valid
		assert.Equal(t, []int{1, 2, 3}, indices)
	})

	t.Run("Year before the whole timeline is only valid at the front", func(t *testing.T) {
		// Given: a timeline starting in 1990
		years := []int{1990, 2005, 2005, 2020}

		// When: inserting a 1985 card
		indices := ValidInsertionIndices(years, 1985)

		// Then: only the first slot is valid
		assert.Equal(t, []int{0}, indices)
	})

	t.Run("Year after the whole timeline is only valid at the end", func(t *testing.T) {
		years := []int{2000, 2010}

		indices := ValidInsertionIndices(years, 2015)

		assert.Equal(t, []int{2}, indices)
	})

	t.Run("Result is a contiguous non-empty range for any year", func(t *testing.T) {
		years := []int{1964, 1972, 1972, 1984, 1991, 2003, 2003, 2003, 2017}

		for year := 1950; year <= 2030; year++ {
			indices := ValidInsertionIndices(years, year)

			require.NotEmpty(t, indices, "year %d", year)
			for i := 1; i < len(indices); i++ {
				require.Equal(t, indices[i-1]+1, indices[i], "year %d", year)
			}
		}
	})
}

func TestCorrectInsertionIndex(t *testing.T) {
	t.Run("Finds the slot between neighbors", func(t *testing.T) {
		// Given: a sorted timeline
		years := []int{2000, 2010}

		// When: computing the canonical index for 2005
		index := CorrectInsertionIndex(years, 2005)

		// Then: the card belongs between the two entries
		assert.Equal(t, 1, index)
	})

	t.Run("Is the leftmost slot of an equal-year run", func(t *testing.T) {
		years := []int{1990, 2005, 2005, 2020}

		index := CorrectInsertionIndex(years, 2005)

		assert.Equal(t, 1, index)
	})

	t.Run("Is always a member of the valid indices", func(t *testing.T) {
		years := []int{1964, 1972, 1972, 1984, 1991, 2003, 2003, 2003, 2017}

		for year := 1950; year <= 2030; year++ {
			index := CorrectInsertionIndex(years, year)

			assert.Contains(t, ValidInsertionIndices(years, year), index, "year %d", year)
		}
	})
}

func TestIsPlacementCorrect(t *testing.T) {
	years := []int{1990, 2005, 2005, 2020}

	t.Run("Accepts any slot of an equal-year run", func(t *testing.T) {
		assert.True(t, IsPlacementCorrect(years, 1, 2005))
		assert.True(t, IsPlacementCorrect(years, 2, 2005))
		assert.True(t, IsPlacementCorrect(years, 3, 2005))
	})

	t.Run("Rejects slots outside the valid range", func(t *testing.T) {
		assert.False(t, IsPlacementCorrect(years, 0, 2005))
		assert.False(t, IsPlacementCorrect(years, 4, 2005))
		assert.False(t, IsPlacementCorrect(years, 1, 1985))
	})

	t.Run("Rejects out-of-bounds indices", func(t *testing.T) {
		assert.False(t, IsPlacementCorrect(years, -1, 2005))
		assert.False(t, IsPlacementCorrect(years, 5, 2005))
	})
}
