package deck

import (
	"math/rand"
	"testing"

	"github.com/beatlinegame/beatline-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTracks(n int) []entity.Track {
	tracks := make([]entity.Track, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, entity.Track{
			ID:          string(rune('a' + i)),
			Title:       "track",
			ReleaseYear: 1960 + i,
			Ready:       true,
		})
	}
	return tracks
}

func TestShuffleAndSeed(t *testing.T) {
	t.Run("Skips tracks that are not playable", func(t *testing.T) {
		// Given: a playlist with one unmatched and one year-less track
		tracks := makeTracks(4)
		tracks[1].Ready = false
		tracks[2].ReleaseYear = 0

		// When: seeding the deck
		cards := ShuffleAndSeed(tracks, rand.New(rand.NewSource(1)))

		// Then: only playable tracks become cards
		assert.Len(t, cards, 2)
	})

	t.Run("Assigns a dense deck order starting at zero", func(t *testing.T) {
		cards := ShuffleAndSeed(makeTracks(10), rand.New(rand.NewSource(1)))

		require.Len(t, cards, 10)
		for i, card := range cards {
			require.NotNil(t, card.DeckOrder)
			assert.Equal(t, i, *card.DeckOrder)
			assert.Equal(t, entity.CardStateDeck, card.State)
		}
	})

	t.Run("Shuffles deterministically for a seeded source", func(t *testing.T) {
		// Given: two decks seeded from the same source
		first := ShuffleAndSeed(makeTracks(20), rand.New(rand.NewSource(42)))
		second := ShuffleAndSeed(makeTracks(20), rand.New(rand.NewSource(42)))

		// Then: the draw order is identical
		for i := range first {
			assert.Equal(t, first[i].TrackID, second[i].TrackID)
		}
	})
}

func TestNextCard(t *testing.T) {
	t.Run("Returns the lowest undrawn deck order", func(t *testing.T) {
		// Given: a seeded deck with the first card already drawn
		cards := ShuffleAndSeed(makeTracks(3), rand.New(rand.NewSource(7)))
		first := NextCard(cards)
		require.NotNil(t, first)
		Draw(first)

		// When: drawing again
		second := NextCard(cards)

		// Then: a different card comes out, and the drawn one lost its order
		require.NotNil(t, second)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Nil(t, first.DeckOrder)
		assert.Equal(t, entity.CardStateInRound, first.State)
	})

	t.Run("Returns nil once the deck is exhausted", func(t *testing.T) {
		cards := ShuffleAndSeed(makeTracks(2), rand.New(rand.NewSource(7)))

		for i := 0; i < 2; i++ {
			card := NextCard(cards)
			require.NotNil(t, card)
			Draw(card)
		}

		assert.Nil(t, NextCard(cards))
	})
}
