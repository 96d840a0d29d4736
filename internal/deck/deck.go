// Package deck owns the shuffled draw pile of a game: it turns a finalized
// playlist into cards with a dense draw order and hands out the next undrawn
// card deterministically.
package deck

import (
	"math/rand"

	"github.com/beatlinegame/beatline-backend/internal/entity"
	"github.com/google/uuid"
)

// ShuffleAndSeed consumes a finalized track list, keeps only playable tracks,
// shuffles them uniformly (Fisher-Yates) and assigns dense deck order values
// 0..n-1. A nil rng falls back to the shared source.
func ShuffleAndSeed(tracks []entity.Track, rng *rand.Rand) []*entity.Card {
	cards := make([]*entity.Card, 0, len(tracks))
	for i := range tracks {
		track := &tracks[i]
		if !track.IsPlayable() {
			continue
		}

		cards = append(cards, &entity.Card{
			ID:          uuid.NewString(),
			TrackID:     track.ID,
			Title:       track.Title,
			Artist:      track.Artist,
			ReleaseYear: track.ReleaseYear,
			State:       entity.CardStateDeck,
		})
	}

	for i := len(cards) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		cards[i], cards[j] = cards[j], cards[i]
	}

	for i := range cards {
		order := i
		cards[i].DeckOrder = &order
	}

	return cards
}

// NextCard returns the undrawn card with the lowest deck order, or nil when
// the deck is exhausted.
func NextCard(cards []*entity.Card) *entity.Card {
	var next *entity.Card
	for _, card := range cards {
		if !card.IsInDeck() || card.DeckOrder == nil {
			continue
		}
		if next == nil || *card.DeckOrder < *next.DeckOrder {
			next = card
		}
	}
	return next
}

// Draw transitions the card out of the deck into play and clears its deck
// order so it can never be selected again.
func Draw(card *entity.Card) {
	card.State = entity.CardStateInRound
	card.DeckOrder = nil
}
