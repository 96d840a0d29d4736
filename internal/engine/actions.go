package engine

import (
	"fmt"
	"sort"

	"github.com/beatlinegame/beatline-backend/internal/apperror"
	"github.com/beatlinegame/beatline-backend/internal/deck"
	"github.com/beatlinegame/beatline-backend/internal/entity"
	"github.com/beatlinegame/beatline-backend/internal/timeline"
)

// StartGame materializes the lobby into a running game: it seeds the deck
// from the imported playlist, hands out starting tokens and moves the game to
// the awaiting-start phase with the host's seat active.
func (that *Engine) StartGame(game *entity.Game, actorID string) error {
	if game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if !game.IsLobby() {
		return apperror.ErrGameInProgress
	}

	if !game.IsHost(actorID) {
		return apperror.ErrHostOnly
	}

	if len(game.Players) < MinPlayers {
		return fmt.Errorf("%w: have %d, need %d", apperror.ErrNotEnoughPlayers, len(game.Players), MinPlayers)
	}

	needed := len(game.Players) + MinSpareTracks
	if ready := game.ReadyTrackCount(); ready < needed {
		return fmt.Errorf("%w: have %d, need %d", apperror.ErrNotEnoughTracks, ready, needed)
	}

	game.Cards = deck.ShuffleAndSeed(game.Playlist, that.rng)

	if game.Config.TokensEnabled {
		for _, player := range game.Players {
			player.Tokens = game.Config.StartTokens
			if player.Tokens > game.Config.MaxTokens {
				player.Tokens = game.Config.MaxTokens
			}
		}
	}

	game.Phase = entity.PhaseAwaitingStart
	game.CurrentTurnSeat = 0

	return nil
}

// StartRound draws the next card for the active player. An exhausted deck is
// an expected end state, not a fault: the game finishes immediately.
func (that *Engine) StartRound(game *entity.Game, actorID string) error {
	if !game.IsAwaitingStart() {
		return that.phaseError(game)
	}

	active, err := that.requireActive(game, actorID)
	if err != nil {
		return err
	}

	card := deck.NextCard(game.Cards)
	if card == nil {
		that.finishByDeckExhaustion(game)
		return nil
	}

	deck.Draw(card)

	game.Round = &entity.Round{
		Card:           card,
		ActivePlayerID: active.ID,
	}
	game.Phase = entity.PhaseAwaitingPlacement

	return nil
}

// PlaceCard records the active player's proposed slot. Before the reveal the
// placement may be overwritten by placing again.
func (that *Engine) PlaceCard(game *entity.Game, actorID string, index int) error {
	if game.Phase != entity.PhaseAwaitingPlacement && game.Phase != entity.PhaseAwaitingReveal {
		return that.phaseError(game)
	}

	active, err := that.requireActive(game, actorID)
	if err != nil {
		return err
	}

	if index < 0 || index > len(active.Timeline) {
		return fmt.Errorf("%w: index %d, timeline length %d", apperror.ErrInvalidSlot, index, len(active.Timeline))
	}

	proposed := index
	game.Round.PlacementIndex = &proposed
	game.Phase = entity.PhaseAwaitingReveal

	return nil
}

// SkipRound lets the active player pay one token to swap the round card for a
// fresh draw. Outstanding bets are refunded and cleared.
func (that *Engine) SkipRound(game *entity.Game, actorID string) error {
	if game.Phase != entity.PhaseAwaitingPlacement {
		return that.phaseError(game)
	}

	active, err := that.requireActive(game, actorID)
	if err != nil {
		return err
	}

	if err = that.requireTokenEconomy(game); err != nil {
		return err
	}

	if !active.HasTokens(SkipCost) {
		return fmt.Errorf("%w: have %d, need %d", apperror.ErrInsufficientTokens, active.Tokens, SkipCost)
	}

	card := deck.NextCard(game.Cards)
	if card == nil {
		// Nothing left to swap to; the deck running dry ends the game.
		that.finishByDeckExhaustion(game)
		return nil
	}

	if err = active.SpendTokens(SkipCost); err != nil {
		return err
	}

	that.refundBets(game, game.Round)
	game.Round.Card.State = entity.CardStateDiscarded

	deck.Draw(card)

	game.Round = &entity.Round{
		Card:           card,
		ActivePlayerID: active.ID,
	}

	return nil
}

// PlaceBet wagers one token on a slot of the active player's timeline. One
// bet per player per round, one bet per slot.
func (that *Engine) PlaceBet(game *entity.Game, actorID string, slot int) error {
	if game.Phase != entity.PhaseAwaitingPlacement && game.Phase != entity.PhaseAwaitingReveal {
		return that.phaseError(game)
	}

	round := game.Round
	if round == nil {
		return fmt.Errorf("%w: no round in a betting phase", apperror.ErrCorruptState)
	}

	if actorID == round.ActivePlayerID {
		return apperror.ErrActiveCannotBet
	}

	bettor := game.PlayerByID(actorID)
	if bettor == nil {
		return apperror.ErrNotAuthorized
	}

	if err := that.requireTokenEconomy(game); err != nil {
		return err
	}

	active := game.PlayerByID(round.ActivePlayerID)
	if active == nil {
		return fmt.Errorf("%w: active player %s not seated", apperror.ErrCorruptState, round.ActivePlayerID)
	}

	if slot < 0 || slot > len(active.Timeline) {
		return fmt.Errorf("%w: slot %d, timeline length %d", apperror.ErrInvalidSlot, slot, len(active.Timeline))
	}

	if round.BetOnSlot(slot) != nil {
		return fmt.Errorf("%w: slot %d", apperror.ErrSlotAlreadyBet, slot)
	}

	if round.HasBetBy(actorID) {
		return apperror.ErrAlreadyBet
	}

	if err := bettor.SpendTokens(BetCost); err != nil {
		return err
	}

	round.Bets = append(round.Bets, entity.Bet{
		PlayerID:  actorID,
		SlotIndex: slot,
		PlacedAt:  that.now(),
	})

	return nil
}

// Reveal uncovers the round card's identity and year. The active player acts
// for themselves; the host may force a reveal on behalf of a stalled player.
func (that *Engine) Reveal(game *entity.Game, actorID string) error {
	if !game.IsAwaitingReveal() {
		return that.phaseError(game)
	}

	if err := that.requireActiveOrHost(game, actorID); err != nil {
		return err
	}

	if game.Round == nil || game.Round.PlacementIndex == nil {
		return apperror.ErrNothingToReveal
	}

	game.Phase = entity.PhaseRevealed

	return nil
}

// ClaimBonusToken awards one token, once per round per player, while the
// round is revealed. Claiming at the cap is rejected, not clamped.
func (that *Engine) ClaimBonusToken(game *entity.Game, actorID string) error {
	if !game.IsRevealed() {
		return that.phaseError(game)
	}

	player := game.PlayerByID(actorID)
	if player == nil {
		return apperror.ErrNotAuthorized
	}

	if err := that.requireTokenEconomy(game); err != nil {
		return err
	}

	round := game.Round
	if round == nil {
		return fmt.Errorf("%w: no round in revealed phase", apperror.ErrCorruptState)
	}

	if round.HasClaimedToken(actorID) {
		return apperror.ErrAlreadyClaimed
	}

	if err := player.EarnTokens(BonusTokenAmount, game.Config.MaxTokens); err != nil {
		return err
	}

	round.TokenClaimers = append(round.TokenClaimers, actorID)

	return nil
}

// ResolveRound scores the revealed round. Placement and every bet are
// evaluated against the active player's timeline as it existed before this
// round's card was inserted. The card goes to the active player when their
// slot was valid, otherwise to the earliest valid bettor (into the bettor's
// own timeline at the canonical index, since the guessed slot indexes the
// active player's timeline), otherwise to the discard pile. Afterwards the
// turn/win coordinator advances the game.
func (that *Engine) ResolveRound(game *entity.Game, actorID string) (*Resolution, error) {
	if !game.IsRevealed() {
		return nil, that.phaseError(game)
	}

	if err := that.requireActiveOrHost(game, actorID); err != nil {
		return nil, err
	}

	round := game.Round
	if round == nil || round.Card == nil {
		return nil, fmt.Errorf("%w: no round in revealed phase", apperror.ErrCorruptState)
	}

	active := game.PlayerByID(round.ActivePlayerID)
	if active == nil {
		return nil, fmt.Errorf("%w: active player %s not seated", apperror.ErrCorruptState, round.ActivePlayerID)
	}

	card := round.Card
	years := active.TimelineYears()

	resolution := &Resolution{Outcome: OutcomeDiscard}

	switch {
	case round.PlacementIndex != nil && timeline.IsPlacementCorrect(years, *round.PlacementIndex, card.ReleaseYear):
		if err := active.InsertCard(*round.PlacementIndex, card); err != nil {
			return nil, fmt.Errorf("%w: %v", apperror.ErrCorruptState, err)
		}

		resolution = &Resolution{Outcome: OutcomeActivePlayer, Correct: true}

	default:
		winner := earliestValidBet(round, years, card.ReleaseYear)
		if winner == nil {
			card.State = entity.CardStateDiscarded
			break
		}

		bettor := game.PlayerByID(winner.PlayerID)
		if bettor == nil {
			return nil, fmt.Errorf("%w: bettor %s not seated", apperror.ErrCorruptState, winner.PlayerID)
		}

		// Refund the winning bet; a bettor sitting at the cap forfeits it.
		_ = bettor.EarnTokens(BetCost, game.Config.MaxTokens)

		index := timeline.CorrectInsertionIndex(bettor.TimelineYears(), card.ReleaseYear)
		if err := bettor.InsertCard(index, card); err != nil {
			return nil, fmt.Errorf("%w: %v", apperror.ErrCorruptState, err)
		}

		resolution = &Resolution{Outcome: OutcomeBettor, WinningBettorID: winner.PlayerID}
	}

	game.Round = nil
	game.Phase = entity.PhaseAwaitingStart

	if err := that.advanceAfterResolution(game); err != nil {
		return nil, err
	}

	return resolution, nil
}

// BuyAutoPlace trades three tokens for a guaranteed card: in the
// awaiting-start phase it draws a fresh card, during a round it takes the
// card in play (refunding any bets), and inserts it at the canonical correct
// index of the active player's timeline. The turn then advances as after a
// resolution.
func (that *Engine) BuyAutoPlace(game *entity.Game, actorID string) error {
	switch game.Phase {
	case entity.PhaseAwaitingStart, entity.PhaseAwaitingPlacement, entity.PhaseAwaitingReveal:
	default:
		return that.phaseError(game)
	}

	active, err := that.requireActive(game, actorID)
	if err != nil {
		return err
	}

	if err = that.requireTokenEconomy(game); err != nil {
		return err
	}

	if !active.HasTokens(AutoPlaceCost) {
		return fmt.Errorf("%w: have %d, need %d", apperror.ErrInsufficientTokens, active.Tokens, AutoPlaceCost)
	}

	var card *entity.Card

	if game.IsAwaitingStart() {
		card = deck.NextCard(game.Cards)
		if card == nil {
			// No card left to buy; the game ends without charging.
			that.finishByDeckExhaustion(game)
			return nil
		}

		deck.Draw(card)
	} else {
		round := game.Round
		if round == nil || round.Card == nil {
			return fmt.Errorf("%w: no round in a placement phase", apperror.ErrCorruptState)
		}

		card = round.Card
		that.refundBets(game, round)
	}

	if err = active.SpendTokens(AutoPlaceCost); err != nil {
		return err
	}

	index := timeline.CorrectInsertionIndex(active.TimelineYears(), card.ReleaseYear)
	if err = active.InsertCard(index, card); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrCorruptState, err)
	}

	game.Round = nil
	game.Phase = entity.PhaseAwaitingStart

	return that.advanceAfterResolution(game)
}

// earliestValidBet picks the earliest-by-timestamp bet whose slot is a valid
// insertion index for the active player's pre-round timeline.
func earliestValidBet(round *entity.Round, years []int, year int) *entity.Bet {
	ordered := make([]entity.Bet, len(round.Bets))
	copy(ordered, round.Bets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PlacedAt.Before(ordered[j].PlacedAt)
	})

	for i := range ordered {
		if timeline.IsPlacementCorrect(years, ordered[i].SlotIndex, year) {
			return &ordered[i]
		}
	}

	return nil
}

// refundBets returns every outstanding bet token when a round ends without a
// resolution (skip, auto-place). A bettor at the cap forfeits the refund.
func (that *Engine) refundBets(game *entity.Game, round *entity.Round) {
	for i := range round.Bets {
		bettor := game.PlayerByID(round.Bets[i].PlayerID)
		if bettor == nil {
			continue
		}

		_ = bettor.EarnTokens(BetCost, game.Config.MaxTokens)
	}

	round.Bets = nil
}

// requireActive resolves the seat whose turn it is and checks the actor owns
// it.
func (that *Engine) requireActive(game *entity.Game, actorID string) (*entity.Player, error) {
	active := game.ActivePlayer()
	if active == nil {
		return nil, fmt.Errorf("%w: no player at seat %d", apperror.ErrCorruptState, game.CurrentTurnSeat)
	}

	if active.ID != actorID {
		return nil, apperror.ErrNotYourTurn
	}

	return active, nil
}

// requireActiveOrHost allows the active player, or the host acting on behalf
// of a stalled one.
func (that *Engine) requireActiveOrHost(game *entity.Game, actorID string) error {
	active := game.ActivePlayer()
	if active == nil {
		return fmt.Errorf("%w: no player at seat %d", apperror.ErrCorruptState, game.CurrentTurnSeat)
	}

	if active.ID == actorID || game.IsHost(actorID) {
		return nil
	}

	return apperror.ErrNotYourTurn
}

func (that *Engine) requireTokenEconomy(game *entity.Game) error {
	if !game.Config.TokensEnabled {
		return apperror.ErrTokensDisabled
	}
	return nil
}

// phaseError maps the current phase to the most descriptive rejection.
func (that *Engine) phaseError(game *entity.Game) error {
	switch game.Phase {
	case entity.PhaseFinished:
		return apperror.ErrGameFinished
	case entity.PhaseLobby:
		return apperror.ErrGameNotStarted
	default:
		return fmt.Errorf("%w: phase %s", apperror.ErrWrongPhase, game.Phase)
	}
}
