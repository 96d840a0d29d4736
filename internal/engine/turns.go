package engine

import (
	"fmt"

	"github.com/beatlinegame/beatline-backend/internal/apperror"
	"github.com/beatlinegame/beatline-backend/internal/entity"
)

// advanceAfterResolution moves the turn pointer to the next eligible seat and
// runs the win-check protocol: the first time any player reaches the win
// threshold, a lap starts at the seat about to receive the next turn, and
// everyone else finishes their pending turn before winners are evaluated.
// A player outside an already-running tiebreak who crosses the threshold
// mid-lap does not join the contenders; they are only considered if the lap
// closes without a unique winner among all players.
func (that *Engine) advanceAfterResolution(game *entity.Game) error {
	if game.IsFinished() {
		return nil
	}

	lapWasActive := game.WinCheckStartSeat != nil

	next, err := nextEligibleSeat(game, game.CurrentTurnSeat)
	if err != nil {
		return err
	}

	game.CurrentTurnSeat = next

	if lapWasActive && next == *game.WinCheckStartSeat {
		return that.closeWinCheckLap(game)
	}

	if !lapWasActive && anyAtWinCondition(game) {
		start := next
		game.WinCheckStartSeat = &start
	}

	return nil
}

// closeWinCheckLap evaluates winners among the contenders once the lap
// returns to its starting seat: a unique leader wins; several leaders at or
// above the threshold narrow play to a tiebreak; a tie below the threshold
// (defensive, should not occur) clears the lap and play continues.
func (that *Engine) closeWinCheckLap(game *entity.Game) error {
	leaders := leadersAmong(contenders(game))
	if len(leaders) == 0 {
		return fmt.Errorf("%w: win-check lap closed with no contenders", apperror.ErrCorruptState)
	}

	if len(leaders) == 1 {
		game.WinnerID = leaders[0].ID
		game.Round = nil
		game.WinCheckStartSeat = nil
		game.TiebreakPlayerIDs = nil
		game.Phase = entity.PhaseFinished

		return nil
	}

	if len(leaders[0].Timeline) < game.Config.WinCondition {
		game.WinCheckStartSeat = nil
		return nil
	}

	ids := make([]string, len(leaders))
	for i, leader := range leaders {
		ids[i] = leader.ID
	}
	game.TiebreakPlayerIDs = ids

	seat, err := eligibleSeatAtOrAfter(game, game.CurrentTurnSeat)
	if err != nil {
		return err
	}

	game.CurrentTurnSeat = seat
	start := seat
	game.WinCheckStartSeat = &start
	game.Phase = entity.PhaseAwaitingStart

	return nil
}

// finishByDeckExhaustion ends the game when no card is left to draw,
// evaluating the winner immediately among all players since no further round
// can change a timeline. A dead tie leaves the winner empty.
func (that *Engine) finishByDeckExhaustion(game *entity.Game) {
	if game.Round != nil {
		if game.Round.Card != nil {
			game.Round.Card.State = entity.CardStateDiscarded
		}
		that.refundBets(game, game.Round)
	}

	leaders := leadersAmong(game.Players)
	if len(leaders) == 1 {
		game.WinnerID = leaders[0].ID
	}

	game.Round = nil
	game.WinCheckStartSeat = nil
	game.TiebreakPlayerIDs = nil
	game.Phase = entity.PhaseFinished
}

// nextEligibleSeat walks seats modulo the player count, starting after from,
// until it lands on a contender. The walk is bounded by one full lap; failing
// to find a seat means the tiebreak set is inconsistent with the seating and
// is surfaced as a fatal error rather than spinning.
func nextEligibleSeat(game *entity.Game, from int) (int, error) {
	count := len(game.Players)
	if count == 0 {
		return 0, fmt.Errorf("%w: game has no players", apperror.ErrCorruptState)
	}

	for step := 1; step <= count; step++ {
		seat := (from + step) % count

		player := game.PlayerBySeat(seat)
		if player == nil {
			return 0, fmt.Errorf("%w: no player at seat %d", apperror.ErrCorruptState, seat)
		}

		if game.IsTiebreakPlayer(player.ID) {
			return seat, nil
		}
	}

	return 0, fmt.Errorf("%w: tiebreak set matches no seat", apperror.ErrCorruptState)
}

// eligibleSeatAtOrAfter is nextEligibleSeat's inclusive variant: the seat at
// the pointer itself qualifies.
func eligibleSeatAtOrAfter(game *entity.Game, from int) (int, error) {
	count := len(game.Players)
	if count == 0 {
		return 0, fmt.Errorf("%w: game has no players", apperror.ErrCorruptState)
	}

	for step := 0; step < count; step++ {
		seat := (from + step) % count

		player := game.PlayerBySeat(seat)
		if player == nil {
			return 0, fmt.Errorf("%w: no player at seat %d", apperror.ErrCorruptState, seat)
		}

		if game.IsTiebreakPlayer(player.ID) {
			return seat, nil
		}
	}

	return 0, fmt.Errorf("%w: tiebreak set matches no seat", apperror.ErrCorruptState)
}

// contenders returns the players eligible for win evaluation: the tiebreak
// set when one is active, otherwise everyone.
func contenders(game *entity.Game) []*entity.Player {
	if !game.InTiebreak() {
		return game.Players
	}

	eligible := make([]*entity.Player, 0, len(game.TiebreakPlayerIDs))
	for _, player := range game.Players {
		if game.IsTiebreakPlayer(player.ID) {
			eligible = append(eligible, player)
		}
	}

	return eligible
}

// leadersAmong returns the players holding the maximum timeline length.
func leadersAmong(players []*entity.Player) []*entity.Player {
	var leaders []*entity.Player
	maxLen := -1

	for _, player := range players {
		switch length := len(player.Timeline); {
		case length > maxLen:
			maxLen = length
			leaders = []*entity.Player{player}
		case length == maxLen:
			leaders = append(leaders, player)
		}
	}

	return leaders
}

// anyAtWinCondition checks every player, contender or not, against the win
// threshold.
func anyAtWinCondition(game *entity.Game) bool {
	for _, player := range game.Players {
		if len(player.Timeline) >= game.Config.WinCondition {
			return true
		}
	}
	return false
}
