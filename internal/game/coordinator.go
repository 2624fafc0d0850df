package game

import (
	"context"
	"errors"

	models "memorludo/internal/models"
	store "memorludo/internal/store"
	util "memorludo/internal/util"
)

// maxConflictRetries bounds how often a flip is replayed when the game row
// changed under us. With the per-game lock a conflict only comes from an
// out-of-band writer, so one or two retries settle it.
const maxConflictRetries = 3

// Coordinator resolves flip and reset requests against a game's
// authoritative state. All mutation of a persisted game funnels through
// here, under that game's lock.
type Coordinator struct {
	dir   store.Directory
	locks *LockTable
}

func NewCoordinator(dir store.Directory, locks *LockTable) *Coordinator {
	return &Coordinator{dir: dir, locks: locks}
}

// ResolveFlip applies one flip request: toggle the named card and, when the
// flip completes a two-card round, count the move, resolve the match and
// check for completion. Conflicting writes are retried against re-read
// state.
func (tc *Coordinator) ResolveFlip(ctx context.Context, gameID, cardID string) (*models.FlipResult, error) {
	unlock := tc.locks.Acquire(gameID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		res, err := tc.resolveOnce(ctx, gameID, cardID)
		if err != nil && errors.Is(err, store.ErrConflict) {
			lastErr = err
			util.LogWarn("Conflicting write on game %s, retrying flip (attempt %d)", gameID, attempt+1)
			continue
		}
		return res, err
	}
	return nil, lastErr
}

func (tc *Coordinator) resolveOnce(ctx context.Context, gameID, cardID string) (*models.FlipResult, error) {
	g, err := tc.dir.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	card := g.CardByID(cardID)
	if card == nil {
		return nil, ErrCardNotFound
	}
	if card.IsMatched {
		return nil, ErrAlreadyMatched
	}

	// A third card may not join a round while a mismatched pair is still
	// face-up. Flipping either pending card back down is fine.
	if pending := g.PendingCards(); len(pending) == 2 && !card.IsFlipped {
		return nil, ErrRoundInProgress
	}

	if !g.Started() {
		StartGame(g)
	}
	if err := FlipCard(card); err != nil {
		return nil, err
	}

	pending := g.PendingCards()
	res := &models.FlipResult{
		Card:         card,
		PendingCount: len(pending),
	}

	changed := []*models.Card{card}
	if len(pending) == 2 {
		IncrementMoves(g)
		first, second := pending[0], pending[1]
		if first.PairID == second.PairID {
			MatchCard(first)
			MatchCard(second)
			res.IsMatch = true
			changed = []*models.Card{first, second}
			CheckCompletion(g)
		}
		// A mismatch keeps both cards face-up. The client flips them back
		// after its display delay, the server never does.
	}

	// The version gate goes first: a conflicting writer aborts before any
	// card row is written, so a retry replays against clean state.
	if err := tc.dir.UpdateGame(ctx, g); err != nil {
		return nil, err
	}
	for _, c := range changed {
		if err := tc.dir.UpdateCard(ctx, c, g.ID); err != nil {
			return nil, err
		}
	}

	res.IsComplete = g.IsComplete
	res.Moves = g.Moves
	res.MatchedPairs = g.MatchedPairs()
	res.TotalPairs = g.TotalPairs()
	return res, nil
}

// Reset reshuffles the deck and clears counters and timers while keeping the
// game's identity and owner. The rewritten deck is persisted in full because
// every card changed position.
func (tc *Coordinator) Reset(ctx context.Context, gameID string) (*models.Game, error) {
	unlock := tc.locks.Acquire(gameID)
	defer unlock()

	g, err := tc.dir.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ResetGame(g)
	if err := tc.dir.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}
