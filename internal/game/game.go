package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	models "memorludo/internal/models"
	util "memorludo/internal/util"
)

// NewGame builds a fresh game from a list of image references: shuffled
// deck, zeroed move counter, timers unset. userID is empty for anonymous
// play.
func NewGame(images []string, userID string) (*models.Game, error) {
	cards, err := BuildDeck(images)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	g := &models.Game{
		ID:        uuid.NewString(),
		Cards:     cards,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	util.LogInfo("New game %s created with %d cards (%d pairs)", g.ID, len(cards), g.TotalPairs())
	return g, nil
}

// StartGame records the start timestamp. A game that has already started
// keeps its original timestamp.
func StartGame(g *models.Game) {
	if g.StartTime != nil {
		return
	}
	now := time.Now().UTC()
	g.StartTime = &now
}

// CheckCompletion reports whether every card is matched and, on the first
// observation of a fully matched deck, transitions the game to complete.
// Calling it again after completion leaves the end timestamp untouched.
func CheckCompletion(g *models.Game) bool {
	allMatched := lo.EveryBy(g.Cards, func(c *models.Card) bool { return c.IsMatched })
	if allMatched && !g.IsComplete {
		now := time.Now().UTC()
		g.EndTime = &now
		g.IsComplete = true
		util.LogInfo("Game %s complete after %d moves in %ds", g.ID, g.Moves, g.ElapsedSeconds())
	}
	return allMatched
}

// IncrementMoves counts one completed two-card round.
func IncrementMoves(g *models.Game) {
	g.Moves++
}

// ResetGame returns the game to its pre-start state: all cards face-down and
// unmatched, deck reshuffled, counters and timers cleared. The game keeps
// its identity and owner.
func ResetGame(g *models.Game) {
	lo.ForEach(g.Cards, func(c *models.Card, _ int) { ResetCard(c) })
	Shuffle(g.Cards)
	g.Moves = 0
	g.StartTime = nil
	g.EndTime = nil
	g.IsComplete = false
	util.LogInfo("Game %s reset with fresh shuffle", g.ID)
}
