package models

import (
	"time"

	"github.com/samber/lo"
)

// Card is one face-down tile in a game's deck. Exactly two cards in a deck
// share a PairID.
type Card struct {
	ID        string `json:"id"`
	ImageURL  string `json:"imageUrl"`
	PairID    string `json:"pairId"`
	IsFlipped bool   `json:"isFlipped"`
	IsMatched bool   `json:"isMatched"`
}

// Game is the authoritative server-side state of one memory game.
// Version is bumped by the store on every successful update and is used to
// detect concurrent writers.
type Game struct {
	ID         string     `json:"id"`
	Cards      []*Card    `json:"cards"`
	Moves      int        `json:"moves"`
	IsComplete bool       `json:"isComplete"`
	StartTime  *time.Time `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
	UserID     string     `json:"userId,omitempty"`
	Version    int64      `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (g *Game) CardByID(cardID string) *Card {
	for _, c := range g.Cards {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// PendingCards are the cards currently face-up but not yet matched, in deck
// order. Game rules guarantee there are never more than two.
func (g *Game) PendingCards() []*Card {
	return lo.Filter(g.Cards, func(c *Card, _ int) bool {
		return c.IsFlipped && !c.IsMatched
	})
}

func (g *Game) Started() bool {
	return g.StartTime != nil
}

func (g *Game) MatchedPairs() int {
	matched := lo.CountBy(g.Cards, func(c *Card) bool { return c.IsMatched })
	return matched / 2
}

func (g *Game) TotalPairs() int {
	return len(g.Cards) / 2
}

// ElapsedSeconds reports whole seconds between start and end, or start and
// now for a game still in progress. Zero for a game that never started.
func (g *Game) ElapsedSeconds() int64 {
	if g.StartTime == nil {
		return 0
	}
	end := time.Now()
	if g.EndTime != nil {
		end = *g.EndTime
	}
	return int64(end.Sub(*g.StartTime).Seconds())
}

// Clone returns a deep copy so callers of the in-memory store never alias
// rows held by the store.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Cards = lo.Map(g.Cards, func(c *Card, _ int) *Card {
		cc := *c
		return &cc
	})
	if g.StartTime != nil {
		t := *g.StartTime
		cp.StartTime = &t
	}
	if g.EndTime != nil {
		t := *g.EndTime
		cp.EndTime = &t
	}
	return &cp
}

// FlipResult is what one resolved flip reports back to the client.
// PendingCount is captured at round-resolution time, before a successful
// match clears the pending pair.
type FlipResult struct {
	Card         *Card `json:"card"`
	PendingCount int   `json:"pendingCount"`
	IsMatch      bool  `json:"isMatch"`
	IsComplete   bool  `json:"isComplete"`
	Moves        int   `json:"moves"`
	MatchedPairs int   `json:"matchedPairs"`
	TotalPairs   int   `json:"totalPairs"`
}

// GameSummary is the list-view projection of a persisted game.
type GameSummary struct {
	ID         string     `json:"id"`
	Moves      int        `json:"moves"`
	IsComplete bool       `json:"isComplete"`
	TotalPairs int        `json:"totalPairs"`
	StartTime  *time.Time `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (g *Game) Summary() GameSummary {
	return GameSummary{
		ID:         g.ID,
		Moves:      g.Moves,
		IsComplete: g.IsComplete,
		TotalPairs: g.TotalPairs(),
		StartTime:  g.StartTime,
		EndTime:    g.EndTime,
		CreatedAt:  g.CreatedAt,
	}
}

// User is a registered player. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	CreatedAt    time.Time `json:"createdAt"`
}
