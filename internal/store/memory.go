package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	models "memorludo/internal/models"
	util "memorludo/internal/util"
)

// MemoryDirectory keeps everything in process memory. It backs tests and
// anonymous quick play. Rows are deep-copied on the way in and out so the
// store behaves like an external collaborator, including version checks.
type MemoryDirectory struct {
	mu           sync.RWMutex
	games        map[string]*models.Game
	users        map[string]*models.User
	usersByEmail map[string]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		games:        make(map[string]*models.Game),
		users:        make(map[string]*models.User),
		usersByEmail: make(map[string]string),
	}
}

func (d *MemoryDirectory) SaveGame(_ context.Context, g *models.Game) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g.UpdatedAt = time.Now().UTC()
	d.games[g.ID] = g.Clone()
	return nil
}

func (d *MemoryDirectory) GetGame(_ context.Context, id string) (*models.Game, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

func (d *MemoryDirectory) ListByOwner(_ context.Context, userID string, limit int) ([]models.GameSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	owned := lo.Filter(lo.Values(d.games), func(g *models.Game, _ int) bool {
		return g.UserID == userID
	})
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return lo.Map(owned, func(g *models.Game, _ int) models.GameSummary {
		return g.Summary()
	}), nil
}

func (d *MemoryDirectory) UpdateCard(_ context.Context, c *models.Card, gameID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.games[gameID]
	if !ok {
		return ErrNotFound
	}
	stored := g.CardByID(c.ID)
	if stored == nil {
		return ErrNotFound
	}
	stored.IsFlipped = c.IsFlipped
	stored.IsMatched = c.IsMatched
	return nil
}

func (d *MemoryDirectory) UpdateGame(_ context.Context, g *models.Game) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.games[g.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != g.Version {
		return ErrConflict
	}

	now := time.Now().UTC()
	stored.Moves = g.Moves
	stored.IsComplete = g.IsComplete
	stored.StartTime = g.StartTime
	stored.EndTime = g.EndTime
	stored.Version++
	stored.UpdatedAt = now
	g.Version++
	g.UpdatedAt = now
	return nil
}

func (d *MemoryDirectory) DeleteGame(_ context.Context, id, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.games[id]
	if !ok || g.UserID != userID {
		return ErrNotFound
	}
	delete(d.games, id)
	return nil
}

func (d *MemoryDirectory) DeleteStaleAnonymous(_ context.Context, cutoff time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for id, g := range d.games {
		if g.UserID == "" && g.UpdatedAt.Before(cutoff) {
			delete(d.games, id)
			removed++
		}
	}
	if removed > 0 {
		util.LogInfo("Cleaned up %d stale anonymous games", removed)
	}
	return removed, nil
}

func (d *MemoryDirectory) CreateUser(_ context.Context, u *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.usersByEmail[u.Email]; taken {
		return ErrEmailTaken
	}
	cp := *u
	d.users[u.ID] = &cp
	d.usersByEmail[u.Email] = u.ID
	return nil
}

func (d *MemoryDirectory) GetUser(_ context.Context, id string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *MemoryDirectory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.usersByEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d.users[id]
	return &cp, nil
}

func (d *MemoryDirectory) UpdateUser(_ context.Context, u *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	stored.DisplayName = u.DisplayName
	return nil
}

func (d *MemoryDirectory) Close() error { return nil }
