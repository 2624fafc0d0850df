// Package store is the persistence boundary for games, cards and users.
// The game rules never talk to a database directly, only to a Directory.
package store

import (
	"context"
	"errors"
	"time"

	models "memorludo/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrConflict means the row changed under us since it was read. Expected
	// under legitimate concurrent play, callers re-read and retry.
	ErrConflict = errors.New("version conflict on update")

	ErrEmailTaken = errors.New("email already registered")
)

// Directory is a keyed lookup from game id to game, plus the user records
// the ownership checks need. UpdateGame must compare-and-bump the game's
// version so concurrent writers surface as ErrConflict rather than lost
// updates.
type Directory interface {
	SaveGame(ctx context.Context, g *models.Game) error
	GetGame(ctx context.Context, id string) (*models.Game, error)
	ListByOwner(ctx context.Context, userID string, limit int) ([]models.GameSummary, error)
	UpdateCard(ctx context.Context, c *models.Card, gameID string) error
	UpdateGame(ctx context.Context, g *models.Game) error
	DeleteGame(ctx context.Context, id, userID string) error
	DeleteStaleAnonymous(ctx context.Context, cutoff time.Time) (int, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	Close() error
}
