package store

import (
	"context"
	"errors"
	"testing"
	"time"

	models "memorludo/internal/models"
)

func memTestGame(userID string) *models.Game {
	now := time.Now().UTC()
	return &models.Game{
		ID: "g-" + userID + now.Format("150405.000000000"),
		Cards: []*models.Card{
			{ID: "c1", ImageURL: "/uploads/a.png", PairID: "p1"},
			{ID: "c2", ImageURL: "/uploads/a.png", PairID: "p1"},
		},
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryGameRoundTrip(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()
	g := memTestGame("")

	if err := dir.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}
	got, err := dir.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if got.ID != g.ID || len(got.Cards) != 2 || got.Cards[0].PairID != "p1" {
		t.Errorf("Round trip lost data: %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Cards[0].IsFlipped = true
	again, _ := dir.GetGame(ctx, g.ID)
	if again.Cards[0].IsFlipped {
		t.Error("GetGame must return an isolated copy")
	}
}

func TestMemoryGetGameNotFound(t *testing.T) {
	dir := NewMemoryDirectory()
	if _, err := dir.GetGame(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUpdateGameVersionConflict(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()
	g := memTestGame("")
	if err := dir.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	first, _ := dir.GetGame(ctx, g.ID)
	second, _ := dir.GetGame(ctx, g.ID)

	first.Moves = 1
	if err := dir.UpdateGame(ctx, first); err != nil {
		t.Fatalf("First update failed: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("Winning update must bump the caller's version, got %d", first.Version)
	}

	second.Moves = 7
	if err := dir.UpdateGame(ctx, second); !errors.Is(err, ErrConflict) {
		t.Errorf("Stale update must fail with ErrConflict, got %v", err)
	}

	saved, _ := dir.GetGame(ctx, g.ID)
	if saved.Moves != 1 {
		t.Errorf("Losing writer leaked: moves=%d", saved.Moves)
	}
}

func TestMemoryUpdateCard(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()
	g := memTestGame("")
	if err := dir.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	card := &models.Card{ID: "c1", IsFlipped: true}
	if err := dir.UpdateCard(ctx, card, g.ID); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}
	saved, _ := dir.GetGame(ctx, g.ID)
	if !saved.CardByID("c1").IsFlipped {
		t.Error("Card flags did not persist")
	}

	if err := dir.UpdateCard(ctx, &models.Card{ID: "zzz"}, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown card, got %v", err)
	}
}

func TestMemoryListByOwner(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	owned := memTestGame("user-1")
	other := memTestGame("user-2")
	anon := memTestGame("")
	for _, g := range []*models.Game{owned, other, anon} {
		if err := dir.SaveGame(ctx, g); err != nil {
			t.Fatalf("SaveGame failed: %v", err)
		}
	}

	games, err := dir.ListByOwner(ctx, "user-1", 20)
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(games) != 1 || games[0].ID != owned.ID {
		t.Errorf("Expected exactly the owned game, got %+v", games)
	}
}

func TestMemoryDeleteGameScopedToOwner(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()
	g := memTestGame("user-1")
	if err := dir.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	if err := dir.DeleteGame(ctx, g.ID, "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Foreign delete must fail with ErrNotFound, got %v", err)
	}
	if err := dir.DeleteGame(ctx, g.ID, "user-1"); err != nil {
		t.Errorf("Owner delete failed: %v", err)
	}
	if _, err := dir.GetGame(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Error("Game still present after delete")
	}
}

func TestMemoryDeleteStaleAnonymous(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	stale := memTestGame("")
	owned := memTestGame("user-1")
	if err := dir.SaveGame(ctx, stale); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}
	if err := dir.SaveGame(ctx, owned); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	removed, err := dir.DeleteStaleAnonymous(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleAnonymous failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed game, got %d", removed)
	}
	if _, err := dir.GetGame(ctx, owned.ID); err != nil {
		t.Error("Owned game must survive anonymous cleanup")
	}
}

func TestMemoryUsers(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	u := &models.User{ID: "u1", Email: "player@example.com", PasswordHash: "x", DisplayName: "Player"}
	if err := dir.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := dir.CreateUser(ctx, &models.User{ID: "u2", Email: "player@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Duplicate email must fail with ErrEmailTaken, got %v", err)
	}

	byEmail, err := dir.GetUserByEmail(ctx, "player@example.com")
	if err != nil || byEmail.ID != "u1" {
		t.Errorf("GetUserByEmail: %v %+v", err, byEmail)
	}

	u.DisplayName = "Renamed"
	if err := dir.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	got, _ := dir.GetUser(ctx, "u1")
	if got.DisplayName != "Renamed" {
		t.Errorf("DisplayName not updated: %q", got.DisplayName)
	}
}
