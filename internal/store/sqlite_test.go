package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	models "memorludo/internal/models"
)

func openTestDB(t *testing.T) *SQLiteDirectory {
	t.Helper()
	dir, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { dir.Close() })
	return dir
}

func sqliteTestGame(id, userID string) *models.Game {
	now := time.Now().UTC()
	return &models.Game{
		ID: id,
		Cards: []*models.Card{
			{ID: id + "-c1", ImageURL: "/uploads/a.png", PairID: id + "-p1"},
			{ID: id + "-c2", ImageURL: "/uploads/a.png", PairID: id + "-p1"},
			{ID: id + "-c3", ImageURL: "/uploads/b.png", PairID: id + "-p2"},
			{ID: id + "-c4", ImageURL: "/uploads/b.png", PairID: id + "-p2"},
		},
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteGameRoundTrip(t *testing.T) {
	dir := openTestDB(t)
	ctx := context.Background()
	g := sqliteTestGame("g1", "")

	if err := dir.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}
	got, err := dir.GetGame(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if len(got.Cards) != 4 {
		t.Fatalf("Expected 4 cards, got %d", len(got.Cards))
	}
	for i, c := range got.Cards {
		if c.ID != g.Cards[i].ID {
			t.Errorf("Deck order lost at position %d: got %s want %s", i, c.ID, g.Cards[i].ID)
		}
	}
	if got.StartTime != nil || got.EndTime != nil {
		t.Error("Unstarted game must load with nil timestamps")
	}
}

func TestSQLiteGetGameNotFound(t *testing.T) {
	dir := openTestDB(t)
	if _, err := dir.GetGame(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteUpdateGameVersioning(t *testing.T) {
	dir := openTestDB(t)
	ctx := context.Background()
	g := sqliteTestGame("g1", "")
	if err := dir.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	first, _ := dir.GetGame(ctx, "g1")
	second, _ := dir.GetGame(ctx, "g1")

	now := time.Now().UTC()
	first.Moves = 1
	first.StartTime = &now
	if err := dir.UpdateGame(ctx, first); err != nil {
		t.Fatalf("First update failed: %v", err)
	}

	second.Moves = 9
	if err := dir.UpdateGame(ctx, second); !errors.Is(err, ErrConflict) {
		t.Errorf("Stale update must fail with ErrConflict, got %v", err)
	}

	saved, _ := dir.GetGame(ctx, "g1")
	if saved.Moves != 1 || saved.StartTime == nil {
		t.Errorf("Winning write lost: moves=%d start=%v", saved.Moves, saved.StartTime)
	}

	if err := dir.UpdateGame(ctx, sqliteTestGame("nope", "")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Updating a missing game must fail with ErrNotFound, got %v", err)
	}
}

func TestSQLiteUpdateCardFlags(t *testing.T) {
	dir := openTestDB(t)
	ctx := context.Background()
	g := sqliteTestGame("g1", "")
	if err := dir.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	c := g.Cards[0]
	c.IsFlipped = true
	c.IsMatched = true
	if err := dir.UpdateCard(ctx, c, "g1"); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}

	saved, _ := dir.GetGame(ctx, "g1")
	got := saved.CardByID(c.ID)
	if !got.IsFlipped || !got.IsMatched {
		t.Error("Card flags did not persist")
	}

	if err := dir.UpdateCard(ctx, &models.Card{ID: "zzz"}, "g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown card, got %v", err)
	}
}

func TestSQLiteListByOwnerNewestFirst(t *testing.T) {
	dir := openTestDB(t)
	ctx := context.Background()

	older := sqliteTestGame("older", "user-1")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := sqliteTestGame("newer", "user-1")
	foreign := sqliteTestGame("foreign", "user-2")
	for _, g := range []*models.Game{older, newer, foreign} {
		if err := dir.SaveGame(ctx, g); err != nil {
			t.Fatalf("SaveGame failed: %v", err)
		}
	}

	games, err := dir.ListByOwner(ctx, "user-1", 20)
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(games) != 2 || games[0].ID != "newer" || games[1].ID != "older" {
		t.Errorf("Expected [newer older], got %+v", games)
	}
	if games[0].TotalPairs != 2 {
		t.Errorf("Summary totalPairs=%d, want 2", games[0].TotalPairs)
	}

	limited, _ := dir.ListByOwner(ctx, "user-1", 1)
	if len(limited) != 1 {
		t.Errorf("Limit ignored, got %d games", len(limited))
	}
}

func TestSQLiteDeleteGameCascades(t *testing.T) {
	dir := openTestDB(t)
	ctx := context.Background()
	g := sqliteTestGame("g1", "user-1")
	if err := dir.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	if err := dir.DeleteGame(ctx, "g1", "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Foreign delete must fail, got %v", err)
	}
	if err := dir.DeleteGame(ctx, "g1", "user-1"); err != nil {
		t.Fatalf("DeleteGame failed: %v", err)
	}
	if _, err := dir.GetGame(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Error("Game still present after delete")
	}
}

func TestSQLiteDeleteStaleAnonymous(t *testing.T) {
	dir := openTestDB(t)
	ctx := context.Background()

	if err := dir.SaveGame(ctx, sqliteTestGame("anon", "")); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}
	if err := dir.SaveGame(ctx, sqliteTestGame("owned", "user-1")); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	removed, err := dir.DeleteStaleAnonymous(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleAnonymous failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed game, got %d", removed)
	}
	if _, err := dir.GetGame(ctx, "owned"); err != nil {
		t.Error("Owned game must survive anonymous cleanup")
	}
}

func TestSQLiteUsers(t *testing.T) {
	dir := openTestDB(t)
	ctx := context.Background()

	u := &models.User{
		ID:           "u1",
		Email:        "player@example.com",
		PasswordHash: "hash",
		DisplayName:  "Player",
		CreatedAt:    time.Now().UTC(),
	}
	if err := dir.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := dir.CreateUser(ctx, &models.User{ID: "u2", Email: "player@example.com", CreatedAt: time.Now().UTC()}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Duplicate email must fail with ErrEmailTaken, got %v", err)
	}

	byEmail, err := dir.GetUserByEmail(ctx, "player@example.com")
	if err != nil || byEmail.ID != "u1" || byEmail.PasswordHash != "hash" {
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
	if _, err := dir.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
