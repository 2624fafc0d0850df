package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	models "memorludo/internal/models"
	util "memorludo/internal/util"
)

// SQLiteDirectory is the durable Directory implementation, one row per game
// and one row per card so a crashed process can resume mid-round.
type SQLiteDirectory struct {
	conn *sql.DB
}

// Open creates the database connection and ensures the schema is up to date.
func Open(dsn string) (*SQLiteDirectory, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	util.LogInfo("Database opened: %s", dsn)
	return &SQLiteDirectory{conn: db}, nil
}

func (d *SQLiteDirectory) Close() error {
	return d.conn.Close()
}

// SaveGame upserts the game row and rewrites its full deck. Used on create
// and on reset, where the shuffle changes every card's position.
func (d *SQLiteDirectory) SaveGame(ctx context.Context, g *models.Game) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	g.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, is_complete, moves, start_time, end_time, user_id, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_complete = excluded.is_complete,
			moves       = excluded.moves,
			start_time  = excluded.start_time,
			end_time    = excluded.end_time,
			version     = excluded.version,
			updated_at  = excluded.updated_at
	`, g.ID, g.IsComplete, g.Moves, nullTime(g.StartTime), nullTime(g.EndTime),
		g.UserID, g.Version, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", g.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE game_id = ?`, g.ID); err != nil {
		return fmt.Errorf("failed to clear cards for game %s: %w", g.ID, err)
	}

	for pos, c := range g.Cards {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cards (id, game_id, image_url, is_flipped, is_matched, pair_id, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, c.ID, g.ID, c.ImageURL, c.IsFlipped, c.IsMatched, c.PairID, pos)
		if err != nil {
			return fmt.Errorf("failed to save card %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game %s: %w", g.ID, err)
	}
	return nil
}

func (d *SQLiteDirectory) GetGame(ctx context.Context, id string) (*models.Game, error) {
	g := &models.Game{}
	var start, end sql.NullTime
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, is_complete, moves, start_time, end_time, user_id, version, created_at, updated_at
		FROM games WHERE id = ?
	`, id).Scan(&g.ID, &g.IsComplete, &g.Moves, &start, &end, &g.UserID, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}
	g.StartTime = timePtr(start)
	g.EndTime = timePtr(end)

	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, image_url, is_flipped, is_matched, pair_id
		FROM cards WHERE game_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards for game %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &models.Card{}
		if err := rows.Scan(&c.ID, &c.ImageURL, &c.IsFlipped, &c.IsMatched, &c.PairID); err != nil {
			return nil, fmt.Errorf("failed to scan card for game %s: %w", id, err)
		}
		g.Cards = append(g.Cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cards for game %s: %w", id, err)
	}
	return g, nil
}

func (d *SQLiteDirectory) ListByOwner(ctx context.Context, userID string, limit int) ([]models.GameSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.QueryContext(ctx, `
		SELECT g.id, g.is_complete, g.moves, g.start_time, g.end_time, g.created_at,
		       (SELECT COUNT(*) FROM cards c WHERE c.game_id = g.id) / 2
		FROM games g WHERE g.user_id = ?
		ORDER BY g.created_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for user %s: %w", userID, err)
	}
	defer rows.Close()

	var summaries []models.GameSummary
	for rows.Next() {
		var s models.GameSummary
		var start, end sql.NullTime
		if err := rows.Scan(&s.ID, &s.IsComplete, &s.Moves, &start, &end, &s.CreatedAt, &s.TotalPairs); err != nil {
			return nil, fmt.Errorf("failed to scan game summary: %w", err)
		}
		s.StartTime = timePtr(start)
		s.EndTime = timePtr(end)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read game summaries: %w", err)
	}
	return summaries, nil
}

// UpdateCard persists only the mutable flags. Identity fields never change.
func (d *SQLiteDirectory) UpdateCard(ctx context.Context, c *models.Card, gameID string) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE cards SET is_flipped = ?, is_matched = ?
		WHERE id = ? AND game_id = ?
	`, c.IsFlipped, c.IsMatched, c.ID, gameID)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check card update %s: %w", c.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateGame writes the counters and timers with a compare-and-bump on the
// version column. Zero affected rows on an existing game means another
// writer got there first.
func (d *SQLiteDirectory) UpdateGame(ctx context.Context, g *models.Game) error {
	now := time.Now().UTC()
	res, err := d.conn.ExecContext(ctx, `
		UPDATE games
		SET is_complete = ?, moves = ?, start_time = ?, end_time = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, g.IsComplete, g.Moves, nullTime(g.StartTime), nullTime(g.EndTime), now, g.ID, g.Version)
	if err != nil {
		return fmt.Errorf("failed to update game %s: %w", g.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check game update %s: %w", g.ID, err)
	}
	if n == 0 {
		var exists bool
		if err := d.conn.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM games WHERE id = ?)`, g.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check game existence %s: %w", g.ID, err)
		}
		if exists {
			return ErrConflict
		}
		return ErrNotFound
	}
	g.Version++
	g.UpdatedAt = now
	return nil
}

func (d *SQLiteDirectory) DeleteGame(ctx context.Context, id, userID string) error {
	res, err := d.conn.ExecContext(ctx,
		`DELETE FROM games WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check game delete %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *SQLiteDirectory) DeleteStaleAnonymous(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := d.conn.ExecContext(ctx,
		`DELETE FROM games WHERE user_id = '' AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale anonymous games: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted games: %w", err)
	}
	if n > 0 {
		util.LogInfo("Cleaned up %d stale anonymous games", n)
	}
	return int(n), nil
}

func (d *SQLiteDirectory) CreateUser(ctx context.Context, u *models.User) error {
	var taken bool
	if err := d.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, u.Email).Scan(&taken); err != nil {
		return fmt.Errorf("failed to check email %s: %w", u.Email, err)
	}
	if taken {
		return ErrEmailTaken
	}

	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.DisplayName, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", u.ID, err)
	}
	return nil
}

func (d *SQLiteDirectory) GetUser(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name, created_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return u, nil
}

func (d *SQLiteDirectory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name, created_at
		FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user by email: %w", err)
	}
	return u, nil
}

func (d *SQLiteDirectory) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := d.conn.ExecContext(ctx,
		`UPDATE users SET display_name = ? WHERE id = ?`, u.DisplayName, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", u.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check user update %s: %w", u.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
