package store

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          TEXT PRIMARY KEY,
	is_complete INTEGER NOT NULL DEFAULT 0,
	moves       INTEGER NOT NULL DEFAULT 0,
	start_time  TIMESTAMP,
	end_time    TIMESTAMP,
	user_id     TEXT,
	version     INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS cards (
	id         TEXT PRIMARY KEY,
	game_id    TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	image_url  TEXT NOT NULL,
	is_flipped INTEGER NOT NULL DEFAULT 0,
	is_matched INTEGER NOT NULL DEFAULT 0,
	pair_id    TEXT NOT NULL,
	position   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cards_game_id ON cards(game_id);
CREATE INDEX IF NOT EXISTS idx_games_user_id ON games(user_id);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
);
`
