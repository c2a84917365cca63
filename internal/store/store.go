// Package store provides SQLite persistence for sessions, rounds,
// players, orders, trades, and results. The session manager writes
// through to it synchronously; the in-memory state stays authoritative.
package store

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sqlx.DB
}

// Open creates a Store and initializes the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		code TEXT UNIQUE NOT NULL,
		game_type TEXT NOT NULL,
		market_size INTEGER NOT NULL,
		round_count INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'waiting',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		number INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'waiting'
	);

	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		valuation REAL NOT NULL DEFAULT 0,
		cost REAL NOT NULL DEFAULT 0,
		profit REAL NOT NULL DEFAULT 0,
		is_bot INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		round_id TEXT NOT NULL REFERENCES rounds(id),
		player_id TEXT NOT NULL REFERENCES players(id),
		side TEXT NOT NULL,  -- 'bid' or 'ask'
		price REAL NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		round_id TEXT NOT NULL REFERENCES rounds(id),
		bid_id TEXT NOT NULL REFERENCES orders(id),
		ask_id TEXT NOT NULL REFERENCES orders(id),
		buyer_id TEXT NOT NULL REFERENCES players(id),
		seller_id TEXT NOT NULL REFERENCES players(id),
		price REAL NOT NULL,
		buyer_profit REAL NOT NULL,
		seller_profit REAL NOT NULL,
		executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		round_id TEXT NOT NULL REFERENCES rounds(id),
		player_id TEXT NOT NULL REFERENCES players(id),
		kind TEXT NOT NULL,
		amount REAL NOT NULL DEFAULT 0,
		accept INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		round_id TEXT NOT NULL REFERENCES rounds(id),
		player_id TEXT NOT NULL REFERENCES players(id),
		profit REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id);
	CREATE INDEX IF NOT EXISTS idx_players_session ON players(session_id);
	CREATE INDEX IF NOT EXISTS idx_orders_round ON orders(round_id);
	CREATE INDEX IF NOT EXISTS idx_trades_round ON trades(round_id);
	CREATE INDEX IF NOT EXISTS idx_actions_round ON actions(round_id);
	CREATE INDEX IF NOT EXISTS idx_results_round ON results(round_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SessionRow mirrors one sessions row.
type SessionRow struct {
	ID         string    `db:"id"`
	Code       string    `db:"code"`
	GameType   string    `db:"game_type"`
	MarketSize int       `db:"market_size"`
	RoundCount int       `db:"round_count"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

// RoundRow mirrors one rounds row.
type RoundRow struct {
	ID        string `db:"id"`
	SessionID string `db:"session_id"`
	Number    int    `db:"number"`
	Status    string `db:"status"`
}

// PlayerRow mirrors one players row.
type PlayerRow struct {
	ID        string  `db:"id"`
	SessionID string  `db:"session_id"`
	Name      string  `db:"name"`
	Role      string  `db:"role"`
	Valuation float64 `db:"valuation"`
	Cost      float64 `db:"cost"`
	Profit    float64 `db:"profit"`
	IsBot     bool    `db:"is_bot"`
	Active    bool    `db:"active"`
}

// OrderRow mirrors one orders row.
type OrderRow struct {
	ID        string    `db:"id"`
	RoundID   string    `db:"round_id"`
	PlayerID  string    `db:"player_id"`
	Side      string    `db:"side"`
	Price     float64   `db:"price"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// TradeRow mirrors one trades row.
type TradeRow struct {
	ID           string    `db:"id"`
	RoundID      string    `db:"round_id"`
	BidID        string    `db:"bid_id"`
	AskID        string    `db:"ask_id"`
	BuyerID      string    `db:"buyer_id"`
	SellerID     string    `db:"seller_id"`
	Price        float64   `db:"price"`
	BuyerProfit  float64   `db:"buyer_profit"`
	SellerProfit float64   `db:"seller_profit"`
	ExecutedAt   time.Time `db:"executed_at"`
}

// ActionRow mirrors one actions row.
type ActionRow struct {
	ID       int64   `db:"id"`
	RoundID  string  `db:"round_id"`
	PlayerID string  `db:"player_id"`
	Kind     string  `db:"kind"`
	Amount   float64 `db:"amount"`
	Accept   bool    `db:"accept"`
}

// ResultRow mirrors one results row.
type ResultRow struct {
	ID       string  `db:"id"`
	RoundID  string  `db:"round_id"`
	PlayerID string  `db:"player_id"`
	Profit   float64 `db:"profit"`
}
