package store

// CreateSession inserts a session row.
func (s *Store) CreateSession(row SessionRow) error {
	_, err := s.db.NamedExec(`
		INSERT INTO sessions (id, code, game_type, market_size, round_count, status, created_at)
		VALUES (:id, :code, :game_type, :market_size, :round_count, :status, :created_at)`, row)
	return err
}

// UpdateSessionStatus moves a session to a new status.
func (s *Store) UpdateSessionStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE sessions SET status = ? WHERE id = ?`, status, id)
	return err
}

// SessionByCode fetches a session by its join code.
func (s *Store) SessionByCode(code string) (SessionRow, error) {
	var row SessionRow
	err := s.db.Get(&row, `SELECT * FROM sessions WHERE code = ?`, code)
	return row, err
}

// CreateRound inserts a round row.
func (s *Store) CreateRound(row RoundRow) error {
	_, err := s.db.NamedExec(`
		INSERT INTO rounds (id, session_id, number, status)
		VALUES (:id, :session_id, :number, :status)`, row)
	return err
}

// UpdateRoundStatus moves a round to a new status.
func (s *Store) UpdateRoundStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE rounds SET status = ? WHERE id = ?`, status, id)
	return err
}

// RoundsBySession returns a session's rounds in order.
func (s *Store) RoundsBySession(sessionID string) ([]RoundRow, error) {
	var rows []RoundRow
	err := s.db.Select(&rows, `SELECT * FROM rounds WHERE session_id = ? ORDER BY number`, sessionID)
	return rows, err
}

// CreatePlayer inserts a player row.
func (s *Store) CreatePlayer(row PlayerRow) error {
	_, err := s.db.NamedExec(`
		INSERT INTO players (id, session_id, name, role, valuation, cost, profit, is_bot, active)
		VALUES (:id, :session_id, :name, :role, :valuation, :cost, :profit, :is_bot, :active)`, row)
	return err
}

// UpdatePlayerProfit sets a player's cumulative profit.
func (s *Store) UpdatePlayerProfit(id string, profit float64) error {
	_, err := s.db.Exec(`UPDATE players SET profit = ? WHERE id = ?`, profit, id)
	return err
}

// DeactivatePlayer marks a disconnected player inactive.
func (s *Store) DeactivatePlayer(id string) error {
	_, err := s.db.Exec(`UPDATE players SET active = 0 WHERE id = ?`, id)
	return err
}

// PlayersBySession returns a session's players.
func (s *Store) PlayersBySession(sessionID string) ([]PlayerRow, error) {
	var rows []PlayerRow
	err := s.db.Select(&rows, `SELECT * FROM players WHERE session_id = ?`, sessionID)
	return rows, err
}

// SaveOrder inserts a bid or ask row.
func (s *Store) SaveOrder(row OrderRow) error {
	_, err := s.db.NamedExec(`
		INSERT INTO orders (id, round_id, player_id, side, price, active, created_at)
		VALUES (:id, :round_id, :player_id, :side, :price, :active, :created_at)`, row)
	return err
}

// DeactivateOrder marks a single order inactive.
func (s *Store) DeactivateOrder(id string) error {
	_, err := s.db.Exec(`UPDATE orders SET active = 0 WHERE id = ?`, id)
	return err
}

// DeactivateRoundOrders expires every remaining active order of a round.
// Running it again is a no-op.
func (s *Store) DeactivateRoundOrders(roundID string) error {
	_, err := s.db.Exec(`UPDATE orders SET active = 0 WHERE round_id = ? AND active = 1`, roundID)
	return err
}

// ActiveOrdersByRound returns the live book of a round, oldest first.
func (s *Store) ActiveOrdersByRound(roundID string) ([]OrderRow, error) {
	var rows []OrderRow
	err := s.db.Select(&rows, `
		SELECT * FROM orders WHERE round_id = ? AND active = 1 ORDER BY created_at`, roundID)
	return rows, err
}

// SaveTrade inserts a trade row.
func (s *Store) SaveTrade(row TradeRow) error {
	_, err := s.db.NamedExec(`
		INSERT INTO trades (id, round_id, bid_id, ask_id, buyer_id, seller_id,
			price, buyer_profit, seller_profit, executed_at)
		VALUES (:id, :round_id, :bid_id, :ask_id, :buyer_id, :seller_id,
			:price, :buyer_profit, :seller_profit, :executed_at)`, row)
	return err
}

// TradesByRound returns a round's trades in execution order.
func (s *Store) TradesByRound(roundID string) ([]TradeRow, error) {
	var rows []TradeRow
	err := s.db.Select(&rows, `SELECT * FROM trades WHERE round_id = ? ORDER BY executed_at`, roundID)
	return rows, err
}

// SaveAction inserts a generic game action row.
func (s *Store) SaveAction(row ActionRow) error {
	_, err := s.db.NamedExec(`
		INSERT INTO actions (round_id, player_id, kind, amount, accept)
		VALUES (:round_id, :player_id, :kind, :amount, :accept)`, row)
	return err
}

// SaveResult inserts a scored round result row.
func (s *Store) SaveResult(row ResultRow) error {
	_, err := s.db.NamedExec(`
		INSERT INTO results (id, round_id, player_id, profit)
		VALUES (:id, :round_id, :player_id, :profit)`, row)
	return err
}

// ResultsByRound returns a round's scored results.
func (s *Store) ResultsByRound(roundID string) ([]ResultRow, error) {
	var rows []ResultRow
	err := s.db.Select(&rows, `SELECT * FROM results WHERE round_id = ?`, roundID)
	return rows, err
}
