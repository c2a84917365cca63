package session

import (
	"sync"
	"time"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/market"
)

// Status is shared by sessions and rounds. Rounds never reach
// StatusCancelled through normal play; only a force-ended session marks
// its not-yet-started rounds cancelled.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Role is a player's position in the game.
type Role string

const (
	RoleBuyer       Role = "buyer"
	RoleSeller      Role = "seller"
	RoleFirstMover  Role = "first_mover"
	RoleSecondMover Role = "second_mover"
	RoleParticipant Role = "participant"
)

// Config is the per-session experiment configuration set at creation.
type Config struct {
	GameType      engine.GameType    `json:"game_type"`
	MarketSize    int                `json:"market_size"`
	RoundCount    int                `json:"round_count"`
	RoundDuration time.Duration      `json:"round_duration"`
	BotsEnabled   bool               `json:"bots_enabled"`
	BuyerValues   market.ValueConfig `json:"buyer_values"`
	SellerCosts   market.ValueConfig `json:"seller_costs"`
	Endowment     float64            `json:"endowment"` // generic-game budget per round
}

// Player is a human or bot participant in one session.
type Player struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Name      string  `json:"name"`
	Role      Role    `json:"role"`
	Valuation float64 `json:"valuation,omitempty"` // buyers, DA games
	Cost      float64 `json:"cost,omitempty"`      // sellers, DA games
	Profit    float64 `json:"profit"`              // cumulative across rounds
	IsBot     bool    `json:"is_bot"`
	Active    bool    `json:"active"`
	PartnerID string  `json:"partner_id,omitempty"` // sequential games
}

// Round is one timed period within a session.
type Round struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Number    int       `json:"number"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`

	// Book is set for double-auction category games only.
	Book *market.RoundBook `json:"-"`

	timerStop chan struct{}
}

// Session is one experiment instance. All mutation goes through the
// Manager, which takes the session mutex; other packages read through the
// accessor methods below and treat the exported scalars as frozen after
// creation (ID, Code, Config).
type Session struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Config    Config    `json:"config"`
	Status    Status    `json:"status"`
	Current   int       `json:"current_round"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`

	passcodeHash []byte

	mu        sync.Mutex
	players   map[string]*Player
	joinOrder []string
	rounds    []*Round

	buyerValues *market.ValueGenerator
	sellerCosts *market.ValueGenerator
}

// Players returns the session's players in join order.
func (s *Session) Players() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Player, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		out = append(out, s.players[id])
	}
	return out
}

// Player returns the player with the given ID, or nil.
func (s *Session) Player(id string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[id]
}

// PlayerCount returns the number of joined players (humans and bots).
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Rounds returns the session's rounds in order. Empty until the session
// starts; rounds are created in one batch at start.
func (s *Session) Rounds() []*Round {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Round, len(s.rounds))
	copy(out, s.rounds)
	return out
}

// roleCountsLocked tallies players per role. Caller holds s.mu.
func (s *Session) roleCountsLocked() map[Role]int {
	counts := make(map[Role]int)
	for _, p := range s.players {
		counts[p.Role]++
	}
	return counts
}
