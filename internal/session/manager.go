package session

import (
	"crypto/rand"
	"fmt"
	"time"

	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/market"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/metrics"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/store"
)

// Broadcast event names. The gateway delivers them best-effort; the core
// only triggers them.
const (
	EventBidSubmitted    = "bid-submitted"
	EventAskSubmitted    = "ask-submitted"
	EventTradeExecuted   = "trade-executed"
	EventRoundStarted    = "round-started"
	EventRoundEnded      = "round-ended"
	EventActionSubmitted = "action-submitted"
	EventRoundResults    = "round-results"
	EventTimerUpdate     = "timer-update"
	EventPlayerJoined    = "player-joined"
	EventSessionEnded    = "session-ended"
)

// Broadcaster fans state changes out to connected clients. Implemented by
// the websocket hub; nil disables broadcasting.
type Broadcaster interface {
	Broadcast(sessionCode, event string, payload any)
}

// Hooks is how the lifecycle machine drives the bot dispatcher. All hook
// calls happen outside the session lock, after the transition they report
// is already visible.
type Hooks interface {
	OnSessionStart(*Session)
	OnRoundStart(*Session, *Round)
	OnRoundEnd(*Session, *Round)
	OnSessionEnd(*Session)
	OnFirstMove(s *Session, r *Round, p *Player, act engine.Action)
}

// Manager owns every live session and is the single entry point for
// lifecycle transitions and submissions; humans and bots go through the
// same methods. Sessions are independent: each carries its own lock and no
// call touches two sessions.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session // by code
	rounds    map[string]*Round   // by round ID
	roundSess map[string]*Session // round ID -> owning session

	store   *store.Store
	hub     Broadcaster
	engines *engine.Registry
	hooks   Hooks
	log     *logrus.Entry

	onRoundExpired func(sessionCode, roundID string)
}

// NewManager builds a manager. store and hub may be nil (tests run the
// core fully in memory).
func NewManager(st *store.Store, hub Broadcaster, engines *engine.Registry, log *logrus.Entry) *Manager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		rounds:    make(map[string]*Round),
		roundSess: make(map[string]*Session),
		store:     st,
		hub:       hub,
		engines:   engines,
		log:       log,
	}
}

// SetHooks installs the dispatcher hooks. Must be called before the first
// session starts.
func (m *Manager) SetHooks(h Hooks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = h
}

// OnRoundExpired registers the callback invoked when a round's configured
// duration runs out. The core never ends rounds on its own clock; the
// callback is where the hosting process decides to call EndRound.
func (m *Manager) OnRoundExpired(fn func(sessionCode, roundID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRoundExpired = fn
}

// CreateSession registers a new session in the waiting state. The
// passcode, if any, guards the admin lifecycle endpoints.
func (m *Manager) CreateSession(cfg Config, passcode string) (*Session, error) {
	if !cfg.GameType.Valid() {
		return nil, fmt.Errorf("unknown game type %q", cfg.GameType)
	}
	if cfg.MarketSize <= 0 {
		return nil, fmt.Errorf("market_size must be positive")
	}
	if cfg.RoundCount <= 0 {
		return nil, fmt.Errorf("round_count must be positive")
	}
	if hasTraderRoles(cfg.GameType) {
		if err := cfg.BuyerValues.Validate(); err != nil {
			return nil, fmt.Errorf("buyer_values: %w", err)
		}
		if err := cfg.SellerCosts.Validate(); err != nil {
			return nil, fmt.Errorf("seller_costs: %w", err)
		}
	}

	s := &Session{
		ID:        uuid.New().String(),
		Code:      generateCode(),
		Config:    cfg,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
		players:   make(map[string]*Player),
	}
	if passcode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s.passcodeHash = hash
	}

	if hasTraderRoles(cfg.GameType) {
		s.buyerValues = market.NewValueGenerator(cfg.BuyerValues, 0)
		s.sellerCosts = market.NewValueGenerator(cfg.SellerCosts, 0)
	}

	m.mu.Lock()
	m.sessions[s.Code] = s
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.CreateSession(store.SessionRow{
			ID:         s.ID,
			Code:       s.Code,
			GameType:   string(cfg.GameType),
			MarketSize: cfg.MarketSize,
			RoundCount: cfg.RoundCount,
			Status:     string(s.Status),
			CreatedAt:  s.CreatedAt,
		}); err != nil {
			m.log.WithError(err).Warn("persist session failed")
		}
	}

	m.log.WithFields(logrus.Fields{
		"code": s.Code, "game_type": cfg.GameType, "market_size": cfg.MarketSize,
	}).Info("session created")
	return s, nil
}

// Session returns the session with the given code.
func (m *Manager) Session(code string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// CheckPasscode compares the admin passcode for a session.
func (m *Manager) CheckPasscode(code, passcode string) error {
	s, err := m.Session(code)
	if err != nil {
		return err
	}
	if len(s.passcodeHash) == 0 {
		return nil
	}
	if bcrypt.CompareHashAndPassword(s.passcodeHash, []byte(passcode)) != nil {
		return ErrInvalidPasscode
	}
	return nil
}

// Join adds a human participant to a waiting session.
func (m *Manager) Join(code, name string) (*Player, error) {
	return m.addPlayer(code, name, false)
}

// AddBotPlayer adds a simulated participant. Bots go through the same
// role assignment and valuation draw as humans; the dispatcher calls this
// at session start to fill remaining capacity.
func (m *Manager) AddBotPlayer(code string) (*Player, error) {
	return m.addPlayer(code, "", true)
}

func (m *Manager) addPlayer(code, name string, isBot bool) (*Player, error) {
	s, err := m.Session(code)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.Status != StatusWaiting && !(isBot && s.Status == StatusActive) {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if len(s.players) >= s.Config.MarketSize {
		s.mu.Unlock()
		return nil, ErrSessionFull
	}

	p := &Player{
		ID:        uuid.New().String(),
		SessionID: s.ID,
		Name:      name,
		IsBot:     isBot,
		Active:    true,
	}
	if isBot && name == "" {
		p.Name = fmt.Sprintf("bot_%d", len(s.players)+1)
	}
	p.Role = s.assignRoleLocked()
	switch p.Role {
	case RoleBuyer:
		p.Valuation = s.buyerValues.Next()
	case RoleSeller:
		p.Cost = s.sellerCosts.Next()
	}
	s.players[p.ID] = p
	s.joinOrder = append(s.joinOrder, p.ID)
	s.pairPlayerLocked(p)
	joined := *p
	s.mu.Unlock()

	if m.store != nil {
		if err := m.store.CreatePlayer(store.PlayerRow{
			ID:        p.ID,
			SessionID: p.SessionID,
			Name:      p.Name,
			Role:      string(p.Role),
			Valuation: p.Valuation,
			Cost:      p.Cost,
			IsBot:     p.IsBot,
			Active:    p.Active,
		}); err != nil {
			m.log.WithError(err).Warn("persist player failed")
		}
	}

	m.broadcast(s.Code, EventPlayerJoined, map[string]any{"player": joined})
	return p, nil
}

// Start activates a waiting session: rounds are created in one batch, the
// dispatcher fills bot capacity, and round 1 begins.
func (m *Manager) Start(code string) error {
	s, err := m.Session(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.Status != StatusWaiting {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.Status = StatusActive
	s.StartedAt = time.Now()

	s.rounds = make([]*Round, 0, s.Config.RoundCount)
	for n := 1; n <= s.Config.RoundCount; n++ {
		r := &Round{
			ID:        uuid.New().String(),
			SessionID: s.ID,
			Number:    n,
			Status:    StatusWaiting,
		}
		if s.Config.GameType.Category() == engine.CategoryDoubleAuction {
			r.Book = market.NewRoundBook(r.ID)
		}
		s.rounds = append(s.rounds, r)
	}
	rounds := make([]*Round, len(s.rounds))
	copy(rounds, s.rounds)
	s.mu.Unlock()

	m.mu.Lock()
	for _, r := range rounds {
		m.rounds[r.ID] = r
		m.roundSess[r.ID] = s
	}
	hooks := m.hooks
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.UpdateSessionStatus(s.ID, string(s.Status)); err != nil {
			m.log.WithError(err).Warn("persist session status failed")
		}
		for _, r := range rounds {
			if err := m.store.CreateRound(store.RoundRow{
				ID:        r.ID,
				SessionID: r.SessionID,
				Number:    r.Number,
				Status:    string(r.Status),
			}); err != nil {
				m.log.WithError(err).Warn("persist round failed")
			}
		}
	}

	metrics.ActiveSessions.Inc()
	m.log.WithFields(logrus.Fields{"code": s.Code, "rounds": len(rounds)}).Info("session started")

	if s.Config.BotsEnabled && hooks != nil {
		hooks.OnSessionStart(s)
	}

	return m.StartRound(code, 1)
}

// StartRound activates round n. The session must be active, the round
// waiting, and every earlier round completed. At most one round per
// session is ever active.
func (m *Manager) StartRound(code string, n int) error {
	s, err := m.Session(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.Status != StatusActive {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if n < 1 || n > len(s.rounds) {
		s.mu.Unlock()
		return ErrRoundNotFound
	}
	r := s.rounds[n-1]
	if r.Status != StatusWaiting {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	for _, other := range s.rounds {
		if other.Status == StatusActive {
			s.mu.Unlock()
			return ErrInvalidTransition
		}
	}
	if n > 1 && s.rounds[n-2].Status != StatusCompleted {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	r.Status = StatusActive
	r.StartedAt = time.Now()
	s.Current = n
	if s.Config.RoundDuration > 0 {
		r.timerStop = make(chan struct{})
		go m.runRoundTimer(s, r, r.timerStop)
	}
	started := *r
	s.mu.Unlock()

	if m.store != nil {
		if err := m.store.UpdateRoundStatus(r.ID, string(StatusActive)); err != nil {
			m.log.WithError(err).Warn("persist round status failed")
		}
	}

	metrics.ActiveRounds.Inc()
	m.log.WithFields(logrus.Fields{"code": s.Code, "round": n}).Info("round started")

	m.mu.RLock()
	hooks := m.hooks
	m.mu.RUnlock()
	if hooks != nil {
		hooks.OnRoundStart(s, r)
	}
	m.broadcast(s.Code, EventRoundStarted, map[string]any{
		"round":       started,
		"roundNumber": started.Number,
	})
	return nil
}

// EndRound completes an active round: remaining orders expire without
// trading, generic games are scored, bot timers for the round are
// cancelled, and results are broadcast.
func (m *Manager) EndRound(roundID string) error {
	s, r, err := m.resolveRound(roundID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if r.Status != StatusActive {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	m.finishRoundLocked(s, r)
	results := m.scoreRoundLocked(s, r)
	if r.Number < len(s.rounds) {
		s.Current = r.Number + 1
	}
	ended := *r
	s.mu.Unlock()

	if m.store != nil {
		if err := m.store.UpdateRoundStatus(r.ID, string(StatusCompleted)); err != nil {
			m.log.WithError(err).Warn("persist round status failed")
		}
		if err := m.store.DeactivateRoundOrders(r.ID); err != nil {
			m.log.WithError(err).Warn("persist order expiry failed")
		}
	}

	metrics.ActiveRounds.Dec()
	m.log.WithFields(logrus.Fields{"code": s.Code, "round": r.Number}).Info("round ended")

	m.mu.RLock()
	hooks := m.hooks
	m.mu.RUnlock()
	if hooks != nil {
		hooks.OnRoundEnd(s, r)
	}
	m.broadcast(s.Code, EventRoundEnded, map[string]any{"round": ended})
	m.broadcast(s.Code, EventRoundResults, map[string]any{
		"round_id": r.ID,
		"results":  results,
	})
	return nil
}

// finishRoundLocked expires the book and marks the round completed.
// Caller holds s.mu.
func (m *Manager) finishRoundLocked(s *Session, r *Round) {
	if r.timerStop != nil {
		close(r.timerStop)
		r.timerStop = nil
	}
	if r.Book != nil {
		r.Book.Close()
	}
	r.Status = StatusCompleted
	r.EndedAt = time.Now()
}

// RoundResult is the per-player outcome of one round.
type RoundResult struct {
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	RoundProfit float64 `json:"round_profit"`
	TotalProfit float64 `json:"total_profit"`
}

// scoreRoundLocked builds the round results. Double-auction profits were
// applied trade by trade; generic games are scored here through the
// engine's Scorer. Caller holds s.mu.
func (m *Manager) scoreRoundLocked(s *Session, r *Round) []RoundResult {
	roundProfit := make(map[string]float64)

	if r.Book != nil {
		for _, t := range r.Book.Trades() {
			roundProfit[t.BuyerID] += t.BuyerProfit
			roundProfit[t.SellerID] += t.SellerProfit
		}
	} else if m.engines != nil {
		if eng, ok := m.engines.Lookup(s.Config.GameType); ok {
			if scorer, ok := eng.(engine.Scorer); ok {
				for id, profit := range scorer.ScoreRound(r.ID) {
					p := s.players[id]
					if p == nil {
						continue
					}
					p.Profit += profit
					roundProfit[id] = profit
					if m.store != nil {
						if err := m.store.UpdatePlayerProfit(id, p.Profit); err != nil {
							m.log.WithError(err).Warn("persist profit failed")
						}
						if err := m.store.SaveResult(store.ResultRow{
							ID:       uuid.New().String(),
							RoundID:  r.ID,
							PlayerID: id,
							Profit:   profit,
						}); err != nil {
							m.log.WithError(err).Warn("persist result failed")
						}
					}
				}
			}
		}
	}

	results := make([]RoundResult, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		p := s.players[id]
		results = append(results, RoundResult{
			PlayerID:    p.ID,
			Name:        p.Name,
			RoundProfit: roundProfit[p.ID],
			TotalProfit: p.Profit,
		})
	}
	return results
}

// End completes an active session. An active round is finished first;
// rounds that never started are force-cancelled.
func (m *Manager) End(code string) error {
	return m.shutdown(code, StatusCompleted)
}

// Cancel force-cancels a waiting or active session.
func (m *Manager) Cancel(code string) error {
	return m.shutdown(code, StatusCancelled)
}

func (m *Manager) shutdown(code string, final Status) error {
	s, err := m.Session(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	switch {
	case final == StatusCompleted && s.Status != StatusActive:
		s.mu.Unlock()
		return ErrInvalidTransition
	case final == StatusCancelled && s.Status != StatusActive && s.Status != StatusWaiting:
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.Status = final
	s.EndedAt = time.Now()
	for _, r := range s.rounds {
		switch r.Status {
		case StatusActive:
			m.finishRoundLocked(s, r)
			metrics.ActiveRounds.Dec()
		case StatusWaiting:
			r.Status = StatusCancelled
		}
	}
	rounds := make([]*Round, len(s.rounds))
	copy(rounds, s.rounds)
	s.mu.Unlock()

	if m.store != nil {
		if err := m.store.UpdateSessionStatus(s.ID, string(final)); err != nil {
			m.log.WithError(err).Warn("persist session status failed")
		}
		for _, r := range rounds {
			if err := m.store.UpdateRoundStatus(r.ID, string(r.Status)); err != nil {
				m.log.WithError(err).Warn("persist round status failed")
			}
		}
	}

	metrics.ActiveSessions.Dec()
	m.log.WithFields(logrus.Fields{"code": s.Code, "status": final}).Info("session ended")

	m.mu.RLock()
	hooks := m.hooks
	m.mu.RUnlock()
	if hooks != nil {
		hooks.OnSessionEnd(s)
	}
	m.broadcast(s.Code, EventSessionEnded, map[string]any{"session_code": s.Code, "status": final})
	return nil
}

func (m *Manager) resolveRound(roundID string) (*Session, *Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rounds[roundID]
	if !ok {
		return nil, nil, ErrRoundNotFound
	}
	return m.roundSess[roundID], r, nil
}

// runRoundTimer broadcasts a once-per-second countdown while the round's
// configured duration elapses, then fires the expiry callback. Ending the
// round closes stop and the goroutine exits without firing.
func (m *Manager) runRoundTimer(s *Session, r *Round, stop chan struct{}) {
	deadline := time.Now().Add(s.Config.RoundDuration)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			m.broadcast(s.Code, EventTimerUpdate, map[string]any{
				"round_id":      r.ID,
				"remaining_sec": int(remaining.Seconds()),
			})
			if remaining == 0 {
				m.mu.RLock()
				cb := m.onRoundExpired
				m.mu.RUnlock()
				if cb != nil {
					cb(s.Code, r.ID)
				}
				return
			}
		case <-stop:
			return
		}
	}
}

func (m *Manager) broadcast(code, event string, payload any) {
	if m.hub != nil {
		m.hub.Broadcast(code, event, payload)
	}
}

func hasTraderRoles(gt engine.GameType) bool {
	switch gt.Category() {
	case engine.CategoryDoubleAuction, engine.CategorySpecialized:
		return true
	}
	return false
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateCode returns a 6-character join code.
func generateCode() string {
	b := make([]byte, 6)
	rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}
