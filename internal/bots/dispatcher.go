package bots

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/market"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/metrics"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
)

// Config tunes bot pacing. Zero values fall back to the defaults below.
type Config struct {
	DAMinInterval time.Duration // lower bound between a DA bot's quotes
	DAMaxInterval time.Duration // upper bound between a DA bot's quotes

	SimultaneousMinDelay time.Duration // one-shot action delay window
	SimultaneousMaxDelay time.Duration

	SecondMoveMinDelay time.Duration // pause before a bot answers a first move
	SecondMoveMaxDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		DAMinInterval:        3 * time.Second,
		DAMaxInterval:        12 * time.Second,
		SimultaneousMinDelay: 500 * time.Millisecond,
		SimultaneousMaxDelay: 5 * time.Second,
		SecondMoveMinDelay:   1 * time.Second,
		SecondMoveMaxDelay:   3 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DAMinInterval <= 0 {
		c.DAMinInterval = d.DAMinInterval
	}
	if c.DAMaxInterval <= c.DAMinInterval {
		c.DAMaxInterval = c.DAMinInterval + (d.DAMaxInterval - d.DAMinInterval)
	}
	if c.SimultaneousMinDelay <= 0 {
		c.SimultaneousMinDelay = d.SimultaneousMinDelay
	}
	if c.SimultaneousMaxDelay <= c.SimultaneousMinDelay {
		c.SimultaneousMaxDelay = c.SimultaneousMinDelay + (d.SimultaneousMaxDelay - d.SimultaneousMinDelay)
	}
	if c.SecondMoveMinDelay <= 0 {
		c.SecondMoveMinDelay = d.SecondMoveMinDelay
	}
	if c.SecondMoveMaxDelay <= c.SecondMoveMinDelay {
		c.SecondMoveMaxDelay = c.SecondMoveMinDelay + (d.SecondMoveMaxDelay - d.SecondMoveMinDelay)
	}
	return c
}

// Dispatcher schedules bot play for every session the manager starts. It
// implements session.Hooks: the lifecycle machine tells it when rounds
// open and close, and it owns one cancellation Scope per round so that
// nothing a bot queued can land after the round is over. Bot actions go
// through the same Manager submission methods as human ones.
type Dispatcher struct {
	cfg Config
	mgr *session.Manager
	log *logrus.Entry

	mu     sync.Mutex
	scopes map[string]*Scope   // by round ID
	rounds map[string][]string // session code -> round IDs with live scopes
	closed bool
}

var _ session.Hooks = (*Dispatcher)(nil)

func NewDispatcher(mgr *session.Manager, cfg Config, log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		cfg:    cfg.withDefaults(),
		mgr:    mgr,
		log:    log,
		scopes: make(map[string]*Scope),
		rounds: make(map[string][]string),
	}
}

// Shutdown cancels every live scope. Safe to call more than once.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	d.closed = true
	scopes := make([]*Scope, 0, len(d.scopes))
	for _, sc := range d.scopes {
		scopes = append(scopes, sc)
	}
	d.scopes = make(map[string]*Scope)
	d.rounds = make(map[string][]string)
	d.mu.Unlock()

	for _, sc := range scopes {
		sc.Cancel()
	}
}

// OnSessionStart tops the session up to its configured market size with
// bot players.
func (d *Dispatcher) OnSessionStart(s *session.Session) {
	for s.PlayerCount() < s.Config.MarketSize {
		if _, err := d.mgr.AddBotPlayer(s.Code); err != nil {
			d.log.WithError(err).WithField("session", s.Code).Warn("bot fill stopped")
			return
		}
	}
	d.log.WithFields(logrus.Fields{
		"session": s.Code,
		"players": s.PlayerCount(),
	}).Info("session filled with bots")
}

// OnRoundStart opens a scope for the round and schedules every bot
// according to the game's category.
func (d *Dispatcher) OnRoundStart(s *session.Session, r *session.Round) {
	sc := d.openScope(s.Code, r.ID)
	if sc == nil {
		return
	}

	gt := s.Config.GameType
	strat, ok := StrategyFor(gt)
	if !ok {
		d.log.WithField("game_type", gt).Warn("no strategy registered, bots idle this round")
		return
	}

	bots := botPlayers(s)
	switch gt.Category() {
	case engine.CategoryDoubleAuction:
		ds, ok := strat.(DAStrategy)
		if !ok {
			d.logBadStrategy(gt)
			return
		}
		for _, p := range bots {
			d.scheduleQuote(sc, s, r, p.ID, ds)
		}

	case engine.CategorySimultaneous:
		ss, ok := strat.(SimultaneousStrategy)
		if !ok {
			d.logBadStrategy(gt)
			return
		}
		for _, p := range bots {
			p := p
			rc := d.roundContext(s, r, p)
			sc.Schedule(jitter(d.cfg.SimultaneousMinDelay, d.cfg.SimultaneousMaxDelay), func() {
				d.runBotTask(s, p.ID, func() error {
					act := ss.SimultaneousAction(p, s.Config, rc)
					return d.submitAction(s, r, p.ID, act)
				})
			})
		}

	case engine.CategorySequential:
		qs, ok := strat.(SequentialStrategy)
		if !ok {
			d.logBadStrategy(gt)
			return
		}
		for _, p := range bots {
			if p.Role != session.RoleFirstMover {
				continue
			}
			p := p
			rc := d.roundContext(s, r, p)
			sc.Schedule(jitter(d.cfg.SimultaneousMinDelay, d.cfg.SimultaneousMaxDelay), func() {
				d.runBotTask(s, p.ID, func() error {
					act := qs.FirstMoveAction(p, s.Config, rc)
					return d.submitAction(s, r, p.ID, act)
				})
			})
		}

	case engine.CategorySpecialized:
		ps, ok := strat.(SpecializedStrategy)
		if !ok {
			d.logBadStrategy(gt)
			return
		}
		for _, p := range bots {
			p := p
			for _, ta := range ps.Actions(p, s.Config, d.roundContext(s, r, p)) {
				act := ta.Action
				sc.Schedule(ta.Delay, func() {
					d.runBotTask(s, p.ID, func() error {
						return d.submitAction(s, r, p.ID, &act)
					})
				})
			}
		}
	}
}

// OnFirstMove schedules the bot partner's reply to a first move. Human
// second movers answer on their own; bots get a short thinking delay.
func (d *Dispatcher) OnFirstMove(s *session.Session, r *session.Round, p *session.Player, act engine.Action) {
	if p.PartnerID == "" {
		return
	}
	partner := s.Player(p.PartnerID)
	if partner == nil || !partner.IsBot {
		return
	}
	sc := d.scope(r.ID)
	if sc == nil {
		return
	}
	strat, ok := StrategyFor(s.Config.GameType)
	if !ok {
		return
	}
	qs, ok := strat.(SequentialStrategy)
	if !ok {
		d.logBadStrategy(s.Config.GameType)
		return
	}

	sc.Schedule(jitter(d.cfg.SecondMoveMinDelay, d.cfg.SecondMoveMaxDelay), func() {
		d.runBotTask(s, partner.ID, func() error {
			reply := qs.SecondMoveAction(partner, s.Config, act)
			return d.submitAction(s, r, partner.ID, reply)
		})
	})
}

// OnRoundEnd cancels the round's scope. Anything a bot still had queued
// dies here.
func (d *Dispatcher) OnRoundEnd(s *session.Session, r *session.Round) {
	d.closeScope(s.Code, r.ID)
}

// OnSessionEnd cancels every remaining scope the session owns.
func (d *Dispatcher) OnSessionEnd(s *session.Session) {
	d.mu.Lock()
	ids := d.rounds[s.Code]
	delete(d.rounds, s.Code)
	scopes := make([]*Scope, 0, len(ids))
	for _, id := range ids {
		if sc, ok := d.scopes[id]; ok {
			scopes = append(scopes, sc)
			delete(d.scopes, id)
		}
	}
	d.mu.Unlock()

	for _, sc := range scopes {
		sc.Cancel()
	}
}

// scheduleQuote runs one DA bot tick and requeues itself with fresh
// jitter. The chain dies when the scope is cancelled.
func (d *Dispatcher) scheduleQuote(sc *Scope, s *session.Session, r *session.Round, playerID string, strat DAStrategy) {
	sc.Schedule(jitter(d.cfg.DAMinInterval, d.cfg.DAMaxInterval), func() {
		d.runBotTask(s, playerID, func() error {
			p := s.Player(playerID)
			if p == nil || !p.Active {
				return nil
			}
			var progress float64
			if s.Config.RoundDuration > 0 {
				progress = clamp(float64(time.Since(r.StartedAt))/float64(s.Config.RoundDuration), 0, 1)
			}
			quote, err := d.mgr.RoundQuote(r.ID)
			if err != nil {
				return nil // round gone, the scope cancel is in flight
			}
			ord := strat.DAAction(p, s.Config, progress, quote)
			if ord == nil {
				return nil
			}
			if ord.Side == market.Bid {
				_, _, err = d.mgr.SubmitBid(r.ID, playerID, ord.Price)
			} else {
				_, _, err = d.mgr.SubmitAsk(r.ID, playerID, ord.Price)
			}
			if err != nil {
				return err
			}
			metrics.BotActionsTotal.WithLabelValues(string(s.Config.GameType)).Inc()
			return nil
		})
		d.scheduleQuote(sc, s, r, playerID, strat)
	})
}

// submitAction pushes a strategy's generic action through the manager.
// A nil action means the strategy chose to sit out.
func (d *Dispatcher) submitAction(s *session.Session, r *session.Round, playerID string, act *engine.Action) error {
	if act == nil {
		return nil
	}
	res, err := d.mgr.SubmitAction(r.ID, playerID, *act)
	if err != nil {
		return err
	}
	if !res.Success {
		d.log.WithFields(logrus.Fields{
			"session": s.Code,
			"player":  playerID,
			"reason":  res.Error,
		}).Debug("bot action rejected by engine")
		return nil
	}
	metrics.BotActionsTotal.WithLabelValues(string(s.Config.GameType)).Inc()
	return nil
}

// runBotTask isolates one bot task: a panic or error in a single bot
// never takes down the dispatcher or another bot.
func (d *Dispatcher) runBotTask(s *session.Session, playerID string, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.BotErrorsTotal.Inc()
			d.log.WithFields(logrus.Fields{
				"session": s.Code,
				"player":  playerID,
				"panic":   fmt.Sprint(rec),
			}).Error("bot task panicked")
		}
	}()

	if err := fn(); err != nil {
		if errors.Is(err, session.ErrRoundNotActive) || errors.Is(err, session.ErrRoundNotFound) {
			// Lost the race with round end. Expected at the boundary.
			return
		}
		metrics.BotErrorsTotal.Inc()
		d.log.WithError(err).WithFields(logrus.Fields{
			"session": s.Code,
			"player":  playerID,
		}).Warn("bot task failed")
	}
}

func (d *Dispatcher) roundContext(s *session.Session, r *session.Round, p *session.Player) RoundContext {
	return RoundContext{Number: r.Number, RoundCount: s.Config.RoundCount, Profit: p.Profit}
}

func (d *Dispatcher) openScope(code, roundID string) *Scope {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	sc := NewScope()
	d.scopes[roundID] = sc
	d.rounds[code] = append(d.rounds[code], roundID)
	return sc
}

func (d *Dispatcher) scope(roundID string) *Scope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scopes[roundID]
}

func (d *Dispatcher) closeScope(code, roundID string) {
	d.mu.Lock()
	sc := d.scopes[roundID]
	delete(d.scopes, roundID)
	ids := d.rounds[code]
	for i, id := range ids {
		if id == roundID {
			d.rounds[code] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	if sc != nil {
		sc.Cancel()
	}
}

func (d *Dispatcher) logBadStrategy(gt engine.GameType) {
	d.log.WithField("game_type", gt).Warn("strategy does not match game category, bots idle")
}

func botPlayers(s *session.Session) []*session.Player {
	var out []*session.Player
	for _, p := range s.Players() {
		if p.IsBot && p.Active {
			out = append(out, p)
		}
	}
	return out
}
