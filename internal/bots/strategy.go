package bots

import (
	"math/rand"
	"time"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/market"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
)

// RoundContext carries the cross-round state a strategy may condition on.
type RoundContext struct {
	Number     int
	RoundCount int
	// Profit is the player's cumulative profit at round start.
	Profit float64
}

// DAOrder is one quote a double-auction strategy wants placed.
type DAOrder struct {
	Side  market.Side
	Price float64
}

// TimedAction is one step in a specialized strategy's round timeline.
type TimedAction struct {
	Delay  time.Duration
	Action engine.Action
}

// Strategies are grouped by the scheduling shape their game needs.
// A strategy implements exactly one of these interfaces; the dispatcher
// asserts the one matching the game's category.

type SimultaneousStrategy interface {
	// SimultaneousAction returns the bot's single decision for the round,
	// or nil to sit the round out.
	SimultaneousAction(p *session.Player, cfg session.Config, rc RoundContext) *engine.Action
}

type SequentialStrategy interface {
	FirstMoveAction(p *session.Player, cfg session.Config, rc RoundContext) *engine.Action
	// SecondMoveAction responds to the partner's observed first move.
	SecondMoveAction(p *session.Player, cfg session.Config, first engine.Action) *engine.Action
}

type DAStrategy interface {
	// DAAction returns the next quote given round progress in [0,1] and the
	// current best bid/ask, or nil to skip this tick.
	DAAction(p *session.Player, cfg session.Config, progress float64, q market.Quote) *DAOrder
}

type SpecializedStrategy interface {
	// Actions returns the bot's full timeline for the round up front.
	Actions(p *session.Player, cfg session.Config, rc RoundContext) []TimedAction
}

var strategies = map[engine.GameType]any{
	engine.DoubleAuction:     &auctionStrategy{},
	engine.Cournot:           &cournotStrategy{},
	engine.Bertrand:          &bertrandStrategy{},
	engine.PublicGoods:       &publicGoodsStrategy{},
	engine.Ultimatum:         &ultimatumStrategy{},
	engine.TrustGame:         &trustStrategy{},
	engine.PostedOffer:       &postedOfferStrategy{},
	engine.DiscoveryProcess:  &discoveryStrategy{},
	engine.ContestableMarket: &contestableStrategy{},
}

// StrategyFor returns the strategy registered for the game type. A game
// with no strategy simply fields inert bots.
func StrategyFor(gt engine.GameType) (any, bool) {
	s, ok := strategies[gt]
	return s, ok
}

// between draws uniformly from [lo, hi).
func between(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rand.Float64()*(hi-lo)
}

// jitter draws a duration uniformly from [lo, hi).
func jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
