package engine

import (
	"fmt"
	"sync"
)

// PublicGoodsConfig parameterizes the linear public goods game.
type PublicGoodsConfig struct {
	Endowment  float64 // tokens each player starts the round with
	Multiplier float64 // group account multiplier (MPCR * group size)
}

// DefaultPublicGoodsConfig returns the standard classroom parameters.
func DefaultPublicGoodsConfig() PublicGoodsConfig {
	return PublicGoodsConfig{Endowment: 20, Multiplier: 1.6}
}

// PublicGoodsEngine scores a linear public goods game: each player keeps
// endowment minus contribution and receives an equal share of the multiplied
// group account. One contribution per player per round; later submissions
// for the same player are rejected.
type PublicGoodsEngine struct {
	cfg PublicGoodsConfig

	mu     sync.Mutex
	rounds map[string]map[string]float64 // roundID -> playerID -> contribution
}

func NewPublicGoodsEngine(cfg PublicGoodsConfig) *PublicGoodsEngine {
	return &PublicGoodsEngine{
		cfg:    cfg,
		rounds: make(map[string]map[string]float64),
	}
}

// HandleAction records a contribution. The envelope is validated here:
// only KindContribution is understood, and the amount must lie within
// [0, endowment].
func (e *PublicGoodsEngine) HandleAction(roundID, playerID string, act Action) Result {
	if act.Kind != KindContribution {
		return Fail(fmt.Sprintf("public goods game cannot handle %q actions", act.Kind))
	}
	if act.Amount < 0 || act.Amount > e.cfg.Endowment {
		return Fail(fmt.Sprintf("contribution must be between 0 and %g", e.cfg.Endowment))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	contributions, ok := e.rounds[roundID]
	if !ok {
		contributions = make(map[string]float64)
		e.rounds[roundID] = contributions
	}
	if _, dup := contributions[playerID]; dup {
		return Fail("contribution already submitted this round")
	}
	contributions[playerID] = act.Amount
	return Ok()
}

// ScoreRound computes each contributor's round profit and releases the
// round's state. Players who submitted nothing are not in the result.
func (e *PublicGoodsEngine) ScoreRound(roundID string) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	contributions := e.rounds[roundID]
	if len(contributions) == 0 {
		return nil
	}
	delete(e.rounds, roundID)

	var total float64
	for _, c := range contributions {
		total += c
	}
	share := total * e.cfg.Multiplier / float64(len(contributions))

	profits := make(map[string]float64, len(contributions))
	for id, c := range contributions {
		profits[id] = e.cfg.Endowment - c + share
	}
	return profits
}

// Contributions returns a copy of the contributions recorded for a round.
func (e *PublicGoodsEngine) Contributions(roundID string) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64, len(e.rounds[roundID]))
	for id, c := range e.rounds[roundID] {
		out[id] = c
	}
	return out
}
