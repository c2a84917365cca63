package bots

import (
	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
)

// cournotStrategy picks an output quantity between a third and roughly
// half of the player's capacity, the band competitive play lands in for
// small oligopolies.
type cournotStrategy struct{}

func (cournotStrategy) SimultaneousAction(_ *session.Player, cfg session.Config, _ RoundContext) *engine.Action {
	capacity := cfg.Endowment
	if capacity <= 0 {
		capacity = 20
	}
	qty := capacity * between(0.3, 0.55)
	return &engine.Action{Kind: engine.KindQuantity, Amount: qty}
}

// bertrandStrategy prices at a markup over unit cost that shrinks across
// rounds, mimicking the undercutting race toward marginal cost.
type bertrandStrategy struct{}

func (bertrandStrategy) SimultaneousAction(_ *session.Player, cfg session.Config, rc RoundContext) *engine.Action {
	cost := cfg.SellerCosts.Min
	if cost <= 0 {
		cost = 10
	}
	markup := between(0.1, 0.4) - 0.05*float64(rc.Number-1)
	if markup < 0.02 {
		markup = 0.02
	}
	return &engine.Action{Kind: engine.KindPrice, Amount: cost * (1 + markup)}
}

// publicGoodsStrategy contributes a middling share of the endowment and
// decays it round over round, with an extra pullback after a round where
// the group return fell short of the private option.
type publicGoodsStrategy struct{}

func (publicGoodsStrategy) SimultaneousAction(_ *session.Player, cfg session.Config, rc RoundContext) *engine.Action {
	endow := cfg.Endowment
	if endow <= 0 {
		endow = 20
	}
	rate := between(0.4, 0.7) * decay(rc.Number)
	if rc.Number > 1 && rc.Profit < endow*float64(rc.Number-1) {
		rate *= 0.7
	}
	return &engine.Action{Kind: engine.KindContribution, Amount: clamp(endow*rate, 0, endow)}
}

func decay(round int) float64 {
	d := 1 - 0.05*float64(round-1)
	if d < 0.2 {
		return 0.2
	}
	return d
}
