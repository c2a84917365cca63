package bots

import (
	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
)

// ultimatumStrategy proposes 30-50% of the pie and, as responder, rejects
// offers below a 15-30% fairness floor. Both ends of the band track what
// human subjects actually do rather than the subgame-perfect prediction.
type ultimatumStrategy struct{}

func (ultimatumStrategy) FirstMoveAction(_ *session.Player, cfg session.Config, _ RoundContext) *engine.Action {
	pie := cfg.Endowment
	if pie <= 0 {
		pie = 20
	}
	return &engine.Action{Kind: engine.KindOffer, Amount: pie * between(0.3, 0.5)}
}

func (ultimatumStrategy) SecondMoveAction(_ *session.Player, cfg session.Config, first engine.Action) *engine.Action {
	pie := cfg.Endowment
	if pie <= 0 {
		pie = 20
	}
	threshold := pie * between(0.15, 0.3)
	return &engine.Action{Kind: engine.KindResponse, Accept: first.Amount >= threshold}
}

// trustStrategy sends 40-80% of the endowment and, as trustee, returns
// 30-50% of the tripled amount, so the sender roughly breaks even or
// better on average.
type trustStrategy struct{}

func (trustStrategy) FirstMoveAction(_ *session.Player, cfg session.Config, _ RoundContext) *engine.Action {
	endow := cfg.Endowment
	if endow <= 0 {
		endow = 20
	}
	return &engine.Action{Kind: engine.KindTransfer, Amount: endow * between(0.4, 0.8)}
}

func (trustStrategy) SecondMoveAction(_ *session.Player, _ session.Config, first engine.Action) *engine.Action {
	tripled := first.Amount * 3
	return &engine.Action{Kind: engine.KindReturn, Amount: tripled * between(0.3, 0.5)}
}
