package bots

import (
	"time"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
)

// postedOfferStrategy splits the round into a posting phase and a buying
// phase. Sellers publish a take-it-or-leave-it price early; buyers wait
// out the posting phase and then attempt one purchase up to their
// valuation. Buyers emit nothing during the posting phase.
type postedOfferStrategy struct{}

func (postedOfferStrategy) Actions(p *session.Player, _ session.Config, _ RoundContext) []TimedAction {
	switch p.Role {
	case session.RoleSeller:
		if p.Cost <= 0 {
			return nil
		}
		return []TimedAction{{
			Delay:  jitter(1*time.Second, 3*time.Second),
			Action: engine.Action{Kind: engine.KindPrice, Amount: p.Cost * between(1.1, 1.5)},
		}}
	case session.RoleBuyer:
		if p.Valuation <= 0 {
			return nil
		}
		return []TimedAction{{
			Delay:  jitter(6*time.Second, 10*time.Second),
			Action: engine.Action{Kind: engine.KindBuy, Amount: p.Valuation},
		}}
	}
	return nil
}

// discoveryStrategy walks both sides toward each other over the round:
// sellers quote a shrinking markup and buyers a rising offer, three steps
// each, so prices discovered late sit near the contract zone.
type discoveryStrategy struct{}

func (discoveryStrategy) Actions(p *session.Player, _ session.Config, _ RoundContext) []TimedAction {
	base := []time.Duration{2 * time.Second, 6 * time.Second, 10 * time.Second}
	var out []TimedAction
	switch p.Role {
	case session.RoleSeller:
		if p.Cost <= 0 {
			return nil
		}
		for i, frac := range []float64{1.5, 1.2, 1.05} {
			out = append(out, TimedAction{
				Delay:  base[i] + jitter(0, time.Second),
				Action: engine.Action{Kind: engine.KindPrice, Amount: p.Cost * frac},
			})
		}
	case session.RoleBuyer:
		if p.Valuation <= 0 {
			return nil
		}
		for i, frac := range []float64{0.5, 0.7, 0.9} {
			out = append(out, TimedAction{
				Delay:  base[i] + jitter(0, time.Second),
				Action: engine.Action{Kind: engine.KindOffer, Amount: p.Valuation * frac},
			})
		}
	}
	return out
}

// contestableStrategy has sellers post near-cost limit prices early, the
// entry-threat discipline of a contestable market, and buyers take the
// best standing offer later in the round.
type contestableStrategy struct{}

func (contestableStrategy) Actions(p *session.Player, _ session.Config, _ RoundContext) []TimedAction {
	switch p.Role {
	case session.RoleSeller:
		if p.Cost <= 0 {
			return nil
		}
		return []TimedAction{{
			Delay:  jitter(1*time.Second, 4*time.Second),
			Action: engine.Action{Kind: engine.KindPrice, Amount: p.Cost * between(1.05, 1.25)},
		}}
	case session.RoleBuyer:
		if p.Valuation <= 0 {
			return nil
		}
		return []TimedAction{{
			Delay:  jitter(5*time.Second, 9*time.Second),
			Action: engine.Action{Kind: engine.KindBuy, Amount: p.Valuation},
		}}
	}
	return nil
}
