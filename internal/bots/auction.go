package bots

import (
	"github.com/JoshuaAmmons/econ-games-sub000/internal/market"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
)

// auctionStrategy quotes in the continuous double auction. Buyers shade
// bids below valuation and sellers mark asks up above cost; the shading
// window tightens as the round runs down, so late quotes converge toward
// the trader's limit and standing quotes get taken when they are already
// profitable.
type auctionStrategy struct{}

func (auctionStrategy) DAAction(p *session.Player, _ session.Config, progress float64, q market.Quote) *DAOrder {
	switch p.Role {
	case session.RoleBuyer:
		if p.Valuation <= 0 {
			return nil
		}
		frac := between(0.5, 0.8) + 0.2*progress
		price := p.Valuation * clamp(frac, 0, 1)
		// Take a standing ask whenever it beats our own shaded bid.
		if q.BestAsk > 0 && q.BestAsk <= p.Valuation && q.BestAsk < price {
			price = q.BestAsk
		}
		if price <= 0 {
			return nil
		}
		return &DAOrder{Side: market.Bid, Price: price}

	case session.RoleSeller:
		if p.Cost <= 0 {
			return nil
		}
		frac := between(1.2, 1.5) - 0.3*progress
		if frac < 1 {
			frac = 1
		}
		price := p.Cost * frac
		// Lift a standing bid whenever it exceeds our own marked-up ask.
		if q.BestBid > price && q.BestBid >= p.Cost {
			price = q.BestBid
		}
		return &DAOrder{Side: market.Ask, Price: price}
	}
	return nil
}
