package session

import (
	"github.com/sirupsen/logrus"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/market"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/metrics"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/store"
)

// SubmitBid accepts a buyer's bid into an active double-auction round,
// runs a matching pass, and applies the profits of any resulting trades.
// Price legality (bid ≤ valuation) is enforced here, before the order
// reaches the book.
func (m *Manager) SubmitBid(roundID, playerID string, price float64) (*market.Order, []market.Trade, error) {
	return m.submitOrder(roundID, playerID, market.Bid, price)
}

// SubmitAsk accepts a seller's ask (ask ≥ cost).
func (m *Manager) SubmitAsk(roundID, playerID string, price float64) (*market.Order, []market.Trade, error) {
	return m.submitOrder(roundID, playerID, market.Ask, price)
}

func (m *Manager) submitOrder(roundID, playerID string, side market.Side, price float64) (*market.Order, []market.Trade, error) {
	s, r, err := m.resolveRound(roundID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	if r.Status != StatusActive || r.Book == nil {
		s.mu.Unlock()
		return nil, nil, ErrRoundNotActive
	}
	p := s.players[playerID]
	if p == nil || !p.Active {
		s.mu.Unlock()
		return nil, nil, ErrPlayerNotFound
	}

	order := &market.Order{PlayerID: playerID, Side: side, Price: price}
	switch side {
	case market.Bid:
		if p.Role != RoleBuyer {
			s.mu.Unlock()
			return nil, nil, ErrWrongRole
		}
		if price <= 0 || price > p.Valuation {
			s.mu.Unlock()
			return nil, nil, ErrPriceBound
		}
		order.Limit = p.Valuation
	case market.Ask:
		if p.Role != RoleSeller {
			s.mu.Unlock()
			return nil, nil, ErrWrongRole
		}
		if price <= 0 || price < p.Cost {
			s.mu.Unlock()
			return nil, nil, ErrPriceBound
		}
		order.Limit = p.Cost
	}

	trades := r.Book.Submit(order)

	type tradeParty struct {
		trade  market.Trade
		buyer  Player
		seller Player
	}
	executed := make([]tradeParty, 0, len(trades))
	for _, t := range trades {
		buyer, seller := s.players[t.BuyerID], s.players[t.SellerID]
		buyer.Profit += t.BuyerProfit
		seller.Profit += t.SellerProfit
		executed = append(executed, tradeParty{trade: t, buyer: *buyer, seller: *seller})
	}
	submitted := *order
	s.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveOrder(store.OrderRow{
			ID:        order.ID,
			RoundID:   order.RoundID,
			PlayerID:  order.PlayerID,
			Side:      side.String(),
			Price:     order.Price,
			Active:    order.Active,
			CreatedAt: order.CreatedAt,
		}); err != nil {
			m.log.WithError(err).Warn("persist order failed")
		}
		for _, e := range executed {
			t := e.trade
			if err := m.store.SaveTrade(store.TradeRow{
				ID:           t.ID,
				RoundID:      t.RoundID,
				BidID:        t.BidID,
				AskID:        t.AskID,
				BuyerID:      t.BuyerID,
				SellerID:     t.SellerID,
				Price:        t.Price,
				BuyerProfit:  t.BuyerProfit,
				SellerProfit: t.SellerProfit,
				ExecutedAt:   t.ExecutedAt,
			}); err != nil {
				m.log.WithError(err).Warn("persist trade failed")
			}
			if err := m.store.DeactivateOrder(t.BidID); err != nil {
				m.log.WithError(err).Warn("persist order deactivation failed")
			}
			if err := m.store.DeactivateOrder(t.AskID); err != nil {
				m.log.WithError(err).Warn("persist order deactivation failed")
			}
			if err := m.store.UpdatePlayerProfit(e.buyer.ID, e.buyer.Profit); err != nil {
				m.log.WithError(err).Warn("persist profit failed")
			}
			if err := m.store.UpdatePlayerProfit(e.seller.ID, e.seller.Profit); err != nil {
				m.log.WithError(err).Warn("persist profit failed")
			}
		}
	}

	event := EventBidSubmitted
	if side == market.Ask {
		event = EventAskSubmitted
	}
	m.broadcast(s.Code, event, map[string]any{"order": submitted})
	for _, e := range executed {
		m.broadcast(s.Code, EventTradeExecuted, map[string]any{
			"trade":  e.trade,
			"buyer":  e.buyer,
			"seller": e.seller,
		})
	}

	metrics.OrdersTotal.WithLabelValues(side.String()).Inc()
	metrics.TradesTotal.Add(float64(len(trades)))
	if len(trades) > 0 {
		m.log.WithFields(logrus.Fields{
			"code": s.Code, "round": r.Number, "trades": len(trades),
		}).Debug("orders matched")
	}
	return order, trades, nil
}

// SubmitAction routes a generic (non-double-auction) action to the game
// engine registered for the session's game type. A missing engine is a
// logged no-op, not an error; an engine-reported failure is a normal
// negative result.
func (m *Manager) SubmitAction(roundID, playerID string, act engine.Action) (engine.Result, error) {
	s, r, err := m.resolveRound(roundID)
	if err != nil {
		return engine.Result{}, err
	}

	s.mu.Lock()
	if r.Status != StatusActive {
		s.mu.Unlock()
		return engine.Result{}, ErrRoundNotActive
	}
	p := s.players[playerID]
	if p == nil || !p.Active {
		s.mu.Unlock()
		return engine.Result{}, ErrPlayerNotFound
	}

	var eng engine.Engine
	if m.engines != nil {
		eng, _ = m.engines.Lookup(s.Config.GameType)
	}
	if eng == nil {
		s.mu.Unlock()
		m.log.WithFields(logrus.Fields{
			"code": s.Code, "game_type": s.Config.GameType,
		}).Info("no engine registered; action dropped")
		return engine.Fail("no engine registered for game type"), nil
	}

	// The engine call stays under the session lock: submissions are
	// synchronous with respect to a round, so an action can never land
	// after EndRound has marked the round completed.
	res := eng.HandleAction(r.ID, playerID, act)
	actor := *p
	firstMove := res.Success &&
		s.Config.GameType.Category() == engine.CategorySequential &&
		p.Role == RoleFirstMover
	s.mu.Unlock()

	if !res.Success {
		m.log.WithFields(logrus.Fields{
			"code": s.Code, "round": r.Number, "player": playerID, "reason": res.Error,
		}).Debug("engine rejected action")
		return res, nil
	}

	if m.store != nil {
		if err := m.store.SaveAction(store.ActionRow{
			RoundID:  r.ID,
			PlayerID: playerID,
			Kind:     string(act.Kind),
			Amount:   act.Amount,
			Accept:   act.Accept,
		}); err != nil {
			m.log.WithError(err).Warn("persist action failed")
		}
	}

	metrics.ActionsTotal.WithLabelValues(string(s.Config.GameType)).Inc()
	m.broadcast(s.Code, EventActionSubmitted, map[string]any{
		"round_id":  r.ID,
		"player_id": playerID,
		"kind":      act.Kind,
	})

	if firstMove {
		m.mu.RLock()
		hooks := m.hooks
		m.mu.RUnlock()
		if hooks != nil {
			hooks.OnFirstMove(s, r, &actor, act)
		}
	}
	return res, nil
}

// OrderBook returns the active book of a double-auction round.
func (m *Manager) OrderBook(roundID string) (market.BookSnapshot, error) {
	_, r, err := m.resolveRound(roundID)
	if err != nil {
		return market.BookSnapshot{}, err
	}
	if r.Book == nil {
		return market.BookSnapshot{}, ErrRoundNotFound
	}
	return r.Book.Snapshot(), nil
}

// RoundTrades returns the trades executed in a round.
func (m *Manager) RoundTrades(roundID string) ([]market.Trade, error) {
	_, r, err := m.resolveRound(roundID)
	if err != nil {
		return nil, err
	}
	if r.Book == nil {
		return nil, ErrRoundNotFound
	}
	return r.Book.Trades(), nil
}

// RoundQuote returns the best bid and ask of a double-auction round.
func (m *Manager) RoundQuote(roundID string) (market.Quote, error) {
	_, r, err := m.resolveRound(roundID)
	if err != nil {
		return market.Quote{}, err
	}
	if r.Book == nil {
		return market.Quote{}, ErrRoundNotFound
	}
	return r.Book.Quote(), nil
}
