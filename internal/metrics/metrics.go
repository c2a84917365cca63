// Package metrics provides Prometheus instrumentation for the game engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersTotal counts accepted double-auction orders by side.
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econgames_orders_total",
		Help: "Total bids and asks accepted into round books",
	}, []string{"side"})

	// TradesTotal counts executed trades.
	TradesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econgames_trades_total",
		Help: "Total trades executed by the matching engine",
	})

	// ActionsTotal counts accepted generic game actions by game type.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econgames_actions_total",
		Help: "Total generic game actions accepted",
	}, []string{"game_type"})

	// BotActionsTotal counts actions submitted by bots, by game type.
	BotActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econgames_bot_actions_total",
		Help: "Total actions submitted by the bot dispatcher",
	}, []string{"game_type"})

	// BotErrorsTotal counts bot strategy or submission failures that were
	// caught and swallowed at the dispatcher boundary.
	BotErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econgames_bot_errors_total",
		Help: "Bot action failures isolated by the dispatcher",
	})

	// ActiveSessions tracks sessions currently in the active state.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "econgames_active_sessions",
		Help: "Number of active sessions",
	})

	// ActiveRounds tracks rounds currently in the active state.
	ActiveRounds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "econgames_active_rounds",
		Help: "Number of active rounds",
	})

	// WebSocketClients tracks connected broadcast clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "econgames_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
