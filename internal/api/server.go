package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/config"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/market"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/metrics"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
)

// Server is the REST and WebSocket gateway in front of the session
// manager. It owns no game state; every request is translated into a
// manager call and the result wrapped in the response envelope.
type Server struct {
	mgr         *session.Manager
	hub         *Hub
	rateLimiter *RateLimiter
	upgrader    websocket.Upgrader
	log         *logrus.Entry

	defaults    config.GameConfig
	botsEnabled bool
	corsOrigins []string
}

func NewServer(mgr *session.Manager, hub *Hub, cfg *config.Config, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		mgr:         mgr,
		hub:         hub,
		rateLimiter: NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		log:         log,
		defaults:    cfg.Game,
		botsEnabled: cfg.Bots.Enabled,
		corsOrigins: cfg.Server.AllowedOrigins,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.checkOrigin(r.Header.Get("Origin"))
		},
	}
	return s
}

func (s *Server) checkOrigin(origin string) bool {
	if len(s.corsOrigins) == 0 {
		return true
	}
	if origin == "" {
		return true
	}
	for _, allowed := range s.corsOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Stop releases server-held resources. The HTTP listener is shut down by
// the caller.
func (s *Server) Stop() {
	s.rateLimiter.Stop()
	s.hub.Stop()
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimiter.Middleware)

	allowedOrigins := s.corsOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/game", func(r chi.Router) {
		r.Post("/sessions", s.createSession)
		r.Get("/sessions/{code}", s.getSession)
		r.Post("/sessions/{code}/join", s.joinSession)
		r.Post("/sessions/{code}/start", s.startSession)
		r.Post("/sessions/{code}/end", s.endSession)
		r.Post("/sessions/{code}/cancel", s.cancelSession)
		r.Post("/sessions/{code}/rounds/{n}/start", s.startRound)

		r.Post("/rounds/{id}/end", s.endRound)
		r.Get("/rounds/{id}/orderbook", s.getOrderBook)
		r.Get("/rounds/{id}/trades", s.getTrades)

		r.Post("/bids", s.submitBid)
		r.Post("/asks", s.submitAsk)
		r.Post("/actions", s.submitAction)
	})

	r.Get("/ws", s.handleWebSocket)
	r.Handle("/metrics", metrics.Handler())

	return r
}

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(envelope{Success: false, Error: err.Error()})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// statusFor maps the session package's sentinel errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrRoundNotFound),
		errors.Is(err, session.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrRoundNotActive),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrSessionFull):
		return http.StatusConflict
	case errors.Is(err, session.ErrWrongRole),
		errors.Is(err, session.ErrPriceBound):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrInvalidPasscode):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type createSessionRequest struct {
	GameType         string             `json:"game_type"`
	MarketSize       int                `json:"market_size"`
	RoundCount       int                `json:"round_count"`
	RoundDurationSec int                `json:"round_duration_sec"`
	BotsEnabled      *bool              `json:"bots_enabled"`
	BuyerValues      market.ValueConfig `json:"buyer_values"`
	SellerCosts      market.ValueConfig `json:"seller_costs"`
	Endowment        float64            `json:"endowment"`
	Passcode         string             `json:"passcode"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	gt := engine.GameType(req.GameType)
	if !gt.Valid() {
		s.badRequest(w, "unknown game_type")
		return
	}
	if req.Passcode == "" {
		s.badRequest(w, "passcode required")
		return
	}

	cfg := session.Config{
		GameType:      gt,
		MarketSize:    req.MarketSize,
		RoundCount:    req.RoundCount,
		RoundDuration: time.Duration(req.RoundDurationSec) * time.Second,
		BotsEnabled:   s.botsEnabled,
		BuyerValues:   req.BuyerValues,
		SellerCosts:   req.SellerCosts,
		Endowment:     req.Endowment,
	}
	if req.BotsEnabled != nil {
		cfg.BotsEnabled = *req.BotsEnabled
	}
	if !s.botsEnabled {
		// No dispatcher is wired when bots are off server-wide, so a
		// per-session request for them cannot be honored.
		cfg.BotsEnabled = false
	}
	if cfg.MarketSize <= 0 {
		cfg.MarketSize = s.defaults.MarketSize
	}
	if cfg.RoundCount <= 0 {
		cfg.RoundCount = s.defaults.RoundCount
	}
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = s.defaults.RoundDuration
	}
	if cfg.Endowment <= 0 {
		cfg.Endowment = s.defaults.Endowment
	}

	// Trader-role games need legal value ranges up front; there are no
	// server defaults for them.
	switch gt.Category() {
	case engine.CategoryDoubleAuction, engine.CategorySpecialized:
		if err := cfg.BuyerValues.Validate(); err != nil {
			s.badRequest(w, "buyer_values: "+err.Error())
			return
		}
		if err := cfg.SellerCosts.Validate(); err != nil {
			s.badRequest(w, "seller_costs: "+err.Error())
			return
		}
	}

	sess, err := s.mgr.CreateSession(cfg, req.Passcode)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusCreated, sess)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Session(chi.URLParam(r, "code"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"session": sess,
		"players": sess.Players(),
		"rounds":  sess.Rounds(),
	})
}

type joinRequest struct {
	Name string `json:"name"`
}

func (s *Server) joinSession(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		s.badRequest(w, "name required")
		return
	}

	player, err := s.mgr.Join(chi.URLParam(r, "code"), req.Name)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusCreated, player)
}

type adminRequest struct {
	Passcode string `json:"passcode"`
}

// authAdmin decodes the passcode body and checks it against the session.
func (s *Server) authAdmin(w http.ResponseWriter, r *http.Request, code string) bool {
	var req adminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return false
	}
	if err := s.mgr.CheckPasscode(code, req.Passcode); err != nil {
		s.respondErr(w, err)
		return false
	}
	return true
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.authAdmin(w, r, code) {
		return
	}
	if err := s.mgr.Start(code); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"code": code, "status": session.StatusActive})
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.authAdmin(w, r, code) {
		return
	}
	if err := s.mgr.End(code); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"code": code, "status": session.StatusCompleted})
}

func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.authAdmin(w, r, code) {
		return
	}
	if err := s.mgr.Cancel(code); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"code": code, "status": session.StatusCancelled})
}

func (s *Server) startRound(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n <= 0 {
		s.badRequest(w, "invalid round number")
		return
	}
	if !s.authAdmin(w, r, code) {
		return
	}
	if err := s.mgr.StartRound(code, n); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"code": code, "round": n, "status": session.StatusActive})
}

type endRoundRequest struct {
	SessionCode string `json:"session_code"`
	Passcode    string `json:"passcode"`
}

func (s *Server) endRound(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "id")
	var req endRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if err := s.mgr.CheckPasscode(req.SessionCode, req.Passcode); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := s.mgr.EndRound(roundID); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"round_id": roundID, "status": session.StatusCompleted})
}

type orderRequest struct {
	RoundID  string  `json:"round_id"`
	PlayerID string  `json:"player_id"`
	Price    float64 `json:"price"`
}

type orderResponse struct {
	Order  *market.Order  `json:"order"`
	Trades []market.Trade `json:"trades"`
}

func (s *Server) submitBid(w http.ResponseWriter, r *http.Request) {
	s.submitOrder(w, r, market.Bid)
}

func (s *Server) submitAsk(w http.ResponseWriter, r *http.Request) {
	s.submitOrder(w, r, market.Ask)
}

func (s *Server) submitOrder(w http.ResponseWriter, r *http.Request, side market.Side) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.RoundID == "" || req.PlayerID == "" {
		s.badRequest(w, "round_id and player_id required")
		return
	}
	if req.Price <= 0 {
		s.badRequest(w, "price must be positive")
		return
	}

	var (
		order  *market.Order
		trades []market.Trade
		err    error
	)
	if side == market.Bid {
		order, trades, err = s.mgr.SubmitBid(req.RoundID, req.PlayerID, req.Price)
	} else {
		order, trades, err = s.mgr.SubmitAsk(req.RoundID, req.PlayerID, req.Price)
	}
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusCreated, orderResponse{Order: order, Trades: trades})
}

type actionRequest struct {
	RoundID  string  `json:"round_id"`
	PlayerID string  `json:"player_id"`
	Kind     string  `json:"kind"`
	Amount   float64 `json:"amount"`
	Accept   bool    `json:"accept"`
}

func (s *Server) submitAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.RoundID == "" || req.PlayerID == "" {
		s.badRequest(w, "round_id and player_id required")
		return
	}

	act := engine.Action{Kind: engine.ActionKind(req.Kind), Amount: req.Amount, Accept: req.Accept}
	res, err := s.mgr.SubmitAction(req.RoundID, req.PlayerID, act)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, res)
}

func (s *Server) getOrderBook(w http.ResponseWriter, r *http.Request) {
	snap, err := s.mgr.OrderBook(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

func (s *Server) getTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.mgr.RoundTrades(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, trades)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("session")
	if code == "" {
		s.badRequest(w, "session query parameter required")
		return
	}
	if _, err := s.mgr.Session(code); err != nil {
		s.respondErr(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := NewClient(s.hub, conn, code)
	s.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
