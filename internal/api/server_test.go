package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/config"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/engine"
	"github.com/JoshuaAmmons/econ-games-sub000/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()

	cfg := config.Default()
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	cfg.Bots.Enabled = false

	mgr := session.NewManager(nil, nil, engine.NewRegistry(nil), nil)
	srv := NewServer(mgr, NewHub(), cfg, nil)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return ts, mgr
}

func postJSON(t *testing.T, url string, body any) (*http.Response, envelope) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, env
}

func getJSON(t *testing.T, url string) (*http.Response, envelope) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, env
}

func createDASession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, env := postJSON(t, ts.URL+"/game/sessions", map[string]any{
		"game_type":    "double_auction",
		"market_size":  2,
		"round_count":  1,
		"buyer_values": map[string]any{"min": 60, "max": 60, "increment": 1},
		"seller_costs": map[string]any{"min": 30, "max": 30, "increment": 1},
		"passcode":     "secret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d, error %q", resp.StatusCode, env.Error)
	}

	data := env.Data.(map[string]any)
	code, _ := data["code"].(string)
	if code == "" {
		t.Fatalf("no session code in response: %v", env.Data)
	}
	return code
}

func TestCreateSessionEnvelope(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createDASession(t, ts)

	resp, env := getJSON(t, ts.URL+"/game/sessions/"+code)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("get session: status %d, error %q", resp.StatusCode, env.Error)
	}
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, env := postJSON(t, ts.URL+"/game/sessions", map[string]any{
		"game_type": "poker",
		"passcode":  "x",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown game type should 400, got %d", resp.StatusCode)
	}
	if env.Success {
		t.Error("envelope should carry success=false")
	}

	resp, _ = postJSON(t, ts.URL+"/game/sessions", map[string]any{
		"game_type": "double_auction",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing passcode should 400, got %d", resp.StatusCode)
	}

	// Trader games need legal value ranges, not silently dealt zeros.
	resp, env = postJSON(t, ts.URL+"/game/sessions", map[string]any{
		"game_type":    "double_auction",
		"market_size":  2,
		"round_count":  1,
		"buyer_values": map[string]any{"min": 60, "max": 50, "increment": 1},
		"seller_costs": map[string]any{"min": 30, "max": 30, "increment": 1},
		"passcode":     "secret",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("inverted buyer range should 400, got %d", resp.StatusCode)
	}
	if env.Success {
		t.Error("envelope should carry success=false")
	}

	resp, _ = postJSON(t, ts.URL+"/game/sessions", map[string]any{
		"game_type":   "double_auction",
		"market_size": 2,
		"round_count": 1,
		"passcode":    "secret",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("omitted value ranges should 400, got %d", resp.StatusCode)
	}
}

func TestBotsFlagClearedWhenDisabledServerWide(t *testing.T) {
	// newTestServer runs with bots disabled; no dispatcher exists, so a
	// per-session request for bots must not be recorded as honored.
	ts, mgr := newTestServer(t)

	resp, env := postJSON(t, ts.URL+"/game/sessions", map[string]any{
		"game_type":    "public_goods",
		"market_size":  3,
		"round_count":  1,
		"endowment":    20,
		"bots_enabled": true,
		"passcode":     "secret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d, error %q", resp.StatusCode, env.Error)
	}
	code := env.Data.(map[string]any)["code"].(string)

	sess, err := mgr.Session(code)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if sess.Config.BotsEnabled {
		t.Error("bots_enabled should be cleared when bots are off server-wide")
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := getJSON(t, ts.URL+"/game/sessions/NOSUCH")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAdminPasscodeGuardsLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createDASession(t, ts)

	resp, _ := postJSON(t, ts.URL+"/game/sessions/"+code+"/start", map[string]any{"passcode": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong passcode should 401, got %d", resp.StatusCode)
	}
}

func TestFullTradeFlowOverHTTP(t *testing.T) {
	ts, mgr := newTestServer(t)
	code := createDASession(t, ts)

	var players []map[string]any
	for _, name := range []string{"alice", "bob"} {
		resp, env := postJSON(t, ts.URL+"/game/sessions/"+code+"/join", map[string]any{"name": name})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("join: status %d, error %q", resp.StatusCode, env.Error)
		}
		players = append(players, env.Data.(map[string]any))
	}

	resp, env := postJSON(t, ts.URL+"/game/sessions/"+code+"/start", map[string]any{"passcode": "secret"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d, error %q", resp.StatusCode, env.Error)
	}

	sess, err := mgr.Session(code)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	roundID := sess.Rounds()[0].ID

	var buyerID, sellerID string
	for _, p := range players {
		switch p["role"].(string) {
		case "buyer":
			buyerID = p["id"].(string)
		case "seller":
			sellerID = p["id"].(string)
		}
	}
	if buyerID == "" || sellerID == "" {
		t.Fatalf("expected one buyer and one seller, got %v", players)
	}

	resp, env = postJSON(t, ts.URL+"/game/asks", map[string]any{
		"round_id": roundID, "player_id": sellerID, "price": 30.0,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ask: status %d, error %q", resp.StatusCode, env.Error)
	}

	resp, env = postJSON(t, ts.URL+"/game/bids", map[string]any{
		"round_id": roundID, "player_id": buyerID, "price": 60.0,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("bid: status %d, error %q", resp.StatusCode, env.Error)
	}
	data := env.Data.(map[string]any)
	trades := data["trades"].([]any)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if price := trades[0].(map[string]any)["price"].(float64); price != 45 {
		t.Errorf("expected midpoint 45, got %v", price)
	}

	resp, env = getJSON(t, ts.URL+"/game/rounds/"+roundID+"/trades")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("trades: status %d", resp.StatusCode)
	}
	if got := len(env.Data.([]any)); got != 1 {
		t.Errorf("expected 1 recorded trade, got %d", got)
	}
}

func TestOrderRejectionStatuses(t *testing.T) {
	ts, mgr := newTestServer(t)
	code := createDASession(t, ts)

	postJSON(t, ts.URL+"/game/sessions/"+code+"/join", map[string]any{"name": "alice"})
	postJSON(t, ts.URL+"/game/sessions/"+code+"/join", map[string]any{"name": "bob"})
	postJSON(t, ts.URL+"/game/sessions/"+code+"/start", map[string]any{"passcode": "secret"})

	sess, _ := mgr.Session(code)
	roundID := sess.Rounds()[0].ID
	var buyerID string
	for _, p := range sess.Players() {
		if p.Role == session.RoleBuyer {
			buyerID = p.ID
		}
	}

	// Bid above the buyer's valuation of 60.
	resp, _ := postJSON(t, ts.URL+"/game/bids", map[string]any{
		"round_id": roundID, "player_id": buyerID, "price": 61.0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("price bound violation should 400, got %d", resp.StatusCode)
	}

	// End the round; further submissions conflict.
	if err := mgr.EndRound(roundID); err != nil {
		t.Fatalf("EndRound: %v", err)
	}
	resp, _ = postJSON(t, ts.URL+"/game/bids", map[string]any{
		"round_id": roundID, "player_id": buyerID, "price": 50.0,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("submission to an ended round should 409, got %d", resp.StatusCode)
	}
}

func TestGenericActionOverHTTP(t *testing.T) {
	ts, mgr := newTestServer(t)

	resp, env := postJSON(t, ts.URL+"/game/sessions", map[string]any{
		"game_type":   "public_goods",
		"market_size": 2,
		"round_count": 1,
		"endowment":   20,
		"passcode":    "secret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d, error %q", resp.StatusCode, env.Error)
	}
	code := env.Data.(map[string]any)["code"].(string)

	_, p1 := postJSON(t, ts.URL+"/game/sessions/"+code+"/join", map[string]any{"name": "a"})
	postJSON(t, ts.URL+"/game/sessions/"+code+"/join", map[string]any{"name": "b"})
	postJSON(t, ts.URL+"/game/sessions/"+code+"/start", map[string]any{"passcode": "secret"})

	sess, _ := mgr.Session(code)
	roundID := sess.Rounds()[0].ID
	playerID := p1.Data.(map[string]any)["id"].(string)

	resp, env = postJSON(t, ts.URL+"/game/actions", map[string]any{
		"round_id": roundID, "player_id": playerID,
		"kind": "contribution", "amount": 10.0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("action: status %d, error %q", resp.StatusCode, env.Error)
	}
	result := env.Data.(map[string]any)
	if success, _ := result["success"].(bool); !success {
		t.Errorf("contribution should succeed, got %v", result)
	}
}
