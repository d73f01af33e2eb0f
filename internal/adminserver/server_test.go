package adminserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marketpulse/engine/internal/adminserver"
	"github.com/marketpulse/engine/internal/alertbus"
	"github.com/marketpulse/engine/internal/model"
	"github.com/marketpulse/engine/internal/strategy"
	"github.com/marketpulse/engine/pkg/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func setupTestServer(t *testing.T) (*adminserver.Server, *httptest.Server, *alertbus.Bus) {
	t.Helper()
	store, err := model.NewStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	registry := strategy.NewRegistry(zap.NewNop())
	bus := alertbus.New(zap.NewNop())

	srv := adminserver.New(zap.NewNop(), adminserver.Config{}, store, registry, nil, bus)
	ts := httptest.NewServer(srv.Router())
	return srv, ts, bus
}

func TestHealthEndpoint(t *testing.T) {
	_, ts, _ := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestListStrategiesIncludesBuiltins(t *testing.T) {
	_, ts, _ := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/strategies")
	if err != nil {
		t.Fatalf("GET /strategies: %v", err)
	}
	defer resp.Body.Close()

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "default-check-single-timeframe" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the default strategy in the list, got %v", names)
	}
}

func TestCreateAndGetGroup(t *testing.T) {
	_, ts, _ := setupTestServer(t)
	defer ts.Close()

	body, _ := json.Marshal(types.Group{Name: "fx-majors", Enabled: true})
	resp, err := http.Post(ts.URL+"/groups", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /groups: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created types.Group
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated group ID")
	}

	getResp, err := http.Get(ts.URL + "/groups/" + created.ID)
	if err != nil {
		t.Fatalf("GET /groups/{id}: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}
}

func TestGetUnknownGroupIsNotFound(t *testing.T) {
	_, ts, _ := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/groups/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAlertEventReachesWebSocketSubscriber(t *testing.T) {
	_, ts, bus := setupTestServer(t)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/alerts"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the server a moment to register the connection before publishing.
	time.Sleep(50 * time.Millisecond)

	bus.Notify(types.AlertEvent{
		Timestamp: time.Now(),
		GroupID:   "fx-majors",
		SymbolKey: "forex:EURUSD:1h",
		Condition: types.ConditionSentimentFlip,
		Severity:  types.SeverityWarn,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected an alert event over the websocket: %v", err)
	}

	var received types.AlertEvent
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if received.Condition != types.ConditionSentimentFlip {
		t.Fatalf("expected sentiment_flip, got %v", received.Condition)
	}
}
