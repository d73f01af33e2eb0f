// Package adminserver exposes the engine's operator surface: group and
// strategy introspection over HTTP, group creation and symbol upserts,
// Prometheus metrics, and a websocket feed of alert events for dashboards. It never drives analysis itself —
// all mutation of Groups/SymbolConfigs goes through the Model, and the
// Scheduler is the only thing that calls the Orchestrator.
package adminserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/marketpulse/engine/internal/alertbus"
	"github.com/marketpulse/engine/internal/model"
	"github.com/marketpulse/engine/internal/scheduler"
	"github.com/marketpulse/engine/internal/strategy"
	"github.com/marketpulse/engine/pkg/types"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Config configures the admin HTTP server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8090"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}

// client is one connected websocket subscriber to the alert feed.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Server is the HTTP/WebSocket admin surface.
type Server struct {
	logger   *zap.Logger
	cfg      Config
	router   *mux.Router
	http     *http.Server
	store    *model.Store
	registry *strategy.Registry
	sched    *scheduler.Scheduler
	bus      *alertbus.Bus
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client

	metrics *metricsSet

	stopMetrics chan struct{}
	metricsWG   sync.WaitGroup
}

type metricsSet struct {
	alertsPublished prometheus.Counter
	activeMonitors  prometheus.Gauge
	wsClients       prometheus.Gauge
}

func newMetricsSet(reg *prometheus.Registry) *metricsSet {
	m := &metricsSet{
		alertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_alerts_published_total",
			Help: "Total alert events published to the alert bus.",
		}),
		activeMonitors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_active_monitors",
			Help: "Number of monitors currently tracked by the scheduler.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_admin_ws_clients",
			Help: "Number of connected admin websocket clients.",
		}),
	}
	reg.MustRegister(m.alertsPublished, m.activeMonitors, m.wsClients)
	return m
}

// New builds an admin server wired to the given collaborators. sched and bus
// may be nil in tests that only exercise the Model-backed routes.
func New(logger *zap.Logger, cfg Config, store *model.Store, registry *strategy.Registry, sched *scheduler.Scheduler, bus *alertbus.Bus) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	s := &Server{
		logger:   logger,
		cfg:      cfg.withDefaults(),
		router:   mux.NewRouter(),
		store:    store,
		registry: registry,
		sched:    sched,
		bus:      bus,
		clients:  make(map[string]*client),
		metrics:  newMetricsSet(reg),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.setupRoutes()
	if bus != nil {
		bus.Subscribe(s.onAlert)
	}
	return s
}

// Router exposes the underlying mux.Router for tests driving the server
// through httptest rather than a live listener.
func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	s.router.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	s.router.HandleFunc("/groups/{id}", s.handleGetGroup).Methods(http.MethodGet)
	s.router.HandleFunc("/groups/{id}/symbols", s.handleUpsertSymbol).Methods(http.MethodPost)
	s.router.HandleFunc("/groups/{id}/monitors", s.handleGroupMonitors).Methods(http.MethodGet)
	s.router.HandleFunc("/strategies", s.handleListStrategies).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/alerts", s.handleWebSocket)
}

// Start begins serving HTTP in the background. It returns once the listener
// is set up; ListenAndServe's own error surfaces asynchronously via onError.
func (s *Server) Start(onError func(error)) {
	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	}).Handler(s.router)

	s.http = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("starting admin server", zap.String("addr", s.cfg.Addr))
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if onError != nil {
				onError(err)
			}
		}
	}()

	if s.sched != nil {
		s.stopMetrics = make(chan struct{})
		s.metricsWG.Add(1)
		go s.reportActiveMonitors()
	}
}

// reportActiveMonitors periodically reflects the scheduler's live monitor
// count onto the Prometheus gauge, since monitors come and go with the
// Model independently of any request reaching this server.
func (s *Server) reportActiveMonitors() {
	defer s.metricsWG.Done()
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	s.metrics.activeMonitors.Set(float64(len(s.sched.Snapshot())))
	for {
		select {
		case <-s.stopMetrics:
			return
		case <-ticker.C:
			s.metrics.activeMonitors.Set(float64(len(s.sched.Snapshot())))
		}
	}
}

// Stop gracefully shuts down the HTTP server and closes every websocket.
func (s *Server) Stop(ctx context.Context) error {
	if s.stopMetrics != nil {
		close(s.stopMetrics)
		s.metricsWG.Wait()
	}

	s.mu.Lock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.mu.Unlock()

	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListGroups())
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var g types.Group
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	created, err := s.store.CreateGroup(g)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, err := s.store.GetGroup(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleUpsertSymbol(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var cfg types.SymbolConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.store.UpsertSymbol(id, cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleGroupMonitors returns the scheduler's live state for every monitor
// belonging to the named group.
func (s *Server) handleGroupMonitors(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.sched == nil {
		writeJSON(w, http.StatusOK, []types.MonitorState{})
		return
	}
	var out []types.MonitorState
	for _, st := range s.sched.Snapshot() {
		if st.GroupID == id {
			out = append(out, st)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, 64)}
	s.mu.Lock()
	s.clients[c.id] = c
	s.metrics.wsClients.Set(float64(len(s.clients)))
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.metrics.wsClients.Set(float64(len(s.clients)))
		s.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// onAlert fans an AlertEvent out to every connected websocket client. It is
// registered as an alertbus subscriber, so it runs on the bus's own
// delivery goroutine and must not block.
func (s *Server) onAlert(event types.AlertEvent) {
	s.metrics.alertsPublished.Inc()

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal alert event", zap.Error(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.send <- payload:
		default:
			s.logger.Warn("dropping alert for slow websocket client", zap.String("client_id", c.id))
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
