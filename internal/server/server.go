package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/feltcraft/tabled/internal/auth"
	"github.com/feltcraft/tabled/internal/game"
	"github.com/feltcraft/tabled/internal/gameid"
	"github.com/feltcraft/tabled/internal/store"
	"github.com/feltcraft/tabled/internal/wallet"
)

// Server owns the HTTP surface and the table runtimes. Connections register
// here; per-table traffic flows through each table's command queue.
type Server struct {
	cfg       *ServerConfig
	logger    *log.Logger
	clock     quartz.Clock
	wallet    wallet.Service
	store     store.Store
	validator auth.Validator
	upgrader  websocket.Upgrader

	runtimes map[string]*Runtime

	mu          sync.RWMutex
	connections map[*Connection]bool
}

// NewServer builds the server and its tables. Tables with a usable snapshot
// in the store are restored; the rest start empty.
func NewServer(cfg *ServerConfig, w wallet.Service, st store.Store, validator auth.Validator, clock quartz.Clock, logger *log.Logger) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logger.WithPrefix("server"),
		clock:     clock,
		wallet:    w,
		store:     st,
		validator: validator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		runtimes:    make(map[string]*Runtime),
		connections: make(map[*Connection]bool),
	}

	for _, tc := range cfg.Tables {
		table, resumeDeadline, err := s.buildTable(tc)
		if err != nil {
			return nil, err
		}
		s.runtimes[table.ID] = NewRuntime(table, w, st, clock, logger, RuntimeOptions{
			AutoStartDelay:     time.Duration(tc.AutoStartDelay) * time.Second,
			DumpDir:            cfg.Server.DumpDir,
			HandHistoryDir:     cfg.Server.HandHistoryDir,
			ResumeTurnDeadline: resumeDeadline,
		})
	}
	return s, nil
}

// buildTable restores a table from its latest snapshot when one exists and
// the configuration still matches; otherwise it starts empty. The returned
// deadline is the restored hand's pending turn deadline, zero when the table
// starts empty or between hands.
func (s *Server) buildTable(tc TableConfig) (*game.Table, time.Time, error) {
	gcfg := game.Config{
		ID:         tc.Name,
		Name:       tc.Name,
		MaxSeats:   tc.MaxPlayers,
		SmallBlind: tc.SmallBlind,
		BigBlind:   tc.BigBlind,
		BuyInMin:   tc.BuyInMin,
		BuyInMax:   tc.BuyInMax,
		TurnBudget: tc.TurnBudget(),
		Grace:      tc.Grace(),
	}

	rec, err := s.store.LatestSnapshot(context.Background(), tc.Name)
	if errors.Is(err, store.ErrNotFound) {
		return game.NewTable(gcfg), time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	table, err := game.Restore(rec, gcfg)
	if err != nil {
		s.logger.Warn("Snapshot unusable, starting table empty", "table", tc.Name, "error", err)
		return game.NewTable(gcfg), time.Time{}, nil
	}
	var resumeDeadline time.Time
	if rec.Hand != nil && rec.Hand.TurnDeadline != 0 {
		resumeDeadline = time.UnixMilli(rec.Hand.TurnDeadline)
	}
	s.logger.Info("Restored table from snapshot", "table", tc.Name, "players", table.OccupiedCount())
	return table, resumeDeadline, nil
}

// Start runs the table runtimes and the HTTP listener until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, rt := range s.runtimes {
		rt := rt
		g.Go(func() error {
			if err := rt.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	s.seedBots()

	httpServer := &http.Server{
		Addr:    s.cfg.GetServerAddress(),
		Handler: s.routes(),
	}
	g.Go(func() error {
		s.logger.Info("Starting server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)

		s.mu.Lock()
		for conn := range s.connections {
			_ = conn.Close()
		}
		s.mu.Unlock()
		return nil
	})

	return g.Wait()
}

// AttachMonitor subscribes a terminal monitor to every table.
func (s *Server) AttachMonitor(w io.Writer) {
	for id, rt := range s.runtimes {
		rt.Subscribe(NewTableMonitor(w, id))
	}
}

// seedBots seats the bots named in the configuration.
func (s *Server) seedBots() {
	for _, bc := range s.cfg.Bots {
		for _, tableName := range bc.Tables {
			rt, ok := s.runtimes[tableName]
			if !ok {
				continue
			}
			rt.SeedBot(bc.Strategy, bc.BuyIn)
		}
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/tables", s.handleListTables)
	r.Get("/api/tables/{tableID}", s.handleTableView)
	r.Get("/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TableSummary is one row of the public table listing.
type TableSummary struct {
	Config   TableConfigView `json:"config"`
	Occupied int             `json:"occupied"`
	Waitlist int             `json:"waitlistSize,omitempty"`
	Frozen   bool            `json:"frozen,omitempty"`
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	var out []TableSummary
	for _, rt := range s.runtimes {
		snap := rt.Snapshot("")
		occupied := 0
		for _, seat := range snap.Seats {
			if seat.UserID != "" {
				occupied++
			}
		}
		out = append(out, TableSummary{
			Config:   snap.Config,
			Occupied: occupied,
			Waitlist: snap.Waitlist,
			Frozen:   snap.Frozen,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTableView serves the public spectator view: no hole cards, ever.
func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.runtimes[chi.URLParam(r, "tableID")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": string(CodeTableNotFound)})
		return
	}
	writeJSON(w, http.StatusOK, rt.Snapshot(""))
}

// handleWebSocket authenticates the caller, upgrades, and starts the pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := s.validator.Validate(r.Context(), r.URL.Query().Get("token"))
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	case errors.Is(err, auth.ErrUnavailable):
		// Fail closed: a table seat moves real chips.
		http.Error(w, "auth unavailable", http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, "auth error", http.StatusInternalServerError)
		return
	}
	if identity == nil {
		// Auth disabled: identity comes from connection parameters.
		identity = &auth.Identity{
			UserID:      r.URL.Query().Get("user_id"),
			DisplayName: r.URL.Query().Get("name"),
		}
		if identity.UserID == "" {
			identity.UserID = "guest-" + gameid.New()
		}
		if identity.DisplayName == "" {
			identity.DisplayName = identity.UserID
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := NewConnection(conn, *identity, s, s.logger)
	s.register(c)
	c.Start()
	c.Send(mustMessage(MessageConnectionState, ConnectionStateData{
		State:  "connected",
		UserID: identity.UserID,
	}))

	go func() {
		<-c.Done()
		s.unregister(c)
	}()
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "user", c.Identity().UserID, "total", total)
}

// unregister drops the connection from the registry and detaches it from its
// table. The seat, if any, stays; the turn clock folds an absent actor.
func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	total := len(s.connections)
	s.mu.Unlock()

	if tableID := c.Table(); tableID != "" {
		if rt, ok := s.runtimes[tableID]; ok {
			rt.Disconnected(c)
		}
	}
	s.logger.Info("Client disconnected", "user", c.Identity().UserID, "total", total)
}

// dispatch routes one inbound message from a connection's read pump.
func (s *Server) dispatch(c *Connection, msg *Message) {
	switch msg.Type {
	case MessageSubscribeTable:
		var data SubscribeTableData
		if !s.decodeInto(c, msg, &data) {
			return
		}
		rt, ok := s.runtimes[data.TableID]
		if !ok {
			c.sendError(CodeTableNotFound, "unknown table: "+data.TableID)
			return
		}
		if prev := c.Table(); prev != "" && prev != data.TableID {
			if prevRT, ok := s.runtimes[prev]; ok {
				prevRT.Unsubscribe(c.Identity().UserID)
			}
		}
		c.setTable(data.TableID)
		rt.Subscribe(c)

	case MessageUnsubscribeTable:
		var data UnsubscribeTableData
		if !s.decodeInto(c, msg, &data) {
			return
		}
		if rt, ok := s.runtimes[data.TableID]; ok {
			rt.Unsubscribe(c.Identity().UserID)
		}
		c.setTable("")

	case MessageSeatRequest:
		var data SeatRequestData
		if !s.decodeInto(c, msg, &data) {
			return
		}
		rt, ok := s.runtimes[data.TableID]
		if !ok {
			c.sendError(CodeTableNotFound, "unknown table: "+data.TableID)
			return
		}
		rt.SeatRequest(c, data)

	case MessageActionRequest:
		var data ActionRequestData
		if !s.decodeInto(c, msg, &data) {
			return
		}
		rt, ok := s.runtimes[data.TableID]
		if !ok {
			c.sendError(CodeTableNotFound, "unknown table: "+data.TableID)
			return
		}
		rt.ActionRequest(c, data, msg.RequestID)

	case MessageLeaveRequest:
		var data LeaveRequestData
		if !s.decodeInto(c, msg, &data) {
			return
		}
		rt, ok := s.runtimes[data.TableID]
		if !ok {
			c.sendError(CodeTableNotFound, "unknown table: "+data.TableID)
			return
		}
		rt.LeaveRequest(c)

	case MessageStartGame:
		var data StartGameData
		if !s.decodeInto(c, msg, &data) {
			return
		}
		rt, ok := s.runtimes[data.TableID]
		if !ok {
			c.sendError(CodeTableNotFound, "unknown table: "+data.TableID)
			return
		}
		rt.StartGame(c)

	case MessageAddBotRequest:
		var data AddBotRequestData
		if !s.decodeInto(c, msg, &data) {
			return
		}
		rt, ok := s.runtimes[data.TableID]
		if !ok {
			c.sendError(CodeTableNotFound, "unknown table: "+data.TableID)
			return
		}
		rt.AddBot(c, data)

	default:
		c.sendError(CodeValidation, "unsupported message type: "+string(msg.Type))
	}
}

func (s *Server) decodeInto(c *Connection, msg *Message, out any) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		c.sendError(CodeValidation, "malformed "+string(msg.Type)+" payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
