// Package server provides a reference remote store: the bulk row API and
// realtime notification feed the sync engine expects, backed by memory.
// It exists for local development and for exercising the full client
// against a live endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/kwestin/listsync/internal/schema"
)

// userEvent is a change notification addressed to one user's connections.
type userEvent struct {
	userID string
	event  schema.ChangeEvent
}

// Config holds server configuration.
type Config struct {
	// Host to bind (default: 127.0.0.1).
	Host string

	// Port to listen on. 0 picks a free port.
	Port int

	// Token, when non-empty, is required as a Bearer credential on every
	// request.
	Token string

	// Logger for server activity (default: stderr logger).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:   "127.0.0.1",
		Port:   8080,
		Logger: log.Default(),
	}
}

// Server serves the row API over HTTP and broadcasts change notifications
// to subscribed websocket clients.
type Server struct {
	addr  string
	token string

	listener net.Listener
	server   *http.Server
	store    *memStore

	clients   map[*websocket.Conn]string
	clientsMu sync.RWMutex

	broadcast chan userEvent

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewServer creates a server. Call Start to begin listening.
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	host := config.Host
	if host == "" {
		host = "127.0.0.1"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      fmt.Sprintf("%s:%d", host, config.Port),
		token:     config.Token,
		store:     newMemStore(),
		clients:   make(map[*websocket.Conn]string),
		broadcast: make(chan userEvent, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}
}

// Start begins listening and serving requests.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/lists", s.handleLists)
	mux.HandleFunc("/v1/categories", s.handleCategories)
	mux.HandleFunc("/v1/tasks", s.handleTasks)
	mux.HandleFunc("/v1/preferences/", s.handlePreferences)
	mux.HandleFunc("/v1/realtime", s.handleRealtime)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Store server listening on %s", s.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server and its websocket connections.
func (s *Server) Stop() error {
	s.logger.Println("Stopping store server")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// URL returns the server's HTTP base URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// ClientCount returns the number of connected realtime clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// notify queues a change notification for every user in users.
func (s *Server) notify(users []string, collection string, kind schema.ChangeKind) {
	for _, userID := range users {
		event := userEvent{
			userID: userID,
			event:  schema.ChangeEvent{Collection: collection, Kind: kind},
		}
		select {
		case s.broadcast <- event:
		case <-s.ctx.Done():
			return
		default:
			s.logger.Println("Warning: broadcast channel full, dropping notification")
		}
	}
}

// broadcastLoop fans queued notifications out to the affected user's
// connections.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case ue := <-s.broadcast:
			data, err := json.Marshal(ue.event)
			if err != nil {
				s.logger.Printf("Failed to marshal notification: %v", err)
				continue
			}

			s.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(s.clients))
			for conn, userID := range s.clients {
				if userID == ue.userID {
					conns = append(conns, conn)
				}
			}
			s.clientsMu.RUnlock()

			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					s.removeClient(conn)
				}
			}
		}
	}
}

// authorized enforces the Bearer token when one is configured.
func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if s.token == "" {
		return true
	}
	if r.Header.Get("Authorization") != "Bearer "+s.token {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return false
	}
	return true
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		writeJSON(w, s.store.lists(userID))

	case http.MethodPost:
		var rows []schema.ListRow
		if !decodeBody(w, r, &rows) {
			return
		}
		users, err := s.store.upsertLists(rows)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.notify(users, schema.CollectionLists, schema.ChangeUpsert)
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		userID, ids, ok := requireDelete(w, r)
		if !ok {
			return
		}
		if s.store.deleteLists(userID, ids) {
			s.notify([]string{userID}, schema.CollectionLists, schema.ChangeDelete)
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		writeJSON(w, s.store.categories(userID))

	case http.MethodPost:
		var rows []schema.CategoryRow
		if !decodeBody(w, r, &rows) {
			return
		}
		users, err := s.store.upsertCategories(rows)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.notify(users, schema.CollectionCategories, schema.ChangeUpsert)
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		userID, ids, ok := requireDelete(w, r)
		if !ok {
			return
		}
		if s.store.deleteCategories(userID, ids) {
			s.notify([]string{userID}, schema.CollectionCategories, schema.ChangeDelete)
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		writeJSON(w, s.store.tasks(userID))

	case http.MethodPost:
		var rows []schema.TaskRow
		if !decodeBody(w, r, &rows) {
			return
		}
		users, err := s.store.upsertTasks(rows)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.notify(users, schema.CollectionTasks, schema.ChangeUpsert)
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		userID, ids, ok := requireDelete(w, r)
		if !ok {
			return
		}
		if s.store.deleteTasks(userID, ids) {
			s.notify([]string{userID}, schema.CollectionTasks, schema.ChangeDelete)
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/v1/preferences/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		row := s.store.preference(userID)
		if row == nil {
			writeError(w, http.StatusNotFound, "preference not found")
			return
		}
		writeJSON(w, row)

	case http.MethodPut:
		var row schema.PreferenceRow
		if !decodeBody(w, r, &row) {
			return
		}
		if row.UserID != userID {
			writeError(w, http.StatusUnprocessableEntity, "preference user_id does not match path")
			return
		}
		if err := s.store.setPreference(row); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.notify([]string{userID}, schema.CollectionPreferences, schema.ChangeUpsert)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRealtime upgrades the connection and registers it for the user's
// notifications.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = userID
	count := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("Realtime client connected for %s (total: %d)", userID, count)

	go s.readLoop(conn)
}

// readLoop discards client messages and notices disconnects.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		count := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Realtime client disconnected (total: %d)", count)
	} else {
		s.clientsMu.Unlock()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id")
		return "", false
	}
	return userID, true
}

func requireDelete(w http.ResponseWriter, r *http.Request) (string, []string, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return "", nil, false
	}
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing ids")
		return "", nil, false
	}
	return userID, strings.Split(raw, ","), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
