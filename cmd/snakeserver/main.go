// Command snakeserver is a reference Battlesnake-style HTTP host for the
// autopilot: it implements the "/", "/start", "/move", "/end" contract,
// translating wire JSON to and from the core autopilot types, and exposes an
// optional "/spectate" WebSocket feed broadcasting each decided move.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/corvid9/snakepilot/applog"
	"github.com/corvid9/snakepilot/autopilot"
	"github.com/corvid9/snakepilot/grid"
)

// BattlesnakeInfoResponse is the "/" response.
type BattlesnakeInfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Color      string `json:"color"`
	Head       string `json:"head"`
	Tail       string `json:"tail"`
	Version    string `json:"version"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type GameRequest struct {
	Game  GameInfo    `json:"game"`
	Turn  int         `json:"turn"`
	Board Board       `json:"board"`
	You   Battlesnake `json:"you"`
}

type GameInfo struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Timeout int     `json:"timeout"`
}

type Ruleset struct {
	Name string `json:"name"`
}

type Board struct {
	Height  int           `json:"height"`
	Width   int           `json:"width"`
	Food    []Coord       `json:"food"`
	Hazards []Coord       `json:"hazards"`
	Snakes  []Battlesnake `json:"snakes"`
}

type Battlesnake struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []Coord `json:"body"`
	Head   Coord   `json:"head"`
	Length int     `json:"length"`
}

type MoveResponse struct {
	Move  string `json:"move"`
	Shout string `json:"shout,omitempty"`
}

// SpectateEvent is broadcast to every connected /spectate client after each
// decided move.
type SpectateEvent struct {
	GameID string               `json:"game_id"`
	Turn   int                  `json:"turn"`
	Move   string               `json:"move"`
	Stats  autopilot.DebugStats `json:"stats"`
}

// gameSession tracks the one Autopilot instance assigned to a single
// in-flight game, since an Autopilot is not safe to share across games.
type gameSession struct {
	ap         *autopilot.Autopilot
	bounds     grid.Bounds
	currentDir grid.Direction
}

// Server holds per-game autopilot state and the spectator broadcast hub.
type Server struct {
	logger *slog.Logger
	moveTO time.Duration

	mu       sync.Mutex
	sessions map[string]*gameSession

	hub *spectatorHub
}

func NewServer(logger *slog.Logger, moveTimeout time.Duration) *Server {
	return &Server{
		logger:   logger,
		moveTO:   moveTimeout,
		sessions: make(map[string]*gameSession),
		hub:      newSpectatorHub(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	resp := BattlesnakeInfoResponse{
		APIVersion: "1",
		Author:     "snakepilot",
		Color:      "#39ff14",
		Head:       "default",
		Tail:       "default",
		Version:    "1.0.0",
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bounds, err := grid.New(req.Board.Width, req.Board.Height, 0, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ap := autopilot.New(bounds, req.Game.Ruleset.Name)
	ap.SetLogger(s.logger)

	id := req.Game.ID
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	s.sessions[id] = &gameSession{ap: ap, bounds: bounds}
	s.mu.Unlock()

	s.logger.Info("game started", "game_id", id, "turn", req.Turn, "you", req.You.Name)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	timeout := s.moveTO
	if req.Game.Timeout > 0 {
		timeout = time.Duration(req.Game.Timeout) * time.Millisecond
	}
	computeTime := timeout - 200*time.Millisecond
	if computeTime < 50*time.Millisecond {
		computeTime = 50 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(r.Context(), computeTime)
	defer cancel()

	sess := s.sessionFor(req)

	head := fromCoord(req.You.Head)
	body := fromCoords(req.You.Body)
	fruits := fromCoords(req.Board.Food)
	hazards := fromCoords(req.Board.Hazards)
	sess.ap.SetHazards(hazards)

	dir, err := decideWithDeadline(ctx, sess.ap, head, sess.currentDir, body, fruits)
	if err != nil {
		s.logger.Error("move deadline exceeded, using emergency direction", "game_id", req.Game.ID, "error", err)
		if d, ok := sess.ap.EmergencyDirection(head, sess.currentDir, body, fruits); ok {
			dir = d
		} else {
			dir = sess.currentDir
		}
	}
	sess.currentDir = dir

	moveStr := moveToString(dir)
	resp := MoveResponse{Move: moveStr}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)

	s.hub.broadcast(SpectateEvent{
		GameID: req.Game.ID,
		Turn:   req.Turn,
		Move:   moveStr,
		Stats:  sess.ap.DebugStats(),
	})
}

// decideWithDeadline runs NextDirection off the calling goroutine so a
// pathological A* call on an adversarially large board cannot block past
// ctx's deadline; it returns ctx.Err() if the deadline fires first.
func decideWithDeadline(ctx context.Context, ap *autopilot.Autopilot, head grid.Cell, currentDir grid.Direction, body, fruits []grid.Cell) (grid.Direction, error) {
	done := make(chan grid.Direction, 1)
	go func() {
		done <- ap.NextDirection(head, currentDir, body, fruits)
	}()
	select {
	case dir := <-done:
		return dir, nil
	case <-ctx.Done():
		return grid.Direction{}, ctx.Err()
	}
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	delete(s.sessions, req.Game.ID)
	s.mu.Unlock()

	s.logger.Info("game ended", "game_id", req.Game.ID, "turn", req.Turn)
	w.WriteHeader(http.StatusOK)
}

// sessionFor returns the session for req.Game.ID, lazily constructing one if
// /start was never called (some local test harnesses skip it).
func (s *Server) sessionFor(req GameRequest) *gameSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[req.Game.ID]
	if ok {
		return sess
	}
	bounds, err := grid.New(req.Board.Width, req.Board.Height, 0, 0)
	if err != nil {
		bounds, _ = grid.New(11, 11, 0, 0)
	}
	ap := autopilot.New(bounds, req.Game.Ruleset.Name)
	ap.SetLogger(s.logger)
	sess = &gameSession{ap: ap, bounds: bounds}
	s.sessions[req.Game.ID] = sess
	return sess
}

func fromCoord(c Coord) grid.Cell {
	return grid.Cell{X: c.X, Z: c.Y}
}

func fromCoords(cs []Coord) []grid.Cell {
	out := make([]grid.Cell, len(cs))
	for i, c := range cs {
		out[i] = fromCoord(c)
	}
	return out
}

func moveToString(d grid.Direction) string {
	switch d {
	case grid.Up:
		return "up"
	case grid.Down:
		return "down"
	case grid.Left:
		return "left"
	case grid.Right:
		return "right"
	default:
		return "up"
	}
}

// spectatorHub fans out SpectateEvents to every connected /spectate
// WebSocket client.
type spectatorHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newSpectatorHub() *spectatorHub {
	return &spectatorHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *spectatorHub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Drain and discard any client messages until the connection closes, so
	// we notice disconnects and free the slot.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *spectatorHub) broadcast(event SpectateEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	listen := fs.String("listen", ":8080", "HTTP listen address")
	moveTimeout := fs.Duration("move-timeout", 500*time.Millisecond, "default move timeout if the ruleset omits one")
	logFormat := fs.String("log-format", "pretty", "log output format: pretty or json")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	logger := applog.New(*logFormat, os.Stderr, slog.LevelInfo)
	server := NewServer(logger, *moveTimeout)

	mux := http.NewServeMux()
	mux.HandleFunc("/", server.handleIndex)
	mux.HandleFunc("/start", server.handleStart)
	mux.HandleFunc("/move", server.handleMove)
	mux.HandleFunc("/end", server.handleEnd)
	mux.HandleFunc("/spectate", server.hub.handle)

	srv := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("snakeserver listening", "addr", *listen)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
