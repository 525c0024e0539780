package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
	"github.com/wricardo/merge-puzzle-game/game/service"
	"github.com/wricardo/merge-puzzle-game/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case no
// updates are pushed and /ws is unavailable.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// must be registered before the {id} pattern
	api.HandleFunc("/sessions/import", s.handleImportSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/action", s.handleAction).Methods("POST")
	api.HandleFunc("/sessions/{id}/commands", s.handleCommands).Methods("POST")
	api.HandleFunc("/sessions/{id}/undo", s.handleUndo).Methods("POST")
	api.HandleFunc("/sessions/{id}/redo", s.handleRedo).Methods("POST")
	api.HandleFunc("/sessions/{id}/jump", s.handleJump).Methods("POST")
	api.HandleFunc("/sessions/{id}/preview", s.handlePreview).Methods("POST")

	// Timeline and output
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/history/{index}", s.handleGetSnapshot).Methods("GET")
	api.HandleFunc("/sessions/{id}/export", s.handleExport).Methods("GET")
	api.HandleFunc("/sessions/{id}/save", s.handleSave).Methods("POST")

	// Levels
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels", s.handleCreateLevel).Methods("POST")
	api.HandleFunc("/levels/{name}", s.handleGetLevel).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

func respondText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

// statusFor maps a service error to an HTTP status and the message shown
// to the caller. Internal failures get a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrLevelNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, level.ErrParse), errors.Is(err, service.ErrInvalidLevel):
		return http.StatusBadRequest, err.Error()
	case engine.IsValidationError(err):
		return http.StatusBadRequest, engine.ErrorMessage(err)
	}
	// a failed batch line reports the line and the rollback
	return http.StatusInternalServerError, engine.ErrorMessage(err)
}

// respondServiceError writes err and logs the detail of internal failures
func respondServiceError(w http.ResponseWriter, op string, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s: %v", op, err)
	}
	respondError(w, status, message)
}

// decodeBody reads an optional JSON body into v. An empty body is allowed.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) broadcast(sessionID string, view *service.GameView) {
	if s.hub != nil && view != nil {
		s.hub.BroadcastToSession(sessionID, view)
	}
}

// actionRequest addresses a cell with 0-indexed row x and column y
type actionRequest struct {
	Tool string `json:"tool"`
	X    *int   `json:"x"`
	Y    *int   `json:"y"`
}

func (req actionRequest) parse() (engine.Tool, int, int, error) {
	tool, err := engine.ParseTool(req.Tool)
	if err != nil {
		return "", 0, 0, fmt.Errorf("tool must be one of build, star, bomb")
	}
	if req.X == nil || req.Y == nil {
		return "", 0, 0, fmt.Errorf("x and y are required")
	}
	return tool, *req.X, *req.Y, nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LevelID string `json:"level_id,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateSession(r.Context(), req.LevelID)
	if err != nil {
		respondServiceError(w, "create session", err)
		return
	}

	log.Printf("[SESSION] created session=%s level=%s", session.ID, session.LevelID)
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleImportSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name,omitempty"`
		Level string `json:"level"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Level) == "" {
		respondError(w, http.StatusBadRequest, "level text is required")
		return
	}

	session, err := s.service.ImportSession(r.Context(), req.Name, req.Level)
	if err != nil {
		respondServiceError(w, "import session", err)
		return
	}

	log.Printf("[SESSION] imported session=%s level=%s", session.ID, session.LevelID)
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, "list sessions", err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if levelID := query.Get("level"); levelID != "" {
		filtered := sessions[:0]
		for _, sess := range sessions {
			if strings.EqualFold(sess.LevelID, levelID) {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}
	total := len(sessions)

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, "get session", err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, "delete session", err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventSessionGone, nil)
	}
	log.Printf("[SESSION] deleted session=%s", sessionID)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, "get state", err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tool, x, y, err := req.parse()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Act(r.Context(), sessionID, tool, x, y)
	if err != nil {
		log.Printf("[ACTION] session=%s %s status=FAIL reason=%q", sessionID, engine.FormatCommand(tool, x, y), err.Error())
		respondServiceError(w, "action", err)
		return
	}

	s.broadcast(sessionID, result.Game)

	if o := result.Outcome; o != nil {
		log.Printf("[ACTION] session=%s %s placed=%d final=%d phases=%d scoreΔ=%d step=%d status=OK",
			sessionID, result.Command, o.Placed, o.Final, len(o.Phases), o.ScoreDelta, result.Game.Step)
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Commands string   `json:"commands"`
		Lines    []string `json:"lines,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	text := req.Commands
	if text == "" && len(req.Lines) > 0 {
		text = strings.Join(req.Lines, "\n")
	}

	result, err := s.service.Exec(r.Context(), sessionID, text)
	if err != nil {
		log.Printf("[BATCH] session=%s status=FAIL reason=%q", sessionID, err.Error())
		respondServiceError(w, "exec commands", err)
		return
	}

	s.broadcast(sessionID, result.Game)
	log.Printf("[BATCH] session=%s exec=%d scoreΔ=%d step=%d status=OK",
		sessionID, result.Executed, result.ScoreDelta, result.Game.Step)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.handleNavigate(w, r, "undo", func(sessionID string) (*service.GameView, error) {
		return s.service.Undo(r.Context(), sessionID)
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.handleNavigate(w, r, "redo", func(sessionID string) (*service.GameView, error) {
		return s.service.Redo(r.Context(), sessionID)
	})
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		respondError(w, http.StatusBadRequest, "index is required")
		return
	}

	s.handleNavigate(w, r, "jump", func(sessionID string) (*service.GameView, error) {
		return s.service.JumpTo(r.Context(), sessionID, *req.Index)
	})
}

// handleNavigate runs a history move and pushes the resulting view
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request, op string, move func(string) (*service.GameView, error)) {
	sessionID := mux.Vars(r)["id"]

	view, err := move(sessionID)
	if err != nil {
		respondServiceError(w, op, err)
		return
	}

	s.broadcast(sessionID, view)
	log.Printf("[HISTORY] session=%s %s step=%d/%d", sessionID, op, view.Step, view.HistoryLength-1)

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tool, x, y, err := req.parse()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	preview, err := s.service.Preview(r.Context(), sessionID, tool, x, y)
	if err != nil {
		respondServiceError(w, "preview", err)
		return
	}

	respondJSON(w, http.StatusOK, preview)
}

// Timeline Handlers

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	history, err := s.service.GetHistory(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, "get history", err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	snapshot, err := s.service.GetSnapshot(r.Context(), vars["id"], index)
	if err != nil {
		respondServiceError(w, "get snapshot", err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	export, err := s.service.Export(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, "export", err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		respondText(w, http.StatusOK, export.Output)
		return
	}
	respondJSON(w, http.StatusOK, export)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	saved, err := s.service.SaveOutput(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, "save output", err)
		return
	}

	log.Printf("[SAVE] session=%s file=%s commands=%d", sessionID, saved.Name, saved.Commands)
	respondJSON(w, http.StatusOK, saved)
}

// Level Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondServiceError(w, "list levels", err)
		return
	}

	respondJSON(w, http.StatusOK, levels)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".in")

	lvl, err := s.service.LoadLevel(r.Context(), name)
	if err != nil {
		respondServiceError(w, "get level", err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		respondText(w, http.StatusOK, lvl.String())
		return
	}
	respondJSON(w, http.StatusOK, lvl)
}

func (s *Server) handleCreateLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Level name is required")
		return
	}

	lvl, err := level.ParseString(req.Level)
	if err != nil {
		respondServiceError(w, "parse level", err)
		return
	}

	if err := s.service.SaveLevel(r.Context(), req.Name, lvl); err != nil {
		respondServiceError(w, "save level", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Level saved successfully",
		"level_id": strings.TrimSuffix(req.Name, ".in"),
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "live updates are disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
