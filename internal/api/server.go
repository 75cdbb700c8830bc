// Package api exposes a Host over HTTP: group and path management, run
// control, recent events, a websocket event stream and Prometheus metrics.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/roguepath"
	"github.com/aretw0/roguepath/internal/events"
	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/internal/presentation/graph"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the HTTP API.
type Server struct {
	host    *roguepath.Host
	bus     *events.Bus
	metrics http.Handler
	logger  *slog.Logger
}

type Option func(*Server)

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server over host, reading events from bus.
func New(host *roguepath.Host, bus *events.Bus, opts ...Option) *Server {
	s := &Server{
		host:   host,
		bus:    bus,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Get("/events", s.recentEvents)
	r.Get("/events/ws", s.streamEvents)

	r.Route("/groups", func(r chi.Router) {
		r.Get("/", s.listGroups)
		r.Post("/", s.createGroup)
		r.Route("/{group}", func(r chi.Router) {
			r.Get("/", s.getGroup)
			r.Post("/members", s.joinGroup)
			r.Post("/leader", s.promoteLeader)

			r.Post("/path", s.generatePath)
			r.Get("/path", s.getPath)
			r.Get("/path/mermaid", s.getMermaid)
			r.Post("/path/reset", s.resetPath)

			r.Get("/available", s.available)
			r.Get("/progress", s.progress)
			r.Post("/select", s.selectNode)
			r.Post("/pause", s.pause)
			r.Post("/resume", s.resume)
			r.Post("/stop", s.stop)
		})
	})

	r.Route("/actors/{actor}", func(r chi.Router) {
		r.Delete("/group", s.leaveGroup)
		r.Post("/defeated", s.actorDefeated)
		r.Post("/down", s.memberDefeated)
	})

	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Seed      uint64 `json:"seed"`
	Groups    int    `json:"groups"`
	Timestamp string `json:"ts"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Seed:      s.host.Seed(),
		Groups:    len(s.host.Groups()),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) recentEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.bus.Recent(limit, r.URL.Query().Get("group")))
}

type actorRequest struct {
	Actor string `json:"actor"`
}

type groupResponse struct {
	ID string `json:"id"`
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.host.Groups())
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if !s.decodeActor(w, r, &req) {
		return
	}
	id, err := s.host.CreateGroup(r.Context(), req.Actor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupResponse{ID: id})
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.host.Group(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if !s.decodeActor(w, r, &req) {
		return
	}
	if err := s.host.JoinGroup(r.Context(), chi.URLParam(r, "group"), req.Actor); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) promoteLeader(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if !s.decodeActor(w, r, &req) {
		return
	}
	if err := s.host.PromoteLeader(r.Context(), chi.URLParam(r, "group"), req.Actor); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type leaveResponse struct {
	Disbanded bool `json:"disbanded"`
}

func (s *Server) leaveGroup(w http.ResponseWriter, r *http.Request) {
	gone, err := s.host.LeaveGroup(r.Context(), chi.URLParam(r, "actor"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaveResponse{Disbanded: gone})
}

type pathRequest struct {
	PathID string           `json:"path_id"`
	Params domain.GenParams `json:"params"`
}

func (s *Server) generatePath(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PathID == "" {
		writeMessage(w, http.StatusBadRequest, "path_id required")
		return
	}
	g, err := s.host.GeneratePath(r.Context(), chi.URLParam(r, "group"), req.PathID, req.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeGraph(w, http.StatusCreated, g)
}

func (s *Server) getPath(w http.ResponseWriter, r *http.Request) {
	g, err := s.host.Path(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeGraph(w, http.StatusOK, g)
}

func (s *Server) resetPath(w http.ResponseWriter, r *http.Request) {
	g, err := s.host.ResetPath(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeGraph(w, http.StatusOK, g)
}

func (s *Server) getMermaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	group := chi.URLParam(r, "group")
	g, err := s.host.Path(ctx, group)
	if err != nil {
		s.writeError(w, err)
		return
	}
	overlay := &graph.GraphOverlay{}
	if p, err := s.host.Progress(ctx, group); err == nil {
		overlay.Current = p.Current
	}
	if ids, err := s.host.Available(ctx, group); err == nil {
		overlay.Available = ids
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(g, overlay)))
}

func (s *Server) writeGraph(w http.ResponseWriter, status int, g *domain.PathGraph) {
	doc, err := s.host.Codec().Encode(g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(doc)
}

func (s *Server) available(w http.ResponseWriter, r *http.Request) {
	ids, err := s.host.Available(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []domain.NodeID{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	p, err := s.host.Progress(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type selectRequest struct {
	Node *domain.NodeID `json:"node"`
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Node == nil {
		writeMessage(w, http.StatusBadRequest, "node required")
		return
	}
	snap, err := s.host.SelectNode(r.Context(), chi.URLParam(r, "group"), *req.Node)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	s.control(w, s.host.Pause(r.Context(), chi.URLParam(r, "group")))
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	s.control(w, s.host.Resume(r.Context(), chi.URLParam(r, "group")))
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	s.control(w, s.host.Stop(r.Context(), chi.URLParam(r, "group")))
}

func (s *Server) control(w http.ResponseWriter, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type defeatedResponse struct {
	Owned bool `json:"owned"`
}

func (s *Server) actorDefeated(w http.ResponseWriter, r *http.Request) {
	owned, err := s.host.ActorDefeated(r.Context(), chi.URLParam(r, "actor"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, defeatedResponse{Owned: owned})
}

func (s *Server) memberDefeated(w http.ResponseWriter, r *http.Request) {
	s.control(w, s.host.MemberDefeated(r.Context(), chi.URLParam(r, "actor")))
}

func (s *Server) decodeActor(w http.ResponseWriter, r *http.Request, req *actorRequest) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if req.Actor == "" {
		writeMessage(w, http.StatusBadRequest, "actor required")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
