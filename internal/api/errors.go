package api

import (
	"errors"
	"net/http"

	"github.com/aretw0/roguepath/pkg/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// classify maps domain errors to a status and a stable kind.
func classify(err error) (int, string) {
	var (
		gce *domain.GenerationConstraintError
		gie *domain.GraphIntegrityError
		ite *domain.IllegalTransitionError
		tve *domain.TraversalViolationError
		ure *domain.UnresolvedRoomError
	)
	switch {
	case errors.Is(err, domain.ErrGroupNotFound):
		return http.StatusNotFound, "group_not_found"
	case errors.Is(err, domain.ErrGraphNotFound):
		return http.StatusNotFound, "path_not_found"
	case errors.Is(err, domain.ErrNoRun):
		return http.StatusNotFound, "no_run"
	case errors.Is(err, domain.ErrNotMember):
		return http.StatusNotFound, "not_member"
	case errors.Is(err, domain.ErrAlreadyMember):
		return http.StatusConflict, "already_member"
	case errors.Is(err, domain.ErrPathActive):
		return http.StatusConflict, "path_active"
	case errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict, "run_in_progress"
	case errors.As(err, &gce):
		return http.StatusUnprocessableEntity, "generation_constraint"
	case errors.As(err, &tve):
		return http.StatusConflict, "traversal_violation"
	case errors.As(err, &ite):
		return http.StatusConflict, "illegal_transition"
	case errors.As(err, &ure):
		return http.StatusConflict, "unresolved_room"
	case errors.As(err, &gie):
		return http.StatusInternalServerError, "graph_integrity"
	}
	return http.StatusInternalServerError, ""
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "kind", kind, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
