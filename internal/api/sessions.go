package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rostrum/internal/coach"
	"github.com/MikeSquared-Agency/rostrum/internal/debate"
	"github.com/MikeSquared-Agency/rostrum/internal/session"
	"github.com/MikeSquared-Agency/rostrum/internal/store"
)

// ReportReader is the slice of the persistence layer the read API needs.
type ReportReader interface {
	GetAnalysisReport(ctx context.Context, sessionID uuid.UUID) (*debate.AnalysisReport, error)
	ListOccurrences(ctx context.Context, sessionID uuid.UUID) ([]debate.TechniqueOccurrence, error)
}

// QuickCoacher serves the advisory fast-path summary.
type QuickCoacher interface {
	QuickCoach(ctx context.Context, agg *session.Aggregator) (*coach.QuickSummary, error)
}

// RegisterSessionRoutes mounts the session read API under bearer auth.
// quick may be nil when no coach is configured.
func (s *Server) RegisterSessionRoutes(apiToken string, reader ReportReader, quick QuickCoacher) {
	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Use(BearerAuth(apiToken))
		r.Get("/{id}/occurrences", s.occurrences(reader))
		r.Get("/{id}/summary", s.summary())
		r.Get("/{id}/report", s.report(reader))
		r.Post("/{id}/quickcoach", s.quickCoach(quick))
	})
}

// occurrences serves the live aggregator view when the session is in memory
// and falls back to the store for finished sessions.
func (s *Server) occurrences(reader ReportReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := parseSessionID(w, r)
		if !ok {
			return
		}
		if agg, live := s.registry.Get(sessionID); live {
			writeJSON(w, http.StatusOK, map[string]any{
				"session_id":  sessionID,
				"occurrences": agg.Occurrences(),
			})
			return
		}
		occ, err := reader.ListOccurrences(r.Context(), sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load occurrences")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id":  sessionID,
			"occurrences": occ,
		})
	}
}

func (s *Server) summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := parseSessionID(w, r)
		if !ok {
			return
		}
		agg, live := s.registry.Get(sessionID)
		if !live {
			writeError(w, http.StatusNotFound, "session not live")
			return
		}
		writeJSON(w, http.StatusOK, agg.Summarize())
	}
}

func (s *Server) report(reader ReportReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := parseSessionID(w, r)
		if !ok {
			return
		}
		rep, err := reader.GetAnalysisReport(r.Context(), sessionID)
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "analysis pending")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load report")
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func (s *Server) quickCoach(quick QuickCoacher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if quick == nil {
			writeError(w, http.StatusServiceUnavailable, "coach not configured")
			return
		}
		sessionID, ok := parseSessionID(w, r)
		if !ok {
			return
		}
		agg, live := s.registry.Get(sessionID)
		if !live {
			writeError(w, http.StatusNotFound, "session not live")
			return
		}
		summary, err := quick.QuickCoach(r.Context(), agg)
		if err != nil {
			writeError(w, http.StatusBadGateway, "coach unavailable")
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func parseSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
