package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	leadershipservice "backoffice/contexts/leadership-governance/leadership-service"
	leadershiperrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	leadershiphttp "backoffice/contexts/leadership-governance/leadership-service/transport/http"
	_ "backoffice/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	leadership leadershipservice.Module
	metrics    http.Handler
}

// New builds the API server. A nil metrics handler leaves /metrics
// unregistered.
func New(
	leadership leadershipservice.Module,
	metrics http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		leadership: leadership,
		metrics:    metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /v1/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /v1/elections", s.handleListElections)
	s.mux.HandleFunc("GET /v1/elections/{election_id}", s.handleGetElection)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/status", s.handleTransitionElection)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/candidates", s.handleNominateCandidate)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/candidates", s.handleListCandidates)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/results", s.handleElectionResults)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/finalize", s.handleFinalizeElection)

	s.mux.HandleFunc("POST /v1/candidates/{candidate_id}/review", s.handleReviewCandidate)
	s.mux.HandleFunc("POST /v1/candidates/{candidate_id}/withdraw", s.handleWithdrawCandidate)

	s.mux.HandleFunc("POST /v1/appointments", s.handleCreateAppointment)
	s.mux.HandleFunc("GET /v1/appointments", s.handleListAppointments)
	s.mux.HandleFunc("GET /v1/appointments/{appointment_id}", s.handleGetAppointment)
	s.mux.HandleFunc("POST /v1/appointments/{appointment_id}/terminate", s.handleTerminateAppointment)
	s.mux.HandleFunc("POST /v1/appointments/{appointment_id}/remove", s.handleRemoveAppointment)
	s.mux.HandleFunc("DELETE /v1/appointments/{appointment_id}", s.handleDeleteAppointment)

	s.mux.HandleFunc("GET /v1/positions", s.handleListPositions)
	s.mux.HandleFunc("GET /v1/positions/{position_id}/holder", s.handlePositionHolder)
	s.mux.HandleFunc("GET /v1/positions/{position_id}/history", s.handlePositionHistory)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.CreateElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.CreateElectionHandler(r.Context(), actorID, req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, ok := parsePaging(w, r)
	if !ok {
		return
	}
	resp, err := s.leadership.Handler.ListElectionsHandler(r.Context(), leadershiphttp.ListElectionsRequest{
		Status:         query.Get("status"),
		PositionID:     query.Get("position_id"),
		HierarchyLevel: query.Get("hierarchy_level"),
		EntityID:       query.Get("entity_id"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.leadership.Handler.GetElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransitionElection(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.TransitionElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.TransitionElectionHandler(r.Context(), actorID, r.PathValue("election_id"), req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNominateCandidate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.NominateCandidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.NominateCandidateHandler(r.Context(), actorID, r.PathValue("election_id"), req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.leadership.Handler.ListCandidatesHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.CastVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.CastVoteHandler(r.Context(), voterID, r.PathValue("election_id"), req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleElectionResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.leadership.Handler.ElectionResultsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalizeElection(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.FinalizeElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.FinalizeElectionHandler(r.Context(), actorID, r.PathValue("election_id"), req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewCandidate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.ReviewCandidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.ReviewCandidateHandler(r.Context(), actorID, r.PathValue("candidate_id"), req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawCandidate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.leadership.Handler.WithdrawCandidateHandler(r.Context(), actorID, r.PathValue("candidate_id"))
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.CreateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.CreateAppointmentHandler(r.Context(), actorID, req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, ok := parsePaging(w, r)
	if !ok {
		return
	}
	resp, err := s.leadership.Handler.ListAppointmentsHandler(r.Context(), leadershiphttp.ListAppointmentsRequest{
		PositionID:     query.Get("position_id"),
		HierarchyLevel: query.Get("hierarchy_level"),
		EntityID:       query.Get("entity_id"),
		MemberID:       query.Get("member_id"),
		Status:         query.Get("status"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.leadership.Handler.GetAppointmentHandler(r.Context(), r.PathValue("appointment_id"))
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTerminateAppointment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.TerminateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.TerminateAppointmentHandler(r.Context(), actorID, r.PathValue("appointment_id"), req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveAppointment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req leadershiphttp.RemoveAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.leadership.Handler.RemoveAppointmentHandler(r.Context(), actorID, r.PathValue("appointment_id"), req)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := s.leadership.Handler.DeleteAppointmentHandler(r.Context(), actorID, r.PathValue("appointment_id")); err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.leadership.Handler.ListPositionsHandler(r.Context(), r.URL.Query().Get("hierarchy_level"))
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePositionHolder(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.leadership.Handler.PositionHolderHandler(
		r.Context(),
		r.PathValue("position_id"),
		query.Get("hierarchy_level"),
		query.Get("entity_id"),
	)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePositionHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _, ok := parsePaging(w, r)
	if !ok {
		return
	}
	resp, err := s.leadership.Handler.PositionHistoryHandler(
		r.Context(),
		r.PathValue("position_id"),
		query.Get("hierarchy_level"),
		query.Get("entity_id"),
		limit,
	)
	if err != nil {
		writeLeadershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if actorID == "" {
		writeLeadershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return actorID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeLeadershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func parsePaging(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	query := r.URL.Query()
	limit, offset := 0, 0
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeLeadershipError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return 0, 0, false
		}
		limit = value
	}
	if raw := query.Get("offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeLeadershipError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return 0, 0, false
		}
		offset = value
	}
	return limit, offset, true
}

func writeLeadershipDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leadershiperrors.ErrActorRequired):
		writeLeadershipError(w, http.StatusUnauthorized, "missing_user", err.Error())
	case errors.Is(err, leadershiperrors.ErrForbidden):
		writeLeadershipError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, leadershiperrors.ErrElectionNotFound),
		errors.Is(err, leadershiperrors.ErrCandidateNotFound),
		errors.Is(err, leadershiperrors.ErrPositionNotFound),
		errors.Is(err, leadershiperrors.ErrAppointmentNotFound),
		errors.Is(err, leadershiperrors.ErrMemberNotFound),
		errors.Is(err, leadershiperrors.ErrCandidateNotInElection):
		writeLeadershipError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, leadershiperrors.ErrAlreadyVoted):
		writeLeadershipError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, leadershiperrors.ErrAlreadyFinalized):
		writeLeadershipError(w, http.StatusConflict, "already_finalized", err.Error())
	case errors.Is(err, leadershiperrors.ErrPositionOccupied):
		writeLeadershipError(w, http.StatusConflict, "position_occupied", err.Error())
	case errors.Is(err, leadershiperrors.ErrNotActive):
		writeLeadershipError(w, http.StatusConflict, "not_active", err.Error())
	case errors.Is(err, leadershiperrors.ErrInvalidWindow):
		writeLeadershipError(w, http.StatusBadRequest, "invalid_window", err.Error())
	case errors.Is(err, leadershiperrors.ErrInvalidTransition):
		writeLeadershipError(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, leadershiperrors.ErrNominationWindowClosed):
		writeLeadershipError(w, http.StatusBadRequest, "nomination_window_closed", err.Error())
	case errors.Is(err, leadershiperrors.ErrInvalidReviewState):
		writeLeadershipError(w, http.StatusBadRequest, "invalid_review_state", err.Error())
	case errors.Is(err, leadershiperrors.ErrVotingClosed):
		writeLeadershipError(w, http.StatusBadRequest, "voting_closed", err.Error())
	case errors.Is(err, leadershiperrors.ErrInvalidCandidate):
		writeLeadershipError(w, http.StatusBadRequest, "invalid_candidate", err.Error())
	case errors.Is(err, leadershiperrors.ErrDuplicateNomination):
		writeLeadershipError(w, http.StatusBadRequest, "duplicate_nomination", err.Error())
	case errors.Is(err, leadershiperrors.ErrMemberNotEligible):
		writeLeadershipError(w, http.StatusBadRequest, "member_not_eligible", err.Error())
	case errors.Is(err, leadershiperrors.ErrInvalidElectionInput),
		errors.Is(err, leadershiperrors.ErrInvalidCandidateInput),
		errors.Is(err, leadershiperrors.ErrInvalidVoteInput),
		errors.Is(err, leadershiperrors.ErrInvalidAppointmentInput):
		writeLeadershipError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeLeadershipError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLeadershipError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, leadershiphttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
