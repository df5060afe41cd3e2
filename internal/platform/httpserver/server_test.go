package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	leadershipservice "backoffice/contexts/leadership-governance/leadership-service"
	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
	leadershiphttp "backoffice/contexts/leadership-governance/leadership-service/transport/http"
)

const testAdmin = "admin-1"

var (
	serverNow   = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	windowStart = time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
)

func newTestServer() (*Server, leadershipservice.Module) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := leadershipservice.NewInMemoryModule(nil, logger)
	module.Store.SetClock(func() time.Time { return serverNow })
	module.Store.SetPosition(entities.Position{
		PositionID:     "ward-chair",
		Title:          "Ward Chairperson",
		HierarchyLevel: entities.HierarchyLevelWard,
	})
	for _, id := range []string{"m-alice", "m-bob", "voter-1", "voter-2", "voter-3"} {
		module.Store.SetMember(ports.MemberProjection{MemberID: id, DisplayName: id, Status: "active"})
	}
	return New(module, nil, logger, ""), module
}

func serve(t *testing.T, server *Server, method string, path string, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch value := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(value)
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-User-Id", actor)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rr.Body.String())
	}
	return out
}

func expectErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rr, status)
	if got := decode[leadershiphttp.ErrorResponse](t, rr); got.Code != code {
		t.Fatalf("expected error code %q, got %q", code, got.Code)
	}
}

func electionRequest() leadershiphttp.CreateElectionRequest {
	return leadershiphttp.CreateElectionRequest{
		Name:            "Ward 12 chair election",
		PositionID:      "ward-chair",
		HierarchyLevel:  "ward",
		EntityID:        "ward-12",
		ElectionDate:    windowStart.AddDate(0, 0, 30),
		NominationStart: windowStart,
		NominationEnd:   windowStart.AddDate(0, 0, 14),
		VotingStart:     windowStart.AddDate(0, 0, 15),
		VotingEnd:       windowStart.AddDate(0, 0, 30),
	}
}

func transition(t *testing.T, server *Server, electionID string, status entities.ElectionStatus) {
	t.Helper()
	rr := serve(t, server, http.MethodPost, "/v1/elections/"+electionID+"/status", testAdmin,
		leadershiphttp.TransitionElectionRequest{Status: string(status)})
	expectStatus(t, rr, http.StatusOK)
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer()
	rr := serve(t, server, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestMetricsRouteOnlyWhenConfigured(t *testing.T) {
	server, module := newTestServer()
	expectStatus(t, serve(t, server, http.MethodGet, "/metrics", "", nil), http.StatusNotFound)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "leadership_operations_total 1\n")
	})
	withMetrics := New(module, metrics, nil, ":0")
	expectStatus(t, serve(t, withMetrics, http.MethodGet, "/metrics", "", nil), http.StatusOK)
}

func TestWritesRequireUserHeader(t *testing.T) {
	server, _ := newTestServer()
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/elections"},
		{http.MethodPost, "/v1/elections/el-1/status"},
		{http.MethodPost, "/v1/elections/el-1/candidates"},
		{http.MethodPost, "/v1/elections/el-1/votes"},
		{http.MethodPost, "/v1/elections/el-1/finalize"},
		{http.MethodPost, "/v1/candidates/c-1/review"},
		{http.MethodPost, "/v1/appointments"},
		{http.MethodDelete, "/v1/appointments/a-1"},
	}
	for _, tt := range paths {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			expectErrorCode(t, serve(t, server, tt.method, tt.path, "", `{}`), http.StatusUnauthorized, "missing_user")
		})
	}
}

func TestRejectsMalformedInput(t *testing.T) {
	server, _ := newTestServer()

	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/elections", testAdmin, `{"name":`),
		http.StatusBadRequest, "invalid_json")
	expectErrorCode(t, serve(t, server, http.MethodGet, "/v1/elections?limit=ten", "", nil),
		http.StatusBadRequest, "invalid_limit")
	expectErrorCode(t, serve(t, server, http.MethodGet, "/v1/appointments?offset=-x", "", nil),
		http.StatusBadRequest, "invalid_offset")

	bad := electionRequest()
	bad.VotingStart = bad.NominationStart
	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/elections", testAdmin, bad),
		http.StatusBadRequest, "invalid_window")
}

func TestNotFoundMapping(t *testing.T) {
	server, _ := newTestServer()

	expectErrorCode(t, serve(t, server, http.MethodGet, "/v1/elections/missing", "", nil), http.StatusNotFound, "not_found")
	expectErrorCode(t, serve(t, server, http.MethodGet, "/v1/appointments/missing", "", nil), http.StatusNotFound, "not_found")

	unknownPosition := electionRequest()
	unknownPosition.PositionID = "treasurer"
	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/elections", testAdmin, unknownPosition),
		http.StatusNotFound, "not_found")
}

func TestElectionFlowOverHTTP(t *testing.T) {
	server, _ := newTestServer()

	rr := serve(t, server, http.MethodPost, "/v1/elections", testAdmin, electionRequest())
	expectStatus(t, rr, http.StatusCreated)
	election := decode[leadershiphttp.ElectionResponse](t, rr)
	if election.Status != string(entities.ElectionStatusPlanned) {
		t.Fatalf("expected planned election, got %s", election.Status)
	}

	transition(t, server, election.ElectionID, entities.ElectionStatusNominationsOpen)
	candidates := map[string]string{}
	for _, member := range []string{"m-alice", "m-bob"} {
		rr = serve(t, server, http.MethodPost, "/v1/elections/"+election.ElectionID+"/candidates", member,
			leadershiphttp.NominateCandidateRequest{MemberID: member})
		expectStatus(t, rr, http.StatusCreated)
		candidates[member] = decode[leadershiphttp.CandidateResponse](t, rr).CandidateID
	}
	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/elections/"+election.ElectionID+"/candidates", "m-alice",
		leadershiphttp.NominateCandidateRequest{MemberID: "m-alice"}), http.StatusBadRequest, "duplicate_nomination")

	transition(t, server, election.ElectionID, entities.ElectionStatusNominationsClosed)
	for _, candidateID := range candidates {
		rr = serve(t, server, http.MethodPost, "/v1/candidates/"+candidateID+"/review", testAdmin,
			leadershiphttp.ReviewCandidateRequest{Decision: "approved"})
		expectStatus(t, rr, http.StatusOK)
	}
	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/elections/"+election.ElectionID+"/status", testAdmin,
		leadershiphttp.TransitionElectionRequest{Status: "completed"}), http.StatusBadRequest, "invalid_transition")

	transition(t, server, election.ElectionID, entities.ElectionStatusVotingOpen)
	ballots := map[string]string{"voter-1": "m-alice", "voter-2": "m-alice", "voter-3": "m-bob"}
	for voter, member := range ballots {
		rr = serve(t, server, http.MethodPost, "/v1/elections/"+election.ElectionID+"/votes", voter,
			leadershiphttp.CastVoteRequest{CandidateID: candidates[member]})
		expectStatus(t, rr, http.StatusCreated)
		if bytes.Contains(rr.Body.Bytes(), []byte(candidates[member])) {
			t.Fatalf("vote acknowledgement echoed the chosen candidate: %s", rr.Body.String())
		}
	}
	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/elections/"+election.ElectionID+"/votes", "voter-1",
		leadershiphttp.CastVoteRequest{CandidateID: candidates["m-bob"]}), http.StatusConflict, "already_voted")

	transition(t, server, election.ElectionID, entities.ElectionStatusVotingClosed)
	rr = serve(t, server, http.MethodGet, "/v1/elections/"+election.ElectionID+"/results", "", nil)
	expectStatus(t, rr, http.StatusOK)
	results := decode[leadershiphttp.ElectionResultsResponse](t, rr)
	if results.TotalVotes != 3 || len(results.Items) != 2 || results.Items[0].CandidateID != candidates["m-alice"] {
		t.Fatalf("unexpected results %+v", results)
	}

	finalize := leadershiphttp.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-alice"],
		StartDate:         windowStart.AddDate(0, 1, 0),
	}
	rr = serve(t, server, http.MethodPost, "/v1/elections/"+election.ElectionID+"/finalize", testAdmin, finalize)
	expectStatus(t, rr, http.StatusOK)
	finalized := decode[leadershiphttp.FinalizeElectionResponse](t, rr)
	if !finalized.ElectionFinalized || !finalized.WinnerIsTallyLeader || finalized.Appointment.MemberID != "m-alice" {
		t.Fatalf("unexpected finalize response %+v", finalized)
	}
	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/elections/"+election.ElectionID+"/finalize", testAdmin, finalize),
		http.StatusConflict, "already_finalized")

	rr = serve(t, server, http.MethodGet, "/v1/positions/ward-chair/holder?hierarchy_level=ward&entity_id=ward-12", "", nil)
	expectStatus(t, rr, http.StatusOK)
	holder := decode[leadershiphttp.PositionHolderResponse](t, rr)
	if !holder.Occupied || holder.Appointment == nil || holder.Appointment.AppointmentID != finalized.AppointmentID {
		t.Fatalf("unexpected holder %+v", holder)
	}

	rr = serve(t, server, http.MethodGet, "/v1/positions/ward-chair/history?hierarchy_level=ward&entity_id=ward-12", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if history := decode[leadershiphttp.ListAppointmentsResponse](t, rr); len(history.Items) != 1 {
		t.Fatalf("expected one history row, got %d", len(history.Items))
	}
}

func TestAppointmentEndpoints(t *testing.T) {
	server, module := newTestServer()

	create := leadershiphttp.CreateAppointmentRequest{
		PositionID:      "ward-chair",
		MemberID:        "m-bob",
		HierarchyLevel:  "ward",
		EntityID:        "ward-3",
		AppointmentType: "acting",
		StartDate:       windowStart,
	}
	rr := serve(t, server, http.MethodPost, "/v1/appointments", testAdmin, create)
	expectStatus(t, rr, http.StatusCreated)
	appointment := decode[leadershiphttp.AppointmentResponse](t, rr)

	create.MemberID = "m-alice"
	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/appointments", testAdmin, create),
		http.StatusConflict, "position_occupied")

	create.AppointmentType = "elected"
	create.EntityID = "ward-4"
	expectErrorCode(t, serve(t, server, http.MethodPost, "/v1/appointments", testAdmin, create),
		http.StatusBadRequest, "invalid_request")

	rr = serve(t, server, http.MethodGet, "/v1/appointments?member_id=m-bob", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if list := decode[leadershiphttp.ListAppointmentsResponse](t, rr); len(list.Items) != 1 {
		t.Fatalf("expected one appointment for m-bob, got %d", len(list.Items))
	}

	path := fmt.Sprintf("/v1/appointments/%s", appointment.AppointmentID)
	rr = serve(t, server, http.MethodPost, path+"/terminate", testAdmin,
		leadershiphttp.TerminateAppointmentRequest{Reason: "term ended"})
	expectStatus(t, rr, http.StatusOK)
	if terminated := decode[leadershiphttp.AppointmentResponse](t, rr); terminated.Status != "terminated" {
		t.Fatalf("expected terminated, got %s", terminated.Status)
	}
	expectErrorCode(t, serve(t, server, http.MethodPost, path+"/remove", testAdmin,
		leadershiphttp.RemoveAppointmentRequest{Reason: "misconduct"}), http.StatusConflict, "not_active")

	expectErrorCode(t, serve(t, server, http.MethodDelete, path, testAdmin, nil), http.StatusForbidden, "forbidden")
	module.Store.SetOperator("ops-1")
	expectStatus(t, serve(t, server, http.MethodDelete, path, "ops-1", nil), http.StatusNoContent)
	expectStatus(t, serve(t, server, http.MethodGet, path, "", nil), http.StatusNotFound)
}

func TestListPositions(t *testing.T) {
	server, _ := newTestServer()

	rr := serve(t, server, http.MethodGet, "/v1/positions?hierarchy_level=ward", "", nil)
	expectStatus(t, rr, http.StatusOK)
	positions := decode[leadershiphttp.ListPositionsResponse](t, rr)
	if len(positions.Items) != 1 || positions.Items[0].PositionID != "ward-chair" {
		t.Fatalf("unexpected positions %+v", positions)
	}
}
