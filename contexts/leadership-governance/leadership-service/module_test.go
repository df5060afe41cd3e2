package leadershipservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	leadershipservice "backoffice/contexts/leadership-governance/leadership-service"
	"backoffice/contexts/leadership-governance/leadership-service/application/commands"
	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
	httptransport "backoffice/contexts/leadership-governance/leadership-service/transport/http"
)

const (
	testAdmin    = "admin-1"
	testPosition = "ward-chair"
	testWard     = "ward-12"
)

var (
	termStart = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	testNow   = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
)

func newTestModule(t *testing.T) leadershipservice.Module {
	t.Helper()
	module := leadershipservice.NewInMemoryModule(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	module.Store.SetClock(func() time.Time { return testNow })
	module.Store.SetPosition(entities.Position{
		PositionID:     testPosition,
		Title:          "Ward Chairperson",
		HierarchyLevel: entities.HierarchyLevelWard,
	})
	return module
}

func seedMembers(module leadershipservice.Module, memberIDs ...string) {
	for _, id := range memberIDs {
		module.Store.SetMember(ports.MemberProjection{MemberID: id, DisplayName: id, Status: "active"})
	}
}

func createElection(t *testing.T, module leadershipservice.Module) httptransport.ElectionResponse {
	t.Helper()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	election, err := module.Handler.CreateElectionHandler(context.Background(), testAdmin, httptransport.CreateElectionRequest{
		Name:            "Ward 12 chair election",
		PositionID:      testPosition,
		HierarchyLevel:  "ward",
		EntityID:        testWard,
		ElectionDate:    base.Add(30 * 24 * time.Hour),
		NominationStart: base,
		NominationEnd:   base.Add(14 * 24 * time.Hour),
		VotingStart:     base.Add(15 * 24 * time.Hour),
		VotingEnd:       base.Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	return election
}

func advance(t *testing.T, module leadershipservice.Module, electionID string, statuses ...entities.ElectionStatus) {
	t.Helper()
	for _, status := range statuses {
		if _, err := module.Handler.TransitionElectionHandler(context.Background(), testAdmin, electionID, httptransport.TransitionElectionRequest{
			Status: string(status),
		}); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}
}

// readyElection returns an election in voting_open with one approved
// candidate per member.
func readyElection(t *testing.T, module leadershipservice.Module, memberIDs ...string) (string, map[string]string) {
	t.Helper()
	ctx := context.Background()
	election := createElection(t, module)
	advance(t, module, election.ElectionID, entities.ElectionStatusNominationsOpen)

	candidates := make(map[string]string, len(memberIDs))
	for _, memberID := range memberIDs {
		candidate, err := module.Handler.NominateCandidateHandler(ctx, memberID, election.ElectionID, httptransport.NominateCandidateRequest{
			MemberID:            memberID,
			NominationStatement: "I will serve the ward.",
		})
		if err != nil {
			t.Fatalf("nominate %s failed: %v", memberID, err)
		}
		candidates[memberID] = candidate.CandidateID
	}
	advance(t, module, election.ElectionID, entities.ElectionStatusNominationsClosed)
	for _, candidateID := range candidates {
		if _, err := module.Handler.ReviewCandidateHandler(ctx, testAdmin, candidateID, httptransport.ReviewCandidateRequest{
			Decision: string(entities.CandidateStatusApproved),
		}); err != nil {
			t.Fatalf("approve candidate failed: %v", err)
		}
	}
	advance(t, module, election.ElectionID, entities.ElectionStatusVotingOpen)
	return election.ElectionID, candidates
}

func castVotes(t *testing.T, module leadershipservice.Module, electionID string, candidateID string, prefix string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		voter := fmt.Sprintf("%s-%04d", prefix, i)
		seedMembers(module, voter)
		if _, err := module.Handler.CastVoteHandler(context.Background(), voter, electionID, httptransport.CastVoteRequest{
			CandidateID: candidateID,
		}); err != nil {
			t.Fatalf("vote by %s failed: %v", voter, err)
		}
	}
}

func TestElectionToAppointmentLifecycle(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice", "m-bob")

	electionID, candidates := readyElection(t, module, "m-alice", "m-bob")
	castVotes(t, module, electionID, candidates["m-alice"], "voter-a", 600)
	castVotes(t, module, electionID, candidates["m-bob"], "voter-b", 400)
	advance(t, module, electionID, entities.ElectionStatusVotingClosed)

	results, err := module.Handler.ElectionResultsHandler(ctx, electionID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 1000 || len(results.Items) != 2 {
		t.Fatalf("unexpected tally: %+v", results)
	}
	if results.Items[0].CandidateID != candidates["m-alice"] || results.Items[0].VoteCount != 600 {
		t.Fatalf("expected alice leading with 600, got %+v", results.Items[0])
	}
	if results.Items[1].VoteCount != 400 {
		t.Fatalf("expected bob with 400, got %+v", results.Items[1])
	}

	finalized, err := module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-alice"],
		StartDate:         termStart,
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !finalized.ElectionFinalized || !finalized.WinnerIsTallyLeader {
		t.Fatalf("unexpected finalize response: %+v", finalized)
	}
	if finalized.Appointment.AppointmentType != string(entities.AppointmentTypeElected) ||
		finalized.Appointment.Status != string(entities.AppointmentStatusActive) ||
		finalized.Appointment.ElectionID != electionID ||
		finalized.Appointment.MemberID != "m-alice" {
		t.Fatalf("unexpected elected appointment: %+v", finalized.Appointment)
	}

	election, err := module.Handler.GetElectionHandler(ctx, electionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if election.Status != string(entities.ElectionStatusCompleted) || !election.Finalized {
		t.Fatalf("expected completed and finalized election, got %s finalized=%v", election.Status, election.Finalized)
	}

	holder, err := module.Handler.PositionHolderHandler(ctx, testPosition, "ward", testWard)
	if err != nil {
		t.Fatalf("position holder failed: %v", err)
	}
	if !holder.Occupied || holder.Appointment == nil || holder.Appointment.MemberID != "m-alice" {
		t.Fatalf("expected alice to hold the seat, got %+v", holder)
	}

	_, err = module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-alice"],
		StartDate:         termStart,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized on second finalize, got %v", err)
	}
}

func TestFinalizeSupersedesIncumbent(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-incumbent", "m-alice")

	incumbent, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, httptransport.CreateAppointmentRequest{
		PositionID:      testPosition,
		MemberID:        "m-incumbent",
		HierarchyLevel:  "ward",
		EntityID:        testWard,
		AppointmentType: string(entities.AppointmentTypeInterim),
		StartDate:       termStart.AddDate(-1, 0, 0),
	})
	if err != nil {
		t.Fatalf("create incumbent appointment failed: %v", err)
	}

	electionID, candidates := readyElection(t, module, "m-alice")
	castVotes(t, module, electionID, candidates["m-alice"], "voter", 3)
	advance(t, module, electionID, entities.ElectionStatusVotingClosed)

	finalized, err := module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-alice"],
		StartDate:         termStart,
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if finalized.SupersededAppointmentID != incumbent.AppointmentID {
		t.Fatalf("expected superseded %s, got %s", incumbent.AppointmentID, finalized.SupersededAppointmentID)
	}

	previous, err := module.Handler.GetAppointmentHandler(ctx, incumbent.AppointmentID)
	if err != nil {
		t.Fatalf("get superseded appointment failed: %v", err)
	}
	if previous.Status != string(entities.AppointmentStatusTerminated) {
		t.Fatalf("expected superseded appointment terminated, got %s", previous.Status)
	}
	if previous.TerminationReason != commands.SuccessionReason {
		t.Fatalf("unexpected termination reason %q", previous.TerminationReason)
	}
	if previous.EndDate == nil || !previous.EndDate.Equal(termStart) {
		t.Fatalf("expected superseded end date %s, got %v", termStart, previous.EndDate)
	}

	active, err := module.Handler.ListAppointmentsHandler(ctx, httptransport.ListAppointmentsRequest{
		PositionID:     testPosition,
		HierarchyLevel: "ward",
		EntityID:       testWard,
		Status:         string(entities.AppointmentStatusActive),
	})
	if err != nil {
		t.Fatalf("list active appointments failed: %v", err)
	}
	if len(active.Items) != 1 || active.Items[0].AppointmentID != finalized.AppointmentID {
		t.Fatalf("expected exactly the elected appointment active, got %+v", active.Items)
	}

	history, err := module.Handler.PositionHistoryHandler(ctx, testPosition, "ward", testWard, 10)
	if err != nil {
		t.Fatalf("position history failed: %v", err)
	}
	if len(history.Items) != 2 || history.Items[0].AppointmentID != finalized.AppointmentID {
		t.Fatalf("expected newest-first history of two terms, got %+v", history.Items)
	}
}

func TestFinalizeFailureLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-incumbent", "m-alice")

	incumbent, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, httptransport.CreateAppointmentRequest{
		PositionID:      testPosition,
		MemberID:        "m-incumbent",
		HierarchyLevel:  "ward",
		EntityID:        testWard,
		AppointmentType: string(entities.AppointmentTypeActing),
		StartDate:       termStart.AddDate(0, -6, 0),
	})
	if err != nil {
		t.Fatalf("create incumbent appointment failed: %v", err)
	}
	electionID, candidates := readyElection(t, module, "m-alice")
	advance(t, module, electionID, entities.ElectionStatusVotingClosed)
	outboxBefore := len(module.Store.Outbox())

	module.Store.FailNextFinalization(errors.New("storage unavailable"))
	_, err = module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-alice"],
		StartDate:         termStart,
	})
	if err == nil {
		t.Fatalf("expected injected finalize failure")
	}

	election, err := module.Handler.GetElectionHandler(ctx, electionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if election.Finalized || election.Status != string(entities.ElectionStatusVotingClosed) {
		t.Fatalf("election changed after failed finalize: %+v", election)
	}
	previous, err := module.Handler.GetAppointmentHandler(ctx, incumbent.AppointmentID)
	if err != nil {
		t.Fatalf("get incumbent failed: %v", err)
	}
	if previous.Status != string(entities.AppointmentStatusActive) {
		t.Fatalf("incumbent closed after failed finalize: %s", previous.Status)
	}
	if got := len(module.Store.Outbox()); got != outboxBefore {
		t.Fatalf("expected no outbox rows from failed finalize, got %d new", got-outboxBefore)
	}

	retry, err := module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-alice"],
		StartDate:         termStart,
	})
	if err != nil {
		t.Fatalf("retry finalize failed: %v", err)
	}
	if retry.SupersededAppointmentID != incumbent.AppointmentID {
		t.Fatalf("retry did not supersede incumbent: %+v", retry)
	}
}

func TestFinalizeOverrideOfTallyLeader(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice", "m-bob")

	electionID, candidates := readyElection(t, module, "m-alice", "m-bob")
	castVotes(t, module, electionID, candidates["m-alice"], "voter-a", 5)
	castVotes(t, module, electionID, candidates["m-bob"], "voter-b", 2)
	advance(t, module, electionID, entities.ElectionStatusVotingClosed)

	finalized, err := module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-bob"],
		StartDate:         termStart,
	})
	if err != nil {
		t.Fatalf("finalize with trailing winner failed: %v", err)
	}
	if finalized.WinnerIsTallyLeader {
		t.Fatalf("expected winner_is_tally_leader=false")
	}
	if finalized.Appointment.MemberID != "m-bob" {
		t.Fatalf("expected explicit winner to be appointed, got %s", finalized.Appointment.MemberID)
	}
}

func TestFinalizeRejectsWrongElectionState(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice")

	electionID, candidates := readyElection(t, module, "m-alice")
	_, err := module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-alice"],
		StartDate:         termStart,
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition while voting open, got %v", err)
	}

	otherID, otherCandidates := readyElection(t, module, "m-alice")
	advance(t, module, otherID, entities.ElectionStatusVotingClosed)
	advance(t, module, electionID, entities.ElectionStatusVotingClosed)
	_, err = module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: otherCandidates["m-alice"],
		StartDate:         termStart,
	})
	if !errors.Is(err, domainerrors.ErrCandidateNotInElection) {
		t.Fatalf("expected ErrCandidateNotInElection, got %v", err)
	}

	end := termStart.Add(-time.Hour)
	_, err = module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
		WinnerCandidateID: candidates["m-alice"],
		StartDate:         termStart,
		EndDate:           &end,
	})
	if !errors.Is(err, domainerrors.ErrInvalidAppointmentInput) {
		t.Fatalf("expected ErrInvalidAppointmentInput for inverted term, got %v", err)
	}
}

func TestConcurrentFinalizeCreatesOneAppointment(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice")

	electionID, candidates := readyElection(t, module, "m-alice")
	advance(t, module, electionID, entities.ElectionStatusVotingClosed)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
				WinnerCandidateID: candidates["m-alice"],
				StartDate:         termStart,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domainerrors.ErrAlreadyFinalized):
				conflicts++
			default:
				t.Errorf("unexpected finalize error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", workers-1, successes, conflicts)
	}
	appointments, err := module.Handler.ListAppointmentsHandler(ctx, httptransport.ListAppointmentsRequest{
		PositionID: testPosition,
		EntityID:   testWard,
	})
	if err != nil {
		t.Fatalf("list appointments failed: %v", err)
	}
	if len(appointments.Items) != 1 {
		t.Fatalf("expected one appointment, got %d", len(appointments.Items))
	}
}

func TestConcurrentVotesBySameMember(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice", "m-bob", "voter-1")

	electionID, candidates := readyElection(t, module, "m-alice", "m-bob")

	const attempts = 24
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		duplicate int
	)
	for i := 0; i < attempts; i++ {
		candidateID := candidates["m-alice"]
		if i%2 == 1 {
			candidateID = candidates["m-bob"]
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Handler.CastVoteHandler(ctx, "voter-1", electionID, httptransport.CastVoteRequest{CandidateID: candidateID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domainerrors.ErrAlreadyVoted):
				duplicate++
			default:
				t.Errorf("unexpected vote error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || duplicate != attempts-1 {
		t.Fatalf("expected one vote and %d duplicates, got %d and %d", attempts-1, successes, duplicate)
	}
	results, err := module.Handler.ElectionResultsHandler(ctx, electionID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 1 {
		t.Fatalf("expected a single counted vote, got %d", results.TotalVotes)
	}
}

func TestVoteRejections(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice", "m-bob", "voter-1")
	module.Store.SetMember(ports.MemberProjection{MemberID: "voter-suspended", Status: "suspended"})

	election := createElection(t, module)
	advance(t, module, election.ElectionID, entities.ElectionStatusNominationsOpen)
	pending, err := module.Handler.NominateCandidateHandler(ctx, "m-bob", election.ElectionID, httptransport.NominateCandidateRequest{MemberID: "m-bob"})
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}

	_, err = module.Handler.CastVoteHandler(ctx, "voter-1", election.ElectionID, httptransport.CastVoteRequest{CandidateID: pending.CandidateID})
	if !errors.Is(err, domainerrors.ErrVotingClosed) {
		t.Fatalf("expected ErrVotingClosed before voting opens, got %v", err)
	}

	advance(t, module, election.ElectionID, entities.ElectionStatusNominationsClosed, entities.ElectionStatusVotingOpen)
	_, err = module.Handler.CastVoteHandler(ctx, "voter-1", election.ElectionID, httptransport.CastVoteRequest{CandidateID: pending.CandidateID})
	if !errors.Is(err, domainerrors.ErrInvalidCandidate) {
		t.Fatalf("expected ErrInvalidCandidate for unapproved candidate, got %v", err)
	}

	otherID, otherCandidates := readyElection(t, module, "m-alice")
	_, err = module.Handler.CastVoteHandler(ctx, "voter-1", election.ElectionID, httptransport.CastVoteRequest{CandidateID: otherCandidates["m-alice"]})
	if !errors.Is(err, domainerrors.ErrInvalidCandidate) {
		t.Fatalf("expected ErrInvalidCandidate for foreign candidate, got %v", err)
	}

	_, err = module.Handler.CastVoteHandler(ctx, "voter-suspended", otherID, httptransport.CastVoteRequest{CandidateID: otherCandidates["m-alice"]})
	if !errors.Is(err, domainerrors.ErrMemberNotEligible) {
		t.Fatalf("expected ErrMemberNotEligible, got %v", err)
	}

	_, err = module.Handler.CastVoteHandler(ctx, "", otherID, httptransport.CastVoteRequest{CandidateID: otherCandidates["m-alice"]})
	if !errors.Is(err, domainerrors.ErrActorRequired) {
		t.Fatalf("expected ErrActorRequired, got %v", err)
	}
}

func TestVoteChoiceStaysOutOfEventsAndAudit(t *testing.T) {
	module := newTestModule(t)
	seedMembers(module, "m-alice")

	electionID, candidates := readyElection(t, module, "m-alice")
	castVotes(t, module, electionID, candidates["m-alice"], "voter", 1)

	found := false
	for _, event := range module.Store.Outbox() {
		if event.EventType != "vote.cast" {
			continue
		}
		found = true
		if strings.Contains(string(event.Data), candidates["m-alice"]) {
			t.Fatalf("vote.cast event leaks candidate: %s", event.Data)
		}
		var payload map[string]any
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			t.Fatalf("decode vote.cast payload failed: %v", err)
		}
		if _, ok := payload["candidate_id"]; ok {
			t.Fatalf("vote.cast payload carries candidate_id")
		}
	}
	if !found {
		t.Fatalf("expected a vote.cast outbox event")
	}

	for _, entry := range module.Audit.Entries() {
		if entry.Action != "vote.cast" {
			continue
		}
		for key, value := range entry.Details {
			if key == "candidate_id" || fmt.Sprint(value) == candidates["m-alice"] {
				t.Fatalf("vote audit entry leaks candidate: %+v", entry.Details)
			}
		}
	}
}

func TestNominationRules(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice")

	election := createElection(t, module)
	_, err := module.Handler.NominateCandidateHandler(ctx, "m-alice", election.ElectionID, httptransport.NominateCandidateRequest{MemberID: "m-alice"})
	if !errors.Is(err, domainerrors.ErrNominationWindowClosed) {
		t.Fatalf("expected ErrNominationWindowClosed while planned, got %v", err)
	}

	advance(t, module, election.ElectionID, entities.ElectionStatusNominationsOpen)
	first, err := module.Handler.NominateCandidateHandler(ctx, "m-alice", election.ElectionID, httptransport.NominateCandidateRequest{MemberID: "m-alice"})
	if err != nil {
		t.Fatalf("nominate failed: %v", err)
	}
	if first.Status != string(entities.CandidateStatusNominated) {
		t.Fatalf("expected nominated status, got %s", first.Status)
	}
	_, err = module.Handler.NominateCandidateHandler(ctx, "m-alice", election.ElectionID, httptransport.NominateCandidateRequest{MemberID: "m-alice"})
	if !errors.Is(err, domainerrors.ErrDuplicateNomination) {
		t.Fatalf("expected ErrDuplicateNomination, got %v", err)
	}

	if _, err := module.Handler.WithdrawCandidateHandler(ctx, "m-alice", first.CandidateID); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if _, err := module.Handler.WithdrawCandidateHandler(ctx, "m-alice", first.CandidateID); !errors.Is(err, domainerrors.ErrInvalidReviewState) {
		t.Fatalf("expected ErrInvalidReviewState on repeated withdraw, got %v", err)
	}
	second, err := module.Handler.NominateCandidateHandler(ctx, "m-alice", election.ElectionID, httptransport.NominateCandidateRequest{MemberID: "m-alice"})
	if err != nil {
		t.Fatalf("renomination after withdrawal failed: %v", err)
	}
	if second.CandidateID == first.CandidateID {
		t.Fatalf("expected a new candidacy after withdrawal")
	}

	_, err = module.Handler.NominateCandidateHandler(ctx, "m-ghost", election.ElectionID, httptransport.NominateCandidateRequest{MemberID: "m-ghost"})
	if !errors.Is(err, domainerrors.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}

	listed, err := module.Handler.ListCandidatesHandler(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("list candidates failed: %v", err)
	}
	if len(listed.Items) != 2 {
		t.Fatalf("withdrawn candidacies must stay listed, got %d", len(listed.Items))
	}
}

func TestElectionCreationAndTransitions(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)

	election := createElection(t, module)
	if election.Status != string(entities.ElectionStatusPlanned) || election.Finalized {
		t.Fatalf("unexpected new election: %+v", election)
	}

	_, err := module.Handler.TransitionElectionHandler(ctx, testAdmin, election.ElectionID, httptransport.TransitionElectionRequest{
		Status: string(entities.ElectionStatusVotingOpen),
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for skipped stage, got %v", err)
	}

	advance(t, module, election.ElectionID, entities.ElectionStatusCancelled)
	_, err = module.Handler.TransitionElectionHandler(ctx, testAdmin, election.ElectionID, httptransport.TransitionElectionRequest{
		Status: string(entities.ElectionStatusNominationsOpen),
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of cancelled, got %v", err)
	}

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = module.Handler.CreateElectionHandler(ctx, testAdmin, httptransport.CreateElectionRequest{
		Name:            "Overlapping",
		PositionID:      testPosition,
		HierarchyLevel:  "ward",
		EntityID:        testWard,
		ElectionDate:    base,
		NominationStart: base,
		NominationEnd:   base.Add(48 * time.Hour),
		VotingStart:     base.Add(24 * time.Hour),
		VotingEnd:       base.Add(72 * time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}

	_, err = module.Handler.CreateElectionHandler(ctx, testAdmin, httptransport.CreateElectionRequest{
		Name:            "Unknown seat",
		PositionID:      "treasurer",
		HierarchyLevel:  "ward",
		EntityID:        testWard,
		ElectionDate:    base,
		NominationStart: base,
		NominationEnd:   base.Add(24 * time.Hour),
		VotingStart:     base.Add(48 * time.Hour),
		VotingEnd:       base.Add(72 * time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound, got %v", err)
	}

	listed, err := module.Handler.ListElectionsHandler(ctx, httptransport.ListElectionsRequest{
		Status: string(entities.ElectionStatusCancelled),
	})
	if err != nil {
		t.Fatalf("list elections failed: %v", err)
	}
	if len(listed.Items) != 1 || listed.Items[0].ElectionID != election.ElectionID {
		t.Fatalf("expected the cancelled election, got %+v", listed.Items)
	}
}

func TestManualAppointmentLifecycle(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice", "m-bob")
	module.Store.SetOperator("ops-1")

	request := httptransport.CreateAppointmentRequest{
		PositionID:      testPosition,
		MemberID:        "m-alice",
		HierarchyLevel:  "ward",
		EntityID:        testWard,
		AppointmentType: string(entities.AppointmentTypeAppointed),
		StartDate:       termStart,
	}
	first, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, request)
	if err != nil {
		t.Fatalf("create appointment failed: %v", err)
	}

	second := request
	second.MemberID = "m-bob"
	if _, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, second); !errors.Is(err, domainerrors.ErrPositionOccupied) {
		t.Fatalf("expected ErrPositionOccupied, got %v", err)
	}

	elected := second
	elected.AppointmentType = string(entities.AppointmentTypeElected)
	if _, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, elected); !errors.Is(err, domainerrors.ErrInvalidAppointmentInput) {
		t.Fatalf("expected ErrInvalidAppointmentInput for manual elected type, got %v", err)
	}

	terminated, err := module.Handler.TerminateAppointmentHandler(ctx, testAdmin, first.AppointmentID, httptransport.TerminateAppointmentRequest{
		Reason: "Resigned",
	})
	if err != nil {
		t.Fatalf("terminate failed: %v", err)
	}
	if terminated.Status != string(entities.AppointmentStatusTerminated) || terminated.EndDate == nil || terminated.TerminationReason != "Resigned" {
		t.Fatalf("unexpected terminated appointment: %+v", terminated)
	}
	if _, err := module.Handler.TerminateAppointmentHandler(ctx, testAdmin, first.AppointmentID, httptransport.TerminateAppointmentRequest{Reason: "again"}); !errors.Is(err, domainerrors.ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}

	replacement, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, second)
	if err != nil {
		t.Fatalf("create replacement failed: %v", err)
	}
	removed, err := module.Handler.RemoveAppointmentHandler(ctx, testAdmin, replacement.AppointmentID, httptransport.RemoveAppointmentRequest{
		Reason: "Misconduct",
	})
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if removed.Status != string(entities.AppointmentStatusRemoved) {
		t.Fatalf("expected removed status, got %s", removed.Status)
	}

	holder, err := module.Handler.PositionHolderHandler(ctx, testPosition, "ward", testWard)
	if err != nil {
		t.Fatalf("position holder failed: %v", err)
	}
	if holder.Occupied {
		t.Fatalf("expected vacant seat after removal")
	}

	if err := module.Handler.DeleteAppointmentHandler(ctx, testAdmin, first.AppointmentID); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-operator delete, got %v", err)
	}
	if err := module.Handler.DeleteAppointmentHandler(ctx, "ops-1", first.AppointmentID); err != nil {
		t.Fatalf("operator delete failed: %v", err)
	}
	if _, err := module.Handler.GetAppointmentHandler(ctx, first.AppointmentID); !errors.Is(err, domainerrors.ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound after delete, got %v", err)
	}
}

func TestForwardDatedAppointmentCanBeClosed(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice", "m-bob", "m-carol")

	interimStart := testNow.AddDate(0, 0, 30)
	request := httptransport.CreateAppointmentRequest{
		PositionID:      testPosition,
		MemberID:        "m-alice",
		HierarchyLevel:  "ward",
		EntityID:        testWard,
		AppointmentType: string(entities.AppointmentTypeInterim),
		StartDate:       interimStart,
	}
	interim, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, request)
	if err != nil {
		t.Fatalf("create interim appointment failed: %v", err)
	}
	removed, err := module.Handler.RemoveAppointmentHandler(ctx, testAdmin, interim.AppointmentID, httptransport.RemoveAppointmentRequest{
		Reason: "Misconduct",
	})
	if err != nil {
		t.Fatalf("remove forward-dated appointment failed: %v", err)
	}
	if removed.Status != string(entities.AppointmentStatusRemoved) || removed.EndDate == nil || !removed.EndDate.Equal(interimStart) {
		t.Fatalf("unexpected removed appointment: %+v", removed)
	}

	request.MemberID = "m-bob"
	next, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, request)
	if err != nil {
		t.Fatalf("seat stayed locked after removal: %v", err)
	}
	terminated, err := module.Handler.TerminateAppointmentHandler(ctx, testAdmin, next.AppointmentID, httptransport.TerminateAppointmentRequest{
		Reason: "Resigned",
	})
	if err != nil {
		t.Fatalf("terminate forward-dated appointment failed: %v", err)
	}
	if terminated.EndDate == nil || !terminated.EndDate.Equal(interimStart) {
		t.Fatalf("expected end date clamped to start, got %+v", terminated.EndDate)
	}

	request.MemberID = "m-carol"
	last, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, request)
	if err != nil {
		t.Fatalf("create after terminate failed: %v", err)
	}
	tooEarly := interimStart.Add(-time.Hour)
	if _, err := module.Handler.TerminateAppointmentHandler(ctx, testAdmin, last.AppointmentID, httptransport.TerminateAppointmentRequest{
		Reason:  "Resigned",
		EndDate: &tooEarly,
	}); !errors.Is(err, domainerrors.ErrInvalidAppointmentInput) {
		t.Fatalf("expected ErrInvalidAppointmentInput for explicit end before start, got %v", err)
	}
}

func TestConcurrentCreateAndFinalizeKeepOneActiveHolder(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	seedMembers(module, "m-alice")

	electionID, candidates := readyElection(t, module, "m-alice")
	advance(t, module, electionID, entities.ElectionStatusVotingClosed)

	const creators = 12
	var (
		wg          sync.WaitGroup
		finalizeErr error
	)
	start := make(chan struct{})
	for i := 0; i < creators; i++ {
		memberID := fmt.Sprintf("m-rival-%02d", i)
		seedMembers(module, memberID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := module.Handler.CreateAppointmentHandler(ctx, testAdmin, httptransport.CreateAppointmentRequest{
				PositionID:      testPosition,
				MemberID:        memberID,
				HierarchyLevel:  "ward",
				EntityID:        testWard,
				AppointmentType: string(entities.AppointmentTypeAppointed),
				StartDate:       termStart,
			})
			if err != nil && !errors.Is(err, domainerrors.ErrPositionOccupied) {
				t.Errorf("unexpected create error for %s: %v", memberID, err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		_, finalizeErr = module.Handler.FinalizeElectionHandler(ctx, testAdmin, electionID, httptransport.FinalizeElectionRequest{
			WinnerCandidateID: candidates["m-alice"],
			StartDate:         termStart,
		})
	}()
	close(start)
	wg.Wait()

	if finalizeErr != nil {
		t.Fatalf("finalize failed: %v", finalizeErr)
	}
	active, err := module.Handler.ListAppointmentsHandler(ctx, httptransport.ListAppointmentsRequest{
		PositionID: testPosition,
		EntityID:   testWard,
		Status:     string(entities.AppointmentStatusActive),
	})
	if err != nil {
		t.Fatalf("list active appointments failed: %v", err)
	}
	if len(active.Items) != 1 {
		t.Fatalf("expected exactly one active appointment, got %d", len(active.Items))
	}
	if active.Items[0].MemberID != "m-alice" {
		t.Fatalf("expected the elected member to hold the seat, got %s", active.Items[0].MemberID)
	}
}

func TestOutboxRelayPublishesInOrder(t *testing.T) {
	ctx := context.Background()
	module := newTestModule(t)
	publisher := &recordingPublisher{}
	module.OutboxRelay.Publisher = publisher

	election := createElection(t, module)
	advance(t, module, election.ElectionID, entities.ElectionStatusNominationsOpen)

	published, err := module.OutboxRelay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if published != 2 {
		t.Fatalf("expected 2 published events, got %d", published)
	}
	if publisher.topics[0] != "election.created" || publisher.topics[1] != "election.status_changed" {
		t.Fatalf("unexpected topics: %v", publisher.topics)
	}

	again, err := module.OutboxRelay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second relay failed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected nothing left to publish, got %d", again)
	}
}

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	return nil
}
