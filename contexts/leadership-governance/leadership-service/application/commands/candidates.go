package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "backoffice/contexts/leadership-governance/leadership-service/application"
	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/domain/services"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

const maxNominationStatementLength = 5000

// NominateCommand is the write-model input for putting a member forward in an
// election.
type NominateCommand struct {
	ElectionID string
	MemberID   string
	Statement  string
	ActorID    string
}

// ReviewCandidateCommand carries an approve or reject decision.
type ReviewCandidateCommand struct {
	CandidateID string
	Decision    entities.CandidateStatus
	ActorID     string
}

// WithdrawCandidateCommand is the write-model input for leaving a race.
type WithdrawCandidateCommand struct {
	CandidateID string
	ActorID     string
}

// CandidateUseCase manages nominations, reviews and withdrawals.
type CandidateUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Members    ports.MemberDirectory
	Audit      ports.AuditSink
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Nominate registers a member for an election while nominations are open.
func (uc CandidateUseCase) Nominate(ctx context.Context, cmd NominateCommand) (candidate entities.Candidate, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "nominate_candidate", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	memberID := strings.TrimSpace(cmd.MemberID)
	logger.Info("candidate nomination started",
		"event", "leadership_candidate_nominate_started",
		"module", logModule,
		"layer", "application",
		"election_id", electionID,
		"member_id", memberID,
	)

	actorID, err := requireActor(cmd.ActorID)
	if err != nil {
		return entities.Candidate{}, err
	}
	statement := strings.TrimSpace(cmd.Statement)
	if electionID == "" || memberID == "" || len(statement) > maxNominationStatementLength {
		logger.Warn("candidate nomination validation failed",
			"event", "leadership_candidate_nominate_validation_failed",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"member_id", memberID,
		)
		return entities.Candidate{}, domainerrors.ErrInvalidCandidateInput
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if !election.AcceptsNominations() {
		logger.Warn("candidate nomination outside window",
			"event", "leadership_candidate_nominate_window_closed",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"election_status", string(election.Status),
		)
		return entities.Candidate{}, domainerrors.ErrNominationWindowClosed
	}
	if err := checkMember(ctx, uc.Members, memberID); err != nil {
		logger.Warn("candidate nomination member check failed",
			"event", "leadership_candidate_nominate_member_rejected",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"member_id", memberID,
			"error", err.Error(),
		)
		return entities.Candidate{}, err
	}

	candidateID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Candidate{}, err
	}
	eventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Candidate{}, err
	}
	now := resolveNow(uc.Clock)
	candidate = entities.Candidate{
		CandidateID:         candidateID,
		ElectionID:          electionID,
		MemberID:            memberID,
		NominationStatement: statement,
		Status:              entities.CandidateStatusNominated,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	event, err := newLeadershipEnvelope(eventID, "candidate.nominated", "election_id", electionID, actorID, now, map[string]any{
		"candidate_id": candidate.CandidateID,
		"election_id":  electionID,
		"member_id":    memberID,
	})
	if err != nil {
		return entities.Candidate{}, err
	}
	if err := uc.Candidates.NominateCandidate(ctx, candidate, event); err != nil {
		logger.Warn("candidate nomination persist failed",
			"event", "leadership_candidate_nominate_persist_failed",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"member_id", memberID,
			"error", err.Error(),
		)
		return entities.Candidate{}, err
	}

	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     "candidate.nominated",
		ActorID:    actorID,
		EntityType: "candidate",
		EntityID:   candidate.CandidateID,
		Details: map[string]any{
			"election_id": electionID,
			"member_id":   memberID,
		},
		OccurredAt: now,
	})
	logger.Info("candidate nominated",
		"event", "leadership_candidate_nominated",
		"module", logModule,
		"layer", "application",
		"candidate_id", candidate.CandidateID,
		"election_id", electionID,
		"member_id", memberID,
	)
	return candidate, nil
}

// Review approves or rejects a candidate. Decisions are frozen once voting
// opens because approval is what the vote ledger checks.
func (uc CandidateUseCase) Review(ctx context.Context, cmd ReviewCandidateCommand) (candidate entities.Candidate, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "review_candidate", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	logger.Info("candidate review started",
		"event", "leadership_candidate_review_started",
		"module", logModule,
		"layer", "application",
		"candidate_id", candidateID,
		"decision", string(cmd.Decision),
	)

	actorID, err := requireActor(cmd.ActorID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if candidateID == "" {
		return entities.Candidate{}, domainerrors.ErrInvalidCandidateInput
	}
	current, election, err := uc.loadCandidate(ctx, candidateID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if err := services.EvaluateReview(election.Status, current.Status, cmd.Decision); err != nil {
		logger.Warn("candidate review rejected",
			"event", "leadership_candidate_review_rejected",
			"module", logModule,
			"layer", "application",
			"candidate_id", candidateID,
			"candidate_status", string(current.Status),
			"election_status", string(election.Status),
			"decision", string(cmd.Decision),
		)
		return entities.Candidate{}, err
	}

	candidate, err = uc.changeStatus(ctx, current, cmd.Decision, actorID, services.ReviewableElectionStatuses(), "candidate.reviewed")
	if err != nil {
		return entities.Candidate{}, err
	}
	logger.Info("candidate reviewed",
		"event", "leadership_candidate_reviewed",
		"module", logModule,
		"layer", "application",
		"candidate_id", candidateID,
		"election_id", candidate.ElectionID,
		"decision", string(candidate.Status),
		"actor_id", actorID,
	)
	return candidate, nil
}

// Withdraw retires a candidacy before voting closes. The row stays for audit.
func (uc CandidateUseCase) Withdraw(ctx context.Context, cmd WithdrawCandidateCommand) (candidate entities.Candidate, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "withdraw_candidate", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	logger.Info("candidate withdrawal started",
		"event", "leadership_candidate_withdraw_started",
		"module", logModule,
		"layer", "application",
		"candidate_id", candidateID,
	)

	actorID, err := requireActor(cmd.ActorID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if candidateID == "" {
		return entities.Candidate{}, domainerrors.ErrInvalidCandidateInput
	}
	current, election, err := uc.loadCandidate(ctx, candidateID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if err := services.EvaluateWithdrawal(election.Status, current.Status); err != nil {
		logger.Warn("candidate withdrawal rejected",
			"event", "leadership_candidate_withdraw_rejected",
			"module", logModule,
			"layer", "application",
			"candidate_id", candidateID,
			"candidate_status", string(current.Status),
			"election_status", string(election.Status),
		)
		return entities.Candidate{}, err
	}

	candidate, err = uc.changeStatus(ctx, current, entities.CandidateStatusWithdrawn, actorID, services.WithdrawableElectionStatuses(), "candidate.withdrawn")
	if err != nil {
		return entities.Candidate{}, err
	}
	logger.Info("candidate withdrawn",
		"event", "leadership_candidate_withdrawn",
		"module", logModule,
		"layer", "application",
		"candidate_id", candidateID,
		"election_id", candidate.ElectionID,
		"actor_id", actorID,
	)
	return candidate, nil
}

func (uc CandidateUseCase) loadCandidate(ctx context.Context, candidateID string) (entities.Candidate, entities.Election, error) {
	candidate, err := uc.Candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return entities.Candidate{}, entities.Election{}, err
	}
	election, err := uc.Elections.GetElection(ctx, candidate.ElectionID)
	if err != nil {
		return entities.Candidate{}, entities.Election{}, err
	}
	return candidate, election, nil
}

func (uc CandidateUseCase) changeStatus(
	ctx context.Context,
	current entities.Candidate,
	to entities.CandidateStatus,
	actorID string,
	electionStatuses []entities.ElectionStatus,
	eventType string,
) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)
	eventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Candidate{}, err
	}
	now := resolveNow(uc.Clock)
	event, err := newLeadershipEnvelope(eventID, eventType, "election_id", current.ElectionID, actorID, now, map[string]any{
		"candidate_id": current.CandidateID,
		"election_id":  current.ElectionID,
		"member_id":    current.MemberID,
		"from_status":  string(current.Status),
		"to_status":    string(to),
	})
	if err != nil {
		return entities.Candidate{}, err
	}
	updated, err := uc.Candidates.ChangeCandidateStatus(ctx, ports.CandidateStatusChange{
		CandidateID:      current.CandidateID,
		From:             current.Status,
		To:               to,
		ReviewedBy:       actorID,
		ElectionStatuses: electionStatuses,
		ChangedAt:        now,
	}, event)
	if err != nil {
		logger.Warn("candidate status change persist failed",
			"event", "leadership_candidate_status_persist_failed",
			"module", logModule,
			"layer", "application",
			"candidate_id", current.CandidateID,
			"to_status", string(to),
			"error", err.Error(),
		)
		return entities.Candidate{}, err
	}
	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     eventType,
		ActorID:    actorID,
		EntityType: "candidate",
		EntityID:   current.CandidateID,
		Details: map[string]any{
			"election_id": current.ElectionID,
			"from_status": string(current.Status),
			"to_status":   string(to),
		},
		OccurredAt: now,
	})
	return updated, nil
}
