package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "backoffice/contexts/leadership-governance/leadership-service/application"
	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

// CastVoteCommand is the write-model input for one member ballot.
type CastVoteCommand struct {
	ElectionID    string
	VoterMemberID string
	CandidateID   string
}

// VoteUseCase records ballots. The chosen candidate is persisted for
// tallying only; logs, audit entries and events carry just the fact that the
// member voted.
type VoteUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Votes      ports.VoteRepository
	Members    ports.MemberDirectory
	Audit      ports.AuditSink
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// CastVote checks election and candidate state up front for clear errors.
// The repository repeats both checks and the uniqueness guarantee inside one
// transaction, so concurrent submissions by the same voter yield exactly one
// success.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (vote entities.Vote, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "cast_vote", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	voterID := strings.TrimSpace(cmd.VoterMemberID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	logger.Info("vote cast processing started",
		"event", "leadership_vote_cast_started",
		"module", logModule,
		"layer", "application",
		"election_id", electionID,
		"voter_member_id", voterID,
	)

	if voterID == "" {
		return entities.Vote{}, domainerrors.ErrActorRequired
	}
	if electionID == "" || candidateID == "" {
		logger.Warn("vote cast validation failed",
			"event", "leadership_vote_cast_validation_failed",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"voter_member_id", voterID,
		)
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !election.AcceptsVotes() {
		logger.Warn("vote cast while voting closed",
			"event", "leadership_vote_cast_voting_closed",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"election_status", string(election.Status),
		)
		return entities.Vote{}, domainerrors.ErrVotingClosed
	}
	if err := uc.checkCandidate(ctx, electionID, candidateID); err != nil {
		logger.Warn("vote cast candidate rejected",
			"event", "leadership_vote_cast_candidate_rejected",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"voter_member_id", voterID,
		)
		return entities.Vote{}, err
	}
	if err := checkMember(ctx, uc.Members, voterID); err != nil {
		logger.Warn("vote cast voter rejected",
			"event", "leadership_vote_cast_voter_rejected",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"voter_member_id", voterID,
			"error", err.Error(),
		)
		return entities.Vote{}, err
	}

	voteID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Vote{}, err
	}
	eventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Vote{}, err
	}
	now := resolveNow(uc.Clock)
	vote = entities.Vote{
		VoteID:        voteID,
		ElectionID:    electionID,
		VoterMemberID: voterID,
		CandidateID:   candidateID,
		CastAt:        now,
	}
	event, err := newLeadershipEnvelope(eventID, "vote.cast", "election_id", electionID, voterID, now, map[string]any{
		"election_id":     electionID,
		"voter_member_id": voterID,
		"cast_at":         now,
	})
	if err != nil {
		return entities.Vote{}, err
	}
	if err := uc.Votes.CastVote(ctx, vote, event); err != nil {
		logger.Warn("vote cast persist failed",
			"event", "leadership_vote_cast_persist_failed",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"voter_member_id", voterID,
			"error", err.Error(),
		)
		return entities.Vote{}, err
	}

	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     "vote.cast",
		ActorID:    voterID,
		EntityType: "election",
		EntityID:   electionID,
		Details: map[string]any{
			"voter_member_id": voterID,
		},
		OccurredAt: now,
	})
	logger.Info("vote cast",
		"event", "leadership_vote_cast",
		"module", logModule,
		"layer", "application",
		"election_id", electionID,
		"voter_member_id", voterID,
	)
	return vote, nil
}

func (uc VoteUseCase) checkCandidate(ctx context.Context, electionID string, candidateID string) error {
	if uc.Candidates == nil {
		return nil
	}
	candidate, err := uc.Candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrCandidateNotFound) {
			return domainerrors.ErrInvalidCandidate
		}
		return err
	}
	if candidate.ElectionID != electionID || !candidate.Electable() {
		return domainerrors.ErrInvalidCandidate
	}
	return nil
}
