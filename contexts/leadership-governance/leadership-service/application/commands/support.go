package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

const logModule = "leadership-governance/leadership-service"

func resolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}

func requireActor(actorID string) (string, error) {
	actor := strings.TrimSpace(actorID)
	if actor == "" {
		return "", domainerrors.ErrActorRequired
	}
	return actor, nil
}

func newID(ctx context.Context, gen ports.IDGenerator) (string, error) {
	if gen == nil {
		return "", errors.New("id generator is not configured")
	}
	return gen.NewID(ctx)
}

// outcomeOf buckets an error for metrics labels.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainerrors.ErrAlreadyVoted),
		errors.Is(err, domainerrors.ErrAlreadyFinalized),
		errors.Is(err, domainerrors.ErrPositionOccupied),
		errors.Is(err, domainerrors.ErrNotActive),
		errors.Is(err, domainerrors.ErrDuplicateNomination):
		return "conflict"
	case errors.Is(err, domainerrors.ErrElectionNotFound),
		errors.Is(err, domainerrors.ErrCandidateNotFound),
		errors.Is(err, domainerrors.ErrPositionNotFound),
		errors.Is(err, domainerrors.ErrAppointmentNotFound),
		errors.Is(err, domainerrors.ErrMemberNotFound),
		errors.Is(err, domainerrors.ErrCandidateNotInElection):
		return "not_found"
	case errors.Is(err, domainerrors.ErrForbidden),
		errors.Is(err, domainerrors.ErrActorRequired):
		return "denied"
	case isValidationError(err):
		return "rejected"
	default:
		return "error"
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		domainerrors.ErrInvalidElectionInput,
		domainerrors.ErrInvalidCandidateInput,
		domainerrors.ErrInvalidVoteInput,
		domainerrors.ErrInvalidAppointmentInput,
		domainerrors.ErrInvalidWindow,
		domainerrors.ErrInvalidTransition,
		domainerrors.ErrNominationWindowClosed,
		domainerrors.ErrInvalidReviewState,
		domainerrors.ErrVotingClosed,
		domainerrors.ErrInvalidCandidate,
		domainerrors.ErrMemberNotEligible,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func observe(metrics ports.Metrics, operation string, started time.Time, err error) {
	if metrics == nil {
		return
	}
	metrics.ObserveOperation(operation, outcomeOf(err), time.Since(started))
}

// recordAudit runs after the state change committed, so a sink failure is
// logged and never reported back to the caller.
func recordAudit(ctx context.Context, sink ports.AuditSink, logger *slog.Logger, entry ports.AuditEntry) {
	if sink == nil {
		return
	}
	if err := sink.Record(ctx, entry); err != nil {
		logger.Warn("leadership audit record failed",
			"event", "leadership_audit_record_failed",
			"module", logModule,
			"layer", "application",
			"action", entry.Action,
			"entity_id", entry.EntityID,
			"error", err.Error(),
		)
	}
}

// checkMember resolves a member and enforces eligibility.
func checkMember(ctx context.Context, members ports.MemberDirectory, memberID string) error {
	if members == nil {
		return nil
	}
	member, err := members.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if !member.Eligible() {
		return domainerrors.ErrMemberNotEligible
	}
	return nil
}
