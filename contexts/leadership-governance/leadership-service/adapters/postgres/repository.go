package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/domain/services"
	"backoffice/contexts/leadership-governance/leadership-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository persists the leadership lifecycle through gorm. Every write runs
// in one transaction together with its outbox row, and all invariants that
// must survive concurrent writers are backed by unique indexes or
// compare-and-set updates.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateElection(ctx context.Context, election entities.Election, event ports.EventEnvelope) error {
	row := electionModelFromEntity(election)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidElectionInput
			}
			return err
		}
		return appendOutbox(tx, event)
	})
	return r.finish("leadership_repo_create_election_failed", err, "election_id", row.ElectionID)
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("leadership_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListElections(ctx context.Context, filter ports.ElectionFilter) ([]entities.Election, error) {
	tx := r.db.WithContext(ctx).Model(&electionModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if value := strings.TrimSpace(filter.PositionID); value != "" {
		tx = tx.Where("position_id = ?", value)
	}
	if filter.HierarchyLevel != "" {
		tx = tx.Where("hierarchy_level = ?", string(filter.HierarchyLevel))
	}
	if value := strings.TrimSpace(filter.EntityID); value != "" {
		tx = tx.Where("entity_id = ?", value)
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		tx = tx.Offset(filter.Offset)
	}

	var rows []electionModel
	if err := tx.Order("election_date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("leadership_repo_list_elections_failed", err,
			"status", string(filter.Status),
			"position_id", filter.PositionID,
		)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) TransitionElectionStatus(
	ctx context.Context,
	change ports.ElectionStatusChange,
	event ports.EventEnvelope,
) (entities.Election, error) {
	electionID := strings.TrimSpace(change.ElectionID)
	var updated electionModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&electionModel{}).
			Where("election_id = ? AND status = ?", electionID, string(change.From)).
			Updates(map[string]any{
				"status":     string(change.To),
				"updated_at": change.ChangedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if _, err := loadElection(tx, electionID, false); err != nil {
				return err
			}
			return domainerrors.ErrInvalidTransition
		}
		if err := appendOutbox(tx, event); err != nil {
			return err
		}
		return tx.Where("election_id = ?", electionID).First(&updated).Error
	})
	if err != nil {
		return entities.Election{}, r.finish("leadership_repo_transition_election_failed", err,
			"election_id", electionID,
			"from_status", string(change.From),
			"to_status", string(change.To),
		)
	}
	return updated.toEntity(), nil
}

func (r *Repository) NominateCandidate(ctx context.Context, candidate entities.Candidate, event ports.EventEnvelope) error {
	row := candidateModelFromEntity(candidate)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		election, err := loadElection(tx, row.ElectionID, true)
		if err != nil {
			return err
		}
		if !election.AcceptsNominations() {
			return domainerrors.ErrNominationWindowClosed
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateNomination
			}
			return err
		}
		return appendOutbox(tx, event)
	})
	return r.finish("leadership_repo_nominate_candidate_failed", err,
		"candidate_id", row.CandidateID,
		"election_id", row.ElectionID,
		"member_id", row.MemberID,
	)
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.logError("leadership_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCandidates(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC").
		Order("candidate_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("leadership_repo_list_candidates_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ChangeCandidateStatus(
	ctx context.Context,
	change ports.CandidateStatusChange,
	event ports.EventEnvelope,
) (entities.Candidate, error) {
	candidateID := strings.TrimSpace(change.CandidateID)
	var updated candidateModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row candidateModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("candidate_id = ?", candidateID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCandidateNotFound
			}
			return err
		}
		election, err := loadElection(tx, row.ElectionID, true)
		if err != nil {
			return err
		}
		if !services.ContainsStatus(change.ElectionStatuses, election.Status) ||
			row.Status != string(change.From) {
			return domainerrors.ErrInvalidReviewState
		}

		row.Status = string(change.To)
		row.ReviewedBy = optionalString(change.ReviewedBy)
		row.UpdatedAt = change.ChangedAt.UTC()
		if err := tx.Model(&candidateModel{}).
			Where("candidate_id = ?", candidateID).
			Updates(map[string]any{
				"status":      row.Status,
				"reviewed_by": row.ReviewedBy,
				"updated_at":  row.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		if err := appendOutbox(tx, event); err != nil {
			return err
		}
		updated = row
		return nil
	})
	if err != nil {
		return entities.Candidate{}, r.finish("leadership_repo_change_candidate_status_failed", err,
			"candidate_id", candidateID,
			"to_status", string(change.To),
		)
	}
	return updated.toEntity(), nil
}

// CastVote holds shared locks on the election and candidate rows so that a
// concurrent status change cannot slip between the checks and the insert.
func (r *Repository) CastVote(ctx context.Context, vote entities.Vote, event ports.EventEnvelope) error {
	row := voteModel{
		VoteID:        strings.TrimSpace(vote.VoteID),
		ElectionID:    strings.TrimSpace(vote.ElectionID),
		VoterMemberID: strings.TrimSpace(vote.VoterMemberID),
		CandidateID:   strings.TrimSpace(vote.CandidateID),
		CastAt:        vote.CastAt.UTC(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		election, err := loadElection(tx, row.ElectionID, true)
		if err != nil {
			return err
		}
		if !election.AcceptsVotes() {
			return domainerrors.ErrVotingClosed
		}

		var candidate candidateModel
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("candidate_id = ?", row.CandidateID).
			First(&candidate).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrInvalidCandidate
			}
			return err
		}
		if candidate.ElectionID != row.ElectionID || !candidate.toEntity().Electable() {
			return domainerrors.ErrInvalidCandidate
		}

		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyVoted
			}
			return err
		}
		return appendOutbox(tx, event)
	})
	return r.finish("leadership_repo_cast_vote_failed", err,
		"election_id", row.ElectionID,
		"voter_member_id", row.VoterMemberID,
	)
}

func (r *Repository) CountVotesByCandidate(ctx context.Context, electionID string) (map[string]int, error) {
	var rows []voteCountRow
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Select("candidate_id, COUNT(*) AS total").
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Group("candidate_id").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("leadership_repo_count_votes_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.CandidateID] = row.Total
	}
	return counts, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("leadership_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("leadership_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOutboxNotFound
	}
	return nil
}

func loadElection(tx *gorm.DB, electionID string, lock bool) (entities.Election, error) {
	query := tx
	if lock {
		query = query.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var row electionModel
	if err := query.Where("election_id = ?", electionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, err
	}
	return row.toEntity(), nil
}

func appendOutbox(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.Create(&row).Error
}

// finish passes domain errors through untouched and logs everything else.
func (r *Repository) finish(event string, err error, attrs ...any) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return r.logError(event, err, attrs...)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "leadership-governance/leadership-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("leadership repository operation failed", fields...)
	return err
}

var domainFailures = []error{
	domainerrors.ErrInvalidElectionInput,
	domainerrors.ErrInvalidAppointmentInput,
	domainerrors.ErrElectionNotFound,
	domainerrors.ErrCandidateNotFound,
	domainerrors.ErrAppointmentNotFound,
	domainerrors.ErrInvalidTransition,
	domainerrors.ErrNominationWindowClosed,
	domainerrors.ErrInvalidReviewState,
	domainerrors.ErrVotingClosed,
	domainerrors.ErrInvalidCandidate,
	domainerrors.ErrDuplicateNomination,
	domainerrors.ErrAlreadyVoted,
	domainerrors.ErrAlreadyFinalized,
	domainerrors.ErrPositionOccupied,
	domainerrors.ErrNotActive,
}

func isDomainError(err error) bool {
	for _, target := range domainFailures {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isUniqueViolation recognises duplicate keys from the postgres driver and
// from sqlite, with or without gorm error translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.CandidateRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.AppointmentRepository = (*Repository)(nil)
var _ ports.FinalizationRepository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
