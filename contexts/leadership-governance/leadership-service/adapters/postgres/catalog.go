package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The catalog tables are projections fed by the membership and structure
// modules; this module only reads them outside of seeding.

func (r *Repository) GetPosition(ctx context.Context, positionID string) (entities.Position, error) {
	var row positionModel
	err := r.db.WithContext(ctx).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Position{}, domainerrors.ErrPositionNotFound
		}
		return entities.Position{}, r.logError("leadership_repo_get_position_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPositions(ctx context.Context, level entities.HierarchyLevel) ([]entities.Position, error) {
	tx := r.db.WithContext(ctx).Model(&positionModel{})
	if level != "" {
		tx = tx.Where("hierarchy_level = ?", string(level))
	}
	var rows []positionModel
	if err := tx.Order("position_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("leadership_repo_list_positions_failed", err, "hierarchy_level", string(level))
	}
	items := make([]entities.Position, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetMember(ctx context.Context, memberID string) (ports.MemberProjection, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.MemberProjection{}, domainerrors.ErrMemberNotFound
		}
		return ports.MemberProjection{}, r.logError("leadership_repo_get_member_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return ports.MemberProjection{
		MemberID:    row.MemberID,
		DisplayName: row.DisplayName,
		Status:      row.Status,
	}, nil
}

func (r *Repository) IsOperator(ctx context.Context, actorID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&operatorModel{}).
		Where("actor_id = ?", strings.TrimSpace(actorID)).
		Count(&count).Error; err != nil {
		return false, r.logError("leadership_repo_is_operator_failed", err, "actor_id", strings.TrimSpace(actorID))
	}
	return count > 0, nil
}

func (r *Repository) UpsertPosition(ctx context.Context, position entities.Position) error {
	row := positionModel{
		PositionID:     strings.TrimSpace(position.PositionID),
		Title:          strings.TrimSpace(position.Title),
		HierarchyLevel: string(position.HierarchyLevel),
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "position_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "hierarchy_level"}),
	}).Create(&row).Error; err != nil {
		return r.logError("leadership_repo_upsert_position_failed", err, "position_id", row.PositionID)
	}
	return nil
}

func (r *Repository) UpsertMember(ctx context.Context, member ports.MemberProjection) error {
	row := memberModel{
		MemberID:    strings.TrimSpace(member.MemberID),
		DisplayName: strings.TrimSpace(member.DisplayName),
		Status:      strings.TrimSpace(member.Status),
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "status"}),
	}).Create(&row).Error; err != nil {
		return r.logError("leadership_repo_upsert_member_failed", err, "member_id", row.MemberID)
	}
	return nil
}

func (r *Repository) GrantOperator(ctx context.Context, actorID string, grantedAt time.Time) error {
	row := operatorModel{
		ActorID:   strings.TrimSpace(actorID),
		GrantedAt: grantedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return r.logError("leadership_repo_grant_operator_failed", err, "actor_id", row.ActorID)
	}
	return nil
}

var _ ports.PositionCatalog = (*Repository)(nil)
var _ ports.MemberDirectory = (*Repository)(nil)
var _ ports.OperatorRegistry = (*Repository)(nil)
