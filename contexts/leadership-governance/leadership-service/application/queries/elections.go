package queries

import (
	"context"
	"strings"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ElectionQueryUseCase serves election reads.
type ElectionQueryUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
}

func (uc ElectionQueryUseCase) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return uc.Elections.GetElection(ctx, electionID)
}

func (uc ElectionQueryUseCase) ListElections(ctx context.Context, filter ports.ElectionFilter) ([]entities.Election, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domainerrors.ErrInvalidElectionInput
	}
	if filter.HierarchyLevel != "" && !filter.HierarchyLevel.Valid() {
		return nil, domainerrors.ErrInvalidElectionInput
	}
	if filter.Offset < 0 {
		return nil, domainerrors.ErrInvalidElectionInput
	}
	filter.PositionID = strings.TrimSpace(filter.PositionID)
	filter.EntityID = strings.TrimSpace(filter.EntityID)
	filter.Limit = normalizeLimit(filter.Limit)
	return uc.Elections.ListElections(ctx, filter)
}

// ListCandidates returns every candidate of an election, withdrawn included.
func (uc ElectionQueryUseCase) ListCandidates(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	electionID = strings.TrimSpace(electionID)
	if _, err := uc.GetElection(ctx, electionID); err != nil {
		return nil, err
	}
	return uc.Candidates.ListCandidates(ctx, electionID)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
