package queries

import (
	"context"
	"strings"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/domain/services"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

// TallyResult is the per-candidate count for one election.
type TallyResult struct {
	ElectionID     string
	ElectionStatus entities.ElectionStatus
	Finalized      bool
	TotalVotes     int
	Rows           []entities.ResultRow
}

// TallyUseCase aggregates votes per candidate. It never names a winner.
type TallyUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Votes      ports.VoteRepository
}

func (uc TallyUseCase) Tally(ctx context.Context, electionID string) (TallyResult, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return TallyResult{}, domainerrors.ErrInvalidElectionInput
	}
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return TallyResult{}, err
	}
	candidates, err := uc.Candidates.ListCandidates(ctx, electionID)
	if err != nil {
		return TallyResult{}, err
	}
	counts, err := uc.Votes.CountVotesByCandidate(ctx, electionID)
	if err != nil {
		return TallyResult{}, err
	}
	total := 0
	for _, count := range counts {
		total += count
	}
	return TallyResult{
		ElectionID:     election.ElectionID,
		ElectionStatus: election.Status,
		Finalized:      election.Finalized,
		TotalVotes:     total,
		Rows:           services.BuildTally(candidates, counts),
	}, nil
}
