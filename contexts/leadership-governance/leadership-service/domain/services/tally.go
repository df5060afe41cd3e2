package services

import (
	"sort"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
)

// BuildTally left-joins per-candidate counts onto the candidate list: every
// candidate of the election appears with its status, zero votes included.
// Counts for unknown candidate ids are kept as bare rows. Rows are ordered by
// count desc, then candidate id asc.
func BuildTally(candidates []entities.Candidate, counts map[string]int) []entities.ResultRow {
	rows := make([]entities.ResultRow, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		count := counts[candidate.CandidateID]
		seen[candidate.CandidateID] = struct{}{}
		rows = append(rows, entities.ResultRow{
			CandidateID:     candidate.CandidateID,
			MemberID:        candidate.MemberID,
			CandidateStatus: candidate.Status,
			VoteCount:       count,
		})
	}
	for candidateID, count := range counts {
		if _, ok := seen[candidateID]; ok || count == 0 {
			continue
		}
		rows = append(rows, entities.ResultRow{
			CandidateID: candidateID,
			VoteCount:   count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].VoteCount == rows[j].VoteCount {
			return rows[i].CandidateID < rows[j].CandidateID
		}
		return rows[i].VoteCount > rows[j].VoteCount
	})
	return rows
}

// IsTallyLeader reports whether the candidate has the highest count. Ties
// count as leading.
func IsTallyLeader(rows []entities.ResultRow, candidateID string) bool {
	if len(rows) == 0 {
		return false
	}
	top := rows[0].VoteCount
	for _, row := range rows {
		if row.VoteCount != top {
			return false
		}
		if row.CandidateID == candidateID {
			return true
		}
	}
	return false
}
