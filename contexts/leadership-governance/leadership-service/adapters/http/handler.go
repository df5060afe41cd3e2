package httpadapter

import (
	"context"
	"log/slog"

	"backoffice/contexts/leadership-governance/leadership-service/application/commands"
	"backoffice/contexts/leadership-governance/leadership-service/application/queries"
	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
	httptransport "backoffice/contexts/leadership-governance/leadership-service/transport/http"
)

type Handler struct {
	Elections          commands.ElectionUseCase
	Candidates         commands.CandidateUseCase
	Votes              commands.VoteUseCase
	Finalization       commands.FinalizationUseCase
	Appointments       commands.AppointmentUseCase
	ElectionQueries    queries.ElectionQueryUseCase
	Tally              queries.TallyUseCase
	AppointmentQueries queries.AppointmentQueryUseCase
	Logger             *slog.Logger
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	actorID string,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.CreateElection(ctx, commands.CreateElectionCommand{
		Name:             req.Name,
		PositionID:       req.PositionID,
		HierarchyLevel:   entities.HierarchyLevel(req.HierarchyLevel),
		EntityID:         req.EntityID,
		ElectionDate:     req.ElectionDate,
		NominationWindow: entities.Window{Start: req.NominationStart, End: req.NominationEnd},
		VotingWindow:     entities.Window{Start: req.VotingStart, End: req.VotingEnd},
		ActorID:          actorID,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) GetElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	election, err := h.ElectionQueries.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) ListElectionsHandler(
	ctx context.Context,
	req httptransport.ListElectionsRequest,
) (httptransport.ListElectionsResponse, error) {
	items, err := h.ElectionQueries.ListElections(ctx, ports.ElectionFilter{
		Status:         entities.ElectionStatus(req.Status),
		PositionID:     req.PositionID,
		HierarchyLevel: entities.HierarchyLevel(req.HierarchyLevel),
		EntityID:       req.EntityID,
		Limit:          req.Limit,
		Offset:         req.Offset,
	})
	if err != nil {
		return httptransport.ListElectionsResponse{}, err
	}
	resp := httptransport.ListElectionsResponse{Items: make([]httptransport.ElectionResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, mapElection(item))
	}
	return resp, nil
}

func (h Handler) TransitionElectionHandler(
	ctx context.Context,
	actorID string,
	electionID string,
	req httptransport.TransitionElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.TransitionStatus(ctx, commands.TransitionElectionCommand{
		ElectionID: electionID,
		To:         entities.ElectionStatus(req.Status),
		ActorID:    actorID,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) NominateCandidateHandler(
	ctx context.Context,
	actorID string,
	electionID string,
	req httptransport.NominateCandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Candidates.Nominate(ctx, commands.NominateCommand{
		ElectionID: electionID,
		MemberID:   req.MemberID,
		Statement:  req.NominationStatement,
		ActorID:    actorID,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

func (h Handler) ListCandidatesHandler(ctx context.Context, electionID string) (httptransport.ListCandidatesResponse, error) {
	items, err := h.ElectionQueries.ListCandidates(ctx, electionID)
	if err != nil {
		return httptransport.ListCandidatesResponse{}, err
	}
	resp := httptransport.ListCandidatesResponse{Items: make([]httptransport.CandidateResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, mapCandidate(item))
	}
	return resp, nil
}

func (h Handler) ReviewCandidateHandler(
	ctx context.Context,
	actorID string,
	candidateID string,
	req httptransport.ReviewCandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Candidates.Review(ctx, commands.ReviewCandidateCommand{
		CandidateID: candidateID,
		Decision:    entities.CandidateStatus(req.Decision),
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

func (h Handler) WithdrawCandidateHandler(
	ctx context.Context,
	actorID string,
	candidateID string,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Candidates.Withdraw(ctx, commands.WithdrawCandidateCommand{
		CandidateID: candidateID,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	voterID string,
	electionID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		ElectionID:    electionID,
		VoterMemberID: voterID,
		CandidateID:   req.CandidateID,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		VoteID:        vote.VoteID,
		ElectionID:    vote.ElectionID,
		VoterMemberID: vote.VoterMemberID,
		CastAt:        vote.CastAt,
	}, nil
}

func (h Handler) ElectionResultsHandler(ctx context.Context, electionID string) (httptransport.ElectionResultsResponse, error) {
	result, err := h.Tally.Tally(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResultsResponse{}, err
	}
	return httptransport.ElectionResultsResponse{
		ElectionID: result.ElectionID,
		Status:     string(result.ElectionStatus),
		Finalized:  result.Finalized,
		TotalVotes: result.TotalVotes,
		Items:      mapResultRows(result.Rows),
	}, nil
}

func (h Handler) FinalizeElectionHandler(
	ctx context.Context,
	actorID string,
	electionID string,
	req httptransport.FinalizeElectionRequest,
) (httptransport.FinalizeElectionResponse, error) {
	result, err := h.Finalization.Finalize(ctx, commands.FinalizeCommand{
		ElectionID:        electionID,
		WinnerCandidateID: req.WinnerCandidateID,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		ActorID:           actorID,
	})
	if err != nil {
		return httptransport.FinalizeElectionResponse{}, err
	}
	return httptransport.FinalizeElectionResponse{
		ElectionFinalized:       result.ElectionFinalized,
		AppointmentID:           result.AppointmentID,
		SupersededAppointmentID: result.SupersededAppointmentID,
		WinnerIsTallyLeader:     result.WinnerIsTallyLeader,
		Appointment:             mapAppointment(result.Appointment),
		Tally:                   mapResultRows(result.Tally),
	}, nil
}

func (h Handler) CreateAppointmentHandler(
	ctx context.Context,
	actorID string,
	req httptransport.CreateAppointmentRequest,
) (httptransport.AppointmentResponse, error) {
	appointment, err := h.Appointments.CreateAppointment(ctx, commands.CreateAppointmentCommand{
		PositionID:      req.PositionID,
		MemberID:        req.MemberID,
		HierarchyLevel:  entities.HierarchyLevel(req.HierarchyLevel),
		EntityID:        req.EntityID,
		AppointmentType: entities.AppointmentType(req.AppointmentType),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		ActorID:         actorID,
	})
	if err != nil {
		return httptransport.AppointmentResponse{}, err
	}
	return mapAppointment(appointment), nil
}

func (h Handler) GetAppointmentHandler(ctx context.Context, appointmentID string) (httptransport.AppointmentResponse, error) {
	appointment, err := h.AppointmentQueries.GetAppointment(ctx, appointmentID)
	if err != nil {
		return httptransport.AppointmentResponse{}, err
	}
	return mapAppointment(appointment), nil
}

func (h Handler) ListAppointmentsHandler(
	ctx context.Context,
	req httptransport.ListAppointmentsRequest,
) (httptransport.ListAppointmentsResponse, error) {
	items, err := h.AppointmentQueries.ListAppointments(ctx, ports.AppointmentFilter{
		PositionID:     req.PositionID,
		HierarchyLevel: entities.HierarchyLevel(req.HierarchyLevel),
		EntityID:       req.EntityID,
		MemberID:       req.MemberID,
		Status:         entities.AppointmentStatus(req.Status),
		Limit:          req.Limit,
		Offset:         req.Offset,
	})
	if err != nil {
		return httptransport.ListAppointmentsResponse{}, err
	}
	return mapAppointments(items), nil
}

func (h Handler) TerminateAppointmentHandler(
	ctx context.Context,
	actorID string,
	appointmentID string,
	req httptransport.TerminateAppointmentRequest,
) (httptransport.AppointmentResponse, error) {
	appointment, err := h.Appointments.Terminate(ctx, commands.TerminateAppointmentCommand{
		AppointmentID: appointmentID,
		Reason:        req.Reason,
		EndDate:       req.EndDate,
		ActorID:       actorID,
	})
	if err != nil {
		return httptransport.AppointmentResponse{}, err
	}
	return mapAppointment(appointment), nil
}

func (h Handler) RemoveAppointmentHandler(
	ctx context.Context,
	actorID string,
	appointmentID string,
	req httptransport.RemoveAppointmentRequest,
) (httptransport.AppointmentResponse, error) {
	appointment, err := h.Appointments.Remove(ctx, commands.RemoveAppointmentCommand{
		AppointmentID: appointmentID,
		Reason:        req.Reason,
		ActorID:       actorID,
	})
	if err != nil {
		return httptransport.AppointmentResponse{}, err
	}
	return mapAppointment(appointment), nil
}

func (h Handler) DeleteAppointmentHandler(ctx context.Context, actorID string, appointmentID string) error {
	return h.Appointments.Delete(ctx, commands.DeleteAppointmentCommand{
		AppointmentID: appointmentID,
		ActorID:       actorID,
	})
}

func (h Handler) PositionHolderHandler(
	ctx context.Context,
	positionID string,
	hierarchyLevel string,
	entityID string,
) (httptransport.PositionHolderResponse, error) {
	key := entities.PositionKey{
		PositionID:     positionID,
		HierarchyLevel: entities.HierarchyLevel(hierarchyLevel),
		EntityID:       entityID,
	}.Normalize()
	appointment, found, err := h.AppointmentQueries.CurrentHolder(ctx, key)
	if err != nil {
		return httptransport.PositionHolderResponse{}, err
	}
	resp := httptransport.PositionHolderResponse{
		PositionID:     key.PositionID,
		HierarchyLevel: string(key.HierarchyLevel),
		EntityID:       key.EntityID,
		Occupied:       found,
	}
	if found {
		mapped := mapAppointment(appointment)
		resp.Appointment = &mapped
	}
	return resp, nil
}

func (h Handler) PositionHistoryHandler(
	ctx context.Context,
	positionID string,
	hierarchyLevel string,
	entityID string,
	limit int,
) (httptransport.ListAppointmentsResponse, error) {
	items, err := h.AppointmentQueries.History(ctx, entities.PositionKey{
		PositionID:     positionID,
		HierarchyLevel: entities.HierarchyLevel(hierarchyLevel),
		EntityID:       entityID,
	}, limit)
	if err != nil {
		return httptransport.ListAppointmentsResponse{}, err
	}
	return mapAppointments(items), nil
}

func (h Handler) ListPositionsHandler(ctx context.Context, hierarchyLevel string) (httptransport.ListPositionsResponse, error) {
	items, err := h.AppointmentQueries.ListPositions(ctx, entities.HierarchyLevel(hierarchyLevel))
	if err != nil {
		return httptransport.ListPositionsResponse{}, err
	}
	resp := httptransport.ListPositionsResponse{Items: make([]httptransport.PositionResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, httptransport.PositionResponse{
			PositionID:     item.PositionID,
			Title:          item.Title,
			HierarchyLevel: string(item.HierarchyLevel),
		})
	}
	return resp, nil
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:      election.ElectionID,
		Name:            election.Name,
		PositionID:      election.PositionID,
		HierarchyLevel:  string(election.HierarchyLevel),
		EntityID:        election.EntityID,
		ElectionDate:    election.ElectionDate,
		NominationStart: election.NominationWindow.Start,
		NominationEnd:   election.NominationWindow.End,
		VotingStart:     election.VotingWindow.Start,
		VotingEnd:       election.VotingWindow.End,
		Status:          string(election.Status),
		CreatedBy:       election.CreatedBy,
		Finalized:       election.Finalized,
		CreatedAt:       election.CreatedAt,
		UpdatedAt:       election.UpdatedAt,
	}
}

func mapCandidate(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		CandidateID:         candidate.CandidateID,
		ElectionID:          candidate.ElectionID,
		MemberID:            candidate.MemberID,
		NominationStatement: candidate.NominationStatement,
		Status:              string(candidate.Status),
		ReviewedBy:          candidate.ReviewedBy,
		CreatedAt:           candidate.CreatedAt,
		UpdatedAt:           candidate.UpdatedAt,
	}
}

func mapResultRows(rows []entities.ResultRow) []httptransport.ResultRowResponse {
	items := make([]httptransport.ResultRowResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, httptransport.ResultRowResponse{
			CandidateID:     row.CandidateID,
			MemberID:        row.MemberID,
			CandidateStatus: string(row.CandidateStatus),
			VoteCount:       row.VoteCount,
		})
	}
	return items
}

func mapAppointment(appointment entities.Appointment) httptransport.AppointmentResponse {
	resp := httptransport.AppointmentResponse{
		AppointmentID:   appointment.AppointmentID,
		PositionID:      appointment.PositionID,
		MemberID:        appointment.MemberID,
		HierarchyLevel:  string(appointment.HierarchyLevel),
		EntityID:        appointment.EntityID,
		AppointmentType: string(appointment.AppointmentType),
		StartDate:       appointment.StartDate,
		EndDate:         appointment.EndDate,
		Status:          string(appointment.Status),
		AppointedBy:     appointment.AppointedBy,
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}
	if appointment.TerminationReason != nil {
		resp.TerminationReason = *appointment.TerminationReason
	}
	if appointment.ElectionID != nil {
		resp.ElectionID = *appointment.ElectionID
	}
	return resp
}

func mapAppointments(items []entities.Appointment) httptransport.ListAppointmentsResponse {
	resp := httptransport.ListAppointmentsResponse{Items: make([]httptransport.AppointmentResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, mapAppointment(item))
	}
	return resp
}
