package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	assignrepo "github.com/JamshedLatipov/crm-sub002/internal/assignments/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/domain"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/repository"
	"github.com/JamshedLatipov/crm-sub002/internal/deals/transport"
	"github.com/JamshedLatipov/crm-sub002/internal/events"
	historyrepo "github.com/JamshedLatipov/crm-sub002/internal/history/repository"
	"github.com/JamshedLatipov/crm-sub002/platform/apperr"

	"github.com/google/uuid"
)

// MoveToStage moves a deal onto a pipeline stage. A WON or LOST stage forces
// the matching status and stamps the actual close date; a NORMAL stage leaves
// the status untouched. Probability is backfilled from the stage default when
// the deal has none yet, or always when force is set.
func (s *Service) MoveToStage(ctx context.Context, dealID, stageID uuid.UUID, force bool, actor events.Actor) (transport.DealResponse, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return transport.DealResponse{}, err
	}

	stage, err := s.stages.GetByID(ctx, stageID)
	if err != nil {
		return transport.DealResponse{}, err
	}

	if deal.StageID == stageID && !force {
		return transport.ToDealResponse(deal), nil
	}

	var patch repository.UpdateDealParams
	var changes []change

	if deal.StageID != stageID {
		patch.StageID = &stageID
		changes = append(changes, change{
			field:       domain.FieldStage,
			oldValue:    deal.StageID.String(),
			newValue:    stageID.String(),
			changeType:  historyrepo.ChangeTypeStageMoved,
			description: "Deal moved to stage " + stage.Name,
			metadata:    map[string]any{"oldStageId": deal.StageID.String(), "newStageId": stageID.String()},
		})
	}

	// WON/LOST stages drive the status; the deal's prior status is irrelevant.
	switch stage.Kind {
	case domain.DealStatusWon, domain.DealStatusLost:
		if deal.Status != stage.Kind {
			status := stage.Kind
			patch.Status = &status
			changes = append(changes, change{
				field:       domain.FieldStatus,
				oldValue:    deal.Status,
				newValue:    status,
				changeType:  classifyStatusChange(deal.Status, status),
				description: "Status derived from stage " + stage.Name,
			})
		}
		if deal.ActualCloseDate == nil {
			now := time.Now()
			patch.ActualCloseDate = &now
			patch.ActualCloseDateSet = true
		}
	}

	if deal.Probability == nil || force {
		if deal.Probability == nil || *deal.Probability != stage.DefaultProbability {
			probability := stage.DefaultProbability
			patch.Probability = &probability
			patch.ProbabilitySet = true
			changes = append(changes, change{
				field:       domain.FieldProbability,
				oldValue:    fmtIntPtr(deal.Probability),
				newValue:    strconv.Itoa(probability),
				changeType:  historyrepo.ChangeTypeProbabilityChanged,
				description: "Probability backfilled from stage " + stage.Name,
			})
		}
	}

	updated, err := s.applyDealChanges(ctx, deal.ID, patch, changes, actor)
	if err != nil {
		return transport.DealResponse{}, err
	}
	return transport.ToDealResponse(updated), nil
}

// ChangeStatus mutates a deal's status directly. For WON/LOST it resolves the
// stage classified with that kind and delegates to MoveToStage, so stage
// moves stay the single source of truth for close-date and probability side
// effects; without a configured stage the status is applied as-is. Moving
// back to OPEN reopens the deal and clears the actual close date.
func (s *Service) ChangeStatus(ctx context.Context, dealID uuid.UUID, status string, actor events.Actor) (transport.DealResponse, error) {
	if !domain.IsKnownStatus(status) {
		return transport.DealResponse{}, apperr.Validation("unknown deal status: " + status)
	}

	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return transport.DealResponse{}, err
	}

	if deal.Status == status {
		return transport.ToDealResponse(deal), nil
	}

	if status == domain.DealStatusWon || status == domain.DealStatusLost {
		stage, err := s.stages.ResolveByKind(ctx, status)
		if err != nil {
			return transport.DealResponse{}, err
		}
		if stage != nil {
			return s.MoveToStage(ctx, dealID, stage.ID, false, actor)
		}
	}

	patch := repository.UpdateDealParams{Status: &status}
	switch status {
	case domain.DealStatusWon, domain.DealStatusLost:
		if deal.ActualCloseDate == nil {
			now := time.Now()
			patch.ActualCloseDate = &now
			patch.ActualCloseDateSet = true
		}
	case domain.DealStatusOpen:
		patch.ActualCloseDate = nil
		patch.ActualCloseDateSet = true
	}

	changes := []change{{
		field:       domain.FieldStatus,
		oldValue:    deal.Status,
		newValue:    status,
		changeType:  classifyStatusChange(deal.Status, status),
		description: "Status changed to " + status,
	}}

	updated, err := s.applyDealChanges(ctx, deal.ID, patch, changes, actor)
	if err != nil {
		return transport.DealResponse{}, err
	}
	return transport.ToDealResponse(updated), nil
}

// Win closes a deal as won, optionally correcting the amount, and always
// records a won-classified history entry on top of whatever the stage move
// produced.
func (s *Service) Win(ctx context.Context, dealID uuid.UUID, actualAmount *float64, actor events.Actor) (transport.DealResponse, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return transport.DealResponse{}, err
	}

	if actualAmount != nil && *actualAmount != deal.Amount {
		patch := repository.UpdateDealParams{Amount: actualAmount}
		changes := []change{{
			field:       domain.FieldAmount,
			oldValue:    fmtFloat(deal.Amount),
			newValue:    fmtFloat(*actualAmount),
			changeType:  historyrepo.ChangeTypeAmountChanged,
			description: "Amount corrected on close",
		}}
		if _, err := s.applyDealChanges(ctx, deal.ID, patch, changes, actor); err != nil {
			return transport.DealResponse{}, err
		}
	}

	result, err := s.ChangeStatus(ctx, dealID, domain.DealStatusWon, actor)
	if err != nil {
		return transport.DealResponse{}, err
	}

	metadata := map[string]any{}
	if actualAmount != nil {
		metadata["actualAmount"] = *actualAmount
	}
	s.recordHistory(ctx, historyrepo.AppendEntryParams{
		EntityType:  historyrepo.EntityTypeDeal,
		EntityID:    dealID,
		ChangeType:  historyrepo.ChangeTypeWon,
		ActorID:     actor.ID,
		ActorName:   actorName(actor),
		Description: "Deal closed as won",
		Metadata:    metadata,
	})

	return result, nil
}

// Lose closes a deal as lost, appending the reason to the deal notes and
// always recording a lost-classified history entry.
func (s *Service) Lose(ctx context.Context, dealID uuid.UUID, reason string, actor events.Actor) (transport.DealResponse, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return transport.DealResponse{}, err
	}

	reason = strings.TrimSpace(reason)
	if reason != "" {
		notes := deal.Notes
		if notes != "" {
			notes += "\n"
		}
		notes += "Lost: " + reason
		patch := repository.UpdateDealParams{Notes: &notes}
		changes := []change{{
			field:       domain.FieldNotes,
			oldValue:    deal.Notes,
			newValue:    notes,
			changeType:  historyrepo.ChangeTypeNoteAdded,
			description: "Lost reason recorded",
		}}
		if _, err := s.applyDealChanges(ctx, deal.ID, patch, changes, actor); err != nil {
			return transport.DealResponse{}, err
		}
	}

	result, err := s.ChangeStatus(ctx, dealID, domain.DealStatusLost, actor)
	if err != nil {
		return transport.DealResponse{}, err
	}

	s.recordHistory(ctx, historyrepo.AppendEntryParams{
		EntityType:  historyrepo.EntityTypeDeal,
		EntityID:    dealID,
		ChangeType:  historyrepo.ChangeTypeLost,
		ActorID:     actor.ID,
		ActorName:   actorName(actor),
		Description: "Deal closed as lost",
		Metadata:    map[string]any{"reason": reason},
	})

	return result, nil
}

// Assign reassigns a deal to a user. Assignees are referenced strictly by id;
// reassigning to the current owner is a no-op. Removing the prior assignment
// is best-effort: a removal failure is logged, not fatal.
func (s *Service) Assign(ctx context.Context, dealID, userID uuid.UUID, assignedBy *uuid.UUID, reason string, actor events.Actor) (transport.DealResponse, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return transport.DealResponse{}, err
	}

	current, err := s.assignments.GetCurrent(ctx, historyrepo.EntityTypeDeal, dealID)
	if err != nil {
		return transport.DealResponse{}, err
	}

	var previous *uuid.UUID
	if len(current) > 0 {
		previous = &current[0].UserID
	}
	if previous != nil && *previous == userID {
		return transport.ToDealResponse(deal), nil
	}

	for _, existing := range current {
		if err := s.assignments.Remove(ctx, historyrepo.EntityTypeDeal, dealID, existing.UserID); err != nil {
			s.log.Warn("failed to remove prior deal assignment", "dealId", dealID, "userId", existing.UserID, "error", err)
		}
	}

	if _, err := s.assignments.Create(ctx, assignrepo.CreateAssignmentParams{
		EntityType: historyrepo.EntityTypeDeal,
		EntityID:   dealID,
		UserID:     userID,
		AssignedBy: assignedBy,
		Reason:     reason,
	}); err != nil {
		return transport.DealResponse{}, err
	}

	field := domain.FieldAssignee
	oldValue := ""
	if previous != nil {
		oldValue = previous.String()
	}
	newValue := userID.String()
	s.recordHistory(ctx, historyrepo.AppendEntryParams{
		EntityType:  historyrepo.EntityTypeDeal,
		EntityID:    dealID,
		FieldName:   &field,
		OldValue:    &oldValue,
		NewValue:    &newValue,
		ChangeType:  historyrepo.ChangeTypeAssigned,
		ActorID:     actor.ID,
		ActorName:   actorName(actor),
		Description: "Deal assigned to user " + newValue,
	})

	if err := s.bus.PublishSync(ctx, events.DealUpdated{
		BaseEvent:   events.NewBaseEvent(),
		DealID:      deal.ID,
		Title:       deal.Title,
		StageID:     deal.StageID,
		Status:      deal.Status,
		Amount:      deal.Amount,
		Probability: deal.Probability,
		Changes:     []events.FieldChange{{Field: domain.FieldAssignee, Old: oldValue, New: newValue}},
		Actor:       actor,
	}); err != nil {
		s.log.Error("deal assigned event dispatch failed", "dealId", deal.ID, "error", err)
	}

	return transport.ToDealResponse(deal), nil
}

// classifyStatusChange picks the history change type for a status mutation.
func classifyStatusChange(oldStatus, newStatus string) string {
	switch {
	case newStatus == domain.DealStatusWon:
		return historyrepo.ChangeTypeWon
	case newStatus == domain.DealStatusLost:
		return historyrepo.ChangeTypeLost
	case newStatus == domain.DealStatusOpen && oldStatus != domain.DealStatusOpen:
		return historyrepo.ChangeTypeReopened
	default:
		return historyrepo.ChangeTypeStatusChanged
	}
}
