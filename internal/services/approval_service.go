package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const (
	approvalIDPrefix = "apr_"

	approvalEventSubmitted = "approval.submitted"
	approvalEventApplied   = "approval.applied"
	approvalEventReviewed  = "approval.reviewed"
)

var (
	// ErrApprovalInvalidInput indicates required fields were missing.
	ErrApprovalInvalidInput = errors.New("approval: invalid input")
	// ErrApprovalNotFound indicates the approval record does not exist.
	ErrApprovalNotFound = errors.New("approval: not found")
	// ErrApprovalForbidden indicates the actor may not review approvals.
	ErrApprovalForbidden = errors.New("approval: forbidden")
	// ErrApprovalConflict indicates a pending record already exists for the
	// entity. A second submission is rejected, never merged or superseded.
	ErrApprovalConflict = errors.New("approval: pending record exists for entity")
	// ErrApprovalAlreadyReviewed indicates the record left the pending state.
	ErrApprovalAlreadyReviewed = errors.New("approval: already reviewed")
)

// EntityMutator adapts one entity type to the maker-checker gate. Snapshot
// captures previousState, StagePending parks the proposal without touching
// visible fields, Apply commits proposedChanges, and Discard rolls a rejected
// proposal back.
type EntityMutator interface {
	// Snapshot returns the entity's current state, or nil when it does not
	// exist yet (create proposals).
	Snapshot(ctx context.Context, entityID string) (map[string]any, error)
	// StagePending marks the live entity with the pending marker. For create
	// actions it materialises the entity in an inactive state and returns the
	// generated id; for all other actions it returns entityID unchanged.
	StagePending(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error)
	// Apply commits the proposed changes to the live entity and clears the
	// pending marker. Used both for privileged direct writes and approvals.
	Apply(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error)
	// Discard clears the pending marker after a rejection. Created-inactive
	// entities stay inactive, marked rejected.
	Discard(ctx context.Context, action domain.ApprovalAction, entityID string) error
}

// ApprovalServiceDeps enumerates collaborators required to construct the service.
type ApprovalServiceDeps struct {
	Approvals   repositories.ApprovalRepository
	Mutators    map[string]EntityMutator
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type approvalService struct {
	approvals repositories.ApprovalRepository
	mutators  map[string]EntityMutator
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewApprovalService wires dependencies into an ApprovalService implementation.
func NewApprovalService(deps ApprovalServiceDeps) (ApprovalService, error) {
	if deps.Approvals == nil {
		return nil, errors.New("approval service: approval repository is required")
	}
	if len(deps.Mutators) == 0 {
		return nil, errors.New("approval service: at least one entity mutator is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return approvalIDPrefix + ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &approvalService{
		approvals: deps.Approvals,
		mutators:  deps.Mutators,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// Submit routes a mutation either straight to the entity (privileged actors)
// or into the pending queue with the previous state preserved.
func (s *approvalService) Submit(ctx context.Context, cmd SubmitMutationCommand) (MutationOutcome, error) {
	entityType := strings.ToLower(strings.TrimSpace(cmd.EntityType))
	mutator, ok := s.mutators[entityType]
	if !ok {
		return MutationOutcome{}, fmt.Errorf("%w: unknown entity type %q", ErrApprovalInvalidInput, cmd.EntityType)
	}
	if err := validateApprovalAction(cmd.Action); err != nil {
		return MutationOutcome{}, err
	}
	entityID := strings.TrimSpace(cmd.EntityID)
	if cmd.Action != domain.ApprovalActionCreate && entityID == "" {
		return MutationOutcome{}, fmt.Errorf("%w: entity id is required for %s", ErrApprovalInvalidInput, cmd.Action)
	}
	if cmd.Action == domain.ApprovalActionCreate && len(cmd.ProposedChanges) == 0 {
		return MutationOutcome{}, fmt.Errorf("%w: proposed changes are required for create", ErrApprovalInvalidInput)
	}
	if strings.TrimSpace(cmd.Actor.UserID) == "" {
		return MutationOutcome{}, fmt.Errorf("%w: actor is required", ErrApprovalInvalidInput)
	}

	if isPrivileged(cmd.Actor) {
		appliedID, err := mutator.Apply(ctx, cmd.Action, entityID, cmd.ProposedChanges)
		if err != nil {
			return MutationOutcome{}, err
		}
		s.publishEvent(ctx, approvalEventApplied, map[string]any{
			"entityType": entityType,
			"entityId":   appliedID,
			"action":     string(cmd.Action),
			"actor":      cmd.Actor.UserID,
		})
		return MutationOutcome{Applied: true, EntityID: appliedID, Status: domain.ApprovalStatusApproved}, nil
	}

	// One pending record per entity. A concurrent duplicate is rejected with
	// a conflict instead of superseding or merging.
	if entityID != "" {
		if existing, err := s.approvals.FindPendingByEntity(ctx, entityType, entityID); err == nil && existing.ID != "" {
			return MutationOutcome{}, ErrApprovalConflict
		} else if err != nil && !isRepoNotFound(err) {
			return MutationOutcome{}, err
		}
	}

	var previous map[string]any
	if entityID != "" {
		snapshot, err := mutator.Snapshot(ctx, entityID)
		if err != nil {
			return MutationOutcome{}, err
		}
		previous = snapshot
	}

	stagedID, err := mutator.StagePending(ctx, cmd.Action, entityID, cmd.ProposedChanges)
	if err != nil {
		return MutationOutcome{}, err
	}

	now := s.clock()
	approval := domain.PendingApproval{
		ID:              s.newID(),
		EntityType:      entityType,
		EntityID:        stagedID,
		Action:          cmd.Action,
		ProposedChanges: cloneMap(cmd.ProposedChanges),
		PreviousState:   previous,
		Status:          domain.ApprovalStatusPending,
		SubmittedBy:     strings.TrimSpace(cmd.Actor.UserID),
		SubmittedAt:     now,
	}
	if err := s.approvals.Insert(ctx, approval); err != nil {
		// Roll the staging marker back so the entity does not stay flagged
		// without a queue record.
		if discardErr := mutator.Discard(ctx, cmd.Action, stagedID); discardErr != nil {
			s.logger(ctx, "approval.stage_rollback_failed", map[string]any{
				"entityType": entityType,
				"entityId":   stagedID,
				"error":      discardErr.Error(),
			})
		}
		return MutationOutcome{}, err
	}

	s.publishEvent(ctx, approvalEventSubmitted, map[string]any{
		"approvalId": approval.ID,
		"entityType": entityType,
		"entityId":   stagedID,
		"action":     string(cmd.Action),
		"actor":      cmd.Actor.UserID,
	})
	return MutationOutcome{
		EntityID:   stagedID,
		ApprovalID: approval.ID,
		Status:     domain.ApprovalStatusPending,
	}, nil
}

// Review resolves a pending record. Approving applies proposedChanges through
// the entity's mutator; rejecting discards them and restores the marker.
func (s *approvalService) Review(ctx context.Context, cmd ReviewApprovalCommand) (PendingApproval, error) {
	approvalID := strings.TrimSpace(cmd.ApprovalID)
	if approvalID == "" {
		return PendingApproval{}, fmt.Errorf("%w: approval id is required", ErrApprovalInvalidInput)
	}
	if !isPrivileged(cmd.Actor) {
		return PendingApproval{}, ErrApprovalForbidden
	}

	approval, err := s.approvals.FindByID(ctx, approvalID)
	if err != nil {
		if isRepoNotFound(err) {
			return PendingApproval{}, ErrApprovalNotFound
		}
		return PendingApproval{}, err
	}
	if approval.Status != domain.ApprovalStatusPending {
		return PendingApproval{}, ErrApprovalAlreadyReviewed
	}
	// Maker and checker must differ.
	if strings.EqualFold(approval.SubmittedBy, strings.TrimSpace(cmd.Actor.UserID)) {
		return PendingApproval{}, fmt.Errorf("%w: submitter cannot review their own change", ErrApprovalForbidden)
	}

	mutator, ok := s.mutators[approval.EntityType]
	if !ok {
		return PendingApproval{}, fmt.Errorf("%w: unknown entity type %q", ErrApprovalInvalidInput, approval.EntityType)
	}

	now := s.clock()
	if cmd.Approve {
		if _, err := mutator.Apply(ctx, approval.Action, approval.EntityID, approval.ProposedChanges); err != nil {
			return PendingApproval{}, err
		}
		approval.Status = domain.ApprovalStatusApproved
	} else {
		if err := mutator.Discard(ctx, approval.Action, approval.EntityID); err != nil {
			return PendingApproval{}, err
		}
		approval.Status = domain.ApprovalStatusRejected
	}
	approval.ReviewedBy = strings.TrimSpace(cmd.Actor.UserID)
	approval.ReviewNote = strings.TrimSpace(cmd.Note)
	approval.ReviewedAt = &now

	if err := s.approvals.Update(ctx, approval); err != nil {
		return PendingApproval{}, err
	}

	s.publishEvent(ctx, approvalEventReviewed, map[string]any{
		"approvalId": approval.ID,
		"entityType": approval.EntityType,
		"entityId":   approval.EntityID,
		"status":     string(approval.Status),
		"reviewer":   approval.ReviewedBy,
	})
	return approval, nil
}

func (s *approvalService) Get(ctx context.Context, approvalID string) (PendingApproval, error) {
	approvalID = strings.TrimSpace(approvalID)
	if approvalID == "" {
		return PendingApproval{}, fmt.Errorf("%w: approval id is required", ErrApprovalInvalidInput)
	}
	approval, err := s.approvals.FindByID(ctx, approvalID)
	if err != nil {
		if isRepoNotFound(err) {
			return PendingApproval{}, ErrApprovalNotFound
		}
		return PendingApproval{}, err
	}
	return approval, nil
}

func (s *approvalService) List(ctx context.Context, filter ApprovalListFilter) (domain.CursorPage[PendingApproval], error) {
	return s.approvals.List(ctx, repositories.ApprovalListFilter{
		EntityType:  strings.ToLower(strings.TrimSpace(filter.EntityType)),
		Status:      filter.Status,
		SubmittedBy: strings.TrimSpace(filter.SubmittedBy),
		Pagination:  filter.Pagination,
	})
}

func (s *approvalService) publishEvent(ctx context.Context, event string, fields map[string]any) {
	if s.logger != nil {
		s.logger(ctx, event, fields)
	}
}

func validateApprovalAction(action domain.ApprovalAction) error {
	switch action {
	case domain.ApprovalActionCreate, domain.ApprovalActionUpdate, domain.ApprovalActionArchive, domain.ApprovalActionRestore:
		return nil
	}
	return fmt.Errorf("%w: unknown action %q", ErrApprovalInvalidInput, action)
}
