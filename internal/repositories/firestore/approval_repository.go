package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/aurelia-jewels/api/internal/domain"
	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const approvalsCollection = "pending_approvals"

// ApprovalRepository persists maker-checker records within Firestore.
type ApprovalRepository struct {
	base     *pfirestore.BaseRepository[approvalDocument]
	provider *pfirestore.Provider
}

// NewApprovalRepository constructs a Firestore-backed approval repository.
func NewApprovalRepository(provider *pfirestore.Provider) (*ApprovalRepository, error) {
	if provider == nil {
		return nil, errors.New("approval repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[approvalDocument](provider, approvalsCollection, nil, nil)
	return &ApprovalRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Insert creates the approval record, failing on ID collisions.
func (r *ApprovalRepository) Insert(ctx context.Context, approval domain.PendingApproval) error {
	if r == nil || r.base == nil {
		return errors.New("approval repository not initialised")
	}
	id := strings.TrimSpace(approval.ID)
	if id == "" {
		return errors.New("approval repository: approval id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodeApproval(approval)); err != nil {
		return pfirestore.WrapError("approvals.insert", err)
	}
	return nil
}

// Update replaces the approval record.
func (r *ApprovalRepository) Update(ctx context.Context, approval domain.PendingApproval) error {
	if r == nil || r.base == nil {
		return errors.New("approval repository not initialised")
	}
	id := strings.TrimSpace(approval.ID)
	if id == "" {
		return errors.New("approval repository: approval id is required")
	}
	_, err := r.base.Set(ctx, id, encodeApproval(approval))
	return err
}

// FindByID loads one approval record.
func (r *ApprovalRepository) FindByID(ctx context.Context, approvalID string) (domain.PendingApproval, error) {
	if r == nil || r.base == nil {
		return domain.PendingApproval{}, errors.New("approval repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(approvalID))
	if err != nil {
		return domain.PendingApproval{}, err
	}
	return decodeApproval(doc.ID, doc.Data), nil
}

// FindPendingByEntity returns the pending record for an entity, if one exists.
func (r *ApprovalRepository) FindPendingByEntity(ctx context.Context, entityType string, entityID string) (domain.PendingApproval, error) {
	if r == nil || r.base == nil {
		return domain.PendingApproval{}, errors.New("approval repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("entityType", "==", strings.TrimSpace(entityType)).
			Where("entityId", "==", strings.TrimSpace(entityID)).
			Where("status", "==", string(domain.ApprovalStatusPending)).
			Limit(1)
	})
	if err != nil {
		return domain.PendingApproval{}, err
	}
	if len(docs) == 0 {
		return domain.PendingApproval{}, pfirestore.WrapError("approvals.findPendingByEntity", status.Error(codes.NotFound, "no pending approval for entity"))
	}
	return decodeApproval(docs[0].ID, docs[0].Data), nil
}

// List returns a page of approval records, newest submissions first.
func (r *ApprovalRepository) List(ctx context.Context, filter repositories.ApprovalListFilter) (domain.CursorPage[domain.PendingApproval], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.PendingApproval]{}, errors.New("approval repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	startAfter, err := timestampCursorValues(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.PendingApproval]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if entityType := strings.TrimSpace(filter.EntityType); entityType != "" {
			q = q.Where("entityType", "==", entityType)
		}
		if len(filter.Status) > 0 {
			q = q.Where("status", "in", filter.Status)
		}
		if submitter := strings.TrimSpace(filter.SubmittedBy); submitter != "" {
			q = q.Where("submittedBy", "==", submitter)
		}
		q = q.OrderBy("submittedAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) > 0 {
			q = q.StartAfter(startAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.PendingApproval]{}, err
	}

	page := domain.CursorPage[domain.PendingApproval]{}
	for i, doc := range docs {
		if i == pageSize {
			token, err := timestampCursorToken(docs[i-1].Data.SubmittedAt, docs[i-1].ID)
			if err != nil {
				return domain.CursorPage[domain.PendingApproval]{}, err
			}
			page.NextPageToken = token
			break
		}
		page.Items = append(page.Items, decodeApproval(doc.ID, doc.Data))
	}
	return page, nil
}

func encodeApproval(approval domain.PendingApproval) approvalDocument {
	doc := approvalDocument{
		EntityType:      approval.EntityType,
		EntityID:        approval.EntityID,
		Action:          string(approval.Action),
		ProposedChanges: cloneAnyMap(approval.ProposedChanges),
		PreviousState:   cloneAnyMap(approval.PreviousState),
		Status:          string(approval.Status),
		SubmittedBy:     approval.SubmittedBy,
		ReviewedBy:      approval.ReviewedBy,
		ReviewNote:      approval.ReviewNote,
		SubmittedAt:     approval.SubmittedAt.UTC(),
	}
	if approval.ReviewedAt != nil {
		reviewed := approval.ReviewedAt.UTC()
		doc.ReviewedAt = &reviewed
	}
	return doc
}

func decodeApproval(id string, doc approvalDocument) domain.PendingApproval {
	return domain.PendingApproval{
		ID:              id,
		EntityType:      doc.EntityType,
		EntityID:        doc.EntityID,
		Action:          domain.ApprovalAction(doc.Action),
		ProposedChanges: cloneAnyMap(doc.ProposedChanges),
		PreviousState:   cloneAnyMap(doc.PreviousState),
		Status:          domain.ApprovalStatus(doc.Status),
		SubmittedBy:     doc.SubmittedBy,
		ReviewedBy:      doc.ReviewedBy,
		ReviewNote:      doc.ReviewNote,
		SubmittedAt:     doc.SubmittedAt,
		ReviewedAt:      doc.ReviewedAt,
	}
}

type approvalDocument struct {
	EntityType      string         `firestore:"entityType"`
	EntityID        string         `firestore:"entityId,omitempty"`
	Action          string         `firestore:"actionType"`
	ProposedChanges map[string]any `firestore:"proposedChanges,omitempty"`
	PreviousState   map[string]any `firestore:"previousState,omitempty"`
	Status          string         `firestore:"status"`
	SubmittedBy     string         `firestore:"submittedBy"`
	ReviewedBy      string         `firestore:"reviewedBy,omitempty"`
	ReviewNote      string         `firestore:"reviewNote,omitempty"`
	SubmittedAt     time.Time      `firestore:"submittedAt"`
	ReviewedAt      *time.Time     `firestore:"reviewedAt,omitempty"`
}

var _ repositories.ApprovalRepository = (*ApprovalRepository)(nil)
