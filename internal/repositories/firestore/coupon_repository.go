package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/aurelia-jewels/api/internal/domain"
	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const couponsCollection = "coupons"

// CouponRepository persists coupon definitions keyed by their upper-cased code.
type CouponRepository struct {
	base     *pfirestore.BaseRepository[couponDocument]
	provider *pfirestore.Provider
}

// NewCouponRepository constructs a Firestore-backed coupon repository.
func NewCouponRepository(provider *pfirestore.Provider) (*CouponRepository, error) {
	if provider == nil {
		return nil, errors.New("coupon repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[couponDocument](provider, couponsCollection, nil, nil)
	return &CouponRepository{
		base:     base,
		provider: provider,
	}, nil
}

// FindByCode loads the coupon for the normalised code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	if r == nil || r.base == nil {
		return domain.Coupon{}, errors.New("coupon repository not initialised")
	}
	id := normaliseCouponCode(code)
	if id == "" {
		return domain.Coupon{}, errors.New("coupon repository: code is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Coupon{}, err
	}
	coupon := domain.Coupon{
		Code:              doc.ID,
		Type:              doc.Data.Type,
		Value:             doc.Data.Value,
		MinOrderValue:     doc.Data.MinOrderValue,
		MaxDiscountAmount: doc.Data.MaxDiscountAmount,
		UsageLimit:        doc.Data.UsageLimit,
		UsageCount:        doc.Data.UsageCount,
		Active:            doc.Data.Active,
		ExpiresAt:         doc.Data.ExpiresAt,
	}
	return coupon, nil
}

// IncrementUsage bumps the usage counter inside a transaction so two concurrent
// checkouts cannot both consume the final remaining use.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string, now time.Time) error {
	if r == nil || r.provider == nil {
		return errors.New("coupon repository not initialised")
	}
	id := normaliseCouponCode(code)
	if id == "" {
		return errors.New("coupon repository: code is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc couponDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore coupons decode %s: %w", id, err)
		}
		if doc.UsageLimit > 0 && doc.UsageCount >= doc.UsageLimit {
			return status.Error(codes.FailedPrecondition, fmt.Sprintf("coupon %s usage limit reached", id))
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "usageCount", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: now.UTC()},
		})
	})
	if err != nil {
		return pfirestore.WrapError("coupons.incrementUsage", err)
	}
	return nil
}

// DecrementUsage releases one usage, used when an order is deleted after a
// payment-intent failure.
func (r *CouponRepository) DecrementUsage(ctx context.Context, code string) error {
	if r == nil || r.base == nil {
		return errors.New("coupon repository not initialised")
	}
	id := normaliseCouponCode(code)
	if id == "" {
		return errors.New("coupon repository: code is required")
	}
	_, err := r.base.Update(ctx, id, []firestore.Update{
		{Path: "usageCount", Value: firestore.Increment(-1)},
	})
	return err
}

func normaliseCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type couponDocument struct {
	Type              string     `firestore:"type"`
	Value             float64    `firestore:"value"`
	MinOrderValue     int64      `firestore:"minOrderValue,omitempty"`
	MaxDiscountAmount int64      `firestore:"maxDiscountAmount,omitempty"`
	UsageLimit        int64      `firestore:"usageLimit,omitempty"`
	UsageCount        int64      `firestore:"usageCount"`
	Active            bool       `firestore:"active"`
	ExpiresAt         *time.Time `firestore:"expiresAt,omitempty"`
	UpdatedAt         time.Time  `firestore:"updatedAt"`
}

var _ repositories.CouponRepository = (*CouponRepository)(nil)
