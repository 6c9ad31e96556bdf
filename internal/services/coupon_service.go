package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

var (
	// ErrCouponInvalidInput indicates required fields were missing.
	ErrCouponInvalidInput = errors.New("coupon: invalid input")
	// ErrCouponNotFound indicates the code does not exist.
	ErrCouponNotFound = errors.New("coupon: not found")
	// ErrCouponNotApplicable indicates the coupon exists but cannot be applied
	// to this order, with the reason wrapped in the message.
	ErrCouponNotApplicable = errors.New("coupon: not applicable")
)

// CouponServiceDeps enumerates collaborators required to construct the service.
type CouponServiceDeps struct {
	Coupons repositories.CouponRepository
	Clock   func() time.Time
}

type couponService struct {
	coupons repositories.CouponRepository
	clock   func() time.Time
}

// NewCouponService wires dependencies into a CouponService implementation.
func NewCouponService(deps CouponServiceDeps) (CouponService, error) {
	if deps.Coupons == nil {
		return nil, errors.New("coupon service: coupon repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &couponService{
		coupons: deps.Coupons,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

func (s *couponService) Validate(ctx context.Context, cmd ValidateCouponCommand) (CouponQuote, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return CouponQuote{}, fmt.Errorf("%w: code is required", ErrCouponInvalidInput)
	}
	if cmd.OrderValue <= 0 {
		return CouponQuote{}, fmt.Errorf("%w: order value must be positive", ErrCouponInvalidInput)
	}

	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if isRepoNotFound(err) {
			return CouponQuote{}, ErrCouponNotFound
		}
		return CouponQuote{}, err
	}

	discount, err := couponDiscount(coupon, cmd.OrderValue, s.clock())
	if err != nil {
		return CouponQuote{}, err
	}
	return CouponQuote{Code: coupon.Code, Discount: discount}, nil
}

// couponDiscount checks eligibility and computes the discount in whole rupees.
// The result is capped at MaxDiscountAmount and at the order value itself, so
// a total can never go negative.
func couponDiscount(coupon domain.Coupon, orderValue int64, now time.Time) (int64, error) {
	if !coupon.Active {
		return 0, fmt.Errorf("%w: code is inactive", ErrCouponNotApplicable)
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return 0, fmt.Errorf("%w: code expired", ErrCouponNotApplicable)
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return 0, fmt.Errorf("%w: usage limit reached", ErrCouponNotApplicable)
	}
	if coupon.MinOrderValue > 0 && orderValue < coupon.MinOrderValue {
		return 0, fmt.Errorf("%w: order below minimum value %d", ErrCouponNotApplicable, coupon.MinOrderValue)
	}

	var discount int64
	switch coupon.Type {
	case domain.CouponTypePercentage:
		discount = decimal.NewFromInt(orderValue).
			Mul(decimal.NewFromFloat(coupon.Value)).
			Div(decimal.NewFromInt(100)).
			Round(0).IntPart()
	case domain.CouponTypeFlat:
		discount = decimal.NewFromFloat(coupon.Value).Round(0).IntPart()
	default:
		return 0, fmt.Errorf("%w: unknown coupon type %q", ErrCouponNotApplicable, coupon.Type)
	}

	if coupon.MaxDiscountAmount > 0 && discount > coupon.MaxDiscountAmount {
		discount = coupon.MaxDiscountAmount
	}
	if discount > orderValue {
		discount = orderValue
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}
