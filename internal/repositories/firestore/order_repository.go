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

const ordersCollection = "orders"

// OrderRepository persists order documents within Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Insert creates the order document, failing on ID collisions.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodeOrder(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Update replaces the order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.base.Set(ctx, id, encodeOrder(order))
	return err
}

// Delete removes the order document. Used only as compensating cleanup when
// payment-intent creation fails after the pending order was persisted.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("orders.delete", err)
	}
	return nil
}

// FindByID loads one order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(doc.ID, doc.Data), nil
}

// FindByGatewayOrderID resolves the order referenced by a gateway confirmation.
func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	gid := strings.TrimSpace(gatewayOrderID)
	if gid == "" {
		return domain.Order{}, errors.New("order repository: gateway order id is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("payment.gatewayOrderId", "==", gid).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.WrapError("orders.findByGatewayOrderId", status.Error(codes.NotFound, "order not found for gateway order id"))
	}
	return decodeOrder(docs[0].ID, docs[0].Data), nil
}

// List returns a page of orders, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	startAfter, err := timestampCursorValues(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if uid := strings.TrimSpace(filter.UserID); uid != "" {
			q = q.Where("userId", "==", uid)
		}
		if len(filter.Status) > 0 {
			q = q.Where("orderStatus", "in", filter.Status)
		}
		if filter.DateRange.From != nil {
			q = q.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			q = q.Where("createdAt", "<=", filter.DateRange.To.UTC())
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) > 0 {
			q = q.StartAfter(startAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	page := domain.CursorPage[domain.Order]{}
	for i, doc := range docs {
		if i == pageSize {
			token, err := timestampCursorToken(docs[i-1].Data.CreatedAt, docs[i-1].ID)
			if err != nil {
				return domain.CursorPage[domain.Order]{}, err
			}
			page.NextPageToken = token
			break
		}
		page.Items = append(page.Items, decodeOrder(doc.ID, doc.Data))
	}
	return page, nil
}

func encodeOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		OrderStatus:   string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		DeliveryType:  string(order.DeliveryType),
		Summary: orderSummaryDocument{
			Subtotal:       order.Summary.Subtotal,
			CouponDiscount: order.Summary.CouponDiscount,
			TotalAmount:    order.Summary.TotalAmount,
		},
		Payment: paymentRefDocument{
			GatewayOrderID: order.Payment.GatewayOrderID,
			PaymentID:      order.Payment.PaymentID,
			Provider:       order.Payment.Provider,
		},
		StoreID:        order.StoreID,
		RefundEligible: order.RefundEligible,
		CancelReason:   order.CancelReason,
		Metadata:       cloneAnyMap(order.Metadata),
		CreatedAt:      order.CreatedAt.UTC(),
		UpdatedAt:      order.UpdatedAt.UTC(),
	}

	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDocument{
			ProductID:              item.ProductID,
			Name:                   item.Name,
			SelectedMetalType:      string(item.SelectedMetalType),
			SelectedPurity:         item.SelectedPurity,
			SelectedSize:           item.SelectedSize,
			SelectedDiamondQuality: item.SelectedDiamondQuality,
			Quantity:               item.Quantity,
			PriceSnapshot:          encodeBreakdown(item.PriceSnapshot),
		})
	}
	for _, entry := range order.TrackingUpdates {
		doc.TrackingUpdates = append(doc.TrackingUpdates, trackingEntryDocument{
			Status:    string(entry.Status),
			Note:      entry.Note,
			Timestamp: entry.Timestamp.UTC(),
		})
	}
	for _, delay := range order.DelayHistory {
		doc.DelayHistory = append(doc.DelayHistory, deliveryDelayDocument{
			PreviousDate: delay.PreviousDate.UTC(),
			NewDate:      delay.NewDate.UTC(),
			Reason:       delay.Reason,
			RecordedAt:   delay.RecordedAt.UTC(),
			RecordedBy:   delay.RecordedBy,
		})
	}
	if order.Coupon != nil {
		doc.Coupon = &appliedCouponDocument{
			Code:     order.Coupon.Code,
			Type:     order.Coupon.Type,
			Value:    order.Coupon.Value,
			Discount: order.Coupon.Discount,
		}
	}
	if order.PartialPayment != nil {
		doc.PartialPayment = &partialPaymentDocument{
			AmountPaid:      order.PartialPayment.AmountPaid,
			RemainingAmount: order.PartialPayment.RemainingAmount,
		}
	}
	if order.ShippingAddress != nil {
		doc.ShippingAddress = &addressDocument{
			Name:       order.ShippingAddress.Name,
			Line1:      order.ShippingAddress.Line1,
			Line2:      order.ShippingAddress.Line2,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
			Phone:      order.ShippingAddress.Phone,
		}
	}
	if order.EstimatedDeliveryDate != nil {
		estimated := order.EstimatedDeliveryDate.UTC()
		doc.EstimatedDeliveryDate = &estimated
	}
	if order.ConfirmedAt != nil {
		confirmed := order.ConfirmedAt.UTC()
		doc.ConfirmedAt = &confirmed
	}
	if order.DeliveredAt != nil {
		delivered := order.DeliveredAt.UTC()
		doc.DeliveredAt = &delivered
	}
	if order.CancelledAt != nil {
		cancelled := order.CancelledAt.UTC()
		doc.CancelledAt = &cancelled
	}
	return doc
}

func decodeOrder(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:            id,
		OrderNumber:   doc.OrderNumber,
		UserID:        doc.UserID,
		Status:        domain.OrderStatus(doc.OrderStatus),
		PaymentStatus: domain.PaymentStatus(doc.PaymentStatus),
		DeliveryType:  domain.DeliveryType(doc.DeliveryType),
		Summary: domain.OrderSummary{
			Subtotal:       doc.Summary.Subtotal,
			CouponDiscount: doc.Summary.CouponDiscount,
			TotalAmount:    doc.Summary.TotalAmount,
		},
		Payment: domain.PaymentIntentRef{
			GatewayOrderID: doc.Payment.GatewayOrderID,
			PaymentID:      doc.Payment.PaymentID,
			Provider:       doc.Payment.Provider,
		},
		StoreID:               doc.StoreID,
		RefundEligible:        doc.RefundEligible,
		CancelReason:          doc.CancelReason,
		Metadata:              cloneAnyMap(doc.Metadata),
		CreatedAt:             doc.CreatedAt,
		UpdatedAt:             doc.UpdatedAt,
		EstimatedDeliveryDate: doc.EstimatedDeliveryDate,
		ConfirmedAt:           doc.ConfirmedAt,
		DeliveredAt:           doc.DeliveredAt,
		CancelledAt:           doc.CancelledAt,
	}

	for _, item := range doc.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:              item.ProductID,
			Name:                   item.Name,
			SelectedMetalType:      domain.MetalType(item.SelectedMetalType),
			SelectedPurity:         item.SelectedPurity,
			SelectedSize:           item.SelectedSize,
			SelectedDiamondQuality: item.SelectedDiamondQuality,
			Quantity:               item.Quantity,
			PriceSnapshot:          decodeBreakdown(item.PriceSnapshot),
		})
	}
	for _, entry := range doc.TrackingUpdates {
		order.TrackingUpdates = append(order.TrackingUpdates, domain.TrackingEntry{
			Status:    domain.OrderStatus(entry.Status),
			Note:      entry.Note,
			Timestamp: entry.Timestamp,
		})
	}
	for _, delay := range doc.DelayHistory {
		order.DelayHistory = append(order.DelayHistory, domain.DeliveryDelay{
			PreviousDate: delay.PreviousDate,
			NewDate:      delay.NewDate,
			Reason:       delay.Reason,
			RecordedAt:   delay.RecordedAt,
			RecordedBy:   delay.RecordedBy,
		})
	}
	if doc.Coupon != nil {
		order.Coupon = &domain.AppliedCoupon{
			Code:     doc.Coupon.Code,
			Type:     doc.Coupon.Type,
			Value:    doc.Coupon.Value,
			Discount: doc.Coupon.Discount,
		}
	}
	if doc.PartialPayment != nil {
		order.PartialPayment = &domain.PartialPayment{
			AmountPaid:      doc.PartialPayment.AmountPaid,
			RemainingAmount: doc.PartialPayment.RemainingAmount,
		}
	}
	if doc.ShippingAddress != nil {
		order.ShippingAddress = &domain.Address{
			Name:       doc.ShippingAddress.Name,
			Line1:      doc.ShippingAddress.Line1,
			Line2:      doc.ShippingAddress.Line2,
			City:       doc.ShippingAddress.City,
			State:      doc.ShippingAddress.State,
			PostalCode: doc.ShippingAddress.PostalCode,
			Country:    doc.ShippingAddress.Country,
			Phone:      doc.ShippingAddress.Phone,
		}
	}
	return order
}

type orderDocument struct {
	OrderNumber           string                  `firestore:"orderNumber"`
	UserID                string                  `firestore:"userId"`
	OrderStatus           string                  `firestore:"orderStatus"`
	PaymentStatus         string                  `firestore:"paymentStatus"`
	DeliveryType          string                  `firestore:"deliveryType"`
	Items                 []orderItemDocument     `firestore:"items"`
	Summary               orderSummaryDocument    `firestore:"orderSummary"`
	Coupon                *appliedCouponDocument  `firestore:"coupon,omitempty"`
	PartialPayment        *partialPaymentDocument `firestore:"partialPayment,omitempty"`
	ShippingAddress       *addressDocument        `firestore:"shippingAddress,omitempty"`
	StoreID               string                  `firestore:"storeId,omitempty"`
	Payment               paymentRefDocument      `firestore:"payment"`
	TrackingUpdates       []trackingEntryDocument `firestore:"trackingUpdates,omitempty"`
	DelayHistory          []deliveryDelayDocument `firestore:"delayHistory,omitempty"`
	EstimatedDeliveryDate *time.Time              `firestore:"estimatedDeliveryDate,omitempty"`
	RefundEligible        bool                    `firestore:"refundEligible,omitempty"`
	CancelReason          string                  `firestore:"cancelReason,omitempty"`
	Metadata              map[string]any          `firestore:"metadata,omitempty"`
	CreatedAt             time.Time               `firestore:"createdAt"`
	UpdatedAt             time.Time               `firestore:"updatedAt"`
	ConfirmedAt           *time.Time              `firestore:"confirmedAt,omitempty"`
	DeliveredAt           *time.Time              `firestore:"deliveredAt,omitempty"`
	CancelledAt           *time.Time              `firestore:"cancelledAt,omitempty"`
}

type orderItemDocument struct {
	ProductID              string                 `firestore:"productId"`
	Name                   string                 `firestore:"name,omitempty"`
	SelectedMetalType      string                 `firestore:"selectedMetalType,omitempty"`
	SelectedPurity         string                 `firestore:"selectedPurity,omitempty"`
	SelectedSize           string                 `firestore:"selectedSize,omitempty"`
	SelectedDiamondQuality string                 `firestore:"selectedDiamondQuality,omitempty"`
	Quantity               int                    `firestore:"quantity"`
	PriceSnapshot          priceBreakdownDocument `firestore:"priceSnapshot"`
}

type orderSummaryDocument struct {
	Subtotal       int64 `firestore:"subtotal"`
	CouponDiscount int64 `firestore:"couponDiscount"`
	TotalAmount    int64 `firestore:"totalAmount"`
}

type appliedCouponDocument struct {
	Code     string  `firestore:"code"`
	Type     string  `firestore:"type"`
	Value    float64 `firestore:"value"`
	Discount int64   `firestore:"discount"`
}

type partialPaymentDocument struct {
	AmountPaid      int64 `firestore:"amountPaid"`
	RemainingAmount int64 `firestore:"remainingAmount"`
}

type addressDocument struct {
	Name       string `firestore:"name,omitempty"`
	Line1      string `firestore:"line1"`
	Line2      string `firestore:"line2,omitempty"`
	City       string `firestore:"city"`
	State      string `firestore:"state"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
	Phone      string `firestore:"phone,omitempty"`
}

type paymentRefDocument struct {
	GatewayOrderID string `firestore:"gatewayOrderId,omitempty"`
	PaymentID      string `firestore:"paymentId,omitempty"`
	Provider       string `firestore:"provider,omitempty"`
}

type trackingEntryDocument struct {
	Status    string    `firestore:"status"`
	Note      string    `firestore:"note,omitempty"`
	Timestamp time.Time `firestore:"timestamp"`
}

type deliveryDelayDocument struct {
	PreviousDate time.Time `firestore:"previousDate"`
	NewDate      time.Time `firestore:"newDate"`
	Reason       string    `firestore:"reason"`
	RecordedAt   time.Time `firestore:"recordedAt"`
	RecordedBy   string    `firestore:"recordedBy,omitempty"`
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
