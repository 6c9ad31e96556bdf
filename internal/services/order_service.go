package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const (
	orderEventCreated        = "order.created"
	orderEventConfirmed      = "order.payment.confirmed"
	orderEventStatusChanged  = "order.status.changed"
	orderEventIntentFailed   = "order.payment.intent_failed"
	orderEventCartClearError = "order.cart.clear_failed"

	orderIDPrefix = "ord_"

	defaultMinPartialPercent = 10.0
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order does not exist.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the actor may not act on this order.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderInvalidTransition indicates the target status is not reachable
	// from the order's current state.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderStockUnavailable indicates at least one item lacks inventory.
	ErrOrderStockUnavailable = errors.New("order: insufficient stock")
	// ErrOrderSignatureMismatch indicates the payment confirmation signature
	// did not verify against the shared secret.
	ErrOrderSignatureMismatch = errors.New("order: payment signature mismatch")
	// ErrOrderPaymentIntent wraps payment-intent creation failures after the
	// compensating order cleanup ran.
	ErrOrderPaymentIntent = errors.New("order: payment intent failed")
)

// orderStateTransitions is the settlement machine. delivered and cancelled
// are terminal.
var orderStateTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:        {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed:      {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing:     {domain.OrderStatusReadyForPickup, domain.OrderStatusOutForDelivery, domain.OrderStatusCancelled},
	domain.OrderStatusReadyForPickup: {domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusOutForDelivery: {domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusDelivered:      {},
	domain.OrderStatusCancelled:      {},
}

func canTransition(from, to domain.OrderStatus) bool {
	for _, allowed := range orderStateTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func validOrderStatus(status domain.OrderStatus) bool {
	_, ok := orderStateTransitions[status]
	return ok
}

// PaymentIntentRequest asks the gateway to open an intent for the payable amount.
type PaymentIntentRequest struct {
	OrderID     string
	OrderNumber string
	Amount      int64
	Currency    string
	CustomerID  string
	Metadata    map[string]string
}

// PaymentIntentResult carries the gateway references stored on the order.
type PaymentIntentResult struct {
	GatewayOrderID string
	Provider       string
	ClientSecret   string
}

// PaymentIntentCreator opens payment intents with the external gateway.
type PaymentIntentCreator interface {
	CreateIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntentResult, error)
}

// PaymentSignatureVerifier checks inbound confirmation signatures.
type PaymentSignatureVerifier interface {
	Verify(gatewayOrderID string, paymentID string, signature string) error
}

// OrderEventPublisher fans order lifecycle events out to interested consumers,
// for example a Pub/Sub topic feeding notification workers. Publishing is
// best-effort; failures are logged and never fail the order operation.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event string, payload map[string]any) (string, error)
}

// OrderServiceDeps enumerates collaborators required to construct the service.
type OrderServiceDeps struct {
	Orders            repositories.OrderRepository
	Products          repositories.ProductRepository
	Rates             repositories.RateRepository
	Coupons           repositories.CouponRepository
	Stock             repositories.StockRepository
	Carts             repositories.CartRepository
	Counters          CounterService
	Payments          PaymentIntentCreator
	Signatures        PaymentSignatureVerifier
	MinPartialPercent float64
	// DisablePartialPayments rejects orders requesting a split payment.
	// Partial payments stay enabled when the field is left at its zero value.
	DisablePartialPayments bool
	Events                 OrderEventPublisher
	Clock                  func() time.Time
	IDGenerator            func() string
	Logger                 func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders            repositories.OrderRepository
	products          repositories.ProductRepository
	rates             repositories.RateRepository
	coupons           repositories.CouponRepository
	stock             repositories.StockRepository
	carts             repositories.CartRepository
	counters          CounterService
	payments          PaymentIntentCreator
	signatures        PaymentSignatureVerifier
	minPartialPercent float64
	partialDisabled   bool
	events            OrderEventPublisher
	clock             func() time.Time
	newID             func() string
	logger            func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into an OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Rates == nil {
		return nil, errors.New("order service: rate repository is required")
	}
	if deps.Stock == nil {
		return nil, errors.New("order service: stock repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter service is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("order service: payment intent creator is required")
	}
	if deps.Signatures == nil {
		return nil, errors.New("order service: signature verifier is required")
	}

	minPartial := deps.MinPartialPercent
	if minPartial <= 0 {
		minPartial = defaultMinPartialPercent
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return orderIDPrefix + ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:            deps.Orders,
		products:          deps.Products,
		rates:             deps.Rates,
		coupons:           deps.Coupons,
		stock:             deps.Stock,
		carts:             deps.Carts,
		counters:          deps.Counters,
		payments:          deps.Payments,
		signatures:        deps.Signatures,
		minPartialPercent: minPartial,
		partialDisabled:   deps.DisablePartialPayments,
		events:            deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// Create re-prices every requested item against the live rate table, verifies
// stock, applies at most one coupon, persists the pending order with frozen
// price snapshots, and opens a payment intent for the payable amount. An
// intent failure deletes the just-created order so no orphaned pending order
// survives.
func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	if err := s.validateCreateCommand(cmd); err != nil {
		return Order{}, err
	}

	table, charges, err := loadRateContext(ctx, s.rates)
	if err != nil {
		return Order{}, err
	}

	now := s.clock()
	deliveryType := domain.DeliveryType(strings.ToLower(strings.TrimSpace(cmd.DeliveryType)))

	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for _, input := range cmd.Items {
		product, err := s.products.FindByID(ctx, strings.TrimSpace(input.ProductID))
		if err != nil {
			if isRepoNotFound(err) {
				return Order{}, fmt.Errorf("%w: product %s", ErrOrderInvalidInput, input.ProductID)
			}
			return Order{}, err
		}
		if !product.Active {
			return Order{}, fmt.Errorf("%w: product %s is not available", ErrOrderInvalidInput, product.ID)
		}

		if err := s.checkAvailability(ctx, product.ID, int64(input.Quantity)); err != nil {
			return Order{}, err
		}

		// Never trust a client-supplied price; the snapshot is resolved here
		// and frozen for the life of the order.
		breakdown, err := resolveVariantPrice(product, table, charges, variantSelection{
			MetalType:      domain.MetalType(strings.ToLower(strings.TrimSpace(input.MetalType))),
			Purity:         normalizePurity(input.Purity),
			Size:           strings.TrimSpace(input.Size),
			DiamondQuality: strings.ToUpper(strings.TrimSpace(input.DiamondQuality)),
		})
		if err != nil {
			return Order{}, err
		}

		items = append(items, domain.OrderItem{
			ProductID:              product.ID,
			Name:                   product.Name,
			SelectedMetalType:      breakdown.MetalType,
			SelectedPurity:         breakdown.Purity,
			SelectedSize:           breakdown.Size,
			SelectedDiamondQuality: breakdown.DiamondQuality,
			Quantity:               input.Quantity,
			PriceSnapshot:          breakdown,
		})
		subtotal = subtotal.Add(decimal.NewFromInt(breakdown.FinalPrice).Mul(decimal.NewFromInt(int64(input.Quantity))))
	}

	summary := domain.OrderSummary{Subtotal: subtotal.IntPart()}

	var applied *domain.AppliedCoupon
	if code := strings.ToUpper(strings.TrimSpace(cmd.CouponCode)); code != "" {
		// Coupons are optional wiring; without a repository every code is unknown.
		if s.coupons == nil {
			return Order{}, ErrCouponNotFound
		}
		coupon, err := s.coupons.FindByCode(ctx, code)
		if err != nil {
			if isRepoNotFound(err) {
				return Order{}, ErrCouponNotFound
			}
			return Order{}, err
		}
		discount, err := couponDiscount(coupon, summary.Subtotal, now)
		if err != nil {
			return Order{}, err
		}
		if err := s.coupons.IncrementUsage(ctx, code, now); err != nil {
			if isRepoConflict(err) {
				return Order{}, fmt.Errorf("%w: usage limit reached", ErrCouponNotApplicable)
			}
			return Order{}, err
		}
		summary.CouponDiscount = discount
		applied = &domain.AppliedCoupon{
			Code:     coupon.Code,
			Type:     coupon.Type,
			Value:    coupon.Value,
			Discount: discount,
		}
	}
	summary.TotalAmount = summary.Subtotal - summary.CouponDiscount

	payable := summary.TotalAmount
	var partial *domain.PartialPayment
	if cmd.PartialPayment {
		minAmount := decimal.NewFromInt(summary.TotalAmount).
			Mul(decimal.NewFromFloat(s.minPartialPercent)).
			Div(decimal.NewFromInt(100)).
			Ceil().IntPart()
		if cmd.PartialAmountPaid < minAmount || cmd.PartialAmountPaid > summary.TotalAmount {
			s.releaseCoupon(ctx, applied)
			return Order{}, fmt.Errorf("%w: partial payment must be between %d and %d", ErrOrderInvalidInput, minAmount, summary.TotalAmount)
		}
		payable = cmd.PartialAmountPaid
		partial = &domain.PartialPayment{
			AmountPaid:      cmd.PartialAmountPaid,
			RemainingAmount: summary.TotalAmount - cmd.PartialAmountPaid,
		}
	}

	orderNumber, err := s.counters.NextOrderNumber(ctx)
	if err != nil {
		s.releaseCoupon(ctx, applied)
		return Order{}, err
	}

	order := domain.Order{
		ID:              s.newID(),
		OrderNumber:     orderNumber,
		UserID:          strings.TrimSpace(cmd.UserID),
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		DeliveryType:    deliveryType,
		Items:           items,
		Summary:         summary,
		Coupon:          applied,
		PartialPayment:  partial,
		ShippingAddress: cmd.ShippingAddress,
		StoreID:         strings.TrimSpace(cmd.StoreID),
		TrackingUpdates: []domain.TrackingEntry{{
			Status:    domain.OrderStatusPending,
			Note:      "order created",
			Timestamp: now,
		}},
		Metadata:  cloneMap(cmd.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		s.releaseCoupon(ctx, applied)
		return Order{}, err
	}

	intent, err := s.payments.CreateIntent(ctx, PaymentIntentRequest{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      payable,
		Currency:    "INR",
		CustomerID:  order.UserID,
		Metadata: map[string]string{
			"orderNumber": order.OrderNumber,
		},
	})
	if err != nil {
		// Compensating cleanup: no orphaned pending orders.
		if deleteErr := s.orders.Delete(ctx, order.ID); deleteErr != nil {
			s.logger(ctx, orderEventIntentFailed, map[string]any{
				"orderId": order.ID,
				"error":   deleteErr.Error(),
			})
		}
		s.releaseCoupon(ctx, applied)
		return Order{}, fmt.Errorf("%w: %v", ErrOrderPaymentIntent, err)
	}

	order.Payment = domain.PaymentIntentRef{
		GatewayOrderID: intent.GatewayOrderID,
		Provider:       intent.Provider,
	}
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, orderEventCreated, map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"totalAmount": order.Summary.TotalAmount,
		"payable":     payable,
	})
	return order, nil
}

// ConfirmPayment verifies the gateway signature and applies the single
// pending to confirmed transition. A duplicate confirmation for an already
// settled order is a no-op success, so gateway retries never double-deduct
// inventory.
func (s *orderService) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (Order, error) {
	gatewayOrderID := strings.TrimSpace(cmd.GatewayOrderID)
	paymentID := strings.TrimSpace(cmd.PaymentID)
	if gatewayOrderID == "" || paymentID == "" || strings.TrimSpace(cmd.Signature) == "" {
		return Order{}, fmt.Errorf("%w: gateway order id, payment id, and signature are required", ErrOrderInvalidInput)
	}

	if err := s.signatures.Verify(gatewayOrderID, paymentID, cmd.Signature); err != nil {
		return Order{}, ErrOrderSignatureMismatch
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if isRepoNotFound(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	if userID := strings.TrimSpace(cmd.UserID); userID != "" && order.UserID != userID {
		return Order{}, ErrOrderForbidden
	}

	// Idempotent replay: settlement already happened.
	if order.PaymentStatus != domain.PaymentStatusPending {
		return order, nil
	}
	// A staff-confirmed order may still settle its pending payment; every
	// other non-pending state rejects the confirmation.
	if order.Status != domain.OrderStatusConfirmed && !canTransition(order.Status, domain.OrderStatusConfirmed) {
		return Order{}, fmt.Errorf("%w: %s to %s", ErrOrderInvalidTransition, order.Status, domain.OrderStatusConfirmed)
	}

	now := s.clock()
	if err := s.stock.Deduct(ctx, stockLines(order.Items), now); err != nil {
		var stockErr *repositories.StockError
		if errors.As(err, &stockErr) {
			return Order{}, fmt.Errorf("%w: %s", ErrOrderStockUnavailable, stockErr.Message)
		}
		return Order{}, err
	}

	order.Status = domain.OrderStatusConfirmed
	if order.PartialPayment != nil {
		order.PaymentStatus = domain.PaymentStatusPartial
	} else {
		order.PaymentStatus = domain.PaymentStatusPaid
	}
	order.Payment.PaymentID = paymentID
	if order.ConfirmedAt == nil {
		order.ConfirmedAt = &now
	}
	order.UpdatedAt = now
	order.TrackingUpdates = append(order.TrackingUpdates, domain.TrackingEntry{
		Status:    domain.OrderStatusConfirmed,
		Note:      "payment verified",
		Timestamp: now,
	})

	if err := s.orders.Update(ctx, order); err != nil {
		// Put the quantities back so a retry starts from a clean slate.
		if restoreErr := s.stock.Restore(ctx, stockLines(order.Items), now); restoreErr != nil {
			s.logger(ctx, "order.stock.restore_failed", map[string]any{
				"orderId": order.ID,
				"error":   restoreErr.Error(),
			})
		}
		return Order{}, err
	}

	if s.carts != nil {
		if err := s.carts.Clear(ctx, order.UserID); err != nil {
			s.logger(ctx, orderEventCartClearError, map[string]any{
				"orderId": order.ID,
				"userId":  order.UserID,
				"error":   err.Error(),
			})
		}
	}

	s.publishEvent(ctx, orderEventConfirmed, map[string]any{
		"orderId":       order.ID,
		"paymentId":     paymentID,
		"paymentStatus": string(order.PaymentStatus),
	})
	return order, nil
}

// UpdateStatus drives admin transitions along the settlement machine,
// appending tracking history and handling the delivered and cancelled
// special cases.
func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if !actorIsStaff(cmd.Actor) {
		return Order{}, ErrOrderForbidden
	}
	target := domain.OrderStatus(strings.ToLower(strings.TrimSpace(string(cmd.TargetStatus))))
	if !validOrderStatus(target) {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.TargetStatus)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isRepoNotFound(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	if !canTransition(order.Status, target) {
		return Order{}, fmt.Errorf("%w: %s to %s", ErrOrderInvalidTransition, order.Status, target)
	}

	now := s.clock()

	if cmd.EstimatedDeliveryDate != nil {
		newDate := cmd.EstimatedDeliveryDate.UTC()
		if order.EstimatedDeliveryDate != nil && newDate.After(*order.EstimatedDeliveryDate) {
			if strings.TrimSpace(cmd.DelayReason) == "" {
				return Order{}, fmt.Errorf("%w: delay reason is required when pushing the delivery date out", ErrOrderInvalidInput)
			}
			order.DelayHistory = append(order.DelayHistory, domain.DeliveryDelay{
				PreviousDate: *order.EstimatedDeliveryDate,
				NewDate:      newDate,
				Reason:       strings.TrimSpace(cmd.DelayReason),
				RecordedAt:   now,
				RecordedBy:   cmd.Actor.UserID,
			})
		}
		order.EstimatedDeliveryDate = &newDate
	}

	order.Status = target
	order.UpdatedAt = now
	order.TrackingUpdates = append(order.TrackingUpdates, domain.TrackingEntry{
		Status:    target,
		Note:      strings.TrimSpace(cmd.Note),
		Timestamp: now,
	})

	switch target {
	case domain.OrderStatusConfirmed:
		order.ConfirmedAt = &now
	case domain.OrderStatusDelivered:
		order.DeliveredAt = &now
		order.PaymentStatus = domain.PaymentStatusPaid
	case domain.OrderStatusCancelled:
		order.CancelledAt = &now
		order.CancelReason = strings.TrimSpace(cmd.CancelReason)
		order.RefundEligible = order.PaymentStatus == domain.PaymentStatusPaid || order.PaymentStatus == domain.PaymentStatusPartial
		if order.RefundEligible {
			order.PaymentStatus = domain.PaymentStatusRefundPending
		}
		// Inventory is only deducted when the gateway settles the payment,
		// which is also the only writer of PaymentID. A cancelled pending or
		// staff-confirmed-but-unpaid order has nothing to restore.
		if order.Payment.PaymentID != "" {
			if err := s.stock.Restore(ctx, stockLines(order.Items), now); err != nil {
				return Order{}, err
			}
		}
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, orderEventStatusChanged, map[string]any{
		"orderId": order.ID,
		"status":  string(target),
		"actor":   cmd.Actor.UserID,
	})
	return order, nil
}

func (s *orderService) Get(ctx context.Context, cmd GetOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isRepoNotFound(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	if !actorIsStaff(cmd.Actor) && order.UserID != strings.TrimSpace(cmd.Actor.UserID) {
		return Order{}, ErrOrderForbidden
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	return s.orders.List(ctx, repositories.OrderListFilter{
		UserID: strings.TrimSpace(filter.UserID),
		Status: filter.Status,
		DateRange: domain.RangeQuery[time.Time]{
			From: filter.From,
			To:   filter.To,
		},
		Pagination: filter.Pagination,
	})
}

func (s *orderService) validateCreateCommand(cmd CreateOrderCommand) error {
	if strings.TrimSpace(cmd.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrOrderInvalidInput)
	}
	for _, item := range cmd.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: item product id is required", ErrOrderInvalidInput)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", ErrOrderInvalidInput)
		}
	}

	if cmd.PartialPayment && s.partialDisabled {
		return fmt.Errorf("%w: partial payments are not accepted", ErrOrderInvalidInput)
	}

	switch domain.DeliveryType(strings.ToLower(strings.TrimSpace(cmd.DeliveryType))) {
	case domain.DeliveryTypePickup:
		if strings.TrimSpace(cmd.StoreID) == "" {
			return fmt.Errorf("%w: pickup orders require a store id", ErrOrderInvalidInput)
		}
	case domain.DeliveryTypeHome:
		if cmd.ShippingAddress == nil || strings.TrimSpace(cmd.ShippingAddress.Line1) == "" {
			return fmt.Errorf("%w: home delivery requires a shipping address", ErrOrderInvalidInput)
		}
		if cmd.PartialPayment {
			return fmt.Errorf("%w: home delivery orders require full payment", ErrOrderInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown delivery type %q", ErrOrderInvalidInput, cmd.DeliveryType)
	}
	return nil
}

func (s *orderService) checkAvailability(ctx context.Context, productID string, quantity int64) error {
	stock, err := s.stock.Get(ctx, productID)
	if err != nil {
		var stockErr *repositories.StockError
		if errors.As(err, &stockErr) && stockErr.Code == repositories.StockErrorNotFound {
			return fmt.Errorf("%w: no stock record for product %s", ErrOrderStockUnavailable, productID)
		}
		return err
	}
	if stock.Quantity < quantity {
		return fmt.Errorf("%w: product %s has %d in stock, %d requested", ErrOrderStockUnavailable, productID, stock.Quantity, quantity)
	}
	return nil
}

// releaseCoupon undoes an atomic usage increment during compensating cleanup.
func (s *orderService) releaseCoupon(ctx context.Context, applied *domain.AppliedCoupon) {
	if applied == nil || s.coupons == nil {
		return
	}
	if err := s.coupons.DecrementUsage(ctx, applied.Code); err != nil {
		s.logger(ctx, "order.coupon.release_failed", map[string]any{
			"code":  applied.Code,
			"error": err.Error(),
		})
	}
}

func (s *orderService) publishEvent(ctx context.Context, event string, fields map[string]any) {
	if s.logger != nil {
		s.logger(ctx, event, fields)
	}
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishOrderEvent(ctx, event, fields); err != nil && s.logger != nil {
		s.logger(ctx, "order.event.publish_failed", map[string]any{
			"event": event,
			"error": err.Error(),
		})
	}
}

func stockLines(items []domain.OrderItem) []repositories.StockLine {
	lines := make([]repositories.StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, repositories.StockLine{
			ProductID: item.ProductID,
			Quantity:  int64(item.Quantity),
		})
	}
	return lines
}

func actorIsStaff(actor Actor) bool {
	switch strings.ToLower(strings.TrimSpace(actor.Role)) {
	case "super", "admin", "staff":
		return true
	}
	return false
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

func isRepoConflict(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsConflict()
	}
	return false
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
