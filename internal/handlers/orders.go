package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/platform/auth"
	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/platform/pagination"
	"github.com/aurelia-jewels/api/internal/services"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
	maxOrderBodySize     = 64 * 1024
)

// OrderHandlers exposes order creation and payment confirmation for
// authenticated buyers.
type OrderHandlers struct {
	authn   *auth.Authenticator
	orders  services.OrderService
	limiter RateLimiter
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, limiter RateLimiter) *OrderHandlers {
	return &OrderHandlers{
		authn:   authn,
		orders:  orders,
		limiter: limiter,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/payment:confirm", h.confirmPayment)
}

type createOrderItemRequest struct {
	ProductID      string `json:"product_id"`
	MetalType      string `json:"metal_type"`
	Purity         string `json:"purity"`
	Size           string `json:"size"`
	Color          string `json:"color"`
	DiamondQuality string `json:"diamond_quality"`
	Quantity       int    `json:"quantity"`
}

type orderAddressRequest struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type createOrderRequest struct {
	Items             []createOrderItemRequest `json:"items"`
	DeliveryType      string                   `json:"delivery_type"`
	ShippingAddress   *orderAddressRequest     `json:"shipping_address"`
	StoreID           string                   `json:"store_id"`
	CouponCode        string                   `json:"coupon_code"`
	PartialPayment    bool                     `json:"partial_payment"`
	PartialAmountPaid int64                    `json:"partial_amount_paid"`
	Metadata          map[string]any           `json:"metadata"`
}

type confirmPaymentRequest struct {
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	Signature      string `json:"signature"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireOrderIdentity(ctx, w, h.orders)
	if !ok {
		return
	}

	if h.limiter != nil && !h.limiter.Allow(identity.UID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many order attempts, try again shortly", http.StatusTooManyRequests))
		return
	}

	var req createOrderRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	cmd := services.CreateOrderCommand{
		UserID:            strings.TrimSpace(identity.UID),
		DeliveryType:      strings.TrimSpace(req.DeliveryType),
		StoreID:           strings.TrimSpace(req.StoreID),
		CouponCode:        strings.TrimSpace(req.CouponCode),
		PartialPayment:    req.PartialPayment,
		PartialAmountPaid: req.PartialAmountPaid,
		Metadata:          cloneMap(req.Metadata),
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, services.CreateOrderItemInput{
			ProductID:      strings.TrimSpace(item.ProductID),
			MetalType:      strings.TrimSpace(item.MetalType),
			Purity:         strings.TrimSpace(item.Purity),
			Size:           strings.TrimSpace(item.Size),
			Color:          strings.TrimSpace(item.Color),
			DiamondQuality: strings.TrimSpace(item.DiamondQuality),
			Quantity:       item.Quantity,
		})
	}
	if req.ShippingAddress != nil {
		address := services.Address{
			Name:       strings.TrimSpace(req.ShippingAddress.Name),
			Line1:      strings.TrimSpace(req.ShippingAddress.Line1),
			Line2:      strings.TrimSpace(req.ShippingAddress.Line2),
			City:       strings.TrimSpace(req.ShippingAddress.City),
			State:      strings.TrimSpace(req.ShippingAddress.State),
			PostalCode: strings.TrimSpace(req.ShippingAddress.PostalCode),
			Country:    strings.TrimSpace(req.ShippingAddress.Country),
			Phone:      strings.TrimSpace(req.ShippingAddress.Phone),
		}
		cmd.ShippingAddress = &address
	}

	order, err := h.orders.Create(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireOrderIdentity(ctx, w, h.orders)
	if !ok {
		return
	}

	var req confirmPaymentRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	order, err := h.orders.ConfirmPayment(ctx, services.ConfirmPaymentCommand{
		GatewayOrderID: strings.TrimSpace(req.GatewayOrderID),
		PaymentID:      strings.TrimSpace(req.PaymentID),
		Signature:      strings.TrimSpace(req.Signature),
		UserID:         strings.TrimSpace(identity.UID),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID != "" && order.ID != orderID {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireOrderIdentity(ctx, w, h.orders)
	if !ok {
		return
	}

	filter, ok := parseOrderListFilter(ctx, w, r)
	if !ok {
		return
	}
	filter.UserID = strings.TrimSpace(identity.UID)

	page, err := h.orders.List(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderSummaryPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildOrderSummary(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireOrderIdentity(ctx, w, h.orders)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.Get(ctx, services.GetOrderCommand{
		OrderID: orderID,
		Actor:   actorFromIdentity(identity),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func requireOrderIdentity(ctx context.Context, w http.ResponseWriter, orders services.OrderService) (*auth.Identity, bool) {
	if orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func decodeOrderBody(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		} else {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if len(body) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return false
	}
	return true
}

func parseOrderListFilter(ctx context.Context, w http.ResponseWriter, r *http.Request) (services.OrderListFilter, bool) {
	query := r.URL.Query()
	filter := services.OrderListFilter{
		Status: parseFilterValues(query["status"]),
	}
	if raw := strings.TrimSpace(query.Get("created_after")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_after must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.OrderListFilter{}, false
		}
		filter.From = &ts
	}
	if raw := strings.TrimSpace(query.Get("created_before")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_before must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.OrderListFilter{}, false
		}
		filter.To = &ts
	}
	pageSize, err := parsePageSize(query.Get("page_size"), defaultOrderPageSize, maxOrderPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be an integer", http.StatusBadRequest))
		return services.OrderListFilter{}, false
	}
	filter.Pagination = services.Pagination{
		PageSize:  pageSize,
		PageToken: strings.TrimSpace(query.Get("page_token")),
	}
	return filter, true
}

type orderListResponse struct {
	Items         []orderSummaryPayload `json:"items"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}

type orderSummaryPayload struct {
	ID            string `json:"id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	DeliveryType  string `json:"delivery_type"`
	Total         int64  `json:"total"`
	CreatedAt     string `json:"created_at"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID                    string                 `json:"id"`
	OrderNumber           string                 `json:"order_number"`
	UserID                string                 `json:"user_id"`
	Status                string                 `json:"status"`
	PaymentStatus         string                 `json:"payment_status"`
	DeliveryType          string                 `json:"delivery_type"`
	Items                 []orderItemPayload     `json:"items"`
	Summary               orderSummaryTotals     `json:"summary"`
	Coupon                *appliedCouponPayload  `json:"coupon,omitempty"`
	PartialPayment        *partialPaymentPayload `json:"partial_payment,omitempty"`
	ShippingAddress       *orderAddressRequest   `json:"shipping_address,omitempty"`
	StoreID               string                 `json:"store_id,omitempty"`
	Payment               *paymentRefPayload     `json:"payment,omitempty"`
	Tracking              []trackingPayload      `json:"tracking,omitempty"`
	DelayHistory          []delayPayload         `json:"delay_history,omitempty"`
	EstimatedDeliveryDate string                 `json:"estimated_delivery_date,omitempty"`
	RefundEligible        bool                   `json:"refund_eligible,omitempty"`
	CancelReason          string                 `json:"cancel_reason,omitempty"`
	CreatedAt             string                 `json:"created_at"`
	UpdatedAt             string                 `json:"updated_at,omitempty"`
	ConfirmedAt           string                 `json:"confirmed_at,omitempty"`
	DeliveredAt           string                 `json:"delivered_at,omitempty"`
	CancelledAt           string                 `json:"cancelled_at,omitempty"`
}

type orderItemPayload struct {
	ProductID      string                `json:"product_id"`
	Name           string                `json:"name,omitempty"`
	MetalType      string                `json:"metal_type,omitempty"`
	Purity         string                `json:"purity,omitempty"`
	Size           string                `json:"size,omitempty"`
	DiamondQuality string                `json:"diamond_quality,omitempty"`
	Quantity       int                   `json:"quantity"`
	PriceSnapshot  priceBreakdownPayload `json:"price_snapshot"`
}

type orderSummaryTotals struct {
	Subtotal       int64 `json:"subtotal"`
	CouponDiscount int64 `json:"coupon_discount"`
	TotalAmount    int64 `json:"total_amount"`
}

type appliedCouponPayload struct {
	Code     string  `json:"code"`
	Type     string  `json:"type"`
	Value    float64 `json:"value"`
	Discount int64   `json:"discount"`
}

type partialPaymentPayload struct {
	AmountPaid      int64 `json:"amount_paid"`
	RemainingAmount int64 `json:"remaining_amount"`
}

type paymentRefPayload struct {
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
	PaymentID      string `json:"payment_id,omitempty"`
	Provider       string `json:"provider,omitempty"`
}

type trackingPayload struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	Timestamp string `json:"timestamp"`
}

type delayPayload struct {
	PreviousDate string `json:"previous_date"`
	NewDate      string `json:"new_date"`
	Reason       string `json:"reason"`
	RecordedAt   string `json:"recorded_at"`
	RecordedBy   string `json:"recorded_by,omitempty"`
}

func buildOrderSummary(order services.Order) orderSummaryPayload {
	return orderSummaryPayload{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		DeliveryType:  string(order.DeliveryType),
		Total:         order.Summary.TotalAmount,
		CreatedAt:     formatTime(order.CreatedAt),
	}
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		DeliveryType:  string(order.DeliveryType),
		Items:         make([]orderItemPayload, 0, len(order.Items)),
		Summary: orderSummaryTotals{
			Subtotal:       order.Summary.Subtotal,
			CouponDiscount: order.Summary.CouponDiscount,
			TotalAmount:    order.Summary.TotalAmount,
		},
		StoreID:        order.StoreID,
		RefundEligible: order.RefundEligible,
		CancelReason:   order.CancelReason,
		CreatedAt:      formatTime(order.CreatedAt),
		UpdatedAt:      formatTime(order.UpdatedAt),
		ConfirmedAt:    formatTime(pointerTime(order.ConfirmedAt)),
		DeliveredAt:    formatTime(pointerTime(order.DeliveredAt)),
		CancelledAt:    formatTime(pointerTime(order.CancelledAt)),
	}
	if order.EstimatedDeliveryDate != nil {
		payload.EstimatedDeliveryDate = formatTime(*order.EstimatedDeliveryDate)
	}

	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ProductID:      item.ProductID,
			Name:           item.Name,
			MetalType:      string(item.SelectedMetalType),
			Purity:         item.SelectedPurity,
			Size:           item.SelectedSize,
			DiamondQuality: item.SelectedDiamondQuality,
			Quantity:       item.Quantity,
			PriceSnapshot:  buildBreakdownPayload(item.PriceSnapshot),
		})
	}

	if order.Coupon != nil {
		payload.Coupon = &appliedCouponPayload{
			Code:     order.Coupon.Code,
			Type:     order.Coupon.Type,
			Value:    order.Coupon.Value,
			Discount: order.Coupon.Discount,
		}
	}
	if order.PartialPayment != nil {
		payload.PartialPayment = &partialPaymentPayload{
			AmountPaid:      order.PartialPayment.AmountPaid,
			RemainingAmount: order.PartialPayment.RemainingAmount,
		}
	}
	if order.ShippingAddress != nil {
		payload.ShippingAddress = &orderAddressRequest{
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
	if order.Payment.GatewayOrderID != "" || order.Payment.PaymentID != "" || order.Payment.Provider != "" {
		payload.Payment = &paymentRefPayload{
			GatewayOrderID: order.Payment.GatewayOrderID,
			PaymentID:      order.Payment.PaymentID,
			Provider:       order.Payment.Provider,
		}
	}
	for _, entry := range order.TrackingUpdates {
		payload.Tracking = append(payload.Tracking, trackingPayload{
			Status:    string(entry.Status),
			Note:      entry.Note,
			Timestamp: formatTime(entry.Timestamp),
		})
	}
	for _, delay := range order.DelayHistory {
		payload.DelayHistory = append(payload.DelayHistory, delayPayload{
			PreviousDate: formatTime(delay.PreviousDate),
			NewDate:      formatTime(delay.NewDate),
			Reason:       delay.Reason,
			RecordedAt:   formatTime(delay.RecordedAt),
			RecordedBy:   delay.RecordedBy,
		})
	}
	return payload
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, pagination.ErrInvalidPageToken):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page_token is not valid", http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "forbidden", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderStockUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("stock_unavailable", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderSignatureMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("signature_mismatch", "payment signature verification failed", http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderPaymentIntent):
		httpx.WriteError(ctx, w, httpx.NewError("payment_intent_failed", "payment gateway rejected the order", http.StatusBadGateway))
	case errors.Is(err, services.ErrCouponNotFound), errors.Is(err, services.ErrCouponNotApplicable), errors.Is(err, services.ErrCouponInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_invalid", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPricingRateUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("pricing_rate_unavailable", "metal rates unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
