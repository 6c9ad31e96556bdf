package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/platform/auth"
	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/platform/pagination"
	"github.com/aurelia-jewels/api/internal/services"
)

const (
	defaultAdminPageSize = 20
	maxAdminPageSize     = 100
)

// AdminHandlers exposes the staff console: order settlement, the maker-checker
// mutation queue, the rate table and audit history.
type AdminHandlers struct {
	authn     *auth.Authenticator
	orders    services.OrderService
	approvals services.ApprovalService
	rates     services.RateService
	system    services.SystemService
	audit     services.AuditLogService
}

// AdminHandlersDeps enumerates the services the admin surface needs.
type AdminHandlersDeps struct {
	Authenticator *auth.Authenticator
	Orders        services.OrderService
	Approvals     services.ApprovalService
	Rates         services.RateService
	System        services.SystemService
	Audit         services.AuditLogService
}

// NewAdminHandlers constructs a new AdminHandlers instance.
func NewAdminHandlers(deps AdminHandlersDeps) *AdminHandlers {
	return &AdminHandlers{
		authn:     deps.Authenticator,
		orders:    deps.Orders,
		approvals: deps.Approvals,
		rates:     deps.Rates,
		system:    deps.System,
		audit:     deps.Audit,
	}
}

// Routes registers the /admin endpoints.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleStaff, auth.RoleAdmin, auth.RoleSuper))
	}
	r.Get("/orders", h.listOrders)
	r.Patch("/orders/{orderID}/status", h.updateOrderStatus)
	r.Post("/mutations", h.submitMutation)
	r.Get("/approvals", h.listApprovals)
	r.Get("/approvals/{approvalID}", h.getApproval)
	r.Post("/approvals/{approvalID}:review", h.reviewApproval)
	r.Get("/rates", h.getRates)
	r.Put("/rates", h.updateRates)
	r.Get("/rates/charges", h.getChargeConfig)
	r.Put("/rates/charges", h.updateChargeConfig)
	r.Get("/audit-logs", h.listAuditLogs)
	r.Get("/system/health", h.systemHealth)
}

func (h *AdminHandlers) requireIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func (h *AdminHandlers) recordAudit(ctx context.Context, r *http.Request, identity *auth.Identity, action, targetRef string, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	ip, userAgent, requestID := requestAuditContext(r)
	h.audit.Record(ctx, services.AuditLogRecord{
		Actor:     identity.UID,
		ActorType: actorFromIdentity(identity).Role,
		Action:    action,
		TargetRef: targetRef,
		Metadata:  metadata,
		IPAddress: ip,
		UserAgent: userAgent,
		RequestID: requestID,
	})
}

// Orders --------------------------------------------------------------------

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := h.requireIdentity(ctx, w); !ok {
		return
	}

	filter, ok := parseOrderListFilter(ctx, w, r)
	if !ok {
		return
	}
	filter.UserID = strings.TrimSpace(r.URL.Query().Get("user_id"))

	page, err := h.orders.List(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, adminOrderListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

type adminOrderListResponse struct {
	Items         []orderPayload `json:"items"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type updateOrderStatusRequest struct {
	Status                string `json:"status"`
	Note                  string `json:"note"`
	CancelReason          string `json:"cancel_reason"`
	EstimatedDeliveryDate string `json:"estimated_delivery_date"`
	DelayReason           string `json:"delay_reason"`
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	var req updateOrderStatusRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	cmd := services.UpdateOrderStatusCommand{
		Actor:        actorFromIdentity(identity),
		OrderID:      orderID,
		TargetStatus: services.OrderStatus(strings.TrimSpace(req.Status)),
		Note:         strings.TrimSpace(req.Note),
		CancelReason: strings.TrimSpace(req.CancelReason),
		DelayReason:  strings.TrimSpace(req.DelayReason),
	}
	if raw := strings.TrimSpace(req.EstimatedDeliveryDate); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "estimated_delivery_date must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		cmd.EstimatedDeliveryDate = &ts
	}

	order, err := h.orders.UpdateStatus(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	h.recordAudit(ctx, r, identity, "orders.status", "orders/"+order.ID, map[string]any{
		"status": string(order.Status),
	})
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

// Approval gate -------------------------------------------------------------

type submitMutationRequest struct {
	EntityType      string         `json:"entity_type"`
	EntityID        string         `json:"entity_id"`
	Action          string         `json:"action"`
	ProposedChanges map[string]any `json:"proposed_changes"`
}

type mutationOutcomeResponse struct {
	Applied    bool   `json:"applied"`
	EntityID   string `json:"entity_id,omitempty"`
	ApprovalID string `json:"approval_id,omitempty"`
	Status     string `json:"status,omitempty"`
}

func (h *AdminHandlers) submitMutation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.approvals == nil {
		httpx.WriteError(ctx, w, httpx.NewError("approval_service_unavailable", "approval service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req submitMutationRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	outcome, err := h.approvals.Submit(ctx, services.SubmitMutationCommand{
		Actor:           actorFromIdentity(identity),
		EntityType:      strings.TrimSpace(req.EntityType),
		EntityID:        strings.TrimSpace(req.EntityID),
		Action:          services.ApprovalAction(strings.ToLower(strings.TrimSpace(req.Action))),
		ProposedChanges: req.ProposedChanges,
	})
	if err != nil {
		writeApprovalError(ctx, w, err)
		return
	}

	h.recordAudit(ctx, r, identity, "mutations.submit", req.EntityType+"/"+outcome.EntityID, map[string]any{
		"action":     req.Action,
		"applied":    outcome.Applied,
		"approvalId": outcome.ApprovalID,
	})

	status := http.StatusOK
	if !outcome.Applied {
		status = http.StatusAccepted
	}
	writeJSONResponse(w, status, mutationOutcomeResponse{
		Applied:    outcome.Applied,
		EntityID:   outcome.EntityID,
		ApprovalID: outcome.ApprovalID,
		Status:     string(outcome.Status),
	})
}

type approvalPayload struct {
	ID              string         `json:"id"`
	EntityType      string         `json:"entity_type"`
	EntityID        string         `json:"entity_id"`
	Action          string         `json:"action"`
	ProposedChanges map[string]any `json:"proposed_changes,omitempty"`
	PreviousState   map[string]any `json:"previous_state,omitempty"`
	Status          string         `json:"status"`
	SubmittedBy     string         `json:"submitted_by"`
	ReviewedBy      string         `json:"reviewed_by,omitempty"`
	ReviewNote      string         `json:"review_note,omitempty"`
	SubmittedAt     string         `json:"submitted_at"`
	ReviewedAt      string         `json:"reviewed_at,omitempty"`
}

type approvalListResponse struct {
	Items         []approvalPayload `json:"items"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func buildApprovalPayload(approval services.PendingApproval) approvalPayload {
	return approvalPayload{
		ID:              approval.ID,
		EntityType:      approval.EntityType,
		EntityID:        approval.EntityID,
		Action:          string(approval.Action),
		ProposedChanges: approval.ProposedChanges,
		PreviousState:   approval.PreviousState,
		Status:          string(approval.Status),
		SubmittedBy:     approval.SubmittedBy,
		ReviewedBy:      approval.ReviewedBy,
		ReviewNote:      approval.ReviewNote,
		SubmittedAt:     formatTime(approval.SubmittedAt),
		ReviewedAt:      formatTime(pointerTime(approval.ReviewedAt)),
	}
}

func (h *AdminHandlers) listApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.approvals == nil {
		httpx.WriteError(ctx, w, httpx.NewError("approval_service_unavailable", "approval service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := h.requireIdentity(ctx, w); !ok {
		return
	}

	query := r.URL.Query()
	pageSize, err := parsePageSize(query.Get("page_size"), defaultAdminPageSize, maxAdminPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be an integer", http.StatusBadRequest))
		return
	}

	page, err := h.approvals.List(ctx, services.ApprovalListFilter{
		EntityType:  strings.TrimSpace(query.Get("entity_type")),
		Status:      parseFilterValues(query["status"]),
		SubmittedBy: strings.TrimSpace(query.Get("submitted_by")),
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	})
	if err != nil {
		writeApprovalError(ctx, w, err)
		return
	}

	items := make([]approvalPayload, 0, len(page.Items))
	for _, approval := range page.Items {
		items = append(items, buildApprovalPayload(approval))
	}
	writeJSONResponse(w, http.StatusOK, approvalListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *AdminHandlers) getApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.approvals == nil {
		httpx.WriteError(ctx, w, httpx.NewError("approval_service_unavailable", "approval service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := h.requireIdentity(ctx, w); !ok {
		return
	}

	approval, err := h.approvals.Get(ctx, strings.TrimSpace(chi.URLParam(r, "approvalID")))
	if err != nil {
		writeApprovalError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]approvalPayload{"approval": buildApprovalPayload(approval)})
}

type reviewApprovalRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

func (h *AdminHandlers) reviewApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.approvals == nil {
		httpx.WriteError(ctx, w, httpx.NewError("approval_service_unavailable", "approval service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req reviewApprovalRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	approval, err := h.approvals.Review(ctx, services.ReviewApprovalCommand{
		Actor:      actorFromIdentity(identity),
		ApprovalID: strings.TrimSpace(chi.URLParam(r, "approvalID")),
		Approve:    req.Approve,
		Note:       strings.TrimSpace(req.Note),
	})
	if err != nil {
		writeApprovalError(ctx, w, err)
		return
	}

	h.recordAudit(ctx, r, identity, "approvals.review", "approvals/"+approval.ID, map[string]any{
		"approve":    req.Approve,
		"entityType": approval.EntityType,
		"entityId":   approval.EntityID,
	})
	writeJSONResponse(w, http.StatusOK, map[string]approvalPayload{"approval": buildApprovalPayload(approval)})
}

// Rates ---------------------------------------------------------------------

type rateTablePayload struct {
	Version   string             `json:"version,omitempty"`
	Gold      map[string]float64 `json:"gold,omitempty"`
	Silver    map[string]float64 `json:"silver,omitempty"`
	Platinum  map[string]float64 `json:"platinum,omitempty"`
	Diamond   map[string]float64 `json:"diamond,omitempty"`
	UpdatedAt string             `json:"updated_at,omitempty"`
	UpdatedBy string             `json:"updated_by,omitempty"`
}

func buildRateTablePayload(table services.RateTable) rateTablePayload {
	return rateTablePayload{
		Version:   table.Version,
		Gold:      table.Gold,
		Silver:    table.Silver,
		Platinum:  table.Platinum,
		Diamond:   table.Diamond,
		UpdatedAt: formatTime(table.UpdatedAt),
		UpdatedBy: table.UpdatedBy,
	}
}

func (h *AdminHandlers) getRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("rate_service_unavailable", "rate service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := h.requireIdentity(ctx, w); !ok {
		return
	}

	table, err := h.rates.GetRates(ctx)
	if err != nil {
		writeRateError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]rateTablePayload{"rates": buildRateTablePayload(table)})
}

type updateRatesRequest struct {
	Gold     map[string]float64 `json:"gold"`
	Silver   map[string]float64 `json:"silver"`
	Platinum map[string]float64 `json:"platinum"`
	Diamond  map[string]float64 `json:"diamond"`
}

func (h *AdminHandlers) updateRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("rate_service_unavailable", "rate service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req updateRatesRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	table, err := h.rates.UpdateRates(ctx, services.UpdateRatesCommand{
		Actor:    actorFromIdentity(identity),
		Gold:     req.Gold,
		Silver:   req.Silver,
		Platinum: req.Platinum,
		Diamond:  req.Diamond,
	})
	if err != nil {
		writeRateError(ctx, w, err)
		return
	}

	h.recordAudit(ctx, r, identity, "rates.update", "rates/metal_rates", map[string]any{
		"rateVersion": table.Version,
	})
	writeJSONResponse(w, http.StatusOK, map[string]rateTablePayload{"rates": buildRateTablePayload(table)})
}

type chargeDefaultsPayload struct {
	MakingChargeType  string  `json:"making_charge_type,omitempty"`
	MakingChargeValue float64 `json:"making_charge_value,omitempty"`
	WastageType       string  `json:"wastage_type,omitempty"`
	WastageValue      float64 `json:"wastage_value,omitempty"`
	JewelryGST        float64 `json:"jewelry_gst,omitempty"`
	MakingGST         float64 `json:"making_gst,omitempty"`
}

type chargeConfigPayload struct {
	Categories map[string]chargeDefaultsPayload `json:"categories,omitempty"`
	Global     chargeDefaultsPayload            `json:"global"`
}

func buildChargeConfigPayload(config services.ChargeConfig) chargeConfigPayload {
	payload := chargeConfigPayload{
		Global: chargeDefaultsPayload(config.Global),
	}
	if len(config.Categories) > 0 {
		payload.Categories = make(map[string]chargeDefaultsPayload, len(config.Categories))
		for category, defaults := range config.Categories {
			payload.Categories[category] = chargeDefaultsPayload(defaults)
		}
	}
	return payload
}

func (h *AdminHandlers) getChargeConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("rate_service_unavailable", "rate service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := h.requireIdentity(ctx, w); !ok {
		return
	}

	config, err := h.rates.GetChargeConfig(ctx)
	if err != nil {
		writeRateError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]chargeConfigPayload{"charges": buildChargeConfigPayload(config)})
}

type updateChargeConfigRequest struct {
	Categories map[string]chargeDefaultsPayload `json:"categories"`
	Global     chargeDefaultsPayload            `json:"global"`
}

func (h *AdminHandlers) updateChargeConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("rate_service_unavailable", "rate service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req updateChargeConfigRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	cmd := services.UpdateChargeConfigCommand{
		Actor:  actorFromIdentity(identity),
		Global: domain.ChargeDefaults(req.Global),
	}
	if len(req.Categories) > 0 {
		cmd.Categories = make(map[string]services.ChargeDefaults, len(req.Categories))
		for category, defaults := range req.Categories {
			cmd.Categories[category] = domain.ChargeDefaults(defaults)
		}
	}

	config, err := h.rates.UpdateChargeConfig(ctx, cmd)
	if err != nil {
		writeRateError(ctx, w, err)
		return
	}

	h.recordAudit(ctx, r, identity, "rates.charges.update", "rates/charge_config", nil)
	writeJSONResponse(w, http.StatusOK, map[string]chargeConfigPayload{"charges": buildChargeConfigPayload(config)})
}

// Audit & system ------------------------------------------------------------

type auditLogPayload struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	ActorType string         `json:"actor_type,omitempty"`
	Action    string         `json:"action"`
	TargetRef string         `json:"target_ref,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Severity  string         `json:"severity,omitempty"`
	CreatedAt string         `json:"created_at"`
}

type auditLogListResponse struct {
	Items         []auditLogPayload `json:"items"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func (h *AdminHandlers) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.system == nil {
		httpx.WriteError(ctx, w, httpx.NewError("system_service_unavailable", "system service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := h.requireIdentity(ctx, w); !ok {
		return
	}

	query := r.URL.Query()
	pageSize, err := parsePageSize(query.Get("page_size"), defaultAdminPageSize, maxAdminPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be an integer", http.StatusBadRequest))
		return
	}

	filter := services.AuditLogFilter{
		TargetRef: strings.TrimSpace(query.Get("target_ref")),
		Actor:     strings.TrimSpace(query.Get("actor")),
		Action:    strings.TrimSpace(query.Get("action")),
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	}
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "from must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		filter.From = &ts
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "to must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		filter.To = &ts
	}

	page, err := h.system.ListAuditLogs(ctx, filter)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageToken) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page_token is not valid", http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("audit_error", "failed to list audit logs", http.StatusInternalServerError))
		return
	}

	items := make([]auditLogPayload, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, auditLogPayload{
			ID:        entry.ID,
			Actor:     entry.Actor,
			ActorType: entry.ActorType,
			Action:    entry.Action,
			TargetRef: entry.TargetRef,
			Metadata:  entry.Metadata,
			Severity:  entry.Severity,
			CreatedAt: formatTime(entry.CreatedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, auditLogListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *AdminHandlers) systemHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.system == nil {
		httpx.WriteError(ctx, w, httpx.NewError("system_service_unavailable", "system service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := h.requireIdentity(ctx, w); !ok {
		return
	}

	report, err := h.system.HealthReport(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("health_error", "failed to collect health report", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, report)
}

// Error mapping -------------------------------------------------------------

func writeApprovalError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrApprovalInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, pagination.ErrInvalidPageToken):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page_token is not valid", http.StatusBadRequest))
	case errors.Is(err, services.ErrApprovalForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "forbidden", http.StatusForbidden))
	case errors.Is(err, services.ErrApprovalNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("approval_not_found", "approval not found", http.StatusNotFound))
	case errors.Is(err, services.ErrApprovalConflict):
		httpx.WriteError(ctx, w, httpx.NewError("approval_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrApprovalAlreadyReviewed):
		httpx.WriteError(ctx, w, httpx.NewError("approval_already_reviewed", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("approval_error", "failed to process approval request", http.StatusInternalServerError))
	}
}

func writeRateError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrRateInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrRateForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "forbidden", http.StatusForbidden))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("rate_error", "failed to process rate request", http.StatusInternalServerError))
	}
}
