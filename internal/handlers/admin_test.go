package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/platform/auth"
	"github.com/aurelia-jewels/api/internal/services"
)

type stubApprovalService struct {
	submitFn func(context.Context, services.SubmitMutationCommand) (services.MutationOutcome, error)
	reviewFn func(context.Context, services.ReviewApprovalCommand) (services.PendingApproval, error)
	getFn    func(context.Context, string) (services.PendingApproval, error)
	listFn   func(context.Context, services.ApprovalListFilter) (domain.CursorPage[services.PendingApproval], error)
}

func (s *stubApprovalService) Submit(ctx context.Context, cmd services.SubmitMutationCommand) (services.MutationOutcome, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, cmd)
	}
	return services.MutationOutcome{}, errors.New("not implemented")
}

func (s *stubApprovalService) Review(ctx context.Context, cmd services.ReviewApprovalCommand) (services.PendingApproval, error) {
	if s.reviewFn != nil {
		return s.reviewFn(ctx, cmd)
	}
	return services.PendingApproval{}, errors.New("not implemented")
}

func (s *stubApprovalService) Get(ctx context.Context, approvalID string) (services.PendingApproval, error) {
	if s.getFn != nil {
		return s.getFn(ctx, approvalID)
	}
	return services.PendingApproval{}, errors.New("not implemented")
}

func (s *stubApprovalService) List(ctx context.Context, filter services.ApprovalListFilter) (domain.CursorPage[services.PendingApproval], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[services.PendingApproval]{}, nil
}

type stubRateService struct {
	getRatesFn      func(context.Context) (services.RateTable, error)
	updateRatesFn   func(context.Context, services.UpdateRatesCommand) (services.RateTable, error)
	getChargesFn    func(context.Context) (services.ChargeConfig, error)
	updateChargesFn func(context.Context, services.UpdateChargeConfigCommand) (services.ChargeConfig, error)
}

func (s *stubRateService) GetRates(ctx context.Context) (services.RateTable, error) {
	if s.getRatesFn != nil {
		return s.getRatesFn(ctx)
	}
	return services.RateTable{}, errors.New("not implemented")
}

func (s *stubRateService) UpdateRates(ctx context.Context, cmd services.UpdateRatesCommand) (services.RateTable, error) {
	if s.updateRatesFn != nil {
		return s.updateRatesFn(ctx, cmd)
	}
	return services.RateTable{}, errors.New("not implemented")
}

func (s *stubRateService) GetChargeConfig(ctx context.Context) (services.ChargeConfig, error) {
	if s.getChargesFn != nil {
		return s.getChargesFn(ctx)
	}
	return services.ChargeConfig{}, errors.New("not implemented")
}

func (s *stubRateService) UpdateChargeConfig(ctx context.Context, cmd services.UpdateChargeConfigCommand) (services.ChargeConfig, error) {
	if s.updateChargesFn != nil {
		return s.updateChargesFn(ctx, cmd)
	}
	return services.ChargeConfig{}, errors.New("not implemented")
}

type stubSystemService struct {
	healthFn func(context.Context) (services.SystemHealthReport, error)
	auditFn  func(context.Context, services.AuditLogFilter) (domain.CursorPage[services.AuditLogEntry], error)
}

func (s *stubSystemService) HealthReport(ctx context.Context) (services.SystemHealthReport, error) {
	if s.healthFn != nil {
		return s.healthFn(ctx)
	}
	return services.SystemHealthReport{}, errors.New("not implemented")
}

func (s *stubSystemService) ListAuditLogs(ctx context.Context, filter services.AuditLogFilter) (domain.CursorPage[services.AuditLogEntry], error) {
	if s.auditFn != nil {
		return s.auditFn(ctx, filter)
	}
	return domain.CursorPage[services.AuditLogEntry]{}, nil
}

func (s *stubSystemService) NextCounterValue(context.Context, services.CounterCommand) (int64, error) {
	return 0, errors.New("not implemented")
}

type recordingAuditService struct {
	records []services.AuditLogRecord
}

func (s *recordingAuditService) Record(_ context.Context, record services.AuditLogRecord) {
	s.records = append(s.records, record)
}

func (s *recordingAuditService) List(context.Context, services.AuditLogFilter) (domain.CursorPage[services.AuditLogEntry], error) {
	return domain.CursorPage[services.AuditLogEntry]{}, nil
}

func (s *recordingAuditService) Close() {}

func newAdminTestRouter(deps AdminHandlersDeps) chi.Router {
	handler := NewAdminHandlers(deps)
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)
	return router
}

func staffRequest(method, target string, body []byte, uid, role string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: uid, Roles: []string{role}}))
}

func TestAdminHandlersUpdateOrderStatus(t *testing.T) {
	var captured services.UpdateOrderStatusCommand
	orders := &stubOrderService{
		updateFn: func(ctx context.Context, cmd services.UpdateOrderStatusCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: cmd.OrderID, Status: cmd.TargetStatus}, nil
		},
	}
	audit := &recordingAuditService{}
	router := newAdminTestRouter(AdminHandlersDeps{Orders: orders, Audit: audit})

	body, _ := json.Marshal(updateOrderStatusRequest{
		Status:                "out_for_delivery",
		Note:                  "left workshop",
		EstimatedDeliveryDate: "2026-03-05T00:00:00Z",
		DelayReason:           "courier backlog",
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPatch, "/admin/orders/ord_9/status", body, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.OrderID != "ord_9" || captured.TargetStatus != domain.OrderStatusOutForDelivery {
		t.Fatalf("unexpected command: %#v", captured)
	}
	if captured.Actor.UserID != "staff-1" || captured.Actor.Role != auth.RoleStaff {
		t.Fatalf("unexpected actor: %#v", captured.Actor)
	}
	if captured.EstimatedDeliveryDate == nil || !captured.EstimatedDeliveryDate.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected estimated delivery date: %#v", captured.EstimatedDeliveryDate)
	}
	if captured.DelayReason != "courier backlog" {
		t.Fatalf("unexpected delay reason: %s", captured.DelayReason)
	}

	if len(audit.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(audit.records))
	}
	if audit.records[0].Action != "orders.status" || audit.records[0].TargetRef != "orders/ord_9" {
		t.Fatalf("unexpected audit record: %#v", audit.records[0])
	}
}

func TestAdminHandlersUpdateOrderStatusInvalidTransition(t *testing.T) {
	orders := &stubOrderService{
		updateFn: func(context.Context, services.UpdateOrderStatusCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInvalidTransition
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Orders: orders})

	body, _ := json.Marshal(updateOrderStatusRequest{Status: "delivered"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPatch, "/admin/orders/ord_9/status", body, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAdminHandlersUpdateOrderStatusBadDate(t *testing.T) {
	router := newAdminTestRouter(AdminHandlersDeps{Orders: &stubOrderService{}})

	body, _ := json.Marshal(updateOrderStatusRequest{Status: "processing", EstimatedDeliveryDate: "tomorrow"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPatch, "/admin/orders/ord_9/status", body, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminHandlersListOrdersCanFilterByUser(t *testing.T) {
	var captured services.OrderListFilter
	orders := &stubOrderService{
		listFn: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			captured = filter
			return domain.CursorPage[services.Order]{}, nil
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Orders: orders})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodGet, "/admin/orders?user_id=user-7&status=pending", nil, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.UserID != "user-7" {
		t.Fatalf("expected user filter user-7, got %s", captured.UserID)
	}
	if len(captured.Status) != 1 || captured.Status[0] != "pending" {
		t.Fatalf("unexpected status filter: %#v", captured.Status)
	}
}

func TestAdminHandlersSubmitMutationQueued(t *testing.T) {
	var captured services.SubmitMutationCommand
	approvals := &stubApprovalService{
		submitFn: func(ctx context.Context, cmd services.SubmitMutationCommand) (services.MutationOutcome, error) {
			captured = cmd
			return services.MutationOutcome{
				Applied:    false,
				EntityID:   cmd.EntityID,
				ApprovalID: "appr_1",
				Status:     domain.ApprovalStatusPending,
			}, nil
		},
	}
	audit := &recordingAuditService{}
	router := newAdminTestRouter(AdminHandlersDeps{Approvals: approvals, Audit: audit})

	body, _ := json.Marshal(submitMutationRequest{
		EntityType:      "product",
		EntityID:        "prod-1",
		Action:          "Update",
		ProposedChanges: map[string]any{"name": "New Name"},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPost, "/admin/mutations", body, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202 for queued mutation, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.EntityType != "product" || captured.Action != domain.ApprovalActionUpdate {
		t.Fatalf("unexpected command: %#v", captured)
	}
	if captured.Actor.UserID != "staff-1" {
		t.Fatalf("unexpected actor: %#v", captured.Actor)
	}

	var resp mutationOutcomeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Applied || resp.ApprovalID != "appr_1" || resp.Status != "pending" {
		t.Fatalf("unexpected outcome payload: %#v", resp)
	}
	if len(audit.records) != 1 {
		t.Fatalf("expected audit record for submission, got %d", len(audit.records))
	}
}

func TestAdminHandlersSubmitMutationAppliedDirectly(t *testing.T) {
	approvals := &stubApprovalService{
		submitFn: func(ctx context.Context, cmd services.SubmitMutationCommand) (services.MutationOutcome, error) {
			return services.MutationOutcome{
				Applied:  true,
				EntityID: "prod-1",
				Status:   domain.ApprovalStatusApproved,
			}, nil
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Approvals: approvals})

	body, _ := json.Marshal(submitMutationRequest{EntityType: "product", EntityID: "prod-1", Action: "update"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPost, "/admin/mutations", body, "admin-1", auth.RoleAdmin))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for applied mutation, got %d", rr.Code)
	}

	var resp mutationOutcomeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.Applied {
		t.Fatalf("expected applied outcome, got %#v", resp)
	}
}

func TestAdminHandlersSubmitMutationConflict(t *testing.T) {
	approvals := &stubApprovalService{
		submitFn: func(context.Context, services.SubmitMutationCommand) (services.MutationOutcome, error) {
			return services.MutationOutcome{}, services.ErrApprovalConflict
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Approvals: approvals})

	body, _ := json.Marshal(submitMutationRequest{EntityType: "product", EntityID: "prod-1", Action: "update"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPost, "/admin/mutations", body, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAdminHandlersReviewApproval(t *testing.T) {
	reviewedAt := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)
	var captured services.ReviewApprovalCommand
	approvals := &stubApprovalService{
		reviewFn: func(ctx context.Context, cmd services.ReviewApprovalCommand) (services.PendingApproval, error) {
			captured = cmd
			return services.PendingApproval{
				ID:         cmd.ApprovalID,
				EntityType: "rates",
				EntityID:   "metal_rates",
				Action:     domain.ApprovalActionUpdate,
				Status:     domain.ApprovalStatusApproved,
				ReviewedBy: cmd.Actor.UserID,
				ReviewNote: cmd.Note,
				ReviewedAt: &reviewedAt,
			}, nil
		},
	}
	audit := &recordingAuditService{}
	router := newAdminTestRouter(AdminHandlersDeps{Approvals: approvals, Audit: audit})

	body, _ := json.Marshal(reviewApprovalRequest{Approve: true, Note: "rates verified against bullion desk"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPost, "/admin/approvals/appr_5:review", body, "admin-1", auth.RoleAdmin))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ApprovalID != "appr_5" || !captured.Approve {
		t.Fatalf("unexpected review command: %#v", captured)
	}

	var resp map[string]approvalPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	approval := resp["approval"]
	if approval.Status != "approved" || approval.ReviewedBy != "admin-1" {
		t.Fatalf("unexpected approval payload: %#v", approval)
	}
	if approval.ReviewedAt != "2026-02-14T11:00:00Z" {
		t.Fatalf("unexpected reviewed_at: %s", approval.ReviewedAt)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "approvals.review" {
		t.Fatalf("expected review audit record, got %#v", audit.records)
	}
}

func TestAdminHandlersReviewApprovalSelfReviewForbidden(t *testing.T) {
	approvals := &stubApprovalService{
		reviewFn: func(context.Context, services.ReviewApprovalCommand) (services.PendingApproval, error) {
			return services.PendingApproval{}, services.ErrApprovalForbidden
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Approvals: approvals})

	body, _ := json.Marshal(reviewApprovalRequest{Approve: true})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPost, "/admin/approvals/appr_5:review", body, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestAdminHandlersReviewApprovalAlreadyReviewed(t *testing.T) {
	approvals := &stubApprovalService{
		reviewFn: func(context.Context, services.ReviewApprovalCommand) (services.PendingApproval, error) {
			return services.PendingApproval{}, services.ErrApprovalAlreadyReviewed
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Approvals: approvals})

	body, _ := json.Marshal(reviewApprovalRequest{Approve: false, Note: "stale"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPost, "/admin/approvals/appr_5:review", body, "admin-1", auth.RoleAdmin))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAdminHandlersListApprovals(t *testing.T) {
	var captured services.ApprovalListFilter
	approvals := &stubApprovalService{
		listFn: func(ctx context.Context, filter services.ApprovalListFilter) (domain.CursorPage[services.PendingApproval], error) {
			captured = filter
			return domain.CursorPage[services.PendingApproval]{
				Items: []services.PendingApproval{{
					ID:         "appr_1",
					EntityType: "banner",
					Status:     domain.ApprovalStatusPending,
				}},
			}, nil
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Approvals: approvals})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodGet, "/admin/approvals?entity_type=banner&status=pending", nil, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.EntityType != "banner" {
		t.Fatalf("expected entity type filter, got %s", captured.EntityType)
	}

	var resp approvalListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "appr_1" {
		t.Fatalf("unexpected approvals payload: %#v", resp.Items)
	}
}

func TestAdminHandlersUpdateRates(t *testing.T) {
	var captured services.UpdateRatesCommand
	rates := &stubRateService{
		updateRatesFn: func(ctx context.Context, cmd services.UpdateRatesCommand) (services.RateTable, error) {
			captured = cmd
			return services.RateTable{
				Version:   "rates-v13",
				Gold:      cmd.Gold,
				UpdatedBy: cmd.Actor.UserID,
				UpdatedAt: time.Date(2026, 2, 20, 6, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	audit := &recordingAuditService{}
	router := newAdminTestRouter(AdminHandlersDeps{Rates: rates, Audit: audit})

	body, _ := json.Marshal(updateRatesRequest{
		Gold:   map[string]float64{"24K": 7200, "22K": 6600},
		Silver: map[string]float64{"999": 92},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPut, "/admin/rates", body, "admin-1", auth.RoleAdmin))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Gold["22K"] != 6600 || captured.Silver["999"] != 92 {
		t.Fatalf("unexpected rates command: %#v", captured)
	}

	var resp map[string]rateTablePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	table := resp["rates"]
	if table.Version != "rates-v13" || table.Gold["24K"] != 7200 {
		t.Fatalf("unexpected rate payload: %#v", table)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "rates.update" {
		t.Fatalf("expected rates audit record, got %#v", audit.records)
	}
}

func TestAdminHandlersUpdateRatesForbidden(t *testing.T) {
	rates := &stubRateService{
		updateRatesFn: func(context.Context, services.UpdateRatesCommand) (services.RateTable, error) {
			return services.RateTable{}, services.ErrRateForbidden
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Rates: rates})

	body, _ := json.Marshal(updateRatesRequest{Gold: map[string]float64{"24K": 7200}})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPut, "/admin/rates", body, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestAdminHandlersUpdateChargeConfig(t *testing.T) {
	var captured services.UpdateChargeConfigCommand
	rates := &stubRateService{
		updateChargesFn: func(ctx context.Context, cmd services.UpdateChargeConfigCommand) (services.ChargeConfig, error) {
			captured = cmd
			return services.ChargeConfig{
				Categories: cmd.Categories,
				Global:     cmd.Global,
			}, nil
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{Rates: rates, Audit: &recordingAuditService{}})

	body, _ := json.Marshal(updateChargeConfigRequest{
		Global: chargeDefaultsPayload{
			MakingChargeType:  "percentage",
			MakingChargeValue: 12,
			JewelryGST:        3,
			MakingGST:         5,
		},
		Categories: map[string]chargeDefaultsPayload{
			"rings": {MakingChargeType: "flat", MakingChargeValue: 2500},
		},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodPut, "/admin/rates/charges", body, "admin-1", auth.RoleAdmin))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Global.MakingChargeValue != 12 || captured.Global.JewelryGST != 3 {
		t.Fatalf("unexpected global defaults: %#v", captured.Global)
	}
	if captured.Categories["rings"].MakingChargeType != "flat" {
		t.Fatalf("unexpected category defaults: %#v", captured.Categories)
	}
}

func TestAdminHandlersListAuditLogs(t *testing.T) {
	var captured services.AuditLogFilter
	system := &stubSystemService{
		auditFn: func(ctx context.Context, filter services.AuditLogFilter) (domain.CursorPage[services.AuditLogEntry], error) {
			captured = filter
			return domain.CursorPage[services.AuditLogEntry]{
				Items: []services.AuditLogEntry{{
					ID:        "log_1",
					Actor:     "admin-1",
					Action:    "rates.update",
					TargetRef: "rates/metal_rates",
					CreatedAt: time.Date(2026, 2, 20, 6, 0, 0, 0, time.UTC),
				}},
			}, nil
		},
	}
	router := newAdminTestRouter(AdminHandlersDeps{System: system})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodGet, "/admin/audit-logs?target_ref=rates/metal_rates&from=2026-02-01T00:00:00Z", nil, "admin-1", auth.RoleAdmin))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.TargetRef != "rates/metal_rates" {
		t.Fatalf("expected target filter, got %s", captured.TargetRef)
	}
	if captured.From == nil || !captured.From.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from filter: %#v", captured.From)
	}

	var resp auditLogListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Action != "rates.update" {
		t.Fatalf("unexpected audit payload: %#v", resp.Items)
	}
}

func TestAdminHandlersServiceUnavailable(t *testing.T) {
	router := newAdminTestRouter(AdminHandlersDeps{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, staffRequest(http.MethodGet, "/admin/rates", nil, "staff-1", auth.RoleStaff))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
