package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newWebhookTestRouter(audit *recordingAuditService) chi.Router {
	handler := NewWebhookHandlers(audit)
	router := chi.NewRouter()
	router.Route("/webhooks", handler.Routes)
	return router
}

func TestWebhookHandlersPaymentEventRecorded(t *testing.T) {
	audit := &recordingAuditService{}
	router := newWebhookTestRouter(audit)

	body, _ := json.Marshal(paymentEventRequest{
		Type:           "payment_intent.succeeded",
		GatewayOrderID: "pi_99",
		PaymentID:      "pay_1",
		Provider:       "stripe",
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(audit.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(audit.records))
	}
	record := audit.records[0]
	if record.Action != "webhooks.payment.payment_intent.succeeded" {
		t.Fatalf("unexpected action %s", record.Action)
	}
	if record.TargetRef != "payments/pi_99" || record.Actor != "gateway:stripe" {
		t.Fatalf("unexpected record: %#v", record)
	}
}

func TestWebhookHandlersPaymentEventRejectsMissingType(t *testing.T) {
	router := newWebhookTestRouter(&recordingAuditService{})

	body, _ := json.Marshal(paymentEventRequest{GatewayOrderID: "pi_99"})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestWebhookHandlersPaymentEventRejectsBadJSON(t *testing.T) {
	router := newWebhookTestRouter(&recordingAuditService{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader([]byte("{oops")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
