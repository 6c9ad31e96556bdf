package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/services"
)

const maxWebhookBodySize = 256 * 1024

// WebhookHandlers ingests gateway callbacks. Payment settlement itself is
// driven by the client confirm call; webhooks exist to reconcile and to keep
// an audit trail of what the gateway reported.
type WebhookHandlers struct {
	audit services.AuditLogService
}

// NewWebhookHandlers constructs a new WebhookHandlers instance.
func NewWebhookHandlers(audit services.AuditLogService) *WebhookHandlers {
	return &WebhookHandlers{audit: audit}
}

// Routes registers the /webhooks endpoints.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/payments", h.paymentEvent)
}

type paymentEventRequest struct {
	Type           string         `json:"type"`
	GatewayOrderID string         `json:"gateway_order_id"`
	PaymentID      string         `json:"payment_id"`
	Provider       string         `json:"provider"`
	Data           map[string]any `json:"data"`
}

func (h *WebhookHandlers) paymentEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxWebhookBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "webhook payload exceeds size limit", http.StatusRequestEntityTooLarge))
		return
	}

	var event paymentEventRequest
	if err := json.Unmarshal(body, &event); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "webhook payload must be valid JSON", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(event.Type) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "event type is required", http.StatusBadRequest))
		return
	}

	if h.audit != nil {
		ip, userAgent, requestID := requestAuditContext(r)
		h.audit.Record(ctx, services.AuditLogRecord{
			Actor:     "gateway:" + strings.TrimSpace(event.Provider),
			ActorType: "system",
			Action:    "webhooks.payment." + strings.TrimSpace(event.Type),
			TargetRef: "payments/" + strings.TrimSpace(event.GatewayOrderID),
			Metadata: map[string]any{
				"paymentId": event.PaymentID,
			},
			IPAddress: ip,
			UserAgent: userAgent,
			RequestID: requestID,
		})
	}

	// Acknowledge regardless of whether the event maps to a known order so
	// the gateway does not retry indefinitely.
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "received"})
}
