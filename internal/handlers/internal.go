package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/services"
)

// InternalHandlers serves trusted service-to-service endpoints. The router
// mounts these behind HMAC middleware, never behind end-user auth.
type InternalHandlers struct {
	counters services.CounterService
	reprice  services.RepriceService
}

// NewInternalHandlers constructs a new InternalHandlers instance.
func NewInternalHandlers(counters services.CounterService, reprice services.RepriceService) *InternalHandlers {
	return &InternalHandlers{
		counters: counters,
		reprice:  reprice,
	}
}

// Routes registers the /internal endpoints.
func (h *InternalHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/counters/{scope}/{name}:next", h.nextCounter)
	r.Post("/reprice", h.triggerReprice)
}

type counterRequest struct {
	Step      int64  `json:"step"`
	Prefix    string `json:"prefix"`
	Suffix    string `json:"suffix"`
	PadLength int    `json:"pad_length"`
}

type counterResponse struct {
	Value     int64  `json:"value"`
	Formatted string `json:"formatted,omitempty"`
}

func (h *InternalHandlers) nextCounter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.counters == nil {
		httpx.WriteError(ctx, w, httpx.NewError("counter_service_unavailable", "counter service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req counterRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	value, err := h.counters.Next(ctx,
		strings.TrimSpace(chi.URLParam(r, "scope")),
		strings.TrimSpace(chi.URLParam(r, "name")),
		services.CounterGenerationOptions{
			Step:      req.Step,
			Prefix:    req.Prefix,
			Suffix:    req.Suffix,
			PadLength: req.PadLength,
		})
	if err != nil {
		writeCounterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, counterResponse{
		Value:     value.Value,
		Formatted: value.Formatted,
	})
}

type repriceRequest struct {
	RateVersion string `json:"rate_version"`
	TriggeredBy string `json:"triggered_by"`
}

type repriceResponse struct {
	RateVersion string `json:"rate_version"`
	Processed   int    `json:"processed"`
	Failed      int    `json:"failed"`
	Batches     int    `json:"batches"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at"`
}

func (h *InternalHandlers) triggerReprice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reprice == nil {
		httpx.WriteError(ctx, w, httpx.NewError("reprice_service_unavailable", "reprice service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req repriceRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	result, err := h.reprice.RepriceCatalog(ctx, services.RepriceCommand{
		RateVersion: strings.TrimSpace(req.RateVersion),
		TriggeredBy: strings.TrimSpace(req.TriggeredBy),
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("reprice_error", "reprice run failed", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, repriceResponse{
		RateVersion: result.RateVersion,
		Processed:   result.Processed,
		Failed:      result.Failed,
		Batches:     result.Batches,
		StartedAt:   formatTime(result.StartedAt),
		FinishedAt:  formatTime(result.FinishedAt),
	})
}

func writeCounterError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCounterInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCounterExhausted):
		httpx.WriteError(ctx, w, httpx.NewError("counter_exhausted", "counter reached its maximum value", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("counter_error", "failed to advance counter", http.StatusInternalServerError))
	}
}
