package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/platform/auth"
	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/services"
)

// PublicHandlers serves unauthenticated storefront endpoints: homepage
// banners and coupon pre-validation before checkout.
type PublicHandlers struct {
	authn   *auth.Authenticator
	banners services.BannerService
	coupons services.CouponService
}

// NewPublicHandlers constructs a new PublicHandlers instance.
func NewPublicHandlers(authn *auth.Authenticator, banners services.BannerService, coupons services.CouponService) *PublicHandlers {
	return &PublicHandlers{
		authn:   authn,
		banners: banners,
		coupons: coupons,
	}
}

// Routes registers the /public endpoints.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/banners", h.listBanners)
	if h.authn != nil {
		r.With(h.authn.RequireFirebaseAuth()).Post("/coupons:validate", h.validateCoupon)
	} else {
		r.Post("/coupons:validate", h.validateCoupon)
	}
}

type bannerPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
	LinkURL  string `json:"link_url,omitempty"`
	Position int    `json:"position"`
}

type bannerListResponse struct {
	Items []bannerPayload `json:"items"`
}

func (h *PublicHandlers) listBanners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.banners == nil {
		httpx.WriteError(ctx, w, httpx.NewError("banner_service_unavailable", "banner service unavailable", http.StatusServiceUnavailable))
		return
	}

	banners, err := h.banners.ListActive(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("banner_error", "failed to list banners", http.StatusInternalServerError))
		return
	}

	items := make([]bannerPayload, 0, len(banners))
	for _, banner := range banners {
		items = append(items, bannerPayload{
			ID:       banner.ID,
			Title:    banner.Title,
			ImageURL: banner.ImageURL,
			LinkURL:  banner.LinkURL,
			Position: banner.Position,
		})
	}
	writeJSONResponse(w, http.StatusOK, bannerListResponse{Items: items})
}

type validateCouponRequest struct {
	Code       string `json:"code"`
	OrderValue int64  `json:"order_value"`
}

type validateCouponResponse struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
	Valid    bool   `json:"valid"`
}

func (h *PublicHandlers) validateCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.coupons == nil {
		httpx.WriteError(ctx, w, httpx.NewError("coupon_service_unavailable", "coupon service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req validateCouponRequest
	if !decodeOrderBody(ctx, w, r, &req) {
		return
	}

	userID := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		userID = identity.UID
	}

	quote, err := h.coupons.Validate(ctx, services.ValidateCouponCommand{
		Code:       strings.TrimSpace(req.Code),
		OrderValue: req.OrderValue,
		UserID:     userID,
	})
	if err != nil {
		writeCouponError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, validateCouponResponse{
		Code:     quote.Code,
		Discount: quote.Discount,
		Valid:    true,
	})
}

func writeCouponError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCouponInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCouponNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_not_found", "coupon not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCouponNotApplicable):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_not_applicable", err.Error(), http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("coupon_error", "failed to validate coupon", http.StatusInternalServerError))
	}
}
