package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-jewels/api/internal/platform/httpx"
	"github.com/aurelia-jewels/api/internal/platform/pagination"
	"github.com/aurelia-jewels/api/internal/services"
)

const (
	defaultCatalogPageSize = 20
	maxCatalogPageSize     = 100
)

// CatalogHandlers exposes the public storefront read surface: products, live
// price quotes and stock availability.
type CatalogHandlers struct {
	products services.ProductService
	pricing  services.PricingService
	stock    services.StockService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(products services.ProductService, pricing services.PricingService, stock services.StockService) *CatalogHandlers {
	return &CatalogHandlers{
		products: products,
		pricing:  pricing,
		stock:    stock,
	}
}

// Routes registers the /catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/products/{productID}/price", h.quotePrice)
	r.Get("/products/{productID}/stock", h.stockAvailability)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	pageSize, err := parsePageSize(query.Get("page_size"), defaultCatalogPageSize, maxCatalogPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be an integer", http.StatusBadRequest))
		return
	}

	filter := services.ProductListFilter{
		ActiveOnly: true,
		Tags:       parseFilterValues(query["tag"]),
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	}
	if category := strings.TrimSpace(query.Get("category")); category != "" {
		filter.Category = &category
	}

	page, err := h.products.List(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]productPayload, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	product, err := h.products.Get(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	if !product.Active {
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *CatalogHandlers) quotePrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	breakdown, err := h.pricing.Quote(ctx, services.QuoteCommand{
		ProductID:      strings.TrimSpace(chi.URLParam(r, "productID")),
		MetalType:      strings.TrimSpace(query.Get("metal")),
		Purity:         strings.TrimSpace(query.Get("purity")),
		Size:           strings.TrimSpace(query.Get("size")),
		Color:          strings.TrimSpace(query.Get("color")),
		DiamondQuality: strings.TrimSpace(query.Get("diamond_quality")),
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, priceQuoteResponse{Price: buildBreakdownPayload(breakdown)})
}

func (h *CatalogHandlers) stockAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stock == nil {
		httpx.WriteError(ctx, w, httpx.NewError("stock_unavailable", "stock service unavailable", http.StatusServiceUnavailable))
		return
	}

	stock, err := h.stock.Availability(ctx, strings.TrimSpace(chi.URLParam(r, "productID")))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, stockResponse{
		ProductID: stock.ProductID,
		Quantity:  stock.Quantity,
		InStock:   stock.Quantity > 0,
	})
}

type productListResponse struct {
	Items         []productPayload `json:"items"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	ID          string              `json:"id"`
	SKU         string              `json:"sku,omitempty"`
	Name        string              `json:"name"`
	Category    string              `json:"category,omitempty"`
	Description string              `json:"description,omitempty"`
	Active      bool                `json:"active"`
	Images      []string            `json:"images,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Price       int64               `json:"price"`
	RateVersion string              `json:"rate_version,omitempty"`
	PriceRange  *priceRangePayload  `json:"price_range,omitempty"`
	Configur    *configuratorBadges `json:"configurator,omitempty"`
	CreatedAt   string              `json:"created_at,omitempty"`
	UpdatedAt   string              `json:"updated_at,omitempty"`
}

type priceRangePayload struct {
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
	Default int64 `json:"default"`
}

// configuratorBadges summarises the selectable axes without exposing weights.
type configuratorBadges struct {
	Enabled          bool     `json:"enabled"`
	DefaultMetalType string   `json:"default_metal_type,omitempty"`
	DefaultPurity    string   `json:"default_purity,omitempty"`
	Metals           []string `json:"metals,omitempty"`
}

type priceQuoteResponse struct {
	Price priceBreakdownPayload `json:"price"`
}

type priceBreakdownPayload struct {
	MetalType          string                  `json:"metal_type,omitempty"`
	Purity             string                  `json:"purity,omitempty"`
	Size               string                  `json:"size,omitempty"`
	DiamondQuality     string                  `json:"diamond_quality,omitempty"`
	MetalValue         float64                 `json:"metal_value"`
	MetalLines         []metalValueLinePayload `json:"metal_lines,omitempty"`
	DiamondValue       float64                 `json:"diamond_value,omitempty"`
	GemstoneValue      float64                 `json:"gemstone_value,omitempty"`
	MakingChargeAmount float64                 `json:"making_charge"`
	WastageAmount      float64                 `json:"wastage_charge,omitempty"`
	StoneSetting       float64                 `json:"stone_setting,omitempty"`
	DesignCharges      float64                 `json:"design_charges,omitempty"`
	Discount           float64                 `json:"discount,omitempty"`
	Subtotal           float64                 `json:"subtotal"`
	JewelryTax         float64                 `json:"jewelry_tax"`
	LabourTax          float64                 `json:"labour_tax"`
	FinalPrice         int64                   `json:"final_price"`
	Static             bool                    `json:"static,omitempty"`
}

type metalValueLinePayload struct {
	Type      string  `json:"type"`
	Purity    string  `json:"purity"`
	Fixed     bool    `json:"fixed,omitempty"`
	NetWeight float64 `json:"net_weight"`
	Rate      float64 `json:"rate"`
	Value     float64 `json:"value"`
}

type stockResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	InStock   bool   `json:"in_stock"`
}

func buildProductPayload(product services.Product) productPayload {
	payload := productPayload{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Category:    product.Category,
		Description: product.Description,
		Active:      product.Active,
		Images:      product.Images,
		Tags:        product.Tags,
		Price:       product.Pricing.FinalPrice,
		RateVersion: product.Pricing.RateVersion,
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
	if product.PriceRange != nil {
		payload.PriceRange = &priceRangePayload{
			Min:     product.PriceRange.MinPrice,
			Max:     product.PriceRange.MaxPrice,
			Default: product.PriceRange.DefaultPrice,
		}
	}
	if configurator := product.Configurator; configurator != nil {
		badges := &configuratorBadges{
			Enabled:          configurator.Enabled,
			DefaultMetalType: string(configurator.DefaultMetalType),
			DefaultPurity:    configurator.DefaultPurity,
		}
		for _, metal := range configurator.Metals {
			badges.Metals = append(badges.Metals, string(metal.Type))
		}
		payload.Configur = badges
	}
	return payload
}

func buildBreakdownPayload(breakdown services.PriceBreakdown) priceBreakdownPayload {
	payload := priceBreakdownPayload{
		MetalType:          string(breakdown.MetalType),
		Purity:             breakdown.Purity,
		Size:               breakdown.Size,
		DiamondQuality:     breakdown.DiamondQuality,
		MetalValue:         breakdown.TotalMetalValue,
		DiamondValue:       breakdown.DiamondValue,
		GemstoneValue:      breakdown.GemstoneValue,
		MakingChargeAmount: breakdown.MakingChargeAmount,
		WastageAmount:      breakdown.WastageAmount,
		StoneSetting:       breakdown.StoneSetting,
		DesignCharges:      breakdown.DesignCharges,
		Discount:           breakdown.Discount,
		Subtotal:           breakdown.Subtotal,
		JewelryTax:         breakdown.JewelryTax,
		LabourTax:          breakdown.LabourTax,
		FinalPrice:         breakdown.FinalPrice,
		Static:             breakdown.Static,
	}
	for _, line := range breakdown.MetalBreakdown {
		payload.MetalLines = append(payload.MetalLines, metalValueLinePayload{
			Type:      string(line.Type),
			Purity:    line.Purity,
			Fixed:     line.Fixed,
			NetWeight: line.NetWeight,
			Rate:      line.Rate,
			Value:     line.Value,
		})
	}
	return payload
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrPricingProductNotFound), errors.Is(err, services.ErrStockNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrProductInvalidInput), errors.Is(err, services.ErrPricingInvalidInput), errors.Is(err, services.ErrStockInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, pagination.ErrInvalidPageToken):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page_token is not valid", http.StatusBadRequest))
	case errors.Is(err, services.ErrPricingRateUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("pricing_rate_unavailable", "metal rates unavailable for this selection", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrPricingUnresolvable):
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unresolvable", "selection cannot be priced", http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}
