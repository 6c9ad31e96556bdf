package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

// Entity type keys registered with the approval service.
const (
	EntityTypeProduct = "product"
	EntityTypeBanner  = "banner"
	EntityTypeRates   = "rates"

	productIDPrefix = "prd_"
	bannerIDPrefix  = "bnr_"

	approvalMarkerPending  = "pending"
	approvalMarkerRejected = "rejected"
)

// rateEntityID is the single rates document behind the gate.
const rateEntityID = "metal_rates"

// productMutator adapts catalog products to the approval gate. Applied
// changes synchronously recompute the stored price range.
type productMutator struct {
	products repositories.ProductRepository
	pricing  PricingService
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewProductMutator builds the product EntityMutator.
func NewProductMutator(products repositories.ProductRepository, pricing PricingService, clock func() time.Time, logger func(context.Context, string, map[string]any)) (EntityMutator, error) {
	if products == nil {
		return nil, errors.New("product mutator: product repository is required")
	}
	if pricing == nil {
		return nil, errors.New("product mutator: pricing service is required")
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &productMutator{
		products: products,
		pricing:  pricing,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: func() string {
			return productIDPrefix + ulid.Make().String()
		},
		logger: logger,
	}, nil
}

func (m *productMutator) Snapshot(ctx context.Context, entityID string) (map[string]any, error) {
	product, err := m.products.FindByID(ctx, entityID)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return productToMap(product), nil
}

func (m *productMutator) StagePending(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error) {
	now := m.clock()
	if action == domain.ApprovalActionCreate {
		product := domain.Product{
			ID:             m.newID(),
			Active:         false,
			ApprovalStatus: approvalMarkerPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		applyProductChanges(&product, changes)
		product.Active = false
		if err := m.products.Insert(ctx, product); err != nil {
			return "", err
		}
		return product.ID, nil
	}
	if err := m.products.SetApprovalStatus(ctx, entityID, approvalMarkerPending, now); err != nil {
		return "", err
	}
	return entityID, nil
}

func (m *productMutator) Apply(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error) {
	now := m.clock()

	if action == domain.ApprovalActionCreate && entityID == "" {
		// Privileged direct create; nothing was staged.
		product := domain.Product{
			ID:        m.newID(),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyProductChanges(&product, changes)
		m.refreshPricing(ctx, &product)
		if err := m.products.Insert(ctx, product); err != nil {
			return "", err
		}
		return product.ID, nil
	}

	product, err := m.products.FindByID(ctx, entityID)
	if err != nil {
		return "", err
	}
	switch action {
	case domain.ApprovalActionCreate:
		// Approving a staged create activates the parked entity.
		applyProductChanges(&product, changes)
		if _, ok := changes["active"]; !ok {
			product.Active = true
		}
	case domain.ApprovalActionUpdate:
		applyProductChanges(&product, changes)
	case domain.ApprovalActionArchive:
		product.Active = false
	case domain.ApprovalActionRestore:
		product.Active = true
	}
	product.ApprovalStatus = ""
	product.UpdatedAt = now
	m.refreshPricing(ctx, &product)
	if err := m.products.Update(ctx, product); err != nil {
		return "", err
	}
	return product.ID, nil
}

func (m *productMutator) Discard(ctx context.Context, action domain.ApprovalAction, entityID string) error {
	if action == domain.ApprovalActionCreate {
		// The staged entity stays inactive, marked rejected.
		return m.products.SetApprovalStatus(ctx, entityID, approvalMarkerRejected, m.clock())
	}
	return m.products.SetApprovalStatus(ctx, entityID, "", m.clock())
}

// refreshPricing recomputes the stored range after a mutation. A failure
// keeps the previous derived pricing; the mutation itself still lands.
func (m *productMutator) refreshPricing(ctx context.Context, product *domain.Product) {
	priceRange, breakdown, err := m.pricing.ComputeRange(ctx, *product)
	if err != nil {
		m.logger(ctx, "product.reprice_failed", map[string]any{
			"productId": product.ID,
			"error":     err.Error(),
		})
		return
	}
	snapshot := breakdown
	product.PriceRange = &priceRange
	product.Pricing = domain.ProductPricing{
		FinalPrice:  priceRange.DefaultPrice,
		Breakdown:   &snapshot,
		RateVersion: product.Pricing.RateVersion,
		ResolvedAt:  m.clock(),
	}
}

func applyProductChanges(product *domain.Product, changes map[string]any) {
	for key, value := range changes {
		switch key {
		case "name":
			product.Name = asString(value)
		case "sku":
			product.SKU = asString(value)
		case "category":
			product.Category = strings.ToLower(asString(value))
		case "description":
			product.Description = asString(value)
		case "active":
			product.Active = asBool(value)
		case "images":
			product.Images = anyToStrings(value)
		case "tags":
			product.Tags = anyToStrings(value)
		case "metadata":
			product.Metadata = cloneMap(asMap(value))
		case "configurator":
			product.Configurator = NormalizeConfigurator(asMap(value))
		case "diamond":
			if m := asMap(value); m != nil {
				product.Diamond = &domain.DiamondDetail{
					TotalCaratWeight: asFloat(m["totalCaratWeight"]),
					StoneCount:       int(asFloat(m["stoneCount"])),
					DefaultQuality:   strings.ToUpper(asString(m["defaultQuality"])),
				}
			} else {
				product.Diamond = nil
			}
		case "gemstone":
			if m := asMap(value); m != nil {
				product.Gemstone = &domain.GemstoneDetail{
					Name:  asString(m["name"]),
					Value: asFloat(m["value"]),
				}
			} else {
				product.Gemstone = nil
			}
		case "extraCharges":
			if m := asMap(value); m != nil {
				product.ExtraCharges = domain.ExtraCharges{
					StoneSetting: asFloat(m["stoneSetting"]),
					Design:       asFloat(m["design"]),
				}
			}
		}
	}
}

func productToMap(product domain.Product) map[string]any {
	out := map[string]any{
		"name":        product.Name,
		"sku":         product.SKU,
		"category":    product.Category,
		"description": product.Description,
		"active":      product.Active,
		"images":      stringsToAny(product.Images),
		"tags":        stringsToAny(product.Tags),
	}
	if product.Configurator != nil {
		out["configurator"] = configuratorToMap(product.Configurator)
	}
	if product.Diamond != nil {
		out["diamond"] = map[string]any{
			"totalCaratWeight": product.Diamond.TotalCaratWeight,
			"stoneCount":       product.Diamond.StoneCount,
			"defaultQuality":   product.Diamond.DefaultQuality,
		}
	}
	if product.Gemstone != nil {
		out["gemstone"] = map[string]any{
			"name":  product.Gemstone.Name,
			"value": product.Gemstone.Value,
		}
	}
	if product.ExtraCharges != (domain.ExtraCharges{}) {
		out["extraCharges"] = map[string]any{
			"stoneSetting": product.ExtraCharges.StoneSetting,
			"design":       product.ExtraCharges.Design,
		}
	}
	if len(product.Metadata) > 0 {
		out["metadata"] = cloneMap(product.Metadata)
	}
	return out
}

// bannerMutator adapts storefront banners to the approval gate.
type bannerMutator struct {
	banners repositories.BannerRepository
	clock   func() time.Time
	newID   func() string
}

// NewBannerMutator builds the banner EntityMutator.
func NewBannerMutator(banners repositories.BannerRepository, clock func() time.Time) (EntityMutator, error) {
	if banners == nil {
		return nil, errors.New("banner mutator: banner repository is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &bannerMutator{
		banners: banners,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: func() string {
			return bannerIDPrefix + ulid.Make().String()
		},
	}, nil
}

func (m *bannerMutator) Snapshot(ctx context.Context, entityID string) (map[string]any, error) {
	banner, err := m.banners.FindByID(ctx, entityID)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return bannerToMap(banner), nil
}

func (m *bannerMutator) StagePending(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error) {
	now := m.clock()
	if action == domain.ApprovalActionCreate {
		banner := domain.Banner{
			ID:             m.newID(),
			Active:         false,
			ApprovalStatus: approvalMarkerPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		applyBannerChanges(&banner, changes)
		banner.Active = false
		if err := m.banners.Insert(ctx, banner); err != nil {
			return "", err
		}
		return banner.ID, nil
	}
	banner, err := m.banners.FindByID(ctx, entityID)
	if err != nil {
		return "", err
	}
	banner.ApprovalStatus = approvalMarkerPending
	banner.UpdatedAt = now
	if err := m.banners.Update(ctx, banner); err != nil {
		return "", err
	}
	return banner.ID, nil
}

func (m *bannerMutator) Apply(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error) {
	now := m.clock()

	if action == domain.ApprovalActionCreate && entityID == "" {
		banner := domain.Banner{
			ID:        m.newID(),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyBannerChanges(&banner, changes)
		if err := m.banners.Insert(ctx, banner); err != nil {
			return "", err
		}
		return banner.ID, nil
	}

	banner, err := m.banners.FindByID(ctx, entityID)
	if err != nil {
		return "", err
	}
	switch action {
	case domain.ApprovalActionCreate:
		applyBannerChanges(&banner, changes)
		if _, ok := changes["active"]; !ok {
			banner.Active = true
		}
	case domain.ApprovalActionUpdate:
		applyBannerChanges(&banner, changes)
	case domain.ApprovalActionArchive:
		banner.Active = false
	case domain.ApprovalActionRestore:
		banner.Active = true
	}
	banner.ApprovalStatus = ""
	banner.UpdatedAt = now
	if err := m.banners.Update(ctx, banner); err != nil {
		return "", err
	}
	return banner.ID, nil
}

func (m *bannerMutator) Discard(ctx context.Context, action domain.ApprovalAction, entityID string) error {
	banner, err := m.banners.FindByID(ctx, entityID)
	if err != nil {
		return err
	}
	if action == domain.ApprovalActionCreate {
		banner.ApprovalStatus = approvalMarkerRejected
	} else {
		banner.ApprovalStatus = ""
	}
	banner.UpdatedAt = m.clock()
	return m.banners.Update(ctx, banner)
}

func applyBannerChanges(banner *domain.Banner, changes map[string]any) {
	for key, value := range changes {
		switch key {
		case "title":
			banner.Title = asString(value)
		case "imageUrl":
			banner.ImageURL = asString(value)
		case "linkUrl":
			banner.LinkURL = asString(value)
		case "position":
			banner.Position = int(asFloat(value))
		case "active":
			banner.Active = asBool(value)
		}
	}
}

func bannerToMap(banner domain.Banner) map[string]any {
	return map[string]any{
		"title":    banner.Title,
		"imageUrl": banner.ImageURL,
		"linkUrl":  banner.LinkURL,
		"position": banner.Position,
		"active":   banner.Active,
	}
}

// rateMutator adapts the single rate table document to the approval gate. The
// config document has no visible marker to stage, so a pending proposal
// leaves it untouched entirely.
type rateMutator struct {
	rates    repositories.RateRepository
	repricer CatalogRepricer
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewRateMutator builds the rates EntityMutator.
func NewRateMutator(rates repositories.RateRepository, repricer CatalogRepricer, clock func() time.Time, logger func(context.Context, string, map[string]any)) (EntityMutator, error) {
	if rates == nil {
		return nil, errors.New("rate mutator: rate repository is required")
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &rateMutator{
		rates:    rates,
		repricer: repricer,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (m *rateMutator) Snapshot(ctx context.Context, _ string) (map[string]any, error) {
	table, err := m.rates.GetRateTable(ctx)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return map[string]any{
		"version":  table.Version,
		"gold":     rateMapToAny(table.Gold),
		"silver":   rateMapToAny(table.Silver),
		"platinum": rateMapToAny(table.Platinum),
		"diamond":  rateMapToAny(table.Diamond),
	}, nil
}

func (m *rateMutator) StagePending(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error) {
	if action != domain.ApprovalActionUpdate {
		return "", fmt.Errorf("%w: rates only support update", ErrApprovalInvalidInput)
	}
	return rateEntityID, nil
}

func (m *rateMutator) Apply(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error) {
	if action != domain.ApprovalActionUpdate {
		return "", fmt.Errorf("%w: rates only support update", ErrApprovalInvalidInput)
	}
	table := domain.RateTable{
		Version:   "rv_" + ulid.Make().String(),
		Gold:      normalizeRateMap(anyToRateMap(changes["gold"])),
		Silver:    normalizeRateMap(anyToRateMap(changes["silver"])),
		Platinum:  normalizeRateMap(anyToRateMap(changes["platinum"])),
		Diamond:   normalizeRateMap(anyToRateMap(changes["diamond"])),
		UpdatedAt: m.clock(),
		UpdatedBy: asString(changes["updatedBy"]),
	}
	if err := validateRateTable(table); err != nil {
		return "", err
	}
	if err := m.rates.SaveRateTable(ctx, table); err != nil {
		return "", err
	}

	if m.repricer != nil {
		result, err := m.repricer.RepriceCatalog(ctx, RepriceCommand{
			RateVersion: table.Version,
			TriggeredBy: table.UpdatedBy,
		})
		if err != nil {
			m.logger(ctx, "rates.reprice_failed", map[string]any{
				"rateVersion": table.Version,
				"error":       err.Error(),
			})
		} else {
			m.logger(ctx, "rates.reprice_completed", map[string]any{
				"rateVersion": result.RateVersion,
				"processed":   result.Processed,
				"failed":      result.Failed,
				"batches":     result.Batches,
			})
		}
	}
	return rateEntityID, nil
}

func (m *rateMutator) Discard(context.Context, domain.ApprovalAction, string) error {
	return nil
}

func anyToRateMap(value any) map[string]float64 {
	m := asMap(value)
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for key, v := range m {
		out[key] = asFloat(v)
	}
	return out
}

func rateMapToAny(rates map[string]float64) map[string]any {
	out := make(map[string]any, len(rates))
	for key, rate := range rates {
		out[key] = rate
	}
	return out
}

func anyToStrings(value any) []string {
	entries := asSlice(value)
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s := asString(entry); s != "" {
			out = append(out, s)
		}
	}
	return out
}
