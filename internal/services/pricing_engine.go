package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

var (
	// ErrPricingInvalidInput indicates required quote fields were missing.
	ErrPricingInvalidInput = errors.New("pricing: invalid input")
	// ErrPricingProductNotFound indicates the quoted product does not exist.
	ErrPricingProductNotFound = errors.New("pricing: product not found")
	// ErrPricingRateUnavailable indicates the rate table carries no usable rate
	// for a configured metal. Zero-rate is "cannot price", never a free item.
	ErrPricingRateUnavailable = errors.New("pricing: rate unavailable")
	// ErrPricingUnresolvable indicates no variant combination produced a price.
	ErrPricingUnresolvable = errors.New("pricing: no resolvable variant")
)

// variantSelection names the buyer's choices for one resolution pass. Empty
// fields fall back to configurator defaults.
type variantSelection struct {
	MetalType      domain.MetalType
	Purity         string
	Size           string
	DiamondQuality string
}

// PricingEngineDeps enumerates collaborators required to construct the engine.
type PricingEngineDeps struct {
	Products repositories.ProductRepository
	Rates    repositories.RateRepository
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type pricingEngine struct {
	products repositories.ProductRepository
	rates    repositories.RateRepository
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewPricingEngine wires dependencies into a PricingService implementation.
func NewPricingEngine(deps PricingEngineDeps) (PricingService, error) {
	if deps.Products == nil {
		return nil, errors.New("pricing engine: product repository is required")
	}
	if deps.Rates == nil {
		return nil, errors.New("pricing engine: rate repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &pricingEngine{
		products: deps.Products,
		rates:    deps.Rates,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (e *pricingEngine) Quote(ctx context.Context, cmd QuoteCommand) (PriceBreakdown, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return PriceBreakdown{}, fmt.Errorf("%w: product id is required", ErrPricingInvalidInput)
	}

	product, err := e.products.FindByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return PriceBreakdown{}, ErrPricingProductNotFound
		}
		return PriceBreakdown{}, err
	}

	table, charges, err := loadRateContext(ctx, e.rates)
	if err != nil {
		return PriceBreakdown{}, err
	}

	breakdown, err := resolveVariantPrice(product, table, charges, variantSelection{
		MetalType:      domain.MetalType(strings.ToLower(strings.TrimSpace(cmd.MetalType))),
		Purity:         normalizePurity(cmd.Purity),
		Size:           strings.TrimSpace(cmd.Size),
		DiamondQuality: strings.ToUpper(strings.TrimSpace(cmd.DiamondQuality)),
	})
	if err != nil {
		return PriceBreakdown{}, err
	}
	return breakdown, nil
}

func (e *pricingEngine) ComputeRange(ctx context.Context, product Product) (PriceRange, PriceBreakdown, error) {
	table, charges, err := loadRateContext(ctx, e.rates)
	if err != nil {
		return PriceRange{}, PriceBreakdown{}, err
	}
	return computePriceRange(product, table, charges)
}

// loadRateContext fetches the live rate table and charge configuration. A
// missing charge document falls back to built-in defaults.
func loadRateContext(ctx context.Context, rates repositories.RateRepository) (domain.RateTable, *ChargeResolver, error) {
	table, err := rates.GetRateTable(ctx)
	if err != nil {
		return domain.RateTable{}, nil, err
	}
	chargeConfig, err := rates.GetChargeConfig(ctx)
	if err != nil {
		if !isRepoNotFound(err) {
			return domain.RateTable{}, nil, err
		}
		chargeConfig = domain.ChargeConfig{}
	}
	return table, NewChargeResolver(chargeConfig), nil
}

// resolveVariantPrice computes the full breakdown for one configuration. When
// the configurator is disabled or empty the product's last persisted static
// pricing is returned unchanged, keeping legacy products sellable.
func resolveVariantPrice(product domain.Product, table domain.RateTable, charges *ChargeResolver, sel variantSelection) (domain.PriceBreakdown, error) {
	cfg := product.Configurator
	if cfg == nil || !cfg.Enabled || len(cfg.Metals) == 0 {
		return staticBreakdown(product), nil
	}

	metal := selectMetal(cfg, sel.MetalType)
	variant := selectVariant(metal, cfg.DefaultPurity, sel.Purity)
	if variant == nil {
		return staticBreakdown(product), nil
	}

	breakdown := domain.PriceBreakdown{
		MetalType: metal.Type,
		Purity:    variant.Purity,
	}

	// Metal value: the selected variant first, then every fixed metal, each
	// with its own size-indexed weight.
	netWeight, size := variantWeight(*variant, sel.Size)
	breakdown.Size = size

	rate := RateFor(metal.Type, variant.Purity, table)
	if rate <= 0 {
		return domain.PriceBreakdown{}, fmt.Errorf("%w: no %s rate for purity %s", ErrPricingRateUnavailable, metal.Type, variant.Purity)
	}

	totalMetal := decimal.Zero
	totalWeight := decimal.Zero

	value := decimal.NewFromFloat(rate).Mul(decimal.NewFromFloat(netWeight))
	totalMetal = totalMetal.Add(value)
	totalWeight = totalWeight.Add(decimal.NewFromFloat(netWeight))
	breakdown.MetalBreakdown = append(breakdown.MetalBreakdown, domain.MetalValueLine{
		Type:      metal.Type,
		Purity:    variant.Purity,
		NetWeight: netWeight,
		Rate:      rate,
		Value:     value.InexactFloat64(),
	})

	for _, fixed := range cfg.FixedMetals {
		fixedWeight := fixed.NetWeight
		if w, ok := sizeWeightFor(fixed.Sizes, sel.Size); ok {
			fixedWeight = w
		}
		fixedRate := RateFor(fixed.Type, fixed.Purity, table)
		if fixedRate <= 0 {
			return domain.PriceBreakdown{}, fmt.Errorf("%w: no %s rate for purity %s", ErrPricingRateUnavailable, fixed.Type, fixed.Purity)
		}
		fixedValue := decimal.NewFromFloat(fixedRate).Mul(decimal.NewFromFloat(fixedWeight))
		totalMetal = totalMetal.Add(fixedValue)
		totalWeight = totalWeight.Add(decimal.NewFromFloat(fixedWeight))
		breakdown.MetalBreakdown = append(breakdown.MetalBreakdown, domain.MetalValueLine{
			Type:      fixed.Type,
			Purity:    fixed.Purity,
			Fixed:     true,
			NetWeight: fixedWeight,
			Rate:      fixedRate,
			Value:     fixedValue.InexactFloat64(),
		})
	}
	breakdown.TotalMetalValue = totalMetal.InexactFloat64()

	// Diamond value via quality bucket, defaulting through the variant's
	// configured bucket down to SI_IJ. A missing bucket rate degrades to zero.
	diamondValue := decimal.Zero
	if product.Diamond != nil && product.Diamond.TotalCaratWeight > 0 {
		bucket := firstNonEmpty(sel.DiamondQuality, variant.DefaultDiamondQuality, strings.ToUpper(product.Diamond.DefaultQuality), domain.DefaultDiamondQuality)
		breakdown.DiamondQuality = bucket
		caratRate := table.Diamond[bucket]
		if caratRate <= 0 {
			caratRate = table.Diamond[domain.DefaultDiamondQuality]
		}
		diamondValue = decimal.NewFromFloat(caratRate).Mul(decimal.NewFromFloat(product.Diamond.TotalCaratWeight))
	}
	breakdown.DiamondValue = diamondValue.InexactFloat64()

	gemstoneValue := decimal.Zero
	if product.Gemstone != nil && product.Gemstone.Value > 0 {
		gemstoneValue = decimal.NewFromFloat(product.Gemstone.Value)
	}
	breakdown.GemstoneValue = gemstoneValue.InexactFloat64()

	// Making and wastage charges from the resolved chain. Exactly one branch
	// applies per charge.
	resolved := charges.For(product.Category, metal.Pricing)
	making := chargeAmount(resolved.MakingType, resolved.MakingValue, totalMetal, totalWeight)
	wastage := chargeAmount(resolved.WastageType, resolved.WastageValue, totalMetal, totalWeight)
	breakdown.MakingChargeAmount = making.InexactFloat64()
	breakdown.WastageAmount = wastage.InexactFloat64()

	stoneSetting := decimal.NewFromFloat(product.ExtraCharges.StoneSetting)
	design := decimal.NewFromFloat(product.ExtraCharges.Design)
	breakdown.StoneSetting = stoneSetting.InexactFloat64()
	breakdown.DesignCharges = design.InexactFloat64()

	subtotal := totalMetal.Add(diamondValue).Add(gemstoneValue).Add(making).Add(wastage).Add(stoneSetting).Add(design)
	breakdown.Subtotal = subtotal.InexactFloat64()

	// Tax splits by taxable base: metal and stone value versus labour value.
	jewelryBase := totalMetal.Add(diamondValue).Add(gemstoneValue)
	labourBase := making.Add(wastage).Add(stoneSetting).Add(design)
	jewelryTax := jewelryBase.Mul(decimal.NewFromFloat(resolved.JewelryGSTRate)).Div(decimal.NewFromInt(100))
	labourTax := labourBase.Mul(decimal.NewFromFloat(resolved.MakingGSTRate)).Div(decimal.NewFromInt(100))
	breakdown.JewelryTax = jewelryTax.InexactFloat64()
	breakdown.LabourTax = labourTax.InexactFloat64()

	// Rounded once, at the end.
	final := subtotal.Sub(decimal.NewFromFloat(breakdown.Discount)).Add(jewelryTax).Add(labourTax)
	breakdown.FinalPrice = final.Round(0).IntPart()
	return breakdown, nil
}

// computePriceRange enumerates metals, variants, diamond qualities, and the
// two size extremes by weight, tracking min and max final price, plus one
// default-configuration price. The space is bounded by catalog design.
func computePriceRange(product domain.Product, table domain.RateTable, charges *ChargeResolver) (domain.PriceRange, domain.PriceBreakdown, error) {
	cfg := product.Configurator
	if cfg == nil || !cfg.Enabled || len(cfg.Metals) == 0 {
		static := staticBreakdown(product)
		return domain.PriceRange{
			MinPrice:     static.FinalPrice,
			MaxPrice:     static.FinalPrice,
			DefaultPrice: static.FinalPrice,
		}, static, nil
	}

	var (
		found    bool
		minPrice int64
		maxPrice int64
	)
	for _, metal := range cfg.Metals {
		for _, variant := range metal.Variants {
			qualities := variant.AvailableDiamondQualities
			if len(qualities) == 0 {
				qualities = []string{""}
			}
			for _, quality := range qualities {
				for _, size := range sizeExtremes(variant) {
					breakdown, err := resolveVariantPrice(product, table, charges, variantSelection{
						MetalType:      metal.Type,
						Purity:         variant.Purity,
						Size:           size,
						DiamondQuality: quality,
					})
					if err != nil {
						// One unpriceable combination narrows the range, it
						// does not sink the whole product.
						continue
					}
					if !found || breakdown.FinalPrice < minPrice {
						minPrice = breakdown.FinalPrice
					}
					if !found || breakdown.FinalPrice > maxPrice {
						maxPrice = breakdown.FinalPrice
					}
					found = true
				}
			}
		}
	}
	if !found {
		return domain.PriceRange{}, domain.PriceBreakdown{}, ErrPricingUnresolvable
	}

	defaultBreakdown, err := resolveVariantPrice(product, table, charges, variantSelection{})
	if err != nil {
		return domain.PriceRange{}, domain.PriceBreakdown{}, err
	}
	return domain.PriceRange{
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		DefaultPrice: defaultBreakdown.FinalPrice,
	}, defaultBreakdown, nil
}

func staticBreakdown(product domain.Product) domain.PriceBreakdown {
	if product.Pricing.Breakdown != nil {
		static := *product.Pricing.Breakdown
		static.Static = true
		return static
	}
	return domain.PriceBreakdown{
		FinalPrice: product.Pricing.FinalPrice,
		Static:     true,
	}
}

// selectMetal applies the fallback chain: requested type, configurator
// default, first entry.
func selectMetal(cfg *domain.Configurator, requested domain.MetalType) domain.ConfigurableMetal {
	for _, metal := range cfg.Metals {
		if requested != "" && metal.Type == requested {
			return metal
		}
	}
	for _, metal := range cfg.Metals {
		if metal.Type == cfg.DefaultMetalType {
			return metal
		}
	}
	return cfg.Metals[0]
}

// selectVariant applies the same fallback chain over purities within a metal.
func selectVariant(metal domain.ConfigurableMetal, defaultPurity, requested string) *domain.MetalVariant {
	if len(metal.Variants) == 0 {
		return nil
	}
	for i := range metal.Variants {
		if requested != "" && metal.Variants[i].Purity == requested {
			return &metal.Variants[i]
		}
	}
	for i := range metal.Variants {
		if metal.Variants[i].Purity == defaultPurity {
			return &metal.Variants[i]
		}
	}
	return &metal.Variants[0]
}

// variantWeight resolves the effective net weight for a selection, preferring
// a size-specific weight over the variant base weight.
func variantWeight(variant domain.MetalVariant, selectedSize string) (float64, string) {
	size := strings.TrimSpace(selectedSize)
	if size == "" {
		size = variant.DefaultSize
	}
	if w, ok := sizeWeightFor(variant.Sizes, size); ok {
		return w, size
	}
	return variant.NetWeight, size
}

func sizeWeightFor(sizes []domain.SizeWeight, size string) (float64, bool) {
	if size == "" {
		return 0, false
	}
	for _, s := range sizes {
		if s.Size == size {
			return s.NetWeight, true
		}
	}
	return 0, false
}

// sizeExtremes returns the minimum- and maximum-weight sizes of a variant,
// collapsed to one when they coincide, or a single blank selection when the
// variant has no size list.
func sizeExtremes(variant domain.MetalVariant) []string {
	if len(variant.Sizes) == 0 {
		return []string{""}
	}
	minSize, maxSize := variant.Sizes[0], variant.Sizes[0]
	for _, s := range variant.Sizes[1:] {
		if s.NetWeight < minSize.NetWeight {
			minSize = s
		}
		if s.NetWeight > maxSize.NetWeight {
			maxSize = s
		}
	}
	if minSize.Size == maxSize.Size {
		return []string{minSize.Size}
	}
	return []string{minSize.Size, maxSize.Size}
}

func chargeAmount(chargeType string, value float64, metalValue decimal.Decimal, totalWeight decimal.Decimal) decimal.Decimal {
	if value <= 0 {
		return decimal.Zero
	}
	switch chargeType {
	case domain.ChargeTypePercentage:
		return metalValue.Mul(decimal.NewFromFloat(value)).Div(decimal.NewFromInt(100))
	case domain.ChargeTypeFlatPerGram:
		return decimal.NewFromFloat(value).Mul(totalWeight)
	case domain.ChargeTypeFixedAmount, domain.ChargeTypeFixed:
		return decimal.NewFromFloat(value)
	}
	return decimal.Zero
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
