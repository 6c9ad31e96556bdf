package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/aurelia-jewels/api/internal/domain"
)

func TestQuoteComputesFullBreakdown(t *testing.T) {
	products := newStubProductRepository(goldRingProduct())
	rates := &stubRateRepository{table: goldRateTable(), chargeErr: errStubNotFound}

	engine, err := NewPricingEngine(PricingEngineDeps{Products: products, Rates: rates, Clock: testClock})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	breakdown, err := engine.Quote(context.Background(), QuoteCommand{
		ProductID: "prd_ring",
		MetalType: "gold",
		Purity:    "22k",
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	// 5g at 6000/g with a 10% making charge and default 3%/5% GST split.
	if breakdown.TotalMetalValue != 30000 {
		t.Fatalf("expected metal value 30000, got %v", breakdown.TotalMetalValue)
	}
	if breakdown.MakingChargeAmount != 3000 {
		t.Fatalf("expected making charge 3000, got %v", breakdown.MakingChargeAmount)
	}
	if breakdown.JewelryTax != 900 {
		t.Fatalf("expected jewelry tax 900, got %v", breakdown.JewelryTax)
	}
	if breakdown.LabourTax != 150 {
		t.Fatalf("expected labour tax 150, got %v", breakdown.LabourTax)
	}
	if breakdown.FinalPrice != 34050 {
		t.Fatalf("expected final price 34050, got %d", breakdown.FinalPrice)
	}
	if breakdown.Purity != "22K" {
		t.Fatalf("expected purity normalised to 22K, got %s", breakdown.Purity)
	}
}

func TestQuoteFinalPriceGrowsWithMetalRate(t *testing.T) {
	products := newStubProductRepository(goldRingProduct())

	// The same selection quoted under a climbing 22K rate must never get
	// cheaper: metal value, charges and taxes all scale with the rate.
	perGram := []float64{6000, 6000, 6850.5, 7000}
	previous := int64(0)
	for _, rate := range perGram {
		table := goldRateTable()
		table.Gold["22K"] = rate
		rates := &stubRateRepository{table: table}

		engine, err := NewPricingEngine(PricingEngineDeps{Products: products, Rates: rates, Clock: testClock})
		if err != nil {
			t.Fatalf("new pricing engine: %v", err)
		}
		breakdown, err := engine.Quote(context.Background(), QuoteCommand{
			ProductID: "prd_ring",
			MetalType: "gold",
			Purity:    "22K",
		})
		if err != nil {
			t.Fatalf("quote at %v/g: %v", rate, err)
		}
		if breakdown.FinalPrice < previous {
			t.Fatalf("final price decreased from %d to %d when the rate rose to %v/g", previous, breakdown.FinalPrice, rate)
		}
		previous = breakdown.FinalPrice
	}
}

func TestQuoteFallsBackToRequestedDefaults(t *testing.T) {
	products := newStubProductRepository(goldRingProduct())
	rates := &stubRateRepository{table: goldRateTable()}

	engine, err := NewPricingEngine(PricingEngineDeps{Products: products, Rates: rates})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	// Unknown purity falls through to the configurator default instead of failing.
	breakdown, err := engine.Quote(context.Background(), QuoteCommand{ProductID: "prd_ring", Purity: "14K"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if breakdown.Purity != "22K" {
		t.Fatalf("expected default purity 22K, got %s", breakdown.Purity)
	}
}

func TestQuoteMissingRateIsAnError(t *testing.T) {
	products := newStubProductRepository(goldRingProduct())
	rates := &stubRateRepository{table: domain.RateTable{Gold: map[string]float64{"18K": 5000}}}

	engine, err := NewPricingEngine(PricingEngineDeps{Products: products, Rates: rates})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	_, err = engine.Quote(context.Background(), QuoteCommand{ProductID: "prd_ring"})
	if !errors.Is(err, ErrPricingRateUnavailable) {
		t.Fatalf("expected rate unavailable error, got %v", err)
	}
}

func TestQuoteUnknownProduct(t *testing.T) {
	engine, err := NewPricingEngine(PricingEngineDeps{
		Products: newStubProductRepository(),
		Rates:    &stubRateRepository{table: goldRateTable()},
	})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	_, err = engine.Quote(context.Background(), QuoteCommand{ProductID: "prd_missing"})
	if !errors.Is(err, ErrPricingProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestQuoteDisabledConfiguratorUsesStaticPricing(t *testing.T) {
	product := goldRingProduct()
	product.Configurator = nil
	product.Pricing = domain.ProductPricing{FinalPrice: 12500}

	engine, err := NewPricingEngine(PricingEngineDeps{
		Products: newStubProductRepository(product),
		Rates:    &stubRateRepository{table: goldRateTable()},
	})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	breakdown, err := engine.Quote(context.Background(), QuoteCommand{ProductID: "prd_ring"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !breakdown.Static {
		t.Fatalf("expected static breakdown")
	}
	if breakdown.FinalPrice != 12500 {
		t.Fatalf("expected stored price 12500, got %d", breakdown.FinalPrice)
	}
}

func TestQuoteIncludesDiamondAndFixedMetals(t *testing.T) {
	product := goldRingProduct()
	product.Diamond = &domain.DiamondDetail{TotalCaratWeight: 0.5, DefaultQuality: "VS_GH"}
	product.Configurator.FixedMetals = []domain.FixedMetal{{
		Type:      domain.MetalSilver,
		Purity:    "925",
		NetWeight: 2,
	}}

	engine, err := NewPricingEngine(PricingEngineDeps{
		Products: newStubProductRepository(product),
		Rates:    &stubRateRepository{table: goldRateTable()},
	})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	breakdown, err := engine.Quote(context.Background(), QuoteCommand{ProductID: "prd_ring"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 30000 gold + 180 silver clasp.
	if breakdown.TotalMetalValue != 30180 {
		t.Fatalf("expected metal value 30180, got %v", breakdown.TotalMetalValue)
	}
	if breakdown.DiamondQuality != "VS_GH" {
		t.Fatalf("expected diamond bucket VS_GH, got %s", breakdown.DiamondQuality)
	}
	if breakdown.DiamondValue != 27500 {
		t.Fatalf("expected diamond value 27500, got %v", breakdown.DiamondValue)
	}
	if len(breakdown.MetalBreakdown) != 2 {
		t.Fatalf("expected two metal lines, got %d", len(breakdown.MetalBreakdown))
	}
	if !breakdown.MetalBreakdown[1].Fixed {
		t.Fatalf("expected second metal line flagged fixed")
	}
}

func TestQuoteMissingDiamondBucketFallsBackToDefault(t *testing.T) {
	product := goldRingProduct()
	product.Diamond = &domain.DiamondDetail{TotalCaratWeight: 1, DefaultQuality: "VVS_EF"}

	engine, err := NewPricingEngine(PricingEngineDeps{
		Products: newStubProductRepository(product),
		Rates:    &stubRateRepository{table: goldRateTable()},
	})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	breakdown, err := engine.Quote(context.Background(), QuoteCommand{ProductID: "prd_ring"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// VVS_EF has no rate in the table; the SI_IJ default bucket prices it.
	if breakdown.DiamondValue != 30000 {
		t.Fatalf("expected fallback diamond value 30000, got %v", breakdown.DiamondValue)
	}
}

func TestComputeRangeBoundsIncludeDefault(t *testing.T) {
	product := goldRingProduct()
	product.Configurator.Metals[0].Variants = []domain.MetalVariant{
		{
			Purity: "22K",
			Sizes: []domain.SizeWeight{
				{Size: "6", NetWeight: 4},
				{Size: "8", NetWeight: 5},
				{Size: "10", NetWeight: 6.5},
			},
			DefaultSize: "8",
		},
		{Purity: "18K", NetWeight: 5},
	}

	engine, err := NewPricingEngine(PricingEngineDeps{
		Products: newStubProductRepository(product),
		Rates:    &stubRateRepository{table: goldRateTable()},
	})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	priceRange, defaultBreakdown, err := engine.ComputeRange(context.Background(), product)
	if err != nil {
		t.Fatalf("compute range: %v", err)
	}
	if priceRange.MinPrice > priceRange.DefaultPrice || priceRange.DefaultPrice > priceRange.MaxPrice {
		t.Fatalf("expected min <= default <= max, got %d / %d / %d",
			priceRange.MinPrice, priceRange.DefaultPrice, priceRange.MaxPrice)
	}
	if priceRange.MinPrice >= priceRange.MaxPrice {
		t.Fatalf("expected a spread across sizes and purities, got %d / %d", priceRange.MinPrice, priceRange.MaxPrice)
	}
	if defaultBreakdown.FinalPrice != priceRange.DefaultPrice {
		t.Fatalf("default breakdown price %d does not match range default %d",
			defaultBreakdown.FinalPrice, priceRange.DefaultPrice)
	}
}

func TestComputeRangeUnresolvableWhenNoRates(t *testing.T) {
	engine, err := NewPricingEngine(PricingEngineDeps{
		Products: newStubProductRepository(),
		Rates:    &stubRateRepository{table: domain.RateTable{}},
	})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	_, _, err = engine.ComputeRange(context.Background(), goldRingProduct())
	if !errors.Is(err, ErrPricingUnresolvable) {
		t.Fatalf("expected unresolvable error, got %v", err)
	}
}

func TestChargeResolverPrecedence(t *testing.T) {
	resolver := NewChargeResolver(domain.ChargeConfig{
		Categories: map[string]domain.ChargeDefaults{
			"rings": {MakingChargeType: domain.ChargeTypePercentage, MakingChargeValue: 12, JewelryGST: 4},
		},
		Global: domain.ChargeDefaults{
			MakingChargeType:  domain.ChargeTypeFlatPerGram,
			MakingChargeValue: 700,
			WastageType:       domain.ChargeTypePercentage,
			WastageValue:      2,
		},
	})

	// Per-metal override wins over both category and global.
	resolved := resolver.For("rings", domain.MetalPricingOverride{
		MakingChargeType:  domain.ChargeTypeFixedAmount,
		MakingChargeValue: 5000,
	})
	if resolved.MakingType != domain.ChargeTypeFixedAmount || resolved.MakingValue != 5000 {
		t.Fatalf("expected override making charge, got %s/%v", resolved.MakingType, resolved.MakingValue)
	}
	// Wastage is unset on the override and the category, so the global applies.
	if resolved.WastageType != domain.ChargeTypePercentage || resolved.WastageValue != 2 {
		t.Fatalf("expected global wastage, got %s/%v", resolved.WastageType, resolved.WastageValue)
	}
	if resolved.JewelryGSTRate != 4 {
		t.Fatalf("expected category jewelry GST 4, got %v", resolved.JewelryGSTRate)
	}

	// No override: category charge applies; unknown category drops to global.
	resolved = resolver.For("rings", domain.MetalPricingOverride{})
	if resolved.MakingType != domain.ChargeTypePercentage || resolved.MakingValue != 12 {
		t.Fatalf("expected category making charge, got %s/%v", resolved.MakingType, resolved.MakingValue)
	}
	resolved = resolver.For("earrings", domain.MetalPricingOverride{})
	if resolved.MakingType != domain.ChargeTypeFlatPerGram || resolved.MakingValue != 700 {
		t.Fatalf("expected global making charge, got %s/%v", resolved.MakingType, resolved.MakingValue)
	}
	if resolved.MakingGSTRate != defaultMakingGSTPercent {
		t.Fatalf("expected built-in making GST, got %v", resolved.MakingGSTRate)
	}
}

func TestRateForPlatinumFallsBackToPerGram(t *testing.T) {
	table := domain.RateTable{
		Platinum: map[string]float64{"950": 3200, "perGram": 3000},
	}
	if rate := RateFor(domain.MetalPlatinum, "950", table); rate != 3200 {
		t.Fatalf("expected purity rate 3200, got %v", rate)
	}
	if rate := RateFor(domain.MetalPlatinum, "900", table); rate != 3000 {
		t.Fatalf("expected perGram fallback 3000, got %v", rate)
	}
	if rate := RateFor("titanium", "900", table); rate != 0 {
		t.Fatalf("expected zero for unknown metal, got %v", rate)
	}
}
