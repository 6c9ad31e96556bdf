package services

import (
	"strings"

	domain "github.com/aurelia-jewels/api/internal/domain"
)

// NormalizeConfigurator folds a raw product configuration payload into the
// canonical multi-metal shape. Two historical shapes are accepted: the current
// one carrying a configurableMetals list, and the legacy single-metal one with
// metalType and purities at the top level. Disabled or malformed payloads
// return nil; absence of configuration is a valid state, never an error.
// Normalizing an already-canonical payload yields the same structure.
func NormalizeConfigurator(raw map[string]any) *domain.Configurator {
	if len(raw) == 0 {
		return nil
	}
	if enabled, ok := raw["enabled"].(bool); ok && !enabled {
		return nil
	}

	cfg := &domain.Configurator{Enabled: true}

	if entries := asSlice(raw["configurableMetals"]); entries != nil {
		for _, entry := range entries {
			metal := normalizeMetalEntry(asMap(entry))
			if metal != nil {
				cfg.Metals = append(cfg.Metals, *metal)
			}
		}
	} else if metalType := asString(raw["metalType"]); metalType != "" {
		// Legacy single-metal shape kept variants and pricing at the top level.
		if metal := normalizeMetalEntry(raw); metal != nil {
			cfg.Metals = append(cfg.Metals, *metal)
		}
	}

	if len(cfg.Metals) == 0 {
		return nil
	}

	for _, entry := range asSlice(raw["fixedMetals"]) {
		m := asMap(entry)
		if m == nil {
			continue
		}
		fixed := domain.FixedMetal{
			Type:        domain.MetalType(strings.ToLower(asString(m["type"]))),
			Purity:      normalizePurity(asString(m["purity"])),
			NetWeight:   clampWeight(asFloat(m["netWeight"])),
			GrossWeight: clampWeight(asFloat(m["grossWeight"])),
			Sizes:       normalizeSizes(m["sizes"]),
		}
		if fixed.Type == "" || fixed.Purity == "" {
			continue
		}
		cfg.FixedMetals = append(cfg.FixedMetals, fixed)
	}

	cfg.DefaultMetalType = domain.MetalType(strings.ToLower(asString(raw["defaultMetalType"])))
	cfg.DefaultPurity = normalizePurity(asString(raw["defaultPurity"]))
	if !hasMetalType(cfg.Metals, cfg.DefaultMetalType) {
		cfg.DefaultMetalType = cfg.Metals[0].Type
	}
	if !hasPurity(cfg.Metals, cfg.DefaultMetalType, cfg.DefaultPurity) {
		for _, metal := range cfg.Metals {
			if metal.Type == cfg.DefaultMetalType && len(metal.Variants) > 0 {
				cfg.DefaultPurity = metal.Variants[0].Purity
				break
			}
		}
	}
	return cfg
}

func normalizeMetalEntry(m map[string]any) *domain.ConfigurableMetal {
	if m == nil {
		return nil
	}
	metal := domain.ConfigurableMetal{
		Type:    domain.MetalType(strings.ToLower(asString(m["type"]))),
		Pricing: normalizePricingOverride(asMap(m["pricing"])),
	}
	if metal.Type == "" {
		metal.Type = domain.MetalType(strings.ToLower(asString(m["metalType"])))
	}
	if metal.Type == "" {
		return nil
	}
	variantEntries := asSlice(m["variants"])
	if variantEntries == nil {
		variantEntries = asSlice(m["purities"])
	}
	for _, entry := range variantEntries {
		variant := normalizeVariant(asMap(entry))
		if variant != nil {
			metal.Variants = append(metal.Variants, *variant)
		}
	}
	if len(metal.Variants) == 0 {
		return nil
	}
	return &metal
}

func normalizeVariant(m map[string]any) *domain.MetalVariant {
	if m == nil {
		return nil
	}
	variant := domain.MetalVariant{
		Purity:      normalizePurity(asString(m["purity"])),
		NetWeight:   clampWeight(asFloat(m["netWeight"])),
		GrossWeight: clampWeight(asFloat(m["grossWeight"])),
		Sizes:       normalizeSizes(m["sizes"]),
	}
	if variant.Purity == "" {
		return nil
	}
	for _, color := range asSlice(m["availableColors"]) {
		if c := asString(color); c != "" {
			variant.AvailableColors = append(variant.AvailableColors, c)
		}
	}
	variant.DefaultColor = asString(m["defaultColor"])
	if !containsString(variant.AvailableColors, variant.DefaultColor) {
		variant.DefaultColor = firstString(variant.AvailableColors)
	}
	for _, quality := range asSlice(m["availableDiamondQualities"]) {
		if q := strings.ToUpper(asString(quality)); q != "" {
			variant.AvailableDiamondQualities = append(variant.AvailableDiamondQualities, q)
		}
	}
	variant.DefaultDiamondQuality = strings.ToUpper(asString(m["defaultDiamondQuality"]))
	if !containsString(variant.AvailableDiamondQualities, variant.DefaultDiamondQuality) {
		variant.DefaultDiamondQuality = firstString(variant.AvailableDiamondQualities)
	}
	variant.DefaultSize = asString(m["defaultSize"])
	if !hasSize(variant.Sizes, variant.DefaultSize) {
		if len(variant.Sizes) > 0 {
			variant.DefaultSize = variant.Sizes[0].Size
		} else {
			variant.DefaultSize = ""
		}
	}
	return &variant
}

func normalizeSizes(value any) []domain.SizeWeight {
	var sizes []domain.SizeWeight
	for _, entry := range asSlice(value) {
		m := asMap(entry)
		if m == nil {
			continue
		}
		size := domain.SizeWeight{
			Size:        asString(m["size"]),
			NetWeight:   clampWeight(asFloat(m["netWeight"])),
			GrossWeight: clampWeight(asFloat(m["grossWeight"])),
		}
		if size.Size == "" {
			continue
		}
		sizes = append(sizes, size)
	}
	return sizes
}

func normalizePricingOverride(m map[string]any) domain.MetalPricingOverride {
	if m == nil {
		return domain.MetalPricingOverride{}
	}
	return domain.MetalPricingOverride{
		MakingChargeType:  strings.ToLower(asString(m["makingChargeType"])),
		MakingChargeValue: asFloat(m["makingChargeValue"]),
		WastageType:       strings.ToLower(asString(m["wastageChargeType"])),
		WastageValue:      asFloat(m["wastageChargeValue"]),
		JewelryGST:        asFloat(m["jewelryGst"]),
		MakingGST:         asFloat(m["makingGst"]),
	}
}

// configuratorToMap serialises the canonical shape back to the document form
// used for approval payloads and snapshots.
func configuratorToMap(cfg *domain.Configurator) map[string]any {
	if cfg == nil {
		return nil
	}
	out := map[string]any{
		"enabled":          cfg.Enabled,
		"defaultMetalType": string(cfg.DefaultMetalType),
		"defaultPurity":    cfg.DefaultPurity,
	}
	metals := make([]any, 0, len(cfg.Metals))
	for _, metal := range cfg.Metals {
		variants := make([]any, 0, len(metal.Variants))
		for _, variant := range metal.Variants {
			variants = append(variants, map[string]any{
				"purity":                    variant.Purity,
				"netWeight":                 variant.NetWeight,
				"grossWeight":               variant.GrossWeight,
				"availableColors":           stringsToAny(variant.AvailableColors),
				"defaultColor":              variant.DefaultColor,
				"availableDiamondQualities": stringsToAny(variant.AvailableDiamondQualities),
				"defaultDiamondQuality":     variant.DefaultDiamondQuality,
				"sizes":                     sizesToAny(variant.Sizes),
				"defaultSize":               variant.DefaultSize,
			})
		}
		metals = append(metals, map[string]any{
			"type":     string(metal.Type),
			"variants": variants,
			"pricing": map[string]any{
				"makingChargeType":   metal.Pricing.MakingChargeType,
				"makingChargeValue":  metal.Pricing.MakingChargeValue,
				"wastageChargeType":  metal.Pricing.WastageType,
				"wastageChargeValue": metal.Pricing.WastageValue,
				"jewelryGst":         metal.Pricing.JewelryGST,
				"makingGst":          metal.Pricing.MakingGST,
			},
		})
	}
	out["configurableMetals"] = metals
	if len(cfg.FixedMetals) > 0 {
		fixed := make([]any, 0, len(cfg.FixedMetals))
		for _, fm := range cfg.FixedMetals {
			fixed = append(fixed, map[string]any{
				"type":        string(fm.Type),
				"purity":      fm.Purity,
				"netWeight":   fm.NetWeight,
				"grossWeight": fm.GrossWeight,
				"sizes":       sizesToAny(fm.Sizes),
			})
		}
		out["fixedMetals"] = fixed
	}
	return out
}

func normalizePurity(purity string) string {
	return strings.ToUpper(strings.TrimSpace(purity))
}

func clampWeight(weight float64) float64 {
	if weight < 0 {
		return 0
	}
	return weight
}

func hasMetalType(metals []domain.ConfigurableMetal, metalType domain.MetalType) bool {
	for _, metal := range metals {
		if metal.Type == metalType {
			return true
		}
	}
	return false
}

func hasPurity(metals []domain.ConfigurableMetal, metalType domain.MetalType, purity string) bool {
	for _, metal := range metals {
		if metal.Type != metalType {
			continue
		}
		for _, variant := range metal.Variants {
			if variant.Purity == purity {
				return true
			}
		}
	}
	return false
}

func hasSize(sizes []domain.SizeWeight, size string) bool {
	for _, s := range sizes {
		if s.Size == size && size != "" {
			return true
		}
	}
	return false
}

func containsString(values []string, value string) bool {
	if value == "" {
		return false
	}
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func firstString(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func stringsToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func sizesToAny(sizes []domain.SizeWeight) []any {
	out := make([]any, 0, len(sizes))
	for _, size := range sizes {
		out = append(out, map[string]any{
			"size":        size.Size,
			"netWeight":   size.NetWeight,
			"grossWeight": size.GrossWeight,
		})
	}
	return out
}

func asMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func asSlice(value any) []any {
	s, _ := value.([]any)
	return s
}

func asString(value any) string {
	s, _ := value.(string)
	return strings.TrimSpace(s)
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func asBool(value any) bool {
	b, _ := value.(bool)
	return b
}
