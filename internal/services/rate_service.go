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

const (
	// Tax percentages applied when no level of the charge chain configures them.
	defaultJewelryGSTPercent = 3.0
	defaultMakingGSTPercent  = 5.0

	platinumPerGramKey = "perGram"

	eventRatesUpdated   = "rates.updated"
	eventChargesUpdated = "rates.charges.updated"
)

var (
	// ErrRateInvalidInput indicates the rate payload failed validation.
	ErrRateInvalidInput = errors.New("rates: invalid input")
	// ErrRateForbidden indicates the actor may not change rates directly.
	ErrRateForbidden = errors.New("rates: forbidden")
)

// RateFor returns the per-gram rate for a metal and purity. Gold and silver
// require a purity key; platinum falls back to a flat perGram entry; an
// unknown metal yields zero, which callers treat as "cannot price".
func RateFor(metalType domain.MetalType, purity string, table domain.RateTable) float64 {
	key := normalizePurity(purity)
	switch metalType {
	case domain.MetalGold:
		return table.Gold[key]
	case domain.MetalSilver:
		return table.Silver[key]
	case domain.MetalPlatinum:
		if rate, ok := table.Platinum[key]; ok && rate > 0 {
			return rate
		}
		return table.Platinum[platinumPerGramKey]
	}
	return 0
}

// ResolvedCharges is the outcome of walking the charge override chain for one
// metal entry on one product.
type ResolvedCharges struct {
	MakingType     string
	MakingValue    float64
	WastageType    string
	WastageValue   float64
	JewelryGSTRate float64
	MakingGSTRate  float64
}

// ChargeResolver evaluates the ordered override chain per-metal, then
// category, then global, then built-in defaults. Zero or blank values at one
// level defer to the next, they never mean "free".
type ChargeResolver struct {
	config domain.ChargeConfig
}

// NewChargeResolver builds a resolver over the stored charge configuration.
func NewChargeResolver(config domain.ChargeConfig) *ChargeResolver {
	return &ChargeResolver{config: config}
}

// For resolves every charge field independently through the chain.
func (r *ChargeResolver) For(category string, override domain.MetalPricingOverride) ResolvedCharges {
	chain := r.chain(category, override)

	resolved := ResolvedCharges{
		JewelryGSTRate: defaultJewelryGSTPercent,
		MakingGSTRate:  defaultMakingGSTPercent,
	}
	for _, level := range chain {
		if resolved.MakingType == "" && strings.TrimSpace(level.MakingChargeType) != "" && level.MakingChargeValue > 0 {
			resolved.MakingType = strings.TrimSpace(level.MakingChargeType)
			resolved.MakingValue = level.MakingChargeValue
		}
	}
	for _, level := range chain {
		if resolved.WastageType == "" && strings.TrimSpace(level.WastageType) != "" && level.WastageValue > 0 {
			resolved.WastageType = strings.TrimSpace(level.WastageType)
			resolved.WastageValue = level.WastageValue
		}
	}
	for _, level := range chain {
		if level.JewelryGST > 0 {
			resolved.JewelryGSTRate = level.JewelryGST
			break
		}
	}
	for _, level := range chain {
		if level.MakingGST > 0 {
			resolved.MakingGSTRate = level.MakingGST
			break
		}
	}
	return resolved
}

// chain materialises the precedence order as an explicit list so each lookup
// is testable in isolation.
func (r *ChargeResolver) chain(category string, override domain.MetalPricingOverride) []domain.ChargeDefaults {
	levels := []domain.ChargeDefaults{{
		MakingChargeType:  override.MakingChargeType,
		MakingChargeValue: override.MakingChargeValue,
		WastageType:       override.WastageType,
		WastageValue:      override.WastageValue,
		JewelryGST:        override.JewelryGST,
		MakingGST:         override.MakingGST,
	}}
	if r != nil {
		if categoryDefaults, ok := r.config.Categories[strings.ToLower(strings.TrimSpace(category))]; ok {
			levels = append(levels, categoryDefaults)
		}
		levels = append(levels, r.config.Global)
	}
	return levels
}

// CatalogRepricer recomputes stored prices after a rate change.
type CatalogRepricer interface {
	RepriceCatalog(ctx context.Context, cmd RepriceCommand) (RepriceResult, error)
}

// RateServiceDeps enumerates collaborators required to construct the rate service.
type RateServiceDeps struct {
	Rates    repositories.RateRepository
	Repricer CatalogRepricer
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type rateService struct {
	rates    repositories.RateRepository
	repricer CatalogRepricer
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewRateService wires dependencies into a RateService implementation.
func NewRateService(deps RateServiceDeps) (RateService, error) {
	if deps.Rates == nil {
		return nil, errors.New("rate service: rate repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &rateService{
		rates:    deps.Rates,
		repricer: deps.Repricer,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *rateService) GetRates(ctx context.Context) (RateTable, error) {
	return s.rates.GetRateTable(ctx)
}

func (s *rateService) UpdateRates(ctx context.Context, cmd UpdateRatesCommand) (RateTable, error) {
	if !isPrivileged(cmd.Actor) {
		return RateTable{}, ErrRateForbidden
	}
	if len(cmd.Gold) == 0 && len(cmd.Silver) == 0 && len(cmd.Platinum) == 0 && len(cmd.Diamond) == 0 {
		return RateTable{}, fmt.Errorf("%w: at least one rate section is required", ErrRateInvalidInput)
	}

	table := domain.RateTable{
		Version:   "rv_" + ulid.Make().String(),
		Gold:      normalizeRateMap(cmd.Gold),
		Silver:    normalizeRateMap(cmd.Silver),
		Platinum:  normalizeRateMap(cmd.Platinum),
		Diamond:   normalizeRateMap(cmd.Diamond),
		UpdatedAt: s.clock(),
		UpdatedBy: strings.TrimSpace(cmd.Actor.UserID),
	}
	if err := validateRateTable(table); err != nil {
		return RateTable{}, err
	}
	if err := s.rates.SaveRateTable(ctx, table); err != nil {
		return RateTable{}, err
	}
	s.logger(ctx, eventRatesUpdated, map[string]any{
		"rateVersion": table.Version,
		"updatedBy":   table.UpdatedBy,
	})

	s.triggerReprice(ctx, table)
	return table, nil
}

func (s *rateService) GetChargeConfig(ctx context.Context) (ChargeConfig, error) {
	return s.rates.GetChargeConfig(ctx)
}

func (s *rateService) UpdateChargeConfig(ctx context.Context, cmd UpdateChargeConfigCommand) (ChargeConfig, error) {
	if !isPrivileged(cmd.Actor) {
		return ChargeConfig{}, ErrRateForbidden
	}
	cfg := domain.ChargeConfig{
		Categories: make(map[string]domain.ChargeDefaults, len(cmd.Categories)),
		Global:     cmd.Global,
	}
	for category, defaults := range cmd.Categories {
		key := strings.ToLower(strings.TrimSpace(category))
		if key == "" {
			return ChargeConfig{}, fmt.Errorf("%w: blank category key", ErrRateInvalidInput)
		}
		if err := validateChargeDefaults(defaults); err != nil {
			return ChargeConfig{}, err
		}
		cfg.Categories[key] = defaults
	}
	if err := validateChargeDefaults(cfg.Global); err != nil {
		return ChargeConfig{}, err
	}
	if err := s.rates.SaveChargeConfig(ctx, cfg); err != nil {
		return ChargeConfig{}, err
	}
	s.logger(ctx, eventChargesUpdated, map[string]any{
		"updatedBy": cmd.Actor.UserID,
	})
	return cfg, nil
}

// triggerReprice runs the catalog reprice for the new table. Batch failures
// are already isolated inside the repricer; a wholesale failure is logged and
// does not undo the rate save.
func (s *rateService) triggerReprice(ctx context.Context, table domain.RateTable) {
	if s.repricer == nil {
		return
	}
	result, err := s.repricer.RepriceCatalog(ctx, RepriceCommand{
		RateVersion: table.Version,
		TriggeredBy: table.UpdatedBy,
	})
	if err != nil {
		s.logger(ctx, "rates.reprice_failed", map[string]any{
			"rateVersion": table.Version,
			"error":       err.Error(),
		})
		return
	}
	s.logger(ctx, "rates.reprice_completed", map[string]any{
		"rateVersion": result.RateVersion,
		"processed":   result.Processed,
		"failed":      result.Failed,
		"batches":     result.Batches,
	})
}

func normalizeRateMap(rates map[string]float64) map[string]float64 {
	if len(rates) == 0 {
		return nil
	}
	out := make(map[string]float64, len(rates))
	for key, rate := range rates {
		normalized := normalizePurity(key)
		if key == platinumPerGramKey {
			normalized = platinumPerGramKey
		}
		if normalized == "" {
			continue
		}
		out[normalized] = rate
	}
	return out
}

func validateRateTable(table domain.RateTable) error {
	for section, rates := range map[string]map[string]float64{
		"gold":     table.Gold,
		"silver":   table.Silver,
		"platinum": table.Platinum,
		"diamond":  table.Diamond,
	} {
		for key, rate := range rates {
			if rate < 0 {
				return fmt.Errorf("%w: %s rate %q is negative", ErrRateInvalidInput, section, key)
			}
		}
	}
	return nil
}

func validateChargeDefaults(defaults domain.ChargeDefaults) error {
	if defaults.MakingChargeValue < 0 || defaults.WastageValue < 0 || defaults.JewelryGST < 0 || defaults.MakingGST < 0 {
		return fmt.Errorf("%w: charge values must not be negative", ErrRateInvalidInput)
	}
	switch defaults.MakingChargeType {
	case "", domain.ChargeTypePercentage, domain.ChargeTypeFlatPerGram, domain.ChargeTypeFixedAmount:
	default:
		return fmt.Errorf("%w: unknown making charge type %q", ErrRateInvalidInput, defaults.MakingChargeType)
	}
	switch defaults.WastageType {
	case "", domain.ChargeTypePercentage, domain.ChargeTypeFixed:
	default:
		return fmt.Errorf("%w: unknown wastage charge type %q", ErrRateInvalidInput, defaults.WastageType)
	}
	return nil
}

// isPrivileged reports whether the actor bypasses the approval gate.
func isPrivileged(actor Actor) bool {
	return strings.EqualFold(strings.TrimSpace(actor.Role), "super") || actor.SkipApproval
}
