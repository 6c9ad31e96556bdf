package firestore

import (
	"context"
	"errors"
	"time"

	domain "github.com/aurelia-jewels/api/internal/domain"
	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const (
	configCollection  = "config"
	rateTableDocID    = "metal_rates"
	chargeConfigDocID = "charges"
)

// RateRepository stores the global rate table and charge configuration as two
// well-known documents in the config collection.
type RateRepository struct {
	rates    *pfirestore.BaseRepository[rateTableDocument]
	charges  *pfirestore.BaseRepository[chargeConfigDocument]
	provider *pfirestore.Provider
}

// NewRateRepository constructs a Firestore-backed rate repository.
func NewRateRepository(provider *pfirestore.Provider) (*RateRepository, error) {
	if provider == nil {
		return nil, errors.New("rate repository requires firestore provider")
	}
	return &RateRepository{
		rates:    pfirestore.NewBaseRepository[rateTableDocument](provider, configCollection, nil, nil),
		charges:  pfirestore.NewBaseRepository[chargeConfigDocument](provider, configCollection, nil, nil),
		provider: provider,
	}, nil
}

// GetRateTable loads the current rate sheet.
func (r *RateRepository) GetRateTable(ctx context.Context) (domain.RateTable, error) {
	if r == nil || r.rates == nil {
		return domain.RateTable{}, errors.New("rate repository not initialised")
	}
	doc, err := r.rates.Get(ctx, rateTableDocID)
	if err != nil {
		return domain.RateTable{}, err
	}
	return domain.RateTable{
		Version:   doc.Data.Version,
		Gold:      doc.Data.Gold,
		Silver:    doc.Data.Silver,
		Platinum:  doc.Data.Platinum,
		Diamond:   doc.Data.Diamond,
		UpdatedAt: doc.Data.UpdatedAt,
		UpdatedBy: doc.Data.UpdatedBy,
	}, nil
}

// SaveRateTable replaces the rate sheet document.
func (r *RateRepository) SaveRateTable(ctx context.Context, table domain.RateTable) error {
	if r == nil || r.rates == nil {
		return errors.New("rate repository not initialised")
	}
	_, err := r.rates.Set(ctx, rateTableDocID, rateTableDocument{
		Version:   table.Version,
		Gold:      table.Gold,
		Silver:    table.Silver,
		Platinum:  table.Platinum,
		Diamond:   table.Diamond,
		UpdatedAt: table.UpdatedAt.UTC(),
		UpdatedBy: table.UpdatedBy,
	})
	return err
}

// GetChargeConfig loads category and global charge defaults.
func (r *RateRepository) GetChargeConfig(ctx context.Context) (domain.ChargeConfig, error) {
	if r == nil || r.charges == nil {
		return domain.ChargeConfig{}, errors.New("rate repository not initialised")
	}
	doc, err := r.charges.Get(ctx, chargeConfigDocID)
	if err != nil {
		return domain.ChargeConfig{}, err
	}

	cfg := domain.ChargeConfig{
		Global: decodeChargeDefaults(doc.Data.Global),
	}
	if len(doc.Data.Categories) > 0 {
		cfg.Categories = make(map[string]domain.ChargeDefaults, len(doc.Data.Categories))
		for category, defaults := range doc.Data.Categories {
			cfg.Categories[category] = decodeChargeDefaults(defaults)
		}
	}
	return cfg, nil
}

// SaveChargeConfig replaces the charge defaults document.
func (r *RateRepository) SaveChargeConfig(ctx context.Context, cfg domain.ChargeConfig) error {
	if r == nil || r.charges == nil {
		return errors.New("rate repository not initialised")
	}
	doc := chargeConfigDocument{
		Global: encodeChargeDefaults(cfg.Global),
	}
	if len(cfg.Categories) > 0 {
		doc.Categories = make(map[string]chargeDefaultsDocument, len(cfg.Categories))
		for category, defaults := range cfg.Categories {
			doc.Categories[category] = encodeChargeDefaults(defaults)
		}
	}
	_, err := r.charges.Set(ctx, chargeConfigDocID, doc)
	return err
}

func encodeChargeDefaults(defaults domain.ChargeDefaults) chargeDefaultsDocument {
	return chargeDefaultsDocument{
		MakingChargeType:  defaults.MakingChargeType,
		MakingChargeValue: defaults.MakingChargeValue,
		WastageType:       defaults.WastageType,
		WastageValue:      defaults.WastageValue,
		JewelryGST:        defaults.JewelryGST,
		MakingGST:         defaults.MakingGST,
	}
}

func decodeChargeDefaults(doc chargeDefaultsDocument) domain.ChargeDefaults {
	return domain.ChargeDefaults{
		MakingChargeType:  doc.MakingChargeType,
		MakingChargeValue: doc.MakingChargeValue,
		WastageType:       doc.WastageType,
		WastageValue:      doc.WastageValue,
		JewelryGST:        doc.JewelryGST,
		MakingGST:         doc.MakingGST,
	}
}

type rateTableDocument struct {
	Version   string             `firestore:"version,omitempty"`
	Gold      map[string]float64 `firestore:"gold,omitempty"`
	Silver    map[string]float64 `firestore:"silver,omitempty"`
	Platinum  map[string]float64 `firestore:"platinum,omitempty"`
	Diamond   map[string]float64 `firestore:"diamond,omitempty"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
	UpdatedBy string             `firestore:"updatedBy,omitempty"`
}

type chargeDefaultsDocument struct {
	MakingChargeType  string  `firestore:"makingChargeType,omitempty"`
	MakingChargeValue float64 `firestore:"makingChargeValue,omitempty"`
	WastageType       string  `firestore:"wastageChargeType,omitempty"`
	WastageValue      float64 `firestore:"wastageChargeValue,omitempty"`
	JewelryGST        float64 `firestore:"jewelryGst,omitempty"`
	MakingGST         float64 `firestore:"makingGst,omitempty"`
}

type chargeConfigDocument struct {
	Categories map[string]chargeDefaultsDocument `firestore:"categories,omitempty"`
	Global     chargeDefaultsDocument            `firestore:"global"`
}

var _ repositories.RateRepository = (*RateRepository)(nil)
