package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const defaultRepriceBatchSize = 500

// RepriceServiceDeps enumerates collaborators required to construct the service.
type RepriceServiceDeps struct {
	Products  repositories.ProductRepository
	Rates     repositories.RateRepository
	BatchSize int
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type repriceService struct {
	products  repositories.ProductRepository
	rates     repositories.RateRepository
	batchSize int
	clock     func() time.Time
	logger    func(context.Context, string, map[string]any)
}

// NewRepriceService wires dependencies into a RepriceService implementation.
func NewRepriceService(deps RepriceServiceDeps) (RepriceService, error) {
	if deps.Products == nil {
		return nil, errors.New("reprice service: product repository is required")
	}
	if deps.Rates == nil {
		return nil, errors.New("reprice service: rate repository is required")
	}
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = defaultRepriceBatchSize
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &repriceService{
		products:  deps.Products,
		rates:     deps.Rates,
		batchSize: batchSize,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// RepriceCatalog walks every active product in fixed-size batches and rewrites
// pricing and priceRange under the current rate table. The walk is idempotent:
// it only overwrites derived fields, so re-running after a partial failure
// never accumulates. A failed batch is logged and skipped; later batches
// still commit.
func (s *repriceService) RepriceCatalog(ctx context.Context, cmd RepriceCommand) (RepriceResult, error) {
	table, err := s.rates.GetRateTable(ctx)
	if err != nil {
		return RepriceResult{}, err
	}
	chargeConfig, err := s.rates.GetChargeConfig(ctx)
	if err != nil {
		if !isRepoNotFound(err) {
			return RepriceResult{}, err
		}
		chargeConfig = domain.ChargeConfig{}
	}
	charges := NewChargeResolver(chargeConfig)

	rateVersion := cmd.RateVersion
	if rateVersion == "" {
		rateVersion = table.Version
	}

	result := RepriceResult{
		RateVersion: rateVersion,
		StartedAt:   s.clock(),
	}

	pageToken := ""
	for {
		page, err := s.products.List(ctx, repositories.ProductListFilter{
			ActiveOnly: true,
			Pagination: domain.Pagination{
				PageSize:  s.batchSize,
				PageToken: pageToken,
			},
		})
		if err != nil {
			return result, err
		}
		if len(page.Items) == 0 {
			break
		}

		now := s.clock()
		updates := make([]repositories.ProductPricingUpdate, 0, len(page.Items))
		for _, product := range page.Items {
			priceRange, breakdown, err := computePriceRange(product, table, charges)
			if err != nil {
				result.Failed++
				s.logger(ctx, "reprice.product_failed", map[string]any{
					"productId":   product.ID,
					"rateVersion": rateVersion,
					"error":       err.Error(),
				})
				continue
			}
			snapshot := breakdown
			updates = append(updates, repositories.ProductPricingUpdate{
				ProductID: product.ID,
				Pricing: domain.ProductPricing{
					FinalPrice:  priceRange.DefaultPrice,
					Breakdown:   &snapshot,
					RateVersion: rateVersion,
					ResolvedAt:  now,
				},
				PriceRange: &priceRange,
			})
		}

		if len(updates) > 0 {
			result.Batches++
			if err := s.products.BulkUpdatePricing(ctx, updates); err != nil {
				result.Failed += len(updates)
				s.logger(ctx, "reprice.batch_failed", map[string]any{
					"batch":       result.Batches,
					"size":        len(updates),
					"rateVersion": rateVersion,
					"error":       err.Error(),
				})
			} else {
				result.Processed += len(updates)
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	result.FinishedAt = s.clock()
	return result, nil
}
