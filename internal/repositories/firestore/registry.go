package firestore

import (
	"context"
	"errors"
	"fmt"

	firestoredb "cloud.google.com/go/firestore"

	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the accessor
// interface consumed by the DI container.
type Registry struct {
	provider *pfirestore.Provider

	products  *ProductRepository
	rates     *RateRepository
	orders    *OrderRepository
	coupons   *CouponRepository
	stock     *StockRepository
	carts     *CartRepository
	banners   *BannerRepository
	approvals *ApprovalRepository
	auditLogs *AuditLogRepository
	counters  *CounterRepository
	health    repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// RegistryOption customises registry construction.
type RegistryOption func(*Registry)

// WithRegistryHealth attaches a health repository assembled by the caller,
// typically wrapping dependency probes that reach beyond Firestore.
func WithRegistryHealth(health repositories.HealthRepository) RegistryOption {
	return func(r *Registry) {
		r.health = health
	}
}

// NewRegistry constructs every Firestore repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider, opts ...RegistryOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}

	reg := &Registry{provider: provider}
	for _, opt := range opts {
		opt(reg)
	}

	var err error
	if reg.products, err = NewProductRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: products: %w", err)
	}
	if reg.rates, err = NewRateRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: rates: %w", err)
	}
	if reg.orders, err = NewOrderRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: orders: %w", err)
	}
	if reg.coupons, err = NewCouponRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: coupons: %w", err)
	}
	if reg.stock, err = NewStockRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: stock: %w", err)
	}
	if reg.carts, err = NewCartRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: carts: %w", err)
	}
	if reg.banners, err = NewBannerRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: banners: %w", err)
	}
	if reg.approvals, err = NewApprovalRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: approvals: %w", err)
	}
	if reg.auditLogs, err = NewAuditLogRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: audit logs: %w", err)
	}
	if reg.counters, err = NewCounterRepository(provider); err != nil {
		return nil, fmt.Errorf("firestore registry: counters: %w", err)
	}

	return reg, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *Registry) Products() repositories.ProductRepository   { return r.products }
func (r *Registry) Rates() repositories.RateRepository         { return r.rates }
func (r *Registry) Orders() repositories.OrderRepository       { return r.orders }
func (r *Registry) Coupons() repositories.CouponRepository     { return r.coupons }
func (r *Registry) Stock() repositories.StockRepository        { return r.stock }
func (r *Registry) Carts() repositories.CartRepository         { return r.carts }
func (r *Registry) Banners() repositories.BannerRepository     { return r.banners }
func (r *Registry) Approvals() repositories.ApprovalRepository { return r.approvals }
func (r *Registry) AuditLogs() repositories.AuditLogRepository { return r.auditLogs }
func (r *Registry) Counters() repositories.CounterRepository   { return r.counters }
func (r *Registry) Health() repositories.HealthRepository      { return r.health }

// RunInTx executes fn inside a Firestore transaction. The callback receives the
// same context and relies on individual repositories for document access.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("firestore registry: transaction function is required")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestoredb.Transaction) error {
		return fn(ctx)
	})
}
