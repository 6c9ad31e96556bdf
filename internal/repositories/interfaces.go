package repositories

import (
	"context"
	"time"

	domain "github.com/aurelia-jewels/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Rates() RateRepository
	Orders() OrderRepository
	Coupons() CouponRepository
	Stock() StockRepository
	Carts() CartRepository
	Banners() BannerRepository
	Approvals() ApprovalRepository
	AuditLogs() AuditLogRepository
	Counters() CounterRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductRepository persists catalog products and their derived pricing.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
	// BulkUpdatePricing overwrites pricing and priceRange for the given products
	// in one batched write. Implementations must not touch any other field.
	BulkUpdatePricing(ctx context.Context, updates []ProductPricingUpdate) error
	SetApprovalStatus(ctx context.Context, productID string, marker string, updatedAt time.Time) error
}

// ProductPricingUpdate carries the repriced fields for one product.
type ProductPricingUpdate struct {
	ProductID  string
	Pricing    domain.ProductPricing
	PriceRange *domain.PriceRange
}

// RateRepository stores the global rate table and charge configuration.
type RateRepository interface {
	GetRateTable(ctx context.Context) (domain.RateTable, error)
	SaveRateTable(ctx context.Context, table domain.RateTable) error
	GetChargeConfig(ctx context.Context) (domain.ChargeConfig, error)
	SaveChargeConfig(ctx context.Context, cfg domain.ChargeConfig) error
}

// OrderRepository persists order documents and query helpers for users and admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// CouponRepository maintains coupon definitions and their usage counters.
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (domain.Coupon, error)
	// IncrementUsage atomically bumps the usage counter, failing with a conflict
	// error when the usage limit would be exceeded.
	IncrementUsage(ctx context.Context, code string, now time.Time) error
	DecrementUsage(ctx context.Context, code string) error
}

// StockRepository manages per-product inventory with atomic increments.
type StockRepository interface {
	Get(ctx context.Context, productID string) (domain.Stock, error)
	// Deduct decrements quantities transactionally, failing the whole batch when
	// any product has insufficient stock.
	Deduct(ctx context.Context, lines []StockLine, now time.Time) error
	// Restore adds quantities back using atomic field increments.
	Restore(ctx context.Context, lines []StockLine, now time.Time) error
}

// StockLine pairs a product with a quantity delta.
type StockLine struct {
	ProductID string
	Quantity  int64
}

// CartRepository owns the buyer's saved cart document.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// BannerRepository stores storefront banners mutated through the approval gate.
type BannerRepository interface {
	Insert(ctx context.Context, banner domain.Banner) error
	Update(ctx context.Context, banner domain.Banner) error
	FindByID(ctx context.Context, bannerID string) (domain.Banner, error)
	ListActive(ctx context.Context) ([]domain.Banner, error)
}

// ApprovalRepository persists maker-checker records.
type ApprovalRepository interface {
	Insert(ctx context.Context, approval domain.PendingApproval) error
	Update(ctx context.Context, approval domain.PendingApproval) error
	FindByID(ctx context.Context, approvalID string) (domain.PendingApproval, error)
	FindPendingByEntity(ctx context.Context, entityType string, entityID string) (domain.PendingApproval, error)
	List(ctx context.Context, filter ApprovalListFilter) (domain.CursorPage[domain.PendingApproval], error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type ProductListFilter struct {
	Category   *string
	ActiveOnly bool
	Tags       []string
	Pagination domain.Pagination
}

type OrderListFilter struct {
	UserID     string
	Status     []string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

type ApprovalListFilter struct {
	EntityType  string
	Status      []string
	SubmittedBy string
	Pagination  domain.Pagination
}

type AuditLogFilter struct {
	TargetRef  string
	Actor      string
	ActorType  string
	Action     string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

// CounterConfig customises increment behaviour and bounds for a counter.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}
