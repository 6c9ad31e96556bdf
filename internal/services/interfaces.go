package services

import (
	"context"
	"time"

	domain "github.com/aurelia-jewels/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	SortOrder          = domain.SortOrder
	Product            = domain.Product
	ProductPricing     = domain.ProductPricing
	Configurator       = domain.Configurator
	ConfigurableMetal  = domain.ConfigurableMetal
	MetalVariant       = domain.MetalVariant
	FixedMetal         = domain.FixedMetal
	MetalType          = domain.MetalType
	PriceBreakdown     = domain.PriceBreakdown
	PriceRange         = domain.PriceRange
	RateTable          = domain.RateTable
	ChargeConfig       = domain.ChargeConfig
	ChargeDefaults     = domain.ChargeDefaults
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	OrderStatus        = domain.OrderStatus
	OrderSummary       = domain.OrderSummary
	AppliedCoupon      = domain.AppliedCoupon
	PartialPayment     = domain.PartialPayment
	TrackingEntry      = domain.TrackingEntry
	DeliveryDelay      = domain.DeliveryDelay
	Address            = domain.Address
	Coupon             = domain.Coupon
	Stock              = domain.Stock
	Cart               = domain.Cart
	CartItem           = domain.CartItem
	Banner             = domain.Banner
	PendingApproval    = domain.PendingApproval
	ApprovalStatus     = domain.ApprovalStatus
	ApprovalAction     = domain.ApprovalAction
	SystemHealthReport = domain.SystemHealthReport
	AuditLogEntry      = domain.AuditLogEntry
)

// PricingService resolves configurator selections into priced quotes and keeps
// stored product prices in sync with the live rate table.
type PricingService interface {
	Quote(ctx context.Context, cmd QuoteCommand) (PriceBreakdown, error)
	ComputeRange(ctx context.Context, product Product) (PriceRange, PriceBreakdown, error)
}

// RateService owns the global rate table and charge configuration.
type RateService interface {
	GetRates(ctx context.Context) (RateTable, error)
	UpdateRates(ctx context.Context, cmd UpdateRatesCommand) (RateTable, error)
	GetChargeConfig(ctx context.Context) (ChargeConfig, error)
	UpdateChargeConfig(ctx context.Context, cmd UpdateChargeConfigCommand) (ChargeConfig, error)
}

// RepriceService recomputes stored prices for the whole active catalog after a
// rate table update.
type RepriceService interface {
	RepriceCatalog(ctx context.Context, cmd RepriceCommand) (RepriceResult, error)
}

// OrderService owns the order settlement lifecycle from creation through
// delivery or cancellation.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (Order, error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error)
	Get(ctx context.Context, cmd GetOrderCommand) (Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
}

// CouponService validates coupon codes against an order value.
type CouponService interface {
	Validate(ctx context.Context, cmd ValidateCouponCommand) (CouponQuote, error)
}

// StockService exposes inventory reads for the storefront.
type StockService interface {
	Availability(ctx context.Context, productID string) (Stock, error)
}

// ProductService manages catalog products. Mutations flow through the
// approval gate unless the actor is privileged.
type ProductService interface {
	Get(ctx context.Context, productID string) (Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error)
	Submit(ctx context.Context, cmd SubmitProductCommand) (MutationOutcome, error)
}

// BannerService manages storefront banners through the same approval gate.
type BannerService interface {
	ListActive(ctx context.Context) ([]Banner, error)
	Submit(ctx context.Context, cmd SubmitBannerCommand) (MutationOutcome, error)
}

// ApprovalService implements the maker-checker gate shared by all mutable
// admin entities.
type ApprovalService interface {
	Submit(ctx context.Context, cmd SubmitMutationCommand) (MutationOutcome, error)
	Review(ctx context.Context, cmd ReviewApprovalCommand) (PendingApproval, error)
	Get(ctx context.Context, approvalID string) (PendingApproval, error)
	List(ctx context.Context, filter ApprovalListFilter) (domain.CursorPage[PendingApproval], error)
}

// AuditLogService records administrative actions without ever failing the caller.
type AuditLogService interface {
	Record(ctx context.Context, record AuditLogRecord)
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error)
	// Close flushes queued entries and stops the background writer.
	Close()
}

// SystemService surfaces operational health information and admin utilities.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
	ListAuditLogs(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error)
	NextCounterValue(ctx context.Context, cmd CounterCommand) (int64, error)
}

// CounterService provisions and advances named sequences.
type CounterService interface {
	Next(ctx context.Context, scope string, name string, opts CounterGenerationOptions) (CounterValue, error)
	NextOrderNumber(ctx context.Context) (string, error)
}

// CounterGenerationOptions controls how counter values are incremented and formatted.
type CounterGenerationOptions struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
	Prefix       string
	Suffix       string
	PadLength    int
	Formatter    func(now time.Time, seq int64) string
}

// CounterValue is one issued sequence value with its formatted representation.
type CounterValue struct {
	Value     int64
	Formatted string
}

// CounterCommand advances an arbitrary scope:name counter from admin tooling.
type CounterCommand struct {
	CounterID string
	Step      int64
}

// Commands and DTOs ---------------------------------------------------------

// Actor identifies who is performing an operation and what they may bypass.
type Actor struct {
	UserID       string
	Role         string
	SkipApproval bool
}

// QuoteCommand selects one configurator combination on a product.
type QuoteCommand struct {
	ProductID      string
	MetalType      string
	Purity         string
	Size           string
	Color          string
	DiamondQuality string
}

// UpdateRatesCommand replaces the rate table and triggers a catalog reprice.
type UpdateRatesCommand struct {
	Actor    Actor
	Gold     map[string]float64
	Silver   map[string]float64
	Platinum map[string]float64
	Diamond  map[string]float64
}

// UpdateChargeConfigCommand replaces category and global charge defaults.
type UpdateChargeConfigCommand struct {
	Actor      Actor
	Categories map[string]ChargeDefaults
	Global     ChargeDefaults
}

// RepriceCommand scopes a bulk reprice run.
type RepriceCommand struct {
	RateVersion string
	TriggeredBy string
}

// RepriceResult reports the outcome of one reprice run.
type RepriceResult struct {
	RateVersion string
	Processed   int
	Failed      int
	Batches     int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// CreateOrderItemInput is one line of an incoming order.
type CreateOrderItemInput struct {
	ProductID      string
	MetalType      string
	Purity         string
	Size           string
	Color          string
	DiamondQuality string
	Quantity       int
}

// CreateOrderCommand carries everything needed to open a pending order.
type CreateOrderCommand struct {
	UserID            string
	Items             []CreateOrderItemInput
	DeliveryType      string
	ShippingAddress   *Address
	StoreID           string
	CouponCode        string
	PartialPayment    bool
	PartialAmountPaid int64
	Metadata          map[string]any
}

// ConfirmPaymentCommand carries the gateway callback payload for verification.
type ConfirmPaymentCommand struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	UserID         string
}

// UpdateOrderStatusCommand moves an order along the settlement machine.
type UpdateOrderStatusCommand struct {
	Actor                 Actor
	OrderID               string
	TargetStatus          OrderStatus
	Note                  string
	CancelReason          string
	EstimatedDeliveryDate *time.Time
	DelayReason           string
}

// GetOrderCommand scopes an order read to its owner unless the actor is staff.
type GetOrderCommand struct {
	OrderID string
	Actor   Actor
}

// OrderListFilter narrows admin and user order listings.
type OrderListFilter struct {
	UserID     string
	Status     []string
	From       *time.Time
	To         *time.Time
	Pagination Pagination
}

// ValidateCouponCommand checks a code against an order subtotal.
type ValidateCouponCommand struct {
	Code       string
	OrderValue int64
	UserID     string
}

// CouponQuote is the resolved discount for a valid coupon.
type CouponQuote struct {
	Code     string
	Discount int64
}

// SubmitProductCommand proposes a product mutation.
type SubmitProductCommand struct {
	Actor     Actor
	Action    ApprovalAction
	ProductID string
	Product   *Product
}

// SubmitBannerCommand proposes a banner mutation.
type SubmitBannerCommand struct {
	Actor    Actor
	Action   ApprovalAction
	BannerID string
	Banner   *Banner
}

// SubmitMutationCommand is the generic entry into the approval gate.
type SubmitMutationCommand struct {
	Actor           Actor
	EntityType      string
	EntityID        string
	Action          ApprovalAction
	ProposedChanges map[string]any
}

// MutationOutcome reports whether a submission applied directly or was queued
// behind a pending approval.
type MutationOutcome struct {
	Applied    bool
	EntityID   string
	ApprovalID string
	Status     ApprovalStatus
}

// ReviewApprovalCommand approves or rejects a pending record.
type ReviewApprovalCommand struct {
	Actor      Actor
	ApprovalID string
	Approve    bool
	Note       string
}

// ApprovalListFilter narrows the admin approval queue.
type ApprovalListFilter struct {
	EntityType  string
	Status      []string
	SubmittedBy string
	Pagination  Pagination
}

// AuditLogRecord is the caller-facing shape of one audit event.
type AuditLogRecord struct {
	Actor     string
	ActorType string
	Action    string
	TargetRef string
	Metadata  map[string]any
	Diff      map[string]any
	IPAddress string
	UserAgent string
	Severity  string
	RequestID string
}

// AuditLogFilter narrows audit history reads.
type AuditLogFilter struct {
	TargetRef  string
	Actor      string
	Action     string
	From       *time.Time
	To         *time.Time
	Pagination Pagination
}
