package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// MetalType enumerates the metals the rate table can price.
type MetalType string

const (
	// MetalGold prices by purity key (e.g. "22K").
	MetalGold MetalType = "gold"
	// MetalSilver prices by purity key.
	MetalSilver MetalType = "silver"
	// MetalPlatinum prices by purity key with a flat per-gram fallback.
	MetalPlatinum MetalType = "platinum"
)

// Product is a catalog item sold as a configuration rather than at a fixed price.
type Product struct {
	ID             string
	SKU            string
	Name           string
	Category       string
	Description    string
	Active         bool
	ApprovalStatus string
	Configurator   *Configurator
	Diamond        *DiamondDetail
	Gemstone       *GemstoneDetail
	ExtraCharges   ExtraCharges
	Pricing        ProductPricing
	PriceRange     *PriceRange
	Images         []string
	Tags           []string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductPricing is the last persisted resolved price, kept as the fallback for
// products whose configurator is disabled or empty.
type ProductPricing struct {
	FinalPrice  int64
	Breakdown   *PriceBreakdown
	RateVersion string
	ResolvedAt  time.Time
}

// Configurator is the canonical multi-metal configuration shape after
// normalization. Legacy single-metal payloads are folded into the same form.
type Configurator struct {
	Enabled          bool
	DefaultMetalType MetalType
	DefaultPurity    string
	Metals           []ConfigurableMetal
	FixedMetals      []FixedMetal
}

// ConfigurableMetal is one buyer-selectable metal entry with its purity variants
// and per-metal charge overrides.
type ConfigurableMetal struct {
	Type     MetalType
	Variants []MetalVariant
	Pricing  MetalPricingOverride
}

// MetalVariant is one purity option within a metal entry. Weights are in grams.
type MetalVariant struct {
	Purity                    string
	NetWeight                 float64
	GrossWeight               float64
	AvailableColors           []string
	DefaultColor              string
	AvailableDiamondQualities []string
	DefaultDiamondQuality     string
	Sizes                     []SizeWeight
	DefaultSize               string
}

// SizeWeight binds a ring/chain size to its specific weights.
type SizeWeight struct {
	Size        string
	NetWeight   float64
	GrossWeight float64
}

// FixedMetal is a metal component always included in the item regardless of the
// buyer's configurable-metal choice, such as a clasp or a setting frame.
type FixedMetal struct {
	Type        MetalType
	Purity      string
	NetWeight   float64
	GrossWeight float64
	Sizes       []SizeWeight
}

// MetalPricingOverride carries per-metal charge settings. Zero values mean
// "defer to the category or global default", never "free".
type MetalPricingOverride struct {
	MakingChargeType  string
	MakingChargeValue float64
	WastageType       string
	WastageValue      float64
	JewelryGST        float64
	MakingGST         float64
}

// DiamondDetail describes the diamonds mounted on a product.
type DiamondDetail struct {
	TotalCaratWeight float64
	StoneCount       int
	DefaultQuality   string
}

// GemstoneDetail describes non-diamond stones priced at a flat value.
type GemstoneDetail struct {
	Name  string
	Value float64
}

// ExtraCharges are flat labour charges added to the subtotal.
type ExtraCharges struct {
	StoneSetting float64
	Design       float64
}

// ChargeType enumerates how a making charge is computed.
const (
	// ChargeTypePercentage applies the value as a percentage of metal value.
	ChargeTypePercentage = "percentage"
	// ChargeTypeFlatPerGram multiplies the value by total net weight.
	ChargeTypeFlatPerGram = "flat_per_gram"
	// ChargeTypeFixedAmount adds the value unchanged.
	ChargeTypeFixedAmount = "fixed_amount"
	// ChargeTypeFixed is the fixed branch for wastage charges.
	ChargeTypeFixed = "fixed"
)

// RateTable is the live commodity rate sheet. Metal rates are per gram, diamond
// rates per carat, keyed by quality bucket.
type RateTable struct {
	Version   string
	Gold      map[string]float64
	Silver    map[string]float64
	Platinum  map[string]float64
	Diamond   map[string]float64
	UpdatedAt time.Time
	UpdatedBy string
}

// ChargeConfig holds category-level and global charge defaults consulted after
// per-metal overrides.
type ChargeConfig struct {
	Categories map[string]ChargeDefaults
	Global     ChargeDefaults
}

// ChargeDefaults is one level of the charge override chain.
type ChargeDefaults struct {
	MakingChargeType  string
	MakingChargeValue float64
	WastageType       string
	WastageValue      float64
	JewelryGST        float64
	MakingGST         float64
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order awaits payment confirmation.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed indicates payment was verified and stock deducted.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing indicates the workshop is producing the item.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusReadyForPickup indicates a pickup order awaits collection.
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	// OrderStatusOutForDelivery indicates a delivery order is in transit.
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	// OrderStatusDelivered indicates the order reached the customer. Terminal.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled. Terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus tracks settlement of the payable amount.
type PaymentStatus string

const (
	// PaymentStatusPending indicates no verified payment yet.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPartial indicates a verified partial payment on a pickup order.
	PaymentStatusPartial PaymentStatus = "partial"
	// PaymentStatusPaid indicates the payable amount settled in full.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusRefundPending indicates a cancelled paid order awaiting refund.
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
)

// DeliveryType selects the fulfilment mode chosen at checkout.
type DeliveryType string

const (
	// DeliveryTypePickup requires collection at a store; partial payment allowed.
	DeliveryTypePickup DeliveryType = "pickup"
	// DeliveryTypeHome requires full payment up front.
	DeliveryTypeHome DeliveryType = "home_delivery"
)

// Order is created once per checkout. Item price snapshots are immutable after
// creation; later rate changes never alter what the buyer owes.
type Order struct {
	ID                    string
	OrderNumber           string
	UserID                string
	Status                OrderStatus
	PaymentStatus         PaymentStatus
	DeliveryType          DeliveryType
	Items                 []OrderItem
	Summary               OrderSummary
	Coupon                *AppliedCoupon
	PartialPayment        *PartialPayment
	ShippingAddress       *Address
	StoreID               string
	Payment               PaymentIntentRef
	TrackingUpdates       []TrackingEntry
	DelayHistory          []DeliveryDelay
	EstimatedDeliveryDate *time.Time
	RefundEligible        bool
	CancelReason          string
	Metadata              map[string]any
	CreatedAt             time.Time
	UpdatedAt             time.Time
	ConfirmedAt           *time.Time
	DeliveredAt           *time.Time
	CancelledAt           *time.Time
}

// OrderItem freezes one configured line with its resolved price snapshot.
type OrderItem struct {
	ProductID              string
	Name                   string
	SelectedMetalType      MetalType
	SelectedPurity         string
	SelectedSize           string
	SelectedDiamondQuality string
	Quantity               int
	PriceSnapshot          PriceBreakdown
}

// OrderSummary aggregates the monetary totals of an order in whole rupees.
type OrderSummary struct {
	Subtotal       int64
	CouponDiscount int64
	TotalAmount    int64
}

// AppliedCoupon records the coupon locked into the order.
type AppliedCoupon struct {
	Code     string
	Type     string
	Value    float64
	Discount int64
}

// PartialPayment carries the split for pickup orders paying a deposit.
type PartialPayment struct {
	AmountPaid      int64
	RemainingAmount int64
}

// PaymentIntentRef links the order to the external payment gateway.
type PaymentIntentRef struct {
	GatewayOrderID string
	PaymentID      string
	Provider       string
}

// TrackingEntry is one admin-visible status change on an order.
type TrackingEntry struct {
	Status    OrderStatus
	Note      string
	Timestamp time.Time
}

// DeliveryDelay records a pushed-out delivery date and its mandatory reason.
type DeliveryDelay struct {
	PreviousDate time.Time
	NewDate      time.Time
	Reason       string
	RecordedAt   time.Time
	RecordedBy   string
}

// Address is a delivery destination for home-delivery orders.
type Address struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Coupon is a discount code with an atomically incremented usage counter.
type Coupon struct {
	Code              string
	Type              string
	Value             float64
	MinOrderValue     int64
	MaxDiscountAmount int64
	UsageLimit        int64
	UsageCount        int64
	Active            bool
	ExpiresAt         *time.Time
}

const (
	// CouponTypePercentage discounts a percentage of the subtotal.
	CouponTypePercentage = "percentage"
	// CouponTypeFlat discounts a fixed amount.
	CouponTypeFlat = "flat"
)

// Stock is the per-product inventory document. Quantity is only ever changed
// through atomic increments.
type Stock struct {
	ProductID string
	Quantity  int64
	UpdatedAt time.Time
}

// Cart is the buyer's saved selection, cleared on payment confirmation.
type Cart struct {
	UserID    string
	Items     []CartItem
	UpdatedAt time.Time
}

// CartItem is one configured product in the cart.
type CartItem struct {
	ProductID              string
	SelectedMetalType      MetalType
	SelectedPurity         string
	SelectedSize           string
	SelectedDiamondQuality string
	Quantity               int
}

// ApprovalStatus enumerates maker-checker record states.
type ApprovalStatus string

const (
	// ApprovalStatusPending awaits a reviewer decision.
	ApprovalStatusPending ApprovalStatus = "pending"
	// ApprovalStatusApproved means proposedChanges were applied to the entity.
	ApprovalStatusApproved ApprovalStatus = "approved"
	// ApprovalStatusRejected means the submission was discarded.
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// ApprovalAction enumerates the mutation kinds the gate intercepts.
type ApprovalAction string

const (
	// ApprovalActionCreate proposes a new entity, created inactive until approved.
	ApprovalActionCreate ApprovalAction = "create"
	// ApprovalActionUpdate proposes field changes to an existing entity.
	ApprovalActionUpdate ApprovalAction = "update"
	// ApprovalActionArchive proposes deactivating an entity.
	ApprovalActionArchive ApprovalAction = "archive"
	// ApprovalActionRestore proposes reactivating an archived entity.
	ApprovalActionRestore ApprovalAction = "restore"
)

// PendingApproval is one proposed mutation awaiting review. While pending, the
// live entity is untouched except for its approvalStatus marker.
type PendingApproval struct {
	ID              string
	EntityType      string
	EntityID        string
	Action          ApprovalAction
	ProposedChanges map[string]any
	PreviousState   map[string]any
	Status          ApprovalStatus
	SubmittedBy     string
	ReviewedBy      string
	ReviewNote      string
	SubmittedAt     time.Time
	ReviewedAt      *time.Time
}

// Banner is promotional storefront content, mutated only through the gate.
type Banner struct {
	ID             string
	Title          string
	ImageURL       string
	LinkURL        string
	Position       int
	Active         bool
	ApprovalStatus string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const (
	// HealthStatusOK marks a healthy dependency probe.
	HealthStatusOK = "ok"
	// HealthStatusDegraded marks a dependency that responded with an error.
	HealthStatusDegraded = "degraded"
	// HealthStatusError marks a dependency that timed out or was cancelled.
	HealthStatusError = "error"
)

// SystemHealthCheck is one dependency probe result.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}

// AuditLogEntry stores normalized audit information for admin use.
type AuditLogEntry struct {
	ID        string
	Actor     string
	ActorType string
	Action    string
	TargetRef string
	Metadata  map[string]any
	Diff      map[string]any
	IPHash    string
	UserAgent string
	Severity  string
	RequestID string
	CreatedAt time.Time
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}
