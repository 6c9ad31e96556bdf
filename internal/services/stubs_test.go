package services

import (
	"context"
	"sync"
	"time"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

// stubRepoError satisfies repositories.RepositoryError for error-path tests.
type stubRepoError struct {
	notFound bool
	conflict bool
	msg      string
}

func (e *stubRepoError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return "stub repository error"
}

func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return e.conflict }
func (e *stubRepoError) IsUnavailable() bool { return false }

var (
	errStubNotFound = &stubRepoError{notFound: true, msg: "not found"}
	errStubConflict = &stubRepoError{conflict: true, msg: "conflict"}
)

type stubProductRepository struct {
	mu                sync.Mutex
	products          map[string]domain.Product
	listFn            func(context.Context, repositories.ProductListFilter) (domain.CursorPage[domain.Product], error)
	bulkFn            func(context.Context, []repositories.ProductPricingUpdate) error
	insertCalls       []domain.Product
	updateCalls       []domain.Product
	bulkCalls         [][]repositories.ProductPricingUpdate
	setApprovalCalls  []string
	setApprovalMarker []string
}

func newStubProductRepository(products ...domain.Product) *stubProductRepository {
	repo := &stubProductRepository{products: make(map[string]domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (s *stubProductRepository) Insert(ctx context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls = append(s.insertCalls, product)
	s.products[product.ID] = product
	return nil
}

func (s *stubProductRepository) Update(ctx context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls = append(s.updateCalls, product)
	s.products[product.ID] = product
	return nil
}

func (s *stubProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return domain.Product{}, errStubNotFound
	}
	return product, nil
}

func (s *stubProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Product]{}, nil
}

func (s *stubProductRepository) BulkUpdatePricing(ctx context.Context, updates []repositories.ProductPricingUpdate) error {
	s.mu.Lock()
	s.bulkCalls = append(s.bulkCalls, updates)
	s.mu.Unlock()
	if s.bulkFn != nil {
		return s.bulkFn(ctx, updates)
	}
	return nil
}

func (s *stubProductRepository) SetApprovalStatus(ctx context.Context, productID string, marker string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setApprovalCalls = append(s.setApprovalCalls, productID)
	s.setApprovalMarker = append(s.setApprovalMarker, marker)
	if product, ok := s.products[productID]; ok {
		product.ApprovalStatus = marker
		s.products[productID] = product
	}
	return nil
}

type stubRateRepository struct {
	table        domain.RateTable
	tableErr     error
	chargeConfig domain.ChargeConfig
	chargeErr    error
	savedTables  []domain.RateTable
	savedCharges []domain.ChargeConfig
	saveTableErr error
}

func (s *stubRateRepository) GetRateTable(ctx context.Context) (domain.RateTable, error) {
	if s.tableErr != nil {
		return domain.RateTable{}, s.tableErr
	}
	return s.table, nil
}

func (s *stubRateRepository) SaveRateTable(ctx context.Context, table domain.RateTable) error {
	if s.saveTableErr != nil {
		return s.saveTableErr
	}
	s.savedTables = append(s.savedTables, table)
	s.table = table
	return nil
}

func (s *stubRateRepository) GetChargeConfig(ctx context.Context) (domain.ChargeConfig, error) {
	if s.chargeErr != nil {
		return domain.ChargeConfig{}, s.chargeErr
	}
	return s.chargeConfig, nil
}

func (s *stubRateRepository) SaveChargeConfig(ctx context.Context, cfg domain.ChargeConfig) error {
	s.savedCharges = append(s.savedCharges, cfg)
	s.chargeConfig = cfg
	return nil
}

type stubOrderRepository struct {
	mu          sync.Mutex
	orders      map[string]domain.Order
	listFn      func(context.Context, repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
	updateErr   error
	deleteCalls []string
}

func newStubOrderRepository(orders ...domain.Order) *stubOrderRepository {
	repo := &stubOrderRepository{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepository) Update(ctx context.Context, order domain.Order) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepository) Delete(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, orderID)
	delete(s.orders, orderID)
	return nil
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, errStubNotFound
	}
	return order, nil
}

func (s *stubOrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.Payment.GatewayOrderID == gatewayOrderID {
			return order, nil
		}
	}
	return domain.Order{}, errStubNotFound
}

func (s *stubOrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

type stubCouponRepository struct {
	mu             sync.Mutex
	coupons        map[string]domain.Coupon
	incrementErr   error
	incrementCalls []string
	decrementCalls []string
}

func newStubCouponRepository(coupons ...domain.Coupon) *stubCouponRepository {
	repo := &stubCouponRepository{coupons: make(map[string]domain.Coupon)}
	for _, c := range coupons {
		repo.coupons[c.Code] = c
	}
	return repo
}

func (s *stubCouponRepository) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, ok := s.coupons[code]
	if !ok {
		return domain.Coupon{}, errStubNotFound
	}
	return coupon, nil
}

func (s *stubCouponRepository) IncrementUsage(ctx context.Context, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incrementCalls = append(s.incrementCalls, code)
	return s.incrementErr
}

func (s *stubCouponRepository) DecrementUsage(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decrementCalls = append(s.decrementCalls, code)
	return nil
}

type stubStockRepository struct {
	mu           sync.Mutex
	stock        map[string]domain.Stock
	deductErr    error
	deductCalls  [][]repositories.StockLine
	restoreCalls [][]repositories.StockLine
}

func newStubStockRepository(stocks ...domain.Stock) *stubStockRepository {
	repo := &stubStockRepository{stock: make(map[string]domain.Stock)}
	for _, st := range stocks {
		repo.stock[st.ProductID] = st
	}
	return repo
}

func (s *stubStockRepository) Get(ctx context.Context, productID string) (domain.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stock, ok := s.stock[productID]
	if !ok {
		return domain.Stock{}, repositories.NewStockError(repositories.StockErrorNotFound, "no stock record", nil)
	}
	return stock, nil
}

func (s *stubStockRepository) Deduct(ctx context.Context, lines []repositories.StockLine, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deductCalls = append(s.deductCalls, lines)
	if s.deductErr != nil {
		return s.deductErr
	}
	for _, line := range lines {
		stock := s.stock[line.ProductID]
		stock.Quantity -= line.Quantity
		s.stock[line.ProductID] = stock
	}
	return nil
}

func (s *stubStockRepository) Restore(ctx context.Context, lines []repositories.StockLine, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreCalls = append(s.restoreCalls, lines)
	for _, line := range lines {
		stock := s.stock[line.ProductID]
		stock.Quantity += line.Quantity
		s.stock[line.ProductID] = stock
	}
	return nil
}

type stubCartRepository struct {
	mu         sync.Mutex
	clearCalls []string
	clearErr   error
}

func (s *stubCartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	return domain.Cart{UserID: userID}, nil
}

func (s *stubCartRepository) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls = append(s.clearCalls, userID)
	return s.clearErr
}

type stubBannerRepository struct {
	mu      sync.Mutex
	banners map[string]domain.Banner
}

func (s *stubBannerRepository) Insert(ctx context.Context, banner domain.Banner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banners[banner.ID] = banner
	return nil
}

func (s *stubBannerRepository) Update(ctx context.Context, banner domain.Banner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banners[banner.ID] = banner
	return nil
}

func (s *stubBannerRepository) FindByID(ctx context.Context, bannerID string) (domain.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	banner, ok := s.banners[bannerID]
	if !ok {
		return domain.Banner{}, errStubNotFound
	}
	return banner, nil
}

func (s *stubBannerRepository) ListActive(ctx context.Context) ([]domain.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []domain.Banner
	for _, banner := range s.banners {
		if banner.Active {
			active = append(active, banner)
		}
	}
	return active, nil
}

type stubApprovalRepository struct {
	mu        sync.Mutex
	approvals map[string]domain.PendingApproval
	insertErr error
}

func newStubApprovalRepository(approvals ...domain.PendingApproval) *stubApprovalRepository {
	repo := &stubApprovalRepository{approvals: make(map[string]domain.PendingApproval)}
	for _, a := range approvals {
		repo.approvals[a.ID] = a
	}
	return repo
}

func (s *stubApprovalRepository) Insert(ctx context.Context, approval domain.PendingApproval) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[approval.ID] = approval
	return nil
}

func (s *stubApprovalRepository) Update(ctx context.Context, approval domain.PendingApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[approval.ID] = approval
	return nil
}

func (s *stubApprovalRepository) FindByID(ctx context.Context, approvalID string) (domain.PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	approval, ok := s.approvals[approvalID]
	if !ok {
		return domain.PendingApproval{}, errStubNotFound
	}
	return approval, nil
}

func (s *stubApprovalRepository) FindPendingByEntity(ctx context.Context, entityType string, entityID string) (domain.PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, approval := range s.approvals {
		if approval.EntityType == entityType && approval.EntityID == entityID && approval.Status == domain.ApprovalStatusPending {
			return approval, nil
		}
	}
	return domain.PendingApproval{}, errStubNotFound
}

func (s *stubApprovalRepository) List(ctx context.Context, filter repositories.ApprovalListFilter) (domain.CursorPage[domain.PendingApproval], error) {
	return domain.CursorPage[domain.PendingApproval]{}, nil
}

type stubOrderCounters struct {
	orderNumbers []string
	issued       int
}

func (s *stubOrderCounters) Next(ctx context.Context, scope, name string, opts CounterGenerationOptions) (CounterValue, error) {
	return CounterValue{Value: 1, Formatted: "1"}, nil
}

func (s *stubOrderCounters) NextOrderNumber(ctx context.Context) (string, error) {
	number := "AJ-2026-000001"
	if s.issued < len(s.orderNumbers) {
		number = s.orderNumbers[s.issued]
	}
	s.issued++
	return number, nil
}

type stubPaymentIntentCreator struct {
	mu       sync.Mutex
	err      error
	requests []PaymentIntentRequest
}

func (s *stubPaymentIntentCreator) CreateIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return PaymentIntentResult{}, s.err
	}
	return PaymentIntentResult{GatewayOrderID: "gw_" + req.OrderID, Provider: "stripe"}, nil
}

type stubSignatureVerifier struct {
	err error
}

func (s *stubSignatureVerifier) Verify(gatewayOrderID, paymentID, signature string) error {
	return s.err
}

type stubMutator struct {
	mu           sync.Mutex
	snapshotFn   func(context.Context, string) (map[string]any, error)
	stageFn      func(context.Context, domain.ApprovalAction, string, map[string]any) (string, error)
	applyFn      func(context.Context, domain.ApprovalAction, string, map[string]any) (string, error)
	applyCalls   int
	stageCalls   int
	discardCalls int
}

func (s *stubMutator) Snapshot(ctx context.Context, entityID string) (map[string]any, error) {
	if s.snapshotFn != nil {
		return s.snapshotFn(ctx, entityID)
	}
	return map[string]any{"id": entityID}, nil
}

func (s *stubMutator) StagePending(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error) {
	s.mu.Lock()
	s.stageCalls++
	s.mu.Unlock()
	if s.stageFn != nil {
		return s.stageFn(ctx, action, entityID, changes)
	}
	if entityID == "" {
		return "prd_generated", nil
	}
	return entityID, nil
}

func (s *stubMutator) Apply(ctx context.Context, action domain.ApprovalAction, entityID string, changes map[string]any) (string, error) {
	s.mu.Lock()
	s.applyCalls++
	s.mu.Unlock()
	if s.applyFn != nil {
		return s.applyFn(ctx, action, entityID, changes)
	}
	if entityID == "" {
		return "prd_generated", nil
	}
	return entityID, nil
}

func (s *stubMutator) Discard(ctx context.Context, action domain.ApprovalAction, entityID string) error {
	s.mu.Lock()
	s.discardCalls++
	s.mu.Unlock()
	return nil
}

// testClock returns a fixed instant so derived timestamps are deterministic.
func testClock() time.Time {
	return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
}

// goldRingProduct is the shared pricing fixture: 5g of 22K gold with a 10%
// making charge override and no stones.
func goldRingProduct() domain.Product {
	return domain.Product{
		ID:       "prd_ring",
		SKU:      "RING-22K",
		Name:     "Classic Band",
		Category: "rings",
		Active:   true,
		Configurator: &domain.Configurator{
			Enabled:          true,
			DefaultMetalType: domain.MetalGold,
			DefaultPurity:    "22K",
			Metals: []domain.ConfigurableMetal{{
				Type: domain.MetalGold,
				Variants: []domain.MetalVariant{{
					Purity:    "22K",
					NetWeight: 5,
				}},
				Pricing: domain.MetalPricingOverride{
					MakingChargeType:  domain.ChargeTypePercentage,
					MakingChargeValue: 10,
				},
			}},
		},
	}
}

// goldRateTable prices 22K gold at 6000 per gram.
func goldRateTable() domain.RateTable {
	return domain.RateTable{
		Version: "rv_test",
		Gold:    map[string]float64{"22K": 6000, "18K": 5000},
		Silver:  map[string]float64{"925": 90},
		Diamond: map[string]float64{"SI_IJ": 30000, "VS_GH": 55000},
	}
}
