package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/aurelia-jewels/api/internal/domain"
)

type orderServiceFixture struct {
	orders   *stubOrderRepository
	products *stubProductRepository
	rates    *stubRateRepository
	coupons  *stubCouponRepository
	stock    *stubStockRepository
	carts    *stubCartRepository
	payments *stubPaymentIntentCreator
	verifier *stubSignatureVerifier
	service  OrderService
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()
	f := &orderServiceFixture{
		orders:   newStubOrderRepository(),
		products: newStubProductRepository(goldRingProduct()),
		rates:    &stubRateRepository{table: goldRateTable()},
		coupons:  newStubCouponRepository(),
		stock:    newStubStockRepository(domain.Stock{ProductID: "prd_ring", Quantity: 10}),
		carts:    &stubCartRepository{},
		payments: &stubPaymentIntentCreator{},
		verifier: &stubSignatureVerifier{},
	}
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:     f.orders,
		Products:   f.products,
		Rates:      f.rates,
		Coupons:    f.coupons,
		Stock:      f.stock,
		Carts:      f.carts,
		Counters:   &stubOrderCounters{},
		Payments:   f.payments,
		Signatures: f.verifier,
		Clock:      testClock,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	f.service = svc
	return f
}

func pickupOrderCommand() CreateOrderCommand {
	return CreateOrderCommand{
		UserID:       "usr_1",
		DeliveryType: "pickup",
		StoreID:      "store_1",
		Items: []CreateOrderItemInput{{
			ProductID: "prd_ring",
			MetalType: "gold",
			Purity:    "22K",
			Quantity:  1,
		}},
	}
}

func TestCreateOrderFreezesPriceSnapshot(t *testing.T) {
	f := newOrderServiceFixture(t)

	order, err := f.service.Create(context.Background(), pickupOrderCommand())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.OrderNumber != "AJ-2026-000001" {
		t.Fatalf("expected issued order number, got %s", order.OrderNumber)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(order.Items))
	}
	if order.Items[0].PriceSnapshot.FinalPrice != 34050 {
		t.Fatalf("expected frozen snapshot 34050, got %d", order.Items[0].PriceSnapshot.FinalPrice)
	}
	if order.Summary.TotalAmount != 34050 {
		t.Fatalf("expected total 34050, got %d", order.Summary.TotalAmount)
	}
	if order.Payment.GatewayOrderID == "" {
		t.Fatalf("expected gateway reference stored on the order")
	}
	if len(f.payments.requests) != 1 || f.payments.requests[0].Amount != 34050 {
		t.Fatalf("expected intent for the full amount, got %+v", f.payments.requests)
	}
	if f.payments.requests[0].Currency != "INR" {
		t.Fatalf("expected INR intent, got %s", f.payments.requests[0].Currency)
	}
	// Stock is only checked at creation, deducted at confirmation.
	if len(f.stock.deductCalls) != 0 {
		t.Fatalf("expected no deduction before payment, got %d", len(f.stock.deductCalls))
	}
}

func TestCreateOrderAppliesCouponOnce(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.coupons.coupons["WELCOME10"] = domain.Coupon{
		Code:              "WELCOME10",
		Type:              domain.CouponTypePercentage,
		Value:             10,
		MaxDiscountAmount: 2000,
		Active:            true,
	}

	cmd := pickupOrderCommand()
	cmd.CouponCode = "welcome10"
	order, err := f.service.Create(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 10% of 34050 is 3405, capped at 2000.
	if order.Summary.CouponDiscount != 2000 {
		t.Fatalf("expected capped discount 2000, got %d", order.Summary.CouponDiscount)
	}
	if order.Summary.TotalAmount != 32050 {
		t.Fatalf("expected total 32050, got %d", order.Summary.TotalAmount)
	}
	if len(f.coupons.incrementCalls) != 1 || f.coupons.incrementCalls[0] != "WELCOME10" {
		t.Fatalf("expected one usage increment for WELCOME10, got %v", f.coupons.incrementCalls)
	}
}

func TestCreateOrderCouponLimitConflict(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.coupons.coupons["FLAT500"] = domain.Coupon{
		Code: "FLAT500", Type: domain.CouponTypeFlat, Value: 500, Active: true,
	}
	f.coupons.incrementErr = errStubConflict

	cmd := pickupOrderCommand()
	cmd.CouponCode = "FLAT500"
	_, err := f.service.Create(context.Background(), cmd)
	if !errors.Is(err, ErrCouponNotApplicable) {
		t.Fatalf("expected coupon not applicable, got %v", err)
	}
}

func TestCreateOrderPartialPaymentBounds(t *testing.T) {
	f := newOrderServiceFixture(t)

	cmd := pickupOrderCommand()
	cmd.PartialPayment = true
	cmd.PartialAmountPaid = 100 // below 10% of 34050
	_, err := f.service.Create(context.Background(), cmd)
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input for tiny deposit, got %v", err)
	}

	cmd.PartialAmountPaid = 5000
	order, err := f.service.Create(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create with valid deposit: %v", err)
	}
	if order.PartialPayment == nil || order.PartialPayment.RemainingAmount != 29050 {
		t.Fatalf("expected remaining 29050, got %+v", order.PartialPayment)
	}
	// The intent covers only the deposit.
	last := f.payments.requests[len(f.payments.requests)-1]
	if last.Amount != 5000 {
		t.Fatalf("expected intent amount 5000, got %d", last.Amount)
	}
}

type stubOrderEventPublisher struct {
	events []string
	err    error
}

func (s *stubOrderEventPublisher) PublishOrderEvent(_ context.Context, event string, _ map[string]any) (string, error) {
	s.events = append(s.events, event)
	if s.err != nil {
		return "", s.err
	}
	return "msg_1", nil
}

func TestCreateOrderPublishesLifecycleEvent(t *testing.T) {
	f := newOrderServiceFixture(t)
	publisher := &stubOrderEventPublisher{}
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:     f.orders,
		Products:   f.products,
		Rates:      f.rates,
		Stock:      f.stock,
		Counters:   &stubOrderCounters{},
		Payments:   f.payments,
		Signatures: f.verifier,
		Events:     publisher,
		Clock:      testClock,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	if _, err := svc.Create(context.Background(), pickupOrderCommand()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(publisher.events) != 1 || publisher.events[0] != "order.created" {
		t.Fatalf("expected order.created event, got %v", publisher.events)
	}

	// A failing publisher must never fail the order flow.
	publisher.err = errors.New("topic unavailable")
	if _, err := svc.Create(context.Background(), pickupOrderCommand()); err != nil {
		t.Fatalf("create with failing publisher: %v", err)
	}
}

func TestCreateOrderPartialPaymentDisabled(t *testing.T) {
	f := newOrderServiceFixture(t)
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:                 f.orders,
		Products:               f.products,
		Rates:                  f.rates,
		Stock:                  f.stock,
		Counters:               &stubOrderCounters{},
		Payments:               f.payments,
		Signatures:             f.verifier,
		DisablePartialPayments: true,
		Clock:                  testClock,
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	cmd := pickupOrderCommand()
	cmd.PartialPayment = true
	cmd.PartialAmountPaid = 5000
	_, err = svc.Create(context.Background(), cmd)
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input when partial payments disabled, got %v", err)
	}

	cmd.PartialPayment = false
	cmd.PartialAmountPaid = 0
	if _, err := svc.Create(context.Background(), cmd); err != nil {
		t.Fatalf("full payment order should still succeed: %v", err)
	}
}

func TestCreateOrderRejectsPartialHomeDelivery(t *testing.T) {
	f := newOrderServiceFixture(t)

	cmd := pickupOrderCommand()
	cmd.DeliveryType = "home_delivery"
	cmd.StoreID = ""
	cmd.ShippingAddress = &domain.Address{Line1: "12 MG Road", City: "Bengaluru"}
	cmd.PartialPayment = true
	cmd.PartialAmountPaid = 5000

	_, err := f.service.Create(context.Background(), cmd)
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreateOrderIntentFailureCleansUp(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.payments.err = errors.New("gateway down")
	f.coupons.coupons["FLAT500"] = domain.Coupon{
		Code: "FLAT500", Type: domain.CouponTypeFlat, Value: 500, Active: true,
	}

	cmd := pickupOrderCommand()
	cmd.CouponCode = "FLAT500"
	_, err := f.service.Create(context.Background(), cmd)
	if !errors.Is(err, ErrOrderPaymentIntent) {
		t.Fatalf("expected payment intent error, got %v", err)
	}
	if len(f.orders.deleteCalls) != 1 {
		t.Fatalf("expected the pending order deleted, got %d deletes", len(f.orders.deleteCalls))
	}
	if len(f.coupons.decrementCalls) != 1 {
		t.Fatalf("expected coupon usage released, got %v", f.coupons.decrementCalls)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.stock.stock["prd_ring"] = domain.Stock{ProductID: "prd_ring", Quantity: 0}

	_, err := f.service.Create(context.Background(), pickupOrderCommand())
	if !errors.Is(err, ErrOrderStockUnavailable) {
		t.Fatalf("expected stock unavailable, got %v", err)
	}
}

func confirmableOrder() domain.Order {
	return domain.Order{
		ID:            "ord_1",
		OrderNumber:   "AJ-2026-000001",
		UserID:        "usr_1",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		DeliveryType:  domain.DeliveryTypePickup,
		Items: []domain.OrderItem{{
			ProductID: "prd_ring",
			Quantity:  2,
		}},
		Payment: domain.PaymentIntentRef{GatewayOrderID: "gw_1", Provider: "stripe"},
	}
}

func TestConfirmPaymentDeductsStockOnce(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()

	cmd := ConfirmPaymentCommand{GatewayOrderID: "gw_1", PaymentID: "pay_1", Signature: "sig"}
	order, err := f.service.ConfirmPayment(context.Background(), cmd)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if order.Status != domain.OrderStatusConfirmed || order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected confirmed and paid, got %s/%s", order.Status, order.PaymentStatus)
	}
	if order.ConfirmedAt == nil {
		t.Fatalf("expected ConfirmedAt set")
	}
	if got := f.stock.stock["prd_ring"].Quantity; got != 8 {
		t.Fatalf("expected stock 8 after deducting 2, got %d", got)
	}
	if len(f.carts.clearCalls) != 1 {
		t.Fatalf("expected cart cleared once, got %d", len(f.carts.clearCalls))
	}

	// A gateway retry is a no-op success, never a second deduction.
	again, err := f.service.ConfirmPayment(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replayed confirm: %v", err)
	}
	if again.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected confirmed on replay, got %s", again.Status)
	}
	if len(f.stock.deductCalls) != 1 {
		t.Fatalf("expected a single deduction, got %d", len(f.stock.deductCalls))
	}
}

func TestConfirmPaymentPartialKeepsPartialStatus(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := confirmableOrder()
	order.PartialPayment = &domain.PartialPayment{AmountPaid: 5000, RemainingAmount: 29050}
	f.orders.orders["ord_1"] = order

	confirmed, err := f.service.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		GatewayOrderID: "gw_1", PaymentID: "pay_1", Signature: "sig",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.PaymentStatus != domain.PaymentStatusPartial {
		t.Fatalf("expected partial payment status, got %s", confirmed.PaymentStatus)
	}
}

func TestConfirmPaymentRejectsBadSignature(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()
	f.verifier.err = errors.New("digest mismatch")

	_, err := f.service.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		GatewayOrderID: "gw_1", PaymentID: "pay_1", Signature: "forged",
	})
	if !errors.Is(err, ErrOrderSignatureMismatch) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
	if len(f.stock.deductCalls) != 0 {
		t.Fatalf("expected no stock movement on rejected signature")
	}
}

func TestConfirmPaymentWrongOwner(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()

	_, err := f.service.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		GatewayOrderID: "gw_1", PaymentID: "pay_1", Signature: "sig", UserID: "usr_2",
	})
	if !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestConfirmPaymentRestoresStockWhenUpdateFails(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()
	f.orders.updateErr = errors.New("write failed")

	_, err := f.service.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		GatewayOrderID: "gw_1", PaymentID: "pay_1", Signature: "sig",
	})
	if err == nil {
		t.Fatalf("expected update failure to surface")
	}
	if got := f.stock.stock["prd_ring"].Quantity; got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()

	_, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:        Actor{UserID: "adm_1", Role: "admin"},
		OrderID:      "ord_1",
		TargetStatus: domain.OrderStatusDelivered,
	})
	if !errors.Is(err, ErrOrderInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestUpdateStatusRequiresStaff(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()

	_, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:        Actor{UserID: "usr_1", Role: "customer"},
		OrderID:      "ord_1",
		TargetStatus: domain.OrderStatusConfirmed,
	})
	if !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCancelConfirmedOrderRestoresStockAndFlagsRefund(t *testing.T) {
	f := newOrderServiceFixture(t)
	confirmedAt := testClock().Add(-time.Hour)
	order := confirmableOrder()
	order.Status = domain.OrderStatusConfirmed
	order.PaymentStatus = domain.PaymentStatusPaid
	order.Payment.PaymentID = "pay_1"
	order.ConfirmedAt = &confirmedAt
	f.orders.orders["ord_1"] = order
	f.stock.stock["prd_ring"] = domain.Stock{ProductID: "prd_ring", Quantity: 8}

	cancelled, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:        Actor{UserID: "adm_1", Role: "admin"},
		OrderID:      "ord_1",
		TargetStatus: domain.OrderStatusCancelled,
		CancelReason: "customer request",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancelled.RefundEligible || cancelled.PaymentStatus != domain.PaymentStatusRefundPending {
		t.Fatalf("expected refund pending, got eligible=%v status=%s", cancelled.RefundEligible, cancelled.PaymentStatus)
	}
	if got := f.stock.stock["prd_ring"].Quantity; got != 10 {
		t.Fatalf("expected quantities restored to 10, got %d", got)
	}
	if cancelled.CancelReason != "customer request" {
		t.Fatalf("expected cancel reason recorded, got %q", cancelled.CancelReason)
	}
}

func TestCancelPendingOrderSkipsRestore(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()

	cancelled, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:        Actor{UserID: "adm_1", Role: "admin"},
		OrderID:      "ord_1",
		TargetStatus: domain.OrderStatusCancelled,
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.RefundEligible {
		t.Fatalf("unpaid order must not be refund eligible")
	}
	if len(f.stock.restoreCalls) != 0 {
		t.Fatalf("nothing was deducted, nothing to restore")
	}
}

func TestCancelStaffConfirmedUnpaidOrderSkipsRestore(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()
	admin := Actor{UserID: "adm_1", Role: "admin"}

	confirmed, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:        admin,
		OrderID:      "ord_1",
		TargetStatus: domain.OrderStatusConfirmed,
	})
	if err != nil {
		t.Fatalf("staff confirm: %v", err)
	}
	if confirmed.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("staff confirm must not settle payment, got %s", confirmed.PaymentStatus)
	}
	if len(f.stock.deductCalls) != 0 {
		t.Fatalf("staff confirm must not touch inventory, got %d deductions", len(f.stock.deductCalls))
	}

	cancelled, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:        admin,
		OrderID:      "ord_1",
		TargetStatus: domain.OrderStatusCancelled,
		CancelReason: "stone unavailable",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.RefundEligible {
		t.Fatalf("unpaid order must not be refund eligible")
	}
	if len(f.stock.restoreCalls) != 0 {
		t.Fatalf("nothing was deducted, nothing to restore")
	}
	if got := f.stock.stock["prd_ring"].Quantity; got != 10 {
		t.Fatalf("expected quantity unchanged at 10, got %d", got)
	}
}

func TestConfirmPaymentSettlesStaffConfirmedOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	confirmedAt := testClock().Add(-time.Hour)
	order := confirmableOrder()
	order.Status = domain.OrderStatusConfirmed
	order.ConfirmedAt = &confirmedAt
	f.orders.orders["ord_1"] = order

	settled, err := f.service.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		GatewayOrderID: "gw_1", PaymentID: "pay_1", Signature: "sig",
	})
	if err != nil {
		t.Fatalf("confirm after staff confirm: %v", err)
	}
	if settled.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", settled.PaymentStatus)
	}
	if settled.Payment.PaymentID != "pay_1" {
		t.Fatalf("expected payment id recorded, got %q", settled.Payment.PaymentID)
	}
	if settled.ConfirmedAt == nil || !settled.ConfirmedAt.Equal(confirmedAt) {
		t.Fatalf("expected the earlier confirmation timestamp kept, got %v", settled.ConfirmedAt)
	}
	if len(f.stock.deductCalls) != 1 {
		t.Fatalf("expected one deduction at settlement, got %d", len(f.stock.deductCalls))
	}

	// Now that money moved, cancellation restores the quantities.
	cancelled, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:        Actor{UserID: "adm_1", Role: "admin"},
		OrderID:      "ord_1",
		TargetStatus: domain.OrderStatusCancelled,
		CancelReason: "customer request",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancelled.RefundEligible {
		t.Fatalf("settled order must be refund eligible on cancel")
	}
	if got := f.stock.stock["prd_ring"].Quantity; got != 10 {
		t.Fatalf("expected quantities restored to 10, got %d", got)
	}
}

func TestUpdateStatusDelayRequiresReason(t *testing.T) {
	f := newOrderServiceFixture(t)
	original := testClock().AddDate(0, 0, 7)
	order := confirmableOrder()
	order.Status = domain.OrderStatusConfirmed
	order.EstimatedDeliveryDate = &original
	f.orders.orders["ord_1"] = order

	later := original.AddDate(0, 0, 3)
	_, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:                 Actor{UserID: "adm_1", Role: "admin"},
		OrderID:               "ord_1",
		TargetStatus:          domain.OrderStatusProcessing,
		EstimatedDeliveryDate: &later,
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected reason requirement, got %v", err)
	}

	updated, err := f.service.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		Actor:                 Actor{UserID: "adm_1", Role: "admin"},
		OrderID:               "ord_1",
		TargetStatus:          domain.OrderStatusProcessing,
		EstimatedDeliveryDate: &later,
		DelayReason:           "stone supplier delay",
	})
	if err != nil {
		t.Fatalf("update with reason: %v", err)
	}
	if len(updated.DelayHistory) != 1 || updated.DelayHistory[0].Reason != "stone supplier delay" {
		t.Fatalf("expected delay history entry, got %+v", updated.DelayHistory)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.orders.orders["ord_1"] = confirmableOrder()

	if _, err := f.service.Get(context.Background(), GetOrderCommand{
		OrderID: "ord_1", Actor: Actor{UserID: "usr_1"},
	}); err != nil {
		t.Fatalf("owner read: %v", err)
	}

	if _, err := f.service.Get(context.Background(), GetOrderCommand{
		OrderID: "ord_1", Actor: Actor{UserID: "usr_2"},
	}); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	if _, err := f.service.Get(context.Background(), GetOrderCommand{
		OrderID: "ord_1", Actor: Actor{UserID: "adm_1", Role: "staff"},
	}); err != nil {
		t.Fatalf("staff read: %v", err)
	}
}
