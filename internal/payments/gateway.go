package payments

import (
	"context"
	"errors"

	"github.com/aurelia-jewels/api/internal/services"
)

// Gateway adapts the provider manager to the intent creation port consumed by
// the order workflow.
type Gateway struct {
	manager *Manager
}

// NewGateway wraps a configured Manager.
func NewGateway(manager *Manager) (*Gateway, error) {
	if manager == nil {
		return nil, errors.New("payments: manager is required")
	}
	return &Gateway{manager: manager}, nil
}

// CreateIntent opens a gateway payment intent for the order.
func (g *Gateway) CreateIntent(ctx context.Context, req services.PaymentIntentRequest) (services.PaymentIntentResult, error) {
	intent, err := g.manager.CreateIntent(ctx, PaymentContext{
		Currency: req.Currency,
		Metadata: req.Metadata,
	}, IntentRequest{
		OrderID:        req.OrderID,
		OrderNumber:    req.OrderNumber,
		Amount:         req.Amount,
		Currency:       req.Currency,
		CustomerID:     req.CustomerID,
		Metadata:       req.Metadata,
		IdempotencyKey: req.OrderID,
	})
	if err != nil {
		return services.PaymentIntentResult{}, err
	}
	return services.PaymentIntentResult{
		GatewayOrderID: intent.GatewayOrderID,
		Provider:       intent.Provider,
		ClientSecret:   intent.ClientSecret,
	}, nil
}

var _ services.PaymentIntentCreator = (*Gateway)(nil)
var _ services.PaymentSignatureVerifier = (*SignatureVerifier)(nil)
