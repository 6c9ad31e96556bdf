package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aurelia-jewels/api/internal/repositories"
)

var (
	// ErrStockInvalidInput indicates the product id was missing.
	ErrStockInvalidInput = errors.New("stock: invalid input")
	// ErrStockNotFound indicates no inventory record exists for the product.
	ErrStockNotFound = errors.New("stock: not found")
)

// StockServiceDeps enumerates collaborators required to construct the service.
type StockServiceDeps struct {
	Stock repositories.StockRepository
}

type stockService struct {
	stock repositories.StockRepository
}

// NewStockService wires dependencies into a StockService implementation.
func NewStockService(deps StockServiceDeps) (StockService, error) {
	if deps.Stock == nil {
		return nil, errors.New("stock service: stock repository is required")
	}
	return &stockService{stock: deps.Stock}, nil
}

func (s *stockService) Availability(ctx context.Context, productID string) (Stock, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Stock{}, fmt.Errorf("%w: product id is required", ErrStockInvalidInput)
	}
	stock, err := s.stock.Get(ctx, productID)
	if err != nil {
		var stockErr *repositories.StockError
		if errors.As(err, &stockErr) && stockErr.Code == repositories.StockErrorNotFound {
			return Stock{}, ErrStockNotFound
		}
		return Stock{}, err
	}
	return stock, nil
}
