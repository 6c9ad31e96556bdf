package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

var (
	// ErrProductInvalidInput indicates required fields were missing.
	ErrProductInvalidInput = errors.New("product: invalid input")
	// ErrProductNotFound indicates the product does not exist.
	ErrProductNotFound = errors.New("product: not found")
)

// ProductServiceDeps enumerates collaborators required to construct the service.
type ProductServiceDeps struct {
	Products  repositories.ProductRepository
	Approvals ApprovalService
}

type productService struct {
	products  repositories.ProductRepository
	approvals ApprovalService
}

// NewProductService wires dependencies into a ProductService implementation.
// All mutations route through the approval gate.
func NewProductService(deps ProductServiceDeps) (ProductService, error) {
	if deps.Products == nil {
		return nil, errors.New("product service: product repository is required")
	}
	if deps.Approvals == nil {
		return nil, errors.New("product service: approval service is required")
	}
	return &productService{
		products:  deps.Products,
		approvals: deps.Approvals,
	}, nil
}

func (s *productService) Get(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error) {
	return s.products.List(ctx, filter)
}

func (s *productService) Submit(ctx context.Context, cmd SubmitProductCommand) (MutationOutcome, error) {
	changes := map[string]any{}
	if cmd.Product != nil {
		changes = productToMap(*cmd.Product)
	}
	return s.approvals.Submit(ctx, SubmitMutationCommand{
		Actor:           cmd.Actor,
		EntityType:      EntityTypeProduct,
		EntityID:        strings.TrimSpace(cmd.ProductID),
		Action:          cmd.Action,
		ProposedChanges: changes,
	})
}

// ProductListFilter aliases the repository filter for handler convenience.
type ProductListFilter = repositories.ProductListFilter
