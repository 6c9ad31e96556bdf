package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/aurelia-jewels/api/internal/domain"
	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const stockCollection = "stock"

// StockRepository manages per-product inventory documents. Quantities only ever
// change through firestore.Increment so concurrent checkouts cannot lose updates.
type StockRepository struct {
	base     *pfirestore.BaseRepository[stockDocument]
	provider *pfirestore.Provider
}

// NewStockRepository constructs a Firestore-backed stock repository.
func NewStockRepository(provider *pfirestore.Provider) (*StockRepository, error) {
	if provider == nil {
		return nil, errors.New("stock repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[stockDocument](provider, stockCollection, nil, nil)
	return &StockRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Get loads the stock document for a product.
func (r *StockRepository) Get(ctx context.Context, productID string) (domain.Stock, error) {
	if r == nil || r.base == nil {
		return domain.Stock{}, errors.New("stock repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Stock{}, errors.New("stock repository: product id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Stock{}, repositories.NewStockError(repositories.StockErrorNotFound, fmt.Sprintf("no stock record for product %s", id), err)
		}
		return domain.Stock{}, err
	}
	return domain.Stock{
		ProductID: doc.ID,
		Quantity:  doc.Data.Quantity,
		UpdatedAt: doc.Data.UpdatedAt,
	}, nil
}

// Deduct decrements the given quantities in one transaction. If any line has
// insufficient stock the whole batch fails and nothing is written.
func (r *StockRepository) Deduct(ctx context.Context, lines []repositories.StockLine, now time.Time) error {
	if r == nil || r.provider == nil {
		return errors.New("stock repository not initialised")
	}
	lines = normaliseStockLines(lines)
	if len(lines) == 0 {
		return nil
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		refs := make([]*firestore.DocumentRef, len(lines))
		for i, line := range lines {
			ref, err := r.base.DocumentRef(ctx, line.ProductID)
			if err != nil {
				return err
			}
			refs[i] = ref

			snapshot, err := tx.Get(ref)
			if status.Code(err) == codes.NotFound {
				return repositories.NewStockError(repositories.StockErrorNotFound, fmt.Sprintf("no stock record for product %s", line.ProductID), err)
			}
			if err != nil {
				return err
			}
			var doc stockDocument
			if err := snapshot.DataTo(&doc); err != nil {
				return fmt.Errorf("firestore stock decode %s: %w", line.ProductID, err)
			}
			if doc.Quantity < line.Quantity {
				return repositories.NewStockError(repositories.StockErrorInsufficient,
					fmt.Sprintf("product %s has %d in stock, %d requested", line.ProductID, doc.Quantity, line.Quantity), nil)
			}
		}
		for i, line := range lines {
			if err := tx.Update(refs[i], []firestore.Update{
				{Path: "quantity", Value: firestore.Increment(-line.Quantity)},
				{Path: "updatedAt", Value: now.UTC()},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var stockErr *repositories.StockError
		if errors.As(err, &stockErr) {
			return stockErr
		}
		return pfirestore.WrapError("stock.deduct", err)
	}
	return nil
}

// Restore adds quantities back after a cancellation. Increments are uncapped on
// purpose; restoring can never fail a precondition.
func (r *StockRepository) Restore(ctx context.Context, lines []repositories.StockLine, now time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("stock repository not initialised")
	}
	for _, line := range normaliseStockLines(lines) {
		if _, err := r.base.Update(ctx, line.ProductID, []firestore.Update{
			{Path: "quantity", Value: firestore.Increment(line.Quantity)},
			{Path: "updatedAt", Value: now.UTC()},
		}); err != nil {
			return err
		}
	}
	return nil
}

// normaliseStockLines trims IDs, drops non-positive quantities, and aggregates
// duplicate products so one transaction read covers each document once.
func normaliseStockLines(lines []repositories.StockLine) []repositories.StockLine {
	merged := make(map[string]int64, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ProductID)
		if id == "" || line.Quantity <= 0 {
			continue
		}
		if _, seen := merged[id]; !seen {
			order = append(order, id)
		}
		merged[id] += line.Quantity
	}
	out := make([]repositories.StockLine, 0, len(order))
	for _, id := range order {
		out = append(out, repositories.StockLine{ProductID: id, Quantity: merged[id]})
	}
	return out
}

type stockDocument struct {
	Quantity  int64     `firestore:"quantity"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

var _ repositories.StockRepository = (*StockRepository)(nil)
