package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/aurelia-jewels/api/internal/domain"
	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const cartsCollection = "carts"

// CartRepository persists cart documents keyed by user ID.
type CartRepository struct {
	base     *pfirestore.BaseRepository[cartDocument]
	provider *pfirestore.Provider
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[cartDocument](provider, cartsCollection, nil, nil)
	return &CartRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Get loads the cart for the given user ID.
func (r *CartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{
		UserID:    doc.ID,
		UpdatedAt: doc.Data.UpdatedAt,
	}
	for _, item := range doc.Data.Items {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID:              item.ProductID,
			SelectedMetalType:      domain.MetalType(item.SelectedMetalType),
			SelectedPurity:         item.SelectedPurity,
			SelectedSize:           item.SelectedSize,
			SelectedDiamondQuality: item.SelectedDiamondQuality,
			Quantity:               item.Quantity,
		})
	}
	return cart, nil
}

// Clear removes the cart document after a successful payment confirmation. A
// missing document is treated as already cleared.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return errors.New("cart repository: user id is required")
	}
	ref, err := r.base.DocumentRef(ctx, uid)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		wrapped := pfirestore.WrapError("carts.clear", err)
		var repoErr repositories.RepositoryError
		if errors.As(wrapped, &repoErr) && repoErr.IsNotFound() {
			return nil
		}
		return wrapped
	}
	return nil
}

func cloneAnyMap(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

type cartDocument struct {
	Items     []cartItemDocument `firestore:"items,omitempty"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartItemDocument struct {
	ProductID              string `firestore:"productId"`
	SelectedMetalType      string `firestore:"selectedMetalType,omitempty"`
	SelectedPurity         string `firestore:"selectedPurity,omitempty"`
	SelectedSize           string `firestore:"selectedSize,omitempty"`
	SelectedDiamondQuality string `firestore:"selectedDiamondQuality,omitempty"`
	Quantity               int    `firestore:"quantity"`
}

var _ repositories.CartRepository = (*CartRepository)(nil)
