package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/aurelia-jewels/api/internal/domain"
	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const bannersCollection = "banners"

// BannerRepository persists storefront banners within Firestore.
type BannerRepository struct {
	base *pfirestore.BaseRepository[bannerDocument]
}

// NewBannerRepository constructs a Firestore-backed banner repository.
func NewBannerRepository(provider *pfirestore.Provider) (*BannerRepository, error) {
	if provider == nil {
		return nil, errors.New("banner repository requires firestore provider")
	}
	return &BannerRepository{
		base: pfirestore.NewBaseRepository[bannerDocument](provider, bannersCollection, nil, nil),
	}, nil
}

// Insert creates the banner document, failing on ID collisions.
func (r *BannerRepository) Insert(ctx context.Context, banner domain.Banner) error {
	if r == nil || r.base == nil {
		return errors.New("banner repository not initialised")
	}
	id := strings.TrimSpace(banner.ID)
	if id == "" {
		return errors.New("banner repository: banner id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, encodeBanner(banner)); err != nil {
		return pfirestore.WrapError("banners.insert", err)
	}
	return nil
}

// Update replaces the banner document.
func (r *BannerRepository) Update(ctx context.Context, banner domain.Banner) error {
	if r == nil || r.base == nil {
		return errors.New("banner repository not initialised")
	}
	id := strings.TrimSpace(banner.ID)
	if id == "" {
		return errors.New("banner repository: banner id is required")
	}
	_, err := r.base.Set(ctx, id, encodeBanner(banner))
	return err
}

// FindByID loads one banner.
func (r *BannerRepository) FindByID(ctx context.Context, bannerID string) (domain.Banner, error) {
	if r == nil || r.base == nil {
		return domain.Banner{}, errors.New("banner repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(bannerID))
	if err != nil {
		return domain.Banner{}, err
	}
	return decodeBanner(doc.ID, doc.Data), nil
}

// ListActive returns active banners ordered by display position.
func (r *BannerRepository) ListActive(ctx context.Context) ([]domain.Banner, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("banner repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("active", "==", true).OrderBy("position", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	banners := make([]domain.Banner, 0, len(docs))
	for _, doc := range docs {
		banners = append(banners, decodeBanner(doc.ID, doc.Data))
	}
	return banners, nil
}

func encodeBanner(banner domain.Banner) bannerDocument {
	return bannerDocument{
		Title:     banner.Title,
		ImageURL:  banner.ImageURL,
		LinkURL:   banner.LinkURL,
		Position:  banner.Position,
		Active:    banner.Active,
		Approval:  banner.ApprovalStatus,
		CreatedAt: banner.CreatedAt.UTC(),
		UpdatedAt: banner.UpdatedAt.UTC(),
	}
}

func decodeBanner(id string, doc bannerDocument) domain.Banner {
	return domain.Banner{
		ID:             id,
		Title:          doc.Title,
		ImageURL:       doc.ImageURL,
		LinkURL:        doc.LinkURL,
		Position:       doc.Position,
		Active:         doc.Active,
		ApprovalStatus: doc.Approval,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

type bannerDocument struct {
	Title     string    `firestore:"title"`
	ImageURL  string    `firestore:"imageUrl"`
	LinkURL   string    `firestore:"linkUrl,omitempty"`
	Position  int       `firestore:"position"`
	Active    bool      `firestore:"active"`
	Approval  string    `firestore:"approvalStatus,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

var _ repositories.BannerRepository = (*BannerRepository)(nil)
