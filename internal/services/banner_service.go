package services

import (
	"context"
	"errors"
	"strings"

	"github.com/aurelia-jewels/api/internal/repositories"
)

// BannerServiceDeps enumerates collaborators required to construct the service.
type BannerServiceDeps struct {
	Banners   repositories.BannerRepository
	Approvals ApprovalService
}

type bannerService struct {
	banners   repositories.BannerRepository
	approvals ApprovalService
}

// NewBannerService wires dependencies into a BannerService implementation.
func NewBannerService(deps BannerServiceDeps) (BannerService, error) {
	if deps.Banners == nil {
		return nil, errors.New("banner service: banner repository is required")
	}
	if deps.Approvals == nil {
		return nil, errors.New("banner service: approval service is required")
	}
	return &bannerService{
		banners:   deps.Banners,
		approvals: deps.Approvals,
	}, nil
}

func (s *bannerService) ListActive(ctx context.Context) ([]Banner, error) {
	return s.banners.ListActive(ctx)
}

func (s *bannerService) Submit(ctx context.Context, cmd SubmitBannerCommand) (MutationOutcome, error) {
	changes := map[string]any{}
	if cmd.Banner != nil {
		changes = bannerToMap(*cmd.Banner)
	}
	return s.approvals.Submit(ctx, SubmitMutationCommand{
		Actor:           cmd.Actor,
		EntityType:      EntityTypeBanner,
		EntityID:        strings.TrimSpace(cmd.BannerID),
		Action:          cmd.Action,
		ProposedChanges: changes,
	})
}
