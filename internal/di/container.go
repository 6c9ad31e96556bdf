package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aurelia-jewels/api/internal/platform/config"
	"github.com/aurelia-jewels/api/internal/repositories"
	"github.com/aurelia-jewels/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Pricing   services.PricingService
	Rates     services.RateService
	Reprice   services.RepriceService
	Orders    services.OrderService
	Coupons   services.CouponService
	Stock     services.StockService
	Products  services.ProductService
	Banners   services.BannerService
	Approvals services.ApprovalService
	Counters  services.CounterService
	System    services.SystemService
	Audit     services.AuditLogService
}

// ContainerDeps carries the external collaborators the container cannot build
// itself: the repository registry, the payment gateway adapters, and runtime
// metadata surfaced on health endpoints.
type ContainerDeps struct {
	Config       config.Config
	Repositories repositories.Registry
	Payments     services.PaymentIntentCreator
	Signatures   services.PaymentSignatureVerifier
	Events       services.OrderEventPublisher
	Build        services.BuildInfo
	Logger       *zap.Logger
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, deps ContainerDeps) (*Container, error) {
	if deps.Repositories == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       deps.Config,
		Repositories: deps.Repositories,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients and the audit writer goroutine.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.Services.Audit != nil {
		c.Services.Audit.Close()
	}
	if c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(deps ContainerDeps) (Services, error) {
	var svc Services
	reg := deps.Repositories
	cfg := deps.Config
	log := eventLogger(deps.Logger)

	if auditRepo := reg.AuditLogs(); auditRepo != nil {
		auditSvc, err := services.NewAuditLogService(services.AuditLogServiceDeps{
			Repository: auditRepo,
			Clock:      time.Now,
			Logger:     auditWarnLogger(deps.Logger),
		})
		if err != nil {
			return Services{}, fmt.Errorf("build audit log service: %w", err)
		}
		svc.Audit = auditSvc
	}

	if counterRepo := reg.Counters(); counterRepo != nil {
		counterSvc, err := services.NewCounterService(services.CounterServiceDeps{
			Repository: counterRepo,
			Clock:      time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build counter service: %w", err)
		}
		svc.Counters = counterSvc
	}

	productsRepo := reg.Products()
	ratesRepo := reg.Rates()

	if productsRepo != nil && ratesRepo != nil {
		pricingSvc, err := services.NewPricingEngine(services.PricingEngineDeps{
			Products: productsRepo,
			Rates:    ratesRepo,
			Clock:    time.Now,
			Logger:   log,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build pricing engine: %w", err)
		}
		svc.Pricing = pricingSvc

		repriceSvc, err := services.NewRepriceService(services.RepriceServiceDeps{
			Products:  productsRepo,
			Rates:     ratesRepo,
			BatchSize: cfg.Pricing.RepriceBatchSize,
			Clock:     time.Now,
			Logger:    log,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build reprice service: %w", err)
		}
		svc.Reprice = repriceSvc
	}

	mutators := make(map[string]services.EntityMutator)
	if productsRepo != nil && svc.Pricing != nil {
		mutator, err := services.NewProductMutator(productsRepo, svc.Pricing, time.Now, log)
		if err != nil {
			return Services{}, fmt.Errorf("build product mutator: %w", err)
		}
		mutators[services.EntityTypeProduct] = mutator
	}
	if bannersRepo := reg.Banners(); bannersRepo != nil {
		mutator, err := services.NewBannerMutator(bannersRepo, time.Now)
		if err != nil {
			return Services{}, fmt.Errorf("build banner mutator: %w", err)
		}
		mutators[services.EntityTypeBanner] = mutator
	}
	if ratesRepo != nil && svc.Reprice != nil {
		mutator, err := services.NewRateMutator(ratesRepo, svc.Reprice, time.Now, log)
		if err != nil {
			return Services{}, fmt.Errorf("build rate mutator: %w", err)
		}
		mutators[services.EntityTypeRates] = mutator
	}

	if approvalsRepo := reg.Approvals(); approvalsRepo != nil && len(mutators) > 0 {
		approvalSvc, err := services.NewApprovalService(services.ApprovalServiceDeps{
			Approvals: approvalsRepo,
			Mutators:  mutators,
			Clock:     time.Now,
			Logger:    log,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build approval service: %w", err)
		}
		svc.Approvals = approvalSvc
	}

	if productsRepo != nil && svc.Approvals != nil {
		productSvc, err := services.NewProductService(services.ProductServiceDeps{
			Products:  productsRepo,
			Approvals: svc.Approvals,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build product service: %w", err)
		}
		svc.Products = productSvc
	}

	if bannersRepo := reg.Banners(); bannersRepo != nil && svc.Approvals != nil {
		bannerSvc, err := services.NewBannerService(services.BannerServiceDeps{
			Banners:   bannersRepo,
			Approvals: svc.Approvals,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build banner service: %w", err)
		}
		svc.Banners = bannerSvc
	}

	if ratesRepo != nil {
		rateSvc, err := services.NewRateService(services.RateServiceDeps{
			Rates:    ratesRepo,
			Repricer: svc.Reprice,
			Clock:    time.Now,
			Logger:   log,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build rate service: %w", err)
		}
		svc.Rates = rateSvc
	}

	// A disabled coupon flag leaves svc.Coupons nil so validation endpoints
	// answer 503 and order creation ignores coupon codes.
	if couponsRepo := reg.Coupons(); couponsRepo != nil && cfg.Features.EnableCoupons {
		couponSvc, err := services.NewCouponService(services.CouponServiceDeps{
			Coupons: couponsRepo,
			Clock:   time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build coupon service: %w", err)
		}
		svc.Coupons = couponSvc
	}

	if stockRepo := reg.Stock(); stockRepo != nil {
		stockSvc, err := services.NewStockService(services.StockServiceDeps{
			Stock: stockRepo,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build stock service: %w", err)
		}
		svc.Stock = stockSvc
	}

	ordersRepo := reg.Orders()
	if ordersRepo != nil && productsRepo != nil && ratesRepo != nil && reg.Stock() != nil &&
		svc.Counters != nil && deps.Payments != nil && deps.Signatures != nil {
		var couponRepo repositories.CouponRepository
		if cfg.Features.EnableCoupons {
			couponRepo = reg.Coupons()
		}
		orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
			Orders:                 ordersRepo,
			Products:               productsRepo,
			Rates:                  ratesRepo,
			Coupons:                couponRepo,
			Stock:                  reg.Stock(),
			Carts:                  reg.Carts(),
			Counters:               svc.Counters,
			Payments:               deps.Payments,
			Signatures:             deps.Signatures,
			MinPartialPercent:      cfg.Orders.MinPartialPaymentPercent,
			DisablePartialPayments: !cfg.Features.EnablePartialPayments,
			Events:                 deps.Events,
			Clock:                  time.Now,
			Logger:                 log,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build order service: %w", err)
		}
		svc.Orders = orderSvc
	}

	if healthRepo := reg.Health(); healthRepo != nil {
		build := deps.Build
		if build.Environment == "" {
			build.Environment = cfg.Security.Environment
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
			Build:            build,
			Audit:            svc.Audit,
			Counters:         svc.Counters,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}

// eventLogger adapts a zap logger to the event callback signature the services accept.
func eventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	if logger == nil {
		return nil
	}
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zFields = append(zFields, zap.Any(key, value))
		}
		logger.Info(event, zFields...)
	}
}

func auditWarnLogger(logger *zap.Logger) services.AuditLogger {
	if logger == nil {
		return nil
	}
	return logger.Sugar()
}
