// Package bootstrap builds the storefront services from configuration. Both
// binaries share it so the gateway and the repair worker see the same stores.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dwikikusuma/storefront/internal/analytics"
	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	cart "github.com/dwikikusuma/storefront/internal/cart/domain"
	cartmem "github.com/dwikikusuma/storefront/internal/cart/infra/memory"
	cartpg "github.com/dwikikusuma/storefront/internal/cart/infra/postgres"
	cartredis "github.com/dwikikusuma/storefront/internal/cart/infra/redis"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalogmem "github.com/dwikikusuma/storefront/internal/catalog/infra/memory"
	catalogpg "github.com/dwikikusuma/storefront/internal/catalog/infra/postgres"
	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
	checkoutadapter "github.com/dwikikusuma/storefront/internal/checkout/infra/adapter"
	pricingapp "github.com/dwikikusuma/storefront/internal/pricing/app"
	promoapp "github.com/dwikikusuma/storefront/internal/promotion/app"
	promomem "github.com/dwikikusuma/storefront/internal/promotion/infra/memory"
	promopg "github.com/dwikikusuma/storefront/internal/promotion/infra/postgres"
	"github.com/dwikikusuma/storefront/internal/seed"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/clock"
	"github.com/dwikikusuma/storefront/pkg/config"
	"github.com/dwikikusuma/storefront/pkg/postgres"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// OwnerLister enumerates carts held by a store, for the repair worker.
type OwnerLister interface {
	Owners(ctx context.Context) ([]cart.Owner, error)
}

type Deps struct {
	Catalog    *catalogapp.Service
	Promotions *promoapp.Service
	Pricing    *pricingapp.Service
	Carts      *cartapp.Service
	Checkout   *checkoutapp.Service
	Tokens     *session.Tokens
	Events     analytics.Publisher

	ShopperCarts OwnerLister

	// Ping reports whether the backing stores are reachable.
	Ping func(ctx context.Context) error
}

// Build wires every service. The returned close function releases database
// and redis connections.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*Deps, func(), error) {
	if cfg.JWT.Secret == "" {
		return nil, nil, config.ErrMissingJWTSecret
	}
	deps, closeAll, err := build(ctx, cfg, log)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return deps, closeAll, nil
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*Deps, func(), error) {
	clk := clock.System{}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	var pings []func(context.Context) error

	var (
		products   catalogapp.ProductRepo
		promos     promoapp.PromotionRepo
		shopper    cartapp.CartStore
		shopperLst OwnerLister
	)

	if cfg.Postgres.Enabled {
		db, err := postgres.Open(postgres.Config{
			Host:    cfg.Postgres.Host,
			Port:    cfg.Postgres.Port,
			User:    cfg.Postgres.User,
			Pass:    cfg.Postgres.Pass,
			DB:      cfg.Postgres.DB,
			SSLMode: cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, closeAll, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { _ = sqlDB.Close() })
		pings = append(pings, sqlDB.PingContext)
		if err := migrate(db); err != nil {
			return nil, closeAll, err
		}

		products = catalogpg.NewProductRepo(db)
		promos = promopg.NewPromotionRepo(db)
		repo := cartpg.NewCartRepo(db)
		shopper, shopperLst = repo, repo
		log.Info("postgres connected", slog.String("host", cfg.Postgres.Host), slog.String("db", cfg.Postgres.DB))
	} else {
		catalogRepo, promoRepo, err := memoryCatalog(cfg.CatalogSeedFile, clk.Now())
		if err != nil {
			return nil, closeAll, err
		}
		products, promos = catalogRepo, promoRepo
		store := cartmem.NewStore()
		shopper, shopperLst = store, store
		log.Warn("postgres disabled, using in-memory catalog and shopper carts",
			slog.String("seed_file", cfg.CatalogSeedFile))
	}

	var guest cartapp.CartStore
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		closers = append(closers, func() { _ = rdb.Close() })
		if err != nil {
			return nil, closeAll, fmt.Errorf("ping redis: %w", err)
		}
		pings = append(pings, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		guest = cartredis.NewStore(rdb, cfg.Redis.GuestCartTTL)
		log.Info("redis connected", slog.String("addr", cfg.Redis.Addr))
	} else {
		guest = cartmem.NewStore()
		log.Warn("redis disabled, guest carts are process local")
	}

	events := analytics.NewLogPublisher(log)
	catalogSvc := catalogapp.NewService(products)
	promoSvc := promoapp.NewService(promos, clk)
	pricingSvc := pricingapp.NewService(pricingapp.NewResolver(clk, cfg.Pricing.RoundPlaces), promoSvc)
	cartSvc := cartapp.NewService(cartapp.Stores{Guest: guest, Shopper: shopper}, catalogSvc, pricingSvc, cartapp.Options{
		Currency: cfg.Pricing.Currency,
		Clock:    clk,
		Events:   events,
		Logger:   log.With("component", "cart"),
	})

	checkoutSvc := checkoutapp.NewService(
		checkoutadapter.NewCartServiceReader(cartSvc),
		checkoutadapter.NewPriceServiceReader(catalogSvc, pricingSvc),
		checkoutapp.Options{
			Currency:      cfg.Pricing.Currency,
			Reprice:       cfg.Checkout.Reprice,
			MaxConcurrent: cfg.Checkout.MaxConcurrent,
		},
	)

	return &Deps{
		Catalog:      catalogSvc,
		Promotions:   promoSvc,
		Pricing:      pricingSvc,
		Carts:        cartSvc,
		Checkout:     checkoutSvc,
		Tokens:       session.NewTokens(cfg.JWT.Secret),
		Events:       events,
		ShopperCarts: shopperLst,
		Ping: func(ctx context.Context) error {
			for _, p := range pings {
				if err := p(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}, closeAll, nil
}

func migrate(db *gorm.DB) error {
	for _, m := range []func(*gorm.DB) error{catalogpg.Migrate, promopg.Migrate, cartpg.Migrate} {
		if err := m(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func memoryCatalog(seedFile string, now time.Time) (*catalogmem.ProductRepo, *promomem.PromotionRepo, error) {
	products := catalogmem.NewProductRepo()
	promos := promomem.NewPromotionRepo()
	if seedFile == "" {
		return products, promos, nil
	}

	f, err := seed.Load(seedFile)
	if err != nil {
		return nil, nil, err
	}
	items, err := f.CatalogProducts()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range items {
		products.Put(p)
	}
	sales, err := f.CatalogPromotions(now)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range sales {
		promos.Add(p)
	}
	return products, promos, nil
}
