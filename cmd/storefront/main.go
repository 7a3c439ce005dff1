package main

import (
	"context"
	"database/sql"
	"io"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"TitanStore/internal/admin"
	"TitanStore/internal/catalog"
	"TitanStore/internal/config"
	"TitanStore/internal/storefront"
	"TitanStore/pkg/kit"
)

const service = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, kit.LogOptions{}).Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, kit.LogOptions{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = log.Sync() }()

	if cfg.UsingDefaultAdminCode() {
		log.Warn("ADMIN_SECURITY_CODE not set, using the built-in development code")
	}

	ctx := context.Background()

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("open store failed", zap.Error(err), zap.String("driver", cfg.StoreDriver))
	}
	defer func() { _ = closer.Close() }()

	tokens, err := admin.NewTokenMaker(cfg.AdminTokenSecret)
	if err != nil {
		log.Fatal("init token maker failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	limiter := kit.NewIPRateLimiter(cfg.AdminVerifyLimit, time.Minute)
	limiter.TrustProxy = cfg.TrustProxy

	deps := storefront.Deps{
		Catalog: &catalog.Server{
			Service: catalog.NewService(store, log, catalog.NewMetrics(reg)),
			Links: catalog.LinkConfig{
				WhatsAppNumber: cfg.WhatsAppNumber,
				CallNumber:     cfg.CallNumber,
				PublicBaseURL:  cfg.PublicBaseURL,
			},
			Log: log,
		},
		Admin: &admin.Server{
			Log:      log,
			Gate:     admin.NewGate(cfg.AdminCode, cfg.AdminCodeHash),
			Tokens:   tokens,
			TokenTTL: cfg.AdminTokenTTL,
			Limiter:  limiter,
		},
	}

	h := storefront.NewHandler(deps, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})

	log.Info("catalog store ready", zap.String("driver", cfg.StoreDriver))
	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStore(ctx context.Context, cfg *config.Config) (catalog.Store, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return catalog.NewMemStore(), nopCloser{}, nil

	case config.DriverBolt:
		st, err := catalog.OpenBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil

	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		st := catalog.NewPostgresStore(db)
		if err := st.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return st, db, nil

	default:
		return catalog.NewFileStore(cfg.ProductsFile), nopCloser{}, nil
	}
}
