package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"unify/internal/analytics"
	analyticsmetrics "unify/internal/analytics/metrics"
	"unify/internal/db"
	"unify/internal/identity"
	"unify/internal/idp"
	"unify/internal/observability"
	"unify/internal/platform/config"
	"unify/internal/platform/httpserver"
	"unify/internal/platform/logger"
	platformredis "unify/internal/platform/redis"
	"unify/internal/preference"
	"unify/internal/profile"
	"unify/internal/tenantconfig"
	"unify/internal/tenantconfig/cache"
	configmetrics "unify/internal/tenantconfig/metrics"
	httptransport "unify/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()

	shipper, err := observability.NewShipper(cfg.KafkaBrokers, cfg.KafkaLogTopic, "unify")
	if err != nil {
		// The observability sink is best-effort even at startup.
		logger.New(slog.LevelInfo).Warn("observability shipper disabled", "error", err)
	}
	defer shipper.Close()
	log := logger.NewWithShipper(slog.LevelInfo, shipper)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	if err := db.Migrate(conn); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	cipher, err := tenantconfig.NewCipher(cfg.SettingsPassphrase, cfg.SettingsSalt)
	if err != nil {
		log.Error("settings cipher init failed", "error", err)
		os.Exit(1)
	}

	configStore := tenantconfig.NewPostgresStore(conn)
	configCache := cache.New(configStore, cipher, log, configmetrics.New())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the cache for every consumer; a tenant config store outage at
	// boot is fatal since nothing can resolve without it.
	for _, appID := range []string{
		tenantconfig.AppIdentityProvider,
		tenantconfig.AppAnalyticsStore,
		tenantconfig.AppMarketingPlatform,
	} {
		if err := configCache.Refresh(ctx, appID); err != nil {
			log.Error("initial config refresh failed", "app_id", appID, "error", err)
			os.Exit(1)
		}
	}

	identityStore := identity.NewPostgresStore(conn)
	identities := identity.NewService(identityStore, log)

	syncMetrics := analyticsmetrics.New()
	dispatcher := analytics.NewDispatcher(cfg.SyncQueueSize, log, syncMetrics)
	tokens := analytics.NewTokenClient(http.DefaultClient, cfg.TokenURL, cfg.TokenClientID, cfg.TokenClientSecret)
	sync := analytics.NewSync(
		analytics.NewStoreClient(configCache, tokens, http.DefaultClient, log, syncMetrics),
		analytics.NewMarketingClient(configCache, http.DefaultClient, cfg.MarketingRegions, log, syncMetrics),
	)

	prefStore := preference.NewPostgresStore(conn)
	provider := idp.NewClient(configCache, http.DefaultClient, log)
	aggregator := profile.NewAggregator(prefStore, identities, provider, sync, dispatcher, log)
	prefs := preference.NewService(prefStore, identities, aggregator, log)

	handler := httptransport.NewHandler(identities, prefs, configCache, rdb, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		err := dispatcher.Run(ctx)
		if err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	if rdb != nil {
		refresher := cache.NewRefresher(configCache, rdb.Client, log)
		group.Go(func() error {
			err := refresher.Run(ctx)
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		log.Info("starting unify", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
