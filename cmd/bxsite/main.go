package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dmitrymomot/bxsite/internal/config"
	"github.com/dmitrymomot/bxsite/internal/content"
	"github.com/dmitrymomot/bxsite/internal/httpapi"
	"github.com/dmitrymomot/bxsite/internal/lifecycle"
	"github.com/dmitrymomot/bxsite/internal/routing"
	"github.com/dmitrymomot/bxsite/internal/server"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/internal/sweeper"
	"github.com/dmitrymomot/bxsite/middlewares"
	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
	"github.com/dmitrymomot/bxsite/pkg/health"
	"github.com/dmitrymomot/bxsite/pkg/kv"
	"github.com/dmitrymomot/bxsite/pkg/logger"
	"github.com/dmitrymomot/bxsite/pkg/ratelimit"
	"github.com/dmitrymomot/bxsite/pkg/redis"
	"github.com/dmitrymomot/bxsite/pkg/vercel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.NewWithSentry(cfg.Log.Sentry,
		[]logger.Option{logger.WithLevel(cfg.Log.Level)},
		middlewares.RequestIDExtractor(),
		middlewares.AccountExtractor(),
	)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("application error", slog.Any("error", err))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var (
		store  kv.Store
		checks = health.Checks{}
		hooks  []server.Option
	)

	switch cfg.StoreBackend {
	case config.StoreMemory:
		mem := kv.NewMemory()
		store = mem
		hooks = append(hooks, server.ShutdownHook(func(context.Context) error { return mem.Close() }))
		log.Warn("using in-memory store; data is lost on restart")
	default:
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		store = kv.NewRedis(client)
		checks["redis"] = redis.Healthcheck(client)
		hooks = append(hooks, server.ShutdownHook(redis.Shutdown(client)))
	}

	resolvers := []dnsverify.Resolver{&dnsverify.SystemResolver{}}
	if cfg.DNS.UseDoH {
		hc := &http.Client{Timeout: cfg.DNS.AttemptTimeout}
		resolvers = append(resolvers, dnsverify.Google(hc), dnsverify.Cloudflare(hc))
	}
	verifier := dnsverify.New(
		dnsverify.WithResolvers(resolvers...),
		dnsverify.WithAttemptTimeout(cfg.DNS.AttemptTimeout),
		dnsverify.WithTimeout(cfg.DNS.Timeout),
		dnsverify.WithLogger(log),
	)
	checks["dns"] = dnsCheck(cfg.PlatformDomain)

	if !cfg.Vercel.Configured() {
		log.Warn("vercel credentials missing; custom domains will not be attached to the hosting project")
	}

	index := sites.NewIndex(store)
	manager := lifecycle.New(index, verifier,
		lifecycle.WithPlatformDomain(cfg.PlatformDomain),
		lifecycle.WithLimiter(ratelimit.New(store,
			ratelimit.WithLimit(cfg.Limits.WritesPerWindow),
			ratelimit.WithWindow(cfg.Limits.WriteWindow),
		)),
		lifecycle.WithInfra(vercel.New(cfg.Vercel)),
		lifecycle.WithMaxSites(cfg.Limits.MaxSitesPerAccount),
		lifecycle.WithInfraTimeout(cfg.Limits.InfraTimeout),
		lifecycle.WithLogger(log),
	)

	if cfg.Auth.DevSkipAuth {
		log.Warn("BXSITE_DEV_SKIP_AUTH is set; anonymous callers act as the dev account without ownership checks")
	}

	handler := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:      log,
		HostRouting: routing.New(index, cfg.PlatformDomain, routing.WithLogger(log)).Middleware,
		Identity: middlewares.AuthIdentity([]byte(cfg.Auth.JWTSecret),
			middlewares.WithDevBypass(cfg.Auth.DevSkipAuth),
			middlewares.WithIdentityIssuer(cfg.Auth.Issuer),
			middlewares.WithIdentityLogger(log),
		),
		Health:        checks,
		HealthOptions: []health.Option{health.WithLogger(log), health.WithOptional("dns")},
		Handlers: []httpapi.RouteRegistrar{
			httpapi.New(manager, httpapi.WithLogger(log), httpapi.WithDebugRoutes(cfg.DebugRoutes)),
			content.NewHandler(index, content.NewRenderer(cfg.PlatformDomain), content.WithLogger(log)),
		},
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	opts := []server.Option{
		server.Address(cfg.HTTP.Address),
		server.Logger(log),
		server.Timeouts(cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout, cfg.HTTP.IdleTimeout),
		server.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	}

	if cfg.SweepSchedule != "" {
		sw, err := sweeper.New(manager, cfg.SweepSchedule, sweeper.WithLogger(log))
		if err != nil {
			return err
		}
		if err := sw.Start(ctx); err != nil {
			return err
		}
		opts = append(opts, server.ShutdownHook(sw.Shutdown()))
	}

	// Detached hosting provider calls finish before the store closes.
	opts = append(opts, server.ShutdownHook(manager.Shutdown()))
	opts = append(opts, hooks...)
	opts = append(opts, server.ShutdownHook(func(context.Context) error {
		logger.Flush(2 * time.Second)
		return nil
	}))

	return server.Run(ctx, handler, opts...)
}

// dnsCheck reports whether the system resolver can reach the platform
// zone.
func dnsCheck(platform string) health.CheckFunc {
	return func(ctx context.Context) error {
		_, err := net.DefaultResolver.LookupNS(ctx, platform)
		return err
	}
}
