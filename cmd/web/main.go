package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/tablebook/reservation-client/docs"
	"github.com/tablebook/reservation-client/internal/api"
	"github.com/tablebook/reservation-client/internal/api/handler"
	"github.com/tablebook/reservation-client/internal/core/ports"
	"github.com/tablebook/reservation-client/internal/core/service"
	"github.com/tablebook/reservation-client/internal/infrastructure/backend"
	"github.com/tablebook/reservation-client/internal/infrastructure/broadcast"
	"github.com/tablebook/reservation-client/internal/infrastructure/config"
	"github.com/tablebook/reservation-client/internal/infrastructure/db/mongo"
	"github.com/tablebook/reservation-client/internal/infrastructure/db/redis"
	"github.com/tablebook/reservation-client/internal/infrastructure/scheduler"
	"github.com/tablebook/reservation-client/internal/infrastructure/storage"
	"github.com/tablebook/reservation-client/pkg/logger"
)

// @title        Tablebook Reservation Client API
// @version      1.0
// @description  Session lifecycle, route guard and cart host for the restaurant reservation client.
// @BasePath     /

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "tablebook-web",
	})

	deps, cleanup, err := wire(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	defer cleanup()

	// Restore before serving; guarded views answer 202 until then.
	res := deps.session.Restore(ctx)
	log.Info().Bool("authenticated", deps.session.IsAuthenticated()).Str("error", res.Error).Msg("session restored")
	deps.session.Listen(ctx, deps.watcher)

	if err := deps.cart.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("cart load failed")
	}
	if deps.watcher != nil {
		if err := deps.cart.Listen(ctx, deps.watcher); err != nil {
			log.Warn().Err(err).Msg("cart change events unavailable")
		}
	}

	expiry, err := scheduler.NewExpiryWatcher(cfg.Session.ExpiryCheck, deps.session, logger.Component("scheduler"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SESSION_EXPIRY_CHECK")
	}
	expiry.Start()
	defer expiry.Stop()

	e := api.NewRouter(api.Deps{
		Session:      deps.session,
		Cart:         deps.cart,
		Reservations: deps.reservations,
		Probes:       deps.probes,
		Log:          logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	waitForShutdown(log)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped")
}

type dependencies struct {
	session      *service.SessionManager
	cart         *service.CartService
	reservations ports.ReservationClient
	watcher      ports.StorageWatcher
	probes       map[string]handler.Probe
}

// wire builds storage, broadcast and backend clients for the configured
// drivers. The returned func releases every connection that was opened; on
// error nothing is left open.
func wire(ctx context.Context, cfg *config.Config) (*dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	fail := func(err error) (*dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	probes := map[string]handler.Probe{}

	var rdb *goredis.Client
	if cfg.Storage.Driver == "redis" || cfg.Broadcast.Driver == "redis" {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fail(err)
		}
		rdb = client
		closers = append(closers, func() { _ = client.Close() })
		probes["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, client) }
	}

	var kv ports.KeyValueStore
	switch cfg.Storage.Driver {
	case "memory":
		kv = storage.NewMemory()
	case "file":
		f, err := storage.NewFile(cfg.Storage.Path, cfg.Storage.Secret, logger.Component("storage"))
		if err != nil {
			return fail(err)
		}
		kv = f
	case "redis":
		kv = redis.NewStore(rdb, cfg.Redis.Prefix)
	case "mongo":
		conn, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			_ = conn.Close(dctx)
		})
		probes["mongodb"] = conn.Ping
		kv = conn.Store(cfg.Mongo.Collection)
	}

	var bus ports.Broadcaster
	switch cfg.Broadcast.Driver {
	case "local":
		bus = broadcast.NewHub().Join()
	case "redis":
		bus = redis.NewBroadcaster(rdb, broadcast.NewOrigin(), logger.Component("broadcast"))
	default:
		bus = broadcast.NewNop()
	}
	closers = append(closers, func() { _ = bus.Close() })

	var watcher ports.StorageWatcher
	if w, ok := kv.(ports.StorageWatcher); ok {
		watcher = w
	}

	client := backend.NewClient(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout}, logger.Component("backend"))
	probes["backend"] = client.Ping

	session := service.NewSessionManager(
		storage.NewSessionStore(kv, logger.Component("storage")),
		backend.NewAuthClient(client),
		bus,
		service.SessionConfig{
			VerifyOnRestore: cfg.Session.VerifyOnRestore,
			ExpiryFromToken: cfg.Session.ExpiryFromToken,
		},
		logger.Component("session"),
	)
	cart := service.NewCartService(storage.NewCartStore(kv, logger.Component("storage")), logger.Component("cart"))

	return &dependencies{
		session:      session,
		cart:         cart,
		reservations: backend.NewReservationClient(client, session),
		watcher:      watcher,
		probes:       probes,
	}, cleanup, nil
}

func waitForShutdown(log zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")
}
