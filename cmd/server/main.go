package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type routerOptions struct {
	corsOrigin    string
	loginRate     int
	secureHeaders bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := bootstrapAdmin(ctx, store, cfg.AdminUser, cfg.AdminPassword, log); err != nil {
		return err
	}

	h := handlers.NewHandlers(
		store,
		auth.NewVerifier(cfg.JWT.Secret, store),
		auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL),
		log,
	)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: setupRouter(h, log, routerOptions{
			corsOrigin:    cfg.CORSOrigin,
			loginRate:     cfg.LoginRate,
			secureHeaders: cfg.SecureHeaders,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore picks MongoDB when a URI is configured and SQLite otherwise.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (storage.Store, error) {
	if cfg.Mongo.URI != "" {
		log.Info("using mongodb store", zap.String("database", cfg.Mongo.Database))
		return storage.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
	}
	log.Info("using sqlite store", zap.String("path", cfg.DBPath))
	return storage.NewDB(cfg.DBPath)
}

// bootstrapAdmin creates the configured admin account on an empty store.
func bootstrapAdmin(ctx context.Context, store storage.Store, username, password string, log *zap.Logger) error {
	if username == "" || password == "" {
		return nil
	}

	n, err := store.UserCount(ctx)
	if err != nil {
		return errors.Wrap(err, "count users")
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	if _, err := store.CreateUser(ctx, username, hash); err != nil {
		return errors.Wrap(err, "create admin user")
	}
	log.Info("created admin user", zap.String("username", username))
	return nil
}

func setupRouter(h *handlers.Handlers, log *zap.Logger, opts routerOptions) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	h.RegisterAuthRoutes(mux, handlers.NewRateLimiter(opts.loginRate))
	h.RegisterRecordRoutes(mux, models.KindIncome)
	h.RegisterRecordRoutes(mux, models.KindExpense)

	mws := []handlers.Middleware{
		handlers.Recover(log),
		handlers.RequestLogger(log),
		handlers.CORS(opts.corsOrigin),
	}
	if opts.secureHeaders {
		mws = append(mws, handlers.SecurityHeaders)
	}
	mws = append(mws, handlers.Metrics)

	return handlers.Chain(mux, mws...)
}
