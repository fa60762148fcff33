package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/rentroll/internal/auth"
	"github.com/mmynk/rentroll/internal/blob"
	"github.com/mmynk/rentroll/internal/cache"
	"github.com/mmynk/rentroll/internal/checkout"
	"github.com/mmynk/rentroll/internal/config"
	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/metrics"
	"github.com/mmynk/rentroll/internal/middleware"
	"github.com/mmynk/rentroll/internal/rpc"
	"github.com/mmynk/rentroll/internal/service"
	"github.com/mmynk/rentroll/internal/storage/sqlstore"
	"github.com/mmynk/rentroll/internal/web"
	"github.com/mmynk/rentroll/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Configure(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	events := eventlog.NewWorker(store, 100)
	events.Start()
	defer events.Shutdown()

	summaries, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	blobs, files, closeBlobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBlobs()

	var provider checkout.Provider
	if cfg.CheckoutEnabled() {
		provider = checkout.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.Currency)
		slog.Info("Online payments enabled", "currency", cfg.Currency)
	}

	adminHash := cfg.AdminPasswordHash
	if adminHash == "" {
		slog.Warn("ADMIN_PASSWORD is set in plain text; prefer ADMIN_PASSWORD_HASH")
		if adminHash, err = auth.HashPassword(cfg.AdminPassword); err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
	}

	m := metrics.New()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	property := service.NewPropertyService(store, summaries, cfg.CacheTTL, events)
	payments := service.NewPaymentService(store, summaries, provider, m, events, cfg.BaseURL)

	limiter := middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst)
	defer limiter.Stop()

	rpcPath, rpcHandler := rpc.NewLedgerServiceHandler(rpc.NewLedgerService(payments, property), jwtManager)

	srv, err := web.New(web.Deps{
		Property:  property,
		Tenants:   service.NewTenantService(store, summaries, events),
		Payments:  payments,
		Documents: service.NewDocumentService(store, blobs, events),
		Auth: service.NewAuthService(
			auth.NewAdminAuthenticator(cfg.AdminUsername, adminHash),
			auth.NewTenantAuthenticator(store),
			jwtManager, m, events, slog.Default(),
		),
		JWT:          jwtManager,
		Checkout:     provider,
		Metrics:      m,
		LoginLimiter: limiter,
		FilesPath:    cfg.BlobPublicURL,
		Files:        files,
		RPCPath:      rpcPath,
		RPC:          corsMiddleware(rpcHandler),
		Currency:     cfg.Currency,
	})
	if err != nil {
		return err
	}

	// Wrap with h2c for HTTP/2 without TLS (Connect clients use it)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(srv.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Addr(), "url", cfg.BaseURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newCache connects to Redis when configured and falls back to an
// in-process cache otherwise.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("Using in-memory cache")
		return cache.NewMemory(), func() {}, nil
	}
	r, err := cache.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("Using redis cache", "addr", cfg.RedisAddr)
	return r, func() { r.Close() }, nil
}

// newBlobStore returns the document store and, for the local backend, the
// handler serving its files.
func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, http.Handler, func(), error) {
	switch cfg.BlobBackend {
	case "gcs":
		g, err := blob.NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("initialize gcs: %w", err)
		}
		slog.Info("Storing documents in GCS", "bucket", cfg.GCSBucket)
		return g, nil, func() { g.Close() }, nil
	default:
		l, err := blob.NewLocal(cfg.BlobDir, cfg.BlobPublicURL)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("Storing documents on disk", "dir", cfg.BlobDir, "url", cfg.BlobPublicURL)
		return l, l.Handler(), func() {}, nil
	}
}

// corsMiddleware adds CORS headers for browser access to the Connect API
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
