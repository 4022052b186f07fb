package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wakil.app/internal/audit"
	"wakil.app/internal/auth"
	"wakil.app/internal/httpapi"
	"wakil.app/internal/ledger"
	"wakil.app/internal/obs"
	"wakil.app/internal/project"
	"wakil.app/internal/store/pg"
	"wakil.app/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	// Local overrides; absent file is fine.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("WAKIL_AUTH_SECRET")
	if secret == "" {
		log.Fatal("WAKIL_AUTH_SECRET is required")
	}
	tokens, err := auth.NewTokenManager("wakil-api", secret)
	if err != nil {
		log.Fatalf("token manager: %v", err)
	}

	cfg := httpapi.Config{
		Version:    version,
		Tokens:     tokens,
		Stream:     stream.New(),
		RateBurst:  envInt("WAKIL_RATE_BURST"),
		RatePerSec: envInt("WAKIL_RATE_PER_SEC"),
	}

	var store *pg.Store
	if dsn := os.Getenv("WAKIL_PG_DSN"); dsn != "" {
		store, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		cfg.Ready = httpapi.ReadyProbe{DB: store.DB()}
		cfg.Ledger = store
		cfg.Projects = store
		cfg.Audits = store
		cfg.Accounts, err = auth.NewService(store, tokens)
	} else {
		// DSN-less mode keeps everything in process for local development.
		log.Println("WAKIL_PG_DSN not set, using in-memory stores")
		cfg.Ledger = ledger.NewInMemory()
		cfg.Projects = project.NewMemStore()
		cfg.Audits = audit.NewMemStore()
		cfg.Accounts, err = auth.NewService(auth.NewMemStore(), tokens)
	}
	if err != nil {
		log.Fatalf("account service: %v", err)
	}

	api := httpapi.New(cfg)

	addr := os.Getenv("WAKIL_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second, // long enough for SSE keepalive cycles
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting wakil-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout())
	defer cancel()

	_ = srv.Shutdown(ctx)
	if store != nil {
		_ = store.Close()
	}
	log.Println("Stopped")
}

func envInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Fatalf("%s must be a non-negative integer, got %q", key, raw)
	}
	return n
}

func shutdownTimeout() time.Duration {
	if raw := os.Getenv("WAKIL_SHUTDOWN_TIMEOUT_SEC"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 10 * time.Second
}
