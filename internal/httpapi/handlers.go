package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"wakil.app/internal/audit"
	"wakil.app/internal/auth"
	"wakil.app/internal/ledger"
	"wakil.app/internal/obs"
	"wakil.app/internal/project"
	"wakil.app/internal/stream"
)

// ReadyProbe reports whether the service can take traffic (DB ping for
// durable deployments, always ready for in-memory ones).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries everything the HTTP layer depends on. All fields except
// Ready and Version are required.
type Config struct {
	Ready    ReadyProbe
	Version  string
	Accounts *auth.Service
	Tokens   *auth.TokenManager
	Ledger   ledger.Service
	Projects project.Store
	Audits   audit.Store
	Stream   *stream.Stream

	// Zero values fall back to the defaults in New.
	RateBurst  int
	RatePerSec int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	accounts *auth.Service
	tokens   *auth.TokenManager
	ledger   ledger.Service
	projects project.Store
	audits   audit.Store
	recorder *audit.Recorder
	stream   *stream.Stream

	rateBurst  int
	ratePerSec int
	maxBody    int64
}

func New(cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: cfg.Ready,
		version:    cfg.Version,
		accounts:   cfg.Accounts,
		tokens:     cfg.Tokens,
		ledger:     cfg.Ledger,
		projects:   cfg.Projects,
		audits:     cfg.Audits,
		recorder:   audit.NewRecorder(cfg.Audits),
		stream:     cfg.Stream,
		rateBurst:  20,
		ratePerSec: 10,
		maxBody:    1 << 20,
	}
	if cfg.RateBurst > 0 {
		a.rateBurst = cfg.RateBurst
	}
	if cfg.RatePerSec > 0 {
		a.ratePerSec = cfg.RatePerSec
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// accounts
	a.mux.HandleFunc("/v1/users/signup", a.handleSignup)
	a.mux.HandleFunc("/v1/users/login", a.handleLogin)
	a.mux.HandleFunc("/v1/users/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/users/me", a.handleMe)

	// credit ledger
	a.mux.HandleFunc("/v1/credits/balance", a.handleBalance)
	a.mux.HandleFunc("/v1/credits/transactions", a.handleTransactions)
	a.mux.HandleFunc("/v1/credits/purchase", a.handlePurchase)
	a.mux.HandleFunc("/v1/credits/deduct", a.handleDeduct)
	a.mux.HandleFunc("/v1/credits/stream", a.Stream)

	// projects
	a.mux.HandleFunc("/v1/projects", a.handleProjectsCollection)
	a.mux.HandleFunc("/v1/projects/", a.handleProjectResource)

	// audit trail
	a.mux.HandleFunc("/v1/audit/logs", a.handleAuditLogs)
	a.mux.HandleFunc("/v1/audit/resources/", a.handleAuditResource)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.withAuth(a.mux)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBody)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return h
}

// audit records an entry attributed to the authenticated caller.
func (a *API) audit(ctx context.Context, action audit.Action, resourceType, resourceID string, details map[string]any) {
	a.recorder.Record(ctx, "", action, resourceType, resourceID, details)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "wakil-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "wakil-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
