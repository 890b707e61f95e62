// Package api exposes the enforcement pipeline, trust scoring, and tenant
// management over HTTP.
package api

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/resolute-ai/rampart/internal/enforce"
	"github.com/resolute-ai/rampart/internal/storage"
	"github.com/resolute-ai/rampart/internal/store"
	"github.com/resolute-ai/rampart/internal/trs"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Store    *store.Store
	Enforcer *enforce.Enforcer
	Engine   *trs.Engine
	Writer   storage.LedgerWriter
	Defaults enforce.Switches
	Logger   *zap.Logger
	CacheTTL time.Duration

	// trsMu serializes Engine.Calculate so the snapshot chain forms a
	// total order.
	trsMu sync.Mutex
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Pipeline endpoints (auth required via Bearer rk_ token)
	mux.HandleFunc("POST /v1/enforce", deps.authMiddleware(deps.handleEnforce))
	mux.HandleFunc("POST /v1/trs", deps.authMiddleware(deps.handleTRS))
	mux.HandleFunc("POST /v1/trs/analyze", deps.authMiddleware(deps.handleAnalyze))

	// Tenant CRUD (no auth — dashboard auth added later)
	mux.HandleFunc("POST /api/rampart/tenants", deps.handleCreateTenant)
	mux.HandleFunc("GET /api/rampart/tenants", deps.handleListTenants)
	mux.HandleFunc("GET /api/rampart/tenants/{tenant_id}", deps.handleGetTenant)
	mux.HandleFunc("PATCH /api/rampart/tenants/{tenant_id}", deps.handleUpdateTenant)
	mux.HandleFunc("DELETE /api/rampart/tenants/{tenant_id}", deps.handleDeleteTenant)
	mux.HandleFunc("POST /api/rampart/tenants/{tenant_id}/rotate-key", deps.handleRotateKey)

	// Policy (no auth)
	mux.HandleFunc("GET /api/rampart/tenants/{tenant_id}/policy", deps.handleGetPolicy)
	mux.HandleFunc("PATCH /api/rampart/tenants/{tenant_id}/policy", deps.handleUpdatePolicy)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
