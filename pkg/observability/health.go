package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/castlegateit/memberdir/pkg/httputil"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness endpoints over a set of named
// dependency checks.
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: make(map[string]HealthChecker)}
}

// Register adds a named dependency check.
func (h *HealthHandler) Register(name string, check HealthChecker) {
	h.checks[name] = check
}

// Live always reports success: the process is up.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

// Ready runs every registered check and reports per-dependency status. Any
// failure yields a 503.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	httputil.WriteJSON(w, status, results)
}
