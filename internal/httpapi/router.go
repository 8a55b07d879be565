// Package httpapi assembles the HTTP surface of the server: the Connect
// services plus health and metrics endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services holds the Connect service implementations to mount.
type Services struct {
	Users       apiconnect.UserServiceHandler
	Groups      apiconnect.GroupServiceHandler
	Expenses    apiconnect.ExpenseServiceHandler
	Settlements apiconnect.SettlementServiceHandler
	Balances    apiconnect.BalanceServiceHandler
}

// Deps are the collaborators of the router. Metrics and Gatherer may be nil,
// in which case /metrics is not served.
type Deps struct {
	Services Services
	Verifier *auth.Verifier
	Health   Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter creates the chi router with every service mounted.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Interceptors run in order: metrics see every call, including ones
	// rejected by auth; logging sees the authenticated caller.
	opts := connect.WithInterceptors(
		middleware.MetricsInterceptor(d.Metrics),
		middleware.RequireAuth(d.Verifier),
		middleware.LoggingInterceptor(logger),
	)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors)

	r.Get("/healthz", healthz(d.Health))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	mount := func(path string, h http.Handler) {
		r.Handle(path+"*", h)
	}
	mount(apiconnect.NewUserServiceHandler(d.Services.Users, opts))
	mount(apiconnect.NewGroupServiceHandler(d.Services.Groups, opts))
	mount(apiconnect.NewExpenseServiceHandler(d.Services.Expenses, opts))
	mount(apiconnect.NewSettlementServiceHandler(d.Services.Settlements, opts))
	mount(apiconnect.NewBalanceServiceHandler(d.Services.Balances, opts))

	return r
}

func healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				slog.WarnContext(ctx, "Health check failed", "error", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	}
}

// requestLogger logs all incoming requests at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.DebugContext(r.Context(), "Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", chimw.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// cors adds CORS headers for browser access.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
