package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/momentum/backend/internal/api/handlers"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Handlers bundles the route handlers; nil handlers are not mounted
type Handlers struct {
	Portfolio *handlers.PortfolioHandler
	Runs      *handlers.RunHandler
	Events    *handlers.EventHub
	Scheduler *handlers.SchedulerHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(ModeOf(h))).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	if h.Portfolio != nil {
		api.HandleFunc("/portfolios", h.Portfolio.ListPortfolios).Methods("GET")
		api.HandleFunc("/portfolios/{strategy}/{timeframe}", h.Portfolio.GetPortfolio).Methods("GET")
		api.HandleFunc("/runs/latest", h.Portfolio.LatestRuns).Methods("GET")
	}
	if h.Runs != nil {
		api.HandleFunc("/runs", h.Runs.TriggerRun).Methods("POST")
	}
	if h.Scheduler != nil {
		api.HandleFunc("/scheduler/jobs", h.Scheduler.GetJobs).Methods("GET")
	}
	if h.Events != nil {
		r.HandleFunc("/ws/events", h.Events.ServeWS).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status and mounted surfaces
func healthCheckHandler(mode Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"service": "momentum-api",
			"mode":    mode,
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
