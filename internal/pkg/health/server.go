package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Vodeneev/overunder/internal/pkg/health/handlers"
)

// NewRouter wires the service endpoints. trigger may be nil.
func NewRouter(service string, stats handlers.StatsSource, trigger handlers.Trigger) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ping", handlers.HandlePing).Methods(http.MethodGet)
	router.HandleFunc("/health", handlers.NewHealthHandler(service, time.Now())).Methods(http.MethodGet)

	router.HandleFunc("/stats", handlers.NewStatsHandler(stats)).Methods(http.MethodGet)
	router.HandleFunc("/stats/weeks/{week:[0-9]+}", handlers.NewWeekHandler(stats, weekVar)).Methods(http.MethodGet)

	// Manual season run
	router.HandleFunc("/run", handlers.NewRunHandler(trigger)).Methods(http.MethodPost)

	return router
}

func weekVar(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["week"])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Run serves the router on addr until ctx is done.
func Run(ctx context.Context, addr string, service string, stats handlers.StatsSource, trigger handlers.Trigger, readHeaderTimeout time.Duration) error {
	if readHeaderTimeout <= 0 {
		return fmt.Errorf("read_header_timeout must be positive")
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(service, stats, trigger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Health server listening", "service", service, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server error", "service", service, "error", err)
		}
	}()
	return nil
}

func AddrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}
