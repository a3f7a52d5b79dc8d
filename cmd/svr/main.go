// Command svr exposes a local-only HTTP surface over the runner: POST
// a RunSpec definition to start a simulation synchronously, GET back
// the PlanResult by run name. It never dials any external service —
// the only I/O is the local filesystem (config files) and the
// in-process runner.
package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/dicelab/fairsim/logging"
)

func main() {
	addr := flag.String("addr", ":5808", "listen address")
	logMode := flag.String("log-mode", "dev", "log mode: dev|prod|silence")
	flag.Parse()

	sl, asyncHandler := logging.NewDefaultAsyncLogger(logging.ParseMode(*logMode), 4096)
	slog.SetDefault(sl)
	defer asyncHandler.Close()

	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.Recoverer)
	r.Use(slogRequestLogger(sl))

	store := newResultStore()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("fairsim svr: local-only runner API\n"))
	})
	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/health", handleHealth)
		v1.Post("/simulate", store.handleSimulate)
		v1.Get("/results/{name}", store.handleGetResult)
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	sl.Info("svr listening", "addr", *addr, "log_mode", *logMode)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// slogRequestLogger replaces chi's default stdlib-log middleware with
// one request-scoped slog line per request, carrying the chi request
// ID so log lines correlate with any error responses.
func slogRequestLogger(sl *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			sl.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimid.GetReqID(r.Context()),
			)
		})
	}
}
