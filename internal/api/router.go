package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"zenwallet/internal/service"
)

// NewRouter wires the ledger endpoints under /api.
func NewRouter(ledgerSvc service.LedgerService, reconSvc service.ReconciliationService, logger *slog.Logger) http.Handler {
	accounts := NewAccountsHandler(ledgerSvc)
	transactions := NewTransactionsHandler(ledgerSvc)
	categories := NewCategoriesHandler(ledgerSvc)
	reports := NewReportsHandler(ledgerSvc, reconSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accounts.List)
			r.Post("/", accounts.Create)
			r.Put("/{id}", accounts.Update)
			r.Delete("/{id}", accounts.Delete)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", transactions.List)
			r.Post("/", transactions.Create)
			r.Post("/bulk-delete", transactions.BulkDelete)
			r.Get("/{id}", transactions.Get)
			r.Put("/{id}", transactions.Update)
			r.Delete("/{id}", transactions.Delete)
			r.Post("/{id}/clone", transactions.Clone)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categories.List)
			r.Post("/", categories.Create)
			r.Delete("/{id}", categories.Delete)
			r.Post("/{id}/sub-categories", categories.CreateSub)
			r.Delete("/{id}/sub-categories/{name}", categories.DeleteSub)
		})

		r.Get("/pre-balances", reports.PreBalances)
		r.Get("/notes", reports.Notes)
		r.Get("/totals", reports.Totals)
		r.Get("/audit", reports.Audit)
		r.Get("/export", reports.Export)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return r
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path,
				"status", ww.Status(), "duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
