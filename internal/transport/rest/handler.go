package rest

import (
	"context"
	"net/http"
	"time"

	"pagos-sync/internal/domain"
	"pagos-sync/internal/repository"
	"pagos-sync/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RequestLister interface {
	List(ctx context.Context, f repository.RequestsFilter) ([]domain.PaymentRequest, error)
	FormFields(ctx context.Context, formID int64) ([]domain.FormField, error)
}

type SyncRunner interface {
	Preview(ctx context.Context) (*domain.SyncReport, error)
	Commit(ctx context.Context) (*domain.SyncReport, error)
	GetRun(ctx context.Context, runID string) (*service.SyncRunStatus, error)
}

type RegistryUpdater interface {
	Update(ctx context.Context) (*domain.RegistryUpdateSummary, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, f repository.RequestsFilter) (string, error)
}

type Handler struct {
	requests RequestLister
	sync     SyncRunner
	registry RegistryUpdater
	reports  ReportGenerator
}

func NewHandler(requests RequestLister, sync SyncRunner, registry RegistryUpdater, reports ReportGenerator) *Handler {
	return &Handler{
		requests: requests,
		sync:     sync,
		registry: registry,
		reports:  reports,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(120*time.Second),
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, "ok", nil)
	})

	r.Route("/solicitudes", func(r chi.Router) {
		r.Get("/", h.listRequests)
		r.Get("/reporte", h.generateReport)
		r.Get("/campos/{formulario_id}", h.listFormFields)
	})

	r.Route("/sincronizacion", func(r chi.Router) {
		r.Get("/previsualizar", h.previewSync)
		r.Post("/sincronizar", h.commitSync)
		r.Get("/runs/{run_id}", h.getSyncRun)
	})

	r.Route("/padron", func(r chi.Router) {
		r.Post("/actualizar", h.updateRegistry)
	})

	return r
}
