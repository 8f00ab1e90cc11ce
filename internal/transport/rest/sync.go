package rest

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) previewSync(w http.ResponseWriter, r *http.Request) {
	rep, err := h.sync.Preview(r.Context())
	if err != nil {
		log.Printf("[HTTP] previewSync error: %v", err)
		ErrorInternal(w, "no se pudo previsualizar la sincronización")
		return
	}

	Success(w, rep.Message, rep)
}

func (h *Handler) commitSync(w http.ResponseWriter, r *http.Request) {
	rep, err := h.sync.Commit(r.Context())
	if err != nil {
		if strings.Contains(err.Error(), "en curso") {
			ErrorConflict(w, err.Error())
			return
		}
		log.Printf("[HTTP] commitSync error: %v", err)
		ErrorInternal(w, "no se pudo completar la sincronización")
		return
	}

	Success(w, rep.Message, rep)
}

func (h *Handler) getSyncRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	if runID == "" {
		ErrorBadRequest(w, "run_id es requerido")
		return
	}
	if !strings.HasPrefix(runID, "sync_runs:") {
		runID = "sync_runs:" + runID
	}

	status, err := h.sync.GetRun(r.Context(), runID)
	if err != nil {
		ErrorNotFound(w, "ejecución no encontrada")
		return
	}

	Success(w, "Ejecución obtenida", status)
}

func (h *Handler) updateRegistry(w http.ResponseWriter, r *http.Request) {
	summary, err := h.registry.Update(r.Context())
	if err != nil {
		log.Printf("[HTTP] updateRegistry error: %v", err)
		ErrorInternal(w, "no se pudo actualizar el padrón")
		return
	}

	Success(w, summary.Message, summary)
}
