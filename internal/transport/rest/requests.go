package rest

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	filter, err := ValidateRequestsFilter(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	records, err := h.requests.List(r.Context(), filter)
	if err != nil {
		log.Printf("[HTTP] listRequests error: %v", err)
		ErrorInternal(w, "no se pudieron obtener las solicitudes")
		return
	}

	Success(w, "Solicitudes obtenidas", records)
}

func (h *Handler) listFormFields(w http.ResponseWriter, r *http.Request) {
	formID, err := strconv.ParseInt(chi.URLParam(r, "formulario_id"), 10, 64)
	if err != nil {
		ErrorBadRequest(w, "formulario_id debe ser un entero")
		return
	}

	fields, err := h.requests.FormFields(r.Context(), formID)
	if err != nil {
		log.Printf("[HTTP] listFormFields error: %v", err)
		ErrorInternal(w, "no se pudieron obtener los campos del formulario")
		return
	}

	Success(w, "Campos obtenidos", fields)
}

func (h *Handler) generateReport(w http.ResponseWriter, r *http.Request) {
	filter, err := ValidateRequestsFilter(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	url, err := h.reports.Generate(r.Context(), filter)
	if err != nil {
		log.Printf("[HTTP] generateReport error: %v", err)
		ErrorInternal(w, "no se pudo generar el reporte")
		return
	}

	Success(w, "Reporte generado", map[string]interface{}{"url": url})
}
