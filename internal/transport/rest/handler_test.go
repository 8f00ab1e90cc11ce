package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pagos-sync/internal/domain"
	"pagos-sync/internal/repository"
	"pagos-sync/internal/service"
)

type fakeRequests struct {
	records    []domain.PaymentRequest
	lastFilter repository.RequestsFilter
}

func (f *fakeRequests) List(ctx context.Context, filter repository.RequestsFilter) ([]domain.PaymentRequest, error) {
	f.lastFilter = filter
	return f.records, nil
}

func (f *fakeRequests) FormFields(ctx context.Context, formID int64) ([]domain.FormField, error) {
	return []domain.FormField{{ID: 100, FormID: formID, Name: "Clave Catastral"}}, nil
}

type fakeSync struct {
	report    *domain.SyncReport
	commitErr error
	runs      map[string]*service.SyncRunStatus
}

func (f *fakeSync) Preview(ctx context.Context) (*domain.SyncReport, error) {
	return f.report, nil
}

func (f *fakeSync) Commit(ctx context.Context) (*domain.SyncReport, error) {
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	return f.report, nil
}

func (f *fakeSync) GetRun(ctx context.Context, runID string) (*service.SyncRunStatus, error) {
	if status, ok := f.runs[runID]; ok {
		return status, nil
	}
	return nil, errors.New("run not found")
}

type fakeRegistry struct{}

func (f *fakeRegistry) Update(ctx context.Context) (*domain.RegistryUpdateSummary, error) {
	return &domain.RegistryUpdateSummary{Message: "Actualización de padrón completada", PadronsUpdated: 2}, nil
}

type fakeReports struct{}

func (f *fakeReports) Generate(ctx context.Context, _ repository.RequestsFilter) (string, error) {
	return "/files/abc_reporte_pagos.xlsx", nil
}

func newTestServer(sync *fakeSync, requests *fakeRequests) *httptest.Server {
	h := NewHandler(requests, sync, &fakeRegistry{}, &fakeReports{})
	return httptest.NewServer(h.InitRouter())
}

func decodeResponse(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var body APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestListRequestsDateFilter(t *testing.T) {
	requests := &fakeRequests{}
	ts := newTestServer(&fakeSync{}, requests)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/solicitudes?fecha_inicial=2024-01-01&fecha_final=2024-03-31")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK || body.Status != "success" {
		t.Fatalf("status %d body %+v", resp.StatusCode, body)
	}
	if requests.lastFilter.PaymentDateFrom == nil || requests.lastFilter.PaymentDateTo == nil {
		t.Fatal("date filter was not forwarded")
	}
}

func TestListRequestsBadDate(t *testing.T) {
	ts := newTestServer(&fakeSync{}, &fakeRequests{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/solicitudes?fecha_inicial=01-01-2024")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusBadRequest || body.Status != "error" {
		t.Fatalf("expected 400 error, got %d %+v", resp.StatusCode, body)
	}
}

func TestListRequestsInvertedRange(t *testing.T) {
	ts := newTestServer(&fakeSync{}, &fakeRequests{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/solicitudes?fecha_inicial=2024-03-01&fecha_final=2024-01-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCommitSyncConflict(t *testing.T) {
	sync := &fakeSync{commitErr: errors.New("otra sincronización está en curso")}
	ts := newTestServer(sync, &fakeRequests{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sincronizacion/sincronizar", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	body := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if !strings.Contains(body.Message, "en curso") {
		t.Fatalf("message: %q", body.Message)
	}
}

func TestPreviewSync(t *testing.T) {
	sync := &fakeSync{report: &domain.SyncReport{
		Message:        "Previsualización de sincronización",
		Inserted:       3,
		TotalProcessed: 5,
	}}
	ts := newTestServer(sync, &fakeRequests{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sincronizacion/previsualizar")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	data, ok := body.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data type: %T", body.Data)
	}
	if data["registrosInsertados"] != float64(3) || data["totalProcesados"] != float64(5) {
		t.Fatalf("report fields: %+v", data)
	}
}

func TestGetSyncRun(t *testing.T) {
	sync := &fakeSync{runs: map[string]*service.SyncRunStatus{
		"sync_runs:abc": {Key: "sync_runs:abc"},
	}}
	ts := newTestServer(sync, &fakeRequests{})
	defer ts.Close()

	// bare id is accepted and prefixed
	resp, err := http.Get(ts.URL + "/sincronizacion/runs/abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/sincronizacion/runs/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateRegistry(t *testing.T) {
	ts := newTestServer(&fakeSync{}, &fakeRequests{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/padron/actualizar", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	body := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	data, ok := body.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data type: %T", body.Data)
	}
	if data["padronesActualizados"] != float64(2) {
		t.Fatalf("summary fields: %+v", data)
	}
}

func TestListFormFields(t *testing.T) {
	ts := newTestServer(&fakeSync{}, &fakeRequests{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/solicitudes/campos/1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/solicitudes/campos/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
