package service

import (
	"context"
	"testing"
	"time"

	"pagos-sync/internal/domain"
	"pagos-sync/internal/repository"

	"github.com/shopspring/decimal"
)

type fakePOS struct {
	requests []domain.Solicitud
	lines    []domain.FeeLine
	fees     []domain.Fee
	answers  []domain.FormAnswer
	fields   []domain.FormField
	payers   []domain.Payer
}

func (f *fakePOS) RequestIDsWithFormAnswers(ctx context.Context, formID int64) ([]int64, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, a := range f.answers {
		if a.FormID != formID || a.RequestID == nil {
			continue
		}
		if _, ok := seen[*a.RequestID]; ok {
			continue
		}
		seen[*a.RequestID] = struct{}{}
		ids = append(ids, *a.RequestID)
	}
	return ids, nil
}

func (f *fakePOS) ListRequests(ctx context.Context, ids []int64, filter repository.RequestsFilter) ([]domain.Solicitud, error) {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []domain.Solicitud
	for _, r := range f.requests {
		if _, ok := want[r.ID]; !ok {
			continue
		}
		if filter.PaymentDateFrom != nil && (r.PaymentDate == nil || r.PaymentDate.Before(*filter.PaymentDateFrom)) {
			continue
		}
		if filter.PaymentDateTo != nil && (r.PaymentDate == nil || r.PaymentDate.After(*filter.PaymentDateTo)) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakePOS) ListFeeLines(ctx context.Context, requestIDs []int64) ([]domain.FeeLine, error) {
	want := make(map[int64]struct{}, len(requestIDs))
	for _, id := range requestIDs {
		want[id] = struct{}{}
	}
	var out []domain.FeeLine
	for _, l := range f.lines {
		if _, ok := want[l.RequestID]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakePOS) ListFees(ctx context.Context, ids []int64) ([]domain.Fee, error) {
	return f.fees, nil
}

func (f *fakePOS) ListFormAnswers(ctx context.Context, requestIDs []int64) ([]domain.FormAnswer, error) {
	return f.answers, nil
}

func (f *fakePOS) ListFormFields(ctx context.Context) ([]domain.FormField, error) {
	return f.fields, nil
}

func (f *fakePOS) ListFormFieldsByForm(ctx context.Context, formID int64) ([]domain.FormField, error) {
	var out []domain.FormField
	for _, fd := range f.fields {
		if fd.FormID == formID {
			out = append(out, fd)
		}
	}
	return out, nil
}

func (f *fakePOS) ListPayers(ctx context.Context, ids []int64) ([]domain.Payer, error) {
	return f.payers, nil
}

func i64(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// standardPOS is a small but complete dataset: two finalized requests with
// answered cadastral forms, one of them with two fee lines.
func standardPOS() *fakePOS {
	paid := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	return &fakePOS{
		requests: []domain.Solicitud{
			{ID: 1, Folio: "F100", PaymentDate: &paid, Status: 2, ClientID: i64(10)},
			{ID: 2, Folio: "F200", PaymentDate: &paid, Status: 2, ClientID: i64(10), PayingClientID: i64(20)},
		},
		lines: []domain.FeeLine{
			{ID: 1, RequestID: 1, FeeID: 7, Amount: dec("500.00"), Discount: dec("50.00")},
			{ID: 2, RequestID: 2, FeeID: 7, Amount: dec("300.00"), Discount: dec("0")},
			{ID: 3, RequestID: 2, FeeID: 8, Amount: dec("120.00"), Discount: dec("20.00")},
		},
		fees: []domain.Fee{
			{ID: 7, Name: "Impuesto Predial"},
			{ID: 8, Name: "Recargos"},
		},
		answers: []domain.FormAnswer{
			{RequestID: i64(1), FormID: 1, FieldID: 100, Value: "U-3452"},
			{RequestID: i64(1), FormID: 1, FieldID: 101, Value: "2020"},
			{RequestID: i64(1), FormID: 1, FieldID: 102, Value: "2022"},
			{RequestID: i64(2), FormID: 1, FieldID: 100, Value: "R-17"},
			{RequestID: i64(2), FormID: 1, FieldID: 102, Value: "2023"},
		},
		fields: []domain.FormField{
			{ID: 100, FormID: 1, Name: "Clave Catastral"},
			{ID: 101, FormID: 1, Name: "Año Inicial"},
			{ID: 102, FormID: 1, Name: "Año Final"},
		},
		payers: []domain.Payer{
			{ID: 10, PersonType: 1, FirstName: "Juan", LastName: "Pérez", SecondLastName: "López"},
			{ID: 20, PersonType: 2, LegalName: "Inmobiliaria del Valle SA de CV"},
		},
	}
}

func TestRequestServiceList(t *testing.T) {
	svc := NewRequestService(standardPOS(), 1)

	records, err := svc.List(context.Background(), repository.RequestsFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	// one record per (request, fee line): 1 from F100, 2 from F200
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	// ordered by raw account: R-17 before U-3452
	if records[0].Account != "R-17" || records[2].Account != "U-3452" {
		t.Fatalf("unexpected account order: %s .. %s", records[0].Account, records[2].Account)
	}

	var f100 domain.PaymentRequest
	for _, rec := range records {
		if rec.Folio == "F100" {
			f100 = rec
		}
	}
	if f100.ConceptName != "Impuesto Predial" {
		t.Errorf("concept name: got %q", f100.ConceptName)
	}
	if !f100.Total.Equal(dec("450.00")) {
		t.Errorf("total: got %s, want 450.00", f100.Total)
	}
	if f100.YearFrom != "2020" || f100.YearTo != "2022" {
		t.Errorf("period answers: got %q..%q", f100.YearFrom, f100.YearTo)
	}
	if f100.PayerName != "Pérez López Juan" {
		t.Errorf("payer name: got %q", f100.PayerName)
	}
}

func TestRequestServiceListPayingClientPreferred(t *testing.T) {
	svc := NewRequestService(standardPOS(), 1)

	records, err := svc.List(context.Background(), repository.RequestsFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	for _, rec := range records {
		if rec.Folio != "F200" {
			continue
		}
		if rec.PayerName != "Inmobiliaria del Valle SA de CV" {
			t.Fatalf("expected paying client's legal name, got %q", rec.PayerName)
		}
		if rec.YearFrom != "" || rec.YearTo != "2023" {
			t.Fatalf("expected missing start year, got %q..%q", rec.YearFrom, rec.YearTo)
		}
	}
}

func TestRequestServiceListDropsEmptyAccounts(t *testing.T) {
	pos := standardPOS()
	// blank out the account answer for request 1
	for i, a := range pos.answers {
		if a.RequestID != nil && *a.RequestID == 1 && a.FieldID == 100 {
			pos.answers[i].Value = ""
		}
	}

	svc := NewRequestService(pos, 1)
	records, err := svc.List(context.Background(), repository.RequestsFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	for _, rec := range records {
		if rec.Folio == "F100" {
			t.Fatalf("record with empty account was not dropped")
		}
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestRequestServiceListDateFilter(t *testing.T) {
	svc := NewRequestService(standardPOS(), 1)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	records, err := svc.List(context.Background(), repository.RequestsFilter{PaymentDateFrom: &from})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records after filter, got %d", len(records))
	}
}

func TestRequestServiceListNoAnsweredForms(t *testing.T) {
	svc := NewRequestService(&fakePOS{}, 1)

	records, err := svc.List(context.Background(), repository.RequestsFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result, got %d records", len(records))
	}
}

func TestFieldIDsByNameFirstDeclarationWins(t *testing.T) {
	fields := []domain.FormField{
		{ID: 1, Name: "Clave Catastral"},
		{ID: 2, Name: "Clave Catastral"},
	}
	ids := fieldIDsByName(fields)
	if ids["Clave Catastral"] != 1 {
		t.Fatalf("expected first declaration to win, got %d", ids["Clave Catastral"])
	}
}
