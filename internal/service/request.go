package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pagos-sync/internal/domain"
	"pagos-sync/internal/repository"
)

// Declared names of the dynamic form fields the engine depends on. Values are
// located by the field id these names resolve to, never by position.
const (
	fieldCadastralAccount = "Clave Catastral"
	fieldYearFrom         = "Año Inicial"
	fieldYearTo           = "Año Final"
)

const payerTypeOrganization = 2

type PointOfSaleSource interface {
	RequestIDsWithFormAnswers(ctx context.Context, formID int64) ([]int64, error)
	ListRequests(ctx context.Context, ids []int64, f repository.RequestsFilter) ([]domain.Solicitud, error)
	ListFeeLines(ctx context.Context, requestIDs []int64) ([]domain.FeeLine, error)
	ListFees(ctx context.Context, ids []int64) ([]domain.Fee, error)
	ListFormAnswers(ctx context.Context, requestIDs []int64) ([]domain.FormAnswer, error)
	ListFormFields(ctx context.Context) ([]domain.FormField, error)
	ListFormFieldsByForm(ctx context.Context, formID int64) ([]domain.FormField, error)
	ListPayers(ctx context.Context, ids []int64) ([]domain.Payer, error)
}

// RequestService assembles normalized payment-request records by joining
// request headers, fee line items and dynamic form answers in memory. Every
// read is a bulk query; joins happen over hash maps built once per call.
type RequestService struct {
	pos    PointOfSaleSource
	formID int64
}

func NewRequestService(pos PointOfSaleSource, cadastralFormID int64) *RequestService {
	return &RequestService{pos: pos, formID: cadastralFormID}
}

// List builds one record per (request, fee line) pair for every finalized
// request that answered the cadastral-account form, optionally restricted to
// an inclusive payment-date range. Records with an empty raw account are
// dropped; the rest are ordered by raw account. Any read failure aborts the
// whole assembly.
func (s *RequestService) List(ctx context.Context, f repository.RequestsFilter) ([]domain.PaymentRequest, error) {
	ids, err := s.pos.RequestIDsWithFormAnswers(ctx, s.formID)
	if err != nil {
		return nil, fmt.Errorf("load cadastral form answers: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	requests, err := s.pos.ListRequests(ctx, ids, f)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	if len(requests) == 0 {
		return nil, nil
	}

	requestIDs := make([]int64, 0, len(requests))
	for _, req := range requests {
		requestIDs = append(requestIDs, req.ID)
	}

	lines, err := s.pos.ListFeeLines(ctx, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("load fee lines: %w", err)
	}

	feeNames, err := s.loadFeeNames(ctx, lines)
	if err != nil {
		return nil, err
	}

	answers, err := s.pos.ListFormAnswers(ctx, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("load form answers: %w", err)
	}

	fields, err := s.pos.ListFormFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("load form fields: %w", err)
	}

	payers, err := s.loadPayers(ctx, requests)
	if err != nil {
		return nil, err
	}

	fieldIDs := fieldIDsByName(fields)
	answersByRequest := groupAnswers(answers)
	linesByRequest := make(map[int64][]domain.FeeLine, len(requests))
	for _, l := range lines {
		linesByRequest[l.RequestID] = append(linesByRequest[l.RequestID], l)
	}

	var out []domain.PaymentRequest
	for _, req := range requests {
		reqAnswers := answersByRequest[req.ID]
		account := answerValue(reqAnswers, fieldIDs[fieldCadastralAccount])
		if account == "" {
			continue
		}
		yearFrom := answerValue(reqAnswers, fieldIDs[fieldYearFrom])
		yearTo := answerValue(reqAnswers, fieldIDs[fieldYearTo])
		payerName := payerDisplayName(payers, req)

		for _, l := range linesByRequest[req.ID] {
			out = append(out, domain.PaymentRequest{
				ConceptID:   l.FeeID,
				ConceptName: feeNames[l.FeeID],
				Folio:       req.Folio,
				PaymentDate: req.PaymentDate,
				Account:     account,
				YearFrom:    yearFrom,
				YearTo:      yearTo,
				PayerName:   payerName,
				Amount:      l.Amount,
				Discount:    l.Discount,
				Total:       l.Amount.Sub(l.Discount),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Account < out[j].Account
	})
	return out, nil
}

// FormFields lists the declared fields of one form (typed metadata catalog).
func (s *RequestService) FormFields(ctx context.Context, formID int64) ([]domain.FormField, error) {
	return s.pos.ListFormFieldsByForm(ctx, formID)
}

func (s *RequestService) loadFeeNames(ctx context.Context, lines []domain.FeeLine) (map[int64]string, error) {
	seen := make(map[int64]struct{}, len(lines))
	var feeIDs []int64
	for _, l := range lines {
		if _, ok := seen[l.FeeID]; ok {
			continue
		}
		seen[l.FeeID] = struct{}{}
		feeIDs = append(feeIDs, l.FeeID)
	}
	if len(feeIDs) == 0 {
		return map[int64]string{}, nil
	}

	fees, err := s.pos.ListFees(ctx, feeIDs)
	if err != nil {
		return nil, fmt.Errorf("load fees: %w", err)
	}
	names := make(map[int64]string, len(fees))
	for _, f := range fees {
		names[f.ID] = f.Name
	}
	return names, nil
}

func (s *RequestService) loadPayers(ctx context.Context, requests []domain.Solicitud) (map[int64]domain.Payer, error) {
	seen := make(map[int64]struct{})
	var payerIDs []int64
	collect := func(id *int64) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		payerIDs = append(payerIDs, *id)
	}
	for _, req := range requests {
		collect(req.ClientID)
		collect(req.PayingClientID)
	}
	if len(payerIDs) == 0 {
		return map[int64]domain.Payer{}, nil
	}

	payers, err := s.pos.ListPayers(ctx, payerIDs)
	if err != nil {
		return nil, fmt.Errorf("load payers: %w", err)
	}
	out := make(map[int64]domain.Payer, len(payers))
	for _, p := range payers {
		out[p.ID] = p
	}
	return out, nil
}

// fieldIDsByName builds the declared-name lookup; the earliest declaration of
// a name wins, matching how the forms were authored.
func fieldIDsByName(fields []domain.FormField) map[string]int64 {
	out := make(map[string]int64, len(fields))
	for _, f := range fields {
		if _, ok := out[f.Name]; !ok {
			out[f.Name] = f.ID
		}
	}
	return out
}

func groupAnswers(answers []domain.FormAnswer) map[int64][]domain.FormAnswer {
	out := make(map[int64][]domain.FormAnswer)
	for _, a := range answers {
		if a.RequestID == nil {
			continue
		}
		out[*a.RequestID] = append(out[*a.RequestID], a)
	}
	return out
}

func answerValue(answers []domain.FormAnswer, fieldID int64) string {
	if fieldID == 0 {
		return ""
	}
	for _, a := range answers {
		if a.FieldID == fieldID {
			return a.Value
		}
	}
	return ""
}

// payerDisplayName prefers the explicit paying client over the request's
// default client. Individuals are rendered surname, second surname, given
// name; organizations use the legal name verbatim.
func payerDisplayName(payers map[int64]domain.Payer, req domain.Solicitud) string {
	id := req.ClientID
	if req.PayingClientID != nil {
		id = req.PayingClientID
	}
	if id == nil {
		return ""
	}
	p, ok := payers[*id]
	if !ok {
		return ""
	}

	if p.PersonType == payerTypeOrganization {
		return p.LegalName
	}

	var parts []string
	for _, part := range []string{p.LastName, p.SecondLastName, p.FirstName} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}
