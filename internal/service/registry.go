package service

import (
	"context"
	"fmt"
	"strings"

	"pagos-sync/internal/domain"
	"pagos-sync/internal/repository"
)

// designated property-tax fee category, matched as a substring of fee names
const propertyTaxFee = "impuesto predial"

type CadastralRegistry interface {
	FindPadronsByAccounts(ctx context.Context, accounts []string) (map[string]domain.Padron, error)
	ListDebtsByPadrons(ctx context.Context, padronIDs []int64) ([]domain.Debt, error)
	ApplyRegistryUpdates(ctx context.Context, u repository.RegistryUpdates) error
}

// RegistryService propagates paid-period information from property-tax fee
// records into the cadastral registry: it raises the last-year-paid watermark
// and settles debts whose year falls inside the paid period.
type RegistryService struct {
	requests  RequestLister
	cadastral CadastralRegistry
}

func NewRegistryService(requests RequestLister, cadastral CadastralRegistry) *RegistryService {
	return &RegistryService{requests: requests, cadastral: cadastral}
}

// Update processes every assembled property-tax record and persists all
// mutations as one batch at the end; a persistence failure aborts the whole
// run with nothing written.
func (s *RegistryService) Update(ctx context.Context) (*domain.RegistryUpdateSummary, error) {
	records, err := s.requests.List(ctx, repository.RequestsFilter{})
	if err != nil {
		return nil, err
	}

	var taxRecords []domain.PaymentRequest
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.ConceptName), propertyTaxFee) {
			taxRecords = append(taxRecords, rec)
		}
	}

	summary := &domain.RegistryUpdateSummary{
		Message:        "Actualización de padrón completada",
		TotalProcessed: len(taxRecords),
	}
	if len(taxRecords) == 0 {
		return summary, nil
	}

	padrons, err := s.loadPadrons(ctx, taxRecords)
	if err != nil {
		return nil, err
	}

	debtsByPadron, err := s.loadDebts(ctx, padrons)
	if err != nil {
		return nil, err
	}

	pendingYears := make(map[int64]int)
	settled := make(map[int64]struct{})
	var settledIDs []int64

	for _, rec := range taxRecords {
		if strings.TrimSpace(rec.Account) == "" {
			summary.Omitted++
			continue
		}

		per, ok := resolveSettlementPeriod(rec.YearFrom, rec.YearTo)
		if !ok {
			summary.Omitted++
			continue
		}

		padron, found := padrons[NormalizeAccount(rec.Account)]
		if !found {
			summary.NotFound++
			continue
		}

		// the watermark only ever moves forward, also across records of the
		// same padron within this run
		current := padron.LastYearPaid
		if year, ok := pendingYears[padron.ID]; ok {
			current = &year
		}
		if current == nil || *current < per.End {
			pendingYears[padron.ID] = per.End
			summary.PadronsUpdated++
		}

		for _, debt := range debtsByPadron[padron.ID] {
			if debt.StartDate == nil || debt.Status == domain.DebtStatusSettled {
				continue
			}
			if _, done := settled[debt.ID]; done {
				continue
			}
			year := debt.StartDate.Year()
			if year >= per.Start && year <= per.End {
				settled[debt.ID] = struct{}{}
				settledIDs = append(settledIDs, debt.ID)
				summary.DebtsSettled++
			}
		}
	}

	updates := repository.RegistryUpdates{
		PadronYears:    pendingYears,
		SettledDebtIDs: settledIDs,
	}
	if err := s.cadastral.ApplyRegistryUpdates(ctx, updates); err != nil {
		return nil, fmt.Errorf("apply registry updates: %w", err)
	}

	return summary, nil
}

func (s *RegistryService) loadPadrons(ctx context.Context, records []domain.PaymentRequest) (map[string]domain.Padron, error) {
	seen := make(map[string]struct{}, len(records))
	var accounts []string
	for _, rec := range records {
		if strings.TrimSpace(rec.Account) == "" {
			continue
		}
		account := NormalizeAccount(rec.Account)
		if _, ok := seen[account]; ok {
			continue
		}
		seen[account] = struct{}{}
		accounts = append(accounts, account)
	}
	if len(accounts) == 0 {
		return map[string]domain.Padron{}, nil
	}

	padrons, err := s.cadastral.FindPadronsByAccounts(ctx, accounts)
	if err != nil {
		return nil, fmt.Errorf("load padrons: %w", err)
	}
	return padrons, nil
}

func (s *RegistryService) loadDebts(ctx context.Context, padrons map[string]domain.Padron) (map[int64][]domain.Debt, error) {
	if len(padrons) == 0 {
		return map[int64][]domain.Debt{}, nil
	}

	seen := make(map[int64]struct{}, len(padrons))
	var ids []int64
	for _, p := range padrons {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}

	debts, err := s.cadastral.ListDebtsByPadrons(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load debts: %w", err)
	}

	out := make(map[int64][]domain.Debt, len(ids))
	for _, d := range debts {
		out[d.PadronID] = append(out[d.PadronID], d)
	}
	return out, nil
}
