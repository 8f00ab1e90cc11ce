package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"pagos-sync/internal/clients"
	"pagos-sync/internal/domain"
	"pagos-sync/internal/repository"

	"github.com/google/uuid"
)

// CadastralPolicy controls what happens when the cadastral source is
// unreachable during the account existence check. Permissive (the default)
// degrades to treating every account as present so an unrelated catastro
// outage does not block synchronization; strict aborts the run.
type CadastralPolicy string

const (
	CadastralPolicyPermissive CadastralPolicy = "permissive"
	CadastralPolicyStrict     CadastralPolicy = "strict"
)

const (
	previewLimit    = 10
	detailLimit     = 10
	syncRunSetKey   = "sync_run_ids"
	syncRunTTL      = 20 * time.Minute
	commitLockTTL   = 10 * time.Minute
	ledgerReference = "{03}{%s}"

	reasonNoPeriod = "Sin fechas válidas (Año Inicial o Final vacíos)"
)

type RequestLister interface {
	List(ctx context.Context, f repository.RequestsFilter) ([]domain.PaymentRequest, error)
}

type CadastralAccounts interface {
	FilterFiscalAccounts(ctx context.Context, accounts []string) (map[string]struct{}, error)
}

type LedgerSource interface {
	ExistingPaymentKeys(ctx context.Context, folios []string) (map[string]struct{}, error)
	InsertPayments(ctx context.Context, payments []domain.LedgerPayment) error
}

// SyncRunStatus is the persisted record of one commit run, cached in redis
// under a generated run id.
type SyncRunStatus struct {
	Key     string             `json:"key"`
	Report  *domain.SyncReport `json:"reporte"`
	FileURL *string            `json:"file_url"`
	Created time.Time          `json:"created_at"`
}

// SyncService classifies assembled payment-request records against the
// cadastral registry and the target ledger, and inserts the new ones.
type SyncService struct {
	requests  RequestLister
	cadastral CadastralAccounts
	ledger    LedgerSource
	redis     *clients.RedisClient
	storage   *clients.StorageClient
	s3        *clients.S3Client
	policy    CadastralPolicy
	lockKey   string
}

func NewSyncService(
	requests RequestLister,
	cadastral CadastralAccounts,
	ledger LedgerSource,
	redis *clients.RedisClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	policy CadastralPolicy,
	lockKey string,
) *SyncService {
	if policy == "" {
		policy = CadastralPolicyPermissive
	}
	if lockKey == "" {
		lockKey = "sync_commit_lock"
	}
	return &SyncService{
		requests:  requests,
		cadastral: cadastral,
		ledger:    ledger,
		redis:     redis,
		storage:   storage,
		s3:        s3,
		policy:    policy,
		lockKey:   lockKey,
	}
}

type classification struct {
	total     int
	pending   []domain.LedgerPayment
	inserted  []domain.SyncDetail
	existing  []domain.SyncDetail
	unmatched []domain.SyncDetail
	noPeriod  []domain.SyncDetail
}

// Preview runs the full classification without touching the ledger and
// returns the report with up to the first 10 staged payments for review.
func (s *SyncService) Preview(ctx context.Context) (*domain.SyncReport, error) {
	c, err := s.classify(ctx)
	if err != nil {
		return nil, err
	}

	rep := buildReport(c, "Previsualización de sincronización")
	if len(c.pending) > previewLimit {
		rep.Pending = c.pending[:previewLimit]
		rep.Note = fmt.Sprintf("Mostrando %d de %d registros", previewLimit, len(c.pending))
	} else {
		rep.Pending = c.pending
	}
	return rep, nil
}

// Commit runs the classification and persists every staged payment as one
// atomic batch. A redis single-flight lock keyed by the target ledger rejects
// concurrent commits; the run outcome is cached under a generated run id and
// the audit narrative is stored as a downloadable artifact.
func (s *SyncService) Commit(ctx context.Context) (*domain.SyncReport, error) {
	runID := fmt.Sprintf("sync_runs:%s", uuid.NewString())

	if s.redis != nil {
		ok, err := s.redis.SetNX(ctx, s.lockKey, runID, commitLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire commit lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("otra sincronización está en curso")
		}
		defer func() {
			if err := s.redis.Del(context.Background(), s.lockKey); err != nil {
				log.Printf("[sync] release commit lock: %v", err)
			}
		}()
	}

	c, err := s.classify(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.InsertPayments(ctx, c.pending); err != nil {
		return nil, fmt.Errorf("insert ledger payments: %w", err)
	}

	rep := buildReport(c, "Sincronización completada")
	s.finishRun(ctx, runID, rep)
	return rep, nil
}

// GetRun returns the cached status of a previous commit run.
func (s *SyncService) GetRun(ctx context.Context, runID string) (*SyncRunStatus, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("redis client not configured")
	}

	data, err := s.redis.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("run not found")
	}

	var status SyncRunStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("parse run status: %w", err)
	}
	return &status, nil
}

func (s *SyncService) classify(ctx context.Context) (*classification, error) {
	records, err := s.requests.List(ctx, repository.RequestsFilter{})
	if err != nil {
		return nil, err
	}

	c := &classification{total: len(records)}
	if len(records) == 0 {
		return c, nil
	}

	normalized := make([]string, len(records))
	for i, rec := range records {
		normalized[i] = NormalizeAccount(rec.Account)
	}

	matched, err := s.loadFiscalAccounts(ctx, normalized)
	if err != nil {
		return nil, err
	}

	existingKeys, err := s.ledger.ExistingPaymentKeys(ctx, distinctFolios(records))
	if err != nil {
		return nil, fmt.Errorf("load existing ledger payments: %w", err)
	}

	for i, rec := range records {
		account := normalized[i]

		per, ok := resolvePeriod(rec.YearFrom, rec.YearTo)
		if !ok {
			c.noPeriod = append(c.noPeriod, domain.SyncDetail{
				Folio:   rec.Folio,
				Account: rec.Account,
				Concept: rec.ConceptName,
				Amount:  rec.Total,
				Reason:  reasonNoPeriod,
			})
			continue
		}

		if _, ok := matched[account]; !ok {
			c.unmatched = append(c.unmatched, domain.SyncDetail{
				Folio:             rec.Folio,
				Account:           rec.Account,
				NormalizedAccount: account,
				Concept:           rec.ConceptName,
				Amount:            rec.Total,
			})
			continue
		}

		key := domain.PaymentKey(rec.Folio, account)
		if _, ok := existingKeys[key]; ok {
			c.existing = append(c.existing, domain.SyncDetail{
				Folio:   rec.Folio,
				Account: rec.Account,
			})
			continue
		}
		// staged payments join the set so one batch can never stage the
		// same (folio, counterpart) pair twice
		existingKeys[key] = struct{}{}

		c.pending = append(c.pending, buildLedgerPayment(rec, account, per))
		c.inserted = append(c.inserted, domain.SyncDetail{
			Folio:   rec.Folio,
			Account: rec.Account,
			Concept: rec.ConceptName,
			Amount:  rec.Total,
		})
	}

	return c, nil
}

// loadFiscalAccounts builds the membership set with one bulk query over the
// distinct normalized accounts in the batch.
func (s *SyncService) loadFiscalAccounts(ctx context.Context, normalized []string) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(normalized))
	var distinct []string
	for _, account := range normalized {
		if _, ok := seen[account]; ok {
			continue
		}
		seen[account] = struct{}{}
		distinct = append(distinct, account)
	}

	matched, err := s.cadastral.FilterFiscalAccounts(ctx, distinct)
	if err != nil {
		if s.policy == CadastralPolicyStrict {
			return nil, fmt.Errorf("load cadastral accounts: %w", err)
		}
		log.Printf("[sync] cadastral source unavailable, treating all %d accounts as present: %v", len(distinct), err)
		return seen, nil
	}
	return matched, nil
}

func distinctFolios(records []domain.PaymentRequest) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, rec := range records {
		if _, ok := seen[rec.Folio]; ok {
			continue
		}
		seen[rec.Folio] = struct{}{}
		out = append(out, rec.Folio)
	}
	return out
}

func buildLedgerPayment(rec domain.PaymentRequest, account string, per period) domain.LedgerPayment {
	return domain.LedgerPayment{
		Description:   rec.ConceptName,
		Year:          per.End,
		Division:      0,
		CreatedDate:   time.Date(per.Start, time.January, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(per.Start, time.December, 31, 0, 0, 0, 0, time.UTC),
		Amount:        rec.Total,
		Status:        domain.PaymentStatusExternal,
		PaymentFolio:  rec.Folio,
		PaymentDate:   rec.PaymentDate,
		PaymentOrigin: domain.PaymentOriginMigrated,
		Reference:     fmt.Sprintf(ledgerReference, account),
		Counterpart:   account,
		Concept:       0,
	}
}

func buildReport(c *classification, message string) *domain.SyncReport {
	return &domain.SyncReport{
		Message:          message,
		Inserted:         len(c.inserted),
		AlreadyExists:    len(c.existing),
		UnmatchedAccount: len(c.unmatched),
		NoPeriod:         len(c.noPeriod),
		TotalProcessed:   c.total,
		Detail:           buildDetailText(c),
		InsertedDetail:   capDetails(c.inserted),
		ExistingDetail:   capDetails(c.existing),
		UnmatchedDetail:  capDetails(c.unmatched),
		NoPeriodDetail:   capDetails(c.noPeriod),
	}
}

func capDetails(details []domain.SyncDetail) []domain.SyncDetail {
	if len(details) > detailLimit {
		return details[:detailLimit]
	}
	return details
}

// buildDetailText renders the plain-text audit narrative: a summary block
// followed by one section per category with per-record lines.
func buildDetailText(c *classification) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 80)
	line := "  " + strings.Repeat("-", 76)

	sb.WriteString(rule + "\n")
	sb.WriteString("REPORTE DE SINCRONIZACIÓN DE PAGOS\n")
	sb.WriteString(fmt.Sprintf("Fecha: %s\n", time.Now().Format("02/01/2006 15:04:05")))
	sb.WriteString(rule + "\n\n")

	sb.WriteString("RESUMEN:\n")
	sb.WriteString(fmt.Sprintf("  - Registros insertados: %d\n", len(c.inserted)))
	sb.WriteString(fmt.Sprintf("  - Registros ya existentes: %d\n", len(c.existing)))
	sb.WriteString(fmt.Sprintf("  - Registros sin cuenta predial en catastro: %d\n", len(c.unmatched)))
	sb.WriteString(fmt.Sprintf("  - Registros sin fechas válidas: %d\n", len(c.noPeriod)))
	sb.WriteString(fmt.Sprintf("  - Total procesados: %d\n\n", c.total))

	section := func(title string, details []domain.SyncDetail) {
		if len(details) == 0 {
			return
		}
		sb.WriteString(rule + "\n")
		sb.WriteString(title + "\n")
		sb.WriteString(rule + "\n\n")
		for _, d := range details {
			sb.WriteString(fmt.Sprintf("  Folio: %s\n", d.Folio))
			sb.WriteString(fmt.Sprintf("  Cuenta: %s\n", d.Account))
			if d.NormalizedAccount != "" {
				sb.WriteString(fmt.Sprintf("  Cuenta Normalizada: %s\n", d.NormalizedAccount))
			}
			if d.Concept != "" {
				sb.WriteString(fmt.Sprintf("  Concepto: %s\n", d.Concept))
			}
			sb.WriteString(fmt.Sprintf("  Monto: $%s\n", d.Amount.StringFixed(2)))
			if d.Reason != "" {
				sb.WriteString(fmt.Sprintf("  Razón: %s\n", d.Reason))
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	section("1. REGISTROS INSERTADOS", c.inserted)
	section("2. REGISTROS YA EXISTENTES (OMITIDOS)", c.existing)
	section("3. REGISTROS SIN CUENTA PREDIAL EN CATASTRO", c.unmatched)
	section("4. REGISTROS SIN FECHAS VÁLIDAS", c.noPeriod)

	sb.WriteString(rule + "\n")
	sb.WriteString("FIN DEL REPORTE\n")
	sb.WriteString(rule + "\n")

	return sb.String()
}

// finishRun stores the audit artifact and the run status. Both are
// best-effort: the ledger write already succeeded, so failures here are
// logged but do not fail the run.
func (s *SyncService) finishRun(ctx context.Context, runID string, rep *domain.SyncReport) {
	fileName := fmt.Sprintf("sincronizacion_%s.txt", time.Now().Format("20060102_150405"))
	rep.DetailURL = s.saveArtifact(ctx, fileName, []byte(rep.Detail), "text/plain; charset=utf-8")

	if s.redis == nil {
		return
	}
	status := SyncRunStatus{
		Key:     runID,
		Report:  rep,
		FileURL: rep.DetailURL,
		Created: time.Now(),
	}
	data, err := json.Marshal(status)
	if err != nil {
		log.Printf("[sync] marshal run status: %v", err)
		return
	}
	if err := s.redis.Set(ctx, runID, string(data), syncRunTTL); err != nil {
		log.Printf("[sync] save run status: %v", err)
		return
	}
	if err := s.redis.SAdd(ctx, syncRunSetKey, runID); err != nil {
		log.Printf("[sync] register run id: %v", err)
	}
}

func (s *SyncService) saveArtifact(ctx context.Context, fileName string, data []byte, contentType string) *string {
	if s.s3 != nil {
		key, err := s.s3.Upload(ctx, fileName, data, contentType)
		if err != nil {
			log.Printf("[sync] upload artifact %s: %v", fileName, err)
			return nil
		}
		return &key
	}
	if s.storage != nil {
		saved, err := s.storage.Save(ctx, fileName, data)
		if err != nil {
			log.Printf("[sync] save artifact %s: %v", fileName, err)
			return nil
		}
		url := s.storage.GetURL(saved)
		return &url
	}
	return nil
}
