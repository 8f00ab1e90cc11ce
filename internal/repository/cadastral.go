package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pagos-sync/internal/domain"
)

// CadastralRepository reads and updates the catastro source: fiscal account
// keys, padron records and their debts.
type CadastralRepository struct {
	db *sql.DB
}

func NewCadastralRepository(db *sql.DB) *CadastralRepository {
	return &CadastralRepository{db: db}
}

// FilterFiscalAccounts returns the subset of the given canonical accounts that
// exist as fiscal-type cadastral keys, as a membership set.
func (r *CadastralRepository) FilterFiscalAccounts(ctx context.Context, accounts []string) (map[string]struct{}, error) {
	query := `SELECT ccp.clave_catastral FROM clave_catastral_padron ccp WHERE ccp.clave_catastral = ANY($1) AND ccp.tipo_clave = $2`

	rows, err := r.db.QueryContext(ctx, query, accounts, domain.FiscalKeyType)
	if err != nil {
		return nil, fmt.Errorf("query fiscal accounts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{}, len(accounts))
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, err
		}
		out[account] = struct{}{}
	}
	return out, rows.Err()
}

// FindPadronsByAccounts resolves canonical accounts to padron records through
// fiscal-type keys. Accounts with no match are simply absent from the map.
func (r *CadastralRepository) FindPadronsByAccounts(ctx context.Context, accounts []string) (map[string]domain.Padron, error) {
	query := `
		SELECT ccp.clave_catastral, p.id, p.pago
		FROM clave_catastral_padron ccp
		JOIN padron p ON p.id = ccp.padron
		WHERE ccp.clave_catastral = ANY($1) AND ccp.tipo_clave = $2`

	rows, err := r.db.QueryContext(ctx, query, accounts, domain.FiscalKeyType)
	if err != nil {
		return nil, fmt.Errorf("query padrons: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Padron, len(accounts))
	for rows.Next() {
		var p domain.Padron
		var lastYearPaid sql.NullInt64
		if err := rows.Scan(&p.Account, &p.ID, &lastYearPaid); err != nil {
			return nil, err
		}
		if lastYearPaid.Valid {
			y := int(lastYearPaid.Int64)
			p.LastYearPaid = &y
		}
		out[p.Account] = p
	}
	return out, rows.Err()
}

func (r *CadastralRepository) ListDebtsByPadrons(ctx context.Context, padronIDs []int64) ([]domain.Debt, error) {
	query := `SELECT a.id, a.padron, a.fecha_inicio, a.estatus FROM adeudo a WHERE a.padron = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, padronIDs)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	var out []domain.Debt
	for rows.Next() {
		var d domain.Debt
		var startDate sql.NullTime
		if err := rows.Scan(&d.ID, &d.PadronID, &startDate, &d.Status); err != nil {
			return nil, err
		}
		if startDate.Valid {
			t := startDate.Time
			d.StartDate = &t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RegistryUpdates carries the mutations of one registry update run: new
// last-year-paid watermarks per padron id and the debts to mark settled.
type RegistryUpdates struct {
	PadronYears    map[int64]int
	SettledDebtIDs []int64
}

// ApplyRegistryUpdates persists all mutations of a run in one transaction.
func (r *CadastralRepository) ApplyRegistryUpdates(ctx context.Context, u RegistryUpdates) error {
	if len(u.PadronYears) == 0 && len(u.SettledDebtIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry update: %w", err)
	}
	defer tx.Rollback()

	for id, year := range u.PadronYears {
		if _, err := tx.ExecContext(ctx, `UPDATE padron SET pago = $1 WHERE id = $2`, year, id); err != nil {
			return fmt.Errorf("update padron %d: %w", id, err)
		}
	}

	if len(u.SettledDebtIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE adeudo SET estatus = $1 WHERE id = ANY($2)`, domain.DebtStatusSettled, u.SettledDebtIDs); err != nil {
			return fmt.Errorf("settle debts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry update: %w", err)
	}
	return nil
}
