package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pagos-sync/internal/domain"
)

// LedgerRepository reads and writes the target revenue ledger (sis_pagos).
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ExistingPaymentKeys returns the (folio, counterpart) pairs already present
// in the ledger for the given folios, keyed with domain.PaymentKey.
func (r *LedgerRepository) ExistingPaymentKeys(ctx context.Context, folios []string) (map[string]struct{}, error) {
	query := `SELECT p.folio_pago, p.interlocutor FROM sis_pagos p WHERE p.folio_pago = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, folios)
	if err != nil {
		return nil, fmt.Errorf("query existing payments: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var folio, counterpart sql.NullString
		if err := rows.Scan(&folio, &counterpart); err != nil {
			return nil, err
		}
		out[domain.PaymentKey(folio.String, counterpart.String)] = struct{}{}
	}
	return out, rows.Err()
}

// InsertPayments persists the staged payments as one transaction; nothing is
// written if any insert fails.
func (r *LedgerRepository) InsertPayments(ctx context.Context, payments []domain.LedgerPayment) error {
	if len(payments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payments insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sis_pagos (
			descripcion, anio, division, fecha_creacion, fecha_vencimiento,
			cantidad, estatus, folio_pago, fecha_pago, origen_pago,
			folio_cancelacion, fecha_cancelacion, clave_pago,
			referencia, interlocutor, concepto
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL, NULL, NULL, $11, $12, $13)`)
	if err != nil {
		return fmt.Errorf("prepare payments insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range payments {
		if _, err := stmt.ExecContext(ctx,
			p.Description,
			p.Year,
			p.Division,
			p.CreatedDate,
			p.DueDate,
			p.Amount,
			p.Status,
			p.PaymentFolio,
			p.PaymentDate,
			p.PaymentOrigin,
			p.Reference,
			p.Counterpart,
			p.Concept,
		); err != nil {
			return fmt.Errorf("insert payment folio %s: %w", p.PaymentFolio, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payments insert: %w", err)
	}
	return nil
}
