package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pagos-sync/internal/domain"
)

// finalized requests are the only ones eligible for reconciliation
const solicitudStatusFinalized = 2

type RequestsFilter struct {
	PaymentDateFrom *time.Time
	PaymentDateTo   *time.Time
}

// PointOfSaleRepository reads the punto de venta source: request headers,
// fee line items, fee definitions, dynamic form metadata/answers and payers.
type PointOfSaleRepository struct {
	db *sql.DB
}

func NewPointOfSaleRepository(db *sql.DB) *PointOfSaleRepository {
	return &PointOfSaleRepository{db: db}
}

// RequestIDsWithFormAnswers returns the distinct ids of requests that have at
// least one captured answer for the given form.
func (r *PointOfSaleRepository) RequestIDsWithFormAnswers(ctx context.Context, formID int64) ([]int64, error) {
	query := `SELECT DISTINCT solicitud FROM respuesta_campo_formulario WHERE formulario = $1 AND solicitud IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query, formID)
	if err != nil {
		return nil, fmt.Errorf("query request ids for form %d: %w", formID, err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PointOfSaleRepository) ListRequests(ctx context.Context, ids []int64, f RequestsFilter) ([]domain.Solicitud, error) {
	base := `SELECT s.id, s.folio_recaudacion, s.fecha_pago, s.estatus, s.cliente, s.cliente_pagador FROM solicitud s`

	where := []string{"s.id = ANY($1)", "s.estatus = $2"}
	args := []any{ids, solicitudStatusFinalized}
	i := 3

	if f.PaymentDateFrom != nil {
		where = append(where, fmt.Sprintf("s.fecha_pago >= $%d", i))
		args = append(args, *f.PaymentDateFrom)
		i++
	}
	if f.PaymentDateTo != nil {
		where = append(where, fmt.Sprintf("s.fecha_pago <= $%d", i))
		args = append(args, *f.PaymentDateTo)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ")

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []domain.Solicitud
	for rows.Next() {
		var s domain.Solicitud
		var folio sql.NullString
		var paymentDate sql.NullTime
		var clientID, payingClientID sql.NullInt64
		if err := rows.Scan(&s.ID, &folio, &paymentDate, &s.Status, &clientID, &payingClientID); err != nil {
			return nil, err
		}
		s.Folio = folio.String
		if paymentDate.Valid {
			t := paymentDate.Time
			s.PaymentDate = &t
		}
		if clientID.Valid {
			v := clientID.Int64
			s.ClientID = &v
		}
		if payingClientID.Valid {
			v := payingClientID.Int64
			s.PayingClientID = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PointOfSaleRepository) ListFeeLines(ctx context.Context, requestIDs []int64) ([]domain.FeeLine, error) {
	query := `SELECT cs.id, cs.solicitud, cs.concepto, cs.monto, cs.descuento FROM concepto_solicitud cs WHERE cs.solicitud = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("query fee lines: %w", err)
	}
	defer rows.Close()

	var out []domain.FeeLine
	for rows.Next() {
		var l domain.FeeLine
		if err := rows.Scan(&l.ID, &l.RequestID, &l.FeeID, &l.Amount, &l.Discount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PointOfSaleRepository) ListFees(ctx context.Context, ids []int64) ([]domain.Fee, error) {
	query := `SELECT c.id, c.nombre FROM concepto c WHERE c.id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query fees: %w", err)
	}
	defer rows.Close()

	var out []domain.Fee
	for rows.Next() {
		var f domain.Fee
		var name sql.NullString
		if err := rows.Scan(&f.ID, &name); err != nil {
			return nil, err
		}
		f.Name = name.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListFormAnswers loads every answer row of the given requests across all
// forms; period years live on forms other than the cadastral-account one.
func (r *PointOfSaleRepository) ListFormAnswers(ctx context.Context, requestIDs []int64) ([]domain.FormAnswer, error) {
	query := `SELECT rcf.solicitud, rcf.formulario, rcf.campo_formulario, rcf.valor FROM respuesta_campo_formulario rcf WHERE rcf.solicitud = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("query form answers: %w", err)
	}
	defer rows.Close()

	var out []domain.FormAnswer
	for rows.Next() {
		var a domain.FormAnswer
		var requestID sql.NullInt64
		var value sql.NullString
		if err := rows.Scan(&requestID, &a.FormID, &a.FieldID, &value); err != nil {
			return nil, err
		}
		if requestID.Valid {
			v := requestID.Int64
			a.RequestID = &v
		}
		a.Value = value.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PointOfSaleRepository) ListFormFields(ctx context.Context) ([]domain.FormField, error) {
	return r.listFormFields(ctx, `SELECT cf.id, cf.formulario, cf.campo, cf.descripcion FROM campo_formulario cf`)
}

func (r *PointOfSaleRepository) ListFormFieldsByForm(ctx context.Context, formID int64) ([]domain.FormField, error) {
	return r.listFormFields(ctx, `SELECT cf.id, cf.formulario, cf.campo, cf.descripcion FROM campo_formulario cf WHERE cf.formulario = $1`, formID)
}

func (r *PointOfSaleRepository) listFormFields(ctx context.Context, query string, args ...any) ([]domain.FormField, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query form fields: %w", err)
	}
	defer rows.Close()

	var out []domain.FormField
	for rows.Next() {
		var f domain.FormField
		var description sql.NullString
		if err := rows.Scan(&f.ID, &f.FormID, &f.Name, &description); err != nil {
			return nil, err
		}
		f.Description = description.String
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PointOfSaleRepository) ListPayers(ctx context.Context, ids []int64) ([]domain.Payer, error) {
	query := `SELECT c.id, c.tipo_persona, c.nombre, c.apellido_paterno, c.apellido_materno, c.razon_social FROM cliente c WHERE c.id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query payers: %w", err)
	}
	defer rows.Close()

	var out []domain.Payer
	for rows.Next() {
		var p domain.Payer
		var firstName, lastName, secondLastName, legalName sql.NullString
		if err := rows.Scan(&p.ID, &p.PersonType, &firstName, &lastName, &secondLastName, &legalName); err != nil {
			return nil, err
		}
		p.FirstName = firstName.String
		p.LastName = lastName.String
		p.SecondLastName = secondLastName.String
		p.LegalName = legalName.String
		out = append(out, p)
	}
	return out, rows.Err()
}
