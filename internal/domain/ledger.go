package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status/origin sentinels used by the target revenue ledger
// (sis_pagos). "x" marks a payment recognized from an external source,
// "M" marks it as migrated by this engine.
const (
	PaymentStatusExternal = "x"
	PaymentOriginMigrated = "M"
)

// LedgerPayment is a row staged for insertion into the target revenue ledger.
// No two rows may share the same (PaymentFolio, Counterpart) pair.
type LedgerPayment struct {
	Description   string          `json:"descripcion"`
	Year          int             `json:"anio"`
	Division      int             `json:"division"`
	CreatedDate   time.Time       `json:"fechaCreacion"`
	DueDate       time.Time       `json:"fechaVencimiento"`
	Amount        decimal.Decimal `json:"cantidad"`
	Status        string          `json:"estatus"`
	PaymentFolio  string          `json:"folioPago"`
	PaymentDate   *time.Time      `json:"fechaPago"`
	PaymentOrigin string          `json:"origenPago"`
	Reference     string          `json:"referencia"`
	Counterpart   string          `json:"interlocutor"`
	Concept       int             `json:"concepto"`
}

// PaymentKey builds the de-duplication key for a ledger payment.
func PaymentKey(folio, counterpart string) string {
	return folio + "|" + counterpart
}
