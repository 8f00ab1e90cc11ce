package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest is one assembled (solicitud, concepto) row: the request-level
// data (folio, payer, cadastral account, covered period) copied onto each of the
// request's fee line items. It is rebuilt from database state on every run and
// never persisted.
type PaymentRequest struct {
	ConceptID   int64           `json:"conceptoId"`
	ConceptName string          `json:"nombreConcepto"`
	Folio       string          `json:"folioRecaudacion"`
	PaymentDate *time.Time      `json:"fechaPago"`
	Account     string          `json:"cuentaPredial"`
	YearFrom    string          `json:"anioInicial"`
	YearTo      string          `json:"anioFinal"`
	PayerName   string          `json:"nombreContribuyente"`
	Amount      decimal.Decimal `json:"monto"`
	Discount    decimal.Decimal `json:"descuento"`
	Total       decimal.Decimal `json:"total"` // always Amount - Discount, recomputed
}

// Solicitud is a payment request header as stored in the point-of-sale source.
type Solicitud struct {
	ID             int64
	Folio          string
	PaymentDate    *time.Time
	Status         int
	ClientID       *int64
	PayingClientID *int64
}

// FeeLine is one charge entry (concepto_solicitud) attached to a request.
type FeeLine struct {
	ID        int64
	RequestID int64
	FeeID     int64
	Amount    decimal.Decimal
	Discount  decimal.Decimal
}

// Fee is a fee/concept definition.
type Fee struct {
	ID   int64
	Name string
}

// FormField is a declared dynamic-form field.
type FormField struct {
	ID          int64  `json:"id"`
	FormID      int64  `json:"formulario"`
	Name        string `json:"campo"`
	Description string `json:"descripcion"`
}

// FormAnswer is one captured answer row; RequestID is nullable in the source.
type FormAnswer struct {
	RequestID *int64
	FormID    int64
	FieldID   int64
	Value     string
}

// Payer is a client record from the point-of-sale source. PersonType
// distinguishes individuals (1) from organizations (2).
type Payer struct {
	ID             int64
	PersonType     int
	FirstName      string
	LastName       string
	SecondLastName string
	LegalName      string
}
