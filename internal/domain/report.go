package domain

import "github.com/shopspring/decimal"

// SyncDetail is one audit line of a reconciliation report.
type SyncDetail struct {
	Folio             string          `json:"folio"`
	Account           string          `json:"cuenta"`
	NormalizedAccount string          `json:"cuentaNormalizada,omitempty"`
	Concept           string          `json:"concepto,omitempty"`
	Amount            decimal.Decimal `json:"monto"`
	Reason            string          `json:"razon,omitempty"`
}

// SyncReport summarizes one reconciliation run. Counts are always exact;
// the per-category detail slices and Pending are capped for response size.
// Detail is the generated plain-text audit narrative.
type SyncReport struct {
	Message          string          `json:"mensaje"`
	Inserted         int             `json:"registrosInsertados"`
	AlreadyExists    int             `json:"registrosYaExistentes"`
	UnmatchedAccount int             `json:"registrosSinCuentaPredial"`
	NoPeriod         int             `json:"registrosSinFechas"`
	TotalProcessed   int             `json:"totalProcesados"`
	Detail           string          `json:"archivoDetalle"`
	DetailURL        *string         `json:"archivoDetalleURL,omitempty"`
	Pending          []LedgerPayment `json:"datos,omitempty"`
	Note             string          `json:"nota,omitempty"`
	InsertedDetail   []SyncDetail    `json:"detalleInsertados"`
	ExistingDetail   []SyncDetail    `json:"detalleYaExistentes"`
	UnmatchedDetail  []SyncDetail    `json:"detalleSinCuentaPredial"`
	NoPeriodDetail   []SyncDetail    `json:"detalleSinFechas"`
}

// RegistryUpdateSummary summarizes one cadastral registry update run.
type RegistryUpdateSummary struct {
	Message        string `json:"mensaje"`
	PadronsUpdated int    `json:"padronesActualizados"`
	DebtsSettled   int    `json:"adeudosActualizados"`
	Omitted        int    `json:"solicitudesOmitidas"`
	NotFound       int    `json:"padronesNoEncontrados"`
	TotalProcessed int    `json:"totalConceptosProcesados"`
}
