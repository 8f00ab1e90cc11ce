package domain

import "time"

// Cadastral key discriminator: only keys of this type identify accounts
// usable for payment matching.
const FiscalKeyType = 3

// Debt statuses in the cadastral registry (adeudo.estatus).
const (
	DebtStatusOutstanding = 1
	DebtStatusSettled     = 2
)

// Padron is a cadastral property record reached through a fiscal account key.
// LastYearPaid is the paid-period watermark; it is only ever raised.
type Padron struct {
	ID           int64
	Account      string // canonical fiscal account the record was matched through
	LastYearPaid *int
}

// Debt is one outstanding/settled debt entry belonging to a Padron. The
// debt's year is taken from StartDate.
type Debt struct {
	ID        int64
	PadronID  int64
	StartDate *time.Time
	Status    int
}
