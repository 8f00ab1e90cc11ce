package rest

import (
	"net/http"
	"time"

	"pagos-sync/internal/repository"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateRequestsFilter parses the optional fecha_inicial / fecha_final
// query parameters into a repository filter.
func ValidateRequestsFilter(r *http.Request) (repository.RequestsFilter, error) {
	var f repository.RequestsFilter

	from, err := queryDate(r, "fecha_inicial")
	if err != nil {
		return f, err
	}
	to, err := queryDate(r, "fecha_final")
	if err != nil {
		return f, err
	}

	if from != nil && to != nil && to.Before(*from) {
		return f, &ValidationError{Field: "fecha_final", Message: "fecha_final debe ser posterior a fecha_inicial"}
	}

	f.PaymentDateFrom = from
	f.PaymentDateTo = to
	return f, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, &ValidationError{Field: name, Message: name + " debe tener formato YYYY-MM-DD"}
	}
	return &parsed, nil
}
