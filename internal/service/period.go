package service

import (
	"strconv"
	"strings"
)

// period is the inclusive [Start, End] year range a fee covers.
type period struct {
	Start int
	End   int
}

// resolvePeriod derives the covered period from the raw start/end year form
// answers. Both empty means no period; a single present value doubles for
// both ends; each present value must parse as an integer.
func resolvePeriod(yearFrom, yearTo string) (period, bool) {
	from := strings.TrimSpace(yearFrom)
	to := strings.TrimSpace(yearTo)

	if from == "" && to == "" {
		return period{}, false
	}
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}

	start, err := strconv.Atoi(from)
	if err != nil {
		return period{}, false
	}
	end, err := strconv.Atoi(to)
	if err != nil {
		return period{}, false
	}

	return period{Start: start, End: end}, true
}

// resolveSettlementPeriod is the registry-update variant: the end year is
// mandatory, the start year defaults to the end year when absent or
// unparseable.
func resolveSettlementPeriod(yearFrom, yearTo string) (period, bool) {
	end, err := strconv.Atoi(strings.TrimSpace(yearTo))
	if err != nil {
		return period{}, false
	}

	start := end
	if v, err := strconv.Atoi(strings.TrimSpace(yearFrom)); err == nil {
		start = v
	}

	return period{Start: start, End: end}, true
}
