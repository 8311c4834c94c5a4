package folio

import (
	"errors"
	"fmt"
)

// Errors returned by the analytics core and its collaborators.
//
// Collaborators wrap them with context (fmt.Errorf("...: %w", ErrDataFetch)), callers
// classify with errors.Is.
var (
	// ErrConfiguration reports a bad or missing run configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrStoreUnavailable reports that the transaction store cannot be read.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDataFetch reports that the market data provider cannot be reached.
	ErrDataFetch = errors.New("data fetch error")
	// ErrDataShape reports a response or record missing expected fields.
	ErrDataShape = errors.New("data shape error")
	// ErrComputation reports an arithmetic impossibility, like a zero quantity division.
	ErrComputation = errors.New("computation error")
	// ErrUnresolved reports a per ticker missing quote or sector.
	ErrUnresolved = errors.New("unresolved data")
)

// UnresolvedDataError describes data that could not be resolved for a single ticker.
// It never aborts a run, the affected row is rendered with placeholders.
type UnresolvedDataError struct {
	Ticker string
	What   string // "quote" or "sector"
	Err    error  // underlying cause, may be nil
}

func (e *UnresolvedDataError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: no %s available", e.Ticker, e.What)
	}
	return fmt.Sprintf("%s: no %s available: %v", e.Ticker, e.What, e.Err)
}

// Is makes errors.Is(err, ErrUnresolved) true for any UnresolvedDataError.
func (e *UnresolvedDataError) Is(target error) bool { return target == ErrUnresolved }

func (e *UnresolvedDataError) Unwrap() error { return e.Err }

// IsRunFatal reports whether err must abort the whole run before anything is written:
// the ledger or the market data provider is unreachable.
func IsRunFatal(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrDataFetch)
}
