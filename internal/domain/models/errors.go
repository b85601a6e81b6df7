package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDataUnavailable is returned when the market-data source is empty or unreachable.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidBar matches any *InvalidBarError via errors.Is.
	ErrInvalidBar = errors.New("invalid bar")
	// ErrInvalidPeriod is returned for an unparseable lookback period.
	ErrInvalidPeriod = errors.New("invalid period")
)

// InvalidBarError reports a bar that violates the series preconditions.
type InvalidBarError struct {
	Index  int
	Time   time.Time
	Reason string
}

func (e *InvalidBarError) Error() string {
	return fmt.Sprintf("invalid bar %d at %s: %s", e.Index, e.Time.Format(time.RFC3339), e.Reason)
}

// Is makes errors.Is(err, ErrInvalidBar) true.
func (e *InvalidBarError) Is(target error) bool {
	return target == ErrInvalidBar
}

// DataUnavailableError wraps ErrDataUnavailable with the source that failed.
type DataUnavailableError struct {
	Source string
	Symbol string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %v", ErrDataUnavailable, e.Source, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s: %s %s", ErrDataUnavailable, e.Source, e.Symbol)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDataUnavailable) true.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// NewDataUnavailable builds a DataUnavailableError.
func NewDataUnavailable(source, symbol string, err error) error {
	return &DataUnavailableError{Source: source, Symbol: symbol, Err: err}
}
