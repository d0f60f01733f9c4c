package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoData: the source returned no candles for the symbol.
	ErrNoData = errors.New("no candle data")
	// ErrInvalidSeries: timestamps out of order or duplicated, or a
	// non-positive price or volume. Fatal for that symbol only.
	ErrInvalidSeries = errors.New("invalid candle series")
	// ErrInsufficientData: a field the ranking needs is still inside its
	// warm-up window on the last bar.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNoSwing: no usable swing high/low pair for fibonacci levels.
	ErrNoSwing = errors.New("no swing high/low pair")
)

// SeriesError pinpoints the first bar that broke series validation.
type SeriesError struct {
	Symbol string
	Index  int
	Reason string
}

func (e *SeriesError) Error() string {
	return fmt.Sprintf("%s: %v at bar %d: %s", e.Symbol, ErrInvalidSeries, e.Index, e.Reason)
}

func (e *SeriesError) Unwrap() error {
	return ErrInvalidSeries
}

// Pipeline stages a symbol can fail in.
const (
	StageFetch    = "fetch"
	StageValidate = "validate"
	StageAnalyze  = "analyze"
	StageRank     = "rank"
)

// SymbolFailure records why a symbol was left out of a run.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func NewSymbolFailure(symbol, stage string, err error) SymbolFailure {
	return SymbolFailure{Symbol: symbol, Stage: stage, Reason: err.Error(), Err: err}
}

func (f SymbolFailure) Error() string {
	return fmt.Sprintf("%s (%s): %s", f.Symbol, f.Stage, f.Reason)
}

func (f SymbolFailure) Unwrap() error {
	return f.Err
}
