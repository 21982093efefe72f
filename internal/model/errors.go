package model

import (
	"fmt"
	"strings"
)

// MissingInputError reports a required source file that does not exist.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input file %s: %v", e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// SchemaError reports a canonical column that could not be located under any
// accepted alias.
type SchemaError struct {
	Stage     string
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: expected a %q column, have [%s]", e.Stage, e.Column, strings.Join(e.Available, ", "))
}

// MissingColumnError reports a field a specific stage requires.
type MissingColumnError struct {
	Stage  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing column %q", e.Stage, e.Column)
}

// MissingRateTableError reports an absent exchange-rate cache when at least one
// record needs conversion.
type MissingRateTableError struct {
	Path string
	Err  error
}

func (e *MissingRateTableError) Error() string {
	return fmt.Sprintf("exchange rate table not found at %s: %v", e.Path, e.Err)
}

func (e *MissingRateTableError) Unwrap() error { return e.Err }
