// Package apperrors defines the error kinds surfaced by the pipeline stages.
package apperrors

import "errors"

// ErrStructure indicates the markup does not have the expected shape (no table body).
var ErrStructure = errors.New("structure error")

// ErrParse indicates a cell could not be parsed as expected.
var ErrParse = errors.New("parse error")

// ErrMissingRate indicates a required currency is absent from the rate table.
var ErrMissingRate = errors.New("missing rate")

// ErrInvalidRate indicates a malformed or non-positive rate table entry.
var ErrInvalidRate = errors.New("invalid rate")

// ErrIO indicates a file could not be read or written.
var ErrIO = errors.New("io error")

// ErrStorage indicates the relational store could not be opened or written.
var ErrStorage = errors.New("storage error")

// ErrQuery indicates a malformed, non read-only or referentially invalid query.
var ErrQuery = errors.New("query error")

// ErrConfig indicates invalid configuration.
var ErrConfig = errors.New("config error")

var kinds = []error{ErrStructure, ErrParse, ErrMissingRate, ErrInvalidRate, ErrIO, ErrStorage, ErrQuery, ErrConfig}

// Kind returns the sentinel err wraps, or nil if it wraps none of them.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns a short label for the error kind, "unknown" if unclassified.
func KindName(err error) string {
	if k := Kind(err); k != nil {
		return k.Error()
	}
	return "unknown"
}
