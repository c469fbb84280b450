package parser

import "fmt"

// ParseError is one structured diagnostic accumulated during a parse.
//
// The parser never returns a Go error for malformed input: each
// malformed construct appends a ParseError and parsing continues on a
// best-effort basis so that multiple errors in one input can be
// reported together. Callers treat a non-empty error list as total
// failure of the parse attempt.
type ParseError struct {
	// Off is the approximate byte offset of the error in the input
	// text. Zero for errors found on the JSON path.
	Off int

	// Near is the offending substring or JSON path.
	Near string

	// Message describes what was expected or what was malformed.
	Message string
}

func (e ParseError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("[off %d] %s (near %q)", e.Off, e.Message, e.Near)
	}
	return fmt.Sprintf("[off %d] %s", e.Off, e.Message)
}
