package query

import (
	"errors"
	"fmt"

	"github.com/roach88/sqx/internal/parser"
)

// ErrRootNotGroup is returned by Equals/In when the WHERE root has
// been replaced by a bare comparator and can no longer accept
// appended conditions. Wrap the root with And or Or first.
var ErrRootNotGroup = errors.New("where root is not an AND/OR group")

// InvalidQueryError reports a failed parse attempt. It carries every
// diagnostic the parser accumulated; the partial AST is discarded.
type InvalidQueryError struct {
	Errors []parser.ParseError
}

func (e *InvalidQueryError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid query: %v", e.Errors[0])
	}
	return fmt.Sprintf("invalid query: %d parse errors, first: %v", len(e.Errors), e.Errors[0])
}

// IsInvalidQuery reports whether err is an InvalidQueryError.
// Uses errors.As to handle wrapped errors.
func IsInvalidQuery(err error) bool {
	var iq *InvalidQueryError
	return errors.As(err, &iq)
}

// MultipleConditionsError reports that PropertyCondition matched more
// than one operator node for the same property.
type MultipleConditionsError struct {
	Property string
	Count    int
}

func (e *MultipleConditionsError) Error() string {
	return fmt.Sprintf("property %q has %d conditions, expected at most one", e.Property, e.Count)
}
