// Package schema validates native JSON query documents against an
// embedded CUE schema before they reach the parser. The schema is the
// machine-checkable statement of the wire format; the parser still
// performs its own shape checks so library callers who skip
// validation get the same diagnostics.
package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

var (
	compileOnce sync.Once
	queryDef    cue.Value
	compileErr  error
)

// Validate checks a raw JSON query document against the #Query
// schema. A nil error means the document is structurally acceptable;
// it does not guarantee the parser will find it semantically whole.
func Validate(raw []byte) error {
	def, err := compiledSchema()
	if err != nil {
		return err
	}

	ctx := def.Context()
	data := ctx.CompileBytes(raw)
	if err := data.Err(); err != nil {
		return fmt.Errorf("query JSON: %w", err)
	}

	unified := def.Unify(data)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fmt.Errorf("query JSON does not match schema: %w", err)
	}
	return nil
}

// compiledSchema compiles the embedded schema once and caches the
// #Query definition.
func compiledSchema() (cue.Value, error) {
	compileOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			compileErr = fmt.Errorf("compile embedded schema: %w", err)
			return
		}
		queryDef = v.LookupPath(cue.ParsePath("#Query"))
		if err := queryDef.Err(); err != nil {
			compileErr = fmt.Errorf("lookup #Query: %w", err)
		}
	})
	return queryDef, compileErr
}
