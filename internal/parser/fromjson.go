package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/roach88/sqx/internal/ast"
)

// comparatorKeys are the condition-object keys that encode a binary
// comparison in the native JSON format.
var comparatorKeys = map[string]ast.CompareOp{
	"=":  ast.OpEqual,
	"!=": ast.OpNotEqual,
	"<":  ast.OpLess,
	"<=": ast.OpLessOrEqual,
	">":  ast.OpGreater,
	">=": ast.OpGreaterOrEqual,
}

// DecodeJSONBytes decodes a native JSON query document into the raw
// map accepted by FromJSON. Numbers decode as json.Number so numeric
// literals survive without floating-point drift.
func DecodeJSONBytes(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode query JSON: %w", err)
	}
	return raw, nil
}

// FromJSON builds clauses from a native JSON query object without
// going through the text grammar. Unknown keys are ignored, not
// errors; malformed clause shapes accumulate diagnostics exactly like
// the text path.
func FromJSON(raw map[string]any) (Clauses, []ParseError) {
	j := &jsonState{}
	var c Clauses

	if v, ok := raw["select"]; ok {
		c.Select = j.parseSelect(v)
	}
	if v, ok := raw["where"]; ok {
		if root := j.parseCondition("where", v); root != nil {
			c.Where = &ast.WhereClause{Root: root}
		}
	}
	if v, ok := raw["having"]; ok {
		if root := j.parseCondition("having", v); root != nil {
			c.Having = &ast.HavingClause{Root: root}
		}
	}
	if v, ok := raw["group_by"]; ok {
		if props := j.parseProperties("group_by", v); len(props) > 0 {
			c.GroupBy = &ast.GroupByClause{Props: props}
		}
	}
	if v, ok := raw["group_by_permuted"]; ok {
		if props := j.parseProperties("group_by_permuted", v); len(props) > 0 {
			c.GroupByPermuted = &ast.GroupByClause{Props: props, Permuted: true}
		}
	}
	if v, ok := raw["order_by"]; ok {
		c.OrderBy = j.parseOrderBy(v)
	}
	if v, ok := raw["limit"]; ok {
		c.Limit = j.parseLimit(v)
	}
	if v, ok := raw["time_range"]; ok {
		c.TimeRange = j.parseTimeRange(v)
	}

	return c, j.errs
}

type jsonState struct {
	errs []ParseError
}

func (j *jsonState) errorf(path, format string, args ...any) {
	j.errs = append(j.errs, ParseError{
		Near:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

// parseSelect decodes the select entry list. Entries are property
// name strings, {"fn","arg"} aggregate objects, or {"as","origin"}
// projections.
func (j *jsonState) parseSelect(v any) *ast.SelectClause {
	list, ok := v.([]any)
	if !ok {
		j.errorf("select", "expected array, got %T", v)
		return nil
	}

	clause := &ast.SelectClause{}
	for i, entry := range list {
		path := fmt.Sprintf("select[%d]", i)
		if node := j.parseSelectEntry(path, entry); node != nil {
			clause.Columns.Append(node)
		}
	}
	if clause.Columns.Len() == 0 {
		return nil
	}
	return clause
}

func (j *jsonState) parseSelectEntry(path string, entry any) ast.Node {
	switch e := entry.(type) {
	case string:
		return ast.ParseProperty(e)
	case map[string]any:
		if _, ok := e["as"]; ok {
			return j.parseProjectAs(path, e)
		}
		if _, ok := e["fn"]; ok {
			return j.parseAggregate(path, e)
		}
		j.errorf(path, "object entry needs \"as\" or \"fn\"")
		return nil
	default:
		j.errorf(path, "unsupported entry type %T", entry)
		return nil
	}
}

func (j *jsonState) parseProjectAs(path string, e map[string]any) ast.Node {
	alias, ok := e["as"].(string)
	if !ok {
		j.errorf(path, "\"as\" must be a string")
		return nil
	}

	var origin ast.Node
	switch o := e["origin"].(type) {
	case string:
		origin = ast.ParseProperty(o)
	case map[string]any:
		origin = j.parseAggregate(path+".origin", o)
		if origin == nil {
			return nil
		}
	default:
		j.errorf(path, "\"origin\" must be a property name or aggregate object")
		return nil
	}

	return &ast.ProjectAs{Origin: origin, Alias: ast.Token{Text: alias}}
}

func (j *jsonState) parseAggregate(path string, e map[string]any) ast.Operator {
	fn, ok := e["fn"].(string)
	if !ok {
		j.errorf(path, "\"fn\" must be a string")
		return nil
	}
	arg, ok := e["arg"].(string)
	if !ok {
		j.errorf(path, "\"arg\" must be a property name")
		return nil
	}
	return &ast.Aggregate{Fn: fn, Arg: ast.ParseProperty(arg)}
}

// parseCondition decodes a condition object: a single-key map whose
// key is "and", "or", "in", or a comparator.
func (j *jsonState) parseCondition(path string, v any) ast.Operator {
	obj, ok := v.(map[string]any)
	if !ok {
		j.errorf(path, "expected condition object, got %T", v)
		return nil
	}
	if len(obj) != 1 {
		j.errorf(path, "condition object must have exactly one operator key, got %d", len(obj))
		return nil
	}

	for key, operand := range obj {
		switch {
		case key == "and" || key == "or":
			return j.parseLogical(path+"."+key, key, operand)
		case key == "in":
			return j.parseInCondition(path+".in", operand)
		default:
			if op, ok := comparatorKeys[key]; ok {
				return j.parseComparator(path+"."+key, op, operand)
			}
			j.errorf(path, "unknown operator %q", key)
			return nil
		}
	}
	return nil
}

func (j *jsonState) parseLogical(path, kind string, operand any) ast.Operator {
	list, ok := operand.([]any)
	if !ok {
		j.errorf(path, "expected array of conditions, got %T", operand)
		return nil
	}

	var items []ast.Operator
	for i, entry := range list {
		if item := j.parseCondition(fmt.Sprintf("%s[%d]", path, i), entry); item != nil {
			items = append(items, item)
		}
	}

	if kind == "and" {
		group := &ast.And{}
		group.Append(items...)
		return group
	}
	group := &ast.Or{}
	group.Append(items...)
	return group
}

func (j *jsonState) parseComparator(path string, op ast.CompareOp, operand any) ast.Operator {
	pair, ok := operand.([]any)
	if !ok || len(pair) != 2 {
		j.errorf(path, "expected [property, value] pair")
		return nil
	}
	name, ok := pair[0].(string)
	if !ok {
		j.errorf(path, "property must be a string, got %T", pair[0])
		return nil
	}
	value, err := ast.ScalarFromJSON(pair[1])
	if err != nil {
		j.errorf(path, "%v", err)
		return nil
	}
	return &ast.Comparison{Op: op, Prop: ast.ParseProperty(name), Value: value}
}

func (j *jsonState) parseInCondition(path string, operand any) ast.Operator {
	pair, ok := operand.([]any)
	if !ok || len(pair) != 2 {
		j.errorf(path, "expected [property, values] pair")
		return nil
	}
	name, ok := pair[0].(string)
	if !ok {
		j.errorf(path, "property must be a string, got %T", pair[0])
		return nil
	}
	rawValues, ok := pair[1].([]any)
	if !ok {
		j.errorf(path, "values must be an array, got %T", pair[1])
		return nil
	}

	values := make([]ast.Scalar, 0, len(rawValues))
	for i, rv := range rawValues {
		value, err := ast.ScalarFromJSON(rv)
		if err != nil {
			j.errorf(fmt.Sprintf("%s[%d]", path, i), "%v", err)
			return nil
		}
		values = append(values, value)
	}
	return &ast.In{Prop: ast.ParseProperty(name), Values: values}
}

func (j *jsonState) parseProperties(path string, v any) []*ast.Property {
	list, ok := v.([]any)
	if !ok {
		j.errorf(path, "expected array of property names, got %T", v)
		return nil
	}
	props := make([]*ast.Property, 0, len(list))
	for i, entry := range list {
		name, ok := entry.(string)
		if !ok {
			j.errorf(fmt.Sprintf("%s[%d]", path, i), "expected property name, got %T", entry)
			continue
		}
		props = append(props, ast.ParseProperty(name))
	}
	return props
}

// parseOrderBy decodes [[prop], [prop, dir], ...] entries. Direction
// defaults to ascending.
func (j *jsonState) parseOrderBy(v any) *ast.OrderByClause {
	list, ok := v.([]any)
	if !ok {
		j.errorf("order_by", "expected array, got %T", v)
		return nil
	}

	var terms []ast.OrderTerm
	for i, entry := range list {
		path := fmt.Sprintf("order_by[%d]", i)
		pair, ok := entry.([]any)
		if !ok || len(pair) == 0 || len(pair) > 2 {
			j.errorf(path, "expected [property] or [property, direction]")
			continue
		}
		name, ok := pair[0].(string)
		if !ok {
			j.errorf(path, "property must be a string, got %T", pair[0])
			continue
		}
		dir := ast.Ascending
		if len(pair) == 2 {
			raw, ok := pair[1].(string)
			if !ok || (raw != string(ast.Ascending) && raw != string(ast.Descending)) {
				j.errorf(path, "direction must be \"asc\" or \"desc\"")
				continue
			}
			dir = ast.Direction(raw)
		}
		terms = append(terms, ast.OrderTerm{Prop: ast.ParseProperty(name), Dir: dir})
	}

	if len(terms) == 0 {
		return nil
	}
	return &ast.OrderByClause{Terms: terms}
}

// limitSpec and timeRangeSpec decode their fragments via mapstructure;
// weak typing absorbs json.Number inputs.
type limitSpec struct {
	Count  int64 `mapstructure:"count"`
	Offset int64 `mapstructure:"offset"`
}

type timeRangeSpec struct {
	Start    int64 `mapstructure:"start"`
	End      int64 `mapstructure:"end"`
	Duration int64 `mapstructure:"duration"`
}

func (j *jsonState) parseLimit(v any) *ast.LimitClause {
	var spec limitSpec
	if err := weakDecode(v, &spec); err != nil {
		j.errorf("limit", "%v", err)
		return nil
	}
	if spec.Count <= 0 {
		j.errorf("limit", "count must be positive, got %d", spec.Count)
		return nil
	}
	return &ast.LimitClause{Count: spec.Count, Offset: spec.Offset}
}

func (j *jsonState) parseTimeRange(v any) *ast.TimeRangeClause {
	var spec timeRangeSpec
	if err := weakDecode(v, &spec); err != nil {
		j.errorf("time_range", "%v", err)
		return nil
	}
	if spec.Duration == 0 && spec.Start == 0 && spec.End == 0 {
		j.errorf("time_range", "needs duration or start/end")
		return nil
	}
	return &ast.TimeRangeClause{Start: spec.Start, End: spec.End, Duration: spec.Duration}
}

func weakDecode(v any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(v)
}
