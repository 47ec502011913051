package expression

import (
	"fmt"
	"regexp"
	"strconv"
)

// templateRE matches one non-greedy {{ ... }} template span.
var templateRE = regexp.MustCompile(`\{\{(.*?)\}\}`)

// SubstituteTemplates replaces every {{ ... }} span in text with the
// stringified value of the inner expression evaluated against scope. A span
// whose expression fails to evaluate, or evaluates to no value, is left in
// the text unchanged and the failure is recorded on the evaluator.
func (e *Evaluator) SubstituteTemplates(text string, scope Scope) string {
	return templateRE.ReplaceAllStringFunc(text, func(span string) string {
		source := span[2 : len(span)-2]

		value, err := e.Evaluate(source, scope)
		if err != nil {
			return span
		}
		if value == nil {
			e.record(fmt.Errorf("template %q: %w", span, ErrUndefined))
			return span
		}

		return Stringify(value)
	})
}

// SubstituteDeep applies SubstituteTemplates to every string reachable in
// v, descending through nested maps and slices. Maps and slices are copied;
// scalars are returned as-is.
func (e *Evaluator) SubstituteDeep(v any, scope Scope) any {
	switch val := v.(type) {
	case string:
		return e.SubstituteTemplates(val, scope)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = e.SubstituteDeep(child, scope)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = e.SubstituteDeep(child, scope)
		}
		return out
	default:
		return v
	}
}

// Stringify renders an expression result the way templates embed it:
// numbers without a trailing ".0", booleans as true/false.
func Stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}
