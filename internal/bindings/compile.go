package bindings

import (
	"errors"

	"github.com/dshills/keyforge/internal/expression"
	"github.com/dshills/keyforge/internal/preset"
)

// exprErrorLimit caps how many expression errors a single compile
// reports individually; the rest are summarized in one line.
const exprErrorLimit = 3

// Compiler turns parsed presets into binding tables. It owns an
// expression evaluator whose compiled-program cache persists across
// compiles, so repeated recompilation of the same preset stays cheap.
// The zero value is not usable; construct with New.
type Compiler struct {
	eval *expression.Evaluator
}

// New returns a Compiler with a fresh evaluator.
func New() *Compiler {
	return &Compiler{eval: expression.NewEvaluator()}
}

// NewWithEvaluator returns a Compiler sharing the given evaluator, so a
// host can reuse one program cache across several compilers.
func NewWithEvaluator(eval *expression.Evaluator) *Compiler {
	return &Compiler{eval: eval}
}

// Compile runs the full pipeline over a parsed preset: hierarchical
// defaults, foreach expansion, per-binding validation, prefix
// compilation, mode expansion, documentation merging, and conflict
// resolution. Recoverable faults are recorded on probs and the affected
// binding is dropped or adjusted; the returned table is always usable.
// Compile is deterministic: the same spec yields the same table.
func (c *Compiler) Compile(spec *preset.Spec, probs *preset.Problems) (*Table, error) {
	if spec == nil {
		return nil, errors.New("bindings: nil spec")
	}

	defaults := resolveDefaults(spec.Defaults, probs)

	raws := make([]rawItem, 0, len(spec.Binds))
	for i, fields := range spec.Binds {
		raws = append(raws, rawItem{index: i, fields: defaults.apply(i, fields, probs)})
	}

	expanded := make([]rawItem, 0, len(raws))
	for _, r := range raws {
		expanded = append(expanded, expandForeach(c.eval, r, spec.Define, probs)...)
	}
	c.surfaceExprErrors(probs)

	items := make([]item, 0, len(expanded))
	for _, r := range expanded {
		if it, ok := validateBinding(r, probs); ok {
			items = append(items, it)
		}
	}

	items, codes := compilePrefixes(items, probs)
	items = expandModes(items, spec.Modes, probs)
	mergeDocGroups(items)
	items = resolveConflicts(items, probs)

	return assemble(items, codes), nil
}

// surfaceExprErrors drains the evaluator's accumulated errors into the
// problem list, reporting the first few verbatim and the rest as a
// count.
func (c *Compiler) surfaceExprErrors(probs *preset.Problems) {
	errs := c.eval.TakeErrors()
	for i, msg := range errs {
		if i == exprErrorLimit {
			probs.Addf("%d more expression errors suppressed", len(errs)-exprErrorLimit)
			break
		}
		probs.Addf("expression error: %s", msg)
	}
}
