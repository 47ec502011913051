package expression

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Scope is the read-only variable environment an expression runs against.
type Scope map[string]any

// Evaluator compiles and runs expressions, memoizing compiled programs by
// exact source text. The program cache is append-only, so an Evaluator may
// be shared across compiles and goroutines.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
	errs     []string
}

// NewEvaluator creates an evaluator with an empty program cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		programs: make(map[string]*vm.Program),
	}
}

// Compile returns the compiled program for source, reusing a cached program
// when the same source has been compiled before. Sources containing a bare
// assignment operator are rejected before compilation.
func (e *Evaluator) Compile(source string) (*vm.Program, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	if containsBareAssign(source) {
		return nil, fmt.Errorf("%w: %q", ErrAssignment, source)
	}

	e.mu.RLock()
	program, ok := e.programs[source]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(source,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", source, err)
	}

	e.mu.Lock()
	// A concurrent compile of the same source may have won the race;
	// both programs are equivalent, keep the first stored.
	if cached, ok := e.programs[source]; ok {
		program = cached
	} else {
		e.programs[source] = program
	}
	e.mu.Unlock()

	return program, nil
}

// Evaluate compiles (or re-uses) source and runs it against scope. Failures
// are recorded on the evaluator and returned; they are never fatal to the
// surrounding compile.
func (e *Evaluator) Evaluate(source string, scope Scope) (any, error) {
	program, err := e.Compile(source)
	if err != nil {
		e.record(err)
		return nil, err
	}

	result, err := vm.Run(program, map[string]any(scope))
	if err != nil {
		err = fmt.Errorf("evaluating %q: %w", source, err)
		e.record(err)
		return nil, err
	}

	return result, nil
}

// TakeErrors returns all errors recorded since the last call and clears
// the accumulator.
func (e *Evaluator) TakeErrors() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	errs := e.errs
	e.errs = nil
	return errs
}

// CacheSize reports the number of memoized programs.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.programs)
}

func (e *Evaluator) record(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err.Error())
	e.mu.Unlock()
}

// containsBareAssign reports whether s contains a single '=' that is not
// part of "==", "!=", "<=", ">=", or "=>".
func containsBareAssign(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '=' {
			continue
		}
		if i > 0 {
			switch s[i-1] {
			case '=', '!', '<', '>':
				continue
			}
		}
		if i+1 < len(s) {
			switch s[i+1] {
			case '=', '>':
				continue
			}
		}
		return true
	}
	return false
}
