package preset

import "fmt"

// Problems accumulates non-fatal diagnostics in encounter order. One
// accumulator is threaded through parsing and every compiler stage so the
// final report reflects pipeline order.
type Problems struct {
	list []string
}

// Add records one problem message.
func (p *Problems) Add(msg string) {
	p.list = append(p.list, msg)
}

// Addf records one formatted problem message.
func (p *Problems) Addf(format string, args ...any) {
	p.list = append(p.list, fmt.Sprintf(format, args...))
}

// List returns a copy of the accumulated problems.
func (p *Problems) List() []string {
	out := make([]string, len(p.list))
	copy(out, p.list)
	return out
}

// Len reports the number of accumulated problems.
func (p *Problems) Len() int {
	return len(p.list)
}
