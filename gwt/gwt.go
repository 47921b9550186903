// Package gwt is the runtime support library generated acceptance tests
// execute against. The pipeline never infers domain semantics: a project
// binds each operation identifier from its template registry to a real
// callable with Register (typically in TestMain of the generated-test
// package), and generated tests invoke those callables through a Runner.
//
// An operation left unbound fails its test with a message naming the
// identifier, so freshly generated tests run red until the project binds
// and implements the behavior.
package gwt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
)

// OpFunc is a bound domain operation or query. Arguments arrive in
// template placeholder order with JSON-native types (string, float64,
// bool).
type OpFunc func(args ...any) (any, error)

var (
	mu       sync.RWMutex
	ops      = map[string]OpFunc{}
	teardown OpFunc
)

// Register binds a domain operation identifier to a callable.
// Re-registering an identifier replaces the previous binding.
func Register(id string, fn OpFunc) {
	mu.Lock()
	defer mu.Unlock()
	ops[id] = fn
}

// RegisterTeardown binds a cleanup callable that every Runner schedules
// via t.Cleanup, keeping each generated test self-contained.
func RegisterTeardown(fn OpFunc) {
	mu.Lock()
	defer mu.Unlock()
	teardown = fn
}

// Reset removes all bindings. Intended for tests of the runtime itself.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ops = map[string]OpFunc{}
	teardown = nil
}

func lookup(id string) (OpFunc, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := ops[id]
	return fn, ok
}

// T is the subset of *testing.T the Runner needs. Generated tests pass
// their *testing.T directly.
type T interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Cleanup(func())
}

// Runner executes bound operations on behalf of one generated test. Each
// test constructs its own Runner, so tests can run in any order or in
// parallel without sharing state through the runtime.
type Runner struct {
	t       T
	results []any
}

// NewRunner creates a Runner for one test and schedules the registered
// teardown, if any, through t.Cleanup.
func NewRunner(t T) *Runner {
	t.Helper()
	r := &Runner{t: t}
	mu.RLock()
	td := teardown
	mu.RUnlock()
	if td != nil {
		t.Cleanup(func() {
			if _, err := td(); err != nil {
				t.Errorf("teardown: %v", err)
			}
		})
	}
	return r
}

// Exec invokes a bound operation for effect, retaining its result for
// later inspection. A missing binding or operation error fails the test.
func (r *Runner) Exec(id string, args ...any) any {
	r.t.Helper()
	fn, ok := lookup(id)
	if !ok {
		r.t.Fatalf("no domain operation bound for %q; call gwt.Register(%q, ...) before running", id, id)
		return nil
	}
	got, err := fn(args...)
	if err != nil {
		r.t.Fatalf("operation %q: %v", id, err)
		return nil
	}
	r.results = append(r.results, got)
	return got
}

// Results returns the results of every Exec call so far, in call order.
// Bound assertions may consult these to inspect action outcomes.
func (r *Runner) Results() []any {
	return append([]any(nil), r.results...)
}

// LastResult returns the most recent Exec result, or nil before the
// first call.
func (r *Runner) LastResult() any {
	if len(r.results) == 0 {
		return nil
	}
	return r.results[len(r.results)-1]
}

// Check invokes a bound query and compares its result to want with exact
// equality. Numeric values are normalized to float64 on both sides so a
// query returning int still satisfies a numeric expectation.
func (r *Runner) Check(id string, want any, args ...any) {
	r.t.Helper()
	fn, ok := lookup(id)
	if !ok {
		r.t.Fatalf("no domain query bound for %q; call gwt.Register(%q, ...) before running", id, id)
		return
	}
	got, err := fn(args...)
	if err != nil {
		r.t.Fatalf("query %q: %v", id, err)
		return
	}
	g, w := normalize(got), normalize(want)
	if !cmp.Equal(g, w) {
		r.t.Errorf("query %q mismatch (-want +got):\n%s", id, cmp.Diff(w, g))
	}
}

// CheckContains invokes a bound query returning a string and asserts it
// contains want as a substring.
func (r *Runner) CheckContains(id string, want string, args ...any) {
	r.t.Helper()
	fn, ok := lookup(id)
	if !ok {
		r.t.Fatalf("no domain query bound for %q; call gwt.Register(%q, ...) before running", id, id)
		return
	}
	got, err := fn(args...)
	if err != nil {
		r.t.Fatalf("query %q: %v", id, err)
		return
	}
	s, ok := got.(string)
	if !ok {
		r.t.Errorf("query %q returned %T, want string for contains comparison", id, got)
		return
	}
	if !strings.Contains(s, want) {
		r.t.Errorf("query %q = %q, want substring %q", id, s, want)
	}
}

// normalize converts integer and float variants to float64 so equality
// matches the IR's JSON-native number representation.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// MustBind is a convenience for project TestMain functions: it registers
// several operations at once.
func MustBind(bindings map[string]OpFunc) {
	for id, fn := range bindings {
		if fn == nil {
			panic(fmt.Sprintf("gwt: nil binding for %q", id))
		}
		Register(id, fn)
	}
}
