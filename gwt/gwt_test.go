package gwt

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeT records test failures instead of failing the real test.
type fakeT struct {
	fatals   []string
	errs     []string
	cleanups []func()
}

func (f *fakeT) Helper() {}

func (f *fakeT) Fatalf(format string, args ...any) {
	f.fatals = append(f.fatals, fmt.Sprintf(format, args...))
}

func (f *fakeT) Errorf(format string, args ...any) {
	f.errs = append(f.errs, fmt.Sprintf(format, args...))
}

func (f *fakeT) Cleanup(fn func()) {
	f.cleanups = append(f.cleanups, fn)
}

func (f *fakeT) runCleanups() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
}

func TestExec_InvokesBoundOperation(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var gotArgs []any
	Register("register_user", func(args ...any) (any, error) {
		gotArgs = args
		return "user-1", nil
	})

	ft := &fakeT{}
	rt := NewRunner(ft)
	result := rt.Exec("register_user", "bob@example.com", "secret123")

	if len(ft.fatals) != 0 || len(ft.errs) != 0 {
		t.Fatalf("unexpected failures: %v %v", ft.fatals, ft.errs)
	}
	if result != "user-1" {
		t.Errorf("Exec() = %v, want user-1", result)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "bob@example.com" || gotArgs[1] != "secret123" {
		t.Errorf("operation received args %v", gotArgs)
	}
	if rt.LastResult() != "user-1" {
		t.Errorf("LastResult() = %v", rt.LastResult())
	}
	if results := rt.Results(); len(results) != 1 {
		t.Errorf("Results() = %v", results)
	}
}

func TestExec_UnboundOperationFailsNamingID(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	ft := &fakeT{}
	rt := NewRunner(ft)
	rt.Exec("missing_op")

	if len(ft.fatals) != 1 {
		t.Fatalf("fatals = %v, want exactly one", ft.fatals)
	}
	if !strings.Contains(ft.fatals[0], `"missing_op"`) {
		t.Errorf("failure message does not name the operation: %q", ft.fatals[0])
	}
}

func TestExec_OperationErrorFails(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("boom", func(args ...any) (any, error) {
		return nil, errors.New("database unavailable")
	})

	ft := &fakeT{}
	rt := NewRunner(ft)
	rt.Exec("boom")

	if len(ft.fatals) != 1 || !strings.Contains(ft.fatals[0], "database unavailable") {
		t.Errorf("fatals = %v", ft.fatals)
	}
}

func TestCheck_EqualityAndNumberNormalization(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	// The query returns int; the generated expectation is float64.
	Register("count_users", func(args ...any) (any, error) {
		return 1, nil
	})

	ft := &fakeT{}
	rt := NewRunner(ft)
	rt.Check("count_users", float64(1))

	if len(ft.errs) != 0 || len(ft.fatals) != 0 {
		t.Errorf("Check failed unexpectedly: %v %v", ft.errs, ft.fatals)
	}
}

func TestCheck_MismatchReportsDiff(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("count_users", func(args ...any) (any, error) {
		return 2, nil
	})

	ft := &fakeT{}
	rt := NewRunner(ft)
	rt.Check("count_users", float64(1))

	if len(ft.errs) != 1 {
		t.Fatalf("errs = %v, want exactly one", ft.errs)
	}
	if !strings.Contains(ft.errs[0], "count_users") {
		t.Errorf("mismatch message does not name the query: %q", ft.errs[0])
	}
}

func TestCheck_PassesArgsThrough(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("order_count", func(args ...any) (any, error) {
		if len(args) == 1 && args[0] == "bob@example.com" {
			return float64(3), nil
		}
		return nil, fmt.Errorf("unexpected args %v", args)
	})

	ft := &fakeT{}
	rt := NewRunner(ft)
	rt.Check("order_count", float64(3), "bob@example.com")

	if len(ft.errs) != 0 || len(ft.fatals) != 0 {
		t.Errorf("Check failed unexpectedly: %v %v", ft.errs, ft.fatals)
	}
}

func TestCheckContains(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("last_error", func(args ...any) (any, error) {
		return "email already registered for this account", nil
	})

	ft := &fakeT{}
	rt := NewRunner(ft)
	rt.CheckContains("last_error", "already registered")
	if len(ft.errs) != 0 {
		t.Errorf("contains check failed unexpectedly: %v", ft.errs)
	}

	rt.CheckContains("last_error", "no such text")
	if len(ft.errs) != 1 {
		t.Errorf("errs = %v, want one mismatch", ft.errs)
	}
}

func TestCheckContains_NonStringResult(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("count_users", func(args ...any) (any, error) {
		return 3, nil
	})

	ft := &fakeT{}
	rt := NewRunner(ft)
	rt.CheckContains("count_users", "3")

	if len(ft.errs) != 1 || !strings.Contains(ft.errs[0], "want string") {
		t.Errorf("errs = %v", ft.errs)
	}
}

func TestTeardown_RunsThroughCleanup(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	torndown := false
	RegisterTeardown(func(args ...any) (any, error) {
		torndown = true
		return nil, nil
	})

	ft := &fakeT{}
	NewRunner(ft)
	if torndown {
		t.Error("teardown ran before cleanup")
	}
	ft.runCleanups()
	if !torndown {
		t.Error("teardown did not run on cleanup")
	}
}

func TestTeardown_ErrorReported(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RegisterTeardown(func(args ...any) (any, error) {
		return nil, errors.New("close failed")
	})

	ft := &fakeT{}
	NewRunner(ft)
	ft.runCleanups()

	if len(ft.errs) != 1 || !strings.Contains(ft.errs[0], "close failed") {
		t.Errorf("errs = %v", ft.errs)
	}
}

func TestRunner_ScenariosOrderIndependent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	// A stateful fake domain, wiped by teardown after each scenario.
	var users []string
	Register("register_user", func(args ...any) (any, error) {
		users = append(users, args[0].(string))
		return len(users), nil
	})
	Register("count_users", func(args ...any) (any, error) {
		return len(users), nil
	})
	RegisterTeardown(func(args ...any) (any, error) {
		users = nil
		return nil, nil
	})

	one := func(ft *fakeT) {
		rt := NewRunner(ft)
		rt.Exec("register_user", "a@example.com")
		rt.Check("count_users", float64(1))
		ft.runCleanups()
	}
	two := func(ft *fakeT) {
		rt := NewRunner(ft)
		rt.Exec("register_user", "b@example.com")
		rt.Exec("register_user", "c@example.com")
		rt.Check("count_users", float64(2))
		ft.runCleanups()
	}

	orders := [][]func(*fakeT){
		{one, two},
		{two, one},
	}
	for _, order := range orders {
		for i, scenario := range order {
			ft := &fakeT{}
			scenario(ft)
			if len(ft.fatals)+len(ft.errs) != 0 {
				t.Errorf("scenario %d failed under reordering: %v %v", i, ft.fatals, ft.errs)
			}
		}
	}
}

func TestRegister_ReplacesBinding(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("op", func(args ...any) (any, error) { return "old", nil })
	Register("op", func(args ...any) (any, error) { return "new", nil })

	ft := &fakeT{}
	rt := NewRunner(ft)
	if got := rt.Exec("op"); got != "new" {
		t.Errorf("Exec() = %v, want new", got)
	}
}

func TestMustBind(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	MustBind(map[string]OpFunc{
		"a": func(args ...any) (any, error) { return 1, nil },
		"b": func(args ...any) (any, error) { return 2, nil },
	})

	ft := &fakeT{}
	rt := NewRunner(ft)
	rt.Exec("a")
	rt.Exec("b")
	if len(ft.fatals) != 0 {
		t.Errorf("fatals = %v", ft.fatals)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustBind with nil binding did not panic")
		}
	}()
	MustBind(map[string]OpFunc{"c": nil})
}
