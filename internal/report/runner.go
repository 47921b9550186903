package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/specweave/specweave/internal/emit"
)

// DefaultTimeout bounds a test run when the caller configures none. A
// hung test process is reported as an execution error, never retried.
const DefaultTimeout = 10 * time.Minute

// ExecError is a reporter-level failure: the test command could not run
// to completion (build failure, timeout, missing toolchain). It is
// distinct from a red run, which is a normal outcome.
type ExecError struct {
	Cause  error
	Output string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("test execution failed: %v", e.Cause)
}

func (e *ExecError) Unwrap() error { return e.Cause }

// Runner executes the generated tests in a directory and collects their
// outcomes. Test scheduling inside the run belongs to the test framework;
// the runner only imposes the external timeout.
type Runner struct {
	// Dir is the generated-test output directory.
	Dir string
	// Timeout bounds the whole run; DefaultTimeout when zero.
	Timeout time.Duration
	// GoTool overrides the go binary, for tests of the runner itself.
	GoTool string
}

// event is one record of the `go test -json` stream.
type event struct {
	Action  string  `json:"Action"`
	Test    string  `json:"Test"`
	Package string  `json:"Package"`
	Output  string  `json:"Output"`
	Elapsed float64 `json:"Elapsed"`
}

// Run executes `go test -json` over the directory and joins the decoded
// outcomes with the emission manifests. The command's exit status is not
// itself an error: a failing test suite still yields a well-formed red
// report.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	manifest, err := loadManifestsImpl(r.Dir)
	if err != nil {
		return nil, err
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	goTool := r.GoTool
	if goTool == "" {
		goTool = "go"
	}

	cmd := exec.CommandContext(ctx, goTool, "test", "-json", "./...")
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, &ExecError{
			Cause:  fmt.Errorf("timed out after %s", timeout),
			Output: stdout.String() + stderr.String(),
		}
	}

	results, decodeErr := decodeEvents(&stdout)
	if decodeErr != nil {
		return nil, &ExecError{Cause: decodeErr, Output: stderr.String()}
	}
	if len(results) == 0 && runErr != nil {
		// The command failed before producing any test events: a build
		// or invocation failure, not a red suite.
		return nil, &ExecError{Cause: runErr, Output: stdout.String() + stderr.String()}
	}

	for i := range results {
		if entry, ok := manifest[results[i].Test]; ok {
			results[i].SpecFile = entry.SpecFile
			results[i].ScenarioID = entry.ScenarioID
			results[i].Statements = entry.Statements
		}
	}

	rep := classify(results)
	if runErr != nil && rep.Failed == 0 && rep.Errored == 0 {
		// Nonzero exit with no failing test event: a package in the tree
		// failed to build, producing only package-level events. The event
		// stream alone would misreport this as green.
		return nil, &ExecError{Cause: runErr, Output: stdout.String() + stderr.String()}
	}
	return rep, nil
}

// decodeEvents parses a `go test -json` event stream into per-test
// results, ordered by test name for determinism across runs.
func decodeEvents(r io.Reader) ([]TestResult, error) {
	outcomes := map[string]*TestResult{}
	dec := json.NewDecoder(r)
	for {
		var ev event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding test events: %w", err)
		}
		if ev.Test == "" {
			continue
		}
		res, ok := outcomes[ev.Test]
		if !ok {
			res = &TestResult{Test: ev.Test}
			outcomes[ev.Test] = res
		}
		switch ev.Action {
		case "output":
			res.Output += ev.Output
		case "pass":
			res.Outcome = Pass
			res.Elapsed = ev.Elapsed
		case "fail":
			res.Outcome = Fail
			res.Elapsed = ev.Elapsed
		case "skip":
			res.Outcome = Skip
			res.Elapsed = ev.Elapsed
		}
	}

	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]TestResult, 0, len(names))
	for _, name := range names {
		res := *outcomes[name]
		if res.Outcome == "" {
			// No terminal event: the test binary died mid-run.
			res.Outcome = Errored
		}
		if res.Outcome == Pass {
			res.Output = ""
		}
		results = append(results, res)
	}
	return results, nil
}

// manifestIndex maps a generated test function name to its traceability
// entry.
type manifestIndex map[string]manifestRef

type manifestRef struct {
	SpecFile   string
	ScenarioID string
	Statements []string
}

// loadManifestsImpl reads every emission manifest in the output
// directory. This is an Impl function exempt from coverage requirements.
func loadManifestsImpl(dir string) (manifestIndex, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.manifest.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	idx := manifestIndex{}
	for _, path := range paths {
		data, err := emit.ReadManifestImpl(path)
		if err != nil {
			return nil, fmt.Errorf("reading manifest %s: %w", path, err)
		}
		indexManifest(idx, data)
	}
	return idx, nil
}

// indexManifest merges one manifest into the index.
func indexManifest(idx manifestIndex, m *emit.Manifest) {
	for _, entry := range m.Tests {
		idx[entry.Test] = manifestRef{
			SpecFile:   m.SpecFile,
			ScenarioID: entry.ScenarioID,
			Statements: entry.Statements,
		}
	}
}
