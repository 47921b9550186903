// Package report executes emitted acceptance tests and aggregates their
// outcomes into a red/green run report, with every failure traced back
// to the originating spec statement through the emission manifests.
package report

// Status is the terminal classification of a run.
type Status string

const (
	// Red means at least one failure — including the degenerate case of
	// zero tests existing to exercise new behavior.
	Red Status = "red"
	// Green means at least one test ran and all passed.
	Green Status = "green"
)

// Outcome is the per-test result classification.
type Outcome string

const (
	Pass    Outcome = "pass"
	Fail    Outcome = "fail"
	Skip    Outcome = "skip"
	Errored Outcome = "error"
)

// TestResult is one generated test's outcome, joined with its spec
// traceability data from the emission manifest.
type TestResult struct {
	Test    string  `json:"test"`
	Outcome Outcome `json:"outcome"`
	Elapsed float64 `json:"elapsed_seconds"`
	// Output is the accumulated test log, retained for failures.
	Output string `json:"output,omitempty"`
	// Traceability back to the spec; empty when the test did not come
	// from a known manifest.
	SpecFile   string   `json:"spec_file,omitempty"`
	ScenarioID string   `json:"scenario_id,omitempty"`
	Statements []string `json:"statements,omitempty"`
}

// RunReport aggregates per-test outcomes and the terminal status.
type RunReport struct {
	Results []TestResult `json:"results"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
	Errored int          `json:"errored"`
	Status  Status       `json:"status"`
}

// classify computes counts and the terminal status from the result set.
// Zero tests is red: new behavior with nothing exercising it is a
// failure, not a pass.
func classify(results []TestResult) *RunReport {
	rep := &RunReport{Results: results}
	for _, r := range results {
		switch r.Outcome {
		case Pass:
			rep.Passed++
		case Fail:
			rep.Failed++
		case Skip:
			rep.Skipped++
		default:
			rep.Errored++
		}
	}
	if rep.Passed > 0 && rep.Failed == 0 && rep.Errored == 0 {
		rep.Status = Green
	} else {
		rep.Status = Red
	}
	return rep
}

// Failures returns the failed and errored results, in run order.
func (r *RunReport) Failures() []TestResult {
	var out []TestResult
	for _, res := range r.Results {
		if res.Outcome == Fail || res.Outcome == Errored {
			out = append(out, res)
		}
	}
	return out
}
