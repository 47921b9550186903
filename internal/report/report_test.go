package report

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/specweave/specweave/internal/emit"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		results []TestResult
		want    Status
	}{
		{
			name: "all passing is green",
			results: []TestResult{
				{Test: "Test_a", Outcome: Pass},
				{Test: "Test_b", Outcome: Pass},
			},
			want: Green,
		},
		{
			name: "one failure is red",
			results: []TestResult{
				{Test: "Test_a", Outcome: Pass},
				{Test: "Test_b", Outcome: Fail},
			},
			want: Red,
		},
		{
			name: "one errored test is red",
			results: []TestResult{
				{Test: "Test_a", Outcome: Pass},
				{Test: "Test_b", Outcome: Errored},
			},
			want: Red,
		},
		{
			name:    "zero tests is red",
			results: nil,
			want:    Red,
		},
		{
			name: "only skips is red",
			results: []TestResult{
				{Test: "Test_a", Outcome: Skip},
			},
			want: Red,
		},
		{
			name: "skips alongside passes stay green",
			results: []TestResult{
				{Test: "Test_a", Outcome: Pass},
				{Test: "Test_b", Outcome: Skip},
			},
			want: Green,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := classify(tt.results)
			if rep.Status != tt.want {
				t.Errorf("Status = %q, want %q", rep.Status, tt.want)
			}
		})
	}
}

func TestClassify_Counts(t *testing.T) {
	rep := classify([]TestResult{
		{Test: "Test_a", Outcome: Pass},
		{Test: "Test_b", Outcome: Pass},
		{Test: "Test_c", Outcome: Fail},
		{Test: "Test_d", Outcome: Skip},
		{Test: "Test_e", Outcome: Errored},
	})
	if rep.Passed != 2 || rep.Failed != 1 || rep.Skipped != 1 || rep.Errored != 1 {
		t.Errorf("counts = %d/%d/%d/%d", rep.Passed, rep.Failed, rep.Skipped, rep.Errored)
	}

	failures := rep.Failures()
	if len(failures) != 2 {
		t.Fatalf("len(Failures()) = %d, want 2", len(failures))
	}
	if failures[0].Test != "Test_c" || failures[1].Test != "Test_e" {
		t.Errorf("Failures() = %v", failures)
	}
}

const sampleEventStream = `{"Action":"run","Package":"example/acceptance","Test":"Test_User_can_register_abc123def456"}
{"Action":"output","Package":"example/acceptance","Test":"Test_User_can_register_abc123def456","Output":"=== RUN   Test_User_can_register_abc123def456\n"}
{"Action":"pass","Package":"example/acceptance","Test":"Test_User_can_register_abc123def456","Elapsed":0.01}
{"Action":"run","Package":"example/acceptance","Test":"Test_Cart_totals_feedbeef0123"}
{"Action":"output","Package":"example/acceptance","Test":"Test_Cart_totals_feedbeef0123","Output":"=== RUN   Test_Cart_totals_feedbeef0123\n"}
{"Action":"output","Package":"example/acceptance","Test":"Test_Cart_totals_feedbeef0123","Output":"    cart_test.go:12: query \"cart_total\" mismatch\n"}
{"Action":"fail","Package":"example/acceptance","Test":"Test_Cart_totals_feedbeef0123","Elapsed":0.02}
{"Action":"output","Package":"example/acceptance","Output":"FAIL\n"}
{"Action":"fail","Package":"example/acceptance","Elapsed":0.05}
`

func TestDecodeEvents(t *testing.T) {
	results, err := decodeEvents(strings.NewReader(sampleEventStream))
	if err != nil {
		t.Fatalf("decodeEvents() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	// Sorted by test name, package-level events excluded.
	if results[0].Test != "Test_Cart_totals_feedbeef0123" {
		t.Errorf("results[0].Test = %q", results[0].Test)
	}
	if results[0].Outcome != Fail {
		t.Errorf("results[0].Outcome = %q", results[0].Outcome)
	}
	if !strings.Contains(results[0].Output, "cart_total") {
		t.Errorf("failure output not retained: %q", results[0].Output)
	}

	if results[1].Test != "Test_User_can_register_abc123def456" {
		t.Errorf("results[1].Test = %q", results[1].Test)
	}
	if results[1].Outcome != Pass {
		t.Errorf("results[1].Outcome = %q", results[1].Outcome)
	}
	// Passing output is dropped to keep reports small.
	if results[1].Output != "" {
		t.Errorf("passing test retained output: %q", results[1].Output)
	}
	if results[1].Elapsed != 0.01 {
		t.Errorf("Elapsed = %v", results[1].Elapsed)
	}
}

func TestDecodeEvents_MissingTerminalEventIsErrored(t *testing.T) {
	stream := `{"Action":"run","Package":"p","Test":"Test_crashes"}
{"Action":"output","Package":"p","Test":"Test_crashes","Output":"panic: boom\n"}
`
	results, err := decodeEvents(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("decodeEvents() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Outcome != Errored {
		t.Errorf("Outcome = %q, want errored", results[0].Outcome)
	}
	if !strings.Contains(results[0].Output, "panic: boom") {
		t.Errorf("Output = %q", results[0].Output)
	}
}

func TestDecodeEvents_MalformedStream(t *testing.T) {
	if _, err := decodeEvents(strings.NewReader("{not json")); err == nil {
		t.Error("decodeEvents() error = nil for malformed stream")
	}
}

func TestIndexManifest(t *testing.T) {
	idx := manifestIndex{}
	indexManifest(idx, &emit.Manifest{
		SpecFile: "specs/registration.txt",
		Tests: []emit.ManifestEntry{{
			Test:       "Test_User_can_register_abc123def456",
			ScenarioID: "abc123def456",
			Statements: []string{"WHEN a user registers.", "THEN there is 1 registered user."},
		}},
	})

	ref, ok := idx["Test_User_can_register_abc123def456"]
	if !ok {
		t.Fatal("test not indexed")
	}
	want := manifestRef{
		SpecFile:   "specs/registration.txt",
		ScenarioID: "abc123def456",
		Statements: []string{"WHEN a user registers.", "THEN there is 1 registered user."},
	}
	if diff := cmp.Diff(want, ref); diff != "" {
		t.Errorf("manifestRef mismatch (-want +got):\n%s", diff)
	}
}
