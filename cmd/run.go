package cmd

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/specweave/specweave/internal/pipeline"
	"github.com/specweave/specweave/internal/report"
)

// NewRunCmd creates the run subcommand: compile the specs, execute the
// generated tests, and print the red/green summary. Exit status is zero
// only when every pipeline stage succeeded and the run is green; stage
// errors and test failures are reported separately.
func NewRunCmd() *cobra.Command {
	opts := &pipelineOptions{}
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Compile specs, execute generated tests, and report red/green",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAll(cmd, opts)
		},
	}
	addPipelineFlags(cmd, opts)
	return cmd
}

func runAll(cmd *cobra.Command, opts *pipelineOptions) error {
	cfg, cleanup, err := opts.config()
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := pipeline.Run(cmd.Context(), cfg, pipeline.StageEmit)
	if err != nil {
		return err
	}

	runner := &report.Runner{Dir: opts.outDir, Timeout: opts.timeout}
	rep, execErr := runner.Run(cmd.Context())

	if opts.jsonOut {
		combined := struct {
			Pipeline *pipeline.Outcome `json:"pipeline"`
			Run      *report.RunReport `json:"run,omitempty"`
		}{Pipeline: outcome, Run: rep}
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(combined); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
	} else {
		printOutcome(cmd, outcome)
		if rep != nil {
			report.Summary(cmd.OutOrStdout(), rep)
		}
	}

	if execErr != nil {
		return fmt.Errorf("executing tests: %w", execErr)
	}
	if outcome.HasErrors() {
		return fmt.Errorf("pipeline completed with errors")
	}
	if rep.Status != report.Green {
		return fmt.Errorf("acceptance run is red: %d failed, %d errored", rep.Failed, rep.Errored)
	}
	return nil
}
