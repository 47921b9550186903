package cmd

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/specweave/specweave/internal/pipeline"
)

// NewParseCmd creates the parse subcommand: spec files to IR documents,
// no registry involved.
func NewParseCmd() *cobra.Command {
	opts := &pipelineOptions{}
	cmd := &cobra.Command{
		Use:          "parse",
		Short:        "Parse GWT spec files and write IR documents",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, opts, pipeline.StageParse)
		},
	}
	addPipelineFlags(cmd, opts)
	return cmd
}

// runStage executes the pipeline up to a stage and reports the outcome.
// The command fails (nonzero exit) when any file produced an error
// diagnostic, after all files have been reported.
func runStage(cmd *cobra.Command, opts *pipelineOptions, stage pipeline.Stage) error {
	cfg, cleanup, err := opts.config()
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := pipeline.Run(cmd.Context(), cfg, stage)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(outcome); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
	} else {
		printOutcome(cmd, outcome)
	}

	if outcome.HasErrors() {
		return fmt.Errorf("pipeline completed with errors")
	}
	return nil
}
