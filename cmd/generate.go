package cmd

import (
	"github.com/spf13/cobra"

	"github.com/specweave/specweave/internal/pipeline"
)

// NewGenerateCmd creates the generate subcommand: the full compile
// pipeline (parse, resolve, emit) without running the generated tests.
// Generated output fully supersedes the previous generation.
func NewGenerateCmd() *cobra.Command {
	opts := &pipelineOptions{}
	cmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate acceptance test files from GWT specs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, opts, pipeline.StageEmit)
		},
	}
	addPipelineFlags(cmd, opts)
	return cmd
}
