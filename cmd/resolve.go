package cmd

import (
	"github.com/spf13/cobra"

	"github.com/specweave/specweave/internal/pipeline"
)

// NewResolveCmd creates the resolve subcommand: parse specs, lower to
// IR, and resolve every statement against the template registry. The IR
// written to disk carries the resolution outcomes, and each unresolved
// or ambiguous statement is reported individually.
func NewResolveCmd() *cobra.Command {
	opts := &pipelineOptions{}
	cmd := &cobra.Command{
		Use:          "resolve",
		Short:        "Resolve spec statements against the operation template registry",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd, opts, pipeline.StageResolve)
		},
	}
	addPipelineFlags(cmd, opts)
	return cmd
}
