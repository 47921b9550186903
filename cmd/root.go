// Package cmd implements the specweave CLI commands.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/specweave/specweave/internal/pipeline"
)

// NewRootCmd creates the root specweave command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "specweave",
		Short:         "specweave - compile GWT behavior specs into runnable acceptance tests",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE:          rootRunE,
	}
	root.AddCommand(NewParseCmd())
	root.AddCommand(NewResolveCmd())
	root.AddCommand(NewGenerateCmd())
	root.AddCommand(NewRunCmd())
	return root
}

func rootRunE(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}

// pipelineOptions are the flags shared by every pipeline subcommand.
type pipelineOptions struct {
	specsDir     string
	irDir        string
	outDir       string
	registryPath string
	parallel     int
	timeout      time.Duration
	jsonOut      bool
	verbose      bool
}

// addPipelineFlags registers the shared flags on a command.
func addPipelineFlags(cmd *cobra.Command, opts *pipelineOptions) {
	cmd.Flags().StringVar(&opts.specsDir, "specs", "specs", "Directory containing GWT spec files")
	cmd.Flags().StringVar(&opts.irDir, "ir", "acceptance/ir", "Directory for IR documents")
	cmd.Flags().StringVar(&opts.outDir, "out", "acceptance/generated", "Directory for generated test files")
	cmd.Flags().StringVar(&opts.registryPath, "registry", "acceptance/registry.yaml", "Operation template registry file")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "Max spec files processed concurrently (0 = NumCPU)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Timeout for the test run (0 = default)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable structured pipeline logging")
}

// config builds the pipeline configuration, including the logger.
func (o *pipelineOptions) config() (pipeline.Config, func(), error) {
	logger := zap.NewNop()
	cleanup := func() {}
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return pipeline.Config{}, nil, fmt.Errorf("creating logger: %w", err)
		}
		logger = l
		cleanup = func() { _ = l.Sync() }
	}
	return pipeline.Config{
		SpecsDir:     o.specsDir,
		IRDir:        o.irDir,
		OutDir:       o.outDir,
		RegistryPath: o.registryPath,
		Parallelism:  o.parallel,
		Logger:       logger,
	}, cleanup, nil
}

// printOutcome writes the per-file pipeline summary: counts per spec
// file plus every diagnostic with its originating statement.
func printOutcome(cmd *cobra.Command, outcome *pipeline.Outcome) {
	for _, f := range outcome.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d parsed, %d resolved, %d unresolved, %d emitted\n",
			f.SpecFile, f.ScenariosParsed, f.ScenariosResolved, f.ScenariosUnresolved, f.ScenariosEmitted)
		for _, d := range f.Diagnostics {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s (%s)\n", d.Severity, d.Message, d.Code)
			if d.Statement != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "    statement: %s\n", d.Statement)
			}
		}
	}
	parsed, resolved, unresolved, emitted := outcome.Totals()
	fmt.Fprintf(cmd.OutOrStdout(), "total: %d scenarios parsed, %d resolved, %d unresolved, %d emitted across %d files\n",
		parsed, resolved, unresolved, emitted, len(outcome.Files))
}
