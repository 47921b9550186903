// Package pipeline drives the spec-to-test compilation stages: parse,
// lower, resolve, emit. Failures are scoped to the smallest unit (one
// malformed spec file, one unresolved scenario) so a run always reports
// maximal diagnostic information; no stage ever substitutes a guess for
// a missing mapping.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/specweave/specweave/internal/emit"
	"github.com/specweave/specweave/internal/ir"
	"github.com/specweave/specweave/internal/registry"
	"github.com/specweave/specweave/internal/resolve"
	"github.com/specweave/specweave/internal/spec"
)

// Stage selects how far the pipeline runs.
type Stage int

const (
	// StageParse stops after lowering specs to IR.
	StageParse Stage = iota
	// StageResolve additionally resolves IR against the registry.
	StageResolve
	// StageEmit additionally generates test files.
	StageEmit
)

// SpecPattern is the filename suffix of spec files under the specs
// directory.
const SpecPattern = ".txt"

// Config carries the project-designated directories and run options.
type Config struct {
	SpecsDir     string
	IRDir        string
	OutDir       string
	RegistryPath string
	// Parallelism bounds concurrent per-file processing; NumCPU when
	// zero. Spec files share no mutable state and the registry is
	// read-only, so files are processed independently.
	Parallelism int
	Logger      *zap.Logger
}

// FileOutcome is the per-spec-file result of a run.
type FileOutcome struct {
	SpecFile            string       `json:"spec_file"`
	ScenariosParsed     int          `json:"scenarios_parsed"`
	ScenariosResolved   int          `json:"scenarios_resolved"`
	ScenariosUnresolved int          `json:"scenarios_unresolved"`
	ScenariosEmitted    int          `json:"scenarios_emitted"`
	Diagnostics         []Diagnostic `json:"diagnostics,omitempty"`
	// Outputs lists the generated file names, used for the stale sweep.
	Outputs []string `json:"outputs,omitempty"`
}

// Outcome is the aggregate result of one pipeline run.
type Outcome struct {
	Files []FileOutcome `json:"files"`
}

// HasErrors reports whether any file produced an error diagnostic.
func (o *Outcome) HasErrors() bool {
	for _, f := range o.Files {
		for _, d := range f.Diagnostics {
			if d.Severity == SeverityError {
				return true
			}
		}
	}
	return false
}

// Totals sums the per-file scenario counts.
func (o *Outcome) Totals() (parsed, resolved, unresolved, emitted int) {
	for _, f := range o.Files {
		parsed += f.ScenariosParsed
		resolved += f.ScenariosResolved
		unresolved += f.ScenariosUnresolved
		emitted += f.ScenariosEmitted
	}
	return
}

// Run executes the pipeline up to the requested stage. Per-file failures
// become diagnostics on the outcome; the returned error covers only
// run-level problems (unreadable spec directory, invalid registry,
// cancellation).
func Run(ctx context.Context, cfg Config, stage Stage) (*Outcome, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := findSpecFiles(cfg.SpecsDir)
	if err != nil {
		return nil, fmt.Errorf("finding spec files: %w", err)
	}
	logger.Info("discovered spec files",
		zap.String("dir", cfg.SpecsDir),
		zap.Int("count", len(files)))

	var reg *registry.Registry
	if stage >= StageResolve {
		reg, err = registry.LoadFileImpl(cfg.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("loading registry: %w", err)
		}
		logger.Info("loaded template registry",
			zap.String("path", cfg.RegistryPath),
			zap.Int("templates", reg.Len()))
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	outcomes := make([]FileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = processFile(cfg, logger, reg, path, stage)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcome := &Outcome{Files: outcomes}

	if stage >= StageEmit {
		keep := map[string]bool{}
		for _, f := range outcomes {
			for _, name := range f.Outputs {
				keep[name] = true
			}
		}
		if err := emit.SweepStaleImpl(cfg.OutDir, keep); err != nil {
			return nil, fmt.Errorf("sweeping stale outputs: %w", err)
		}
	}

	return outcome, nil
}

// processFile runs one spec file through the stages. Every failure is
// recorded as a diagnostic scoped to this file; other files are never
// affected.
func processFile(cfg Config, logger *zap.Logger, reg *registry.Registry, path string, stage Stage) FileOutcome {
	out := FileOutcome{SpecFile: path}
	fail := func(code, message, statement string) {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Severity:  SeverityError,
			Code:      code,
			Message:   message,
			File:      path,
			Statement: statement,
		})
	}

	f, err := spec.ParseFileImpl(path)
	if err != nil {
		var synErr *spec.SyntaxError
		if errors.As(err, &synErr) {
			fail(synErr.Code, fmt.Sprintf("line %d: %s (token %q)", synErr.Line, synErr.Message, synErr.Token), "")
		} else {
			fail(CodeIOFailure, err.Error(), "")
		}
		logger.Warn("spec file rejected", zap.String("file", path), zap.Error(err))
		return out
	}
	out.ScenariosParsed = len(f.Scenarios)

	doc, err := ir.Lower(f)
	if err != nil {
		fail(CodeStructural, err.Error(), "")
		return out
	}

	stem := fileStem(cfg.SpecsDir, path)

	if reg != nil {
		doc = resolve.Document(doc, reg)
		for _, failure := range resolve.Failures(doc) {
			switch failure.Resolution.State {
			case ir.StateAmbiguous:
				fail(CodeAmbiguousOperation,
					fmt.Sprintf("scenario %s: statement matches multiple templates: %s",
						failure.ScenarioID, strings.Join(failure.Resolution.Candidates, ", ")),
					string(failure.Kind)+" "+failure.Statement+".")
			default:
				code := CodeUnresolvedOperation
				if strings.HasPrefix(failure.Resolution.Reason, resolve.ReasonTypeMismatch) {
					code = CodeTypeMismatch
				}
				fail(code,
					fmt.Sprintf("scenario %s: no operation resolved: %s",
						failure.ScenarioID, failure.Resolution.Reason),
					string(failure.Kind)+" "+failure.Statement+".")
			}
		}
		for _, sc := range doc.Scenarios {
			if resolve.FullyResolved(sc) {
				out.ScenariosResolved++
			} else {
				out.ScenariosUnresolved++
			}
		}
	}

	data, err := ir.Encode(doc)
	if err != nil {
		fail(CodeStructural, fmt.Sprintf("encoding IR: %v", err), "")
		return out
	}
	irPath := filepath.Join(cfg.IRDir, stem+".json")
	if err := ir.WriteImpl(irPath, data); err != nil {
		fail(CodeIOFailure, fmt.Sprintf("writing IR: %v", err), "")
		return out
	}
	logger.Info("lowered spec to IR",
		zap.String("file", path),
		zap.String("ir", irPath),
		zap.Int("scenarios", len(doc.Scenarios)))

	if stage < StageEmit {
		return out
	}

	// Emission is scoped to fully resolved scenarios; unresolved ones
	// were already diagnosed above and are simply not emitted.
	emittable := &ir.Document{
		SpecFile:    doc.SpecFile,
		Description: doc.Description,
	}
	for _, sc := range doc.Scenarios {
		if resolve.FullyResolved(sc) {
			emittable.Scenarios = append(emittable.Scenarios, sc)
		}
	}
	if len(emittable.Scenarios) == 0 {
		return out
	}

	gf, err := emit.Generate(emittable, stem)
	if err != nil {
		fail(CodeEmission, err.Error(), "")
		return out
	}
	if err := emit.WriteOutputsImpl(cfg.OutDir, gf); err != nil {
		fail(CodeIOFailure, err.Error(), "")
		return out
	}
	out.ScenariosEmitted = len(emittable.Scenarios)
	out.Outputs = []string{gf.TestFileName, gf.ManifestFileName}
	logger.Info("emitted acceptance tests",
		zap.String("file", path),
		zap.String("test_file", gf.TestFileName),
		zap.Int("scenarios", out.ScenariosEmitted))

	return out
}

// findSpecFiles walks the spec directory for spec files, sorted for
// deterministic processing order.
func findSpecFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SpecPattern) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("spec directory %s does not exist", dir)
		}
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// fileStem derives the output stem from a spec path relative to the
// specs directory.
func fileStem(specsDir, path string) string {
	rel, err := filepath.Rel(specsDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return emit.Stem(rel)
}
