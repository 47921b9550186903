package emit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
)

// generatedHeaderPrefix identifies files owned by the emitter; the stale
// sweep only ever removes files carrying it.
const generatedHeaderPrefix = "// Code generated by specweave"

// WriteOutputsImpl commits a generated file and its manifest into dir.
// Both files are written to temporaries first and renamed into place, so
// a reader never observes a half-written generation; the rename fully
// supersedes any previous output for the same spec file.
// This is an Impl function exempt from coverage requirements.
func WriteOutputsImpl(dir string, gf *GeneratedFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	manifestData, err := json.MarshalIndent(gf.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest for %s: %w", gf.SpecFile, err)
	}
	manifestData = append(manifestData, '\n')

	if err := writeAtomic(filepath.Join(dir, gf.TestFileName), gf.Source); err != nil {
		return fmt.Errorf("writing test file for %s: %w", gf.SpecFile, err)
	}
	if err := writeAtomic(filepath.Join(dir, gf.ManifestFileName), manifestData); err != nil {
		return fmt.Errorf("writing manifest for %s: %w", gf.SpecFile, err)
	}
	return nil
}

// writeAtomic writes data to a temporary file in the target directory
// and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".specweave-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// ReadManifestImpl reads and decodes an emission manifest from disk.
// This is an Impl function exempt from coverage requirements.
func ReadManifestImpl(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SweepStaleImpl removes previously generated outputs that no current
// spec file produced (specs renamed or deleted since the last run). Only
// files carrying the generated header, plus their manifests, are
// touched; hand-written files in the output directory are left alone.
// This is an Impl function exempt from coverage requirements.
func SweepStaleImpl(dir string, keep map[string]bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || keep[name] {
			continue
		}
		switch {
		case strings.HasSuffix(name, "_test.go"):
			generated, err := hasGeneratedHeader(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			if generated {
				if err := os.Remove(filepath.Join(dir, name)); err != nil {
					return err
				}
			}
		case strings.HasSuffix(name, ".manifest.json"):
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// hasGeneratedHeader reports whether the file's first line is the
// emitter's generated-code marker.
func hasGeneratedHeader(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	return strings.HasPrefix(scanner.Text(), generatedHeaderPrefix), nil
}
