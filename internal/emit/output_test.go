package emit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteOutputsImpl_WriteAndOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated")

	gf, err := Generate(resolvedDoc(), "registration")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := WriteOutputsImpl(dir, gf); err != nil {
		t.Fatalf("WriteOutputsImpl() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "registration_test.go"))
	if err != nil {
		t.Fatalf("reading test file: %v", err)
	}
	if string(data) != string(gf.Source) {
		t.Error("written test file differs from generated source")
	}

	m, err := ReadManifestImpl(filepath.Join(dir, "registration.manifest.json"))
	if err != nil {
		t.Fatalf("ReadManifestImpl() error = %v", err)
	}
	if m.SpecFile != "specs/registration.txt" || len(m.Tests) != 1 {
		t.Errorf("manifest = %+v", m)
	}

	// A second write fully supersedes the first.
	doc := resolvedDoc()
	doc.Scenarios[0].Description = "User registers."
	gf2, err := Generate(doc, "registration")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := WriteOutputsImpl(dir, gf2); err != nil {
		t.Fatalf("WriteOutputsImpl() error = %v", err)
	}
	data, err = os.ReadFile(filepath.Join(dir, "registration_test.go"))
	if err != nil {
		t.Fatalf("reading test file: %v", err)
	}
	if string(data) != string(gf2.Source) {
		t.Error("overwrite did not supersede previous generation")
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "registration_test.go" && e.Name() != "registration.manifest.json" {
			t.Errorf("unexpected file in output dir: %s", e.Name())
		}
	}
}

func TestSweepStaleImpl(t *testing.T) {
	dir := t.TempDir()

	gf, err := Generate(resolvedDoc(), "registration")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := WriteOutputsImpl(dir, gf); err != nil {
		t.Fatalf("WriteOutputsImpl() error = %v", err)
	}

	// A stale generation from a spec file that no longer exists.
	stale := []byte("// Code generated by specweave from specs/old.txt. DO NOT EDIT.\n\npackage acceptance_test\n")
	if err := os.WriteFile(filepath.Join(dir, "old_test.go"), stale, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "old.manifest.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A hand-written test without the generated header stays put.
	hand := []byte("package acceptance_test\n\nimport \"testing\"\n\nfunc TestMain(m *testing.M) {}\n")
	if err := os.WriteFile(filepath.Join(dir, "bindings_test.go"), hand, 0o644); err != nil {
		t.Fatal(err)
	}

	keep := map[string]bool{
		"registration_test.go":       true,
		"registration.manifest.json": true,
	}
	if err := SweepStaleImpl(dir, keep); err != nil {
		t.Fatalf("SweepStaleImpl() error = %v", err)
	}

	for _, name := range []string{"registration_test.go", "registration.manifest.json", "bindings_test.go"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should survive the sweep: %v", name, err)
		}
	}
	for _, name := range []string{"old_test.go", "old.manifest.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should be removed by the sweep", name)
		}
	}
}

func TestSweepStaleImpl_MissingDir(t *testing.T) {
	if err := SweepStaleImpl(filepath.Join(t.TempDir(), "nope"), nil); err != nil {
		t.Errorf("SweepStaleImpl() on missing dir error = %v, want nil", err)
	}
}
