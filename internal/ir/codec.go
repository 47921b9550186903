package ir

import (
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// Encode marshals a Document into indented JSON bytes. Field order is
// fixed by the struct definitions, so encoding is deterministic.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Decode unmarshals JSON bytes into a Document. Statement text and
// parameters round-trip losslessly.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteImpl writes IR JSON data to disk, creating directories as needed.
// This is an Impl function exempt from coverage requirements.
func WriteImpl(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadImpl reads IR JSON data from disk.
// This is an Impl function exempt from coverage requirements.
func ReadImpl(path string) ([]byte, error) {
	return os.ReadFile(path)
}
