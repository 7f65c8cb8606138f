package dataset

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader produces a fresh, unvalidated dataset from some backing store.
type Loader interface {
	LoadDataset(ctx context.Context) (*Dataset, error)
}

// ParseYAML decodes and validates a dataset payload.
func ParseYAML(data []byte) (*Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("dataset: payload is empty")
	}
	var d Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("dataset: decode: %w", err)
	}
	return Prepare(d)
}

// LoadFile reads a YAML dataset from disk and returns the prepared snapshot.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	d, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", filepath.Clean(path), err)
	}
	return d, nil
}

// FileLoader loads a dataset from a YAML file on every call.
type FileLoader struct {
	Path string
}

// LoadDataset implements Loader.
func (l FileLoader) LoadDataset(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(l.Path)
}

// WriteFile encodes a dataset as YAML.
func WriteFile(path string, d *Dataset) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("dataset: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("dataset: encode: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	return nil
}
