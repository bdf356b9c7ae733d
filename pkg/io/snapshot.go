package io

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// WriteSnapshot encodes v as indented JSON and writes it to w.
// v is usually a *pipeline.Snapshot or *pipeline.PartitionSnapshot.
func WriteSnapshot(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportSnapshot writes v to a JSON file at path.
func ExportSnapshot(v any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSnapshot(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
