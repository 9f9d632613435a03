package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// writeJSON encodes v to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v interface{}, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Info("result written", "path", path)
	return nil
}
