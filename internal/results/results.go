// Package results reads and writes catalog files: a flat mapping from
// relative image path to description.
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Format is a catalog file encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// Row is one catalog entry as stored in a parquet file
type Row struct {
	Path        string `parquet:"path"`
	Description string `parquet:"description"`
}

// FormatFor picks the encoding from the file extension. Anything that is not
// YAML or parquet is written as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".parquet":
		return FormatParquet
	default:
		return FormatJSON
	}
}

// Save writes catalog to path in the format chosen by its extension.
func Save(path string, catalog map[string]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	format := FormatFor(path)
	slog.Debug("Writing catalog", "path", path, "format", format, "entries", len(catalog))

	if format == FormatParquet {
		if err := parquet.WriteFile(path, Rows(catalog)); err != nil {
			return fmt.Errorf("failed to write parquet file: %w", err)
		}
		return nil
	}

	data, err := Marshal(format, catalog)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Marshal encodes catalog as JSON or YAML.
func Marshal(format Format, catalog map[string]string) ([]byte, error) {
	if catalog == nil {
		catalog = map[string]string{}
	}

	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return data, nil
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(catalog); err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}
}

// Rows flattens catalog into rows sorted by path.
func Rows(catalog map[string]string) []Row {
	rows := make([]Row, 0, len(catalog))
	for path, desc := range catalog {
		rows = append(rows, Row{Path: path, Description: desc})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	return rows
}

// Load reads a catalog file written by Save.
func Load(path string) (map[string]string, error) {
	if FormatFor(path) == FormatParquet {
		return loadParquet(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	catalog := map[string]string{}
	switch FormatFor(path) {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
		}
	}
	return catalog, nil
}

func loadParquet(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	catalog := make(map[string]string, pf.NumRows())
	rows := make([]Row, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			catalog[row.Path] = row.Description
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}

	slog.Debug("Read parquet catalog", "path", path, "entries", len(catalog))
	return catalog, nil
}
