// Package manifest merges image descriptions into a JSON asset manifest.
//
// A manifest is a JSON object with a "files" array. Each entry has at least
// "path" and "name" and may carry a "description". Merging only ever sets
// "description" on existing entries; everything else in the document,
// including key order, is written back as it was read.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const filesKey = "files"

// Manifest is a parsed manifest document
type Manifest struct {
	doc   object
	Files []*Entry
}

// Entry is one element of the manifest's files array
type Entry struct {
	object
}

// Path returns the entry's path field
func (e *Entry) Path() string {
	s, _ := e.stringValue("path")
	return s
}

// Name returns the entry's name field
func (e *Entry) Name() string {
	s, _ := e.stringValue("name")
	return s
}

// Description returns the entry's description and whether it is set
func (e *Entry) Description() (string, bool) {
	return e.stringValue("description")
}

// Load reads, validates and parses the manifest at path
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := validate(data); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, &m.doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if raw, ok := m.doc.values[filesKey]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &m.Files); err != nil {
			return nil, fmt.Errorf("failed to parse manifest files: %w", err)
		}
	}
	return m, nil
}

// Apply sets the description of every entry whose path, or failing that
// whose name, is a key of descriptions. It returns the number of entries updated.
func (m *Manifest) Apply(descriptions map[string]string) int {
	updated := 0
	for _, entry := range m.Files {
		desc, ok := lookup(entry, descriptions)
		if !ok {
			continue
		}
		if err := entry.set("description", desc); err != nil {
			continue
		}
		updated++
	}
	return updated
}

func lookup(entry *Entry, descriptions map[string]string) (string, bool) {
	if p := entry.Path(); p != "" {
		if desc, ok := descriptions[p]; ok {
			return desc, true
		}
	}
	if n := entry.Name(); n != "" {
		if desc, ok := descriptions[n]; ok {
			return desc, true
		}
	}
	return "", false
}

// Marshal renders the document with two-space indentation
func (m *Manifest) Marshal() ([]byte, error) {
	if m.Files != nil {
		files, err := encode(m.Files)
		if err != nil {
			return nil, fmt.Errorf("failed to encode manifest files: %w", err)
		}
		m.doc.values[filesKey] = files
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.doc); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the manifest to path. The document is written to a temporary
// file in the same directory and renamed over path, so readers never see a
// partial manifest.
func (m *Manifest) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("failed to set manifest permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}

// Update loads the manifest at path, applies descriptions and saves it.
// Nothing is written if loading fails.
func Update(path string, descriptions map[string]string) (int, error) {
	m, err := Load(path)
	if err != nil {
		return 0, err
	}
	updated := m.Apply(descriptions)
	if err := m.Save(path); err != nil {
		return 0, err
	}
	return updated, nil
}
