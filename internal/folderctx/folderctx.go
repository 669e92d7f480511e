// Package folderctx derives a short natural-language description of a folder
// from its path. The result primes the vision model with what the images in
// the folder are likely to show.
package folderctx

import (
	"path/filepath"
	"strings"
)

// Hint appends Phrase to the context when any of Keywords occurs in the
// lower-cased location label.
type Hint struct {
	Keywords []string `yaml:"keywords" json:"keywords"`
	Phrase   string   `yaml:"phrase" json:"phrase"`
}

// Deriver turns folder paths into context strings. Hints are checked in
// slice order, which is also the order they appear in the output.
type Deriver struct {
	Prefix      string
	RootMarkers []string
	Hints       []Hint
}

const labelSeparator = " / "

// DefaultPrefix labels every context string.
const DefaultPrefix = "M3TV media assets"

// DefaultRootMarkers are the path segments after which context capture starts.
var DefaultRootMarkers = []string{"M3org", "m3tv", "resources"}

// DefaultHints is the keyword table for the M3TV asset tree.
var DefaultHints = []Hint{
	{Keywords: []string{"environment"}, Phrase: "3D environment renders"},
	{Keywords: []string{"character"}, Phrase: "character artwork"},
	{Keywords: []string{"clank"}, Phrase: "Clank Tank investment show"},
	{Keywords: []string{"jedai", "council"}, Phrase: "JedAI Council debate show"},
	{Keywords: []string{"bazaar"}, Phrase: "Eliza Agent Bazaar"},
	{Keywords: []string{"stills"}, Phrase: "promotional stills"},
	{Keywords: []string{"thumbnail"}, Phrase: "transparent PNG character cutouts/mascots"},
	{Keywords: []string{"rebrand"}, Phrase: "rebranding assets"},
	{Keywords: []string{"stonk", "stock"}, Phrase: "StonkWars trading show"},
}

// DefaultDeriver returns a Deriver using the default prefix, markers and hints
func DefaultDeriver() *Deriver {
	return &Deriver{
		Prefix:      DefaultPrefix,
		RootMarkers: DefaultRootMarkers,
		Hints:       DefaultHints,
	}
}

// Derive returns the context string for the folder at path.
func (d *Deriver) Derive(path string) string {
	label := strings.Join(d.Segments(path), labelSeparator)

	context := d.Prefix + " - " + label
	if hints := d.matchHints(label); len(hints) > 0 {
		context += " (" + strings.Join(hints, ", ") + ")"
	}
	return context
}

// Segments returns the location tokens for path: every segment strictly after
// the first root marker, minus "." and "..". Without a marker, or when nothing
// follows it, the folder's own name is the only token.
func (d *Deriver) Segments(path string) []string {
	var tokens []string
	capturing := false
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" {
			continue
		}
		if !capturing {
			capturing = d.isMarker(part)
			continue
		}
		if part == "." || part == ".." {
			continue
		}
		tokens = append(tokens, part)
	}

	if len(tokens) == 0 {
		tokens = []string{folderName(path)}
	}
	return tokens
}

func (d *Deriver) isMarker(segment string) bool {
	for _, m := range d.RootMarkers {
		if segment == m {
			return true
		}
	}
	return false
}

func (d *Deriver) matchHints(label string) []string {
	lower := strings.ToLower(label)
	var hints []string
	for _, h := range d.Hints {
		for _, kw := range h.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				hints = append(hints, h.Phrase)
				break
			}
		}
	}
	return hints
}

// folderName returns the last meaningful segment of path. "." and ".." are
// resolved against the working directory so the label is never a bare dot.
func folderName(path string) string {
	name := filepath.Base(filepath.Clean(path))
	if name == "." || name == ".." {
		if abs, err := filepath.Abs(path); err == nil {
			name = filepath.Base(abs)
		}
	}
	return name
}
