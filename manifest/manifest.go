// Package manifest handles ember.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents an ember.toml project configuration.
type Manifest struct {
	Project   Project   `toml:"project"`
	Source    Source    `toml:"source"`
	GC        GCConfig  `toml:"gc"`
	Callbacks Callbacks `toml:"callbacks"`

	// Dir is the directory containing the ember.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures script file locations.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// GCConfig configures the heap a Runtime built from this manifest opens,
// generalizing the teacher's `[image]` section to Ember's heap.Config.
type GCConfig struct {
	YoungThresholdBytes int  `toml:"young_threshold_bytes"`
	MaxHeapBytes        int  `toml:"max_heap_bytes"`
	Incremental         bool `toml:"incremental"`
}

// Callbacks names native-function modules to preload into every Context
// opened against this manifest's Runtime, before any script runs.
type Callbacks struct {
	Modules []string `toml:"modules"`
}

// Load parses an ember.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "ember.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an ember.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "ember.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// EntryPath returns the absolute path of the configured entry script, if any.
func (m *Manifest) EntryPath() string {
	if m.Source.Entry == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Source.Entry)
}

// HeapConfig returns the manifest's [gc] thresholds as the two values a
// heap.Config is built from (InitialYoungBytes, MaxHeapBytes).
// Defined here rather than in heap so manifest stays the only package that
// needs to know about TOML-shaped config at all.
func (m *Manifest) HeapConfig() (initialYoungBytes, maxHeapBytes int) {
	return m.GC.YoungThresholdBytes, m.GC.MaxHeapBytes
}
