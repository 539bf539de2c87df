// Package project reads the optional joos.toml manifest.
package project

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest is the parsed joos.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Build   BuildSection   `toml:"build"`

	// Root is the directory holding the manifest.
	Root string `toml:"-"`
}

// PackageSection names the program.
type PackageSection struct {
	Name string `toml:"name"`
	Main string `toml:"main"`
}

// BuildSection configures the source roots and output.
type BuildSection struct {
	Sources []string `toml:"sources"`
	Stdlib  string   `toml:"stdlib"`
	Out     string   `toml:"out"`
}

// ErrNoManifest reports a missing joos.toml.
var ErrNoManifest = errors.New("no joos.toml found")

// Load reads dir/joos.toml. A missing file returns ErrNoManifest so the
// CLI can fall back to bare-path compilation.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "joos.toml")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, err
	}
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	m.Root = abs
	if m.Build.Out == "" {
		m.Build.Out = "out"
	}
	return &m, nil
}

// SourceRoots resolves the configured source directories against Root.
func (m *Manifest) SourceRoots() []string {
	if len(m.Build.Sources) == 0 {
		return []string{m.Root}
	}
	out := make([]string, 0, len(m.Build.Sources))
	for _, s := range m.Build.Sources {
		if filepath.IsAbs(s) {
			out = append(out, s)
			continue
		}
		out = append(out, filepath.Join(m.Root, s))
	}
	return out
}
