// Package project loads weave.toml, the per-project translation settings.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"weave/internal/dialect"
	"weave/internal/source"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

// Manifest is a decoded weave.toml.
type Manifest struct {
	Path string `toml:"-"`
	Root string `toml:"-"`

	Package   PackageSection   `toml:"package"`
	Translate TranslateSection `toml:"translate"`
	Cache     CacheSection     `toml:"cache"`
	Log       LogSection       `toml:"log"`
}

type PackageSection struct {
	Name string `toml:"name"`
}

type TranslateSection struct {
	Dialect           string   `toml:"dialect"`
	Encoding          string   `toml:"encoding"`
	Extensions        []string `toml:"extensions"`
	OutDir            string   `toml:"out_dir"`
	MaxDiagnostics    int      `toml:"max_diagnostics"`
	Jobs              int      `toml:"jobs"`
	ReportUnknownTags bool     `toml:"report_unknown_tags"`
}

type CacheSection struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type LogSection struct {
	Level string `toml:"level"`
}

// Default returns the settings used when no manifest exists.
func Default(name string) Manifest {
	return Manifest{
		Package: PackageSection{Name: name},
		Translate: TranslateSection{
			Dialect:        "java",
			Extensions:     []string{".jsp"},
			OutDir:         "build",
			MaxDiagnostics: 100,
		},
		Cache: CacheSection{Enabled: true},
		Log:   LogSection{Level: "warn"},
	}
}

// LoadManifest reads and validates a weave.toml. Keys that are absent keep
// their Default values.
func LoadManifest(path string) (*Manifest, error) {
	m := Default("")
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	m.Package.Name = strings.TrimSpace(m.Package.Name)
	if !meta.IsDefined("package", "name") || m.Package.Name == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	m.Root = filepath.Dir(path)
	return &m, nil
}

func (m *Manifest) validate() error {
	if _, err := dialect.Parse(m.Translate.Dialect); err != nil {
		return fmt.Errorf("[translate].dialect: %w", err)
	}
	if err := source.ValidEncoding(m.Translate.Encoding); err != nil {
		return fmt.Errorf("[translate].encoding: %w", err)
	}
	if m.Translate.Jobs < 0 {
		return fmt.Errorf("[translate].jobs must not be negative")
	}
	if m.Translate.MaxDiagnostics < 0 {
		return fmt.Errorf("[translate].max_diagnostics must not be negative")
	}
	for i, ext := range m.Translate.Extensions {
		if !strings.HasPrefix(ext, ".") {
			m.Translate.Extensions[i] = "." + ext
		}
	}
	return nil
}

// ResolveDir resolves p against the manifest root unless it is absolute.
func (m *Manifest) ResolveDir(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Root == "" {
		return p
	}
	return filepath.Join(m.Root, p)
}

// Encode renders m as TOML.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault creates dir/weave.toml with default settings. It refuses to
// overwrite an existing manifest.
func WriteDefault(dir, name string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}
	m := Default(name)
	data, err := m.Encode()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
