package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"weave/internal/dialect"
	"weave/internal/driver"
	"weave/internal/project"
	"weave/internal/translate"
)

// settings are the effective translation settings: weave.toml (or its
// defaults) overridden by command-line flags.
type settings struct {
	manifest *project.Manifest
	found    bool
	noCache  bool
}

// loadSettings looks for weave.toml from startDir upwards.
func loadSettings(startDir string) (*settings, error) {
	path, ok, err := project.FindWeaveToml(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		m := project.Default(filepath.Base(startDir))
		return &settings{manifest: &m}, nil
	}
	m, err := project.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return &settings{manifest: m, found: true}, nil
}

func manifestLogLevel() string {
	wd, err := os.Getwd()
	if err != nil {
		return "warn"
	}
	s, err := loadSettings(wd)
	if err != nil {
		return "warn"
	}
	return s.manifest.Log.Level
}

// applyFlags overrides manifest values with the flags the user set.
func (s *settings) applyFlags(cmd *cobra.Command) error {
	t := &s.manifest.Translate
	flags := cmd.Flags()
	if flags.Changed("max-diagnostics") {
		n, err := flags.GetInt("max-diagnostics")
		if err != nil {
			return err
		}
		t.MaxDiagnostics = n
	}
	if f := flags.Lookup("dialect"); f != nil && f.Changed {
		t.Dialect = f.Value.String()
	}
	if f := flags.Lookup("jobs"); f != nil && f.Changed {
		n, err := flags.GetInt("jobs")
		if err != nil {
			return err
		}
		t.Jobs = n
	}
	if f := flags.Lookup("no-cache"); f != nil && f.Changed {
		v, err := flags.GetBool("no-cache")
		if err != nil {
			return err
		}
		s.noCache = v
	}
	return nil
}

// outDir returns the output directory; manifest-relative paths are resolved
// against the project root.
func (s *settings) outDir(flag string) string {
	if flag != "" {
		return flag
	}
	return s.manifest.ResolveDir(s.manifest.Translate.OutDir)
}

// driverOptions assembles translation options; the disk cache is opened when
// enabled.
func (s *settings) driverOptions(log *zap.Logger) (driver.Options, error) {
	t := s.manifest.Translate
	d, err := dialect.Parse(t.Dialect)
	if err != nil {
		return driver.Options{}, err
	}
	opts := driver.Options{
		Translate: translate.Options{
			Dialect:           d,
			MaxDiagnostics:    t.MaxDiagnostics,
			Logger:            log,
			ReportUnknownTags: t.ReportUnknownTags,
			Encoding:          t.Encoding,
		},
		Extensions: t.Extensions,
		Jobs:       t.Jobs,
	}
	if s.manifest.Cache.Enabled && !s.noCache {
		cache, err := driver.OpenDiskCache(s.manifest.ResolveDir(s.manifest.Cache.Dir))
		if err != nil {
			log.Warn("cache disabled", zap.Error(err))
		} else {
			opts.Cache = cache
		}
	}
	return opts, nil
}
