package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"weave/internal/diag"
	"weave/internal/observ"
	"weave/internal/project"
	"weave/internal/smap"
	"weave/internal/source"
	"weave/internal/translate"
)

// Increment when DiskPayload or the generated output format changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores translation results on disk keyed by a digest of the
// document and everything that affects its translation. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the msgpack form of a translate.Result.
type DiskPayload struct {
	Schema      uint16
	Name        string
	Source      string
	Text        string
	Lines       []uint32
	Diagnostics []diag.Diagnostic
	Timing      observ.Report
}

// OpenDiskCache opens the cache in dir, or in $XDG_CACHE_HOME/weave
// (~/.cache/weave) when dir is empty.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "weave")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put writes payload under key, replacing any previous entry atomically.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload stored under key. A missing entry is not an error.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func resultToPayload(res *translate.Result) (*DiskPayload, error) {
	lines, err := res.SourceMap.Compact()
	if err != nil {
		return nil, err
	}
	return &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Name:        res.Name,
		Source:      res.Source,
		Text:        res.Text,
		Lines:       lines,
		Diagnostics: append([]diag.Diagnostic(nil), res.Bag.Items()...),
		Timing:      res.Timing,
	}, nil
}

// payloadToResult rebuilds a result for file; diagnostics are re-pointed at it
// and Source is taken from the file, not from the stored entry.
func payloadToResult(p *DiskPayload, file *source.File, maxDiagnostics int) *translate.Result {
	bag := diag.NewBag(maxDiagnostics)
	for _, d := range p.Diagnostics {
		d.Primary.File = file.ID
		for i := range d.Notes {
			d.Notes[i].Span.File = file.ID
		}
		bag.Add(d)
	}
	return &translate.Result{
		Name:      p.Name,
		Source:    file.Path,
		Text:      p.Text,
		SourceMap: smap.FromCompact(p.Lines),
		Bag:       bag,
		Timing:    p.Timing,
	}
}
