package tag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"sync"
)

// Registry resolves handlers for the translator.
type Registry interface {
	// Resolve returns a handler for the tag name.
	Resolve(name string) (Handler, bool)
	// FindByLine returns a handler able to interpret the given line.
	FindByLine(line string) (Handler, bool)
}

// Factory creates a fresh handler for one tag occurrence.
type Factory func() Handler

// Library is a Registry backed by named factories.
type Library struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{factories: make(map[string]Factory)}
}

// Register adds a factory for name. Registering a name twice is an error.
func (l *Library) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("tag: invalid registration for %q", name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.factories[name]; dup {
		return fmt.Errorf("tag: %q already registered", name)
	}
	l.factories[name] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (l *Library) MustRegister(name string, f Factory) {
	if err := l.Register(name, f); err != nil {
		panic(err)
	}
}

// Resolve creates a new handler for name.
func (l *Library) Resolve(name string) (Handler, bool) {
	l.mu.RLock()
	f, ok := l.factories[name]
	l.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names returns the registered tag names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.factories))
	for n := range l.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Fingerprint identifies the set of registered tags.
func (l *Library) Fingerprint() string {
	h := sha256.New()
	for _, n := range l.Names() {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

var tagOpenRe = regexp.MustCompile(`</?\s*([A-Za-z_][\w.\-]*:[\w.\-]+)`)

// FindByLine looks for a registered tag opening in line first; failing that it
// asks every LineMatcher handler in name order.
func (l *Library) FindByLine(line string) (Handler, bool) {
	for _, m := range tagOpenRe.FindAllStringSubmatch(line, -1) {
		if h, ok := l.Resolve(m[1]); ok {
			return h, true
		}
	}
	for _, n := range l.Names() {
		h, ok := l.Resolve(n)
		if !ok {
			continue
		}
		if lm, ok := h.(LineMatcher); ok && lm.MatchLine(line) {
			return h, true
		}
	}
	return nil, false
}
