package tag_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"weave/internal/tag"
)

type stubHandler struct {
	tag.Attributes
	name   string
	marker string
}

func (h *stubHandler) AddAttribute(name, value string, _ int) { h.Set(name, value) }

func (h *stubHandler) ProcessEndTag(tag.Sink, int) error { return nil }

func (h *stubHandler) BackTranslateOffsetInLine(string, string, int) int { return -1 }

func (h *stubHandler) MatchLine(line string) bool {
	return h.marker != "" && strings.Contains(line, h.marker)
}

func newLibrary(t *testing.T) *tag.Library {
	t.Helper()
	lib := tag.NewLibrary()
	lib.MustRegister("x:a", func() tag.Handler { return &stubHandler{name: "x:a", marker: "alpha()"} })
	lib.MustRegister("x:b", func() tag.Handler { return &stubHandler{name: "x:b"} })
	return lib
}

func TestLibraryResolveFresh(t *testing.T) {
	lib := newLibrary(t)
	h1, ok := lib.Resolve("x:a")
	if !ok {
		t.Fatal("x:a not resolved")
	}
	h2, _ := lib.Resolve("x:a")
	if h1 == h2 {
		t.Error("Resolve must return a fresh handler each time")
	}
	if _, ok := lib.Resolve("x:zzz"); ok {
		t.Error("unknown tag resolved")
	}
}

func TestLibraryDuplicate(t *testing.T) {
	lib := newLibrary(t)
	if err := lib.Register("x:a", func() tag.Handler { return &stubHandler{} }); err == nil {
		t.Error("expected duplicate registration error")
	}
	if err := lib.Register("", nil); err == nil {
		t.Error("expected invalid registration error")
	}
	if diff := cmp.Diff([]string{"x:a", "x:b"}, lib.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestLibraryFindByLine(t *testing.T) {
	lib := newLibrary(t)
	tests := []struct {
		line string
		want string
	}{
		{`<p><x:b id="1"/></p>`, "x:b"},
		{`</x:a>`, "x:a"},
		{`<y:c/> <x:b/>`, "x:b"},
		{`    alpha();`, "x:a"},
		{`nothing here`, ""},
	}
	for _, tt := range tests {
		h, ok := lib.FindByLine(tt.line)
		got := ""
		if ok {
			got = h.(*stubHandler).name
		}
		if got != tt.want {
			t.Errorf("FindByLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestLibraryFingerprint(t *testing.T) {
	a, b := newLibrary(t), newLibrary(t)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal libraries must share a fingerprint")
	}
	b.MustRegister("x:c", func() tag.Handler { return &stubHandler{} })
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("fingerprint must change with registrations")
	}
}

func TestLibraryConcurrentResolve(t *testing.T) {
	lib := newLibrary(t)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if _, ok := lib.Resolve("x:b"); !ok {
					t.Error("x:b not resolved")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestAttributesRequire(t *testing.T) {
	var a tag.Attributes
	a.Set("id", "cart")
	a.Set("class", "")
	a.Set("id", "bag")
	if a.Len() != 2 || a.Value("id") != "bag" {
		t.Fatalf("unexpected attributes %v", a.Names())
	}
	if err := a.Require("x:a", 3, "id"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := a.Require("x:a", 3, "id", "class")
	var he *tag.HandlerError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HandlerError, got %T", err)
	}
	if he.Tag != "x:a" || he.Line != 3 || !errors.Is(err, tag.ErrMissingAttribute) {
		t.Errorf("unexpected error %+v", he)
	}
	if !strings.Contains(err.Error(), `"class"`) {
		t.Errorf("message should name the attribute: %v", err)
	}
}
