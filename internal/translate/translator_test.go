package translate_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"weave/internal/diag"
	"weave/internal/dialect"
	"weave/internal/source"
	"weave/internal/tag"
	"weave/internal/tag/jsp"
	"weave/internal/testkit"
	"weave/internal/translate"
)

// scripted is a handler whose end-of-tag step is supplied by the test.
type scripted struct {
	attrs map[string]string
	end   func(h *scripted, sink tag.Sink, line int) error
}

func (h *scripted) AddAttribute(name, value string, _ int) {
	if h.attrs == nil {
		h.attrs = make(map[string]string)
	}
	h.attrs[name] = value
}

func (h *scripted) ProcessEndTag(sink tag.Sink, line int) error {
	return h.end(h, sink, line)
}

func (h *scripted) BackTranslateOffsetInLine(string, string, int) int { return 7 }

func testLibrary(t *testing.T) *tag.Library {
	t.Helper()
	lib := tag.NewLibrary()
	lib.MustRegister("x:ok", func() tag.Handler {
		return &scripted{end: func(h *scripted, sink tag.Sink, line int) error {
			sink.AppendDeclaration("int "+h.attrs["v"]+";", line)
			sink.AppendContent("use("+h.attrs["v"]+");\ndone();", line)
			return nil
		}}
	})
	lib.MustRegister("x:fail", func() tag.Handler {
		return &scripted{end: func(_ *scripted, sink tag.Sink, line int) error {
			sink.AppendContent("partial();", line)
			return errors.New("boom")
		}}
	})
	lib.MustRegister("x:panic", func() tag.Handler {
		return &scripted{end: func(*scripted, tag.Sink, int) error {
			panic("handler exploded")
		}}
	})
	return lib
}

func translateString(t *testing.T, tr *translate.Translator, name, input string) *translate.Result {
	t.Helper()
	res, err := tr.Translate(context.Background(), strings.NewReader(input), name)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	doc := source.NewVirtualFile(name, []byte(input))
	if err := testkit.CheckResultInvariants(res, doc); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	return res
}

func lines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func TestEmptyDocument(t *testing.T) {
	res := translateString(t, translate.New(translate.Options{}), "index.jsp", "")
	want := "public class index {\n\n  public void out() {\n  }\n}\n"
	if res.Text != want {
		t.Errorf("text mismatch:\n%s", cmp.Diff(want, res.Text))
	}
	if diff := cmp.Diff([]int{1, 1, 1, 1, 1}, res.SourceMap.Lines()); diff != "" {
		t.Errorf("map (-want +got):\n%s", diff)
	}
	if res.Name != "index" {
		t.Errorf("Name = %q", res.Name)
	}
	if len(res.Bag.WithCode(diag.AsmEmptyUnit)) != 1 {
		t.Errorf("expected empty-unit info, got %v", res.Bag.Items())
	}
}

func TestLiteralLines(t *testing.T) {
	res := translateString(t, translate.New(translate.Options{}), "a.jsp", "a\n\"b\"\nc")
	want := []string{
		"public class a {",
		"",
		"  public void out() {",
		`    System.out.println("a");`,
		`    System.out.println("\"b\"");`,
		`    System.out.print("c");`,
		"  }",
		"}",
	}
	if diff := cmp.Diff(want, lines(res.Text)); diff != "" {
		t.Errorf("text (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1, 1, 1, 2, 3, 3, 1}, res.SourceMap.Lines()); diff != "" {
		t.Errorf("map (-want +got):\n%s", diff)
	}
}

func TestFragmentLineSplitting(t *testing.T) {
	input := "<%! int a;\nint b; %>\nx<% foo();\nbar(); %>"
	res := translateString(t, translate.New(translate.Options{}), "pages/page.jsp", input)
	want := []string{
		"public class page {",
		"",
		" int a;",
		"int b; ",
		"  public void out() {",
		`    System.out.println("");`,
		`    System.out.print("x");`,
		" foo();",
		"bar(); ",
		"  }",
		"}",
	}
	if diff := cmp.Diff(want, lines(res.Text)); diff != "" {
		t.Errorf("text (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1, 1, 2, 2, 2, 3, 3, 4, 4, 1}, res.SourceMap.Lines()); diff != "" {
		t.Errorf("map (-want +got):\n%s", diff)
	}
}

func TestBuiltinTags(t *testing.T) {
	lib, err := jsp.NewLibrary(dialect.Java{})
	if err != nil {
		t.Fatal(err)
	}
	tr := translate.New(translate.Options{})
	tr.SetRegistry(lib)
	input := "<jsp:useBean id=\"cart\" class=\"Cart\"/>\nTotal: <jsp:getProperty name=\"cart\" property=\"total\"/>\n"
	res := translateString(t, tr, "cart.jsp", input)
	want := []string{
		"public class cart {",
		"",
		"  public void out() {",
		"    Cart cart = new Cart();",
		`    System.out.println("");`,
		`    System.out.print("Total: ");`,
		"    System.out.print(cart.getTotal());",
		`    System.out.println("");`,
		"  }",
		"}",
	}
	if diff := cmp.Diff(want, lines(res.Text)); diff != "" {
		t.Errorf("text (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1, 1, 1, 1, 2, 2, 2, 2, 1}, res.SourceMap.Lines()); diff != "" {
		t.Errorf("map (-want +got):\n%s", diff)
	}
	if res.Bag.Len() != 0 {
		t.Errorf("unexpected diagnostics %v", res.Bag.Items())
	}
}

func TestHandlerOutputRegions(t *testing.T) {
	tr := translate.New(translate.Options{})
	tr.SetRegistry(testLibrary(t))
	res := translateString(t, tr, "r.jsp", "top\n<x:ok v=\"n\"/>")
	want := []string{
		"public class r {",
		"",
		"int n;",
		"  public void out() {",
		`    System.out.println("top");`,
		"use(n);",
		"done();",
		"  }",
		"}",
	}
	if diff := cmp.Diff(want, lines(res.Text)); diff != "" {
		t.Errorf("text (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 2, 2, 2, 1, 2, 2, 2, 2}, res.SourceMap.Lines()); diff != "" {
		t.Errorf("map (-want +got):\n%s", diff)
	}
}

func TestHandlerFaultTolerance(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := translate.New(translate.Options{Logger: zap.New(core)})
	tr.SetRegistry(testLibrary(t))

	input := "<x:fail/>\n<x:panic a=\"1\"/>\nafter\n"
	res := translateString(t, tr, "f.jsp", input)
	want := []string{
		"public class f {",
		"",
		"  public void out() {",
		`    System.out.println("");`,
		`    System.out.println("");`,
		`    System.out.println("after");`,
		"  }",
		"}",
	}
	if diff := cmp.Diff(want, lines(res.Text)); diff != "" {
		t.Errorf("text (-want +got):\n%s", diff)
	}
	if strings.Contains(res.Text, "partial") {
		t.Error("output of a failed handler must be discarded")
	}

	failed := res.Bag.WithCode(diag.TagHandlerFailed)
	if len(failed) != 2 {
		t.Fatalf("expected 2 handler warnings, got %v", res.Bag.Items())
	}
	for _, d := range failed {
		if d.Severity != diag.SevWarning {
			t.Errorf("handler failure must be a warning, got %s", d.Severity)
		}
	}
	if failed[0].Line != 1 || failed[1].Line != 2 {
		t.Errorf("unexpected lines %d, %d", failed[0].Line, failed[1].Line)
	}

	entries := logs.FilterMessage("tag handler failed").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if got := entries[1].ContextMap()["tag"]; got != "x:panic" {
		t.Errorf("logged tag = %v", got)
	}
	if got := entries[1].ContextMap()["error"]; !strings.Contains(got.(string), "handler exploded") {
		t.Errorf("logged error = %v", got)
	}
}

// attrPanic fails while collecting attributes.
type attrPanic struct{ ended bool }

func (h *attrPanic) AddAttribute(string, string, int) { panic("bad attribute") }

func (h *attrPanic) ProcessEndTag(sink tag.Sink, line int) error {
	h.ended = true
	sink.AppendContent("never();", line)
	return nil
}

func (h *attrPanic) BackTranslateOffsetInLine(string, string, int) int { return -1 }

func TestAttributePanicDropsTag(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := &attrPanic{}
	lib := tag.NewLibrary()
	lib.MustRegister("x:attr", func() tag.Handler { return h })
	tr := translate.New(translate.Options{Logger: zap.New(core)})
	tr.SetRegistry(lib)

	res := translateString(t, tr, "p.jsp", "<x:attr a=\"1\"/>\nafter\n")
	if h.ended || strings.Contains(res.Text, "never();") {
		t.Error("end step must not run after a failed attribute")
	}
	if !strings.Contains(res.Text, `System.out.println("after");`) {
		t.Errorf("following literal line lost:\n%s", res.Text)
	}
	failed := res.Bag.WithCode(diag.TagHandlerFailed)
	if len(failed) != 1 || failed[0].Line != 1 || !strings.Contains(failed[0].Message, "bad attribute") {
		t.Errorf("expected one handler warning on line 1, got %v", res.Bag.Items())
	}
	if logs.FilterMessage("tag handler failed").Len() != 1 {
		t.Errorf("expected one log entry, got %v", logs.All())
	}
}

func TestRetainedSinkIsClosed(t *testing.T) {
	var kept tag.Sink
	lib := tag.NewLibrary()
	lib.MustRegister("x:keep", func() tag.Handler {
		return &scripted{end: func(_ *scripted, sink tag.Sink, line int) error {
			kept = sink
			sink.AppendContent("kept();", line)
			return nil
		}}
	})
	lib.MustRegister("x:late", func() tag.Handler {
		return &scripted{end: func(*scripted, tag.Sink, int) error {
			kept.AppendContent("late();", 3)
			kept.AppendDeclaration("int late;", 3)
			kept.AppendLocalDeclaration("int local;", 3)
			return nil
		}}
	})
	tr := translate.New(translate.Options{})
	tr.SetRegistry(lib)

	res := translateString(t, tr, "k.jsp", "<x:keep/>\n<x:late/>\nafter\n")
	want := []string{
		"public class k {",
		"",
		"  public void out() {",
		"kept();",
		`    System.out.println("");`,
		`    System.out.println("");`,
		`    System.out.println("after");`,
		"  }",
		"}",
	}
	if diff := cmp.Diff(want, lines(res.Text)); diff != "" {
		t.Errorf("text (-want +got):\n%s", diff)
	}
	if res.Bag.Len() != 0 {
		t.Errorf("unexpected diagnostics %v", res.Bag.Items())
	}

	kept.AppendContent("after-return();", 1)
	again := translateString(t, tr, "k.jsp", "<x:late/>\n")
	if strings.Contains(again.Text, "after-return") || strings.Contains(again.Text, "late") {
		t.Errorf("writes through a retained sink leaked:\n%s", again.Text)
	}
}

func TestSessionIsolation(t *testing.T) {
	tr := translate.New(translate.Options{})
	tr.SetRegistry(testLibrary(t))
	first := translateString(t, tr, "a.jsp", "<%! int a; %><x:ok v=\"q\"/><x:fail/>body\n")
	if first.Bag.Len() == 0 {
		t.Fatal("first translation should carry a warning")
	}
	second := translateString(t, tr, "a.jsp", "")
	if second.Text != "public class a {\n\n  public void out() {\n  }\n}\n" {
		t.Errorf("state leaked into second translation:\n%s", second.Text)
	}
	if second.Bag.WithCode(diag.TagHandlerFailed) != nil {
		t.Errorf("diagnostics leaked: %v", second.Bag.Items())
	}
}

func TestUnknownTags(t *testing.T) {
	input := "<x:nope a=\"1\">in</x:nope>"
	quiet := translateString(t, translate.New(translate.Options{}), "u.jsp", input)
	if quiet.Bag.Len() != 0 {
		t.Errorf("unknown tags are not reported by default: %v", quiet.Bag.Items())
	}
	loud := translateString(t, translate.New(translate.Options{ReportUnknownTags: true}), "u.jsp", input)
	got := loud.Bag.WithCode(diag.TagUnknown)
	if len(got) != 1 || got[0].Severity != diag.SevInfo {
		t.Errorf("expected one info for the opening tag, got %v", loud.Bag.Items())
	}
	if !strings.Contains(loud.Text, `System.out.print("in");`) {
		t.Errorf("body text lost:\n%s", loud.Text)
	}
}

func TestGoDialect(t *testing.T) {
	tr := translate.New(translate.Options{Dialect: dialect.Go{}})
	res := translateString(t, tr, "Index.jsp", "hi\n")
	if !strings.HasPrefix(res.Text, "package index\n") {
		t.Errorf("unexpected unit open:\n%s", res.Text)
	}
	if !strings.Contains(res.Text, "\tio.WriteString(out, \"hi\\n\")\n") {
		t.Errorf("missing print statement:\n%s", res.Text)
	}
	if res.SourceMap.Len() != 13 {
		t.Errorf("map length = %d, want 13", res.SourceMap.Len())
	}
}

func TestScannerDiagnosticsDoNotAbort(t *testing.T) {
	res := translateString(t, translate.New(translate.Options{}), "s.jsp", "ok\n<% broken(")
	if !res.Bag.HasErrors() {
		t.Error("expected a scanner error")
	}
	if !strings.Contains(res.Text, `System.out.println("ok");`) {
		t.Errorf("text before the error was lost:\n%s", res.Text)
	}
}

type failingReader struct{}

var errBroken = errors.New("broken pipe")

func (failingReader) Read([]byte) (int, error) { return 0, errBroken }

func TestReadFailureIsFatal(t *testing.T) {
	tr := translate.New(translate.Options{})
	res, err := tr.Translate(context.Background(), failingReader{}, "x.jsp")
	if res != nil || !errors.Is(err, errBroken) {
		t.Errorf("got %v, %v; want nil and errBroken", res, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Translate(ctx, strings.NewReader("x"), "x.jsp"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBackTranslateOffset(t *testing.T) {
	lib, err := jsp.NewLibrary(dialect.Java{})
	if err != nil {
		t.Fatal(err)
	}
	tr := translate.New(translate.Options{})
	if got := tr.BackTranslateOffset("<jsp:include page=\"a\"/>", "include(\"a\");", 9, ""); got != translate.Unmapped {
		t.Errorf("without registry got %d", got)
	}
	tr.SetRegistry(lib)

	orig := `<jsp:getProperty name="cart" property="total"/>`
	gen := `    System.out.print(cart.getTotal());`
	cartGen := strings.Index(gen, "cart")
	cartOrig := strings.Index(orig, "cart")
	continuation := `   name="cart" property="total"/>`

	tests := []struct {
		name      string
		orig, gen string
		offset    int
		tag       string
		want      int
	}{
		{"by tag name", orig, gen, cartGen, jsp.GetProperty, cartOrig},
		{"by original line", orig, gen, cartGen, "", cartOrig},
		{"by translated line", continuation, gen, cartGen, "", strings.Index(continuation, "cart")},
		{"unknown tag", orig, gen, cartGen, "x:none", translate.Unmapped},
		{"no handler", "plain text", `    System.out.println("plain text");`, 4, "", translate.Unmapped},
		{"handler cannot map", orig, gen, 0, "", translate.Unmapped},
	}
	for _, tt := range tests {
		if got := tr.BackTranslateOffset(tt.orig, tt.gen, tt.offset, tt.tag); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}

	tr.SetRegistry(testLibrary(t))
	if got := tr.BackTranslateOffset("a", "b", 0, "x:ok"); got != 7 {
		t.Errorf("handler result must be returned unchanged, got %d", got)
	}
}

func TestConcurrentTranslations(t *testing.T) {
	lib, err := jsp.NewLibrary(dialect.Java{})
	if err != nil {
		t.Fatal(err)
	}
	tr := translate.New(translate.Options{})
	tr.SetRegistry(lib)
	inputs := []string{
		"",
		"a\nb\n",
		"<jsp:useBean id=\"b\" class=\"B\"/>\n<jsp:getProperty name=\"b\" property=\"x\"/>",
		"<%! int i; %>\n<% i++; %>\n<%= i %>",
	}
	want := make([]string, len(inputs))
	for i, in := range inputs {
		want[i] = translateString(t, tr, "c.jsp", in).Text
	}

	var wg sync.WaitGroup
	got := make([]string, len(inputs)*4)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := tr.Translate(context.Background(), strings.NewReader(inputs[i%len(inputs)]), "c.jsp")
			if err != nil {
				t.Error(err)
				return
			}
			got[i] = res.Text
		}()
	}
	wg.Wait()
	for i, text := range got {
		if text != want[i%len(inputs)] {
			t.Errorf("concurrent translation %d differs", i)
		}
	}
}

func TestBaseName(t *testing.T) {
	for in, want := range map[string]string{
		"a/b/index.jsp": "index",
		"index":         "index",
		"x.tar.jsp":     "x.tar",
	} {
		if got := translate.BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
