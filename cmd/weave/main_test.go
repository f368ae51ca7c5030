package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"weave/internal/driver"
	"weave/internal/smap"
	"weave/internal/source"
	"weave/internal/translate"
)

const cartPage = "<jsp:useBean id=\"cart\" class=\"Cart\"/>\nTotal: <jsp:getProperty name=\"cart\" property=\"total\"/>\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = execute(append(args, "--color", "off"), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestTranslateWritesUnits(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(src, "cart.jsp"), cartPage)
	writeFile(t, filepath.Join(src, "admin", "broken.jsp"), "<jsp:useBean id=\"x\"/>\nstill here\n")

	_, stderr, err := run(t, "translate", src, "--out", out, "--ui", "off", "--no-cache")
	if err != nil {
		t.Fatalf("translate failed: %v\n%s", err, stderr)
	}
	for _, name := range []string{"cart.java", "cart.java.smap", filepath.Join("admin", "broken.java")} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	for _, want := range []string{"translated 2 of 2 documents (0 cached)", "WARNING TAG2001", "admin/broken.jsp:1:1", "0 errors, 1 warning"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
	unit, err := os.ReadFile(filepath.Join(out, "admin", "broken.java"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(unit), `System.out.println("still here");`) {
		t.Errorf("text after a failed tag must survive:\n%s", unit)
	}
}

func TestTranslateStdoutGoDialect(t *testing.T) {
	src := t.TempDir()
	path := filepath.Join(src, "Page.jsp")
	writeFile(t, path, "hi\n")

	stdout, _, err := run(t, "translate", path, "--stdout", "--dialect", "go", "--no-cache", "--quiet")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"package page\n", "func Render(out io.Writer) {", `io.WriteString(out, "hi\n")`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestTranslateFailsOnScanErrors(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "bad.jsp"), "ok\n<% never closed\n")

	_, stderr, err := run(t, "translate", src, "--out", t.TempDir(), "--ui", "off", "--no-cache")
	if err == nil || !strings.Contains(err.Error(), "1 document(s) with errors") {
		t.Fatalf("expected failure, got %v", err)
	}
	if !strings.Contains(stderr, "ERROR SCN1001") {
		t.Errorf("expected scanner error in output:\n%s", stderr)
	}
}

func TestTranslateJSONDiagnostics(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "x.jsp"), "<jsp:useBean id=\"x\"/>\n")

	stdout, _, err := run(t, "translate", src, "--out", t.TempDir(), "--ui", "off", "--no-cache", "--diagnostics", "json", "--quiet")
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Count       int `json:"count"`
		Diagnostics []struct {
			Code string `json:"code"`
			Line uint32 `json:"line"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if doc.Count != 1 || doc.Diagnostics[0].Code != "TAG2001" || doc.Diagnostics[0].Line != 1 {
		t.Errorf("unexpected diagnostics %+v", doc)
	}
}

func TestTranslateErrors(t *testing.T) {
	empty := t.TempDir()
	if _, _, err := run(t, "translate", empty, "--ui", "off", "--no-cache"); err == nil || !strings.Contains(err.Error(), "no documents") {
		t.Errorf("expected no documents error, got %v", err)
	}
	if _, _, err := run(t, "translate", empty, "--ui", "maybe"); err == nil {
		t.Error("expected invalid --ui error")
	}
	if _, _, err := run(t, "translate", empty, "--dialect", "cobol"); err == nil {
		t.Error("expected invalid dialect error")
	}
	if _, _, err := run(t, "translate", empty, "--log-level", "loud"); err == nil {
		t.Error("expected invalid log level error")
	}
}

func TestInitAndTranslateProject(t *testing.T) {
	root := filepath.Join(t.TempDir(), "shop")
	if _, _, err := run(t, "init", root); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "init", root); err == nil {
		t.Error("init must refuse to overwrite weave.toml")
	}
	writeFile(t, filepath.Join(root, "pages", "cart.jsp"), cartPage)

	t.Chdir(filepath.Join(root, "pages"))
	if _, stderr, err := run(t, "translate", "--ui", "off", "--no-cache"); err != nil {
		t.Fatalf("translate failed: %v\n%s", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(root, "build", "pages", "cart.java")); err != nil {
		t.Errorf("expected unit under the manifest out_dir: %v", err)
	}
}

func TestMapFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.jsp")
	writeFile(t, path, cartPage)

	stdout, _, err := run(t, "map", path, "--format", "json", "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	var doc mapDocument
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	var origins []int
	for _, e := range doc.Lines {
		origins = append(origins, e.Original)
	}
	if diff := cmp.Diff([]int{1, 1, 1, 1, 1, 2, 2, 2, 2, 1}, origins); diff != "" {
		t.Errorf("map (-want +got):\n%s", diff)
	}
	if doc.Unit != "cart" || doc.Lines[6].Text != "    System.out.print(cart.getTotal());" {
		t.Errorf("unexpected document %+v", doc)
	}

	stdout, _, err = run(t, "map", path, "--format", "yaml", "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML mapDocument
	if err := yaml.Unmarshal([]byte(stdout), &fromYAML); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(doc, fromYAML); diff != "" {
		t.Errorf("yaml and json disagree (-json +yaml):\n%s", diff)
	}

	stdout, _, err = run(t, "map", path, "--format", "smap", "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "SMAP\ncart.java\nJSP\n") || !strings.HasSuffix(stdout, "*E\n") {
		t.Errorf("unexpected SMAP:\n%s", stdout)
	}

	stdout, _, err = run(t, "map", path, "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "cart <- ") || !strings.Contains(stdout, "  7   2      System.out.print(cart.getTotal());") {
		t.Errorf("unexpected table:\n%s", stdout)
	}
	if strings.Contains(stdout, "\x1b[") {
		t.Error("table contains escape codes with --color off")
	}

	if _, _, err := run(t, "map", path, "--format", "xml"); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestBacktranslate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.jsp")
	writeFile(t, path, cartPage)
	origLine := "Total: <jsp:getProperty name=\"cart\" property=\"total\"/>"
	genLine := "    System.out.print(cart.getTotal());"
	col := strings.Index(genLine, "cart") + 1

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"by line", []string{"--line", "7", "--col", itoa(col)}, path + ":2:" + itoa(strings.Index(origLine, "cart")+1) + "\n"},
		{"by tag", []string{"--line", "7", "--col", itoa(col), "--tag", "jsp:getProperty"}, path + ":2:" + itoa(strings.Index(origLine, "cart")+1) + "\n"},
		{"unknown tag", []string{"--line", "7", "--col", itoa(col), "--tag", "x:none"}, path + ":2 (column unmapped)\n"},
		{"synthetic line", []string{"--line", "1"}, path + ":1 (column unmapped)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := run(t, append([]string{"backtranslate", path, "--no-cache"}, tt.args...)...)
			if err != nil {
				t.Fatal(err)
			}
			if stdout != tt.want {
				t.Errorf("got %q, want %q", stdout, tt.want)
			}
		})
	}

	if _, _, err := run(t, "backtranslate", path, "--line", "99", "--no-cache"); err == nil {
		t.Error("expected out of range error")
	}
	if _, _, err := run(t, "backtranslate", path, "--no-cache"); err == nil {
		t.Error("expected error without --line")
	}
}

func TestBacktranslateRejectsBadMapEntry(t *testing.T) {
	fr := &driver.FileResult{
		File: source.NewVirtualFile("a.jsp", []byte("a\n")),
		Result: &translate.Result{
			Text:      "x\n",
			SourceMap: smap.New([]int{-1}),
		},
	}
	_, err := backtranslate(translate.New(translate.Options{}), fr, backtranslateFlags{line: 1, col: 1})
	if err == nil || !strings.Contains(err.Error(), "original line -1") {
		t.Fatalf("expected conversion error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "weave ") {
		t.Errorf("unexpected version output %q", stdout)
	}
	stdout, _, err = run(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "weave" || len(payload.Dialects) != 2 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestTraceOutput(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.jsp"), "a\n")
	traceFile := filepath.Join(t.TempDir(), "trace.ndjson")

	if _, _, err := run(t, "translate", src, "--stdout", "--quiet", "--no-cache", "--trace", traceFile); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(traceFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "file:") {
		t.Errorf("expected file spans in trace:\n%s", data)
	}
}

func TestProfilingFlags(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.jsp"), cartPage)
	profDir := t.TempDir()
	cpu := filepath.Join(profDir, "cpu.pprof")
	mem := filepath.Join(profDir, "mem.pprof")

	if _, _, err := run(t, "translate", src, "--stdout", "--quiet", "--no-cache", "--cpu-profile", cpu, "--mem-profile", mem); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{cpu, mem} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("profile %s not written: %v", filepath.Base(p), err)
		}
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
