package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"weave/internal/driver"
	"weave/internal/tag/jsp"
	"weave/internal/translate"
)

// mapEntry is one generated line and where it came from.
type mapEntry struct {
	Generated int    `json:"generated" yaml:"generated"`
	Original  int    `json:"original" yaml:"original"`
	Text      string `json:"text" yaml:"text"`
}

type mapDocument struct {
	Unit   string     `json:"unit" yaml:"unit"`
	Source string     `json:"source" yaml:"source"`
	Lines  []mapEntry `json:"lines" yaml:"lines"`
}

func newMapCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "map FILE",
		Short: "Show the source map of a translated document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fr, tr, err := a.translateOne(cmd, args[0])
			if err != nil {
				return err
			}
			res := fr.Result
			colored, err := colorEnabled(cmd, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return renderMap(cmd.OutOrStdout(), res, res.Name+tr.Dialect().Ext(), format, colored)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format (table|json|yaml|smap)")
	cmd.Flags().String("dialect", "java", "target dialect (java|go)")
	cmd.Flags().Bool("no-cache", false, "bypass the translation cache")
	return cmd
}

// translateOne translates a single document with the effective settings. The
// returned translator is configured like the one that produced the result.
func (a *app) translateOne(cmd *cobra.Command, path string) (*driver.FileResult, *translate.Translator, error) {
	s, err := loadSettings(filepath.Dir(path))
	if err != nil {
		return nil, nil, err
	}
	if err := s.applyFlags(cmd); err != nil {
		return nil, nil, err
	}
	opts, err := s.driverOptions(a.log)
	if err != nil {
		return nil, nil, err
	}
	lib, err := jsp.NewLibrary(opts.Translate.Dialect)
	if err != nil {
		return nil, nil, err
	}
	opts.Registry = lib
	tr := translate.New(opts.Translate)
	tr.SetRegistry(lib)

	fr, err := driver.TranslateFile(cmd.Context(), path, opts)
	if err != nil {
		return nil, nil, err
	}
	return fr, tr, nil
}

func buildMapDocument(res *translate.Result) mapDocument {
	doc := mapDocument{Unit: res.Name, Source: res.Source}
	lines := strings.Split(strings.TrimSuffix(res.Text, "\n"), "\n")
	for i, orig := range res.SourceMap.Lines() {
		text := ""
		if i < len(lines) {
			text = lines[i]
		}
		doc.Lines = append(doc.Lines, mapEntry{Generated: i + 1, Original: orig, Text: text})
	}
	return doc
}

func renderMap(w io.Writer, res *translate.Result, unitFile, format string, colored bool) error {
	switch format {
	case "table":
		renderMapTable(w, buildMapDocument(res), colored)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(buildMapDocument(res))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(buildMapDocument(res)); err != nil {
			return err
		}
		return enc.Close()
	case "smap":
		return res.SourceMap.WriteStratum(w, unitFile, filepath.Base(res.Source), "")
	default:
		return fmt.Errorf("unsupported format %q (must be table, json, yaml or smap)", format)
	}
}

func renderMapTable(w io.Writer, doc mapDocument, colored bool) {
	r := lipgloss.NewRenderer(w)
	if colored {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	width := len(strconv.Itoa(len(doc.Lines)))
	if width < 3 {
		width = 3
	}
	header := r.NewStyle().Bold(true)
	num := r.NewStyle().Width(width).Align(lipgloss.Right).Foreground(lipgloss.Color("6"))
	synthetic := r.NewStyle().Foreground(lipgloss.Color("8"))

	fmt.Fprintln(w, header.Render(fmt.Sprintf("%s <- %s", doc.Unit, doc.Source)))
	fmt.Fprintln(w, header.Render(fmt.Sprintf("%*s %*s  %s", width, "gen", width, "src", "text")))
	prev := 0
	for _, e := range doc.Lines {
		text := e.Text
		// lines that share the previous line's provenance are synthetic
		if e.Original == prev && e.Generated > 1 {
			text = synthetic.Render(text)
		}
		fmt.Fprintf(w, "%s %s  %s\n", num.Render(strconv.Itoa(e.Generated)), num.Render(strconv.Itoa(e.Original)), text)
		prev = e.Original
	}
}
