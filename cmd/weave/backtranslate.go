package main

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"weave/internal/driver"
	"weave/internal/translate"
)

type backtranslateFlags struct {
	line int
	col  int
	tag  string
}

// origin is a document position; Col is 0 when the column is unmapped.
type origin struct {
	Line int
	Col  int
}

func (o origin) String(path string) string {
	if o.Col == 0 {
		return fmt.Sprintf("%s:%d (column unmapped)", path, o.Line)
	}
	return fmt.Sprintf("%s:%d:%d", path, o.Line, o.Col)
}

func newBacktranslateCmd(a *app) *cobra.Command {
	var f backtranslateFlags
	cmd := &cobra.Command{
		Use:   "backtranslate FILE",
		Short: "Map a position in the generated unit back to the document",
		Long: `Translate FILE, then map line --line, column --col of the generated unit to
the document. The line is always mapped through the source map; the column is
mapped by the tag handler owning the line (--tag names it explicitly) and is
reported as unmapped when no handler recognises the line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fr, tr, err := a.translateOne(cmd, args[0])
			if err != nil {
				return err
			}
			o, err := backtranslate(tr, fr, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), o.String(args[0]))
			return nil
		},
	}
	cmd.Flags().IntVar(&f.line, "line", 0, "1-based line in the generated unit")
	cmd.Flags().IntVar(&f.col, "col", 1, "1-based column in the generated unit")
	cmd.Flags().StringVar(&f.tag, "tag", "", "tag whose handler maps the column (e.g. jsp:getProperty)")
	cmd.Flags().String("dialect", "java", "target dialect (java|go)")
	cmd.Flags().Bool("no-cache", false, "bypass the translation cache")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

func backtranslate(tr *translate.Translator, fr *driver.FileResult, f backtranslateFlags) (origin, error) {
	res := fr.Result
	orig, ok := res.SourceMap.Original(f.line)
	if !ok {
		return origin{}, fmt.Errorf("line %d out of range (unit has %d lines)", f.line, res.SourceMap.Len())
	}
	if f.col < 1 {
		return origin{}, fmt.Errorf("column must be at least 1, got %d", f.col)
	}
	lines := strings.Split(res.Text, "\n")
	translated := ""
	if f.line <= len(lines) {
		translated = lines[f.line-1]
	}
	origLine, err := safecast.Conv[uint32](orig)
	if err != nil {
		return origin{}, fmt.Errorf("original line %d: %w", orig, err)
	}
	original := fr.File.GetLine(origLine)
	off := tr.BackTranslateOffset(original, translated, f.col-1, f.tag)
	if off == translate.Unmapped {
		return origin{Line: orig}, nil
	}
	return origin{Line: orig, Col: off + 1}, nil
}
