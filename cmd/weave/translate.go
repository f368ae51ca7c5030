package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"weave/internal/buildpipeline"
	"weave/internal/diag"
	"weave/internal/diagfmt"
)

type translateFlags struct {
	out     string
	dialect string
	jobs    int
	ui      string
	noCache bool
	stdout  bool
	format  string
}

func newTranslateCmd(a *app) *cobra.Command {
	var f translateFlags
	cmd := &cobra.Command{
		Use:   "translate [PATH...]",
		Short: "Translate documents into source units and SMAP files",
		Long: `Translate every document under the given files or directories (default:
the project root, or the current directory without weave.toml). Each document
produces <Unit><ext> and <Unit><ext>.smap in the output directory, mirroring
the input layout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTranslate(cmd, args, f)
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output directory (default [translate].out_dir)")
	cmd.Flags().StringVar(&f.dialect, "dialect", "java", "target dialect (java|go)")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "parallel translations (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&f.ui, "ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the translation cache")
	cmd.Flags().BoolVar(&f.stdout, "stdout", false, "print generated units instead of writing files")
	cmd.Flags().StringVar(&f.format, "diagnostics", "pretty", "diagnostics format (pretty|json)")
	return cmd
}

func (a *app) runTranslate(cmd *cobra.Command, args []string, f translateFlags) error {
	if f.format != "pretty" && f.format != "json" {
		return fmt.Errorf("unsupported diagnostics format %q (must be pretty or json)", f.format)
	}
	mode, err := readUIMode(f.ui)
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	s, err := loadSettings(wd)
	if err != nil {
		return err
	}
	if err := s.applyFlags(cmd); err != nil {
		return err
	}
	opts, err := s.driverOptions(a.log)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"."}
		if s.found {
			args = []string{s.manifest.Root}
		}
	}
	base, files, err := buildpipeline.ResolveInputs(args, opts.Extensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents found in %v", args)
	}

	req := &buildpipeline.BuildRequest{Files: files, BaseDir: base, Driver: opts}
	if !f.stdout {
		req.OutDir = s.outDir(f.out)
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	stdout := cmd.OutOrStdout()

	var res buildpipeline.BuildResult
	if !f.stdout && !quiet && shouldUseTUI(mode, stdout) {
		res, err = runBuildWithUI(cmd.Context(), stdout, "translate", buildpipeline.DisplayPaths(files, base), req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}
	if res.Files == nil {
		return err
	}

	if f.stdout {
		writeUnits(stdout, res.Outputs)
	}
	failed, reportErr := a.reportDiagnostics(cmd, res, f.format)
	if reportErr != nil {
		return reportErr
	}
	if !quiet {
		cached := 0
		for _, o := range res.Outputs {
			if o.Cached {
				cached++
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "translated %d of %d documents (%d cached)", len(res.Outputs), len(files), cached)
		if req.OutDir != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), " into %s", req.OutDir)
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings, res.Phases)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d document(s) with errors", failed)
	}
	return nil
}

// reportDiagnostics prints every document's diagnostics and returns how many
// documents have errors.
func (a *app) reportDiagnostics(cmd *cobra.Command, res buildpipeline.BuildResult, format string) (int, error) {
	colored, err := colorEnabled(cmd, cmd.ErrOrStderr())
	if err != nil {
		return 0, err
	}
	all := diag.NewBag(0)
	failed := 0
	for _, o := range res.Outputs {
		if o.Result.Bag.HasErrors() {
			failed++
		}
		all.Merge(o.Result.Bag)
	}
	if format == "json" {
		return failed, diagfmt.JSON(cmd.OutOrStdout(), all, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			BaseDir:          res.Files.BaseDir(),
			IncludeNotes:     true,
		})
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	if all.Len() == 0 || quiet && !all.HasErrors() {
		return failed, nil
	}
	w := cmd.ErrOrStderr()
	diagfmt.Pretty(w, all, res.Files, diagfmt.PrettyOpts{
		Color:     colored,
		PathMode:  diagfmt.PathModeRelative,
		BaseDir:   res.Files.BaseDir(),
		ShowNotes: true,
	})
	diagfmt.Summary(w, all, colored)
	return failed, nil
}

func writeUnits(w io.Writer, outputs []buildpipeline.Output) {
	for i, o := range outputs {
		if len(outputs) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", o.Display)
		}
		io.WriteString(w, o.Result.Text)
		if n := len(o.Result.Text); n > 0 && o.Result.Text[n-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
}
