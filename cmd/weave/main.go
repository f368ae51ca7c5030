// Command weave translates tag-aware template documents into source units
// and their line maps.
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"weave/internal/prof"
	"weave/internal/version"
)

// app carries state shared by all subcommands once the persistent flags are
// parsed.
type app struct {
	log          *zap.Logger
	traceCleanup func()
	profile      *prof.Session
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package globals.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{log: zap.NewNop(), traceCleanup: func() {}}
	root := &cobra.Command{
		Use:           "weave",
		Short:         "Tag-aware template translator",
		Long:          `weave translates JSP-style template documents into Java or Go source units with a line map back to the template.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics kept per document")
	pf.String("log-level", "", "log level (debug|info|warn|error|none); default from weave.toml")
	pf.String("trace", "", "write trace events to file ('-' for stderr)")
	pf.String("trace-level", "off", "trace level (off|driver|file|phase)")
	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(
		newTranslateCmd(a),
		newMapCmd(a),
		newBacktranslateCmd(a),
		newInitCmd(),
		newVersionCmd(),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	if level == "" {
		level = manifestLogLevel()
	}
	colored, err := colorEnabled(cmd, os.Stderr)
	if err != nil {
		return err
	}
	logger, err := newLogger(level, cmd.ErrOrStderr(), colored)
	if err != nil {
		return err
	}
	a.log = logger

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	a.traceCleanup = cleanup

	session, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	a.profile = session
	return nil
}

func (a *app) teardown() {
	if err := a.profile.Stop(); err != nil {
		a.log.Warn("profiling failed", zap.Error(err))
	}
	a.traceCleanup()
	_ = a.log.Sync()
}

// execute runs the CLI with args. Tracing and logging are torn down even when
// the command fails.
func execute(args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer a.teardown()
	return root.Execute()
}

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
