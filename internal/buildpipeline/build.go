// Package buildpipeline translates a batch of documents and writes the
// generated units and their source maps.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"

	"weave/internal/dialect"
	"weave/internal/driver"
	"weave/internal/observ"
	"weave/internal/source"
	"weave/internal/translate"
)

// MapExt is appended to a generated unit's file name for its SMAP file.
const MapExt = ".smap"

// BuildRequest configures a batch translation.
type BuildRequest struct {
	// Files are the documents to translate, usually from ResolveInputs.
	Files []string
	// BaseDir anchors display names and the output directory layout.
	BaseDir string
	// OutDir receives the generated units; empty skips the write stage.
	OutDir   string
	Driver   driver.Options
	Progress ProgressSink
}

// Output describes one translated document.
type Output struct {
	Path    string
	Display string
	Unit    string // generated unit path, empty when nothing was written
	Map     string // SMAP path, empty when nothing was written
	Result  *translate.Result
	Cached  bool
}

// BuildResult captures outputs and timings.
type BuildResult struct {
	Files   *source.FileSet
	Outputs []Output
	Timings Timings
	Phases  observ.Report
}

// Build translates req.Files and writes `<Unit><ext>` plus its SMAP file into
// req.OutDir. Unreadable documents and write failures are combined into the
// returned error; the outputs of every other document are returned either way.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	displays := DisplayPaths(req.Files, req.BaseDir)
	byPath := make(map[string]string, len(req.Files))
	for i, file := range req.Files {
		byPath[file] = displays[i]
	}
	emitQueued(req.Progress, displays)

	emitStage(req.Progress, nil, StageTranslate, StatusWorking, nil, 0)
	start := time.Now()
	fileSet, results, err := driver.TranslatePaths(ctx, req.BaseDir, req.Files, req.Driver)
	elapsed := time.Since(start)
	result.Timings.Set(StageTranslate, elapsed)
	result.Files = fileSet
	if results == nil && err != nil && (fileSet == nil || ctx.Err() != nil) {
		emitStage(req.Progress, displays, StageTranslate, StatusError, err, elapsed)
		return result, err
	}

	phases := observ.NewTimer()
	translated := make(map[string]struct{}, len(results))
	for _, fr := range results {
		translated[fr.Path] = struct{}{}
		phases.Merge(fr.Result.Timing)
		result.Outputs = append(result.Outputs, Output{
			Path:    fr.Path,
			Display: byPath[fr.Path],
			Result:  fr.Result,
			Cached:  fr.Cached,
		})
		emitFile(req.Progress, byPath[fr.Path], StageTranslate, StatusDone, nil)
	}
	for _, file := range req.Files {
		if _, ok := translated[file]; !ok {
			emitFile(req.Progress, byPath[file], StageTranslate, StatusError, loadError(err, file))
		}
	}
	result.Phases = phases.Report()
	emitStage(req.Progress, nil, StageTranslate, StatusDone, err, elapsed)

	if req.OutDir == "" {
		return result, err
	}

	d := req.Driver.Translate.Dialect
	if d == nil {
		d = dialect.Java{}
	}
	emitStage(req.Progress, nil, StageWrite, StatusWorking, nil, 0)
	start = time.Now()
	var writeErr error
	written := make(map[string]string, len(result.Outputs))
	for i := range result.Outputs {
		out := &result.Outputs[i]
		if ctxErr := ctx.Err(); ctxErr != nil {
			writeErr = multierr.Append(writeErr, ctxErr)
			break
		}
		emitFile(req.Progress, out.Display, StageWrite, StatusWorking, nil)
		unit := UnitPath(req.OutDir, req.BaseDir, out.Path, out.Result.Name, d.Ext())
		if prev, ok := written[unit]; ok {
			werr := fmt.Errorf("write %s: %s and %s translate to the same unit", unit, prev, out.Display)
			writeErr = multierr.Append(writeErr, werr)
			emitFile(req.Progress, out.Display, StageWrite, StatusError, werr)
			continue
		}
		written[unit] = out.Display
		if werr := writeOutput(unit, out); werr != nil {
			writeErr = multierr.Append(writeErr, werr)
			emitFile(req.Progress, out.Display, StageWrite, StatusError, werr)
			continue
		}
		emitFile(req.Progress, out.Display, StageWrite, StatusDone, nil)
	}
	elapsed = time.Since(start)
	result.Timings.Set(StageWrite, elapsed)
	emitStage(req.Progress, nil, StageWrite, StatusDone, writeErr, elapsed)
	return result, multierr.Append(err, writeErr)
}

// loadError picks the error about file out of a combined load error.
func loadError(err error, file string) error {
	for _, e := range multierr.Errors(err) {
		if strings.Contains(e.Error(), file) {
			return e
		}
	}
	if err == nil {
		return errors.New("not translated")
	}
	return err
}

// UnitPath returns where the unit generated for document is written: the
// document's directory relative to baseDir is mirrored below outDir.
func UnitPath(outDir, baseDir, document, unitName, ext string) string {
	dir := ""
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, filepath.Dir(document)); err == nil && within(filepath.Dir(document), baseDir) {
			dir = rel
		}
	}
	return filepath.Join(outDir, dir, unitName+ext)
}

func writeOutput(unit string, out *Output) error {
	if err := os.MkdirAll(filepath.Dir(unit), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", unit, err)
	}
	if err := os.WriteFile(unit, []byte(out.Result.Text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", unit, err)
	}
	mapPath := unit + MapExt
	if err := writeMap(mapPath, filepath.Base(unit), filepath.Base(out.Path), out.Result); err != nil {
		return fmt.Errorf("write %s: %w", mapPath, err)
	}
	out.Unit = unit
	out.Map = mapPath
	return nil
}

func writeMap(path, unitName, sourceName string, res *translate.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return res.SourceMap.WriteStratum(f, unitName, sourceName, "")
}
