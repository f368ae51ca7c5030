package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"weave/internal/source"
	"weave/internal/trace"
)

// ListDocuments returns the sorted paths under dir whose extension is in exts
// (default ".jsp").
func ListDocuments(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = []string{".jsp"}
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if slices.Contains(exts, ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// TranslateDir translates every document under dir in parallel. Documents that
// cannot be read are skipped and their errors combined into the returned error;
// the other results are returned in path order either way.
func TranslateDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []FileResult, error) {
	files, err := ListDocuments(dir, opts.Extensions)
	if err != nil {
		return nil, nil, err
	}
	return TranslatePaths(ctx, dir, files, opts)
}

// TranslatePaths is TranslateDir for an explicit list of documents; base is
// the display root of the returned FileSet.
func TranslatePaths(ctx context.Context, base string, files []string, opts Options) (*source.FileSet, []FileResult, error) {
	fileSet := source.NewFileSetWithBase(base)
	if len(files) == 0 {
		return fileSet, nil, nil
	}
	r, err := newRunner(opts)
	if err != nil {
		return nil, nil, err
	}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "translate-dir", trace.CurrentSpan(ctx))
	defer span.End(strconv.Itoa(len(files)) + " files")
	ctx = trace.WithSpan(ctx, span)

	// FileSet is not safe for concurrent use, so every document is loaded first.
	var loadErr error
	ids := make([]source.FileID, 0, len(files))
	paths := make([]string, 0, len(files))
	for _, path := range files {
		id, err := fileSet.Load(path, opts.Translate.Encoding)
		if err != nil {
			r.log.Warn("cannot read document", zap.String("file", path), zap.Error(err))
			loadErr = multierr.Append(loadErr, fmt.Errorf("load %s: %w", path, err))
			continue
		}
		ids = append(ids, id)
		paths = append(paths, path)
	}
	loaded := make([]*source.File, len(ids))
	for i, id := range ids {
		loaded[i] = fileSet.Get(id)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(loaded))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(loaded))))
	for i, f := range loaded {
		g.Go(func() error {
			res, err := r.translate(gctx, paths[i], f)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, nil, multierr.Append(loadErr, err)
	}
	return fileSet, results, loadErr
}
