package driver

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"weave/internal/diag"
	"weave/internal/project"
	"weave/internal/source"
	"weave/internal/tag"
	"weave/internal/tag/jsp"
	"weave/internal/trace"
	"weave/internal/translate"
)

// Options configures document loading and translation.
type Options struct {
	Translate translate.Options
	// Registry resolves tag handlers; nil selects the jsp:* library for the dialect.
	Registry tag.Registry
	// Cache is consulted before translating; nil disables caching.
	Cache *DiskCache
	// Extensions selects documents in TranslateDir; empty means ".jsp".
	Extensions []string
	// Jobs bounds parallel translations; 0 means GOMAXPROCS.
	Jobs int
}

// FileResult is the translation of one document on disk.
type FileResult struct {
	Path   string
	File   *source.File
	Result *translate.Result
	Cached bool
}

// fingerprinter is implemented by registries whose content can be hashed,
// such as tag.Library.
type fingerprinter interface {
	Fingerprint() string
}

// runner is a configured translator shared by all documents of one call.
type runner struct {
	opts        Options
	tr          *translate.Translator
	log         *zap.Logger
	fingerprint string
}

func newRunner(opts Options) (*runner, error) {
	tr := translate.New(opts.Translate)
	registry := opts.Registry
	if registry == nil {
		lib, err := jsp.NewLibrary(tr.Dialect())
		if err != nil {
			return nil, err
		}
		registry = lib
	}
	tr.SetRegistry(registry)

	r := &runner{opts: opts, tr: tr, log: opts.Translate.Logger}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if fp, ok := registry.(fingerprinter); ok {
		r.fingerprint = fp.Fingerprint()
	} else if opts.Cache != nil {
		r.log.Debug("cache disabled: registry has no fingerprint")
		r.opts.Cache = nil
	}
	return r, nil
}

// TranslateFile loads path and translates it. A read failure is returned as an
// error; everything else ends up in the result's diagnostics.
func TranslateFile(ctx context.Context, path string, opts Options) (*FileResult, error) {
	r, err := newRunner(opts)
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path, opts.Translate.Encoding)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return r.translate(ctx, path, fs.Get(id))
}

// cacheKey covers the unit name since it appears in the generated text.
func (r *runner) cacheKey(f *source.File) project.Digest {
	o := r.opts.Translate
	d := r.tr.Dialect()
	return project.Combine(project.Digest(f.Hash),
		project.DigestOf(d.Kind().String()),
		project.DigestOf(d.UnitName(translate.BaseName(f.Path))),
		project.DigestOf(r.fingerprint),
		project.DigestOf(strconv.Itoa(int(diskCacheSchemaVersion))),
		project.DigestOf(strconv.FormatBool(o.ReportUnknownTags)+"/"+strconv.Itoa(o.MaxDiagnostics)),
	)
}

func (r *runner) translate(ctx context.Context, path string, f *source.File) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, "file:"+path, trace.CurrentSpan(ctx))
	defer span.End("")

	var key project.Digest
	if r.opts.Cache != nil {
		key = r.cacheKey(f)
		var payload DiskPayload
		hit, err := r.opts.Cache.Get(key, &payload)
		switch {
		case err != nil:
			r.log.Warn("cache read failed", zap.String("file", path), zap.Error(err))
		case hit:
			r.log.Debug("cache hit", zap.String("file", path))
			trace.Point(tracer, trace.ScopePhase, "cache-hit", path, span.ID())
			span.WithExtra("cached", "true")
			res := payloadToResult(&payload, f, r.opts.Translate.MaxDiagnostics)
			return &FileResult{Path: path, File: f, Result: res, Cached: true}, nil
		default:
			r.log.Debug("cache miss", zap.String("file", path))
		}
	}

	res, err := r.tr.TranslateFile(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, p := range res.Timing.Phases {
		trace.Point(tracer, trace.ScopePhase, p.Name, p.Note, span.ID())
	}
	span.WithExtra("lines", strconv.Itoa(res.SourceMap.Len()))

	if r.opts.Cache != nil {
		if err := r.store(key, res); err != nil {
			r.log.Warn("cache write failed", zap.String("file", path), zap.Error(err))
			diag.ReportWarning(diag.BagReporter{Bag: res.Bag}, diag.IOCacheError, source.Span{File: f.ID},
				fmt.Sprintf("result not cached: %v", err)).Emit()
		}
	}
	return &FileResult{Path: path, File: f, Result: res}, nil
}

func (r *runner) store(key project.Digest, res *translate.Result) error {
	payload, err := resultToPayload(res)
	if err != nil {
		return err
	}
	return r.opts.Cache.Put(key, payload)
}
