// Package trace records the span structure of a translation run.
//
// Enable it from the command line:
//
//	weave translate --trace=- --trace-level=file pages/
//
// Events are grouped by scope: ScopeDriver for whole commands, ScopeFile for
// one document, ScopePhase for scan, assemble and write steps. The tracer is
// carried through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "file:index.jsp", 0)
//	defer span.End("")
package trace
