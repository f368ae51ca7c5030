// Package translate turns a template document into a generated source unit
// and a line-accurate source map.
//
// Each call to Translate builds a fresh session. The session receives scanner
// events, buffers output in three regions (declarations, local declarations
// and content) and records for every emitted physical line the document line
// it came from. Assembly then wraps the regions with the dialect's unit and
// body lines and derives the source map from the physical lines written.
//
// Tag handlers are resolved through a tag.Registry. A handler failure is
// reported as a warning in Result.Bag and logged; the rest of the document is
// still translated.
package translate
