// Package diag defines the diagnostic model shared by the scanner, the
// translator and the driver.
//
// # Purpose
//
// Translation never fails because of problems inside a document. Malformed
// markup, unknown tags and failing tag handlers are recovered locally and
// recorded here instead, so a caller always receives a complete generated unit
// together with a Bag describing what was degraded.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error (severity.go).
//   - Code – compact numeric identifier with a stable string form (codes.go).
//   - Message – short human oriented text.
//   - Primary – byte span inside the document, when known.
//   - Line – 1-based document line; tag events only carry lines, so this is
//     the authoritative location for tag diagnostics.
//   - Notes – optional secondary spans.
//
// # Emitting diagnostics
//
// Producers depend on Reporter only. BagReporter stores into a Bag, which
// enforces a size limit and supports sorting and deduplication.
// DedupReporter filters repeated findings before they reach the Bag.
//
// Rendering lives in internal/diagfmt.
package diag
