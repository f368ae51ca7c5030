// Package tag defines the contract between the translator and tag handlers
// and provides Library, a concurrency-safe registry of handler factories.
//
// A handler is created for a single tag occurrence. The translator feeds it
// attributes with AddAttribute, then calls ProcessEndTag with a write-only
// Sink. Handlers never see what other tags or fragments produced.
package tag
