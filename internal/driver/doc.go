// Package driver loads template documents from disk and translates them,
// one at a time or a whole directory in parallel, with an optional on-disk
// result cache.
package driver
