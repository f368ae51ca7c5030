// Package fuzztests holds fuzz harnesses for the scanner and the translator.
// Arbitrary bytes are loaded as a virtual document and must translate without
// panics, with a source map that stays consistent with the emitted text.
package fuzztests
