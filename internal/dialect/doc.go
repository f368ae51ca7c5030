// Package dialect describes the target languages a template can be
// translated into.
//
// A Dialect supplies the structural wrapper lines of a generated unit and the
// statements produced for literal text and for the built-in tags. It never
// inspects code fragments copied from the template; those are emitted
// verbatim.
package dialect
