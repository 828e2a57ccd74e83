// Package conv provides checked integer conversions for values read from or
// written to embedding file headers (row counts, dimensions, chunk lengths).
//
// Every conversion fails instead of silently wrapping, so a corrupt header is
// reported as an error rather than turning into a huge allocation.
package conv
