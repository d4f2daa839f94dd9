// Package cache provides Value, a lazily computed and explicitly invalidated
// memo cell. Builders use one Value per derived field (name, unit, parsed
// rows, aligned pairs) so that a configuration change only recomputes what
// depends on it.
//
// A Value is owned by a single goroutine. Callers that share one across
// goroutines must serialize access themselves.
package cache
