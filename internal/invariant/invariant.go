// Package invariant holds programming-error checks. Built with -tags debug a
// failed check panics; release builds leave the caller to clamp and continue.
package invariant

import "fmt"

// Assert panics with the formatted message when cond is false and
// assertions are enabled.
func Assert(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(fmt.Sprintf("invariant violated: "+format, args...))
	}
}

// Clamp bounds v to [lo, hi]; NaN reads as lo. Out-of-range input is an
// assertion failure in debug builds.
func Clamp[T ~int | ~int32 | ~uint32 | ~float32 | ~float64](v, lo, hi T, what string) T {
	if v != v {
		Assert(false, "%s is NaN", what)
		return lo
	}
	if v < lo {
		Assert(false, "%s %v below %v", what, v, lo)
		return lo
	}
	if v > hi {
		Assert(false, "%s %v above %v", what, v, hi)
		return hi
	}
	return v
}
