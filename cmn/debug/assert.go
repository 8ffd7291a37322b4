// Package debug provides build-tag gated assertions, in the shape of the
// teacher's cmn/debug package: a no-op in release builds, a panic in
// debug builds. Build with `-tags debug` to enable.
package debug

// Assert panics if cond is false. Compiled out entirely unless the
// "debug" build tag is set (see assert_debug.go / assert_release.go).
func Assert(cond bool) {
	assert(cond)
}

// Assertf panics with a formatted message if cond is false.
func Assertf(cond bool, format string, args ...any) {
	assertf(cond, format, args...)
}
