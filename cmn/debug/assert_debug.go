//go:build debug

package debug

import "fmt"

func assert(cond bool) {
	if !cond {
		panic("assertion failed")
	}
}

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Enabled reports whether assertions are compiled in.
const Enabled = true
