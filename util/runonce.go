package util

import (
	"sync/atomic"
)

// NewRunOnce wraps the given "f" so it is called at most once, no matter how many
// goroutines invoke the wrapper simultaneously
//
// The wrapper returns true only for the single invocation that actually ran "f".
// This protects e.g. resource closing or cleanup, which must happen exactly once.
func NewRunOnce(f func()) func() bool {
	var invoked atomic.Bool
	return func() bool {
		if invoked.CompareAndSwap(false, true) {
			f()
			return true
		}
		return false
	}
}
