package util

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunOnce(t *testing.T) {
	numCalls := int64(0)
	numRan := int64(0)

	f := NewRunOnce(func() {
		atomic.AddInt64(&numCalls, 1)
	})

	callers := &sync.WaitGroup{}
	for i := 0; i < 1000; i++ {
		callers.Add(1)
		go func() {
			defer callers.Done()
			if f() {
				atomic.AddInt64(&numRan, 1)
			}
		}()
	}
	callers.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&numCalls))
	assert.Equal(t, int64(1), atomic.LoadInt64(&numRan))
	assert.False(t, f())
}
