package forwarder

import (
	"math/rand"
	"time"
)

// backoffPolicy computes the wait before reconnection attempt N as
// min(base * 2^N, cap), with up to jitter*100% of random extra wait to avoid
// synchronized reconnect storms across many sink instances.
//
// The policy itself is stateless; the delivery worker owns the attempt counter
// and resets it to zero after every successful connect.
type backoffPolicy struct {
	base   time.Duration
	cap    time.Duration
	jitter float64
}

// next returns the wait before the given zero-based attempt.
//
// Without jitter the result is monotonically non-decreasing in attempt up to cap.
func (policy backoffPolicy) next(attempt int) time.Duration {
	delay := policy.base
	for i := 0; i < attempt && delay < policy.cap; i++ {
		delay *= 2
	}
	if delay > policy.cap {
		delay = policy.cap
	}
	if policy.jitter > 0 {
		delay += time.Duration(policy.jitter * rand.Float64() * float64(delay))
	}
	return delay
}
