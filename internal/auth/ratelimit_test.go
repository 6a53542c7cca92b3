package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		MaxAttempts:     3,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour,
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newTestLimiter()
	defer rl.Stop()

	allowed, _ := rl.Allow("1.2.3.4", "reader")
	assert.True(t, allowed)

	rl.RecordFailure("1.2.3.4", "reader")
	rl.RecordFailure("1.2.3.4", "reader")
	allowed, _ = rl.Allow("1.2.3.4", "reader")
	assert.True(t, allowed)

	locked, retryAfter := rl.RecordFailure("1.2.3.4", "reader")
	assert.True(t, locked)
	assert.Greater(t, retryAfter, time.Duration(0))

	allowed, retryAfter = rl.Allow("1.2.3.4", "reader")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newTestLimiter()
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.RecordFailure("1.2.3.4", "reader")
	}

	allowed, _ := rl.Allow("1.2.3.4", "reader")
	assert.False(t, allowed)

	// Different IP and different username are unaffected
	allowed, _ = rl.Allow("5.6.7.8", "reader")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("1.2.3.4", "other")
	assert.True(t, allowed)
}

func TestRateLimiter_SuccessClearsFailures(t *testing.T) {
	rl := newTestLimiter()
	defer rl.Stop()

	rl.RecordFailure("1.2.3.4", "reader")
	rl.RecordFailure("1.2.3.4", "reader")
	rl.RecordSuccess("1.2.3.4", "reader")

	locked, _ := rl.RecordFailure("1.2.3.4", "reader")
	assert.False(t, locked)
}
