package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestConstantBackoff is fixed without jitter
func TestConstantBackoff(t *testing.T) {
	b := ConstantBackoff(5 * time.Second)
	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 5*time.Second, b.Next(attempt))
	}
	assert.Equal(t, time.Duration(0), b.Next(0))
}

// TestConstantBackoff_WithJitter stays inside the jitter window
func TestConstantBackoff_WithJitter(t *testing.T) {
	b := ConstantBackoff(time.Second, WithJitter(0.5))
	for i := 0; i < 20; i++ {
		d := b.Next(1)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

// TestExponentialBackoff
func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(100*time.Millisecond, WithJitter(0), WithMaxDelay(time.Second))

	assert.Equal(t, 100*time.Millisecond, b.Next(1))
	assert.Equal(t, 200*time.Millisecond, b.Next(2))
	assert.Equal(t, 400*time.Millisecond, b.Next(3))
	assert.Equal(t, time.Second, b.Next(10))
}
