package valueobjects

import (
	"fmt"
	"time"
)

const (
	MaxRetryAttempts = 5
	MaxRetryDelay    = 30 * time.Second
)

// RetryPolicy bounds how often the image model is called for one try-on and
// how long to wait between calls. MaxAttempts counts the first call.
type RetryPolicy struct {
	maxAttempts int
	delay       time.Duration
}

func NewRetryPolicy(maxAttempts int, delay time.Duration) (*RetryPolicy, error) {
	if maxAttempts < 1 || maxAttempts > MaxRetryAttempts {
		return nil, fmt.Errorf("maxAttempts must be between 1 and %d, got %d", MaxRetryAttempts, maxAttempts)
	}

	if delay < 0 || delay > MaxRetryDelay {
		return nil, fmt.Errorf("delay must be between 0 and %s, got %s", MaxRetryDelay, delay)
	}

	return &RetryPolicy{
		maxAttempts: maxAttempts,
		delay:       delay,
	}, nil
}

// DefaultRetryPolicy retries once after one second.
func DefaultRetryPolicy() *RetryPolicy {
	policy, _ := NewRetryPolicy(2, time.Second)
	return policy
}

func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

func (p *RetryPolicy) Delay() time.Duration {
	return p.delay
}
