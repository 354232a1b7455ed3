package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes exponential delays capped at the policy maximum
type Backoff struct {
	policy Policy
	rand   func() float64
}

func NewBackoff(policy Policy) *Backoff {
	return &Backoff{policy: policy, rand: rand.Float64}
}

// Calculate returns the delay before the given retry attempt, starting at 1
func (b *Backoff) Calculate(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exp := math.Min(float64(attempt-1), 30)
	delay := float64(b.policy.InitialDelay) * math.Pow(b.policy.Multiplier, exp)
	if b.policy.MaxDelay > 0 && delay > float64(b.policy.MaxDelay) {
		delay = float64(b.policy.MaxDelay)
	}
	if b.policy.Jitter > 0 {
		// spread within [-jitter, +jitter] of the delay
		delay += delay * b.policy.Jitter * (2*b.rand() - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
