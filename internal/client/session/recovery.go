package session

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// RecoveryPolicy bounds how a rejected access token is recovered at startup:
// verify, and on failure refresh then verify again, at most
// MaxRefreshAttempts times.
type RecoveryPolicy struct {
	MaxRefreshAttempts uint64
	// Delay between the refresh and the next verify.
	Delay time.Duration
}

// DefaultRecoveryPolicy allows exactly one refresh.
func DefaultRecoveryPolicy() RecoveryPolicy {
	return RecoveryPolicy{MaxRefreshAttempts: 1, Delay: time.Millisecond}
}

func (p RecoveryPolicy) backoff() retry.Backoff {
	d := p.Delay
	if d <= 0 {
		d = time.Nanosecond
	}
	return retry.WithMaxRetries(p.MaxRefreshAttempts, retry.NewConstant(d))
}
