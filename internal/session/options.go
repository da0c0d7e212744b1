package session

import (
	"fmt"
	"time"
)

// LoginPolicy decides what happens when Login is called while another
// Login on the same Authority has not returned yet.
type LoginPolicy int

const (
	// LoginPolicyLastResponseWins lets overlapping logins run; whichever
	// resolves last owns the session.
	LoginPolicyLastResponseWins LoginPolicy = iota
	// LoginPolicyRejectConcurrent fails a login issued while one is outstanding.
	LoginPolicyRejectConcurrent
)

func (p LoginPolicy) String() string {
	switch p {
	case LoginPolicyLastResponseWins:
		return "last-response-wins"
	case LoginPolicyRejectConcurrent:
		return "reject-concurrent"
	default:
		return fmt.Sprintf("LoginPolicy(%d)", int(p))
	}
}

// ParseLoginPolicy maps a configuration value onto a LoginPolicy.
func ParseLoginPolicy(s string) (LoginPolicy, error) {
	switch s {
	case "", "last-response-wins":
		return LoginPolicyLastResponseWins, nil
	case "reject-concurrent":
		return LoginPolicyRejectConcurrent, nil
	default:
		return 0, fmt.Errorf("unknown login policy %q", s)
	}
}

// Login attempt outcomes reported to a Recorder.
const (
	LoginSuccess       = "success"
	LoginRejected      = "rejected"
	LoginInvalidInput  = "invalid_input"
	LoginInProgress    = "in_progress"
	LoginMalformed     = "malformed"
	LoginPersistFailed = "persist_failed"
)

// Hydration outcomes reported to a Recorder.
const (
	HydrationRestored   = "restored"
	HydrationEmpty      = "empty"
	HydrationCorrupt    = "corrupt"
	HydrationStoreError = "store_error"
)

// Recorder receives session lifecycle events for instrumentation.
type Recorder interface {
	LoginAttempt(outcome string, elapsed time.Duration)
	Logout()
	Hydration(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(string, time.Duration) {}
func (nopRecorder) Logout()                            {}
func (nopRecorder) Hydration(string)                   {}

// Option configures an Authority.
type Option func(*Authority)

// WithLoginPolicy sets how overlapping logins are handled.
func WithLoginPolicy(p LoginPolicy) Option {
	return func(a *Authority) {
		a.policy = p
	}
}

// WithMetrics reports lifecycle events to r. A nil r disables reporting. A
// non-nil interface holding a nil pointer is called as is, so its methods
// must accept a nil receiver the way *metrics.Metrics does.
func WithMetrics(r Recorder) Option {
	return func(a *Authority) {
		if r == nil {
			r = nopRecorder{}
		}
		a.metrics = r
	}
}

// WithClock overrides the time source used for login latency.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		a.now = now
	}
}
