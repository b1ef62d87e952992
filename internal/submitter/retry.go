package submitter

import (
	"errors"
	"net"
	"syscall"
	"time"
)

// Outcome is the classification of one remote call result.
type Outcome int

const (
	// OutcomeSuccess: status in [200,300).
	OutcomeSuccess Outcome = iota
	// OutcomeTransient: transport failure, 5xx, or any status outside the
	// known success/rejection ranges.
	OutcomeTransient
	// OutcomePermanent: 4xx rejection; never retried.
	OutcomePermanent
)

// Decision is the retry policy's verdict after one attempt.
type Decision struct {
	Outcome Outcome
	Retry   bool
	Delay   time.Duration
}

// RetryPolicy decides, per attempt, whether to retry and how long to wait.
// It holds no state between attempts; the caller owns the attempt counter.
type RetryPolicy struct {
	MaxAttempts int
	BackoffStep time.Duration
}

// Decide classifies the result of attempt number `attempt` (1-indexed).
// Transient failures are retried with a linear backoff of
// attempt*BackoffStep until MaxAttempts is reached; permanent failures
// stop immediately.
func (p RetryPolicy) Decide(attempt int, res *SendResult) Decision {
	outcome := Classify(res)

	d := Decision{Outcome: outcome}
	if outcome == OutcomeTransient && attempt < p.MaxAttempts {
		d.Retry = true
		d.Delay = time.Duration(attempt) * p.BackoffStep
	}
	return d
}

// Classify buckets a send result. The remote contract is not fully known,
// so anything that is neither a success nor a 4xx rejection counts as
// transient.
func Classify(res *SendResult) Outcome {
	if res.StatusCode == nil {
		// Transport-level failure: no status was ever received.
		return OutcomeTransient
	}

	status := *res.StatusCode
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status >= 400 && status < 500:
		return OutcomePermanent
	default:
		return OutcomeTransient
	}
}

// TransientErrCode maps a transport error onto the remote contract's known
// transient error codes, for audit messages. Empty string when the error
// does not match any of them.
func TransientErrCode(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, syscall.ECONNRESET) {
		return "ECONNRESET"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "EAI_AGAIN"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ETIMEDOUT"
	}

	return ""
}
