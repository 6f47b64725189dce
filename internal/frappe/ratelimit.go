package frappe

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxRetryAfter caps how long a site may hold the till off after a 429.
const maxRetryAfter = 30 * time.Second

// requestBudget spaces requests to one site. Tokens accrue continuously up to
// perMinute. A 429 from the site empties the budget and holds every request
// until the site's Retry-After has passed.
type requestBudget struct {
	now       func() time.Time
	last      time.Time
	heldUntil time.Time
	tokens    float64
	perMinute float64
	mu        sync.Mutex
}

func newRequestBudget(perMinute int) *requestBudget {
	if perMinute <= 0 {
		perMinute = 600
	}
	b := &requestBudget{
		now:       time.Now,
		tokens:    float64(perMinute),
		perMinute: float64(perMinute),
	}
	b.last = b.now()
	return b
}

// wait blocks until a request may be sent or ctx is done.
func (b *requestBudget) wait(ctx context.Context) error {
	for {
		delay := b.reserve()
		if delay <= 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("request budget wait canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns zero, or returns how long until one is
// available.
func (b *requestBudget) reserve() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Before(b.heldUntil) {
		return b.heldUntil.Sub(now)
	}
	b.accrue(now)
	if b.tokens >= 1 {
		b.tokens--
		return 0
	}
	return time.Duration((1 - b.tokens) / b.perMinute * float64(time.Minute))
}

// throttle records a 429. Without a usable Retry-After the hold is one refill
// interval.
func (b *requestBudget) throttle(retryAfter time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.accrue(now)
	b.tokens = 0
	if retryAfter <= 0 {
		retryAfter = time.Duration(float64(time.Minute) / b.perMinute)
	}
	if until := now.Add(min(retryAfter, maxRetryAfter)); until.After(b.heldUntil) {
		b.heldUntil = until
	}
}

func (b *requestBudget) accrue(now time.Time) {
	elapsed := now.Sub(b.last)
	b.last = now
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(b.perMinute, b.tokens+elapsed.Minutes()*b.perMinute)
}

// parseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. Anything else yields zero.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
