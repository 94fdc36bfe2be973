/*
retry decides whether a failed connection attempt is worth repeating and
how long to wait first. Vendors disagree on how they ask a client to
back off, so the delay is extracted from response headers and error-body
text in a fixed preference order before falling back to exponential
backoff.
*/
package retry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Controller computes retry eligibility and backoff delays for one stream
type Controller struct {
	// MaxAttempts is the maximum number of connection attempts
	MaxAttempts uint

	// BackoffBase is the base delay for exponential backoff
	BackoffBase time.Duration

	// MaxDelay, when non-zero, is a ceiling on server-requested delays.
	// A server asking for a longer wait fails the stream fast.
	MaxDelay time.Duration
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Padding added to every server-suggested delay
	safetyMargin = 1000 * time.Millisecond

	DefaultMaxAttempts = 5
	DefaultBackoffBase = 2 * time.Second
)

// Status codes that are always worth retrying
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Error-text patterns that indicate a transient condition, matched
// case-insensitively against a hyphen-normalized form of the message
var retryablePatterns = []string{
	"resource-exhausted",
	"rate-limit",
	"overloaded",
	"service-unavailable",
	"other-side-closed",
}

var (
	reResetAfter = regexp.MustCompile(`(?i)reset after (\d+(?:\.\d+)?)\s*(ms|s)?`)
	reRetryIn    = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)\s*(ms|s)`)
	reRetryDelay = regexp.MustCompile(`"retryDelay"\s*:\s*"(\d+(?:\.\d+)?)\s*(ms|s)"`)
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewController returns a controller with the defaults applied where
// arguments are zero
func NewController(maxAttempts uint, base, ceiling time.Duration) *Controller {
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if base <= 0 {
		base = DefaultBackoffBase
	}
	return &Controller{
		MaxAttempts: maxAttempts,
		BackoffBase: base,
		MaxDelay:    ceiling,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Retryable returns true when the error is worth another connection
// attempt: a retryable API status, a transient error-text pattern, or a
// transport-level failure
func (c *Controller) Retryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *llmstream.APIError
	if errors.As(err, &apiErr) {
		if retryableStatus[apiErr.Status] {
			return true
		}
		return matchesPattern(apiErr.Message) || matchesPattern(apiErr.Body)
	}

	if errors.Is(err, llmstream.ErrTransport) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return matchesPattern(err.Error())
}

// Delay returns the wait before the given zero-based attempt is retried.
// Server-suggested delays are extracted from the error and padded by the
// safety margin; when the padded delay exceeds the ceiling an error is
// returned so the caller can fail fast.
func (c *Controller) Delay(attempt uint, err error) (time.Duration, error) {
	if suggested, ok := serverDelay(err); ok {
		suggested += safetyMargin
		if c.MaxDelay > 0 && suggested > c.MaxDelay {
			return 0, llmstream.ErrTransport.Withf("server requested a %v wait, exceeding the %v ceiling", suggested, c.MaxDelay)
		}
		return suggested, nil
	}

	// Exponential fallback
	delay := c.BackoffBase << attempt
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay, nil
}

// Sleep waits for the given delay, returning early with a cancellation
// error if the context ends first
func (c *Controller) Sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return llmstream.ErrCancelled.With(ctx.Err())
	case <-timer.C:
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// serverDelay extracts a server-suggested delay from an API error,
// checking headers first and then error-body phrases
func serverDelay(err error) (time.Duration, bool) {
	var apiErr *llmstream.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	// Retry-After: seconds or an HTTP date
	if value := apiErr.Header.Get("Retry-After"); value != "" {
		if seconds, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(seconds * float64(time.Second)), true
		}
		if at, err := http.ParseTime(value); err == nil {
			if until := time.Until(at); until > 0 {
				return until, true
			}
			return 0, true
		}
	}

	// Rate-limit reset headers, in seconds
	for _, name := range []string{"X-RateLimit-Reset-After", "X-RateLimit-Reset"} {
		if value := apiErr.Header.Get(name); value != "" {
			if seconds, err := strconv.ParseFloat(value, 64); err == nil {
				return time.Duration(seconds * float64(time.Second)), true
			}
		}
	}

	// Error-body phrases
	text := apiErr.Message + " " + apiErr.Body
	for _, re := range []*regexp.Regexp{reResetAfter, reRetryIn, reRetryDelay} {
		if match := re.FindStringSubmatch(text); match != nil {
			return parseDelay(match[1], match[2]), true
		}
	}
	return 0, false
}

// parseDelay converts a numeric value with an optional ms/s unit to a
// duration; a missing unit means seconds
func parseDelay(value, unit string) time.Duration {
	number, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	if strings.EqualFold(unit, "ms") {
		return time.Duration(number * float64(time.Millisecond))
	}
	return time.Duration(number * float64(time.Second))
}

// matchesPattern normalizes the text to lower-case hyphenated form and
// checks the transient-condition patterns
func matchesPattern(text string) bool {
	if text == "" {
		return false
	}
	normalized := strings.ToLower(text)
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	for _, pattern := range retryablePatterns {
		if strings.Contains(normalized, pattern) {
			return true
		}
	}
	return false
}
