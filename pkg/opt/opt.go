package opt

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// A generic option type, which can set options on a client or stream
type Opt func(*opts) error

// Options is the applied set of options returned by Apply
type Options = *opts

// set of options
type opts struct {
	url.Values
	any map[string]any
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Option keys
const (
	MaxTokensKey    = "max_tokens"
	TemperatureKey  = "temperature"
	MaxAttemptsKey  = "max_attempts"
	BackoffBaseKey  = "backoff_base"
	MaxDelayKey     = "max_delay"
	EmptyRetriesKey = "empty_retries"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Apply returns a structure of applied options
func Apply(o ...Opt) (*opts, error) {
	opts := &opts{Values: make(url.Values), any: make(map[string]any)}
	for _, opt := range o {
		if err := opt(opts); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetString returns the trimmed value for key, or empty string if not set
func (o *opts) GetString(key string) string {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// GetFloat64 returns the float64 value for key, or 0 if not set or invalid
func (o *opts) GetFloat64(key string) float64 {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64); err == nil {
			return v
		}
	}
	return 0
}

// GetUint returns the uint value for key, or 0 if not set or invalid
func (o *opts) GetUint(key string) uint {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		if v, err := strconv.ParseUint(strings.TrimSpace(values[0]), 10, 64); err == nil {
			return uint(v)
		}
	}
	return 0
}

// GetDuration returns the duration value for key, or 0 if not set or invalid
func (o *opts) GetDuration(key string) time.Duration {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		if v, err := time.ParseDuration(strings.TrimSpace(values[0])); err == nil {
			return v
		}
	}
	return 0
}

// Get returns the raw value for key set with AddAny, or nil
func (o *opts) Get(key string) any {
	return o.any[key]
}

// Has returns true if the key exists
func (o *opts) Has(key string) bool {
	if _, ok := o.Values[key]; ok {
		return true
	}
	_, ok := o.any[key]
	return ok
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// Error returns an option that always returns an error
func Error(err error) Opt {
	return func(o *opts) error {
		return err
	}
}

// WithString sets a string value for the given key
func WithString(key string, value ...string) Opt {
	return func(o *opts) error {
		if len(value) == 0 {
			return fmt.Errorf("missing value for %q", key)
		}
		o.Values[key] = value
		return nil
	}
}

// WithUint sets a uint value for the given key
func WithUint(key string, value uint) Opt {
	return func(o *opts) error {
		o.Values.Set(key, strconv.FormatUint(uint64(value), 10))
		return nil
	}
}

// WithFloat64 sets a float64 value for the given key
func WithFloat64(key string, value float64) Opt {
	return func(o *opts) error {
		o.Values.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
		return nil
	}
}

// WithDuration sets a duration value for the given key
func WithDuration(key string, value time.Duration) Opt {
	return func(o *opts) error {
		o.Values.Set(key, value.String())
		return nil
	}
}

// AddAny sets an arbitrary value for the given key
func AddAny(key string, value any) Opt {
	return func(o *opts) error {
		o.any[key] = value
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// DOMAIN OPTIONS

// WithMaxTokens limits the number of output tokens
func WithMaxTokens(tokens uint) Opt {
	return WithUint(MaxTokensKey, tokens)
}

// WithTemperature sets the sampling temperature
func WithTemperature(temperature float64) Opt {
	return WithFloat64(TemperatureKey, temperature)
}

// WithMaxAttempts sets the maximum number of connection attempts
func WithMaxAttempts(attempts uint) Opt {
	return WithUint(MaxAttemptsKey, attempts)
}

// WithBackoffBase sets the base delay for exponential backoff
func WithBackoffBase(base time.Duration) Opt {
	return WithDuration(BackoffBaseKey, base)
}

// WithMaxDelay sets a ceiling on server-requested retry delays. When a
// server asks for a longer wait the stream fails fast instead.
func WithMaxDelay(ceiling time.Duration) Opt {
	return WithDuration(MaxDelayKey, ceiling)
}

// WithEmptyRetries sets how many times an empty stream is retried before
// the stream fails with an empty response error
func WithEmptyRetries(retries uint) Opt {
	return WithUint(EmptyRetriesKey, retries)
}
