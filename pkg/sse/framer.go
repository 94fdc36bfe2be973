/*
sse splits a raw byte stream into Server-Sent-Events data payloads.
Unlike a line-oriented scanner this framer accepts bytes in arbitrary
chunks, so it can sit directly on a network read loop.
*/
package sse

import (
	"bytes"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Framer accumulates bytes and emits one decoded payload per SSE record.
// Records are delimited by a blank line; only "data:" lines are retained
// and multi-line data is joined with a newline. The "[DONE]" sentinel is
// suppressed.
type Framer struct {
	buffer []byte
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const doneSentinel = "[DONE]"

var (
	delimCRLF = []byte("\r\n\r\n")
	delimLF   = []byte("\n\n")
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an empty framer
func New() *Framer {
	return new(Framer)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Write appends data to the framer and returns the payloads of any
// records completed by it, in order
func (f *Framer) Write(data []byte) []string {
	f.buffer = append(f.buffer, data...)

	var payloads []string
	for {
		frame, rest, ok := splitFrame(f.buffer)
		if !ok {
			break
		}
		f.buffer = rest
		if payload, ok := decode(frame); ok {
			payloads = append(payloads, payload)
		}
	}
	return payloads
}

// Close flushes any remaining buffered bytes through the decode step
// exactly once and returns the payload if one was produced. The framer
// must not be used after Close.
func (f *Framer) Close() (string, bool) {
	if len(f.buffer) == 0 {
		return "", false
	}
	frame := f.buffer
	f.buffer = nil
	return decode(frame)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// splitFrame slices the earliest complete record off the buffer. When
// both delimiters are present the one that starts first wins.
func splitFrame(buffer []byte) (frame, rest []byte, ok bool) {
	crlf := bytes.Index(buffer, delimCRLF)
	lf := bytes.Index(buffer, delimLF)

	switch {
	case crlf < 0 && lf < 0:
		return nil, nil, false
	case crlf < 0, lf >= 0 && lf < crlf:
		return buffer[:lf], buffer[lf+len(delimLF):], true
	default:
		return buffer[:crlf], buffer[crlf+len(delimCRLF):], true
	}
}

// decode extracts the joined data payload from one record. Returns
// ok=false for records with no data and for the terminator sentinel.
func decode(frame []byte) (string, bool) {
	normalized := strings.ReplaceAll(string(frame), "\r\n", "\n")

	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			lines = append(lines, strings.TrimSpace(rest))
		}
	}

	payload := strings.Join(lines, "\n")
	if payload == "" || payload == doneSentinel {
		return "", false
	}
	return payload, true
}
