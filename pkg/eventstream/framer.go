/*
eventstream implements the length-prefixed binary event-stream framing
used by the cloud streaming API, alongside the SSE-based vendors. Each
message is a self-describing record: a fixed prelude carrying the total
and header lengths, a block of typed headers, the payload, and a
trailing checksum. Checksums are treated as opaque; the stream is
best-effort and a structurally impossible message discards the buffer
rather than failing hard.
*/
package eventstream

import (
	"encoding/binary"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Message is one decoded event-stream message
type Message struct {
	Headers map[string]string
	Payload []byte
}

// Framer accumulates bytes and emits complete messages as they become
// available
type Framer struct {
	buffer []byte
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	preludeSize  = 12 // total length, headers length, prelude CRC
	checksumSize = 4  // trailing message CRC
)

// Header value type tags
const (
	typeBoolTrue  = 0x00
	typeBoolFalse = 0x01
	typeByte      = 0x02
	typeShort     = 0x03
	typeInteger   = 0x04
	typeLong      = 0x05
	typeByteArray = 0x06
	typeString    = 0x07
	typeTimestamp = 0x08
	typeUUID      = 0x09
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an empty framer
func New() *Framer {
	return new(Framer)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Write appends data to the framer and returns any messages completed
// by it, in order
func (f *Framer) Write(data []byte) []Message {
	f.buffer = append(f.buffer, data...)

	var messages []Message
	for len(f.buffer) >= preludeSize {
		// Widen before any arithmetic so a hostile headers length
		// cannot wrap the structural check below
		totalLength := uint64(binary.BigEndian.Uint32(f.buffer[0:4]))
		headersLength := uint64(binary.BigEndian.Uint32(f.buffer[4:8]))

		// Structurally impossible message: discard the buffer and
		// resynchronize on whatever arrives next
		if totalLength < preludeSize+headersLength+checksumSize {
			f.buffer = nil
			break
		}

		// Incomplete message: wait for more bytes
		if uint64(len(f.buffer)) < totalLength {
			break
		}

		frame := f.buffer[:totalLength]
		f.buffer = f.buffer[totalLength:]

		headers := decodeHeaders(frame[preludeSize : preludeSize+headersLength])
		payload := append([]byte(nil), frame[preludeSize+headersLength:totalLength-checksumSize]...)
		messages = append(messages, Message{Headers: headers, Payload: payload})
	}
	return messages
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// decodeHeaders walks the header block. Fixed-width values are skipped
// without decoding; only UTF-8 string values are surfaced. An unknown
// type tag or a short read ends header parsing for the message.
func decodeHeaders(data []byte) map[string]string {
	headers := make(map[string]string)
	offset := 0

	for offset < len(data) {
		// Name: 1-byte length then UTF-8 bytes
		nameLength := int(data[offset])
		offset++
		if offset+nameLength > len(data) {
			return headers
		}
		name := string(data[offset : offset+nameLength])
		offset += nameLength

		// Type tag
		if offset >= len(data) {
			return headers
		}
		tag := data[offset]
		offset++

		switch tag {
		case typeBoolTrue, typeBoolFalse:
			// No value bytes
		case typeByte:
			offset++
		case typeShort:
			offset += 2
		case typeInteger:
			offset += 4
		case typeLong, typeTimestamp:
			offset += 8
		case typeUUID:
			offset += 16
		case typeByteArray, typeString:
			if offset+2 > len(data) {
				return headers
			}
			valueLength := int(binary.BigEndian.Uint16(data[offset : offset+2]))
			offset += 2
			if offset+valueLength > len(data) {
				return headers
			}
			if tag == typeString {
				headers[name] = string(data[offset : offset+valueLength])
			}
			offset += valueLength
		default:
			// Unknown tag: treat as end of headers
			return headers
		}
		if offset > len(data) {
			return headers
		}
	}
	return headers
}
