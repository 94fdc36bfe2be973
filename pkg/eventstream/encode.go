package eventstream

import (
	"encoding/binary"
	"hash/crc32"
	"sort"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Encode renders one message in wire format. Headers are written as
// UTF-8 string values in name order so that encoding is deterministic.
// Used by tests and mock transports; decoding is the framer's job.
func Encode(headers map[string]string, payload []byte) []byte {
	var headerBlock []byte
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := headers[name]
		headerBlock = append(headerBlock, byte(len(name)))
		headerBlock = append(headerBlock, name...)
		headerBlock = append(headerBlock, typeString)
		headerBlock = binary.BigEndian.AppendUint16(headerBlock, uint16(len(value)))
		headerBlock = append(headerBlock, value...)
	}

	totalLength := preludeSize + len(headerBlock) + len(payload) + checksumSize
	message := make([]byte, 0, totalLength)
	message = binary.BigEndian.AppendUint32(message, uint32(totalLength))
	message = binary.BigEndian.AppendUint32(message, uint32(len(headerBlock)))
	message = binary.BigEndian.AppendUint32(message, crc32.ChecksumIEEE(message))
	message = append(message, headerBlock...)
	message = append(message, payload...)
	message = binary.BigEndian.AppendUint32(message, crc32.ChecksumIEEE(message))
	return message
}
