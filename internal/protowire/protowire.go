// Package protowire extracts single fields from length-delimited binary
// metadata blobs without modeling their schema. Tags are little-endian
// base-128 varints: the low 3 bits select the wire type, the rest the field
// number. Only length-delimited payloads (wire type 2) are ever captured;
// everything else is skipped. Malformed or truncated input terminates the
// scan and yields "not found" rather than an error.
package protowire

import "strings"

// Wire types recognized by the scanner.
const (
	wireVarint = 0
	wire64Bit  = 1
	wireBytes  = 2
	wire32Bit  = 5
)

// Field scans blob for the first length-delimited occurrence of the given
// field number and returns its payload. The second return is false when the
// field is absent or the blob is malformed.
func Field(blob []byte, num uint64) ([]byte, bool) {
	i := 0
	for i < len(blob) {
		tag, next, ok := uvarint(blob, i)
		if !ok {
			return nil, false
		}
		i = next
		fieldNum := tag >> 3

		switch tag & 0x07 {
		case wireVarint:
			_, next, ok := uvarint(blob, i)
			if !ok {
				return nil, false
			}
			i = next
		case wire64Bit:
			i += 8
			if i > len(blob) {
				return nil, false
			}
		case wire32Bit:
			i += 4
			if i > len(blob) {
				return nil, false
			}
		case wireBytes:
			length, next, ok := uvarint(blob, i)
			if !ok {
				return nil, false
			}
			i = next
			end := i + int(length)
			if length > uint64(len(blob)) || end > len(blob) {
				return nil, false
			}
			if fieldNum == num {
				return blob[i:end], true
			}
			i = end
		default:
			return nil, false
		}
	}
	return nil, false
}

// StringField returns the field's payload decoded as UTF-8 with invalid
// sequences replaced, or "" when the field is absent.
func StringField(blob []byte, num uint64) string {
	b, ok := Field(blob, num)
	if !ok {
		return ""
	}
	return strings.ToValidUTF8(string(b), "�")
}

// uvarint decodes a base-128 varint starting at i. ok is false on truncation
// or when the value would overflow 64 bits.
func uvarint(b []byte, i int) (v uint64, next int, ok bool) {
	var shift uint
	for i < len(b) {
		c := b[i]
		i++
		if shift >= 64 {
			return 0, 0, false
		}
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, i, true
		}
		shift += 7
	}
	return 0, 0, false
}
