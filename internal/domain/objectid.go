// Package domain objectid.go contains the ObjectID value type: construction,
// parsing, formatting, ordering and field decoding.
package domain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// Size is the length of an ObjectID payload in bytes.
	Size = 12
	// EncodedLen is the length of the canonical hex form.
	EncodedLen = Size * 2
)

// ObjectID is an immutable 12-byte identifier laid out as
// [4 bytes timestamp][3 bytes machine hash][2 bytes process id][3 bytes counter],
// every field big-endian. The decoded fields are derived from the payload once
// at construction, so two ObjectIDs are == exactly when their payloads are
// byte-equal and the type is safe to use as a map key.
type ObjectID struct {
	raw       [Size]byte
	timestamp uint32
	machine   uint32
	processID uint32
	increment uint32
}

// Empty is the all-zero ObjectID ("000000000000000000000000").
var Empty = FromArray([Size]byte{})

// FromArray builds an ObjectID from a raw payload. It never fails.
func FromArray(b [Size]byte) ObjectID {
	id := ObjectID{raw: b}
	id.decode()
	return id
}

// FromBytes builds an ObjectID from a raw payload slice, which must be
// exactly 12 bytes long.
func FromBytes(b []byte) (ObjectID, error) {
	if len(b) != Size {
		return ObjectID{}, fmt.Errorf("%w: payload must be %d bytes, got %d", ErrInvalidArgument, Size, len(b))
	}
	var raw [Size]byte
	copy(raw[:], b)
	return FromArray(raw), nil
}

// Parse reconstructs an ObjectID from its 24-character hex form. Empty input
// or input of the wrong length fails with ErrInvalidArgument. A character pair
// that is not valid hex decodes to 0x00 instead of failing, so
// "zzzzzzzzzzzzzzzzzzzzzzzz" parses to Empty.
func Parse(s string) (ObjectID, error) {
	if s == "" {
		return ObjectID{}, fmt.Errorf("%w: empty object id", ErrInvalidArgument)
	}
	if len(s) != EncodedLen {
		return ObjectID{}, fmt.Errorf("%w: object id must be %d characters, got %d", ErrInvalidArgument, EncodedLen, len(s))
	}
	var raw [Size]byte
	for i := 0; i < EncodedLen; i += 2 {
		hi, okHi := fromHexChar(s[i])
		lo, okLo := fromHexChar(s[i+1])
		if okHi && okLo {
			raw[i/2] = hi<<4 | lo
		}
	}
	return FromArray(raw), nil
}

// TryParse is Parse without the error detail.
func TryParse(s string) (ObjectID, bool) {
	id, err := Parse(s)
	if err != nil {
		return ObjectID{}, false
	}
	return id, true
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) ObjectID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// fromHexChar accepts both cases.
func fromHexChar(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decode fills the diagnostic fields from the payload.
//
// The machine field is read little-endian while NewID copies the hash bytes
// in order, so Machine does not round-trip with Factory.MachineHash.
func (id *ObjectID) decode() {
	id.timestamp = binary.BigEndian.Uint32(id.raw[0:4])
	id.machine = binary.LittleEndian.Uint32([]byte{id.raw[4], id.raw[5], id.raw[6], 0})
	id.processID = uint32(binary.BigEndian.Uint16(id.raw[7:9]))
	id.increment = binary.BigEndian.Uint32([]byte{0, id.raw[9], id.raw[10], id.raw[11]})
}

// String returns the 24 lowercase hex characters of the payload.
func (id ObjectID) String() string { return hex.EncodeToString(id.raw[:]) }

// Bytes returns a copy of the raw payload.
func (id ObjectID) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, id.raw[:])
	return b
}

// Array returns the raw payload by value.
func (id ObjectID) Array() [Size]byte { return id.raw }

// IsZero reports whether id equals Empty.
func (id ObjectID) IsZero() bool { return id.raw == [Size]byte{} }

// Timestamp is the creation time in seconds since the Unix epoch.
func (id ObjectID) Timestamp() uint32 { return id.timestamp }

// Time returns Timestamp as a UTC time.Time.
func (id ObjectID) Time() time.Time { return time.Unix(int64(id.timestamp), 0).UTC() }

// Machine is the machine hash fragment read as a little-endian integer.
func (id ObjectID) Machine() uint32 { return id.machine }

// ProcessID is the 16-bit process id fragment.
func (id ObjectID) ProcessID() uint32 { return id.processID }

// Increment is the 24-bit counter fragment.
func (id ObjectID) Increment() uint32 { return id.increment }

// Compare orders ids by their raw payload bytes; the first differing byte
// decides. It returns -1, 0 or 1.
func (id ObjectID) Compare(other ObjectID) int {
	for i := 0; i < Size; i++ {
		if id.raw[i] < other.raw[i] {
			return -1
		}
		if id.raw[i] > other.raw[i] {
			return 1
		}
	}
	return 0
}

// ComparePtr is Compare for optional values. A nil id sorts before every
// present id and two nils are equal.
func ComparePtr(a, b *ObjectID) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// Equal reports whether both payloads are byte-equal.
func (id ObjectID) Equal(other ObjectID) bool { return id.Compare(other) == 0 }

// Less reports whether id sorts before other.
func (id ObjectID) Less(other ObjectID) bool { return id.Compare(other) < 0 }

// LessOrEqual reports whether id sorts before or equal to other.
func (id ObjectID) LessOrEqual(other ObjectID) bool { return id.Compare(other) <= 0 }

// Greater reports whether id sorts after other.
func (id ObjectID) Greater(other ObjectID) bool { return id.Compare(other) > 0 }

// GreaterOrEqual reports whether id sorts after or equal to other.
func (id ObjectID) GreaterOrEqual(other ObjectID) bool { return id.Compare(other) >= 0 }

// Compare is the package-level form of ObjectID.Compare, suitable for
// slices.SortFunc.
func Compare(a, b ObjectID) int { return a.Compare(b) }
