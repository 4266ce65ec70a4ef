// Package domain codec.go adapts ObjectID to encoding and database/sql
// interfaces. Every textual form is the canonical 24-character hex string.
package domain

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"fmt"
)

var (
	_ encoding.TextMarshaler   = ObjectID{}
	_ encoding.TextUnmarshaler = (*ObjectID)(nil)
	_ driver.Valuer            = ObjectID{}
	_ sql.Scanner              = (*ObjectID)(nil)
)

// MarshalText implements encoding.TextMarshaler. JSON encodes an ObjectID as
// its hex string through this method.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with Parse semantics,
// including the lenient treatment of malformed hex pairs.
func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer; ids are stored as hex text so SQL ordering
// on the column matches Compare.
func (id ObjectID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements sql.Scanner. It accepts the hex form as string or []byte,
// and a raw 12-byte payload as []byte.
func (id *ObjectID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return id.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == Size {
			parsed, err := FromBytes(v)
			if err != nil {
				return err
			}
			*id = parsed
			return nil
		}
		return id.UnmarshalText(v)
	case nil:
		*id = Empty
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T into ObjectID", ErrInvalidArgument, src)
	}
}
