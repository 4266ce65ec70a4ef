// Package app defines the application layer "ports" (interfaces) and simple
// data contracts that the core use-cases of oid depend upon. It follows a
// hexagonal (ports & adapters) design: this package declares what the core
// needs, while adapter packages (SQLite ledger, metrics, HTTP layer, janitor)
// provide concrete implementations. No I/O, logging, SQL, or network concerns
// belong here.
package app

import (
	"context"
	"time"

	"github.com/haukened/oid/internal/domain"
)

// Clock abstracts time to enable deterministic testing of issuance times.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// IDSource mints identifiers. *domain.Factory satisfies it.
type IDSource interface {
	NewID() domain.ObjectID
}

// IssueRecord is what the ledger remembers about an issued id.
type IssueRecord struct {
	ID       domain.ObjectID
	IssuedAt time.Time
}

// Ledger is the storage port for issued ids.
type Ledger interface {
	// Record persists ids as issued at issuedAt. All ids are stored or none.
	Record(ctx context.Context, ids []domain.ObjectID, issuedAt time.Time) error

	// Lookup returns the record for id or ErrNotFound.
	Lookup(ctx context.Context, id domain.ObjectID) (IssueRecord, error)

	// PruneBefore deletes records issued before t and returns how many were
	// removed.
	PruneBefore(ctx context.Context, t time.Time) (int, error)
}

// Metrics receives counter increments and summary observations. Both calls
// must be non-blocking.
type Metrics interface {
	Inc(name string, delta int64)
	Observe(name string, value int64)
}
