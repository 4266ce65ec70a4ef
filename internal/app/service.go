// Package app contains the application orchestration layer for oid. It wires
// the id factory with the ledger and metrics ports without performing any
// I/O itself.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haukened/oid/internal/domain"
)

// ErrNotFound indicates the id is not present in the ledger.
var ErrNotFound = errors.New("id not found")

// ErrBatchInvalid indicates a mint request outside 1..MaxBatch.
var ErrBatchInvalid = errors.New("batch size invalid")

// Metric names emitted by Service.
const (
	CounterIDsMinted    = "ids_minted_total"
	CounterIDsInspected = "ids_inspected_total"
	SummaryMintBatch    = "mint_batch_size"
)

// Service mints and inspects ids using the injected ports. Ledger, Metrics
// and Clock are optional.
type Service struct {
	IDs      IDSource
	Ledger   Ledger
	Metrics  Metrics
	Clock    Clock
	MaxBatch int
}

// Inspection describes a parsed id. Issued and IssuedAt are only meaningful
// when the service has a ledger.
type Inspection struct {
	ID        domain.ObjectID `json:"id"`
	Time      time.Time       `json:"time"`
	Timestamp uint32          `json:"timestamp"`
	Machine   uint32          `json:"machine"`
	ProcessID uint32          `json:"process_id"`
	Increment uint32          `json:"increment"`
	Issued    bool            `json:"issued"`
	IssuedAt  *time.Time      `json:"issued_at,omitempty"`
}

// Mint returns n fresh ids in generation order and records them in the
// ledger.
func (s *Service) Mint(ctx context.Context, n int) ([]domain.ObjectID, error) {
	if n <= 0 || (s.MaxBatch > 0 && n > s.MaxBatch) {
		return nil, ErrBatchInvalid
	}
	ids := make([]domain.ObjectID, n)
	for i := range ids {
		ids[i] = s.IDs.NewID()
	}
	if s.Ledger != nil {
		if err := s.Ledger.Record(ctx, ids, s.now()); err != nil {
			return nil, fmt.Errorf("record issued ids: %w", err)
		}
	}
	if s.Metrics != nil {
		s.Metrics.Inc(CounterIDsMinted, int64(n))
		s.Metrics.Observe(SummaryMintBatch, int64(n))
	}
	return ids, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

// Inspect parses raw and reports its decoded fields and ledger status.
// Structural parse failures return an error wrapping domain.ErrInvalidArgument.
func (s *Service) Inspect(ctx context.Context, raw string) (Inspection, error) {
	id, err := domain.Parse(raw)
	if err != nil {
		return Inspection{}, err
	}
	out := Inspection{
		ID:        id,
		Time:      id.Time(),
		Timestamp: id.Timestamp(),
		Machine:   id.Machine(),
		ProcessID: id.ProcessID(),
		Increment: id.Increment(),
	}
	if s.Ledger != nil {
		rec, err := s.Ledger.Lookup(ctx, id)
		switch {
		case err == nil:
			out.Issued = true
			issuedAt := rec.IssuedAt
			out.IssuedAt = &issuedAt
		case errors.Is(err, ErrNotFound):
		default:
			return Inspection{}, fmt.Errorf("lookup id: %w", err)
		}
	}
	if s.Metrics != nil {
		s.Metrics.Inc(CounterIDsInspected, 1)
	}
	return out, nil
}

// Compare parses both ids and returns their payload order (-1, 0 or 1).
func (s *Service) Compare(a, b string) (int, error) {
	left, err := domain.Parse(a)
	if err != nil {
		return 0, err
	}
	right, err := domain.Parse(b)
	if err != nil {
		return 0, err
	}
	return left.Compare(right), nil
}
