// Package sqlite provides a SQLite-backed implementation of the app.Ledger
// port for remembering which ids were issued and when.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/haukened/oid/internal/app"
	"github.com/haukened/oid/internal/domain"

	// database/sql SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

var _ app.Ledger = (*Ledger)(nil)

// Ledger implements app.Ledger using SQLite (via database/sql). It is safe for
// concurrent use; database/sql manages connection pooling and serialization.
type Ledger struct{ db *sql.DB }

// New constructs a Ledger, initializing the required schema if absent.
func New(db *sql.DB) (*Ledger, error) {
	l := &Ledger{db: db}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) init() error {
	schema := `CREATE TABLE IF NOT EXISTS issued_ids (
id TEXT PRIMARY KEY,
ts INTEGER NOT NULL,
machine INTEGER NOT NULL,
pid INTEGER NOT NULL,
increment INTEGER NOT NULL,
issued_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS issued_ids_issued_at ON issued_ids (issued_at);`
	_, err := l.db.Exec(schema)
	return err
}

// Record inserts every id in a single transaction. A duplicate id aborts the
// whole batch.
func (l *Ledger) Record(ctx context.Context, ids []domain.ObjectID, issuedAt time.Time) (err error) {
	if len(ids) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO issued_ids (id, ts, machine, pid, increment, issued_at) VALUES (?,?,?,?,?,?)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()
	at := issuedAt.Unix()
	for _, id := range ids {
		if _, err = stmt.ExecContext(ctx, id, id.Timestamp(), id.Machine(), id.ProcessID(), id.Increment(), at); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Lookup returns the issue record for id, or app.ErrNotFound.
func (l *Ledger) Lookup(ctx context.Context, id domain.ObjectID) (app.IssueRecord, error) {
	const q = `SELECT id, issued_at FROM issued_ids WHERE id=?`
	var (
		rec      app.IssueRecord
		issuedAt int64
	)
	if err := l.db.QueryRowContext(ctx, q, id).Scan(&rec.ID, &issuedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app.IssueRecord{}, app.ErrNotFound
		}
		return app.IssueRecord{}, err
	}
	rec.IssuedAt = time.Unix(issuedAt, 0).UTC()
	return rec, nil
}

// PruneBefore deletes ids issued strictly before t.
func (l *Ledger) PruneBefore(ctx context.Context, t time.Time) (int, error) {
	const del = `DELETE FROM issued_ids WHERE issued_at < ?`
	res, err := l.db.ExecContext(ctx, del, t.Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count returns the number of remembered ids.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	var n int64
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issued_ids`).Scan(&n)
	return n, err
}
