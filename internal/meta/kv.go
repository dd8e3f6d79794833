package meta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSeqMismatch is returned by UpsertKV when the MatchSeq condition fails.
var ErrSeqMismatch = errors.New("sequence mismatch")

// SeqValue is a stored value with its sequence number. Sequence numbers are
// globally monotonic: every successful write gets a fresh one.
type SeqValue struct {
	Seq  uint64
	Data []byte
}

// MatchSeq is the write precondition for UpsertKV.
//
// The zero value (Any) matches unconditionally. Exact(0) means "key must
// not exist", which makes create-only writes a one-liner.
type MatchSeq struct {
	exact bool
	seq   uint64
}

// MatchAny matches any current sequence, including absent keys.
func MatchAny() MatchSeq { return MatchSeq{} }

// MatchExact matches only the given sequence. Zero matches absent keys.
func MatchExact(seq uint64) MatchSeq { return MatchSeq{exact: true, seq: seq} }

// KV is the sequenced key-value API every catalog operation goes through.
type KV interface {
	// UpsertKV writes value under key when the precondition holds. A nil
	// value deletes the key. It returns the previous and the new state
	// (nil when absent / deleted).
	UpsertKV(ctx context.Context, key string, match MatchSeq, value []byte) (prev, result *SeqValue, err error)
	// GetKV returns the value for the key, or nil when absent.
	GetKV(ctx context.Context, key string) (*SeqValue, error)
	// MGetKV returns values for all keys, position-aligned, nil for absent.
	MGetKV(ctx context.Context, keys []string) ([]*SeqValue, error)
	// PrefixListKV returns all key/value pairs under the prefix, key-ordered.
	PrefixListKV(ctx context.Context, prefix string) ([]string, []*SeqValue, error)
}

// SQLiteKV implements KV on a SQLite database. All writes run in a
// transaction so the seq counter and the row stay consistent.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV wraps an already-opened and migrated SQLite handle.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

func (s *SQLiteKV) UpsertKV(ctx context.Context, key string, match MatchSeq, value []byte) (*SeqValue, *SeqValue, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	prev, err := getKVTx(ctx, tx, key)
	if err != nil {
		return nil, nil, err
	}

	if match.exact {
		current := uint64(0)
		if prev != nil {
			current = prev.Seq
		}
		if current != match.seq {
			return prev, prev, fmt.Errorf("key %q: want seq %d, have %d: %w", key, match.seq, current, ErrSeqMismatch)
		}
	}

	if value == nil {
		// Delete.
		if prev != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key); err != nil {
				return nil, nil, fmt.Errorf("delete key %q: %w", key, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return nil, nil, fmt.Errorf("commit delete: %w", err)
		}
		return prev, nil, nil
	}

	seq, err := nextSeqTx(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (k, seq, v) VALUES (?, ?, ?)
		 ON CONFLICT (k) DO UPDATE SET seq = excluded.seq, v = excluded.v`,
		key, seq, value); err != nil {
		return nil, nil, fmt.Errorf("write key %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit upsert: %w", err)
	}
	return prev, &SeqValue{Seq: seq, Data: value}, nil
}

func (s *SQLiteKV) GetKV(ctx context.Context, key string) (*SeqValue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT seq, v FROM kv WHERE k = ?`, key)
	var sv SeqValue
	if err := row.Scan(&sv.Seq, &sv.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get key %q: %w", key, err)
	}
	return &sv, nil
}

func (s *SQLiteKV) MGetKV(ctx context.Context, keys []string) ([]*SeqValue, error) {
	out := make([]*SeqValue, len(keys))
	for i, key := range keys {
		sv, err := s.GetKV(ctx, key)
		if err != nil {
			return nil, err
		}
		out[i] = sv
	}
	return out, nil
}

func (s *SQLiteKV) PrefixListKV(ctx context.Context, prefix string) ([]string, []*SeqValue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k, seq, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`,
		prefix, prefixEnd(prefix))
	if err != nil {
		return nil, nil, fmt.Errorf("prefix list %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	var values []*SeqValue
	for rows.Next() {
		var k string
		var sv SeqValue
		if err := rows.Scan(&k, &sv.Seq, &sv.Data); err != nil {
			return nil, nil, fmt.Errorf("scan prefix list: %w", err)
		}
		keys = append(keys, k)
		values = append(values, &sv)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate prefix list: %w", err)
	}
	return keys, values, nil
}

// NextID allocates a fresh id by bumping the id-gen key and reusing the
// sequence number the write was assigned.
func (s *SQLiteKV) NextID(ctx context.Context) (uint64, error) {
	_, result, err := s.UpsertKV(ctx, PrefixIDGen, MatchAny(), []byte{})
	if err != nil {
		return 0, fmt.Errorf("bump id gen: %w", err)
	}
	return result.Seq, nil
}

func getKVTx(ctx context.Context, tx *sql.Tx, key string) (*SeqValue, error) {
	row := tx.QueryRowContext(ctx, `SELECT seq, v FROM kv WHERE k = ?`, key)
	var sv SeqValue
	if err := row.Scan(&sv.Seq, &sv.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get key %q: %w", key, err)
	}
	return &sv, nil
}

func nextSeqTx(ctx context.Context, tx *sql.Tx) (uint64, error) {
	if _, err := tx.ExecContext(ctx, `UPDATE kv_seq SET seq = seq + 1`); err != nil {
		return 0, fmt.Errorf("bump seq: %w", err)
	}
	var seq uint64
	if err := tx.QueryRowContext(ctx, `SELECT seq FROM kv_seq`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read seq: %w", err)
	}
	return seq, nil
}

// prefixEnd returns the smallest string greater than every string with the
// given prefix. Works because escaped keys never contain 0xff.
func prefixEnd(prefix string) string {
	return prefix + "\xff"
}
