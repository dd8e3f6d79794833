package meta

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) *SQLiteKV {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, RunMigrations(db))
	return NewSQLiteKV(db)
}

// === UpsertKV tests ===

func TestUpsertKV_SequencesIncrease(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	_, first, err := kv.UpsertKV(ctx, "k1", MatchAny(), []byte("a"))
	require.NoError(t, err)
	_, second, err := kv.UpsertKV(ctx, "k2", MatchAny(), []byte("b"))
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)

	// Re-writing a key bumps its seq again.
	prev, third, err := kv.UpsertKV(ctx, "k1", MatchAny(), []byte("a2"))
	require.NoError(t, err)
	assert.Equal(t, first.Seq, prev.Seq)
	assert.Greater(t, third.Seq, second.Seq)
}

func TestUpsertKV_CreateOnly(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	_, _, err := kv.UpsertKV(ctx, "k", MatchExact(0), []byte("v"))
	require.NoError(t, err)

	// A second create-only write must fail.
	_, _, err = kv.UpsertKV(ctx, "k", MatchExact(0), []byte("v2"))
	require.ErrorIs(t, err, ErrSeqMismatch)
}

func TestUpsertKV_MatchExact(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	_, created, err := kv.UpsertKV(ctx, "k", MatchAny(), []byte("v"))
	require.NoError(t, err)

	_, _, err = kv.UpsertKV(ctx, "k", MatchExact(created.Seq+100), []byte("v2"))
	require.ErrorIs(t, err, ErrSeqMismatch)

	_, updated, err := kv.UpsertKV(ctx, "k", MatchExact(created.Seq), []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), updated.Data)
}

func TestUpsertKV_NilValueDeletes(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	_, _, err := kv.UpsertKV(ctx, "k", MatchAny(), []byte("v"))
	require.NoError(t, err)

	prev, result, err := kv.UpsertKV(ctx, "k", MatchAny(), nil)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Nil(t, result)

	got, err := kv.GetKV(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// === Read tests ===

func TestGetKV_Absent(t *testing.T) {
	kv := newTestKV(t)
	got, err := kv.GetKV(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMGetKV_PositionAligned(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	_, _, err := kv.UpsertKV(ctx, "a", MatchAny(), []byte("1"))
	require.NoError(t, err)
	_, _, err = kv.UpsertKV(ctx, "c", MatchAny(), []byte("3"))
	require.NoError(t, err)

	got, err := kv.MGetKV(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("1"), got[0].Data)
	assert.Nil(t, got[1])
	assert.Equal(t, []byte("3"), got[2].Data)
}

func TestPrefixListKV(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	for _, k := range []string{"p/b", "p/a", "q/x"} {
		_, _, err := kv.UpsertKV(ctx, k, MatchAny(), []byte(k))
		require.NoError(t, err)
	}

	keys, values, err := kv.PrefixListKV(ctx, "p/")
	require.NoError(t, err)
	assert.Equal(t, []string{"p/a", "p/b"}, keys)
	require.Len(t, values, 2)
	assert.Equal(t, []byte("p/a"), values[0].Data)
}

// === NextID tests ===

func TestNextID_Monotonic(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	a, err := kv.NextID(ctx)
	require.NoError(t, err)
	b, err := kv.NextID(ctx)
	require.NoError(t, err)
	assert.Greater(t, b, a)
}
