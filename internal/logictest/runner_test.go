package logictest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor serves canned responses keyed by SQL text.
type fakeExecutor struct {
	statements []string
	errs       map[string]error
	results    map[string]fakeResult
}

type fakeResult struct {
	columns []string
	rows    [][]string
}

func (f *fakeExecutor) Statement(_ context.Context, sql string) error {
	f.statements = append(f.statements, sql)
	return f.errs[sql]
}

func (f *fakeExecutor) Query(_ context.Context, sql string) ([]string, [][]string, error) {
	if err := f.errs[sql]; err != nil {
		return nil, nil, err
	}
	res, ok := f.results[sql]
	if !ok {
		return nil, nil, errors.New("no canned result")
	}
	return res.columns, res.rows, nil
}

func (f *fakeExecutor) Close() error { return nil }

func writeFixture(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.test")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

// === Runner tests ===

func TestRunner_StatementsAndQueries(t *testing.T) {
	path := writeFixture(t, `statement ok
CREATE TABLE t (a Int32)

query I
SELECT a FROM t
----
1
2
`)
	exec := &fakeExecutor{
		results: map[string]fakeResult{
			"SELECT a FROM t": {columns: []string{"a"}, rows: [][]string{{"1"}, {"2"}}},
		},
	}
	r := NewRunner(exec, nil)
	require.NoError(t, r.RunFile(context.Background(), path))
	assert.Equal(t, []string{"CREATE TABLE t (a Int32)"}, exec.statements)
}

func TestRunner_QueryMismatch(t *testing.T) {
	path := writeFixture(t, `query I
SELECT a FROM t
----
1
`)
	exec := &fakeExecutor{
		results: map[string]fakeResult{
			"SELECT a FROM t": {columns: []string{"a"}, rows: [][]string{{"2"}}},
		},
	}
	err := NewRunner(exec, nil).RunFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result mismatch")
	assert.Contains(t, err.Error(), "fixture.test:1")
}

func TestRunner_ColumnCountMismatch(t *testing.T) {
	path := writeFixture(t, `query II
SELECT a FROM t
----
1 2
`)
	exec := &fakeExecutor{
		results: map[string]fakeResult{
			"SELECT a FROM t": {columns: []string{"a"}, rows: [][]string{{"1"}}},
		},
	}
	err := NewRunner(exec, nil).RunFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type string")
}

func TestRunner_StatementErrorMatching(t *testing.T) {
	path := writeFixture(t, `statement error not nullable
INSERT INTO t (a) VALUES (1)
`)
	exec := &fakeExecutor{
		errs: map[string]error{
			"INSERT INTO t (a) VALUES (1)": errors.New(`column "s" has no default and is not nullable`),
		},
	}
	require.NoError(t, NewRunner(exec, nil).RunFile(context.Background(), path))

	// A different error message fails the substring match.
	exec.errs["INSERT INTO t (a) VALUES (1)"] = errors.New("table not found")
	err := NewRunner(exec, nil).RunFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain")

	// Unexpected success fails too.
	exec.errs = nil
	err = NewRunner(exec, nil).RunFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement succeeded")
}

func TestRunner_UnexpectedStatementFailure(t *testing.T) {
	path := writeFixture(t, `statement ok
DROP TABLE t
`)
	exec := &fakeExecutor{
		errs: map[string]error{"DROP TABLE t": errors.New("table not found")},
	}
	err := NewRunner(exec, nil).RunFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement failed")
}

// === Complete mode tests ===

func TestRunner_CompleteRewritesExpected(t *testing.T) {
	path := writeFixture(t, `query I
SELECT a FROM t
----
stale

query I
SELECT b FROM t
----
also stale
gone
`)
	exec := &fakeExecutor{
		results: map[string]fakeResult{
			"SELECT a FROM t": {columns: []string{"a"}, rows: [][]string{{"1"}, {"2"}}},
			"SELECT b FROM t": {columns: []string{"b"}, rows: [][]string{{"9"}}},
		},
	}
	r := NewRunner(exec, nil)
	r.Complete = true
	require.NoError(t, r.RunFile(context.Background(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `query I
SELECT a FROM t
----
1
2

query I
SELECT b FROM t
----
9
`, string(data))
}
