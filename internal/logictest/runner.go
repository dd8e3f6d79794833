package logictest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Executor runs SQL on behalf of the harness. Query results come back as
// rendered text values, one slice per row, in result order.
type Executor interface {
	Statement(ctx context.Context, sql string) error
	Query(ctx context.Context, sql string) (columns []string, rows [][]string, err error)
	Close() error
}

// Runner executes fixture files against one Executor.
type Runner struct {
	exec   Executor
	logger *slog.Logger

	// Complete rewrites each file's expected blocks from actual output
	// instead of failing on mismatch.
	Complete bool
}

func NewRunner(exec Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{exec: exec, logger: logger}
}

// RunFile parses and executes a fixture file. In complete mode the file is
// rewritten in place after a clean run.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	records, err := ParseFile(path)
	if err != nil {
		return err
	}

	var rewrites []rewrite
	for _, rec := range records {
		actual, err := r.runRecord(ctx, rec)
		if err != nil {
			return err
		}
		if r.Complete && rec.Kind == RecordQuery {
			rewrites = append(rewrites, rewrite{record: rec, lines: actual})
		}
	}
	r.logger.Debug("fixture passed", "file", path, "records", len(records))

	if len(rewrites) > 0 {
		return rewriteFile(path, rewrites)
	}
	return nil
}

// runRecord executes one record and returns the rendered result lines for
// query records.
func (r *Runner) runRecord(ctx context.Context, rec *Record) ([]string, error) {
	if rec.Kind == RecordStatement {
		return nil, r.runStatement(ctx, rec)
	}
	return r.runQuery(ctx, rec)
}

func (r *Runner) runStatement(ctx context.Context, rec *Record) error {
	err := r.exec.Statement(ctx, rec.SQL)
	if rec.ExpectError {
		if err == nil {
			return fmt.Errorf("%s:%d: statement succeeded, expected error containing %q",
				rec.File, rec.Line, rec.ErrorSubstr)
		}
		if !strings.Contains(err.Error(), rec.ErrorSubstr) {
			return fmt.Errorf("%s:%d: error %q does not contain %q",
				rec.File, rec.Line, err.Error(), rec.ErrorSubstr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s:%d: statement failed: %w", rec.File, rec.Line, err)
	}
	return nil
}

func (r *Runner) runQuery(ctx context.Context, rec *Record) ([]string, error) {
	columns, rows, err := r.exec.Query(ctx, rec.SQL)
	if err != nil {
		return nil, fmt.Errorf("%s:%d: query failed: %w", rec.File, rec.Line, err)
	}
	if len(columns) != len(rec.TypeChars) {
		return nil, fmt.Errorf("%s:%d: query returned %d columns, type string %q expects %d",
			rec.File, rec.Line, len(columns), rec.TypeChars, len(rec.TypeChars))
	}

	actual := make([]string, 0, len(rows))
	for _, row := range rows {
		actual = append(actual, strings.Join(row, " "))
	}

	if r.Complete {
		return actual, nil
	}
	expected := rec.Expected
	if expected == nil {
		expected = []string{}
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		return nil, fmt.Errorf("%s:%d: result mismatch (-expected +actual):\n%s",
			rec.File, rec.Line, diff)
	}
	return actual, nil
}

type rewrite struct {
	record *Record
	lines  []string
}

// rewriteFile replaces the expected blocks of the given query records with
// fresh output, preserving every other line of the fixture.
func rewriteFile(path string, rewrites []rewrite) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")

	// Replace from the bottom up so earlier positions stay valid.
	for i := len(rewrites) - 1; i >= 0; i-- {
		rec := rewrites[i].record
		start, end := rec.expectedStart-1, rec.expectedEnd-1
		if start < 0 || end > len(lines) || start > end {
			return fmt.Errorf("%s:%d: stale expected block position", rec.File, rec.Line)
		}
		replaced := make([]string, 0, len(lines)-(end-start)+len(rewrites[i].lines))
		replaced = append(replaced, lines[:start]...)
		replaced = append(replaced, rewrites[i].lines...)
		replaced = append(replaced, lines[end:]...)
		lines = replaced
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}
