// Package logictest parses and runs SQL logic test fixtures. A fixture is
// a plain text file of records: a directive line, the SQL under test, and
// for queries an expected result block after a ---- separator.
package logictest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

type RecordKind int

const (
	// RecordStatement runs SQL and checks only success or failure.
	RecordStatement RecordKind = iota
	// RecordQuery runs SQL and compares rendered rows to an expected block.
	RecordQuery
)

// Record is one directive parsed from a fixture file.
type Record struct {
	Kind RecordKind
	File string
	Line int

	SQL string

	// Statement fields.
	ExpectError bool
	ErrorSubstr string

	// Query fields.
	TypeChars string
	Label     string
	Expected  []string

	// Expected block position in the source file, for --complete rewrites.
	// Lines are 1-based; expectedEnd is exclusive. Zero when the record has
	// no expected block.
	expectedStart int
	expectedEnd   int
}

const resultSeparator = "----"

// ParseFile reads a fixture from disk.
func ParseFile(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

// Parse reads fixture records from r. The name is used in positions and
// error messages only.
func Parse(name string, r io.Reader) ([]*Record, error) {
	p := &fixtureParser{name: name, scanner: bufio.NewScanner(r)}
	return p.parse()
}

type fixtureParser struct {
	name    string
	scanner *bufio.Scanner
	line    int

	// One line of lookahead for the record loop.
	peeked  bool
	peekVal string
	peekErr error
}

func (p *fixtureParser) next() (string, bool) {
	if p.peeked {
		p.peeked = false
		p.line++
		return p.peekVal, true
	}
	if !p.scanner.Scan() {
		return "", false
	}
	p.line++
	return p.scanner.Text(), true
}

func (p *fixtureParser) unread(line string) {
	p.peeked = true
	p.peekVal = line
	p.line--
}

func (p *fixtureParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.name, p.line, fmt.Sprintf(format, args...))
}

func (p *fixtureParser) parse() ([]*Record, error) {
	var records []*Record
	for {
		line, ok := p.next()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(trimmed)
		var (
			rec *Record
			err error
		)
		switch fields[0] {
		case "statement":
			rec, err = p.parseStatement(fields)
		case "query":
			rec, err = p.parseQuery(fields)
		default:
			err = p.errorf("unknown directive %q", fields[0])
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return records, nil
}

// parseStatement handles "statement ok" and "statement error <substr>".
func (p *fixtureParser) parseStatement(fields []string) (*Record, error) {
	rec := &Record{Kind: RecordStatement, File: p.name, Line: p.line}
	if len(fields) < 2 {
		return nil, p.errorf("statement directive needs ok or error")
	}
	switch fields[1] {
	case "ok":
		if len(fields) > 2 {
			return nil, p.errorf("unexpected arguments after statement ok")
		}
	case "error":
		rec.ExpectError = true
		rec.ErrorSubstr = strings.Join(fields[2:], " ")
	default:
		return nil, p.errorf("statement directive needs ok or error, got %q", fields[1])
	}

	sql, _, err := p.readSQL(false)
	if err != nil {
		return nil, err
	}
	rec.SQL = sql
	return rec, nil
}

// parseQuery handles "query <typechars> [label]".
func (p *fixtureParser) parseQuery(fields []string) (*Record, error) {
	rec := &Record{Kind: RecordQuery, File: p.name, Line: p.line}
	if len(fields) < 2 {
		return nil, p.errorf("query directive needs a type string")
	}
	rec.TypeChars = fields[1]
	for _, c := range rec.TypeChars {
		switch c {
		case 'T', 'I', 'R', 'B':
		default:
			return nil, p.errorf("unknown result type %q", string(c))
		}
	}
	if len(fields) > 2 {
		rec.Label = fields[2]
	}

	sql, sawSep, err := p.readSQL(true)
	if err != nil {
		return nil, err
	}
	rec.SQL = sql
	if !sawSep {
		return nil, p.errorf("query record is missing a %s separator", resultSeparator)
	}

	rec.expectedStart = p.line + 1
	for {
		line, ok := p.next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			p.unread(line)
			break
		}
		rec.Expected = append(rec.Expected, line)
	}
	rec.expectedEnd = p.line + 1
	return rec, nil
}

// readSQL accumulates SQL lines until a blank line, the ---- separator when
// the caller expects one, or EOF. It reports whether the separator ended
// the block.
func (p *fixtureParser) readSQL(wantSeparator bool) (string, bool, error) {
	var lines []string
	for {
		line, ok := p.next()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == resultSeparator {
			if !wantSeparator {
				return "", false, p.errorf("unexpected %s after a statement", resultSeparator)
			}
			if len(lines) == 0 {
				return "", false, p.errorf("missing SQL before %s", resultSeparator)
			}
			return strings.Join(lines, "\n"), true, nil
		}
		if trimmed == "" {
			p.unread(line)
			break
		}
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	if len(lines) == 0 {
		return "", false, p.errorf("directive has no SQL")
	}
	return strings.Join(lines, "\n"), false, nil
}
