// Package block implements the columnar DataBlock the engine moves data in,
// plus block concatenation, size-threshold compaction, and group-key
// iteration helpers.
package block

import (
	"fmt"

	"github.com/albinkc/databend/internal/types"
)

// Entry is one column of a block: a data type and a vector of datums.
type Entry struct {
	Type *types.DataType
	Data []types.Datum
}

// DataBlock is a batch of rows in columnar layout. All entries hold the
// same number of datums.
type DataBlock struct {
	Entries []Entry
	rows    int
}

// New builds a block from entries. All entries must have equal length.
func New(entries []Entry) (*DataBlock, error) {
	rows := 0
	for i, e := range entries {
		if i == 0 {
			rows = len(e.Data)
			continue
		}
		if len(e.Data) != rows {
			return nil, fmt.Errorf("entry %d has %d rows, want %d", i, len(e.Data), rows)
		}
	}
	return &DataBlock{Entries: entries, rows: rows}, nil
}

// Empty returns a zero-row block with the given column types.
func Empty(typs []*types.DataType) *DataBlock {
	entries := make([]Entry, len(typs))
	for i, t := range typs {
		entries[i] = Entry{Type: t}
	}
	return &DataBlock{Entries: entries}
}

// NumRows returns the row count.
func (b *DataBlock) NumRows() int { return b.rows }

// NumColumns returns the column count.
func (b *DataBlock) NumColumns() int { return len(b.Entries) }

// Row returns the datums of one row across all entries.
func (b *DataBlock) Row(i int) []types.Datum {
	row := make([]types.Datum, len(b.Entries))
	for c, e := range b.Entries {
		row[c] = e.Data[i]
	}
	return row
}

// AppendRow appends one row. The datum count must match the column count;
// values are assumed to be already cast to the entry types.
func (b *DataBlock) AppendRow(row []types.Datum) error {
	if len(row) != len(b.Entries) {
		return fmt.Errorf("row has %d values, block has %d columns", len(row), len(b.Entries))
	}
	for c := range b.Entries {
		b.Entries[c].Data = append(b.Entries[c].Data, row[c])
	}
	b.rows++
	return nil
}

// MemorySize estimates the block's in-memory byte footprint. It is used by
// the compactor thresholds, so it only needs to be stable, not exact.
func (b *DataBlock) MemorySize() int {
	size := 0
	for _, e := range b.Entries {
		for _, d := range e.Data {
			size += datumSize(d)
		}
	}
	return size
}

func datumSize(d types.Datum) int {
	switch v := d.(type) {
	case nil:
		return 1
	case bool:
		return 1
	case string:
		return len(v) + 8
	case []types.Datum:
		size := 8
		for _, e := range v {
			size += datumSize(e)
		}
		return size
	default:
		return 8
	}
}

// Concat merges blocks with identical column types into one block.
func Concat(blocks []*DataBlock) (*DataBlock, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("concat of zero blocks")
	}
	first := blocks[0]
	out := Empty(columnTypes(first))
	for bi, blk := range blocks {
		if blk.NumColumns() != first.NumColumns() {
			return nil, fmt.Errorf("block %d has %d columns, want %d", bi, blk.NumColumns(), first.NumColumns())
		}
		for c := range out.Entries {
			out.Entries[c].Data = append(out.Entries[c].Data, blk.Entries[c].Data...)
		}
		out.rows += blk.rows
	}
	return out, nil
}

func columnTypes(b *DataBlock) []*types.DataType {
	typs := make([]*types.DataType, len(b.Entries))
	for i, e := range b.Entries {
		typs[i] = e.Type
	}
	return typs
}
