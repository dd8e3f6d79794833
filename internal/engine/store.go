// Package engine executes parsed statements: DDL against the catalog,
// INSERT into the in-memory block store, and SELECT through the expression
// evaluator. It is the system the logic-test harness drives by default.
package engine

import (
	"fmt"
	"sync"

	"github.com/albinkc/databend/internal/block"
	"github.com/albinkc/databend/internal/types"
)

// defaultThresholds controls how small inserted blocks are merged before
// they land in the store.
var defaultThresholds = block.CompactThresholds{MaxRows: 65536, MaxBytes: 16 << 20}

// tableData holds the blocks of one table plus its pending compactor run.
type tableData struct {
	types     []*types.DataType
	blocks    []*block.DataBlock
	compactor *block.Compactor
}

// Store keeps table row data in memory, keyed by catalog table id. Schema
// lives in the metastore; the store only sees column types.
type Store struct {
	mu     sync.RWMutex
	tables map[uint64]*tableData
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[uint64]*tableData)}
}

// Append adds a block to the table, compacting small blocks together.
func (s *Store) Append(tableID uint64, typs []*types.DataType, b *block.DataBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.tables[tableID]
	if !ok {
		td = &tableData{types: typs, compactor: block.NewCompactor(defaultThresholds)}
		s.tables[tableID] = td
	}

	ready, err := td.compactor.Push(b)
	if err != nil {
		return fmt.Errorf("compact insert block: %w", err)
	}
	td.blocks = append(td.blocks, ready...)
	return nil
}

// Scan returns one block with all rows of the table, or an empty block when
// the table has never been written. Pending compactor runs are flushed
// first so readers always see every insert.
func (s *Store) Scan(tableID uint64, typs []*types.DataType) (*block.DataBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.tables[tableID]
	if !ok {
		return block.Empty(typs), nil
	}

	flushed, err := td.compactor.Finish()
	if err != nil {
		return nil, fmt.Errorf("flush pending blocks: %w", err)
	}
	td.blocks = append(td.blocks, flushed...)

	if len(td.blocks) == 0 {
		return block.Empty(td.types), nil
	}
	merged, err := block.Concat(td.blocks)
	if err != nil {
		return nil, fmt.Errorf("merge table blocks: %w", err)
	}
	// Keep the merged form so repeated scans stay cheap.
	td.blocks = []*block.DataBlock{merged}
	return merged, nil
}

// Drop discards the table's data. Dropping an unknown table is a no-op.
func (s *Store) Drop(tableID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, tableID)
}
