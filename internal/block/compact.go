package block

import (
	"errors"
	"sync/atomic"
)

// ErrAborted is returned by Finish when the compactor was interrupted.
var ErrAborted = errors.New("compaction aborted")

// CompactThresholds decides when a run of accumulated rows/bytes is large
// enough to emit as a single block.
type CompactThresholds struct {
	MaxRows  int
	MaxBytes int
}

// LargeEnough reports whether rows or bytes reach the threshold.
// A zero threshold on either axis disables that axis.
func (t CompactThresholds) LargeEnough(rows, bytes int) bool {
	if t.MaxRows > 0 && rows >= t.MaxRows {
		return true
	}
	if t.MaxBytes > 0 && bytes >= t.MaxBytes {
		return true
	}
	return false
}

// Compactor accumulates small blocks and merges them once their combined
// size crosses the thresholds. Blocks that are already large enough pass
// through unmerged; blocks are never split.
type Compactor struct {
	thresholds CompactThresholds
	aborting   atomic.Bool

	pending          []*DataBlock
	accumulatedRows  int
	accumulatedBytes int
}

// NewCompactor returns a compactor with the given thresholds.
func NewCompactor(t CompactThresholds) *Compactor {
	return &Compactor{thresholds: t}
}

// Interrupt flags the compactor so that Finish fails instead of emitting
// the remaining partial run.
func (c *Compactor) Interrupt() {
	c.aborting.Store(true)
}

// Push feeds one block in and returns zero or more blocks ready to emit.
func (c *Compactor) Push(b *DataBlock) ([]*DataBlock, error) {
	if b == nil || b.NumRows() == 0 {
		return nil, nil
	}

	rows := b.NumRows()
	bytes := b.MemorySize()

	if c.thresholds.LargeEnough(rows, bytes) {
		// Pass through the block that just arrived.
		return []*DataBlock{b}, nil
	}

	c.pending = append(c.pending, b)
	c.accumulatedRows += rows
	c.accumulatedBytes += bytes

	if c.thresholds.LargeEnough(c.accumulatedRows, c.accumulatedBytes) {
		merged, err := Concat(c.pending)
		if err != nil {
			return nil, err
		}
		c.pending = nil
		c.accumulatedRows = 0
		c.accumulatedBytes = 0
		return []*DataBlock{merged}, nil
	}

	return nil, nil
}

// Finish flushes whatever partial run remains.
func (c *Compactor) Finish() ([]*DataBlock, error) {
	if c.accumulatedRows == 0 {
		return nil, nil
	}
	if c.aborting.Load() {
		return nil, ErrAborted
	}
	merged, err := Concat(c.pending)
	if err != nil {
		return nil, err
	}
	c.pending = nil
	c.accumulatedRows = 0
	c.accumulatedBytes = 0
	return []*DataBlock{merged}, nil
}
