package block

import "fmt"

// KeysIter yields group-by keys in serialized byte form. Two layouts are
// supported: fixed-width keys packed from a numeric column, and
// variable-width keys addressed through an offsets table.
type KeysIter interface {
	// Next returns the next key, or false when exhausted. The returned
	// slice is only valid until the following call.
	Next() ([]byte, bool)
	// Len returns the total number of keys.
	Len() int
}

// FixedKeysIter iterates fixed-width keys stored back to back.
type FixedKeysIter struct {
	data  []byte
	width int
	pos   int
}

// NewFixedKeysIter builds an iterator over len(data)/width keys.
func NewFixedKeysIter(data []byte, width int) (*FixedKeysIter, error) {
	if width <= 0 {
		return nil, fmt.Errorf("key width must be positive, got %d", width)
	}
	if len(data)%width != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of key width %d", len(data), width)
	}
	return &FixedKeysIter{data: data, width: width}, nil
}

func (it *FixedKeysIter) Len() int { return len(it.data) / it.width }

func (it *FixedKeysIter) Next() ([]byte, bool) {
	if it.pos+it.width > len(it.data) {
		return nil, false
	}
	key := it.data[it.pos : it.pos+it.width]
	it.pos += it.width
	return key, true
}

// SerializedKeysIter iterates variable-width keys through an offsets table.
// offsets has one more element than there are keys; key i spans
// data[offsets[i]:offsets[i+1]].
type SerializedKeysIter struct {
	data    []byte
	offsets []int
	pos     int
}

// NewSerializedKeysIter validates the offsets table and builds an iterator.
func NewSerializedKeysIter(data []byte, offsets []int) (*SerializedKeysIter, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("offsets must contain at least one element")
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("offsets not monotonic at %d", i)
		}
	}
	if last := offsets[len(offsets)-1]; last > len(data) {
		return nil, fmt.Errorf("final offset %d exceeds data length %d", last, len(data))
	}
	return &SerializedKeysIter{data: data, offsets: offsets}, nil
}

func (it *SerializedKeysIter) Len() int { return len(it.offsets) - 1 }

func (it *SerializedKeysIter) Next() ([]byte, bool) {
	if it.pos >= len(it.offsets)-1 {
		return nil, false
	}
	key := it.data[it.offsets[it.pos]:it.offsets[it.pos+1]]
	it.pos++
	return key, true
}
