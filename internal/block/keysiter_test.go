package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === FixedKeysIter tests ===

func TestFixedKeysIter(t *testing.T) {
	it, err := NewFixedKeysIter([]byte{1, 2, 3, 4, 5, 6}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, it.Len())

	var keys [][]byte
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, append([]byte(nil), k...))
	}
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}, {5, 6}}, keys)
}

func TestFixedKeysIter_Validation(t *testing.T) {
	_, err := NewFixedKeysIter([]byte{1, 2, 3}, 2)
	require.Error(t, err)

	_, err = NewFixedKeysIter([]byte{1}, 0)
	require.Error(t, err)
}

// === SerializedKeysIter tests ===

func TestSerializedKeysIter(t *testing.T) {
	data := []byte("abxyzq")
	it, err := NewSerializedKeysIter(data, []int{0, 2, 5, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 4, it.Len())

	var keys []string
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, string(k))
	}
	assert.Equal(t, []string{"ab", "xyz", "", "q"}, keys)
}

func TestSerializedKeysIter_Validation(t *testing.T) {
	_, err := NewSerializedKeysIter([]byte("ab"), nil)
	require.Error(t, err)

	_, err = NewSerializedKeysIter([]byte("ab"), []int{0, 2, 1})
	require.Error(t, err)

	_, err = NewSerializedKeysIter([]byte("ab"), []int{0, 3})
	require.Error(t, err)
}
