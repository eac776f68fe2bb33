package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiomirror/audiomirror-go/internal/ringbuf"
)

// Note: the registry is package-global, so tests use unique source names.

func TestAllocateStreamBuffer(t *testing.T) {
	source := "test_alloc_1"

	require.NoError(t, AllocateStreamBuffer(1000, source))
	defer func() { require.NoError(t, RemoveStreamBuffer(source)) }()

	assert.True(t, HasStreamBuffer(source))

	// Second allocation for the same source must fail
	err := AllocateStreamBuffer(1000, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// AllocateStreamBufferIfNeeded tolerates an existing buffer
	require.NoError(t, AllocateStreamBufferIfNeeded(1000, source))
}

func TestAllocateStreamBufferValidation(t *testing.T) {
	require.Error(t, AllocateStreamBuffer(0, "test_alloc_2"))
	require.Error(t, AllocateStreamBuffer(-5, "test_alloc_2"))
	require.Error(t, AllocateStreamBuffer(1000, ""))
	require.Error(t, AllocateStreamBuffer(ringbuf.MaxCapacity+1, "test_alloc_2"))
	assert.False(t, HasStreamBuffer("test_alloc_2"))
}

func TestRemoveStreamBuffer(t *testing.T) {
	source := "test_remove_1"

	require.NoError(t, AllocateStreamBuffer(1000, source))
	require.NoError(t, RemoveStreamBuffer(source))
	assert.False(t, HasStreamBuffer(source))

	err := RemoveStreamBuffer(source)
	require.Error(t, err, "removing a missing buffer must fail")
}

func TestInitStreamBuffers(t *testing.T) {
	sources := []string{"test_multi_1", "test_multi_2"}

	require.NoError(t, InitStreamBuffers(1000, sources))
	defer func() {
		for _, s := range sources {
			require.NoError(t, RemoveStreamBuffer(s))
		}
	}()

	for _, s := range sources {
		assert.True(t, HasStreamBuffer(s))
	}

	require.Error(t, InitStreamBuffers(1000, nil), "no sources must be an error")
	require.Error(t, InitStreamBuffers(1000, sources), "duplicate sources must be an error")
}

func TestWriteReadRoundTrip(t *testing.T) {
	source := "test_roundtrip_1"

	require.NoError(t, AllocateStreamBuffer(1000, source))
	defer func() { require.NoError(t, RemoveStreamBuffer(source)) }()

	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i % 251)
	}

	require.NoError(t, WriteToStreamBuffer(source, data))

	avail, err := StreamBufferAvailableBytes(source)
	require.NoError(t, err)
	assert.Equal(t, 600, avail, "600 of 1000 bytes crosses the fill threshold")

	got := make([]byte, 1000)
	n, err := ReadFromStreamBuffer(source, got)
	require.NoError(t, err)
	require.Equal(t, 600, n)
	assert.Equal(t, data, got[:n])
}

func TestReadWhileFilling(t *testing.T) {
	source := "test_filling_1"

	require.NoError(t, AllocateStreamBuffer(1000, source))
	defer func() { require.NoError(t, RemoveStreamBuffer(source)) }()

	// Half or less keeps the gate closed
	require.NoError(t, WriteToStreamBuffer(source, make([]byte, 500)))

	n, err := ReadFromStreamBuffer(source, make([]byte, 100))
	assert.Equal(t, 0, n)
	require.ErrorIs(t, err, ringbuf.ErrNotReady)
}

func TestWriteOverflowIsNotAnError(t *testing.T) {
	source := "test_overflow_1"

	require.NoError(t, AllocateStreamBuffer(1000, source))
	defer func() { require.NoError(t, RemoveStreamBuffer(source)) }()

	require.NoError(t, WriteToStreamBuffer(source, make([]byte, 1000)))
	// Overflowing write drops the oldest bytes but reports success upstream
	require.NoError(t, WriteToStreamBuffer(source, make([]byte, 100)))

	avail, err := StreamBufferAvailableBytes(source)
	require.NoError(t, err)
	assert.Equal(t, 999, avail)
}

func TestWriteLargerThanCapacityIsAnError(t *testing.T) {
	source := "test_toobig_1"

	require.NoError(t, AllocateStreamBuffer(1000, source))
	defer func() { require.NoError(t, RemoveStreamBuffer(source)) }()

	err := WriteToStreamBuffer(source, make([]byte, 1001))
	require.Error(t, err)
	require.ErrorIs(t, err, ringbuf.ErrBufferTooSmall)
}

func TestClearStreamBuffer(t *testing.T) {
	source := "test_clear_1"

	require.NoError(t, AllocateStreamBuffer(1000, source))
	defer func() { require.NoError(t, RemoveStreamBuffer(source)) }()

	require.NoError(t, WriteToStreamBuffer(source, make([]byte, 600)))
	require.NoError(t, ClearStreamBuffer(source))

	avail, err := StreamBufferAvailableBytes(source)
	require.NoError(t, err)
	assert.Equal(t, 0, avail)
}

func TestMissingSource(t *testing.T) {
	require.Error(t, WriteToStreamBuffer("test_missing", []byte{1}))

	_, err := ReadFromStreamBuffer("test_missing", make([]byte, 1))
	require.Error(t, err)

	require.Error(t, ClearStreamBuffer("test_missing"))

	_, err = StreamBufferAvailableBytes("test_missing")
	require.Error(t, err)
}

func TestSecondsToBytes(t *testing.T) {
	// 48 kHz, 16-bit mono
	assert.Equal(t, 96000, SecondsToBytes(1))
	assert.Equal(t, 48000, SecondsToBytes(0.5))
}
