package mirror

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/audiomirror/audiomirror-go/internal/conf"
)

// collectingWriter records segments in memory for assertions.
type collectingWriter struct {
	mu       sync.Mutex
	segments [][]byte
}

func (w *collectingWriter) WriteSegment(source string, pcm []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	segment := make([]byte, len(pcm))
	copy(segment, pcm)
	w.segments = append(w.segments, segment)
	return nil
}

func (w *collectingWriter) collected() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]byte, len(w.segments))
	copy(out, w.segments)
	return out
}

func TestStreamMonitorFlushOnQuit(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := "test_monitor_1"
	require.NoError(t, AllocateStreamBuffer(1000, source))
	defer func() { require.NoError(t, RemoveStreamBuffer(source)) }()

	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, WriteToStreamBuffer(source, data))

	writer := &collectingWriter{}
	quitChan := make(chan struct{})
	var wg sync.WaitGroup

	StreamMonitor(&wg, quitChan, source, 1, writer)

	// Give the monitor a few ticks to drain the buffer
	require.Eventually(t, func() bool {
		avail, err := StreamBufferAvailableBytes(source)
		return err == nil && avail == 0
	}, 2*time.Second, 10*time.Millisecond, "monitor did not drain the buffer")

	close(quitChan)
	wg.Wait()

	segments := writer.collected()
	require.Len(t, segments, 1, "partial segment must be flushed on quit")
	assert.Equal(t, data, segments[0])
}

func TestStreamMonitorSegmentRollover(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := "test_monitor_2"
	require.NoError(t, AllocateStreamBuffer(16000, source))
	defer func() { require.NoError(t, RemoveStreamBuffer(source)) }()

	writer := &collectingWriter{}
	quitChan := make(chan struct{})
	var wg sync.WaitGroup

	StreamMonitor(&wg, quitChan, source, 1, writer)

	segmentSize := conf.BytesPerSecond // one second segments

	// Feed a bit more than one full segment through the buffer in chunks
	// large enough to re-open the hysteresis gate after each drain
	const chunkSize = 9000
	total := 0
	next := 0
	for total < segmentSize+2*chunkSize {
		// Wait for the previous chunk to be fully drained so consecutive
		// writes can never overflow the buffer
		require.Eventually(t, func() bool {
			avail, err := StreamBufferAvailableBytes(source)
			return err == nil && avail == 0
		}, 2*time.Second, time.Millisecond)

		chunk := make([]byte, chunkSize)
		for i := range chunk {
			chunk[i] = byte((next + i) % 251)
		}
		require.NoError(t, WriteToStreamBuffer(source, chunk))
		next += chunkSize
		total += chunkSize
	}

	// Let the monitor catch up, then stop it
	require.Eventually(t, func() bool {
		avail, err := StreamBufferAvailableBytes(source)
		return err == nil && avail == 0
	}, 2*time.Second, 10*time.Millisecond)

	close(quitChan)
	wg.Wait()

	segments := writer.collected()
	require.NotEmpty(t, segments)
	assert.Len(t, segments[0], segmentSize, "first segment must be exactly one second of audio")

	// The concatenated segments must reproduce the written stream in order
	var got []byte
	for _, s := range segments {
		got = append(got, s...)
	}
	require.Equal(t, total, len(got), "all written bytes must be exported")
	for i := range got {
		if got[i] != byte(i%251) {
			t.Fatalf("byte %d: got %d, want %d", i, got[i], byte(i%251))
		}
	}
}
