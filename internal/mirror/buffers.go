// buffers.go: per-source registry of stream ring buffers
package mirror

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/audiomirror/audiomirror-go/internal/conf"
	"github.com/audiomirror/audiomirror-go/internal/errors"
	"github.com/audiomirror/audiomirror-go/internal/logging"
	"github.com/audiomirror/audiomirror-go/internal/observability/metrics"
	"github.com/audiomirror/audiomirror-go/internal/ringbuf"
)

// map to store stream buffers for each audio source
var (
	streamBuffers   map[string]*ringbuf.RingBuffer
	sbMutex         sync.RWMutex // Mutex to protect access to the streamBuffers map
	overflowCounter map[string]int
	mirrorMetrics   *metrics.MirrorMetrics
)

// init initializes the streamBuffers map
func init() {
	streamBuffers = make(map[string]*ringbuf.RingBuffer)
	overflowCounter = make(map[string]int)
}

// SetMetrics wires the Prometheus metrics instance into the registry.
// Pass nil to disable metric recording.
func SetMetrics(m *metrics.MirrorMetrics) {
	sbMutex.Lock()
	defer sbMutex.Unlock()
	mirrorMetrics = m
}

func getMetrics() *metrics.MirrorMetrics {
	sbMutex.RLock()
	defer sbMutex.RUnlock()
	return mirrorMetrics
}

func getLogger() *slog.Logger {
	if l := logging.ForService("mirror"); l != nil {
		return l
	}
	return slog.Default()
}

// SecondsToBytes converts stream length in seconds to bytes
func SecondsToBytes(seconds float64) int {
	return int(seconds * float64(conf.SampleRate) * float64(conf.BytesPerSample))
}

// AllocateStreamBuffer initializes a ring buffer for a single audio source.
// It returns an error if memory allocation fails or if the input is invalid.
func AllocateStreamBuffer(capacity int, source string) error {
	// Validate inputs
	if capacity <= 0 {
		return fmt.Errorf("invalid capacity: %d, must be greater than 0", capacity)
	}
	if source == "" {
		return fmt.Errorf("empty source name provided")
	}

	rb := &ringbuf.RingBuffer{}
	rb.SetLogger(getLogger())
	if err := rb.Init(capacity); err != nil {
		return errors.New(err).
			Component("mirror").
			Category(errors.CategorySystem).
			Context("operation", "allocate-stream-buffer").
			Context("capacity", capacity).
			Build()
	}

	// Update global map safely
	sbMutex.Lock()
	defer sbMutex.Unlock()

	// Check if buffer already exists
	if _, exists := streamBuffers[source]; exists {
		return fmt.Errorf("stream buffer already exists for source: %s", source)
	}

	streamBuffers[source] = rb
	overflowCounter[source] = 0

	if mirrorMetrics != nil {
		mirrorMetrics.UpdateBufferState(source, capacity, 0)
	}

	return nil
}

// AllocateStreamBufferIfNeeded initializes a ring buffer for the source only
// if one does not exist yet.
func AllocateStreamBufferIfNeeded(capacity int, source string) error {
	if HasStreamBuffer(source) {
		return nil
	}
	return AllocateStreamBuffer(capacity, source)
}

// RemoveStreamBuffer safely removes and cleans up the ring buffer for a single source.
func RemoveStreamBuffer(source string) error {
	sbMutex.Lock()
	defer sbMutex.Unlock()

	if _, exists := streamBuffers[source]; !exists {
		return fmt.Errorf("no stream buffer found for source: %s", source)
	}

	delete(streamBuffers, source)
	delete(overflowCounter, source)
	return nil
}

// HasStreamBuffer checks if a stream buffer exists for the given source
func HasStreamBuffer(source string) bool {
	sbMutex.RLock()
	defer sbMutex.RUnlock()
	_, exists := streamBuffers[source]
	return exists
}

// InitStreamBuffers initializes the stream buffers for each audio source with
// a given capacity. It returns an error if initialization fails for any source.
func InitStreamBuffers(capacity int, sources []string) error {
	if len(sources) == 0 {
		return fmt.Errorf("no audio sources provided")
	}

	// Try to initialize each buffer
	var initErrors []string
	for _, source := range sources {
		if err := AllocateStreamBuffer(capacity, source); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("source %s: %v", source, err))
		}
	}

	// If there were any errors, return them all
	if len(initErrors) > 0 {
		return fmt.Errorf("failed to initialize some stream buffers: %s", strings.Join(initErrors, "; "))
	}

	return nil
}

func getStreamBuffer(source string) (*ringbuf.RingBuffer, *metrics.MirrorMetrics, bool) {
	sbMutex.RLock()
	defer sbMutex.RUnlock()
	rb, exists := streamBuffers[source]
	return rb, mirrorMetrics, exists
}

// WriteToStreamBuffer adds PCM audio data to the buffer for a given source.
// Overflow is not an error: the oldest unread bytes are gone, the event is
// logged and counted, and capture continues.
func WriteToStreamBuffer(source string, data []byte) error {
	rb, m, exists := getStreamBuffer(source)
	if !exists {
		return fmt.Errorf("no stream buffer found for source: %s", source)
	}

	err := rb.Put(data)
	switch {
	case err == nil:
		// Written in full
	case errors.Is(err, ringbuf.ErrBufferOverflow):
		if m != nil {
			m.RecordBufferOverflow(source)
		}
		// Rate limit the log, a sustained overrun would flood it
		sbMutex.Lock()
		overflowCounter[source]++
		count := overflowCounter[source]
		sbMutex.Unlock()
		if count%32 == 1 {
			getLogger().Warn("stream buffer overflow, oldest audio dropped",
				"source", source, "occurrences", count, "capacity", rb.GetSize())
		}
	default:
		if m != nil {
			m.RecordBufferWriteError(source)
		}
		return errors.New(err).
			Component("mirror").
			Category(errors.CategoryBuffer).
			Context("operation", "write-stream-buffer").
			Context("source", source).
			Context("bytes", len(data)).
			Build()
	}

	if m != nil {
		m.RecordBufferWrite(source, len(data))
		m.UpdateBufferState(source, rb.GetSize(), rb.GetAvailableBytes())
	}
	return nil
}

// ReadFromStreamBuffer takes up to len(p) unread bytes from the buffer for a
// given source. While the buffer is filling it returns 0 and
// ringbuf.ErrNotReady; callers are expected to poll.
func ReadFromStreamBuffer(source string, p []byte) (int, error) {
	rb, m, exists := getStreamBuffer(source)
	if !exists {
		return 0, fmt.Errorf("no stream buffer found for source: %s", source)
	}

	n, err := rb.Take(p)
	if err != nil {
		if errors.Is(err, ringbuf.ErrNotReady) {
			if m != nil {
				m.RecordBufferNotReady(source)
			}
			return 0, err
		}
		return 0, errors.New(err).
			Component("mirror").
			Category(errors.CategoryBuffer).
			Context("operation", "read-stream-buffer").
			Context("source", source).
			Build()
	}

	if m != nil {
		m.RecordBufferRead(source, n)
		m.UpdateBufferState(source, rb.GetSize(), rb.GetAvailableBytes())
	}
	return n, nil
}

// ClearStreamBuffer resets the buffer state for a source, used on stream restart.
func ClearStreamBuffer(source string) error {
	rb, _, exists := getStreamBuffer(source)
	if !exists {
		return fmt.Errorf("no stream buffer found for source: %s", source)
	}
	rb.Clear()
	return nil
}

// StreamBufferAvailableBytes reports the unread byte count for a source, 0
// while the buffer is filling.
func StreamBufferAvailableBytes(source string) (int, error) {
	rb, _, exists := getStreamBuffer(source)
	if !exists {
		return 0, fmt.Errorf("no stream buffer found for source: %s", source)
	}
	return rb.GetAvailableBytes(), nil
}
