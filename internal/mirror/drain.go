// drain.go: the consumer side, polls the stream buffer and exports WAV segments
package mirror

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/audiomirror/audiomirror-go/internal/conf"
	"github.com/audiomirror/audiomirror-go/internal/errors"
	"github.com/audiomirror/audiomirror-go/internal/ringbuf"
)

const pollInterval = time.Millisecond * 10

// SegmentWriter receives completed PCM segments from a StreamMonitor.
type SegmentWriter interface {
	WriteSegment(source string, pcm []byte) error
}

// WAVSegmentWriter writes segments as timestamped WAV files under a base directory.
type WAVSegmentWriter struct {
	BasePath string
}

// WriteSegment stores one segment as <base>/<source>/<timestamp>.wav.
func (w *WAVSegmentWriter) WriteSegment(source string, pcm []byte) error {
	filename := fmt.Sprintf("%s.wav", time.Now().Format("20060102T150405Z0700"))
	return SavePCMDataToWAV(filepath.Join(w.BasePath, source, filename), pcm)
}

// StreamMonitor polls the stream buffer for a source and assembles the drained
// bytes into fixed-length segments, handing each completed segment to the
// writer. It runs until quitChan is closed. This is the consumer side of the
// ring buffer: reads are gated until the buffer has filled past half its
// capacity, so a fresh stream yields nothing for a short while by design.
func StreamMonitor(wg *sync.WaitGroup, quitChan chan struct{}, source string, segmentSeconds int, writer SegmentWriter) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitorStream(quitChan, source, segmentSeconds, writer)
	}()
}

func monitorStream(quitChan chan struct{}, source string, segmentSeconds int, writer SegmentWriter) {
	logger := getLogger()

	segmentSize := segmentSeconds * conf.BytesPerSecond
	segment := make([]byte, 0, segmentSize)

	// Read in tenth-of-a-second chunks
	chunk := make([]byte, conf.BytesPerSecond/10)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	flush := func() {
		if len(segment) == 0 {
			return
		}
		m := getMetrics()
		if err := writer.WriteSegment(source, segment); err != nil {
			if m != nil {
				m.RecordExportError(source)
			}
			logger.Error("segment export failed", "source", source, "bytes", len(segment), "error", err)
		} else {
			if m != nil {
				m.RecordSegmentExported(source)
			}
			logger.Debug("segment exported", "source", source, "bytes", len(segment))
		}
		segment = segment[:0]
	}

	for {
		select {
		case <-quitChan:
			// Flush whatever was collected before shutting down
			flush()
			return

		case <-ticker.C:
			n, err := ReadFromStreamBuffer(source, chunk)
			if err != nil {
				if errors.Is(err, ringbuf.ErrNotReady) {
					// Hysteresis gate is closed, retry on the next tick
					continue
				}
				logger.Error("stream buffer read error", "source", source, "error", err)
				time.Sleep(1 * time.Second)
				continue
			}

			remaining := chunk[:n]
			for len(remaining) > 0 {
				space := segmentSize - len(segment)
				take := min(space, len(remaining))
				segment = append(segment, remaining[:take]...)
				remaining = remaining[take:]

				if len(segment) == segmentSize {
					flush()
				}
			}
		}
	}
}

