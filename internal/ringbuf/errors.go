package ringbuf

import (
	"github.com/audiomirror/audiomirror-go/internal/errors"
)

// Sentinel values for ring buffer status conditions. These are plain
// sentinels so callers can tell the conditions apart with errors.Is; the
// stream registry layer wraps them with component and category metadata.
var (
	// ErrBufferTooSmall is returned by Put when a single write is larger
	// than the buffer capacity. Nothing is written.
	ErrBufferTooSmall = errors.NewStd("ringbuf: write larger than buffer capacity")

	// ErrBufferOverflow is returned by Put when the write succeeded but the
	// oldest unread bytes were discarded to make room. It is a data loss
	// diagnostic, not a failure.
	ErrBufferOverflow = errors.NewStd("ringbuf: overflow, oldest unread bytes discarded")

	// ErrNotReady is returned by Take while the hysteresis gate is closed,
	// before the buffer has filled past half its capacity. Retrying later
	// is the expected recovery.
	ErrNotReady = errors.NewStd("ringbuf: not ready, buffer is filling")

	// ErrNotInitialized is returned when Put or Take is called before a
	// successful Init.
	ErrNotInitialized = errors.NewStd("ringbuf: buffer not initialized")
)
