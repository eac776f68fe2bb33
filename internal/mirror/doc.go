// Package mirror implements the audio mirror pipeline: capturing PCM audio
// from a local device, decoupling the realtime capture callback from the
// consumer through a per-source stream ring buffer, and draining the stream
// into fixed-length WAV segments.
//
// The producer side is the miniaudio data callback in capture.go, which must
// never block. The consumer side is StreamMonitor in drain.go, which polls
// the buffer and tolerates the ring buffer's fill gate by retrying. The
// registry in buffers.go maps source names to their buffers so both sides
// can reach the same buffer without sharing state directly.
package mirror
