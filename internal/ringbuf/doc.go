// Package ringbuf implements the fixed-capacity circular byte buffer that
// decouples the audio capture callback (producer) from the stream drain
// (consumer).
//
// The buffer keeps a pair of monotonically increasing 64-bit position
// counters instead of wrapped indices; their difference is the amount of
// unread data and only their modulo-capacity projection touches storage.
// This avoids the full-vs-empty ambiguity of plain modulo indices.
//
// Mutual exclusion is a busy-wait spin lock. The producer side runs inside
// a realtime audio callback that must never block, so critical sections are
// limited to fixed-size copies and arithmetic; allocation, I/O and logging
// all happen outside the lock.
//
// A hysteresis gate (the filling state) holds reads back until the buffer
// has accumulated more than half its capacity since it last went empty,
// smoothing out producer/consumer rate jitter. Overflowing writes discard
// the oldest unread bytes and report the loss instead of failing.
package ringbuf
