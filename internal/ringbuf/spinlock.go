package ringbuf

import (
	"runtime"
	"sync/atomic"
)

// spinLock is a busy-wait mutual exclusion primitive. Unlike sync.Mutex it
// never parks the calling goroutine, which keeps the realtime capture
// callback safe to run at elevated scheduling priority. Critical sections
// guarded by it must stay short and bounded.
//
// The zero value is an unlocked spinLock.
type spinLock struct {
	state atomic.Bool
}

// Lock spins until the lock is acquired, yielding the processor between
// attempts so the holder can make progress on a contended core.
func (l *spinLock) Lock() {
	for !l.state.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// Unlock releases the lock. Calling Unlock on an unlocked spinLock is a
// programming error and will corrupt mutual exclusion.
func (l *spinLock) Unlock() {
	l.state.Store(false)
}
