package ringbuf

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinLockMutualExclusion(t *testing.T) {
	t.Parallel()

	const (
		workers    = 8
		increments = 10000
	)

	var l spinLock
	var counter int

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*increments, counter, "increments lost, lock failed to exclude")
}
