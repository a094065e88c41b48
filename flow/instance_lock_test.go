package flow

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstanceLockEvictsReleasedEntries(t *testing.T) {
	l := newInstanceLock()

	l.Lock("inst-1")
	l.mu.Lock()
	require.Len(t, l.locks, 1)
	l.mu.Unlock()

	l.Unlock("inst-1")
	l.mu.Lock()
	require.Empty(t, l.locks)
	l.mu.Unlock()
}

func TestInstanceLockKeepsEntryWhileContended(t *testing.T) {
	l := newInstanceLock()
	l.Lock("inst-1")

	var wg sync.WaitGroup
	entered := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(entered)
		l.Lock("inst-1")
		l.Unlock("inst-1")
	}()
	<-entered

	// waiter is registered, releasing the first hold must not drop the
	// entry out from under it
	l.Unlock("inst-1")
	wg.Wait()

	l.mu.Lock()
	require.Empty(t, l.locks)
	l.mu.Unlock()
}

func TestInstanceLockSerializesPerInstance(t *testing.T) {
	l := newInstanceLock()
	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock("inst-1")
			counter++
			l.Unlock("inst-1")
		}()
	}
	wg.Wait()
	require.Equal(t, 16, counter)
}
