package session

import (
	"sync"
	"testing"
)

func TestLocksSerializeSameKey(t *testing.T) {
	locks := NewLocks()

	const turns = 100
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire("session-1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	if counter != turns {
		t.Errorf("counter = %d, want %d", counter, turns)
	}
}

func TestLocksIndependentKeys(t *testing.T) {
	locks := NewLocks()

	releaseA := locks.Acquire("a")
	// Must not block on a different key while "a" is held.
	releaseB := locks.Acquire("b")
	releaseB()
	releaseA()
}

func TestLocksEntriesReclaimed(t *testing.T) {
	locks := NewLocks()

	release := locks.Acquire("ephemeral")
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.entries) != 0 {
		t.Errorf("entries not reclaimed: %d remaining", len(locks.entries))
	}
}
