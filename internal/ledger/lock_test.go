package ledger

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(VolunteerKey(1))
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	// Holding one key must not block another.
	unlock := km.Lock(VolunteerKey(1))
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := km.Lock(VolunteerKey(2))
		u()
		close(done)
	}()
	<-done
}

func TestLockKeys(t *testing.T) {
	if VolunteerKey(7) == OpportunityKey(7) {
		t.Error("volunteer and opportunity keys collide for the same id")
	}
	if VolunteerKey(1) != VolunteerKey(1) {
		t.Error("keys for the same volunteer differ")
	}
}
