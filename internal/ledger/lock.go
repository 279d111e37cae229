package ledger

import (
	"fmt"
	"sync"
)

// KeyedMutex provides one mutex per entity key so that operations against the
// same volunteer balance or the same opportunity are serialized while
// operations on unrelated entities proceed concurrently. SQLite has no row
// locks, so this stands in for SELECT ... FOR UPDATE.
//
// Mutexes are retained for the life of the process; the key space is bounded
// by the number of entities in the database.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, blocking until it is available, and
// returns the corresponding unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// VolunteerKey returns the lock key guarding a volunteer's balance.
func VolunteerKey(id int64) string {
	return fmt.Sprintf("volunteer:%d", id)
}

// OpportunityKey returns the lock key guarding an opportunity's status.
func OpportunityKey(id int64) string {
	return fmt.Sprintf("opportunity:%d", id)
}
