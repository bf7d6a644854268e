package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ConcurrentCreate(t *testing.T) {
	store := NewMemoryStore(time.Hour, 0)
	defer store.Close()

	const workers = 1000

	var wg sync.WaitGroup
	ids := make([]string, workers)
	errs := make([]error, workers)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = store.Create("user@example.com", testCreds("tok"), Profile{})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, workers)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "duplicate session id %s", ids[i])
		seen[ids[i]] = true
	}
	assert.Equal(t, workers, store.Count())
}

func TestMemoryStore_ConcurrentMixedOperations(t *testing.T) {
	store := NewMemoryStore(time.Hour, 0)
	defer store.Close()

	const workers = 100

	seedIDs := make([]string, workers)
	for i := range seedIDs {
		id, err := store.Create("user@example.com", testCreds("seed"), Profile{})
		require.NoError(t, err)
		seedIDs[i] = id
	}

	var wg sync.WaitGroup
	wg.Add(workers * 4)
	for i := 0; i < workers; i++ {
		id := seedIDs[i]
		go func() {
			defer wg.Done()
			if sess, err := store.Lookup(id); err == nil {
				// A returned record is always internally consistent
				assert.Equal(t, "user@example.com", sess.Owner)
				assert.NotNil(t, sess.Credentials)
			}
		}()
		go func() {
			defer wg.Done()
			store.UpdateCredentials(id, testCreds("updated"))
		}()
		go func() {
			defer wg.Done()
			store.SweepExpired()
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Create("other@example.com", testCreds("tok"), Profile{})
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*2, store.Count())
}

func TestMemoryStore_ConcurrentDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour, 0)
	defer store.Close()

	id, err := store.Create("user@example.com", testCreds("tok"), Profile{})
	require.NoError(t, err)

	const workers = 50

	var wg sync.WaitGroup
	deleted := make([]bool, workers)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			deleted[i] = store.Delete(id)
		}(i)
	}
	wg.Wait()

	// Exactly one goroutine saw the entry
	count := 0
	for _, d := range deleted {
		if d {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
