package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(ctx, TournamentKey(1))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, m.Held())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	r1, err := m.Lock(ctx, TournamentKey(1))
	require.NoError(t, err)
	r2, err := m.Lock(ctx, TournamentKey(2))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Held())
	r1()
	r2()
	assert.Equal(t, 0, m.Held())
}

func TestKeyedMutexContextCancel(t *testing.T) {
	m := NewKeyedMutex()
	release, err := m.Lock(context.Background(), TournamentKeys(1, 2)...)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, TournamentKeys(2, 3)...)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.Equal(t, 0, m.Held())

	again, err := m.Lock(context.Background(), TournamentKeys(3, 2, 2)...)
	require.NoError(t, err)
	again()
	again()
}

func TestChain(t *testing.T) {
	a, b := NewKeyedMutex(), NewKeyedMutex()
	release, err := Chain(a, nil, b).Lock(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Held())
	assert.Equal(t, 1, b.Held())
	release()
	assert.Equal(t, 0, a.Held())
	assert.Equal(t, 0, b.Held())
}
