package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Locker = (*Local)(nil)
	_ Locker = (*Redis)(nil)
	_ Locker = (*timeoutLocker)(nil)
)

func TestLocker_UnlockFuncReleasesKeys(t *testing.T) {
	var l Locker = WithTimeout(NewLocal(), time.Second)

	unlock, err := l.Lock(context.Background(), "table:1", "table:2")
	require.NoError(t, err)
	require.NotNil(t, unlock)
	unlock()

	unlock, err = l.Lock(context.Background(), "table:2")
	require.NoError(t, err)
	unlock()
}

func TestNormalizeKeys(t *testing.T) {
	got := normalizeKeys([]string{"table:2", "", "table:1", "table:2"})
	assert.Equal(t, []string{"table:1", "table:2"}, got)
}

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "table:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocal_OppositeOrderDoesNotDeadlock(t *testing.T) {
	l := NewLocal()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "table:1", "table:2")
			if assert.NoError(t, err) {
				unlock()
			}
		}()
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "table:2", "table:1")
			if assert.NoError(t, err) {
				unlock()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lockers deadlocked")
	}
}

func TestLocal_TimeoutReleasesPartialLocks(t *testing.T) {
	l := NewLocal()

	unlockB, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrLockTimeout)

	// "a" был отпущен после неудачи
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlockA()
	unlockB()
}

func TestLocal_UnlockIsIdempotent(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	unlock()
	assert.NotPanics(t, unlock)

	unlock2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock2()
}

func TestWithTimeout(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	_, err = WithTimeout(l, 20*time.Millisecond).Lock(context.Background(), "k")
	assert.ErrorIs(t, err, ErrLockTimeout)
}
