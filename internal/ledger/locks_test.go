package ledger

import (
	"sync"
	"testing"
	"time"

	"fintrack/internal/testutil"
)

func TestLockManager(t *testing.T) {
	t.Run("acquire_and_release", func(t *testing.T) {
		m := NewLockManager(time.Second)

		release, err := m.Acquire("a")
		testutil.AssertNoError(t, err)
		release()

		release, err = m.Acquire("a")
		testutil.AssertNoError(t, err)
		release()
	})

	t.Run("contention_times_out", func(t *testing.T) {
		m := NewLockManager(50 * time.Millisecond)

		release, err := m.Acquire("a")
		testutil.AssertNoError(t, err)
		defer release()

		_, err = m.Acquire("a")
		testutil.AssertAppError(t, err, "CONCURRENT_MODIFICATION")
	})

	t.Run("partial_acquisition_released_on_timeout", func(t *testing.T) {
		m := NewLockManager(50 * time.Millisecond)

		release, err := m.Acquire("b")
		testutil.AssertNoError(t, err)
		defer release()

		// "a" is free but "b" is held, so the pair acquisition fails.
		_, err = m.Acquire("a", "b")
		testutil.AssertAppError(t, err, "CONCURRENT_MODIFICATION")

		// "a" must have been released on the way out.
		releaseA, err := m.Acquire("a")
		testutil.AssertNoError(t, err)
		releaseA()
	})

	t.Run("duplicate_ids_deduplicated", func(t *testing.T) {
		m := NewLockManager(time.Second)

		release, err := m.Acquire("a", "a", "a")
		testutil.AssertNoError(t, err)
		release()
	})

	t.Run("opposite_order_does_not_deadlock", func(t *testing.T) {
		m := NewLockManager(2 * time.Second)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				release, err := m.Acquire("a", "b")
				if err != nil {
					t.Error(err)
					return
				}
				release()
			}()
			go func() {
				defer wg.Done()
				release, err := m.Acquire("b", "a")
				if err != nil {
					t.Error(err)
					return
				}
				release()
			}()
		}
		wg.Wait()
	})

	t.Run("disjoint_accounts_in_parallel", func(t *testing.T) {
		m := NewLockManager(50 * time.Millisecond)

		releaseA, err := m.Acquire("a")
		testutil.AssertNoError(t, err)
		defer releaseA()

		// Holding "a" must not block "b".
		releaseB, err := m.Acquire("b")
		testutil.AssertNoError(t, err)
		releaseB()
	})
}
