package asyncwork_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storelinkhq/storelink/pkg/asyncwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReturnsFactoryResult(t *testing.T) {
	table := asyncwork.New(context.Background(), 4)

	h := table.Set("pkg-a", func(ctx context.Context) (interface{}, error) {
		return "materialised", nil
	})

	v, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "materialised", v)
	require.NoError(t, table.Wait())
}

func TestSetReplacesCurrentTaskForKey(t *testing.T) {
	table := asyncwork.New(context.Background(), 4)

	first := table.Set("pkg-a", func(ctx context.Context) (interface{}, error) {
		return "first", nil
	})
	second := table.Set("pkg-a", func(ctx context.Context) (interface{}, error) {
		return "second", nil
	})

	v, err := second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	// The replaced handle still resolves on its own; only the table's
	// notion of "current for this key" has moved on.
	v, err = first.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	require.NoError(t, table.Wait())
}

func TestReduceChainsOffCurrentTask(t *testing.T) {
	table := asyncwork.New(context.Background(), 4)

	table.Set("pkg-a", func(ctx context.Context) (interface{}, error) {
		return 1, nil
	})
	h := table.Reduce("pkg-a", func(ctx context.Context, prev interface{}) (interface{}, error) {
		return prev.(int) + 1, nil
	})

	v, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	require.NoError(t, table.Wait())
}

func TestReduceWithNoPriorTaskRunsImmediatelyWithNilPrev(t *testing.T) {
	table := asyncwork.New(context.Background(), 4)

	h := table.Reduce("pkg-a", func(ctx context.Context, prev interface{}) (interface{}, error) {
		assert.Nil(t, prev)
		return "seeded", nil
	})

	v, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seeded", v)
	require.NoError(t, table.Wait())
}

func TestReducePropagatesPriorError(t *testing.T) {
	table := asyncwork.New(context.Background(), 4)
	boom := errors.New("boom")

	table.Set("pkg-a", func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	chainCalled := false
	h := table.Reduce("pkg-a", func(ctx context.Context, prev interface{}) (interface{}, error) {
		chainCalled = true
		return nil, nil
	})

	_, err := h.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, chainCalled)
	assert.Error(t, table.Wait())
}

func TestWaitReturnsFirstError(t *testing.T) {
	table := asyncwork.New(context.Background(), 4)
	boom := errors.New("boom")

	table.Set("pkg-a", func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	table.Set("pkg-b", func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})

	err := table.Wait()
	assert.ErrorIs(t, err, boom)
}

func TestConcurrencyCapIsRespected(t *testing.T) {
	table := asyncwork.New(context.Background(), 2)

	var current, max int64
	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		table.Set(string(rune('a'+i)), func(ctx context.Context) (interface{}, error) {
			n := atomic.AddInt64(&current, 1)
			for {
				old := atomic.LoadInt64(&max)
				if n <= old || atomic.CompareAndSwapInt64(&max, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt64(&current, -1)
			return nil, nil
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	require.NoError(t, table.Wait())
	assert.LessOrEqual(t, atomic.LoadInt64(&max), int64(2))
}
