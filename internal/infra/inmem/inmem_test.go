package inmem

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sunr3d/explorer/models"
)

func TestInmemStat_AddAndList(t *testing.T) {
	stat := New(zaptest.NewLogger(t), "archive")
	ctx := context.Background()

	require.NoError(t, stat.Add(ctx, "alice", models.StatEvent{Message: "first", Name: "a"}))
	require.NoError(t, stat.Add(ctx, "alice", models.StatEvent{Error: "boom"}))
	require.NoError(t, stat.Add(ctx, "bob", models.StatEvent{Message: "other"}))

	events, err := stat.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].Message)
	assert.False(t, events[0].IsError())
	assert.False(t, events[0].Timestamp.IsZero())
	assert.True(t, events[1].IsError())

	events, err = stat.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestInmemStat_ListReturnsCopy(t *testing.T) {
	stat := New(zaptest.NewLogger(t), "archive")
	ctx := context.Background()

	require.NoError(t, stat.Add(ctx, "alice", models.StatEvent{Message: "first"}))

	events, err := stat.List(ctx, "alice")
	require.NoError(t, err)
	events[0].Message = "mutated"

	events, err = stat.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "first", events[0].Message)
}

func TestInmemStat_Validation(t *testing.T) {
	stat := New(zaptest.NewLogger(t), "archive")
	ctx := context.Background()

	assert.ErrorIs(t, stat.Add(ctx, "", models.StatEvent{Message: "x"}), ErrUsernameEmpty)
	assert.ErrorIs(t, stat.Add(ctx, "alice", models.StatEvent{}), ErrEventEmpty)

	_, err := stat.List(ctx, "")
	assert.ErrorIs(t, err, ErrUsernameEmpty)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, stat.Add(canceled, "alice", models.StatEvent{Message: "x"}), ErrContextDone)
}

func TestInmemStat_ConcurrentAppends(t *testing.T) {
	stat := New(zaptest.NewLogger(t), "archive")
	ctx := context.Background()

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				msg := fmt.Sprintf("%d-%d", w, i)
				assert.NoError(t, stat.Add(ctx, "alice", models.StatEvent{Message: msg}))
			}
		}(w)
	}
	wg.Wait()

	events, err := stat.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, events, writers*perWriter)
}
