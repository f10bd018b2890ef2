package sender

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recruitmail/internal/types"
)

func TestStatusBoard_AbsentIsNotSent(t *testing.T) {
	b := NewStatusBoard()
	assert.Equal(t, types.SendStatus{State: types.SendStateNotSent}, b.Get(42))
	assert.Empty(t, b.Snapshot())
}

func TestStatusBoard_SetSnapshotReset(t *testing.T) {
	b := NewStatusBoard()
	now := time.Now()
	b.Set(1, types.SendStatus{State: types.SendStateSent, Message: "ok", CompletedAt: &now})

	snap := b.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, types.SendStateSent, snap[1].State)

	snap[2] = types.SendStatus{State: types.SendStateFailed}
	assert.Equal(t, types.SendStateNotSent, b.Get(2).State, "snapshot is a copy")

	b.Reset()
	assert.Empty(t, b.Snapshot())
}

func TestStatusBoard_ConcurrentReaders(t *testing.T) {
	b := NewStatusBoard()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = b.Snapshot()
				_ = b.Get(j)
			}
		}()
	}
	for j := 0; j < 100; j++ {
		b.Set(j, types.SendStatus{State: types.SendStateSending})
	}
	wg.Wait()
	assert.Len(t, b.Snapshot(), 100)
}
