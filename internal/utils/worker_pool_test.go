package utils

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_SingleWorkerKeepsOrder(t *testing.T) {
	pool := NewWorkerPool(1, zerolog.Nop())

	var (
		mu    sync.Mutex
		order []int
	)
	for i := 0; i < 100; i++ {
		i := i
		assert.True(t, pool.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	pool.Shutdown()

	assert.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestWorkerPool_SurvivesPanics(t *testing.T) {
	pool := NewWorkerPool(2, zerolog.Nop())

	var ran atomic.Int32
	pool.Submit(func() { panic("boom") })
	pool.Submit(func() { ran.Add(1) })
	pool.Submit(func() { ran.Add(1) })
	pool.Shutdown()

	assert.Equal(t, int32(2), ran.Load())
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(0, zerolog.Nop())
	pool.Shutdown()
	pool.Shutdown()

	assert.False(t, pool.Submit(func() { t.Error("job ran after shutdown") }))
}

func TestSliceToSet(t *testing.T) {
	set := SliceToSet([]string{"a", "b", "a"})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "a")
	assert.Contains(t, set, "b")
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "37.4219983", FormatCoordinate(37.4219983))
	assert.Equal(t, "-122", FormatCoordinate(-122))
	assert.Equal(t, "0.5", FormatCoordinate(0.5))
}
