package utils

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()

	var count int64
	for i := 0; i < 100; i++ {
		pool.SubmitOrRun(func() {
			atomic.AddInt64(&count, 1)
		})
	}

	pool.Wait()
	pool.Stop()

	assert.Equal(t, int64(100), atomic.LoadInt64(&count))
}

func TestWorkerPoolRunsInlineWhenSaturated(t *testing.T) {
	// A single worker with a full task channel falls back to running
	// the task on the submitting goroutine.
	pool := NewWorkerPool(1)
	pool.Start()

	var count int64
	for i := 0; i < 50; i++ {
		pool.SubmitOrRun(func() {
			atomic.AddInt64(&count, 1)
		})
	}

	pool.Wait()
	pool.Stop()

	assert.Equal(t, int64(50), atomic.LoadInt64(&count))
}

func TestWorkerPoolDefaultSize(t *testing.T) {
	pool := NewWorkerPool(0)
	assert.Greater(t, pool.workerCount, 0)
}
