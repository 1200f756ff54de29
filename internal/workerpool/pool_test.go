package workerpool

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_sizing(t *testing.T) {
	require.Equal(t, 3, New(3).Size())
	require.Equal(t, runtime.NumCPU(), New(0).Size())
	require.Equal(t, runtime.NumCPU(), New(-4).Size())
	require.GreaterOrEqual(t, New(0).Size(), 1)
}

func TestRun_limitsConcurrency(t *testing.T) {
	p := New(2)

	var running, peak atomic.Int32
	task := func(ctx context.Context) error {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	tasks := make([]func(context.Context) error, 8)
	for i := range tasks {
		tasks[i] = task
	}

	require.NoError(t, p.Run(context.Background(), tasks...))
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_returnsFirstError(t *testing.T) {
	p := New(1)
	boom := errors.New("boom")

	var ran atomic.Int32
	err := p.Run(context.Background(),
		func(ctx context.Context) error { ran.Add(1); return boom },
		func(ctx context.Context) error { ran.Add(1); return nil },
	)
	require.ErrorIs(t, err, boom)
	require.Equal(t, int32(1), ran.Load())
}
