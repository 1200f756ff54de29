package workerpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of compilation tasks that run at once. It is sized
// once at startup and shared by every task scheduled against it.
type Pool struct {
	size int
}

// New returns a pool of the given size. A size of zero or less uses the
// number of available CPUs.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if size < 1 {
		size = 1
	}
	return &Pool{size: size}
}

func (p *Pool) Size() int {
	return p.size
}

// Run executes tasks with at most Size running concurrently. The first error
// cancels the context passed to the remaining tasks.
func (p *Pool) Run(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx)
		})
	}

	return g.Wait()
}
