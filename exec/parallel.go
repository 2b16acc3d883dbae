package exec

import (
	"context"
	"sync"
)

// Pool runs independent tasks with bounded concurrency.
type Pool struct {
	maxWorkers int
}

func NewPool(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Pool{maxWorkers: maxWorkers}
}

type TaskFunc func(ctx context.Context, id string) error

// Execute runs fn once per id and returns the error of every id. Tasks not yet
// started when ctx is cancelled report ctx.Err().
func (p *Pool) Execute(ctx context.Context, ids []string, fn TaskFunc) map[string]error {
	results := make(map[string]error, len(ids))
	var mu sync.Mutex

	sem := make(chan struct{}, p.maxWorkers)
	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			var err error
			select {
			case sem <- struct{}{}:
				if err = ctx.Err(); err == nil {
					err = fn(ctx, id)
				}
				<-sem
			case <-ctx.Done():
				err = ctx.Err()
			}

			mu.Lock()
			results[id] = err
			mu.Unlock()
		}(id)
	}

	wg.Wait()

	return results
}
