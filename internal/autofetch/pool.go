package autofetch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers 同时进行的网络请求数
const DefaultWorkers = 8

// pool 限制同一个 Fetcher 下并发的搜索和歌词请求
type pool struct {
	sem *semaphore.Weighted
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &pool{sem: semaphore.NewWeighted(int64(workers))}
}

// runIO 占用一个槽位执行 fn，只在网络请求期间持有
func runIO[T any](ctx context.Context, p *pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer p.sem.Release(1)
	return fn(ctx)
}
