package reelauth

import (
	"context"
	"sync"
	"time"
)

// janitor periodically sweeps expired blacklist entries and refresh
// records. It runs until stop is called; a sweep failure is left for the
// next tick rather than retried.
type janitor struct {
	interval time.Duration
	now      func() time.Time
	sweep    func(ctx context.Context, cutoff time.Time) (int64, error)

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func startJanitor(
	interval time.Duration,
	now func() time.Time,
	sweep func(ctx context.Context, cutoff time.Time) (int64, error),
) *janitor {
	j := &janitor{
		interval: interval,
		now:      now,
		sweep:    sweep,
		done:     make(chan struct{}),
	}

	j.wg.Add(1)
	go j.run()

	return j
}

func (j *janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = j.sweep(context.Background(), j.now())
		case <-j.done:
			return
		}
	}
}

func (j *janitor) stop() {
	if j == nil {
		return
	}
	j.stopOnce.Do(func() {
		close(j.done)
		j.wg.Wait()
	})
}
