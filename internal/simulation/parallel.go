package simulation

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
)

// MatchJob is a single simulation job.
type MatchJob struct {
	SimID int
	Seed  int64
}

// RunBatchParallel plays numMatches on numWorkers goroutines (NumCPU when <= 0). Seeds
// are drawn up front, so the aggregate equals RunBatch with the same seed. A cancelled
// ctx stops queueing; matches already queued still finish.
func RunBatchParallel(ctx context.Context, opts Options, numMatches int, seed int64, numWorkers int) AggregatedStats {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	jobs := make(chan MatchJob, numMatches)
	results := make(chan MatchResult, numMatches)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go worker(&wg, jobs, results, opts)
	}

	rng := rand.New(rand.NewSource(seed))
queue:
	for i := 0; i < numMatches; i++ {
		if ctx.Err() != nil {
			break
		}
		job := MatchJob{SimID: i, Seed: rng.Int63()}
		select {
		case <-ctx.Done():
			break queue
		case jobs <- job:
		}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	all := make([]MatchResult, 0, numMatches)
	for r := range results {
		all = append(all, r)
	}
	return aggregateResults(all)
}

func worker(wg *sync.WaitGroup, jobs <-chan MatchJob, results chan<- MatchResult, opts Options) {
	defer wg.Done()
	for job := range jobs {
		results <- RunMatch(opts, job.SimID, job.Seed)
	}
}
