package sim

import (
	"context"
	"sync"
)

// BuildFunc assembles an independent runner for one ensemble member. The
// returned cleanup is called when the member finishes.
type BuildFunc func(seed int64) (*Runner, func(), error)

// Ensemble repeats a run over independently seeded simulated modules, e.g.
// to sample fault injection outcomes. Members share nothing.
type Ensemble struct {
	build     BuildFunc
	numRuns   int
	seedStart int64
}

func NewEnsemble(build BuildFunc, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, p Profile, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			r, cleanup, err := e.build(e.seedStart + int64(idx))
			if err != nil {
				errs[idx] = err
				return
			}
			defer cleanup()

			results[idx], errs[idx] = r.Run(ctx, p, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
