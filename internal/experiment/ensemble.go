package experiment

import (
	"context"
	"sync"

	"github.com/san-kum/segsim/internal/config"
	"github.com/san-kum/segsim/internal/schelling"
	"github.com/sirupsen/logrus"
)

// EnsembleRun is the outcome of one seed of an ensemble.
type EnsembleRun struct {
	Seed   int64
	Result *schelling.Result
	Err    error
}

// Ensemble runs independent copies of one configuration with consecutive
// seeds. Every run owns its grid, random source and metrics, so a run is
// reproducible no matter how many workers execute the ensemble.
type Ensemble struct {
	runs    int
	workers int
	log     logrus.FieldLogger
}

func NewEnsemble(runs, workers int, log logrus.FieldLogger) *Ensemble {
	return &Ensemble{runs: max(runs, 1), workers: max(workers, 1), log: log}
}

// Run executes the ensemble with seeds cfg.Seed, cfg.Seed+1, ... and returns
// one entry per seed in seed order. newMetrics, when not nil, is called once
// per run.
func (e *Ensemble) Run(ctx context.Context, cfg *config.Config, newMetrics func() []schelling.Metric) []EnsembleRun {
	out := make([]EnsembleRun, e.runs)
	sem := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i := 0; i < e.runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			c := *cfg
			c.Seed = cfg.Seed + int64(idx)
			out[idx].Seed = c.Seed

			var ms []schelling.Metric
			if newMetrics != nil {
				ms = newMetrics()
			}
			exp := New(&c, e.log)
			if err := exp.Setup(ms); err != nil {
				out[idx].Err = err
				return
			}
			out[idx].Result, out[idx].Err = exp.Run(ctx)
		}(i)
	}

	wg.Wait()
	return out
}
