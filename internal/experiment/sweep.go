package experiment

import (
	"context"
	"errors"

	"github.com/san-kum/segsim/internal/config"
	"github.com/san-kum/segsim/internal/metrics"
	"github.com/san-kum/segsim/internal/schelling"
	"github.com/sirupsen/logrus"
)

type SweepPoint struct {
	EmptyRatio     float64
	Runs           int
	Converged      int
	Invalid        int
	MeanSteps      float64
	MeanSimilarity float64
}

func (p SweepPoint) ConvergenceRate() float64 {
	if p.Runs == 0 {
		return 0
	}
	return float64(p.Converged) / float64(p.Runs)
}

type Sweep struct {
	emptyRatios []float64
	seeds       int
	workers     int
	log         logrus.FieldLogger
}

func NewSweep(emptyRatios []float64, seeds int, log logrus.FieldLogger) *Sweep {
	if seeds < 1 {
		seeds = 1
	}
	return &Sweep{emptyRatios: emptyRatios, seeds: seeds, workers: 1, log: log}
}

// SetWorkers bounds how many seeds of a point run at the same time.
func (s *Sweep) SetWorkers(n int) {
	s.workers = max(n, 1)
}

// Run executes the points in order, running the seeds of each point as an
// Ensemble. The agent share left by each empty ratio is split between the
// groups in the proportion of base's blue and red ratios. Seeds count up from
// base.Seed. Configurations rejected as invalid are counted per point, not
// returned.
func (s *Sweep) Run(ctx context.Context, base *config.Config) ([]SweepPoint, error) {
	points := make([]SweepPoint, 0, len(s.emptyRatios))
	newMetrics := func() []schelling.Metric {
		return []schelling.Metric{metrics.NewSimilarity()}
	}

	for _, empty := range s.emptyRatios {
		point := SweepPoint{EmptyRatio: empty}
		steps, similarity := 0.0, 0.0

		cfg := sweepConfig(base, empty, base.Seed)
		for _, run := range NewEnsemble(s.seeds, s.workers, s.log).Run(ctx, &cfg, newMetrics) {
			if run.Err != nil {
				if errors.Is(run.Err, schelling.ErrInvalidConfiguration) {
					point.Invalid++
					continue
				}
				return points, run.Err
			}
			res := run.Result
			point.Runs++
			similarity += res.Metrics["similarity"]
			if res.Status == schelling.StatusConverged {
				point.Converged++
				steps += float64(res.ConvergedAt)
			}
		}

		if point.Converged > 0 {
			point.MeanSteps = steps / float64(point.Converged)
		}
		if point.Runs > 0 {
			point.MeanSimilarity = similarity / float64(point.Runs)
		}
		if s.log != nil {
			s.log.WithFields(logrus.Fields{
				"empty_ratio": empty,
				"converged":   point.Converged,
				"runs":        point.Runs,
			}).Info("sweep point done")
		}
		points = append(points, point)
	}

	return points, nil
}

func sweepConfig(base *config.Config, empty float64, seed int64) config.Config {
	cfg := *base
	cfg.Seed = seed
	cfg.Delay = 0
	cfg.EmptyRatio = empty

	agents := 1 - empty
	if total := base.BlueRatio + base.RedRatio; total > 0 {
		cfg.BlueRatio = agents * base.BlueRatio / total
		cfg.RedRatio = agents * base.RedRatio / total
	} else {
		cfg.BlueRatio, cfg.RedRatio = agents/2, agents/2
	}
	return cfg
}
