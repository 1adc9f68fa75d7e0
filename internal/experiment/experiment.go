package experiment

import (
	"context"
	"fmt"
	"io"

	"github.com/san-kum/segsim/internal/config"
	"github.com/san-kum/segsim/internal/schelling"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// NewRand returns the seeded source shared by initialization and stepping.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(uint64(seed)))
}

type Experiment struct {
	cfg        config.Config
	simulator  *schelling.Simulator
	grid       *schelling.Grid
	randSource *rand.Rand
	log        logrus.FieldLogger
}

func New(cfg *config.Config, log logrus.FieldLogger) *Experiment {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	return &Experiment{
		cfg:        *cfg,
		randSource: NewRand(cfg.Seed),
		log:        log.WithField("seed", cfg.Seed),
	}
}

// Setup validates the configuration and draws the initial grid.
func (e *Experiment) Setup(metrics []schelling.Metric, observers ...schelling.Observer) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	g, err := schelling.Populate(e.cfg.Size, e.cfg.Ratios(), e.randSource)
	if err != nil {
		return err
	}
	e.grid = g

	e.simulator = schelling.New(schelling.WithLogger(e.log))
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	for _, o := range observers {
		e.simulator.AddObserver(o)
	}
	e.log.WithField("counts", fmt.Sprintf("%+v", g.Counts())).Debug("grid populated")
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*schelling.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.grid, e.randSource, e.cfg.SimConfig())
}

// Grid returns the initial grid after Setup and the live grid during a run.
func (e *Experiment) Grid() *schelling.Grid {
	return e.grid
}

func (e *Experiment) Config() config.Config {
	return e.cfg
}
