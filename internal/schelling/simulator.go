package schelling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusRunning         Status = "running"
	StatusConverged       Status = "converged"
	StatusBudgetExhausted Status = "budget_exhausted"
	StatusCanceled        Status = "canceled"
	StatusFailed          Status = "failed"
)

func (s Status) Terminal() bool {
	return s != StatusRunning
}

type Config struct {
	MaxSteps int
	Delay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxSteps: 100000,
		Delay:    time.Millisecond,
	}
}

func (c Config) Validate() error {
	if c.MaxSteps < 1 {
		return &ConfigError{Field: "max_steps", Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxSteps)}
	}
	if c.Delay < 0 {
		return &ConfigError{Field: "delay", Reason: fmt.Sprintf("must not be negative, got %v", c.Delay)}
	}
	return nil
}

type Result struct {
	Status      Status
	Steps       int
	Moves       int
	ConvergedAt int
	Budget      int
	Initial     Counts
	Final       *Grid
	Metrics     map[string]float64
}

// Message is the human readable termination signal of a run.
func (r *Result) Message() string {
	switch r.Status {
	case StatusConverged:
		return fmt.Sprintf("stabilized at step %d", r.ConvergedAt)
	case StatusBudgetExhausted:
		return fmt.Sprintf("step budget of %d exhausted without stabilizing", r.Budget)
	case StatusCanceled:
		return fmt.Sprintf("canceled after %d steps", r.Steps)
	case StatusFailed:
		return fmt.Sprintf("failed at step %d", r.Steps)
	default:
		return fmt.Sprintf("running (step %d)", r.Steps)
	}
}

// Observer is notified after every relocation. The grid is live and must be
// treated as read-only; Clone it to keep a copy.
type Observer interface {
	OnStep(step int, g *Grid, mv Move)
}

// StartObserver is optionally implemented by observers that render the
// initial grid before the first step.
type StartObserver interface {
	OnStart(g *Grid)
}

// FinishObserver is optionally implemented by observers that want the result.
type FinishObserver interface {
	OnFinish(r *Result)
}

// Metric is sampled on the initial grid (step 0) and after every relocation.
type Metric interface {
	Name() string
	Observe(step int, g *Grid)
	Value() float64
	Reset()
}

type Option func(*Simulator)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Simulator) { s.log = l }
}

type Simulator struct {
	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

func New(opts ...Option) *Simulator {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	s := &Simulator{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       quiet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Session is a run in progress. It lets event-driven callers such as a UI
// advance the state machine one step at a time; Run drives it to completion.
type Session struct {
	sim      *Simulator
	grid     *Grid
	rng      Rand
	cfg      Config
	result   *Result
	log      logrus.FieldLogger
	finished bool
}

// Start validates cfg, samples metrics on the initial grid and notifies
// start observers. The returned session is RUNNING.
func (s *Simulator) Start(g *Grid, rng Rand, cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g == nil || g.n == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidGrid)
	}

	ss := &Session{
		sim:  s,
		grid: g,
		rng:  rng,
		cfg:  cfg,
		result: &Result{
			Status:  StatusRunning,
			Budget:  cfg.MaxSteps,
			Initial: g.Counts(),
			Metrics: make(map[string]float64),
		},
		log: s.log.WithFields(logrus.Fields{"size": g.n, "max_steps": cfg.MaxSteps}),
	}
	ss.log.WithField("agents", ss.result.Initial.Agents()).Debug("run started")

	for _, m := range s.metrics {
		m.Reset()
		m.Observe(0, g)
	}
	for _, o := range s.observers {
		if so, ok := o.(StartObserver); ok {
			so.OnStart(g)
		}
	}
	return ss, nil
}

func (ss *Session) Status() Status { return ss.result.Status }
func (ss *Session) Steps() int     { return ss.result.Steps }
func (ss *Session) Moves() int     { return ss.result.Moves }
func (ss *Session) Grid() *Grid    { return ss.grid }

// Advance performs one step and reports whether an agent moved. It is a no-op
// once the session is terminal. A step error moves the session to FAILED.
func (ss *Session) Advance() (bool, error) {
	r := ss.result
	if r.Status.Terminal() {
		return false, nil
	}

	i := r.Steps + 1
	mv, changed, err := Step(ss.grid, ss.rng)
	r.Steps = i
	if err != nil {
		var se *StepError
		if errors.As(err, &se) {
			se.Step = i
		}
		r.Status = StatusFailed
		return false, err
	}
	if !changed {
		r.Status = StatusConverged
		r.ConvergedAt = i
		return false, nil
	}

	r.Moves++
	for _, m := range ss.sim.metrics {
		m.Observe(i, ss.grid)
	}
	for _, o := range ss.sim.observers {
		o.OnStep(i, ss.grid, mv)
	}
	if i >= ss.cfg.MaxSteps {
		r.Status = StatusBudgetExhausted
	}
	return true, nil
}

// Cancel marks a running session as CANCELED.
func (ss *Session) Cancel() {
	if !ss.result.Status.Terminal() {
		ss.result.Status = StatusCanceled
	}
}

// Finish collects metric values and notifies finish observers. It is safe to
// call more than once; observers are notified only the first time.
func (ss *Session) Finish() *Result {
	r := ss.result
	r.Final = ss.grid
	for _, m := range ss.sim.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	if ss.finished {
		return r
	}
	ss.finished = true
	for _, o := range ss.sim.observers {
		if fo, ok := o.(FinishObserver); ok {
			fo.OnFinish(r)
		}
	}
	ss.log.WithFields(logrus.Fields{"status": r.Status, "steps": r.Steps, "moves": r.Moves}).Debug("run finished")
	return r
}

// Run steps g until no agent is unhappy, cfg.MaxSteps steps have been taken,
// or ctx is done. On cancellation the partial result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context, g *Grid, rng Rand, cfg Config) (*Result, error) {
	ss, err := s.Start(g, rng, cfg)
	if err != nil {
		return nil, err
	}

	var runErr error
	for !ss.Status().Terminal() {
		if err := ctx.Err(); err != nil {
			ss.Cancel()
			runErr = err
			break
		}
		moved, err := ss.Advance()
		if err != nil {
			runErr = err
			break
		}
		if moved && !ss.Status().Terminal() {
			if err := wait(ctx, cfg.Delay); err != nil {
				ss.Cancel()
				runErr = err
			}
		}
	}

	result := ss.Finish()
	if runErr != nil {
		ss.log.WithError(runErr).WithField("status", result.Status).Warn("run stopped")
		return result, runErr
	}
	return result, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
