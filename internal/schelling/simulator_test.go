package schelling_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/segsim/internal/schelling"
)

type recorder struct {
	started  int
	steps    []int
	finished *schelling.Result
}

func (r *recorder) OnStart(g *schelling.Grid) { r.started++ }

func (r *recorder) OnStep(step int, g *schelling.Grid, mv schelling.Move) {
	r.steps = append(r.steps, step)
}

func (r *recorder) OnFinish(res *schelling.Result) { r.finished = res }

type countMetric struct{ n int }

func (m *countMetric) Name() string   { return "observations" }
func (m *countMetric) Value() float64 { return float64(m.n) }
func (m *countMetric) Reset()         { m.n = 0 }

func (m *countMetric) Observe(step int, g *schelling.Grid) { m.n++ }

var _ = Describe("Simulator", func() {
	var (
		sim *schelling.Simulator
		rec *recorder
		cfg schelling.Config
	)

	BeforeEach(func() {
		sim = schelling.New()
		rec = &recorder{}
		sim.AddObserver(rec)
		cfg = schelling.Config{MaxSteps: 5}
	})

	It("converges on the first step when everyone is happy", func() {
		g := mustGrid([][]schelling.Cell{
			{A, A, E},
			{A, E, E},
			{E, E, E},
		})
		res, err := sim.Run(context.Background(), g, &scriptedRand{}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(schelling.StatusConverged))
		Expect(res.ConvergedAt).To(Equal(1))
		Expect(res.Moves).To(Equal(0))
		Expect(res.Message()).To(Equal("stabilized at step 1"))
		Expect(rec.started).To(Equal(1))
		Expect(rec.steps).To(BeEmpty())
		Expect(rec.finished).To(BeIdenticalTo(res))
	})

	It("exhausts the budget when convergence is impossible", func() {
		// a single A agent can never find two A neighbours
		g := mustGrid([][]schelling.Cell{{A, B}, {E, E}})
		res, err := sim.Run(context.Background(), g, newRand(5), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(schelling.StatusBudgetExhausted))
		Expect(res.Steps).To(Equal(5))
		Expect(res.Moves).To(Equal(5))
		Expect(rec.steps).To(Equal([]int{1, 2, 3, 4, 5}))
		Expect(res.Final.Counts()).To(Equal(res.Initial))
		Expect(res.Message()).To(Equal("step budget of 5 exhausted without stabilizing"))
	})

	It("never invokes more steps than the budget", func() {
		rng := newRand(9)
		g, err := schelling.Populate(15, schelling.DefaultRatios(), rng)
		Expect(err).NotTo(HaveOccurred())
		cfg.MaxSteps = 40
		res, err := sim.Run(context.Background(), g, rng, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(BeNumerically("<=", 40))
		Expect(res.Status.Terminal()).To(BeTrue())
	})

	It("samples metrics on the initial grid and after every move", func() {
		m := &countMetric{}
		sim.AddMetric(m)
		g := mustGrid([][]schelling.Cell{{A, B}, {E, E}})
		res, err := sim.Run(context.Background(), g, newRand(1), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(HaveKeyWithValue("observations", 6.0))
	})

	It("stops with the partial result when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		g := mustGrid([][]schelling.Cell{{A, B}, {E, E}})
		res, err := sim.Run(ctx, g, newRand(1), cfg)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(res.Status).To(Equal(schelling.StatusCanceled))
		Expect(res.Steps).To(Equal(0))
	})

	It("honours cancellation during the inter-step delay", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		g := mustGrid([][]schelling.Cell{{A, B}, {E, E}})
		cfg = schelling.Config{MaxSteps: 1000, Delay: time.Second}
		res, err := sim.Run(ctx, g, newRand(1), cfg)
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
		Expect(res.Status).To(Equal(schelling.StatusCanceled))
		Expect(res.Moves).To(Equal(1))
	})

	It("aborts with ErrInvalidState when agents cannot move", func() {
		g := mustGrid([][]schelling.Cell{{A, B}, {B, A}})
		res, err := sim.Run(context.Background(), g, &scriptedRand{}, cfg)
		Expect(errors.Is(err, schelling.ErrInvalidState)).To(BeTrue())
		var se *schelling.StepError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Step).To(Equal(1))
		Expect(res.Status).To(Equal(schelling.StatusFailed))
	})

	It("reproduces a run from the same seed", func() {
		run := func() *schelling.Grid {
			rng := newRand(42)
			g, err := schelling.Populate(12, schelling.DefaultRatios(), rng)
			Expect(err).NotTo(HaveOccurred())
			res, err := schelling.New().Run(context.Background(), g, rng, schelling.Config{MaxSteps: 300})
			Expect(err).NotTo(HaveOccurred())
			return res.Final
		}
		Expect(run().Equal(run())).To(BeTrue())
	})

	DescribeTable("rejects invalid driver configuration",
		func(c schelling.Config) {
			_, err := sim.Run(context.Background(), schelling.NewGrid(2), newRand(1), c)
			Expect(errors.Is(err, schelling.ErrInvalidConfiguration)).To(BeTrue())
		},
		Entry("zero budget", schelling.Config{MaxSteps: 0}),
		Entry("negative delay", schelling.Config{MaxSteps: 1, Delay: -time.Second}),
	)
})

var _ = Describe("Session", func() {
	It("advances one step at a time and stops at the budget", func() {
		rec := &recorder{}
		sim := schelling.New()
		sim.AddObserver(rec)
		g := mustGrid([][]schelling.Cell{{A, B}, {E, E}})

		ss, err := sim.Start(g, newRand(2), schelling.Config{MaxSteps: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(ss.Status()).To(Equal(schelling.StatusRunning))
		Expect(rec.started).To(Equal(1))

		for i := 1; i <= 3; i++ {
			moved, err := ss.Advance()
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeTrue())
			Expect(ss.Steps()).To(Equal(i))
		}
		Expect(ss.Status()).To(Equal(schelling.StatusBudgetExhausted))

		moved, err := ss.Advance()
		Expect(err).NotTo(HaveOccurred())
		Expect(moved).To(BeFalse())
		Expect(ss.Steps()).To(Equal(3))

		first := ss.Finish()
		rec.finished = nil
		Expect(ss.Finish()).To(BeIdenticalTo(first))
		Expect(rec.finished).To(BeNil())
	})

	It("does not override a terminal status on cancel", func() {
		g := mustGrid([][]schelling.Cell{{A, A}, {A, E}})
		ss, err := schelling.New().Start(g, &scriptedRand{}, schelling.Config{MaxSteps: 3})
		Expect(err).NotTo(HaveOccurred())
		_, err = ss.Advance()
		Expect(err).NotTo(HaveOccurred())
		Expect(ss.Status()).To(Equal(schelling.StatusConverged))
		ss.Cancel()
		Expect(ss.Status()).To(Equal(schelling.StatusConverged))
	})
})
