package schelling_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/segsim/internal/schelling"
)

var _ = Describe("Populate", func() {
	It("places floor(ratio*n^2) agents of each group", func() {
		g, err := schelling.Populate(10, schelling.Ratios{Blue: 0.45, Red: 0.45, Empty: 0.1}, newRand(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Size()).To(Equal(10))
		Expect(g.Counts()).To(Equal(schelling.Counts{GroupA: 45, GroupB: 45, Empty: 10}))
	})

	It("fills slots left over by truncation with empty cells", func() {
		g, err := schelling.Populate(3, schelling.Ratios{Blue: 0.4, Red: 0.4, Empty: 0.1}, newRand(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Counts()).To(Equal(schelling.Counts{GroupA: 3, GroupB: 3, Empty: 3}))
	})

	It("is reproducible for a given seed", func() {
		a, err := schelling.Populate(20, schelling.DefaultRatios(), newRand(7))
		Expect(err).NotTo(HaveOccurred())
		b, err := schelling.Populate(20, schelling.DefaultRatios(), newRand(7))
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Equal(b)).To(BeTrue())
	})

	DescribeTable("rejects invalid parameters",
		func(n int, r schelling.Ratios) {
			_, err := schelling.Populate(n, r, newRand(1))
			Expect(errors.Is(err, schelling.ErrInvalidConfiguration)).To(BeTrue())
		},
		Entry("zero size", 0, schelling.DefaultRatios()),
		Entry("negative ratio", 5, schelling.Ratios{Blue: -0.1, Red: 0.5, Empty: 0.5}),
		Entry("ratio above one", 5, schelling.Ratios{Blue: 1.5}),
		Entry("counts exceed the grid", 5, schelling.Ratios{Blue: 0.6, Red: 0.6}),
	)

	Context("when the grid has no empty cells", func() {
		It("fails fast if an agent is unhappy", func() {
			_, err := schelling.Populate(2, schelling.Ratios{Blue: 0.5, Red: 0.5}, newRand(3))
			Expect(errors.Is(err, schelling.ErrInvalidConfiguration)).To(BeTrue())

			var cfgErr *schelling.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("empty_ratio"))
		})

		It("fails for a lone agent", func() {
			_, err := schelling.Populate(1, schelling.Ratios{Blue: 1}, newRand(3))
			Expect(errors.Is(err, schelling.ErrInvalidConfiguration)).To(BeTrue())
		})

		It("accepts a grid where everyone is already happy", func() {
			g, err := schelling.Populate(4, schelling.Ratios{Blue: 1}, newRand(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(schelling.UnhappyCells(g)).To(BeEmpty())
		})
	})
})

var _ = Describe("IsHappy", func() {
	It("treats empty cells as happy", func() {
		g := schelling.NewGrid(3)
		Expect(schelling.IsHappy(g, schelling.Coord{Row: 1, Col: 1})).To(BeTrue())
	})

	It("needs two same-coloured neighbours in the interior", func() {
		g := mustGrid([][]schelling.Cell{
			{A, B, B},
			{B, A, B},
			{B, B, E},
		})
		centre := schelling.Coord{Row: 1, Col: 1}
		Expect(schelling.SameColorNeighbors(g, centre)).To(Equal(1))
		Expect(schelling.IsHappy(g, centre)).To(BeFalse())

		g.Set(schelling.Coord{Row: 2, Col: 2}, A)
		Expect(schelling.IsHappy(g, centre)).To(BeTrue())
	})

	It("keeps the threshold fixed for corner cells", func() {
		g := mustGrid([][]schelling.Cell{
			{A, A, E},
			{E, E, E},
			{E, E, E},
		})
		Expect(schelling.IsHappy(g, schelling.Coord{Row: 0, Col: 0})).To(BeFalse())

		g.Set(schelling.Coord{Row: 1, Col: 1}, A)
		Expect(schelling.IsHappy(g, schelling.Coord{Row: 0, Col: 0})).To(BeTrue())
	})
})

var _ = Describe("UnhappyCells", func() {
	It("returns nothing for an all-empty grid", func() {
		Expect(schelling.UnhappyCells(schelling.NewGrid(3))).To(BeEmpty())
	})

	It("scans in row-major order", func() {
		g := mustGrid([][]schelling.Cell{
			{A, A, E},
			{B, B, E},
			{E, E, E},
		})
		Expect(schelling.UnhappyCells(g)).To(Equal([]schelling.Coord{
			{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1},
		}))
	})
})

var _ = Describe("Step", func() {
	It("reports no change on an all-empty grid", func() {
		g := schelling.NewGrid(3)
		rng := &scriptedRand{}
		_, changed, err := schelling.Step(g, rng)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeFalse())
		Expect(rng.draws).To(Equal(0))
	})

	It("moves the picked agent to the picked empty cell", func() {
		g := mustGrid([][]schelling.Cell{
			{A, A, E},
			{B, B, E},
			{E, E, E},
		})
		// third unhappy agent (1,0), third empty cell (2,0)
		rng := &scriptedRand{picks: []int{2, 2}}
		mv, changed, err := schelling.Step(g, rng)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(rng.draws).To(Equal(2))
		Expect(mv).To(Equal(schelling.Move{
			From:  schelling.Coord{Row: 1, Col: 0},
			To:    schelling.Coord{Row: 2, Col: 0},
			Color: B,
		}))
		Expect(g.At(mv.From)).To(Equal(E))
		Expect(g.At(mv.To)).To(Equal(B))
	})

	It("relocates a lone agent to any of the empty cells", func() {
		seen := map[schelling.Coord]int{}
		for seed := uint64(0); seed < 300; seed++ {
			g := mustGrid([][]schelling.Cell{{A, E}, {E, E}})
			mv, changed, err := schelling.Step(g, newRand(seed))
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(g.Counts().GroupA).To(Equal(1))
			seen[mv.To]++
		}
		Expect(seen).To(HaveLen(3))
		for _, n := range seen {
			Expect(n).To(BeNumerically(">", 50))
		}
	})

	It("conserves each colour across many steps", func() {
		rng := newRand(11)
		g, err := schelling.Populate(12, schelling.DefaultRatios(), rng)
		Expect(err).NotTo(HaveOccurred())
		before := g.Counts()
		for i := 0; i < 500; i++ {
			prev := g.Clone()
			mv, changed, err := schelling.Step(g, rng)
			Expect(err).NotTo(HaveOccurred())
			if !changed {
				break
			}
			Expect(g.Counts()).To(Equal(before))
			Expect(prev.At(mv.To)).To(Equal(E))
			Expect(prev.At(mv.From)).To(Equal(mv.Color))
		}
	})

	It("leaves a converged grid untouched", func() {
		g := mustGrid([][]schelling.Cell{
			{A, A, A},
			{A, E, A},
			{A, A, A},
		})
		Expect(schelling.UnhappyCells(g)).To(BeEmpty())
		before := g.Clone()
		rng := &scriptedRand{}
		for i := 0; i < 3; i++ {
			_, changed, err := schelling.Step(g, rng)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeFalse())
		}
		Expect(g.Equal(before)).To(BeTrue())
		Expect(rng.draws).To(Equal(0))
	})

	It("fails with ErrInvalidState when no empty cell exists", func() {
		g := mustGrid([][]schelling.Cell{{A, B}, {B, A}})
		before := g.Clone()
		_, changed, err := schelling.Step(g, &scriptedRand{})
		Expect(changed).To(BeFalse())
		Expect(errors.Is(err, schelling.ErrInvalidState)).To(BeTrue())
		Expect(g.Equal(before)).To(BeTrue())
	})
})
