package search

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is every random draw a strategy makes. Runs are replayable given
// the same Source seed.
type Source interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
	Beta(alpha, beta float64) float64
}

// NewSource returns a PCG-backed Source seeded with seed.
func NewSource(seed uint64) Source {
	p := pcg{rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	return &randSource{r: rand.New(p), src: p}
}

type randSource struct {
	r   *rand.Rand
	src pcg
}

func (s *randSource) Float64() float64 { return s.r.Float64() }

func (s *randSource) IntN(n int) int { return s.r.IntN(n) }

func (s *randSource) Shuffle(n int, swap func(i, j int)) { s.r.Shuffle(n, swap) }

// Beta draws from Beta(alpha, beta) on the same stream as the uniform draws.
func (s *randSource) Beta(alpha, beta float64) float64 {
	return distuv.Beta{Alpha: alpha, Beta: beta, Src: s.src}.Rand()
}

// pcg shares the PCG stream with the rand.Source gonum samplers draw from.
type pcg struct {
	p *rand.PCG
}

func (s pcg) Uint64() uint64 { return s.p.Uint64() }

func (s pcg) Seed(seed uint64) { s.p.Seed(seed, seed^0x9e3779b97f4a7c15) }
