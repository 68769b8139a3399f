package allocation

import (
	"math/rand/v2"

	"github.com/kilianp07/tradeflow/core/model"
)

// DefaultLargeChunkProbability is the chance that a random assignment takes
// between half and all of the assignable amount instead of a small slice.
const DefaultLargeChunkProbability = 0.7

// RandomChunk assigns each exporter's supply to importers in random chunks
// bounded by the importers' remaining capacity. Once capacity is exhausted the
// rest overflows to a random importer, which keeps export totals exact at the
// cost of import totals.
//
// Randomness is never ambient: every year draws from a generator seeded with
// (Seed, year), so a run is reproducible even when years execute concurrently.
type RandomChunk struct {
	Seed                  uint64
	LargeChunkProbability float64

	// NewRand may replace the per-year generator, mainly in tests.
	NewRand func(year int) *rand.Rand
}

// NewRandomChunk returns a RandomChunk allocator with the given seed.
func NewRandomChunk(seed uint64) *RandomChunk {
	return &RandomChunk{Seed: seed, LargeChunkProbability: DefaultLargeChunkProbability}
}

func (a *RandomChunk) rng(year int) *rand.Rand {
	if a.NewRand != nil {
		return a.NewRand(year)
	}
	return rand.New(rand.NewPCG(a.Seed, uint64(year)))
}

// Allocate implements Allocator.
func (a *RandomChunk) Allocate(year int, supply, demand model.Vector) ([]model.Flow, error) {
	s, d, err := validate(supply, demand)
	if err != nil {
		return nil, err
	}
	rng := a.rng(year)
	p := a.LargeChunkProbability
	if p <= 0 || p > 1 {
		p = DefaultLargeChunkProbability
	}

	m := NewMatrix(s, d)
	capacity := make([]int64, len(m.Importers))
	for c, i := range m.Importers {
		capacity[c] = d[i]
	}
	for r, e := range m.Exporters {
		remaining := s[e]
		for remaining > 0 {
			var avail []int
			for c, q := range capacity {
				if q > 0 {
					avail = append(avail, c)
				}
			}
			if len(avail) == 0 {
				m.Cells[r][rng.IntN(len(m.Importers))] += remaining
				break
			}
			rng.Shuffle(len(avail), func(i, j int) { avail[i], avail[j] = avail[j], avail[i] })
			for _, c := range avail {
				limit := min(remaining, capacity[c])
				q := chunk(rng, limit, p)
				m.Cells[r][c] += q
				capacity[c] -= q
				remaining -= q
				if remaining == 0 {
					break
				}
			}
		}
	}
	Correct(m, s, nil)
	return m.Flows(year), nil
}

// chunk draws an amount in [1, limit]: with probability p a large chunk in
// [limit/2, limit], otherwise a small one in [1, 30% of limit].
func chunk(rng *rand.Rand, limit int64, p float64) int64 {
	if limit <= 1 {
		return limit
	}
	if rng.Float64() < p {
		lo := max(1, limit/2)
		return lo + rng.Int64N(limit-lo+1)
	}
	hi := max(1, limit*3/10)
	return 1 + rng.Int64N(hi)
}
