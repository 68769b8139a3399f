package allocation

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tradeflow/core/factory"
	"github.com/kilianp07/tradeflow/core/model"
)

func TestLargestRemaining_ExportExact(t *testing.T) {
	cases := []struct {
		name           string
		supply, demand model.Vector
	}{
		{"balanced", model.Vector{"X": 100, "Y": 50}, model.Vector{"P": 90, "Q": 60}},
		{"excess supply", model.Vector{"X": 100}, model.Vector{"P": 40, "Q": 40}},
		{"excess demand", model.Vector{"X": 10, "Y": 3}, model.Vector{"P": 400, "Q": 41, "R": 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flows, err := NewLargestRemaining().Allocate(1990, tc.supply, tc.demand)
			require.NoError(t, err)
			requireExportsExact(t, flows, tc.supply)
		})
	}
}

func TestLargestRemaining_OverflowGoesToLargestImporter(t *testing.T) {
	flows, err := NewLargestRemaining().Allocate(1990, model.Vector{"X": 100}, model.Vector{"P": 40, "Q": 30})
	require.NoError(t, err)
	imports := model.ImportTotals(flows)
	assert.Equal(t, int64(70), imports["P"])
	assert.Equal(t, int64(30), imports["Q"])
}

func TestRandomChunk_ExportExactAndReproducible(t *testing.T) {
	supply := model.Vector{"X": 1000, "Y": 37, "Z": 1}
	demand := model.Vector{"P": 500, "Q": 300, "R": 100}

	a := NewRandomChunk(42)
	first, err := a.Allocate(1990, supply, demand)
	require.NoError(t, err)
	requireExportsExact(t, first, supply)

	again, err := NewRandomChunk(42).Allocate(1990, supply, demand)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestRandomChunk_InjectedSource(t *testing.T) {
	var years []int
	a := NewRandomChunk(0)
	a.NewRand = func(year int) *rand.Rand {
		years = append(years, year)
		return rand.New(rand.NewPCG(9, 9))
	}
	flows, err := a.Allocate(2005, model.Vector{"X": 10}, model.Vector{"P": 5, "Q": 5})
	require.NoError(t, err)
	requireExportsExact(t, flows, model.Vector{"X": 10})
	assert.Equal(t, []int{2005}, years)
}

func TestRandomChunk_ChunkBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 1000; i++ {
		limit := 1 + rng.Int64N(50)
		q := chunk(rng, limit, 0.5)
		require.GreaterOrEqual(t, q, int64(1))
		require.LessOrEqual(t, q, limit)
	}
}

func TestImportAuthority(t *testing.T) {
	supply := model.Vector{"X": 100}
	demand := model.Vector{"P": 40, "Q": 30}
	a, err := WithAuthority(NewProportional(), AuthorityImport)
	require.NoError(t, err)

	flows, err := a.Allocate(1990, supply, demand)
	require.NoError(t, err)
	assert.Equal(t, demand, model.ImportTotals(flows))
	assert.Equal(t, int64(70), model.ExportTotals(flows)["X"])
	for _, f := range flows {
		assert.Equal(t, "X", f.Exporter)
	}

	_, err = a.Allocate(1990, model.Vector{"X": -2}, demand)
	var iq *InvalidQuantityError
	require.ErrorAs(t, err, &iq)
	assert.Equal(t, SideSupply, iq.Side)

	_, err = WithAuthority(NewProportional(), "both")
	assert.Error(t, err)
}

func TestNew_FromConfig(t *testing.T) {
	a, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, Proportional{}, a)

	a, err = New(Config{Strategy: factory.ModuleConfig{Type: StrategyRandom, Conf: map[string]any{"seed": 7, "large_chunk_probability": 0.9}}})
	require.NoError(t, err)
	rc, ok := a.(*RandomChunk)
	require.True(t, ok)
	assert.Equal(t, uint64(7), rc.Seed)
	assert.InDelta(t, 0.9, rc.LargeChunkProbability, 1e-9)

	_, err = New(Config{Strategy: factory.ModuleConfig{Type: "simplex"}})
	assert.Error(t, err)
	_, err = New(Config{Tolerance: 2})
	assert.Error(t, err)

	assert.Equal(t, []string{StrategyLargestRemaining, StrategyProportional, StrategyRandom}, Strategies())
}

func TestAllocatorFunc(t *testing.T) {
	var called bool
	f := AllocatorFunc(func(year int, s, d model.Vector) ([]model.Flow, error) {
		called = true
		return nil, nil
	})
	_, err := f.Allocate(1, nil, nil)
	require.NoError(t, err)
	assert.True(t, called)
}
