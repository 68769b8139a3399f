package allocation

import (
	"errors"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tradeflow/core/model"
)

func requireExportsExact(t *testing.T, flows []model.Flow, supply model.Vector) {
	t.Helper()
	require.NoError(t, CheckExports(0, flows, supply))
	for _, f := range flows {
		require.Positive(t, f.Quantity, "flow %s->%s", f.Exporter, f.Importer)
	}
}

func TestProportional_ScenarioA(t *testing.T) {
	supply := model.Vector{"X": 100, "Y": 50}
	demand := model.Vector{"P": 90, "Q": 60}
	flows, err := NewProportional().Allocate(1990, supply, demand)
	require.NoError(t, err)
	requireExportsExact(t, flows, supply)
	assert.Equal(t, demand, model.ImportTotals(flows))
	for _, f := range flows {
		assert.Equal(t, 1990, f.Year)
	}
}

func TestProportional_ScenarioB(t *testing.T) {
	flows, err := NewProportional().Allocate(2000, model.Vector{"X": 10}, model.Vector{"P": 5, "Q": 5})
	require.NoError(t, err)
	require.Len(t, flows, 2)
	assert.Equal(t, model.Vector{"P": 5, "Q": 5}, model.ImportTotals(flows))
	assert.Equal(t, model.Vector{"X": 10}, model.ExportTotals(flows))
}

func TestProportional_ScenarioC_Imbalanced(t *testing.T) {
	supply := model.Vector{"X": 100}
	demand := model.Vector{"P": 40, "Q": 40}
	flows, err := NewProportional().Allocate(2001, supply, demand)
	require.NoError(t, err)
	requireExportsExact(t, flows, supply)
	var total int64
	for _, f := range flows {
		total += f.Quantity
	}
	assert.Equal(t, int64(100), total)
	// The 20 extra units are absorbed in proportion to demand.
	assert.Equal(t, model.Vector{"P": 50, "Q": 50}, model.ImportTotals(flows))
	assert.Equal(t, model.Vector{"P": 40, "Q": 40}, demand, "demand must not be mutated")
}

func TestProportional_ScenarioD_Empty(t *testing.T) {
	flows, err := NewProportional().Allocate(2002, model.Vector{}, model.Vector{"Q": 10})
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, flows)

	_, err = NewProportional().Allocate(2002, model.Vector{"X": 0}, model.Vector{"Q": 10})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestProportional_InvalidQuantity(t *testing.T) {
	_, err := NewProportional().Allocate(2003, model.Vector{"X": 5}, model.Vector{"P": -1})
	var iq *InvalidQuantityError
	require.True(t, errors.As(err, &iq))
	assert.Equal(t, SideDemand, iq.Side)
	assert.Equal(t, "P", iq.Country)
	assert.Equal(t, int64(-1), iq.Quantity)
}

func TestProportional_RoundingConservesBalancedColumns(t *testing.T) {
	supply := model.Vector{"X": 1, "Y": 1}
	demand := model.Vector{"P": 1, "Q": 1}
	flows, err := NewProportional().Allocate(1995, supply, demand)
	require.NoError(t, err)
	assert.Equal(t, demand, model.ImportTotals(flows))
	assert.Equal(t, supply, model.ExportTotals(flows))
}

func TestProportional_AllEqualDemand(t *testing.T) {
	supply := model.Vector{"X": 10, "Y": 7}
	demand := model.Vector{"A": 3, "B": 3, "C": 3}
	flows, err := NewProportional().Allocate(1999, supply, demand)
	require.NoError(t, err)
	requireExportsExact(t, flows, supply)
}

func TestProportional_ExporterLargerThanAllDemand(t *testing.T) {
	supply := model.Vector{"Brazil": 1000, "Peru": 3}
	demand := model.Vector{"Germany": 10}
	flows, err := NewProportional().Allocate(2010, supply, demand)
	require.NoError(t, err)
	requireExportsExact(t, flows, supply)
	require.Len(t, flows, 2)
	assert.Equal(t, int64(1003), model.ImportTotals(flows)["Germany"])
}

func TestProportional_SinglePair(t *testing.T) {
	flows, err := NewProportional().Allocate(2011, model.Vector{"X": 7}, model.Vector{"P": 3})
	require.NoError(t, err)
	assert.Equal(t, []model.Flow{{Exporter: "X", Importer: "P", Year: 2011, Quantity: 7}}, flows)
}

func TestProportional_LargeTotalsDoNotOverflow(t *testing.T) {
	supply := model.Vector{"X": 4_000_000_000_000, "Y": 3_000_000_000_001}
	demand := model.Vector{"P": 5_000_000_000_000, "Q": 2_000_000_000_001}
	flows, err := NewProportional().Allocate(2012, supply, demand)
	require.NoError(t, err)
	requireExportsExact(t, flows, supply)
	assert.Equal(t, demand, model.ImportTotals(flows))
}

func TestProportional_Deterministic(t *testing.T) {
	supply := model.Vector{"X": 123, "Y": 77, "Z": 5}
	demand := model.Vector{"P": 91, "Q": 13, "R": 64, "S": 1}
	first, err := NewProportional().Allocate(1990, supply, demand)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NewProportional().Allocate(1990, supply, demand)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// splitTotal divides total into n positive parts.
func splitTotal(rng *rand.Rand, total int64, n int) []int64 {
	cuts := make([]int64, 0, n+1)
	cuts = append(cuts, 0, total-int64(n))
	for i := 0; i < n-1; i++ {
		cuts = append(cuts, rng.Int64N(total-int64(n)+1))
	}
	sort.Slice(cuts, func(a, b int) bool { return cuts[a] < cuts[b] })
	parts := make([]int64, n)
	for i := range parts {
		parts[i] = cuts[i+1] - cuts[i] + 1
	}
	return parts
}

func TestProportional_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := 0; iter < 200; iter++ {
		nExp, nImp := 1+rng.IntN(12), 1+rng.IntN(12)
		supply := make(model.Vector, nExp)
		for i := 0; i < nExp; i++ {
			supply[string(rune('A'+i))+"exp"] = 1 + rng.Int64N(5000)
		}
		total := supply.Total()
		if total < int64(nImp) {
			nImp = int(total)
		}
		demand := make(model.Vector, nImp)
		for i, q := range splitTotal(rng, total, nImp) {
			demand[string(rune('a'+i))+"imp"] = q
		}

		flows, err := NewProportional().Allocate(2000, supply, demand)
		require.NoError(t, err)
		requireExportsExact(t, flows, supply)
		require.Equal(t, demand, model.ImportTotals(flows), "balanced year must conserve imports")

		// Imbalanced: scale demand up and check export side only.
		for n := range demand {
			demand[n] *= 3
		}
		flows, err = NewProportional().Allocate(2000, supply, demand)
		require.NoError(t, err)
		requireExportsExact(t, flows, supply)
	}
}
