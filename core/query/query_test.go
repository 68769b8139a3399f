package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tradeflow/core/model"
)

func sample() []model.Flow {
	return []model.Flow{
		{Exporter: "X", Importer: "P", Year: 1990, Quantity: 60},
		{Exporter: "X", Importer: "Q", Year: 1990, Quantity: 40},
		{Exporter: "Y", Importer: "P", Year: 1990, Quantity: 30},
		{Exporter: "Y", Importer: "Q", Year: 1990, Quantity: 20},
		{Exporter: "Z", Importer: "P", Year: 1991, Quantity: 50},
	}
}

func TestApply(t *testing.T) {
	flows := sample()
	assert.Len(t, Apply(flows, Filter{}), 5)
	assert.Len(t, Apply(flows, Filter{Year: 1990}), 4)
	assert.Len(t, Apply(flows, Filter{Year: 1990, Exporter: "X"}), 2)
	got := Apply(flows, Filter{Importer: "P"})
	require.Len(t, got, 3)
	assert.Equal(t, "Z", got[2].Exporter)
	assert.Empty(t, Apply(flows, Filter{Exporter: "none"}))
}

func TestTopExporters_TiesByName(t *testing.T) {
	flows := []model.Flow{
		{Exporter: "B", Importer: "P", Year: 1, Quantity: 5},
		{Exporter: "A", Importer: "P", Year: 1, Quantity: 5},
		{Exporter: "C", Importer: "P", Year: 1, Quantity: 9},
	}
	got := TopExporters(flows, 2)
	assert.Equal(t, []Ranked{{Country: "C", Quantity: 9}, {Country: "A", Quantity: 5}}, got)
	assert.Len(t, TopExporters(flows, 0), 3)
}

func TestTopImporters(t *testing.T) {
	got := TopImporters(Apply(sample(), Filter{Year: 1990}), 5)
	assert.Equal(t, []Ranked{{Country: "P", Quantity: 90}, {Country: "Q", Quantity: 60}}, got)
}

func TestLinks_NodeLimit(t *testing.T) {
	flows := sample()
	got := Links(flows, 1)
	// top exporter X (100) and top importer P (140)
	assert.Equal(t, []Link{{Source: "X", Target: "P", Quantity: 60}}, got)

	all := Links(flows, 0)
	assert.Len(t, all, 5)
	assert.Equal(t, Link{Source: "X", Target: "P", Quantity: 60}, all[0])
}

func TestFilteredLinks_CountryDisablesLimit(t *testing.T) {
	flows := sample()
	got := FilteredLinks(flows, Filter{Exporter: "Y"}, 1)
	assert.Len(t, got, 2)

	got = FilteredLinks(flows, Filter{Year: 1990}, 1)
	assert.Equal(t, []Link{{Source: "X", Target: "P", Quantity: 60}}, got)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())
	assert.Equal(t, 5, s.Records)
	assert.Equal(t, []int{1990, 1991}, s.Years)
	assert.Equal(t, 3, s.Exporters)
	assert.Equal(t, 2, s.Importers)
	assert.Equal(t, int64(200), s.Total)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Records)
	assert.Empty(t, empty.Years)
}
