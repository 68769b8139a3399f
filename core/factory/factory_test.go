package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct{ Seed uint64 }

type sampleConf struct {
	Seed uint64 `json:"seed"`
}

func newSampleRegistry(t *testing.T) *Registry[*sample] {
	t.Helper()
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("seeded", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{Seed: c.Seed}, nil
	}))
	return reg
}

func TestRegistry_Create(t *testing.T) {
	reg := newSampleRegistry(t)
	inst, err := reg.Create(ModuleConfig{Type: "seeded", Conf: map[string]any{"seed": 3}})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), inst.Seed)
}

func TestRegistry_DecodeStringValues(t *testing.T) {
	reg := newSampleRegistry(t)
	inst, err := reg.Create(ModuleConfig{Type: "seeded", Conf: map[string]any{"seed": "42"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), inst.Seed)
}

func TestRegistry_Errors(t *testing.T) {
	reg := newSampleRegistry(t)
	assert.Error(t, reg.Register("seeded", func(map[string]any) (*sample, error) { return nil, nil }))
	assert.Error(t, reg.Register("nil", nil))

	_, err := reg.Create(ModuleConfig{Type: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seeded")
	assert.Equal(t, []string{"seeded"}, reg.Names())
}
