// Package factory provides a small generic registry used to build modules from
// configuration. A module is described by a type string and a map of raw
// settings; the registered factory decodes the settings into a typed struct and
// returns the concrete implementation.
//
// Allocation strategies and metrics sinks are both built this way:
//
//	reg := factory.NewRegistry[allocation.Allocator]()
//	reg.Register("random", func(conf map[string]any) (allocation.Allocator, error) {
//	    var c struct{ Seed uint64 `json:"seed"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return allocation.NewRandomChunk(c.Seed), nil
//	})
//	a, err := reg.Create(factory.ModuleConfig{Type: "random", Conf: map[string]any{"seed": 7}})
package factory
