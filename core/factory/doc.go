// Package factory provides a small generic registry used to instantiate modules
// from configuration. A module is a type string plus a map of raw settings;
// factories decode the settings into typed structs and return the concrete
// implementation. Metrics sinks and history stores are built this way.
//
//	reg := factory.NewRegistry[history.Store]()
//	reg.Register("jsonl", func(conf map[string]any) (history.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return history.NewJSONLStore(c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "runs.jsonl"}})
package factory
