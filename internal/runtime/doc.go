// Package runtime wires storage, persistence scheduling, and config into a
// single-node Cronache instance. It exposes Open/Close, a basic health
// check, and accessors used by higher-level services.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	doc, err := rt.Store().Read("hero")
package runtime
