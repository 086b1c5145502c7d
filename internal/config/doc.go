// Package config provides loading and environment overlay for the Cronache
// server configuration. It exposes a Default() baseline, a JSON file loader,
// and a CRONACHE_*-prefixed env overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/cronache.json"); err == nil {
//	    cfg = fileCfg
//	}
//	_ = config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{DataDir: config.DefaultDataDir(), Config: cfg})
//	defer rt.Close()
package config
