// Package httpserver provides Cronache's HTTP surface: the REST read API
// for first-paint document fetches and the websocket gateway carrying the
// realtime sync protocol.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
