// Package client provides the `cronache` command-line client.
//
// The CLI talks to the cronache HTTP and websocket endpoints to inspect and
// edit character sheets from a terminal. It is primarily intended for
// developers and game masters.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it
// defaults to http://127.0.0.1:8080 and can be overridden with the
// CRONACHE_HTTP environment variable.
//
// Usage
//
//	cronache character list
//	cronache character get --slug aric
//
//	# Apply a deep-merge patch and print the resulting document
//	cronache character update --slug aric --patch '{"hp":{"current":7}}'
//
//	# Follow live edits to a character
//	cronache character watch --slug aric
//
// Notes
//
//   - get and list use the HTTP read API.
//   - update and watch speak the websocket protocol: update joins the
//     character's room, sends one patch, prints the merged document the
//     server echoes back, and disconnects. watch stays connected and
//     prints every patch peers apply.
package client
