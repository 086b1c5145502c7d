// Package id generates compact, time-ordered session identifiers.
//
// An ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence],
// so byte-wise comparison preserves creation order. The Generator keeps IDs
// strictly increasing per process even when the wall clock regresses: it
// pins to the last observed millisecond and bumps the sequence instead of
// going backwards.
//
// Usage
//
//	g := id.NewGenerator()
//	sid := g.Next().String() // hex, used as the websocket session id
package id
