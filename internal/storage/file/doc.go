// Package filestore persists one JSON document per slug in a flat
// directory, with atomic replace on write.
//
// Layout: <dir>/<slug>.json, pretty-printed with a trailing newline. Writes
// go to a temporary sibling file which is renamed over the destination, so
// a concurrent reader never observes a half-written document. Missing and
// unparseable files both surface as ErrNotFound; a corrupt file degrades to
// an absent document instead of failing the caller.
//
// The store does no locking between Read and Write; callers serialize
// writes per slug (see the persist package).
package filestore
