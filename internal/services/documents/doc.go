// Package docsvc routes document mutations and fans results out to rooms.
//
// A room is the set of sessions subscribed to one document slug. The
// service keeps the authoritative in-memory state per slug: it is lazily
// loaded from the store on first use and never re-read from disk afterwards,
// so concurrent edits always merge against the newest state. Mutations are
// merged, scheduled for debounced persistence, broadcast as the raw patch to
// the other room members, and echoed to the sender as the full merged
// document.
//
// Document values are treated as immutable: every update produces a fresh
// value through the merge engine, which makes handing references to
// encoders and subscribers race-free.
package docsvc
