// Package persist coalesces bursts of document updates into single disk
// writes.
//
// Each slug owns one pending slot: Schedule replaces the slot's document
// and restarts the slug's quiet-period timer, so only the most recent state
// reaches the store. Timers are independent across slugs. Write failures
// follow a swallow-and-log policy: they are counted and reported through an
// optional hook but never retried or surfaced to clients, because the
// in-memory broadcast state stays authoritative for live sessions.
package persist
