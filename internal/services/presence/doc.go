// Package presencesvc tracks which sessions are currently viewing which
// document, independently of room subscriptions.
//
// A session views at most one slug at a time: entering a new slug
// implicitly leaves the previous one, so a viewer can never be counted
// twice. Every state change yields the new aggregate, a sorted list of
// {slug, count} entries with zero-count slugs dropped entirely; the caller
// broadcasts it to all connected sessions, since presence is a global
// signal rather than a room-scoped one.
package presencesvc
