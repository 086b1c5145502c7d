package presencesvc

import (
	"sort"
	"sync"

	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

// EventUpdate carries the full aggregate, replacing the client's presence
// view.
const EventUpdate = "presence:update"

// Entry is one slug's viewer count in the aggregate. Only slugs with at
// least one viewer appear.
type Entry struct {
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Service is the presence registry.
type Service struct {
	logger logpkg.Logger

	mu        sync.Mutex
	viewers   map[string]map[string]struct{} // slug -> session ids
	bySession map[string]string              // session id -> viewed slug
}

// New returns an empty presence registry.
func New(logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Service{
		logger:    logger.WithComponent("presence"),
		viewers:   make(map[string]map[string]struct{}),
		bySession: make(map[string]string),
	}
}

// Enter marks the session as viewing slug and returns the new aggregate.
// If the session was viewing another slug it leaves that one first. An
// empty slug changes nothing; changed reports whether a broadcast is due.
func (s *Service) Enter(sessionID, slug string) (agg []Entry, changed bool) {
	if slug == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.bySession[sessionID]; ok {
		if prev == slug {
			return s.aggregateLocked(), false
		}
		s.dropViewerLocked(sessionID, prev)
	}
	set, ok := s.viewers[slug]
	if !ok {
		set = make(map[string]struct{})
		s.viewers[slug] = set
	}
	set[sessionID] = struct{}{}
	s.bySession[sessionID] = slug
	return s.aggregateLocked(), true
}

// Leave clears the session's viewed slug and returns the new aggregate.
// A session that was not viewing anything changes nothing.
func (s *Service) Leave(sessionID string) (agg []Entry, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slug, ok := s.bySession[sessionID]
	if !ok {
		return nil, false
	}
	s.dropViewerLocked(sessionID, slug)
	delete(s.bySession, sessionID)
	return s.aggregateLocked(), true
}

// Disconnect is the teardown hook for a closing session, with Leave
// semantics.
func (s *Service) Disconnect(sessionID string) ([]Entry, bool) {
	return s.Leave(sessionID)
}

// Snapshot returns the current aggregate without mutating any state. Used
// by late-joining dashboards that need the current picture immediately.
func (s *Service) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregateLocked()
}

// dropViewerLocked removes the session from a slug's viewer set, dropping
// the slug entirely when its set becomes empty.
func (s *Service) dropViewerLocked(sessionID, slug string) {
	set, ok := s.viewers[slug]
	if !ok {
		return
	}
	delete(set, sessionID)
	if len(set) == 0 {
		delete(s.viewers, slug)
	}
}

func (s *Service) aggregateLocked() []Entry {
	agg := make([]Entry, 0, len(s.viewers))
	for slug, set := range s.viewers {
		agg = append(agg, Entry{Slug: slug, Count: len(set)})
	}
	sort.Slice(agg, func(i, j int) bool { return agg[i].Slug < agg[j].Slug })
	return agg
}
