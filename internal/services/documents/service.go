package docsvc

import (
	"regexp"
	"sort"
	"sync"

	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/document"
	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/runtime"
	filestore "github.com/LuigiLanza93/cronache-trama-e-fato/internal/storage/file"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

const fallbackSlugRegex = "[a-z0-9-_]{1,64}"

// Service is the room/session registry and mutation dispatcher.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
	slugRe *regexp.Regexp

	mu     sync.Mutex
	states map[string]document.Document
	rooms  map[string]map[string]Subscriber
}

// New returns a Service using a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger constructs the service with an injected logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	logger = logger.WithComponent("documents")
	pattern := rt.Config().SlugRegex
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		logger.Warn("invalid slug regex, using fallback", logpkg.Str("pattern", pattern), logpkg.Err(err))
		re = regexp.MustCompile("^(?:" + fallbackSlugRegex + ")$")
	}
	return &Service{
		rt:     rt,
		logger: logger,
		slugRe: re,
		states: make(map[string]document.Document),
		rooms:  make(map[string]map[string]Subscriber),
	}
}

func (s *Service) validSlug(slug string) bool {
	return slug != "" && s.slugRe.MatchString(slug)
}

// Join subscribes sub to the room for slug and sends it the current full
// document when one exists. An unknown document makes join a plain
// subscription with no state message.
func (s *Service) Join(sub Subscriber, slug string) {
	if !s.validSlug(slug) {
		s.logger.Debug("join ignored", logpkg.Str("slug", slug), logpkg.Str("session", sub.ID()))
		return
	}
	s.mu.Lock()
	room, ok := s.rooms[slug]
	if !ok {
		room = make(map[string]Subscriber)
		s.rooms[slug] = room
	}
	room[sub.ID()] = sub
	s.mu.Unlock()

	if state, ok := s.resolve(slug); ok {
		sub.Send(EventState, state)
	}
}

// Mutate merges patch into the current state for slug, schedules a
// debounced write, broadcasts the raw patch to the other room members, and
// echoes the full merged document to the sender. A missing slug or empty
// patch is silently ignored.
func (s *Service) Mutate(sender Subscriber, slug string, patch document.Document) {
	if !s.validSlug(slug) || len(patch) == 0 {
		s.logger.Debug("mutate ignored", logpkg.Str("slug", slug), logpkg.Str("session", sender.ID()))
		return
	}
	// Warm the cache from disk before taking the merge lock.
	s.resolve(slug)

	s.mu.Lock()
	next := document.Apply(s.states[slug], patch)
	s.states[slug] = next
	peers := make([]Subscriber, 0, len(s.rooms[slug]))
	for sid, member := range s.rooms[slug] {
		if sid != sender.ID() {
			peers = append(peers, member)
		}
	}
	s.mu.Unlock()

	s.rt.Scheduler().Schedule(slug, next)
	payload := PatchPayload{Slug: slug, Patch: patch}
	for _, p := range peers {
		p.Send(EventPatch, payload)
	}
	sender.Send(EventState, next)
}

// Disconnect removes the session from every room.
func (s *Service) Disconnect(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slug, room := range s.rooms {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(s.rooms, slug)
		}
	}
}

// Resolve returns the current document for slug, preferring the live
// in-memory state over disk so the read API never lags a pending debounce.
func (s *Service) Resolve(slug string) (document.Document, error) {
	if !s.validSlug(slug) {
		return nil, filestore.ErrNotFound
	}
	if state, ok := s.resolve(slug); ok {
		return state, nil
	}
	return nil, filestore.ErrNotFound
}

// resolve returns the state for slug, loading and caching it from the
// store on first use. Once cached, disk is never consulted again for the
// slug; the in-memory copy is authoritative.
func (s *Service) resolve(slug string) (document.Document, bool) {
	s.mu.Lock()
	if state, ok := s.states[slug]; ok {
		s.mu.Unlock()
		return state, true
	}
	s.mu.Unlock()

	// Disk read happens outside the lock so a slow disk never stalls other
	// sessions' dispatch.
	doc, err := s.rt.Store().Read(slug)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[slug]; ok {
		// Another session cached the slug while we were reading.
		return state, true
	}
	s.states[slug] = doc
	return doc, true
}

// List returns every known slug, on disk or live in memory, sorted.
func (s *Service) List() ([]string, error) {
	slugs, err := s.rt.Store().List()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		seen[slug] = struct{}{}
	}
	s.mu.Lock()
	for slug := range s.states {
		if _, ok := seen[slug]; !ok {
			seen[slug] = struct{}{}
			slugs = append(slugs, slug)
		}
	}
	s.mu.Unlock()
	sort.Strings(slugs)
	return slugs, nil
}
