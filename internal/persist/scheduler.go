package persist

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/document"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

// DefaultQuietPeriod is the debounce window applied when Options.QuietPeriod
// is zero.
const DefaultQuietPeriod = 200 * time.Millisecond

// Writer persists one document. Satisfied by *filestore.Store.
type Writer interface {
	Write(slug string, doc document.Document) error
}

// Options configures a Scheduler.
type Options struct {
	// QuietPeriod is how long a slug must stay quiet before its pending
	// document is written. Defaults to DefaultQuietPeriod.
	QuietPeriod time.Duration
	// OnError, when set, observes each failed write after it is logged.
	OnError func(slug string, err error)
	// Logger receives write failures. Optional.
	Logger logpkg.Logger
}

// Scheduler is a per-slug single-slot delayed writer.
type Scheduler struct {
	writer  Writer
	quiet   time.Duration
	onError func(string, error)
	logger  logpkg.Logger

	mu      sync.Mutex
	pending map[string]*slot
	closed  bool

	failures atomic.Uint64
}

type slot struct {
	doc   document.Document
	timer *time.Timer
}

// New returns a Scheduler writing through w.
func New(w Writer, opts Options) *Scheduler {
	quiet := opts.QuietPeriod
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Scheduler{
		writer:  w,
		quiet:   quiet,
		onError: opts.OnError,
		logger:  logger.WithComponent("persist"),
		pending: make(map[string]*slot),
	}
}

// Schedule records doc as the pending write for slug and restarts the
// slug's quiet-period timer. Earlier pending documents for the same slug
// are discarded, never queued. Scheduling one slug never delays another.
func (s *Scheduler) Schedule(slug string, doc document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if p, ok := s.pending[slug]; ok {
		p.doc = doc
		p.timer.Reset(s.quiet)
		return
	}
	p := &slot{doc: doc}
	p.timer = time.AfterFunc(s.quiet, func() { s.fire(slug) })
	s.pending[slug] = p
}

// fire writes the slug's pending document, if any. A timer that goes off
// after its slot was already flushed is a no-op.
func (s *Scheduler) fire(slug string) {
	s.mu.Lock()
	p, ok := s.pending[slug]
	if ok {
		delete(s.pending, slug)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.write(slug, p.doc)
}

func (s *Scheduler) write(slug string, doc document.Document) {
	if err := s.writer.Write(slug, doc); err != nil {
		s.failures.Add(1)
		s.logger.Error("persist failed", logpkg.Str("slug", slug), logpkg.Err(err))
		if s.onError != nil {
			s.onError(slug, err)
		}
	}
}

// Failures returns the number of failed writes since construction.
func (s *Scheduler) Failures() uint64 { return s.failures.Load() }

// Flush synchronously writes every pending document and stops the
// associated timers. Used on graceful shutdown so an edit made just before
// exit is not lost to the quiet period.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	taken := s.pending
	s.pending = make(map[string]*slot)
	s.mu.Unlock()
	for slug, p := range taken {
		p.timer.Stop()
		s.write(slug, p.doc)
	}
}

// Close flushes pending writes and rejects further scheduling.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Flush()
}
