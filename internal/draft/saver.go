package draft

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is how often the background saver writes the draft.
const DefaultInterval = 30 * time.Second

// Saver periodically persists the current form state. Save failures are
// logged and swallowed; autosave must never interrupt the operator.
type Saver struct {
	store    Store
	interval time.Duration
	current  func() Draft
	logger   *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

// NewSaver creates a saver polling current on each tick. A non-positive
// interval falls back to DefaultInterval.
func NewSaver(store Store, interval time.Duration, current func() Draft, logger *slog.Logger) *Saver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Saver{
		store:    store,
		interval: interval,
		current:  current,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the autosave loop.
func (s *Saver) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Flush()
			case <-s.stop:
				return
			}
		}
	}()
}

// Flush saves the current draft immediately. Empty drafts are skipped so
// a blank form cannot overwrite a meaningful one from a prior session.
func (s *Saver) Flush() {
	d := s.current()
	if d.Empty() {
		return
	}
	if err := s.store.Save(d); err != nil {
		s.logger.Warn("draft autosave failed", "error", err)
	}
}

// Stop halts the loop without a final save.
func (s *Saver) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
}
