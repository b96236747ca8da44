// Package lookup drives the debounced student search behind the
// incident form's subject field. Keystrokes are coalesced, in-flight
// responses carry a monotonic token, and only the newest response may
// update the visible state, so a slow early reply can never clobber a
// fast later one.
package lookup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/invigil/invigil/internal/client"
	"github.com/invigil/invigil/internal/debounce"
	"github.com/invigil/invigil/internal/domain/student"
)

// MinKeyLength is the shortest key that triggers a lookup. Anything
// shorter resets the controller to idle without a request.
const MinKeyLength = 3

// DefaultDelay is the debounce window applied to key changes.
const DefaultDelay = 350 * time.Millisecond

// State is the lookup lifecycle phase shown to the operator.
type State int

const (
	StateIdle State = iota
	StatePending
	StateFound
	StateNotFound
	StateError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFound:
		return "found"
	case StateNotFound:
		return "not_found"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is an immutable view of the controller for rendering.
type Snapshot struct {
	State State
	// Key is the normalized key the state refers to.
	Key string
	// Result is set when State is StateFound.
	Result *student.LookupResult
	// Suggestions are near misses offered when State is StateNotFound.
	Suggestions []student.Suggestion
	// ManualIndexNumber pre-seeds the manual entry form with the key
	// that missed, so the operator keeps what they typed.
	ManualIndexNumber string
	// Err is set when State is StateError.
	Err error
}

// Fetcher resolves a key against the server. A miss is reported as
// *client.StudentNotFoundError.
type Fetcher func(ctx context.Context, key, sessionID string) (*student.LookupResult, error)

type query struct {
	key   string
	scope string
	token uint64
}

// Controller owns the lookup state machine. All methods are safe for
// concurrent use; onChange fires outside the lock with a fresh snapshot.
type Controller struct {
	fetch    Fetcher
	onChange func(Snapshot)
	deb      *debounce.Debouncer[query]

	mu    sync.Mutex
	token uint64
	key   string
	scope string
	snap  Snapshot
}

// New creates a controller. onChange may be nil.
func New(fetch Fetcher, delay time.Duration, onChange func(Snapshot)) *Controller {
	if delay <= 0 {
		delay = DefaultDelay
	}
	c := &Controller{fetch: fetch, onChange: onChange}
	c.deb = debounce.New(delay, c.run)
	return c
}

// SetKey records a new key. Keys shorter than MinKeyLength cancel any
// pending or in-flight lookup and go back to idle.
func (c *Controller) SetKey(key string) {
	key = strings.ToUpper(strings.TrimSpace(key))

	c.mu.Lock()
	c.key = key
	if len(key) < MinKeyLength {
		c.token++ // orphan anything in flight
		c.deb.Stop()
		c.setLocked(Snapshot{State: StateIdle, Key: key})
		return
	}
	c.token++
	q := query{key: key, scope: c.scope, token: c.token}
	c.setLocked(Snapshot{State: StatePending, Key: key})
	c.deb.Call(q)
}

// SetScope changes the session scope. A scope change alone re-runs the
// lookup for the current key, since roster membership depends on it.
func (c *Controller) SetScope(sessionID string) {
	c.mu.Lock()
	if c.scope == sessionID {
		c.mu.Unlock()
		return
	}
	c.scope = sessionID
	key := c.key
	c.mu.Unlock()

	if len(key) >= MinKeyLength {
		c.SetKey(key)
	}
}

// Reset clears the controller back to idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.token++
	c.key = ""
	c.deb.Stop()
	c.setLocked(Snapshot{State: StateIdle})
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// run executes after the debounce window. It is called off the caller's
// goroutine by the debouncer.
func (c *Controller) run(q query) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := c.fetch(ctx, q.key, q.scope)

	c.mu.Lock()
	if q.token != c.token {
		// A newer key or scope superseded this request.
		c.mu.Unlock()
		return
	}

	switch {
	case err == nil:
		c.setLocked(Snapshot{State: StateFound, Key: q.key, Result: result})
	default:
		var miss *client.StudentNotFoundError
		if errors.As(err, &miss) {
			c.setLocked(Snapshot{
				State:             StateNotFound,
				Key:               q.key,
				Suggestions:       miss.Suggestions,
				ManualIndexNumber: q.key,
			})
			return
		}
		c.setLocked(Snapshot{State: StateError, Key: q.key, Err: err})
	}
}

// setLocked replaces the snapshot and fires onChange. The mutex must be
// held on entry; it is released before the callback runs.
func (c *Controller) setLocked(snap Snapshot) {
	c.snap = snap
	onChange := c.onChange
	c.mu.Unlock()
	if onChange != nil {
		onChange(snap)
	}
}
