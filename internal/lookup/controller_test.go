package lookup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/client"
	"github.com/invigil/invigil/internal/domain/student"
)

const testDelay = 20 * time.Millisecond

func found(index string) *student.LookupResult {
	return &student.LookupResult{Student: student.Student{ID: "id-" + index, IndexNumber: index}}
}

// recorder collects snapshots as the controller transitions.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return Snapshot{}
	}
	return r.snaps[len(r.snaps)-1]
}

func waitForState(t *testing.T, c *Controller, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := c.Snapshot()
		if snap.State == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("controller never reached state %v (at %v)", want, c.Snapshot().State)
	return Snapshot{}
}

func TestBurstCollapsesToOneLookup(t *testing.T) {
	var calls atomic.Int64
	fetch := func(_ context.Context, key, _ string) (*student.LookupResult, error) {
		calls.Add(1)
		return found(key), nil
	}
	c := New(fetch, testDelay, nil)

	// Simulated typing: every prefix arrives inside the window.
	for _, key := range []string{"STU", "STU1", "STU12", "STU123"} {
		c.SetKey(key)
		time.Sleep(2 * time.Millisecond)
	}

	snap := waitForState(t, c, StateFound)
	assert.Equal(t, "STU123", snap.Key)
	assert.Equal(t, "STU123", snap.Result.Student.IndexNumber)
	assert.Equal(t, int64(1), calls.Load())
}

func TestShortKeyNeverFires(t *testing.T) {
	var calls atomic.Int64
	fetch := func(_ context.Context, key, _ string) (*student.LookupResult, error) {
		calls.Add(1)
		return found(key), nil
	}
	c := New(fetch, testDelay, nil)

	c.SetKey("S")
	c.SetKey("ST")
	time.Sleep(4 * testDelay)

	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Equal(t, int64(0), calls.Load())
}

func TestShorteningKeyCancelsPending(t *testing.T) {
	var calls atomic.Int64
	fetch := func(_ context.Context, key, _ string) (*student.LookupResult, error) {
		calls.Add(1)
		return found(key), nil
	}
	c := New(fetch, testDelay, nil)

	c.SetKey("STU123")
	c.SetKey("ST") // backspaced below the threshold before the window closed
	time.Sleep(4 * testDelay)

	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Equal(t, int64(0), calls.Load())
}

func TestStaleResponseDropped(t *testing.T) {
	// The first key's response is held until after the second key has
	// already resolved. The late reply must not overwrite it.
	release := make(chan struct{})
	fetch := func(_ context.Context, key, _ string) (*student.LookupResult, error) {
		if key == "SLOW01" {
			<-release
		}
		return found(key), nil
	}
	rec := &recorder{}
	c := New(fetch, testDelay, rec.record)

	c.SetKey("SLOW01")
	time.Sleep(2 * testDelay) // let the slow request launch

	c.SetKey("FAST02")
	snap := waitForState(t, c, StateFound)
	require.Equal(t, "FAST02", snap.Result.Student.IndexNumber)

	close(release)
	time.Sleep(4 * testDelay)

	last := rec.last()
	assert.Equal(t, StateFound, last.State)
	assert.Equal(t, "FAST02", last.Result.Student.IndexNumber)
}

func TestNotFoundPreseedsManualEntry(t *testing.T) {
	fetch := func(_ context.Context, key, _ string) (*student.LookupResult, error) {
		return nil, &client.StudentNotFoundError{
			Query:       key,
			Suggestions: []student.Suggestion{{IndexNumber: "STU1001", FullName: "Ama Mensah", Distance: 1}},
		}
	}
	c := New(fetch, testDelay, nil)

	c.SetKey("stu1002")
	snap := waitForState(t, c, StateNotFound)

	assert.Equal(t, "STU1002", snap.ManualIndexNumber)
	require.Len(t, snap.Suggestions, 1)
	assert.Equal(t, "STU1001", snap.Suggestions[0].IndexNumber)
}

func TestScopeChangeRetriggers(t *testing.T) {
	var mu sync.Mutex
	var scopes []string
	fetch := func(_ context.Context, key, scope string) (*student.LookupResult, error) {
		mu.Lock()
		scopes = append(scopes, scope)
		mu.Unlock()
		return found(key), nil
	}
	c := New(fetch, testDelay, nil)

	c.SetKey("STU123")
	waitForState(t, c, StateFound)

	c.SetScope("session-9")
	waitForState(t, c, StatePending)
	waitForState(t, c, StateFound)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, scopes, 2)
	assert.Equal(t, "", scopes[0])
	assert.Equal(t, "session-9", scopes[1])
}

func TestScopeChangeWithoutKeyStaysIdle(t *testing.T) {
	var calls atomic.Int64
	fetch := func(_ context.Context, key, _ string) (*student.LookupResult, error) {
		calls.Add(1)
		return found(key), nil
	}
	c := New(fetch, testDelay, nil)

	c.SetScope("session-9")
	time.Sleep(4 * testDelay)

	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Equal(t, int64(0), calls.Load())
}

func TestTransportErrorSurfaces(t *testing.T) {
	boom := errors.New("connection refused")
	fetch := func(_ context.Context, _, _ string) (*student.LookupResult, error) {
		return nil, boom
	}
	c := New(fetch, testDelay, nil)

	c.SetKey("STU123")
	snap := waitForState(t, c, StateError)
	assert.ErrorIs(t, snap.Err, boom)
}

func TestReset(t *testing.T) {
	fetch := func(_ context.Context, key, _ string) (*student.LookupResult, error) {
		return found(key), nil
	}
	c := New(fetch, testDelay, nil)

	c.SetKey("STU123")
	waitForState(t, c, StateFound)

	c.Reset()
	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Result)
}
