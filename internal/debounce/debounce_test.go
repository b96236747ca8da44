package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer_BurstCollapsesToLastArg(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.record)

	d.Call("S")
	d.Call("ST")
	d.Call("STU")
	d.Call("STU123")

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	// Quiet period: no further calls appear.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, []string{"STU123"}, rec.snapshot())
}

func TestDebouncer_SeparatedCallsBothFire(t *testing.T) {
	rec := &recorder{}
	d := New(10*time.Millisecond, rec.record)

	d.Call("a")
	time.Sleep(40 * time.Millisecond)
	d.Call("b")
	time.Sleep(40 * time.Millisecond)

	require.Equal(t, []string{"a", "b"}, rec.snapshot())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	rec := &recorder{}
	d := New(20*time.Millisecond, rec.record)

	d.Call("never")
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	require.Empty(t, rec.snapshot())
}
