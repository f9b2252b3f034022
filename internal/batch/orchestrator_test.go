package batch

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"social-insight/internal/analyzer"
	"social-insight/internal/records"
	"social-insight/internal/shared/telemetry"
)

func TestMain(m *testing.M) {
	telemetry.Configure(io.Discard, "error")
	goleak.VerifyTestMain(m)
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    []string
	inflight atomic.Int32
	maxSeen  atomic.Int32
	fn       func(ctx context.Context, url string) (analyzer.Fields, error)
	store    *records.Store
	loading  []int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, url string) (analyzer.Fields, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, url)
	if f.store != nil {
		f.loading = append(f.loading, f.store.Counts()[records.StatusLoading])
	}
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, url)
	}
	return analyzer.Fields{AccountName: "acct:" + url}, nil
}

func (f *fakeAnalyzer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func startRunner(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitIdle(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.Wait(ctx))
}

func statuses(recs []records.Record) []records.Status {
	out := make([]records.Status, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Status)
	}
	return out
}

func TestSubmitCreatesPendingPlaceholdersInOrder(t *testing.T) {
	store := records.NewStore()
	o := New(&fakeAnalyzer{}, store)

	urls := []string{"https://www.youtube.com/@MrBeast", "https://www.tiktok.com/@khaby.lame"}
	batchID, recs, err := o.Submit(context.Background(), urls)
	require.NoError(t, err)
	require.NotEmpty(t, batchID)

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	for i, r := range snap {
		assert.Equal(t, urls[i], r.URL)
		assert.Equal(t, records.StatusPending, r.Status)
		assert.Equal(t, batchID, r.BatchID)
		assert.Equal(t, recs[i].ID, r.ID)
	}
	p := o.Progress()
	assert.Equal(t, Progress{Processing: true, Completed: 0, Total: 2, QueuedBatches: 1}, p)
}

func TestSubmitRejectsEmpty(t *testing.T) {
	o := New(&fakeAnalyzer{}, records.NewStore())
	_, _, err := o.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoURLs)
	assert.False(t, o.Progress().Processing)
}

func TestRunProcessesSequentiallyAndIsolatesFailures(t *testing.T) {
	store := records.NewStore()
	fa := &fakeAnalyzer{store: store}
	fa.fn = func(ctx context.Context, url string) (analyzer.Fields, error) {
		if url == "https://x.com/bad" {
			return analyzer.Fields{}, &analyzer.AnalysisError{URL: url, Kind: analyzer.KindProvider, Err: errors.New("boom")}
		}
		return analyzer.Fields{AccountName: "ok"}, nil
	}
	o := New(fa, store)
	startRunner(t, o)

	urls := []string{"https://x.com/a", "https://x.com/bad", "https://x.com/c"}
	_, _, err := o.Submit(context.Background(), urls)
	require.NoError(t, err)
	waitIdle(t, o)

	assert.Equal(t, urls, fa.Calls())
	assert.EqualValues(t, 1, fa.maxSeen.Load())
	for _, n := range fa.loading {
		assert.Equal(t, 1, n, "exactly one record loading during each call")
	}

	snap := store.Snapshot()
	assert.Equal(t, []records.Status{records.StatusCompleted, records.StatusError, records.StatusCompleted}, statuses(snap))
	assert.Equal(t, records.FailedMessage, snap[1].ErrorMessage)
	assert.Equal(t, "ok", snap[0].AccountName)
	assert.Equal(t, Progress{Processing: false, Completed: 3, Total: 3}, o.Progress())
}

func TestCounterReachesTotalWhenEverythingFails(t *testing.T) {
	store := records.NewStore()
	fa := &fakeAnalyzer{fn: func(ctx context.Context, url string) (analyzer.Fields, error) {
		return analyzer.Fields{}, errors.New("down")
	}}
	o := New(fa, store)
	startRunner(t, o)

	_, _, err := o.Submit(context.Background(), []string{"https://a", "https://b", "https://c", "https://d"})
	require.NoError(t, err)
	waitIdle(t, o)

	assert.Equal(t, 4, o.Progress().Completed)
	for _, r := range store.Snapshot() {
		assert.Equal(t, records.StatusError, r.Status)
		assert.NotEmpty(t, r.ErrorMessage)
	}
}

func TestDuplicateURLsAreIndependentRows(t *testing.T) {
	store := records.NewStore()
	var n atomic.Int32
	fa := &fakeAnalyzer{fn: func(ctx context.Context, url string) (analyzer.Fields, error) {
		if n.Add(1) == 1 {
			return analyzer.Fields{AccountName: "first"}, nil
		}
		return analyzer.Fields{}, errors.New("second fails")
	}}
	o := New(fa, store)
	startRunner(t, o)

	_, _, err := o.Submit(context.Background(), []string{"https://dup", "https://dup"})
	require.NoError(t, err)
	waitIdle(t, o)

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, records.StatusCompleted, snap[0].Status)
	assert.Equal(t, "first", snap[0].AccountName)
	assert.Equal(t, records.StatusError, snap[1].Status)
	assert.Len(t, fa.Calls(), 2)
}

func TestConcurrentSubmitsAreQueued(t *testing.T) {
	store := records.NewStore()
	release := make(chan struct{})
	started := make(chan string, 8)
	fa := &fakeAnalyzer{fn: func(ctx context.Context, url string) (analyzer.Fields, error) {
		started <- url
		if url == "https://first/1" {
			<-release
		}
		return analyzer.Fields{}, nil
	}}
	o := New(fa, store)
	startRunner(t, o)

	_, _, err := o.Submit(context.Background(), []string{"https://first/1", "https://first/2"})
	require.NoError(t, err)
	assert.Equal(t, "https://first/1", <-started)

	_, _, err = o.Submit(context.Background(), []string{"https://second/1"})
	require.NoError(t, err)

	snap := store.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "https://second/1", snap[0].URL, "newest batch first")
	assert.Equal(t, records.StatusPending, snap[0].Status)
	assert.Equal(t, Progress{Processing: true, Completed: 0, Total: 3, QueuedBatches: 1}, o.Progress())

	close(release)
	waitIdle(t, o)

	assert.Equal(t, []string{"https://first/1", "https://first/2", "https://second/1"}, fa.Calls())
	assert.EqualValues(t, 1, fa.maxSeen.Load())
	assert.Equal(t, Progress{Processing: false, Completed: 3, Total: 3}, o.Progress())
}

func TestCountersResetForNextIdleSubmit(t *testing.T) {
	o := New(&fakeAnalyzer{}, records.NewStore())
	startRunner(t, o)

	_, _, err := o.Submit(context.Background(), []string{"https://a", "https://b"})
	require.NoError(t, err)
	waitIdle(t, o)
	_, _, err = o.Submit(context.Background(), []string{"https://c"})
	require.NoError(t, err)
	waitIdle(t, o)

	assert.Equal(t, Progress{Completed: 1, Total: 1}, o.Progress())
}

func TestRemovedPlaceholderIsSkippedButCounted(t *testing.T) {
	store := records.NewStore()
	fa := &fakeAnalyzer{}
	o := New(fa, store)

	_, _, err := o.Submit(context.Background(), []string{"https://a", "https://b"})
	require.NoError(t, err)
	_, err = store.Remove(1)
	require.NoError(t, err)

	startRunner(t, o)
	waitIdle(t, o)

	assert.Equal(t, []string{"https://a"}, fa.Calls())
	assert.Equal(t, 2, o.Progress().Completed)
}

func TestPanicInAnalyzerBecomesItemError(t *testing.T) {
	store := records.NewStore()
	fa := &fakeAnalyzer{fn: func(ctx context.Context, url string) (analyzer.Fields, error) {
		if url == "https://panic" {
			panic("unexpected")
		}
		return analyzer.Fields{}, nil
	}}
	o := New(fa, store)
	startRunner(t, o)

	_, _, err := o.Submit(context.Background(), []string{"https://panic", "https://fine"})
	require.NoError(t, err)
	waitIdle(t, o)

	assert.Equal(t, []records.Status{records.StatusError, records.StatusCompleted}, statuses(store.Snapshot()))
}

func TestRunStopsOnCancel(t *testing.T) {
	store := records.NewStore()
	block := make(chan struct{})
	fa := &fakeAnalyzer{fn: func(ctx context.Context, url string) (analyzer.Fields, error) {
		select {
		case <-ctx.Done():
			return analyzer.Fields{}, ctx.Err()
		case <-block:
			return analyzer.Fields{}, nil
		}
	}}
	o := New(fa, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	_, _, err := o.Submit(context.Background(), []string{"https://a", "https://b"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(fa.Calls()) == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, []string{"https://a"}, fa.Calls())
	assert.Equal(t, records.StatusPending, store.Snapshot()[1].Status)
}

func TestWaitHonoursContext(t *testing.T) {
	o := New(&fakeAnalyzer{}, records.NewStore())
	_, _, err := o.Submit(context.Background(), []string{"https://a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, o.Wait(ctx), context.DeadlineExceeded)
}
