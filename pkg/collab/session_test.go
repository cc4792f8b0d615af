package collab

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/penflow/penflow-sync-service/pkg/textmodel"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory change log standing in for the server.
type fakeTransport struct {
	mu        sync.Mutex
	changes   []Change
	failPush  bool
	failFetch bool

	fetchStarted chan struct{}
	fetchGate    chan struct{}
	pushStarted  chan struct{}
	pushGate     chan struct{}
}

func (f *fakeTransport) FetchChanges(ctx context.Context, changesetID string, sinceVersion int64) (int64, []Change, error) {
	f.mu.Lock()
	started := f.fetchStarted
	gate := f.fetchGate
	f.fetchStarted = nil
	f.fetchGate = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch {
		return 0, nil, errors.New("fetch refused")
	}
	head := int64(len(f.changes))
	if sinceVersion >= head {
		return head, nil, nil
	}
	page := make([]Change, head-sinceVersion)
	copy(page, f.changes[sinceVersion:])
	return head, page, nil
}

func (f *fakeTransport) PushChange(ctx context.Context, changesetID string, ops json.RawMessage) (int64, error) {
	f.mu.Lock()
	started := f.pushStarted
	gate := f.pushGate
	f.pushStarted = nil
	f.pushGate = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPush {
		return 0, errors.New("push refused")
	}
	position := int64(len(f.changes)) + 1
	f.changes = append(f.changes, Change{Position: position, Ops: ops, Timestamp: time.Now().UnixMilli()})
	return position, nil
}

func (f *fakeTransport) setFailPush(fail bool) {
	f.mu.Lock()
	f.failPush = fail
	f.mu.Unlock()
}

func (f *fakeTransport) text(t *testing.T) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := textmodel.New()
	for _, change := range f.changes {
		op, err := textmodel.Unmarshal(change.Ops)
		require.NoError(t, err)
		require.NoError(t, doc.Apply(op))
	}
	return doc.Text()
}

func seedChange(t *testing.T, f *fakeTransport, old, new string) {
	op := textmodel.Diff(old, new)
	ops, err := op.Marshal()
	require.NoError(t, err)
	f.changes = append(f.changes, Change{Position: int64(len(f.changes)) + 1, Ops: ops})
}

func TestSession_LoadFoldsHistory(t *testing.T) {
	ft := &fakeTransport{}
	seedChange(t, ft, "", "hello")
	seedChange(t, ft, "hello", "hello world")

	s := NewSession(ft, "cs-1")
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, "hello world", s.Text())
	assert.Equal(t, int64(2), s.Version())
	assert.Equal(t, StateSynced, s.State())
}

func TestSession_LoadEmptyChangeset(t *testing.T) {
	s := NewSession(&fakeTransport{}, "cs-empty")
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, "", s.Text())
	assert.Equal(t, int64(0), s.Version())
	assert.Equal(t, StateSynced, s.State())
}

func TestSession_EditPushesInOrder(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, "cs-1")
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Edit(context.Background(), "abc"))
	require.NoError(t, s.Edit(context.Background(), "abXc"))

	assert.Equal(t, "abXc", s.Text())
	assert.Equal(t, int64(2), s.Version())
	assert.Equal(t, 0, s.PendingCount())
	assert.Equal(t, "abXc", ft.text(t))
}

func TestSession_NoopEditPushesNothing(t *testing.T) {
	ft := &fakeTransport{}
	seedChange(t, ft, "", "same")

	s := NewSession(ft, "cs-1")
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.Edit(context.Background(), "same"))

	assert.Equal(t, int64(1), s.Version())
	assert.Equal(t, 1, len(ft.changes))
}

func TestSession_OfflineEditsQueueThenResync(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, "cs-1")
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.Edit(context.Background(), "base"))

	ft.setFailPush(true)
	err := s.Edit(context.Background(), "base plus")
	require.Error(t, err)
	err = s.Edit(context.Background(), "base plus more")
	require.Error(t, err)

	// Local state stays optimistic while the queue waits.
	assert.Equal(t, StateError, s.State())
	assert.Equal(t, "base plus more", s.Text())
	assert.Equal(t, 2, s.PendingCount())
	assert.Equal(t, int64(1), s.Version())

	ft.setFailPush(false)
	require.NoError(t, s.Resync(context.Background()))

	assert.Equal(t, StateSynced, s.State())
	assert.Equal(t, 0, s.PendingCount())
	assert.Equal(t, int64(3), s.Version())
	assert.Equal(t, "base plus more", ft.text(t))
}

func TestSession_EditDuringFlushPushesEachChangeOnce(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, "cs-1")
	require.NoError(t, s.Load(context.Background()))

	ft.setFailPush(true)
	require.Error(t, s.Edit(context.Background(), "a"))
	require.Error(t, s.Edit(context.Background(), "ab"))
	require.Equal(t, 2, s.PendingCount())
	ft.setFailPush(false)

	started := make(chan struct{})
	gate := make(chan struct{})
	ft.pushStarted = started
	ft.pushGate = gate

	flushDone := make(chan error, 1)
	go func() { flushDone <- s.Flush(context.Background()) }()
	<-started

	// A second flusher arrives while the first push is still in flight.
	editDone := make(chan error, 1)
	go func() { editDone <- s.Edit(context.Background(), "abc") }()
	require.Eventually(t, func() bool { return s.PendingCount() == 3 },
		time.Second, time.Millisecond)
	close(gate)

	require.NoError(t, <-flushDone)
	require.NoError(t, <-editDone)

	ft.mu.Lock()
	pushed := len(ft.changes)
	ft.mu.Unlock()
	assert.Equal(t, 3, pushed, "each queued edit is pushed exactly once")
	assert.Equal(t, "abc", ft.text(t))
	assert.Equal(t, 0, s.PendingCount())
	assert.Equal(t, int64(3), s.Version())
	assert.Equal(t, StateSynced, s.State())
}

func TestSession_SupersededLoadIsDropped(t *testing.T) {
	ft := &fakeTransport{}
	seedChange(t, ft, "", "first")

	started := make(chan struct{})
	gate := make(chan struct{})
	ft.fetchStarted = started
	ft.fetchGate = gate

	s := NewSession(ft, "cs-1")

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.Load(context.Background()) }()
	<-started

	// A second Load overtakes the stalled one.
	require.NoError(t, s.Load(context.Background()))
	close(gate)

	assert.ErrorIs(t, <-firstDone, ErrLoadSuperseded)
	assert.Equal(t, "first", s.Text())
	assert.Equal(t, StateSynced, s.State())
}

func TestSession_ApplyRemote(t *testing.T) {
	ft := &fakeTransport{}
	seedChange(t, ft, "", "ab")

	s := NewSession(ft, "cs-1")
	require.NoError(t, s.Load(context.Background()))

	op := textmodel.Diff("ab", "aXb")
	ops, err := op.Marshal()
	require.NoError(t, err)

	require.NoError(t, s.ApplyRemote(Change{Position: 2, Ops: ops}))
	assert.Equal(t, "aXb", s.Text())
	assert.Equal(t, int64(2), s.Version())

	// An echo of an already-confirmed position changes nothing.
	require.NoError(t, s.ApplyRemote(Change{Position: 2, Ops: ops}))
	assert.Equal(t, "aXb", s.Text())
}

func TestSession_DisposeIsTerminal(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, "cs-1")
	require.NoError(t, s.Load(context.Background()))

	s.Dispose()
	s.Dispose()

	assert.Equal(t, StateDisposed, s.State())
	assert.ErrorIs(t, s.Load(context.Background()), ErrDisposed)
	assert.ErrorIs(t, s.Edit(context.Background(), "x"), ErrDisposed)
	assert.ErrorIs(t, s.Resync(context.Background()), ErrDisposed)
	assert.ErrorIs(t, s.ApplyRemote(Change{Position: 1}), ErrDisposed)
}

func TestSession_ObserverSeesTransitions(t *testing.T) {
	ft := &fakeTransport{}
	var transitions []State
	s := NewSession(ft, "cs-1", WithObserver(func(old, new State) {
		transitions = append(transitions, new)
	}))
	require.NoError(t, s.Load(context.Background()))

	ft.setFailPush(true)
	_ = s.Edit(context.Background(), "x")
	ft.setFailPush(false)
	require.NoError(t, s.Flush(context.Background()))
	s.Dispose()

	assert.Equal(t, []State{StateSynced, StateError, StateSynced, StateDisposed}, transitions)
}
