// Package collab is the client side of the changeset sync protocol: one
// Session per open document, holding the local text model, the confirmed
// version, and the queue of edits not yet accepted by the server.
package collab

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/penflow/penflow-sync-service/pkg/textmodel"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// State is the lifecycle of a Session.
type State int32

const (
	// StateLoading the initial history fetch is in flight.
	StateLoading State = iota
	// StateSynced every local edit has been accepted by the server.
	StateSynced
	// StateError the last push or fetch failed; edits keep queueing.
	StateError
	// StateDisposed terminal, the session rejects all further calls.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSynced:
		return "synced"
	case StateError:
		return "error"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

var (
	// ErrDisposed the session was disposed.
	ErrDisposed = errors.New("collab: session disposed")
	// ErrLoadSuperseded a newer Load started before this one finished.
	ErrLoadSuperseded = errors.New("collab: load superseded")
)

// Change mirrors one server change record on the wire.
type Change struct {
	Position   int64           `json:"position"`
	Ops        json.RawMessage `json:"ops"`
	UID        int64           `json:"uid"`
	ClientName string          `json:"clientName"`
	Timestamp  int64           `json:"timestamp"`
}

// Transport moves changes between the session and the server.
type Transport interface {
	// FetchChanges returns the head version and every change with
	// position > sinceVersion, ascending.
	FetchChanges(ctx context.Context, changesetID string, sinceVersion int64) (int64, []Change, error)
	// PushChange appends one change and returns its assigned version.
	PushChange(ctx context.Context, changesetID string, ops json.RawMessage) (int64, error)
}

// Observer is notified on every state transition.
type Observer func(old, new State)

// Option configures a Session.
type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithObserver(fn Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, fn) }
}

// Session is one client's view of a changeset. Local edits apply to the
// document immediately and queue until the server confirms them; a failed
// push moves the session to StateError without losing the queue.
type Session struct {
	mu          sync.Mutex
	flushMu     sync.Mutex
	transport   Transport
	changesetID string
	logger      *zap.Logger

	doc        *textmodel.Document
	version    int64
	state      State
	pending    []json.RawMessage
	generation uint64
	observers  []Observer
}

// NewSession creates a session in StateLoading. Call Load to fetch the
// document before editing.
func NewSession(transport Transport, changesetID string, opts ...Option) *Session {
	s := &Session{
		transport:   transport,
		changesetID: changesetID,
		logger:      zap.NewNop(),
		doc:         textmodel.New(),
		state:       StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the full history and folds it into a fresh document. A Load
// that is overtaken by a newer Load or by Dispose drops its result and
// returns ErrLoadSuperseded.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.generation++
	gen := s.generation
	s.setStateLocked(StateLoading)
	s.mu.Unlock()

	head, changes, err := s.transport.FetchChanges(ctx, s.changesetID, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return ErrDisposed
	}
	if gen != s.generation {
		s.logger.Debug("load superseded", zap.String("changeset", s.changesetID))
		return ErrLoadSuperseded
	}
	if err != nil {
		s.setStateLocked(StateError)
		return errors.Wrap(err, "load changes")
	}

	doc := textmodel.New()
	for _, change := range changes {
		op, uerr := textmodel.Unmarshal(change.Ops)
		if uerr == nil {
			uerr = doc.Apply(op)
		}
		if uerr != nil {
			s.setStateLocked(StateError)
			return errors.Wrapf(uerr, "replay position %d", change.Position)
		}
	}

	s.doc = doc
	s.version = head
	s.pending = nil
	s.setStateLocked(StateSynced)
	return nil
}

// Edit diffs the current text against newText, applies the resulting
// operation locally, queues it, and tries to push the queue. The local
// document always reflects the edit even when the push fails.
func (s *Session) Edit(ctx context.Context, newText string) error {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return ErrDisposed
	}

	op := textmodel.Diff(s.doc.Text(), newText)
	if len(op.Components) == 0 || (len(op.Components) == 1 && op.Components[0].Kind == textmodel.KindRetain) {
		s.mu.Unlock()
		return nil
	}

	ops, err := op.Marshal()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.doc.Apply(op); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending = append(s.pending, ops)
	s.mu.Unlock()

	return s.Flush(ctx)
}

// Flush pushes queued edits in order until the queue drains or a push
// fails. A failure keeps the remaining queue and moves to StateError.
//
// flushMu serializes whole drains: mu is released around PushChange so
// edits stay possible mid-push, and without the second lock two flushers
// interleaving there would push pending[0] twice and skip its successor.
func (s *Session) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	for {
		s.mu.Lock()
		if s.state == StateDisposed {
			s.mu.Unlock()
			return ErrDisposed
		}
		if len(s.pending) == 0 {
			s.setStateLocked(StateSynced)
			s.mu.Unlock()
			return nil
		}
		ops := s.pending[0]
		s.mu.Unlock()

		version, err := s.transport.PushChange(ctx, s.changesetID, ops)

		s.mu.Lock()
		if s.state == StateDisposed {
			s.mu.Unlock()
			return ErrDisposed
		}
		if err != nil {
			s.setStateLocked(StateError)
			s.mu.Unlock()
			s.logger.Warn("push failed, keeping queue",
				zap.String("changeset", s.changesetID),
				zap.Int("pending", s.PendingCount()),
				zap.Error(err))
			return errors.Wrap(err, "push change")
		}
		s.version = version
		s.pending = s.pending[1:]
		s.mu.Unlock()
	}
}

// Resync recovers from StateError after a reconnect: fetch the changes the
// session missed, replay them, then flush the pending queue.
func (s *Session) Resync(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	since := s.version
	s.mu.Unlock()

	head, changes, err := s.transport.FetchChanges(ctx, s.changesetID, since)
	if err != nil {
		s.mu.Lock()
		s.setStateLocked(StateError)
		s.mu.Unlock()
		return errors.Wrap(err, "resync fetch")
	}

	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	for _, change := range changes {
		if err := s.applyRemoteLocked(change); err != nil {
			s.setStateLocked(StateError)
			s.mu.Unlock()
			return err
		}
	}
	if head > s.version {
		s.version = head
	}
	s.mu.Unlock()

	return s.Flush(ctx)
}

// ApplyRemote folds one broadcast change from another client into the local
// document. Changes at or below the confirmed version are echoes and are
// ignored.
func (s *Session) ApplyRemote(change Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return ErrDisposed
	}
	if change.Position <= s.version {
		return nil
	}
	if err := s.applyRemoteLocked(change); err != nil {
		s.setStateLocked(StateError)
		return err
	}
	s.version = change.Position
	return nil
}

func (s *Session) applyRemoteLocked(change Change) error {
	op, err := textmodel.Unmarshal(change.Ops)
	if err == nil {
		err = s.doc.Apply(op)
	}
	if err != nil {
		return errors.Wrapf(err, "apply remote position %d", change.Position)
	}
	return nil
}

// Dispose ends the session. All later calls return ErrDisposed; a Load in
// flight drops its result.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return
	}
	s.generation++
	s.setStateLocked(StateDisposed)
}

// Text returns the local document, including unconfirmed edits.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Text()
}

// Version returns the last server-confirmed version.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingCount returns the number of queued, unconfirmed edits.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Session) setStateLocked(next State) {
	if s.state == next {
		return
	}
	prev := s.state
	s.state = next
	for _, fn := range s.observers {
		fn(prev, next)
	}
}
