// pkg/document/store.go

package document

import (
	"context"
	"errors"
	"sync"

	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

// ErrClosed is returned by Apply once the store has been closed.
var ErrClosed = errors.New("document store closed")

// Snapshot is one published version of the document.
type Snapshot struct {
	Version uint64
	Doc     skeleton.Skeleton
}

type request struct {
	patch Patch
	reply chan Snapshot
}

// Store serializes every change to a project document through one reducer
// goroutine. Concurrent job completions submit patches; each is applied to
// whatever the latest document is at that moment, so no completion can
// overwrite another with a stale copy.
type Store struct {
	requests chan request
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once

	mu      sync.RWMutex
	current Snapshot
	subs    map[chan Snapshot]struct{}
	closed  bool
}

// NewStore starts the reducer for the given initial document.
func NewStore(initial skeleton.Skeleton) *Store {
	s := &Store{
		requests: make(chan request),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		current:  Snapshot{Doc: initial},
		subs:     make(map[chan Snapshot]struct{}),
	}
	go s.run()
	return s
}

func (s *Store) run() {
	defer close(s.stopped)
	for {
		select {
		case req := <-s.requests:
			s.mu.Lock()
			s.current = Snapshot{Version: s.current.Version + 1, Doc: req.patch.Apply(s.current.Doc)}
			snap := s.current
			for ch := range s.subs {
				publish(ch, snap)
			}
			s.mu.Unlock()
			req.reply <- snap
		case <-s.done:
			s.mu.Lock()
			s.closed = true
			for ch := range s.subs {
				close(ch)
				delete(s.subs, ch)
			}
			s.mu.Unlock()
			return
		}
	}
}

// publish hands snap to a subscriber without blocking the reducer. A slow
// subscriber loses intermediate versions but always ends up with the latest.
func publish(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Apply submits p and waits until it has been applied, returning the
// resulting snapshot.
func (s *Store) Apply(ctx context.Context, p Patch) (Snapshot, error) {
	req := request{patch: p, reply: make(chan Snapshot, 1)}
	select {
	case s.requests <- req:
	case <-s.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	// Once accepted the patch is always applied, so wait for it even if ctx ends.
	return <-req.reply, nil
}

// Snapshot returns the latest published document.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Doc is shorthand for Snapshot().Doc.
func (s *Store) Doc() skeleton.Skeleton {
	return s.Snapshot().Doc
}

// Subscribe returns a channel that receives every new snapshot (latest wins
// when the reader falls behind) and a function to stop the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

// Close stops the reducer and closes every subscription.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
}
