package internal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
)

// fakeStep is one batch handed out by fakeBackend. When kill is set the
// handle of the batch stops being valid as soon as the batch is delivered.
type fakeStep struct {
	batch Batch
	kill  bool
}

type fakeBackend struct {
	mu      sync.Mutex
	next    Handle
	dirs    map[Handle]string
	handles map[string]Handle
	invalid map[Handle]bool
	removed []Handle
	addErr  map[string]error
	closed  bool

	steps chan fakeStep
	done  chan struct{}
	once  sync.Once
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		dirs:    make(map[Handle]string),
		handles: make(map[string]Handle),
		invalid: make(map[Handle]bool),
		addErr:  make(map[string]error),
		steps:   make(chan fakeStep, 64),
		done:    make(chan struct{}),
	}
}

func (f *fakeBackend) Add(dir string) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir = filepath.Clean(dir)
	if err := f.addErr[dir]; err != nil {
		return NoHandle, err
	}
	if h, ok := f.handles[dir]; ok && !f.invalid[h] {
		return h, nil
	}
	f.next++
	f.dirs[f.next] = dir
	f.handles[dir] = f.next
	return f.next, nil
}

func (f *fakeBackend) Remove(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, h)
	return nil
}

func (f *fakeBackend) Reset(h Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.dirs[h]
	return ok && !f.invalid[h]
}

func (f *fakeBackend) Wait(ctx context.Context) (Batch, error) {
	select {
	case <-ctx.Done():
		return Batch{}, ctx.Err()
	case <-f.done:
		return Batch{}, ErrBackendClosed
	case s := <-f.steps:
		if s.kill {
			f.mu.Lock()
			f.invalid[s.batch.Handle] = true
			f.mu.Unlock()
		}
		return s.batch, nil
	}
}

func (f *fakeBackend) Close() error {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.done)
	})
	return nil
}

func (f *fakeBackend) handleOf(dir string) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.handles[filepath.Clean(dir)]
	if !ok {
		return NoHandle
	}
	return h
}

func (f *fakeBackend) push(h Handle, events ...RawEvent) {
	f.steps <- fakeStep{batch: Batch{Handle: h, Events: events}}
}

func (f *fakeBackend) kill(h Handle, events ...RawEvent) {
	f.steps <- fakeStep{batch: Batch{Handle: h, Events: events}, kill: true}
}

func (f *fakeBackend) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeBackend) removedHandles() []Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Handle(nil), f.removed...)
}

var errFakeDenied = errors.New("fake: permission denied")

type recorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *recorder) hook(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, s.String())
	}
	return out
}

func (r *recorder) kinds(kind StatusKind) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, s := range r.statuses {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func (r *recorder) outcomes() []MoveOutcome {
	var out []MoveOutcome
	for _, s := range r.kinds(StatusOutcome) {
		out = append(out, s.Outcome)
	}
	return out
}
