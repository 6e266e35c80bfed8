package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

var (
	ErrNotDirectory = errors.New("watch root is not a directory")
	ErrBackendInit  = errors.New("failed to initialize watch backend")
)

type State int32

const (
	Idle State = iota
	Waiting
	Draining
	Reaping
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Draining:
		return "draining"
	case Reaping:
		return "reaping"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Option func(w *Watcher)

// WithStatusHook adds a receiver for status lines. Hooks run on the dispatch
// goroutine, in registration order.
func WithStatusHook(hook func(s Status)) Option {
	return func(w *Watcher) {
		if hook != nil {
			w.hooks = append(w.hooks, hook)
		}
	}
}

func WithRecursive(recursive bool) Option {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

func WithCategoryTable(table CategoryTable) Option {
	return func(w *Watcher) {
		w.table = table
	}
}

func WithCollisionPolicy(policy CollisionPolicy) Option {
	return func(w *Watcher) {
		w.policy = policy
	}
}

func WithBackendKind(kind BackendKind) Option {
	return func(w *Watcher) {
		w.kind = kind
	}
}

// WithBufferSize sizes the event channel of the fsnotify backend.
func WithBufferSize(size uint) Option {
	return func(w *Watcher) {
		w.bufferSize = size
	}
}

// WithBackend injects a ready backend; the watcher takes ownership of it.
func WithBackend(b Backend) Option {
	return func(w *Watcher) {
		w.backend = b
	}
}

// Watcher runs the single dispatch loop: it waits for batches, moves created
// files into their category folder and keeps the watch set in step with the
// directory tree.
type Watcher struct {
	path       string
	recursive  bool
	table      CategoryTable
	policy     CollisionPolicy
	kind       BackendKind
	bufferSize uint
	hooks      []func(Status)

	backend    Backend
	set        *WatchSet
	lifecycle  *Lifecycle
	registrar  *Registrar
	classifier *Classifier

	// swept holds sources moved while sweeping a new directory, until their
	// delete event arrives; a late create event for them is not a failure.
	swept map[string]struct{}

	state     atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewWatcher registers path (and, in recursive mode, every directory below
// it). Failing to create the backend or to register path is fatal.
func NewWatcher(path string, options ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := Watcher{
		path:       abs,
		table:      DefaultCategoryTable(),
		policy:     Overwrite,
		kind:       BackendAuto,
		bufferSize: 64,
	}
	for _, op := range options {
		op(&w)
	}

	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		err = errors.Join(ErrNotDirectory, fmt.Errorf("%s", abs))
	}
	if err != nil {
		if w.backend != nil {
			_ = w.backend.Close()
		}
		return nil, err
	}

	if w.backend == nil {
		w.backend, err = NewBackend(w.kind, w.bufferSize)
		if err != nil {
			return nil, errors.Join(ErrBackendInit, err)
		}
	}
	if r, ok := w.backend.(StatusReporter); ok {
		r.SetStatusHook(w.emit)
	}

	w.set = NewWatchSet()
	w.lifecycle = NewLifecycle(w.set, w.backend)
	w.registrar = NewRegistrar(w.backend, w.set, w.emit)
	w.classifier = NewClassifier(w.table, w.policy)
	w.swept = make(map[string]struct{})

	if err := w.seed(); err != nil {
		_ = w.Close()
		return nil, err
	}

	return &w, nil
}

func (w *Watcher) seed() error {
	if !w.recursive {
		if err := w.registrar.Register(w.path); err != nil {
			return errors.Join(ErrRegisterRoot, err)
		}
		return nil
	}

	w.emit(Status{Kind: StatusScanning, Path: w.path})
	if err := w.registrar.RegisterAll(w.path); err != nil {
		return err
	}
	if w.set.IsEmpty() {
		return errors.Join(ErrRegisterRoot, fmt.Errorf("%s", w.path))
	}
	w.emit(Status{Kind: StatusScanned, Path: w.path})
	return nil
}

// Run drains events until ctx is done or no watched directory is left. Both
// are clean exits and return nil. The backend is released before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		w.state.Store(int32(Waiting))
		batch, err := w.backend.Wait(ctx)
		if err != nil {
			w.state.Store(int32(Terminated))
			if ctx.Err() != nil || w.closed.Load() {
				return nil
			}
			return err
		}

		if batch.Handle == NoHandle {
			// queue level notifications only carry overflow
			continue
		}

		dir, ok := w.set.Lookup(batch.Handle)
		if !ok {
			w.emit(Status{Kind: StatusUnknownHandle, Handle: batch.Handle})
			continue
		}

		w.state.Store(int32(Draining))
		for _, e := range batch.Events {
			w.handleEvent(dir, e)
		}

		w.state.Store(int32(Reaping))
		if evicted, ok := w.lifecycle.RemoveIfInvalid(batch.Handle); ok {
			w.emit(Status{Kind: StatusEvicted, Path: evicted, Handle: batch.Handle})
		}
		if w.lifecycle.IsEmpty() {
			w.state.Store(int32(Terminated))
			w.emit(Status{Kind: StatusTerminated, Path: w.path})
			return nil
		}
	}
}

func (w *Watcher) handleEvent(dir string, e RawEvent) {
	if e.Kind.Has(Overflow) {
		return
	}

	child := filepath.Join(dir, e.Name)
	w.emit(Status{Kind: StatusEvent, Event: e.Kind, Path: child})

	if e.Kind.Has(Deleted) {
		delete(w.swept, child)
	}
	if !e.Kind.Has(Created) {
		return
	}

	info, err := os.Lstat(child)
	if err != nil {
		if _, ok := w.swept[child]; ok {
			return
		}
		w.report(child, w.classifier.Vanished(dir, e.Name, err))
		return
	}

	if info.IsDir() {
		if w.recursive {
			if err := w.registrar.RegisterAll(child); err != nil {
				w.emit(Status{Kind: StatusError, Path: child, Err: err})
				return
			}
			w.sweep(child)
		}
		return
	}

	w.report(child, w.classifier.Classify(dir, e.Name))
}

// sweep classifies the files that landed in a new directory before its watch
// was in place.
func (w *Watcher) sweep(root string) {
	walkFiles(os.DirFS(root), func(p string) {
		path := filepath.Join(root, filepath.FromSlash(p))
		o := w.classifier.Classify(filepath.Dir(path), filepath.Base(path))
		if o.Reason == SkipCategorized {
			return
		}
		if o.Result == Moved {
			w.swept[path] = struct{}{}
		}
		w.report(path, o)
	})
}

func (w *Watcher) report(path string, o MoveOutcome) {
	w.emit(Status{Kind: StatusExtension, Path: path, Extension: o.Extension})
	w.emit(Status{Kind: StatusOutcome, Path: path, Outcome: o})
}

func (w *Watcher) emit(s Status) {
	for _, hook := range w.hooks {
		hook(s)
	}
}

// Path is the absolute root the watcher was created for.
func (w *Watcher) Path() string { return w.path }

func (w *Watcher) State() State { return State(w.state.Load()) }

// Dirs lists the directories currently watched.
func (w *Watcher) Dirs() []string { return w.set.Dirs() }

// Close releases the backend. It is safe to call more than once and from
// another goroutine than Run.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		w.closeErr = w.backend.Close()
	})
	return w.closeErr
}
