package internal

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

var (
	ErrBackendClosed = errors.New("backend closed")
	ErrBackendKind   = errors.New("unknown backend")
)

// Backend is the OS notification primitive the dispatch loop drains.
type Backend interface {
	// Add subscribes to create, delete and modify notifications for dir. Adding
	// a directory that is already watched returns the handle it is watched by.
	Add(dir string) (Handle, error)

	// Remove releases h. Releasing a handle the OS already dropped is not an
	// error.
	Remove(h Handle) error

	// Wait blocks until a batch of events is pending or ctx is done, in which
	// case ctx.Err() is returned.
	Wait(ctx context.Context) (Batch, error)

	// Reset reports whether h is still able to deliver events.
	Reset(h Handle) bool

	Close() error
}

// StatusReporter is implemented by backends that surface asynchronous
// errors that are not tied to a batch.
type StatusReporter interface {
	SetStatusHook(hook func(Status))
}

type BackendKind string

const (
	BackendAuto     BackendKind = "auto"
	BackendInotify  BackendKind = "inotify"
	BackendFsnotify BackendKind = "fsnotify"
)

func ParseBackendKind(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendInotify, BackendFsnotify:
		return BackendKind(s), nil
	}
	return BackendAuto, errors.Join(ErrBackendKind, fmt.Errorf("%q", s))
}

// NewBackend creates the backend of the given kind. Auto picks inotify on
// Linux and fsnotify everywhere else.
func NewBackend(kind BackendKind, bufferSize uint) (Backend, error) {
	if kind == BackendAuto || kind == "" {
		if runtime.GOOS == "linux" {
			kind = BackendInotify
		} else {
			kind = BackendFsnotify
		}
	}

	switch kind {
	case BackendInotify:
		b, err := newInotifyBackend()
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendFsnotify:
		b, err := newFsnotifyBackend(bufferSize)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, errors.Join(ErrBackendKind, fmt.Errorf("%q", kind))
}
