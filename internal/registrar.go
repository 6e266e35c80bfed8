package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrRegisterRoot = errors.New("failed to register root directory")

// Registrar keeps the watch set in step with the directories being watched.
type Registrar struct {
	backend Backend
	set     *WatchSet
	emit    func(Status)
}

func NewRegistrar(backend Backend, set *WatchSet, emit func(Status)) *Registrar {
	if emit == nil {
		emit = func(Status) {}
	}
	return &Registrar{
		backend: backend,
		set:     set,
		emit:    emit,
	}
}

// Register watches dir. Registering a path twice keeps a single live handle
// for it: a handle that moved to a new path is re-pointed, and a path that
// comes back under a new handle releases the old one.
func (r *Registrar) Register(dir string) error {
	h, err := r.backend.Add(dir)
	if err != nil {
		return fmt.Errorf("register %s: %w", dir, err)
	}

	prev, superseded, known := r.set.Put(h, dir)
	if superseded != NoHandle {
		_ = r.backend.Remove(superseded)
	}

	switch {
	case !known:
		r.emit(Status{Kind: StatusRegistered, Path: dir, Handle: h})
	case prev != dir:
		r.emit(Status{Kind: StatusUpdated, Path: dir, Prev: prev, Handle: h})
	}
	return nil
}

// RegisterAll registers root and every directory below it, parents first.
// Subtrees that cannot be read or registered are skipped; only a failure on
// root itself is returned.
func (r *Registrar) RegisterAll(root string) error {
	var rootErr error
	rootDone := false

	walkDirs(os.DirFS(root),
		func(p string) error {
			if err := r.Register(filepath.Join(root, filepath.FromSlash(p))); err != nil {
				return err
			}
			if p == "." {
				rootDone = true
			}
			return nil
		},
		func(p string, err error) {
			if p == "." && !rootDone {
				rootErr = err
			}
			r.emit(Status{Kind: StatusWalkSkipped, Path: filepath.Join(root, filepath.FromSlash(p)), Err: err})
		})

	if rootErr != nil {
		return errors.Join(ErrRegisterRoot, rootErr)
	}
	return nil
}
