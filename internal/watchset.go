package internal

import "sync"

// WatchSet maps live handles to the directories they watch. The dispatch loop
// is its only writer; the lock only serves readers on other goroutines.
type WatchSet struct {
	mu      sync.RWMutex
	dirs    map[Handle]string
	handles map[string]Handle
}

func NewWatchSet() *WatchSet {
	return &WatchSet{
		dirs:    make(map[Handle]string),
		handles: make(map[string]Handle),
	}
}

// Put binds h to dir. It returns the path h was bound to before (if any) and
// the handle dir was bound to before, when that handle differs from h.
func (s *WatchSet) Put(h Handle, dir string) (prevDir string, superseded Handle, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	superseded = NoHandle
	if old, exists := s.handles[dir]; exists && old != h {
		superseded = old
		delete(s.dirs, old)
	}

	prevDir, ok = s.dirs[h]
	if ok && prevDir != dir {
		if s.handles[prevDir] == h {
			delete(s.handles, prevDir)
		}
	}

	s.dirs[h] = dir
	s.handles[dir] = h
	return prevDir, superseded, ok
}

func (s *WatchSet) Lookup(h Handle) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dir, ok := s.dirs[h]
	return dir, ok
}

func (s *WatchSet) HandleOf(dir string) (Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[dir]
	return h, ok
}

// Delete drops h and returns the directory it watched.
func (s *WatchSet) Delete(h Handle) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.dirs[h]
	if !ok {
		return "", false
	}
	delete(s.dirs, h)
	if s.handles[dir] == h {
		delete(s.handles, dir)
	}
	return dir, true
}

func (s *WatchSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirs)
}

func (s *WatchSet) IsEmpty() bool { return s.Len() == 0 }

// Dirs returns the watched directories in no particular order.
func (s *WatchSet) Dirs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.dirs))
	for _, dir := range s.dirs {
		out = append(out, dir)
	}
	return out
}

// Lifecycle tracks handle validity on top of a WatchSet.
type Lifecycle struct {
	set     *WatchSet
	backend Backend
}

func NewLifecycle(set *WatchSet, backend Backend) *Lifecycle {
	return &Lifecycle{set: set, backend: backend}
}

// Validate reports whether h can still deliver events.
func (l *Lifecycle) Validate(h Handle) bool {
	return l.backend.Reset(h)
}

// RemoveIfInvalid evicts h when it is no longer valid and returns the evicted
// directory.
func (l *Lifecycle) RemoveIfInvalid(h Handle) (string, bool) {
	if l.Validate(h) {
		return "", false
	}
	dir, ok := l.set.Delete(h)
	_ = l.backend.Remove(h)
	return dir, ok
}

func (l *Lifecycle) IsEmpty() bool { return l.set.IsEmpty() }
