package internal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyDrain bounds how many already-delivered events one Wait folds into
// its batches.
const fsnotifyDrain = 256

// fsnotifyBackend hands out synthetic handles, one per watched path, and
// groups events by the directory they happened in.
type fsnotifyBackend struct {
	fw *fsnotify.Watcher

	next    Handle
	dirs    map[Handle]string
	handles map[string]Handle
	dead    map[Handle]fsnotify.Op
	queue   []Batch

	hook func(Status)
}

func newFsnotifyBackend(bufferSize uint) (*fsnotifyBackend, error) {
	var fw *fsnotify.Watcher
	var err error
	if bufferSize > 0 {
		fw, err = fsnotify.NewBufferedWatcher(bufferSize)
	} else {
		fw, err = fsnotify.NewWatcher()
	}
	if err != nil {
		return nil, err
	}

	return &fsnotifyBackend{
		fw:      fw,
		dirs:    make(map[Handle]string),
		handles: make(map[string]Handle),
		dead:    make(map[Handle]fsnotify.Op),
		hook:    func(Status) {},
	}, nil
}

func (b *fsnotifyBackend) SetStatusHook(hook func(Status)) {
	if hook != nil {
		b.hook = hook
	}
}

func (b *fsnotifyBackend) Add(dir string) (Handle, error) {
	dir = filepath.Clean(dir)
	if h, ok := b.handles[dir]; ok && !b.isDead(h) {
		return h, nil
	}

	if err := b.fw.Add(dir); err != nil {
		return NoHandle, err
	}

	b.next++
	h := b.next
	b.dirs[h] = dir
	b.handles[dir] = h
	return h, nil
}

func (b *fsnotifyBackend) Remove(h Handle) error {
	dir, ok := b.dirs[h]
	if !ok {
		return nil
	}

	killedBy, dead := b.dead[h]
	owner, owned := b.handles[dir]
	delete(b.dirs, h)
	delete(b.dead, h)
	if owner == h {
		delete(b.handles, dir)
	}

	switch {
	case owned && owner != h:
		// dir is watched again under a newer handle
		return nil
	case dead && !killedBy.Has(fsnotify.Rename):
		// removed directories lose their watch with the inode
		return nil
	}

	if err := b.fw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return fmt.Errorf("remove watch %s: %w", dir, err)
	}
	return nil
}

func (b *fsnotifyBackend) Reset(h Handle) bool {
	_, ok := b.dirs[h]
	return ok && !b.isDead(h)
}

func (b *fsnotifyBackend) isDead(h Handle) bool {
	_, dead := b.dead[h]
	return dead
}

func (b *fsnotifyBackend) Wait(ctx context.Context) (Batch, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}
		if batch, ok := b.pop(); ok {
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return Batch{}, ctx.Err()
		case e, ok := <-b.fw.Events:
			if !ok {
				return Batch{}, ErrBackendClosed
			}
			b.decode(e)
			b.drain()
		case err, ok := <-b.fw.Errors:
			if !ok {
				return Batch{}, ErrBackendClosed
			}
			b.fail(err)
		}
	}
}

func (b *fsnotifyBackend) Close() error {
	return b.fw.Close()
}

func (b *fsnotifyBackend) drain() {
	for i := 0; i < fsnotifyDrain; i++ {
		select {
		case e, ok := <-b.fw.Events:
			if !ok {
				return
			}
			b.decode(e)
		default:
			return
		}
	}
}

func (b *fsnotifyBackend) fail(err error) {
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		b.push(NoHandle, RawEvent{Kind: Overflow})
		return
	}
	b.hook(Status{Kind: StatusError, Err: err})
}

func (b *fsnotifyBackend) decode(e fsnotify.Event) {
	if e.Name == "" {
		return
	}
	name := filepath.Clean(e.Name)

	// a watched directory going away is reported both by itself and by its
	// parent; the first report invalidates it, the second is dropped
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		if h, ok := b.handles[name]; ok {
			if b.isDead(h) {
				return
			}
			b.dead[h] = e.Op
			b.push(h)
		}
	}

	parent, ok := b.handles[filepath.Dir(name)]
	if !ok {
		return
	}

	kind := fsnotifyKind(e.Op)
	if kind == 0 {
		return
	}
	b.push(parent, RawEvent{Kind: kind, Name: filepath.Base(name)})
}

func fsnotifyKind(op fsnotify.Op) EventKind {
	switch {
	case op.Has(fsnotify.Create):
		return Created
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return Deleted
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return Modified
	}
	return 0
}

func (b *fsnotifyBackend) push(h Handle, events ...RawEvent) {
	for i := range b.queue {
		if b.queue[i].Handle == h {
			b.queue[i].Events = append(b.queue[i].Events, events...)
			return
		}
	}
	b.queue = append(b.queue, Batch{Handle: h, Events: events})
}

func (b *fsnotifyBackend) pop() (Batch, bool) {
	if len(b.queue) == 0 {
		return Batch{}, false
	}
	batch := b.queue[0]
	b.queue[0] = Batch{}
	b.queue = b.queue[1:]
	return batch, true
}
