//go:build linux

package internal

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	inotifyMask = unix.IN_CREATE | unix.IN_MOVED_TO |
		unix.IN_DELETE | unix.IN_MOVED_FROM |
		unix.IN_MODIFY | unix.IN_ATTRIB |
		unix.IN_DELETE_SELF | unix.IN_ONLYDIR

	inotifyGone = unix.IN_IGNORED | unix.IN_DELETE_SELF | unix.IN_UNMOUNT

	inotifyBufferEvents = 64
	nameMax             = 255
)

// inotifyBackend uses watch descriptors as handles. Every method except Close
// must be called from the goroutine that drains it.
type inotifyBackend struct {
	fd     int
	wakeFd int
	buf    []byte

	dirs  map[int]string
	dead  map[int]bool
	queue []Batch

	mu       sync.Mutex
	closed   bool
	waiting  bool
	released bool
}

func newInotifyBackend() (*inotifyBackend, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify_init1: %w", err)
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	return &inotifyBackend{
		fd:     fd,
		wakeFd: wakeFd,
		buf:    make([]byte, inotifyBufferEvents*(unix.SizeofInotifyEvent+nameMax+1)),
		dirs:   make(map[int]string),
		dead:   make(map[int]bool),
	}, nil
}

func (b *inotifyBackend) Add(dir string) (Handle, error) {
	if b.isClosed() {
		return NoHandle, ErrBackendClosed
	}

	wd, err := unix.InotifyAddWatch(b.fd, dir, inotifyMask)
	if err != nil {
		return NoHandle, &os.PathError{Op: "inotify_add_watch", Path: dir, Err: err}
	}

	b.dirs[wd] = dir
	delete(b.dead, wd)
	return Handle(wd), nil
}

func (b *inotifyBackend) Remove(h Handle) error {
	wd := int(h)
	if _, ok := b.dirs[wd]; !ok {
		return nil
	}

	gone := b.dead[wd]
	delete(b.dirs, wd)
	delete(b.dead, wd)
	if gone || b.isClosed() {
		return nil
	}

	//nolint:gosec // wd is a non-negative descriptor handed out by inotify
	if _, err := unix.InotifyRmWatch(b.fd, uint32(wd)); err != nil && !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("inotify_rm_watch: %w", err)
	}
	return nil
}

func (b *inotifyBackend) Reset(h Handle) bool {
	_, ok := b.dirs[int(h)]
	return ok && !b.dead[int(h)]
}

func (b *inotifyBackend) Wait(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if batch, ok := b.pop(); ok {
		return batch, nil
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Batch{}, ErrBackendClosed
	}
	b.waiting = true
	b.mu.Unlock()
	defer b.doneWaiting()

	stop := context.AfterFunc(ctx, b.wake)
	defer stop()

	for {
		fds := []unix.PollFd{
			{Fd: int32(b.fd), Events: unix.POLLIN},
			{Fd: int32(b.wakeFd), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return Batch{}, fmt.Errorf("poll: %w", err)
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			b.drainWake()
			if b.isClosed() {
				return Batch{}, ErrBackendClosed
			}
			if err := ctx.Err(); err != nil {
				return Batch{}, err
			}
		}

		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return Batch{}, ErrBackendClosed
		}

		if fds[0].Revents&unix.POLLIN != 0 {
			n, err := unix.Read(b.fd, b.buf)
			if err != nil {
				if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
					continue
				}
				return Batch{}, fmt.Errorf("read inotify events: %w", err)
			}
			b.parse(b.buf[:n])
			if batch, ok := b.pop(); ok {
				return batch, nil
			}
		}
	}
}

func (b *inotifyBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	waiting := b.waiting
	b.mu.Unlock()

	if waiting {
		// the waiting goroutine releases the descriptors on its way out
		b.wake()
		return nil
	}
	return b.release()
}

func (b *inotifyBackend) doneWaiting() {
	b.mu.Lock()
	b.waiting = false
	closed := b.closed
	b.mu.Unlock()

	if closed {
		_ = b.release()
	}
}

func (b *inotifyBackend) release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.released = true

	err := unix.Close(b.fd)
	if werr := unix.Close(b.wakeFd); err == nil {
		err = werr
	}
	return err
}

func (b *inotifyBackend) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *inotifyBackend) wake() {
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.released {
		_, _ = unix.Write(b.wakeFd, one[:])
	}
}

func (b *inotifyBackend) drainWake() {
	var counter [8]byte
	_, _ = unix.Read(b.wakeFd, counter[:])
}

// parse decodes one read worth of inotify records into queued batches.
func (b *inotifyBackend) parse(buf []byte) {
	off := 0
	for off+unix.SizeofInotifyEvent <= len(buf) {
		wd := int32(binary.NativeEndian.Uint32(buf[off:]))
		mask := binary.NativeEndian.Uint32(buf[off+4:])
		nameLen := int(binary.NativeEndian.Uint32(buf[off+12:]))

		start := off + unix.SizeofInotifyEvent
		end := start + nameLen
		if end > len(buf) {
			return
		}
		name := buf[start:end]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		off = end

		b.decode(int(wd), mask, string(name))
	}
}

func (b *inotifyBackend) decode(wd int, mask uint32, name string) {
	if mask&unix.IN_Q_OVERFLOW != 0 {
		b.push(NoHandle, RawEvent{Kind: Overflow})
		return
	}

	if _, ok := b.dirs[wd]; !ok {
		// descriptor already released
		return
	}
	h := Handle(wd)

	if mask&inotifyGone != 0 {
		b.dead[wd] = true
		b.push(h)
		return
	}

	kind := inotifyKind(mask)
	if kind == 0 {
		return
	}
	b.push(h, RawEvent{Kind: kind, Name: name})
}

func inotifyKind(mask uint32) EventKind {
	switch {
	case mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0:
		return Created
	case mask&(unix.IN_DELETE|unix.IN_MOVED_FROM) != 0:
		return Deleted
	case mask&(unix.IN_MODIFY|unix.IN_ATTRIB) != 0:
		return Modified
	}
	return 0
}

// push appends events to the batch of h, opening a new batch when the last
// queued one belongs to another handle.
func (b *inotifyBackend) push(h Handle, events ...RawEvent) {
	if n := len(b.queue); n > 0 && b.queue[n-1].Handle == h {
		b.queue[n-1].Events = append(b.queue[n-1].Events, events...)
		return
	}
	b.queue = append(b.queue, Batch{Handle: h, Events: events})
}

func (b *inotifyBackend) pop() (Batch, bool) {
	if len(b.queue) == 0 {
		return Batch{}, false
	}
	batch := b.queue[0]
	b.queue[0] = Batch{}
	b.queue = b.queue[1:]
	return batch, true
}
