//go:build !linux

package internal

import (
	"errors"
	"runtime"
)

func newInotifyBackend() (Backend, error) {
	return nil, errors.Join(ErrBackendKind, errors.New("inotify is not available on "+runtime.GOOS))
}
