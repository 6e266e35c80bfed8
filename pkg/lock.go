package pkg

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/crypto/blake2b"
)

var ErrAlreadyRunning = errors.New("another rfsorter instance is already watching this path")

// LockPath returns the lock file used for root. It lives in the temp dir so
// taking the lock never shows up as an event inside the watched tree.
func LockPath(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), fmt.Sprintf("rfsorter-%s.lock", hex.EncodeToString(sum[:8]))), nil
}

// AcquireLock takes the per-root instance lock. The caller releases it with
// Unlock.
func AcquireLock(root string) (*flock.Flock, error) {
	path, err := LockPath(root)
	if err != nil {
		return nil, err
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, errors.Join(ErrAlreadyRunning, fmt.Errorf("lock %s", path))
	}
	return lock, nil
}
