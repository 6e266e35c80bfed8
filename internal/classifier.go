package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrDestinationExists = errors.New("destination already exists")
	ErrCollisionPolicy   = errors.New("unknown collision policy")
)

// CollisionPolicy decides what happens when the destination file exists.
type CollisionPolicy int

const (
	// Overwrite replaces the destination, last write wins.
	Overwrite CollisionPolicy = iota
	// Fail leaves both files in place and reports the collision.
	Fail
	// Dedupe drops the source when the destination holds identical content,
	// and overwrites otherwise.
	Dedupe
)

func (p CollisionPolicy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Fail:
		return "fail"
	case Dedupe:
		return "dedupe"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch s {
	case "", "overwrite":
		return Overwrite, nil
	case "fail":
		return Fail, nil
	case "dedupe":
		return Dedupe, nil
	}
	return Overwrite, errors.Join(ErrCollisionPolicy, fmt.Errorf("%q", s))
}

// Classifier moves created files into the category folder next to them.
type Classifier struct {
	table  CategoryTable
	policy CollisionPolicy
}

func NewClassifier(table CategoryTable, policy CollisionPolicy) *Classifier {
	return &Classifier{
		table:  table,
		policy: policy,
	}
}

// Classify moves dir/name to dir/<Category>/name. It never returns an error,
// failures are carried by the outcome.
func (c *Classifier) Classify(dir, name string) MoveOutcome {
	src := filepath.Join(dir, name)
	ext := Extension(name)
	o := MoveOutcome{
		Source:    src,
		Extension: ext,
	}

	if ext == "" {
		o.Result, o.Reason = Skipped, SkipNoExtension
		return o
	}

	category, ok := c.table.Lookup(ext)
	if !ok {
		o.Result, o.Reason = Skipped, SkipNoCategory
		return o
	}
	o.Category = category

	// the file we just moved shows up again when its category folder is watched
	if filepath.Base(dir) == category {
		o.Result, o.Reason = Skipped, SkipCategorized
		return o
	}

	folder := filepath.Join(dir, category)
	o.Destination = filepath.Join(folder, name)

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return failed(o, err)
	}

	switch c.policy {
	case Fail:
		if _, err := os.Lstat(o.Destination); err == nil {
			return failed(o, errors.Join(ErrDestinationExists, &os.PathError{Op: "move", Path: o.Destination, Err: os.ErrExist}))
		}
	case Dedupe:
		same, err := sameContent(src, o.Destination)
		if err != nil {
			return failed(o, err)
		}
		if same {
			if err := os.Remove(src); err != nil {
				return failed(o, err)
			}
			o.Result, o.Deduplicated = Moved, true
			return o
		}
	}

	if err := os.Rename(src, o.Destination); err != nil {
		return failed(o, err)
	}

	o.Result = Moved
	return o
}

// Vanished is the outcome for a created entry that was gone before it could be
// classified.
func (c *Classifier) Vanished(dir, name string, err error) MoveOutcome {
	o := MoveOutcome{
		Source:    filepath.Join(dir, name),
		Extension: Extension(name),
	}
	if category, ok := c.table.Lookup(o.Extension); ok {
		o.Category = category
	}
	return failed(o, err)
}

func failed(o MoveOutcome, err error) MoveOutcome {
	o.Result = Failed
	o.Err = err
	o.ErrKind = ioErrorKind(err)
	return o
}

// sameContent reports whether dst exists as a regular file with the same
// BLAKE2b-256 digest as src.
func sameContent(src, dst string) (bool, error) {
	di, err := os.Lstat(dst)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !di.Mode().IsRegular() {
		return false, nil
	}

	si, err := os.Lstat(src)
	if err != nil {
		return false, err
	}
	if si.Size() != di.Size() {
		return false, nil
	}

	a, err := digest(src)
	if err != nil {
		return false, err
	}
	b, err := digest(dst)
	if err != nil {
		return false, err
	}
	return bytes.Equal(a, b), nil
}

func digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
