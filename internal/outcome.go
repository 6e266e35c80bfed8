package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

type Result int

const (
	Moved Result = iota + 1
	Skipped
	Failed
)

func (r Result) String() string {
	switch r {
	case Moved:
		return "Moved!"
	case Skipped:
		return "Skipped"
	case Failed:
		return "FAILED"
	default:
		return "unknown"
	}
}

type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipNoExtension
	SkipNoCategory
	SkipCategorized
)

func (r SkipReason) String() string {
	switch r {
	case SkipNoExtension:
		return "no extension"
	case SkipNoCategory:
		return "no matching category"
	case SkipCategorized:
		return "already in category folder"
	default:
		return ""
	}
}

type IOErrorKind int

const (
	IONone IOErrorKind = iota
	IOPermission
	IONotFound
	IOExists
	IONoSpace
	IOOther
)

func (k IOErrorKind) String() string {
	switch k {
	case IOPermission:
		return "permission denied"
	case IONotFound:
		return "not found"
	case IOExists:
		return "destination exists"
	case IONoSpace:
		return "no space left"
	case IOOther:
		return "i/o error"
	default:
		return ""
	}
}

func ioErrorKind(err error) IOErrorKind {
	switch {
	case err == nil:
		return IONone
	case errors.Is(err, fs.ErrPermission):
		return IOPermission
	case errors.Is(err, fs.ErrNotExist):
		return IONotFound
	case errors.Is(err, fs.ErrExist):
		return IOExists
	case errors.Is(err, syscall.ENOSPC):
		return IONoSpace
	default:
		return IOOther
	}
}

// MoveOutcome is the result of classifying one created file.
type MoveOutcome struct {
	Result      Result
	Source      string
	Destination string
	Category    string
	Extension   string
	Reason      SkipReason
	ErrKind     IOErrorKind
	Err         error
	// Deduplicated is set when the source was dropped because the destination
	// already held identical content.
	Deduplicated bool
}

func (o MoveOutcome) String() string {
	switch o.Result {
	case Moved:
		if o.Deduplicated {
			return fmt.Sprintf("%s %s (duplicate of %s)", o.Result, o.Source, o.Destination)
		}
		return fmt.Sprintf("%s %s -> %s", o.Result, o.Source, o.Destination)
	case Skipped:
		return fmt.Sprintf("%s %s: %s", o.Result, o.Source, o.Reason)
	case Failed:
		return fmt.Sprintf("%s %s: %s: %v", o.Result, o.Source, o.ErrKind, o.Err)
	default:
		return o.Result.String()
	}
}
