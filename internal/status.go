package internal

import "fmt"

type StatusKind int

const (
	StatusScanning StatusKind = iota + 1
	StatusScanned
	StatusRegistered
	StatusUpdated
	StatusWalkSkipped
	StatusEvent
	StatusExtension
	StatusOutcome
	StatusUnknownHandle
	StatusEvicted
	StatusTerminated
	StatusError
)

// Status is one operator-facing line produced by the watcher.
type Status struct {
	Kind      StatusKind
	Path      string
	Prev      string
	Event     EventKind
	Handle    Handle
	Extension string
	Outcome   MoveOutcome
	Err       error
}

func (s Status) String() string {
	switch s.Kind {
	case StatusScanning:
		return fmt.Sprintf("Scanning %s ...", s.Path)
	case StatusScanned:
		return "Done."
	case StatusRegistered:
		return fmt.Sprintf("register: %s", s.Path)
	case StatusUpdated:
		return fmt.Sprintf("update %s -> %s", s.Prev, s.Path)
	case StatusWalkSkipped:
		return fmt.Sprintf("skip %s: %v", s.Path, s.Err)
	case StatusEvent:
		return fmt.Sprintf("%s: %s", s.Event, s.Path)
	case StatusExtension:
		if s.Extension == "" {
			return "extension: <none>"
		}
		return fmt.Sprintf("extension: %s", s.Extension)
	case StatusOutcome:
		return s.Outcome.String()
	case StatusUnknownHandle:
		return fmt.Sprintf("WatchKey not recognized! (%d)", s.Handle)
	case StatusEvicted:
		return fmt.Sprintf("unregister: %s", s.Path)
	case StatusTerminated:
		return "all directories are inaccessible"
	case StatusError:
		return fmt.Sprintf("error: %v", s.Err)
	default:
		return fmt.Sprintf("status(%d)", int(s.Kind))
	}
}
