package internal

import (
	"fmt"
	"strings"
)

// Handle is an opaque token for one directory subscription.
type Handle int

// NoHandle marks notifications that belong to the whole queue (overflow).
const NoHandle Handle = -1

type EventKind uint32

const (
	Created EventKind = 1 << iota
	Deleted
	Modified
	Overflow
)

func (k EventKind) String() string {
	var b strings.Builder
	if k.Has(Created) {
		b.WriteString("|ENTRY_CREATE")
	}
	if k.Has(Deleted) {
		b.WriteString("|ENTRY_DELETE")
	}
	if k.Has(Modified) {
		b.WriteString("|ENTRY_MODIFY")
	}
	if k.Has(Overflow) {
		b.WriteString("|OVERFLOW")
	}
	if b.Len() == 0 {
		return "[no events]"
	}
	return b.String()[1:]
}

func (k EventKind) Has(h EventKind) bool { return k&h == h }

// RawEvent is one notification as decoded from the backend. Name is relative
// to the directory that owns the batch.
type RawEvent struct {
	Kind EventKind
	Name string
}

func (e RawEvent) String() string {
	return fmt.Sprintf("%-13s %q", e.Kind.String(), e.Name)
}

// Batch groups the pending events of one watch handle, in delivery order.
type Batch struct {
	Handle Handle
	Events []RawEvent
}
