package filehandler

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ManouchehrRasoulli/rfsorter/internal"
)

type Meta struct {
	Name       string
	Category   string
	Size       int64
	ModifyTime time.Time
	Duplicate  bool
}

func (f Meta) String() string {
	return fmt.Sprintf("file meta :: file-name: %s, category: %s, size: %d, modified_at: %v",
		f.Name, f.Category, f.Size, f.ModifyTime.Format(time.RFC3339))
}

// Handler keeps a record of the files sorted during a run, keyed by their
// destination path.
type Handler struct {
	// meta
	// files moved into a category folder, by destination.
	meta   map[string]Meta
	failed int
	rwM    sync.RWMutex
	logger *log.Logger
}

func NewHandler(logger *log.Logger) *Handler {
	return &Handler{
		meta:   make(map[string]Meta),
		logger: logger,
	}
}

// EventHook
// status hook to be registered on the watcher.
func (h *Handler) EventHook(s internal.Status) {
	switch s.Kind {
	case internal.StatusOutcome:
	case internal.StatusEvent:
		if s.Event.Has(internal.Deleted) {
			h.forget(s.Path)
		}
		return
	default:
		return
	}

	o := s.Outcome
	switch o.Result {
	case internal.Failed:
		h.rwM.Lock()
		h.failed++
		h.rwM.Unlock()
		return
	case internal.Moved:
	default:
		return
	}

	meta := Meta{
		Name:      o.Destination,
		Category:  o.Category,
		Duplicate: o.Deduplicated,
	}
	if fs, err := os.Stat(o.Destination); err == nil {
		meta.Size = fs.Size()
		meta.ModifyTime = fs.ModTime()
	}

	h.rwM.Lock()
	defer h.rwM.Unlock()
	h.meta[o.Destination] = meta
}

func (h *Handler) forget(name string) {
	h.rwM.Lock()
	defer h.rwM.Unlock()
	delete(h.meta, name)
}

func (h *Handler) GetMeta(name string) *Meta {
	h.rwM.RLock()
	defer h.rwM.RUnlock()
	if m, c := h.meta[name]; c {
		metaCopy := m
		return &metaCopy
	}
	return nil
}

// Counts returns the number of recorded files per category.
func (h *Handler) Counts() map[string]int {
	h.rwM.RLock()
	defer h.rwM.RUnlock()
	out := make(map[string]int)
	for _, m := range h.meta {
		out[m.Category]++
	}
	return out
}

func (h *Handler) Failed() int {
	h.rwM.RLock()
	defer h.rwM.RUnlock()
	return h.failed
}

// ListFiles logs every recorded file, sorted by name, followed by the per
// category totals.
func (h *Handler) ListFiles() {
	h.rwM.RLock()
	metas := make([]Meta, 0, len(h.meta))
	for _, m := range h.meta {
		metas = append(metas, m)
	}
	failed := h.failed
	h.rwM.RUnlock()

	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })

	h.logger.Printf("handler :: list files ---- %d\n", len(metas))
	for _, meta := range metas {
		h.logger.Println(meta)
	}

	counts := h.Counts()
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		h.logger.Printf("handler :: %s: %d\n", c, counts[c])
	}
	if failed > 0 {
		h.logger.Printf("handler :: failed moves: %d\n", failed)
	}
}
