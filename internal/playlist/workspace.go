package playlist

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type draft struct {
	owner     int
	builder   *Builder
	touchedAt time.Time
}

// Workspace keeps the drafts operators are editing. Drafts live only in
// memory; nothing reaches storage until an explicit save.
type Workspace struct {
	mu     sync.Mutex
	drafts map[string]*draft
	opts   []BuilderOption
	now    func() time.Time
}

func NewWorkspace(opts ...BuilderOption) *Workspace {
	return &Workspace{
		drafts: make(map[string]*draft),
		opts:   opts,
		now:    time.Now,
	}
}

// Create opens an empty draft for owner and returns its handle.
func (w *Workspace) Create(owner int) (string, *Builder) {
	id := uuid.NewString()
	b := NewBuilder(w.opts...)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.drafts[id] = &draft{owner: owner, builder: b, touchedAt: w.now()}
	return id, b
}

func (w *Workspace) Get(id string, owner int) (*Builder, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if d.owner != owner {
		return nil, ErrDraftForbidden
	}
	d.touchedAt = w.now()
	return d.builder, nil
}

func (w *Workspace) Discard(id string, owner int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.drafts[id]
	if !ok {
		return ErrDraftNotFound
	}
	if d.owner != owner {
		return ErrDraftForbidden
	}
	delete(w.drafts, id)
	return nil
}

// Prune drops drafts nobody touched for longer than idle and returns how
// many were removed.
func (w *Workspace) Prune(idle time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	cutoff := w.now().Add(-idle)
	n := 0
	for id, d := range w.drafts {
		if d.touchedAt.Before(cutoff) {
			delete(w.drafts, id)
			n++
		}
	}
	return n
}

func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.drafts)
}
