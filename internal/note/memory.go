package note

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps notes in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]Note
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notes: make(map[uuid.UUID]Note)}
}

func (r *MemoryRepository) Create(_ context.Context, n *Note) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := cloneNote(n)
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	r.notes[created.ID] = created

	out := cloneNote(&created)
	return &out, nil
}

func (r *MemoryRepository) List(_ context.Context, ownerID uuid.UUID, q ListQuery) ([]Note, int, error) {
	r.mu.RLock()
	matched := make([]Note, 0)
	for _, n := range r.notes {
		if n.UserID == ownerID && matches(n, q) {
			matched = append(matched, cloneNote(&n))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := q.Offset()
	if start >= total {
		return []Note{}, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, id uuid.UUID) (*Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[id]
	if !ok || n.UserID != ownerID {
		return nil, ErrNotFound
	}

	out := cloneNote(&n)
	return &out, nil
}

func (r *MemoryRepository) Update(_ context.Context, ownerID, id uuid.UUID, p Patch, now time.Time) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok || n.UserID != ownerID {
		return nil, ErrNotFound
	}

	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.Tags != nil {
		n.Tags = append([]string{}, (*p.Tags)...)
	}
	n.UpdatedAt = now.UTC()
	r.notes[id] = n

	out := cloneNote(&n)
	return &out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok || n.UserID != ownerID {
		return ErrNotFound
	}

	delete(r.notes, id)
	return nil
}

func matches(n Note, q ListQuery) bool {
	if q.Color != "" && n.Color != q.Color {
		return false
	}
	if q.Search == "" {
		return true
	}

	needle := strings.ToLower(q.Search)
	if strings.Contains(strings.ToLower(n.Title), needle) ||
		strings.Contains(strings.ToLower(n.Content), needle) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func cloneNote(n *Note) Note {
	c := *n
	c.Tags = append([]string{}, n.Tags...)
	return c
}
