package note

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/notes-api/internal/apperror"
)

var (
	ErrNotFound        = apperror.New(apperror.KindNotFound, "Note not found")
	ErrTitleRequired   = apperror.New(apperror.KindValidation, "title is required")
	ErrTitleTooLong    = apperror.New(apperror.KindValidation, "title must be at most 100 characters")
	ErrContentRequired = apperror.New(apperror.KindValidation, "content is required")
	ErrInvalidColor    = apperror.New(apperror.KindValidation, "color must be one of the palette colors")
)

// Repository persists notes. Every method is scoped to ownerID and returns
// ErrNotFound when no note with id belongs to that owner.
type Repository interface {
	Create(ctx context.Context, n *Note) (*Note, error)

	// List returns the page of notes selected by q together with the total
	// number of notes matching its filters.
	List(ctx context.Context, ownerID uuid.UUID, q ListQuery) ([]Note, int, error)

	Get(ctx context.Context, ownerID, id uuid.UUID) (*Note, error)

	// Update applies p and sets updated_at to now in a single statement.
	Update(ctx context.Context, ownerID, id uuid.UUID, p Patch, now time.Time) (*Note, error)

	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
