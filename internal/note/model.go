package note

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultColor is the neutral palette entry assigned when none is given.
	DefaultColor = "#ffffff"

	MaxTitleLength = 100

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Palette lists the colors a note may carry.
var Palette = []string{
	DefaultColor,
	"#f28b82",
	"#fbbc04",
	"#fff475",
	"#ccff90",
	"#a7ffeb",
	"#cbf0f8",
	"#aecbfa",
	"#d7aefb",
	"#fdcfe8",
	"#e6c9a8",
	"#e8eaed",
}

// Note is a single owner-scoped note.
type Note struct {
	ID        uuid.UUID `json:"_id"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInput carries the caller-supplied fields of a new note.
type CreateInput struct {
	Title   string
	Content string
	Color   string
	Tags    []string
}

// Patch holds the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Title   *string
	Content *string
	Color   *string
	Tags    *[]string
}

// ListQuery selects a page of an owner's notes.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Color  string
}

// Offset is the number of notes skipped before the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalNotes  int  `json:"totalNotes"`
	Limit       int  `json:"limit"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// ListResult is one page of notes plus its pagination metadata.
type ListResult struct {
	Notes      []Note     `json:"notes"`
	Pagination Pagination `json:"pagination"`
}

// NormalizeColor is the stored form of a color.
func NormalizeColor(color string) string {
	return strings.ToLower(strings.TrimSpace(color))
}

// IsValidColor reports whether color is a palette member.
func IsValidColor(color string) bool {
	color = NormalizeColor(color)
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}

// CleanTags trims every tag and drops the empty ones. The result is never nil.
func CleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return cleaned
}

func newPagination(q ListQuery, returned, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}

	return Pagination{
		CurrentPage: q.Page,
		TotalPages:  totalPages,
		TotalNotes:  total,
		Limit:       q.Limit,
		HasNext:     q.Offset()+returned < total,
		HasPrev:     q.Page > 1,
	}
}
