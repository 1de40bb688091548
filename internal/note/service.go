package note

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Service validates note input and applies it through a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create validates in and stores a new note owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*Note, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}

	color := DefaultColor
	if strings.TrimSpace(in.Color) != "" {
		if !IsValidColor(in.Color) {
			return nil, ErrInvalidColor
		}
		color = NormalizeColor(in.Color)
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &Note{
		ID:        uuid.New(),
		UserID:    ownerID,
		Title:     title,
		Content:   content,
		Color:     color,
		Tags:      CleanTags(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	return created, nil
}

// List returns one page of the owner's notes matching q.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, q ListQuery) (*ListResult, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}

	notes, total, err := s.repo.List(ctx, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	return &ListResult{
		Notes:      notes,
		Pagination: newPagination(q, len(notes), total),
	}, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Note, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// Update validates the present fields of p and applies them.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, p Patch) (*Note, error) {
	var clean Patch

	if p.Title != nil {
		title, err := validateTitle(*p.Title)
		if err != nil {
			return nil, err
		}
		clean.Title = &title
	}

	if p.Content != nil {
		content, err := validateContent(*p.Content)
		if err != nil {
			return nil, err
		}
		clean.Content = &content
	}

	if p.Color != nil {
		if !IsValidColor(*p.Color) {
			return nil, ErrInvalidColor
		}
		color := NormalizeColor(*p.Color)
		clean.Color = &color
	}

	if p.Tags != nil {
		tags := CleanTags(*p.Tags)
		clean.Tags = &tags
	}

	return s.repo.Update(ctx, ownerID, id, clean, s.now())
}

func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.repo.Delete(ctx, ownerID, id)
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrContentRequired
	}
	return content, nil
}

func normalizeQuery(q ListQuery) (ListQuery, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	switch {
	case q.Limit <= 0:
		q.Limit = DefaultPageSize
	case q.Limit > MaxPageSize:
		q.Limit = MaxPageSize
	}

	// keeps Offset from overflowing
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}

	q.Search = strings.TrimSpace(q.Search)

	if strings.TrimSpace(q.Color) != "" {
		if !IsValidColor(q.Color) {
			return q, ErrInvalidColor
		}
		q.Color = NormalizeColor(q.Color)
	} else {
		q.Color = ""
	}

	return q, nil
}
