package note

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/redmonkez12/notes-api/internal/database"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresRepository stores notes in the notes table
type PostgresRepository struct {
	db bun.IDB
}

func NewPostgresRepository(db bun.IDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new note owned by n.UserID
func (r *PostgresRepository) Create(ctx context.Context, n *Note) (*Note, error) {
	row := mapModelToDBNote(n)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return mapDBNoteToModel(row), nil
}

// List returns one page of the owner's notes, newest first
func (r *PostgresRepository) List(ctx context.Context, ownerID uuid.UUID, q ListQuery) ([]Note, int, error) {
	var rows []database.Note

	query := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", ownerID)

	if q.Color != "" {
		query = query.Where("color = ?", q.Color)
	}

	if q.Search != "" {
		pattern := "%" + likeEscaper.Replace(q.Search) + "%"
		query = query.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("title ILIKE ?", pattern).
				WhereOr("content ILIKE ?", pattern).
				WhereOr("EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE ?)", pattern)
		})
	}

	total, err := query.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	if total == 0 || q.Offset() >= total {
		return []Note{}, total, nil
	}

	err = query.
		OrderExpr("updated_at DESC").
		OrderExpr("id ASC").
		Limit(q.Limit).
		Offset(q.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]Note, 0, len(rows))
	for i := range rows {
		notes = append(notes, *mapDBNoteToModel(&rows[i]))
	}

	return notes, total, nil
}

// Get retrieves a single note owned by ownerID
func (r *PostgresRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (*Note, error) {
	row := new(database.Note)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Where("user_id = ?", ownerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return mapDBNoteToModel(row), nil
}

// Update applies the present patch fields with one conditional statement
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id uuid.UUID, p Patch, now time.Time) (*Note, error) {
	row := new(database.Note)

	query := r.db.NewUpdate().
		Model(row).
		Set("updated_at = ?", now.UTC())

	if p.Title != nil {
		query = query.Set("title = ?", *p.Title)
	}
	if p.Content != nil {
		query = query.Set("content = ?", *p.Content)
	}
	if p.Color != nil {
		query = query.Set("color = ?", *p.Color)
	}
	if p.Tags != nil {
		query = query.Set("tags = ?", pgdialect.Array(*p.Tags))
	}

	err := query.
		Where("id = ?", id).
		Where("user_id = ?", ownerID).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	if row.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	return mapDBNoteToModel(row), nil
}

// Delete removes a note owned by ownerID
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Note)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", ownerID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func mapDBNoteToModel(row *database.Note) *Note {
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}

	return &Note{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Content:   row.Content,
		Color:     row.Color,
		Tags:      tags,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func mapModelToDBNote(n *Note) *database.Note {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	return &database.Note{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Color:     n.Color,
		Tags:      tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
