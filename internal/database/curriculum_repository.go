package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/learnstate/pkg/models"
)

type curriculumRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Subject    string    `db:"subject"`
	Grade      string    `db:"grade"`
	FilePath   string    `db:"file_path"`
	CreatedBy  string    `db:"created_by"`
	UnitTitles string    `db:"unit_titles"`
	CreatedAt  time.Time `db:"created_at"`
}

const curriculumColumnsSQL = "id, title, subject, grade, file_path, created_by, unit_titles, created_at"

func (r curriculumRow) toModel() (*models.Curriculum, error) {
	c := &models.Curriculum{
		ID:        r.ID,
		Title:     r.Title,
		Subject:   r.Subject,
		Grade:     r.Grade,
		FilePath:  r.FilePath,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
	if r.UnitTitles != "" {
		if err := json.Unmarshal([]byte(r.UnitTitles), &c.UnitTitles); err != nil {
			return nil, fmt.Errorf("%w: curriculum %s unit titles", ErrMalformedRecord, r.ID)
		}
	}
	return c, nil
}

// SaveCurriculum inserts or replaces curriculum metadata
func (s *Store) SaveCurriculum(ctx context.Context, c *models.Curriculum) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	titles := c.UnitTitles
	if titles == nil {
		titles = []string{}
	}
	titlesJSON, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("failed to marshal unit titles: %w", err)
	}

	_, err = s.Exec(ctx, `
		INSERT INTO curricula (id, title, subject, grade, file_path, created_by, unit_titles, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			subject = excluded.subject,
			grade = excluded.grade,
			file_path = excluded.file_path,
			created_by = excluded.created_by,
			unit_titles = excluded.unit_titles`,
		c.ID, c.Title, c.Subject, c.Grade, c.FilePath, c.CreatedBy, string(titlesJSON), c.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save curriculum %s: %w", c.ID, err)
	}
	return nil
}

// GetCurriculum returns curriculum metadata, or nil if absent
func (s *Store) GetCurriculum(ctx context.Context, id string) (*models.Curriculum, error) {
	var row curriculumRow
	err := s.Get(ctx, &row, "SELECT "+curriculumColumnsSQL+" FROM curricula WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get curriculum: %w", err)
	}
	return row.toModel()
}

// ListCurricula returns all curricula ordered by title
func (s *Store) ListCurricula(ctx context.Context) ([]*models.Curriculum, error) {
	var rows []curriculumRow
	if err := s.Select(ctx, &rows, "SELECT "+curriculumColumnsSQL+" FROM curricula ORDER BY title"); err != nil {
		return nil, fmt.Errorf("failed to list curricula: %w", err)
	}
	out := make([]*models.Curriculum, 0, len(rows))
	for _, r := range rows {
		c, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// UpdateCurriculum applies the given column updates to curriculum metadata
func (s *Store) UpdateCurriculum(ctx context.Context, id string, updates ...CurriculumUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	columns, args, err := resolveCurriculumUpdates(updates)
	if err != nil {
		return err
	}
	args = append(args, id)

	result, err := s.Exec(ctx, "UPDATE curricula SET "+buildSet(columns)+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update curriculum %s: %w", id, err)
	}
	return expectRows(result, "curriculum")
}

// DeleteCurriculum removes curriculum metadata; progress rows are kept
func (s *Store) DeleteCurriculum(ctx context.Context, id string) error {
	result, err := s.Exec(ctx, "DELETE FROM curricula WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete curriculum: %w", err)
	}
	return expectRows(result, "curriculum")
}
