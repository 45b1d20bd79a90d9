package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-sync/timetable-api/internal/models"
)

// SubjectRepository provides read access to the subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID loads a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, code, name, theory_hours, practice_hours, lab_hours, required_room_type, active, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListActive returns every active subject for snapshot loading.
func (r *SubjectRepository) ListActive(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, code, name, theory_hours, practice_hours, lab_hours, required_room_type, active, created_at, updated_at FROM subjects WHERE active = TRUE ORDER BY id ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list active subjects: %w", err)
	}
	return subjects, nil
}

// ListRequiredSpecialties returns required specialty ids keyed by subject id.
func (r *SubjectRepository) ListRequiredSpecialties(ctx context.Context) (map[string][]string, error) {
	const query = `SELECT subject_id, specialty_id FROM subject_specialties ORDER BY subject_id ASC, specialty_id ASC`
	var links []models.SubjectSpecialty
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list subject specialties: %w", err)
	}
	result := make(map[string][]string, len(links))
	for _, link := range links {
		result[link.SubjectID] = append(result[link.SubjectID], link.SpecialtyID)
	}
	return result, nil
}
