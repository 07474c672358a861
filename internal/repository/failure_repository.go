package repository

import (
	"database/sql"
	"encoding/json"
	"errors"

	"careerpath/internal/model"
)

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository {
	return &FailureRepository{db: db}
}

// SaveFailure stores f. Saving an event id that is already stored is a no-op,
// so redelivered queue entries are harmless.
func (r *FailureRepository) SaveFailure(f *model.ExtractionFailure) error {
	fields, err := json.Marshal(f.Fields)
	if err != nil {
		return err
	}
	if f.Fields == nil {
		fields = []byte("[]")
	}

	err = r.db.QueryRow(`
		INSERT INTO extraction_failure(event_id, task, kind, raw, diagnostic, fields, model, occurred_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id, created_at
	`, f.EventID, f.Task, f.Kind, f.Raw, f.Diagnostic, fields, f.Model, f.OccurredAt).Scan(&f.ID, &f.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func (r *FailureRepository) GetFailures(task string, limit, offset int) ([]model.ExtractionFailure, error) {
	rows, err := r.db.Query(`
		SELECT id, event_id, task, kind, raw, diagnostic, fields, model, occurred_at, created_at
		FROM extraction_failure
		WHERE $1 = '' OR task = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, task, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []model.ExtractionFailure
	for rows.Next() {
		var f model.ExtractionFailure
		var fields []byte
		err := rows.Scan(&f.ID, &f.EventID, &f.Task, &f.Kind, &f.Raw, &f.Diagnostic, &fields, &f.Model, &f.OccurredAt, &f.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &f.Fields); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return failures, nil
}

func (r *FailureRepository) GetFailuresTotal(task string) (int, error) {
	var total int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM extraction_failure WHERE $1 = '' OR task = $1
	`, task).Scan(&total)
	return total, err
}
