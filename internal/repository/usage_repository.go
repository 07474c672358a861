package repository

import (
	"context"
	"database/sql"

	"careerpath/internal/model"
)

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// IncrementUsage adds one request and tokens to today's row for apiName.
func (r *UsageRepository) IncrementUsage(ctx context.Context, apiName string, tokens int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_usage(api_name, usage_date, request_count, token_count)
		VALUES($1, CURRENT_DATE, 1, $2)
		ON CONFLICT (api_name, usage_date) DO UPDATE
		SET request_count = api_usage.request_count + 1,
			token_count = api_usage.token_count + EXCLUDED.token_count
	`, apiName, tokens)
	return err
}

func (r *UsageRepository) GetUsage(days int) ([]model.ApiUsage, error) {
	rows, err := r.db.Query(`
		SELECT id, api_name, usage_date, request_count, token_count
		FROM api_usage
		WHERE usage_date > CURRENT_DATE - $1::int
		ORDER BY usage_date DESC, api_name ASC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []model.ApiUsage
	for rows.Next() {
		var u model.ApiUsage
		if err := rows.Scan(&u.ID, &u.ApiName, &u.UsageDate, &u.RequestCount, &u.TokenCount); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return usage, nil
}
