package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"title_ingester/internal/domain"
)

type RatingStore struct {
	dictionary
}

func NewRatingStore(db *sqlx.DB) *RatingStore {
	return &RatingStore{dictionary{db: db, table: ratingSourcesTable}}
}

func (s *RatingStore) Link(ctx context.Context, titleID int64, ratings []domain.RatingLink) error {
	if len(ratings) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO title_ratings (title_id, source_id, value) VALUES ")
	sb.WriteString(placeholders(len(ratings), 3))

	args := make([]interface{}, 0, len(ratings)*3)
	for _, r := range ratings {
		args = append(args, titleID, r.SourceID, r.Value)
	}

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("link ratings: %w", err)
	}
	return nil
}

type Rating struct {
	Source string `db:"source"`
	Value  string `db:"value"`
}

func (s *RatingStore) GetByTitleID(ctx context.Context, titleID int64) ([]Rating, error) {
	query := `
		SELECT rs.name AS source, tr.value
		FROM title_ratings tr
		INNER JOIN rating_sources rs ON rs.id = tr.source_id
		WHERE tr.title_id = $1
		ORDER BY tr.id`

	var ratings []Rating
	err := GetExecutor(ctx, s.db).SelectContext(ctx, &ratings, query, titleID)
	return ratings, err
}
