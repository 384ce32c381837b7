package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"title_ingester/internal/domain"
)

const titleIMDBIDConstraint = "titles_imdb_id_key"

type TitleStore struct {
	db *sqlx.DB
}

func NewTitleStore(db *sqlx.DB) *TitleStore {
	return &TitleStore{db: db}
}

// Create inserts the title and returns its id. A title whose imdb id is
// already stored yields domain.ErrDuplicateTitle.
func (s *TitleStore) Create(ctx context.Context, title *domain.Title) (int64, error) {
	query := `
		INSERT INTO titles (
			title, poster_url, rated, released, runtime, plot, awards,
			meta_score, imdb_rating, imdb_votes, type, imdb_id, year,
			box_office, website, production, total_season
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).GetContext(ctx, &id, query,
		title.Name,
		title.PosterURL,
		title.Rated,
		title.Released,
		title.Runtime,
		title.Plot,
		title.Awards,
		title.Metascore,
		title.IMDBRating,
		title.IMDBVotes,
		string(title.Type),
		title.IMDBID,
		title.Year,
		title.BoxOffice,
		title.Website,
		title.Production,
		title.TotalSeasons,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation && pqErr.Constraint == titleIMDBIDConstraint {
			return 0, fmt.Errorf("%w: %s", domain.ErrDuplicateTitle, title.IMDBID)
		}
		return 0, err
	}
	return id, nil
}

func (s *TitleStore) ExistsByExternalID(ctx context.Context, imdbID string) (bool, error) {
	var exists bool
	err := GetExecutor(ctx, s.db).GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM titles WHERE imdb_id = $1)", imdbID)
	return exists, err
}

func (s *TitleStore) GetByID(ctx context.Context, id int64) (*domain.Title, error) {
	query := `
		SELECT id, title, poster_url, rated, released, runtime, plot, awards,
			meta_score, imdb_rating, imdb_votes, type, imdb_id, year,
			box_office, website, production, total_season, created_at
		FROM titles
		WHERE id = $1`

	var title domain.Title
	err := GetExecutor(ctx, s.db).GetContext(ctx, &title, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &title, nil
}
