package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"title_ingester/internal/domain"
)

type TitleStore interface {
	Create(ctx context.Context, title *domain.Title) (int64, error)
	ExistsByExternalID(ctx context.Context, imdbID string) (bool, error)
}

// DimensionStore resolves names in one dictionary (genres, languages,
// countries) and links the resolved ids to a title.
type DimensionStore interface {
	Resolve(ctx context.Context, names []string) (map[string]int64, error)
	Link(ctx context.Context, titleID int64, ids []int64) error
}

type PeopleStore interface {
	Resolve(ctx context.Context, names []string) (map[string]int64, error)
	Link(ctx context.Context, titleID int64, role domain.Role, ids []int64) error
}

type RatingStore interface {
	Resolve(ctx context.Context, names []string) (map[string]int64, error)
	Link(ctx context.Context, titleID int64, ratings []domain.RatingLink) error
}

type Source interface {
	FetchRecord(ctx context.Context, imdbID string) (*domain.Record, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.TitleIngested) error
	Close() error
}
