package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"title_ingester/internal/config"
	"title_ingester/internal/domain"
)

type IngestService struct {
	source    Source
	titles    TitleStore
	genres    DimensionStore
	languages DimensionStore
	countries DimensionStore
	people    PeopleStore
	ratings   RatingStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.IngestConfig
}

// Stores groups the dictionaries a title is normalized into.
type Stores struct {
	Titles    TitleStore
	Genres    DimensionStore
	Languages DimensionStore
	Countries DimensionStore
	People    PeopleStore
	Ratings   RatingStore
}

func NewIngestService(
	source Source,
	stores Stores,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.IngestConfig,
) *IngestService {
	return &IngestService{
		source:    source,
		titles:    stores.Titles,
		genres:    stores.Genres,
		languages: stores.Languages,
		countries: stores.Countries,
		people:    stores.People,
		ratings:   stores.Ratings,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// Ingest stores record as a new title with all of its relations in one
// transaction and returns the title id. Errors match domain.ErrValidation,
// domain.ErrConflict or domain.ErrInternal.
func (s *IngestService) Ingest(ctx context.Context, record *domain.Record) (int64, error) {
	title, err := MapTitle(record, s.config.StrictType)
	if err != nil {
		s.logger.Warn("rejected record", "error", err)
		return 0, err
	}

	logger := s.logger.With("imdb_id", title.IMDBID)

	exists, err := s.titles.ExistsByExternalID(ctx, title.IMDBID)
	if err != nil {
		return 0, s.classify(logger, title.IMDBID, fmt.Errorf("check existing title: %w", err))
	}
	if exists {
		return 0, s.classify(logger, title.IMDBID, domain.ErrDuplicateTitle)
	}

	var titleID int64
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := s.titles.Create(txCtx, title)
		if err != nil {
			return fmt.Errorf("create title: %w", err)
		}
		titleID = id

		return s.linkRelations(txCtx, id, record)
	})
	if err != nil {
		return 0, s.classify(logger, title.IMDBID, err)
	}

	logger.Info("created title", "title_id", titleID, "type", title.Type)
	return titleID, nil
}

// linkRelations normalizes every dimension concurrently. The first failure
// cancels the remaining branches.
func (s *IngestService) linkRelations(ctx context.Context, titleID int64, record *domain.Record) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.linkDimension(gctx, "genres", s.genres, titleID, record.Genre)
	})
	g.Go(func() error {
		return s.linkDimension(gctx, "languages", s.languages, titleID, record.Language)
	})
	g.Go(func() error {
		return s.linkDimension(gctx, "countries", s.countries, titleID, record.Country)
	})
	g.Go(func() error {
		return s.linkPeople(gctx, titleID, domain.RoleActor, record.Actors)
	})
	g.Go(func() error {
		return s.linkPeople(gctx, titleID, domain.RoleWriter, record.Writer)
	})
	g.Go(func() error {
		return s.linkPeople(gctx, titleID, domain.RoleDirector, record.Director)
	})
	g.Go(func() error {
		return s.linkRatings(gctx, titleID, record.Ratings)
	})

	return g.Wait()
}

func (s *IngestService) linkDimension(ctx context.Context, name string, store DimensionStore, titleID int64, raw string) error {
	names := uniqueNames(SplitList(raw, domain.NotAvailable))
	if len(names) == 0 {
		return nil
	}

	byName, err := store.Resolve(ctx, names)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", name, err)
	}

	if err := store.Link(ctx, titleID, idsInOrder(names, byName)); err != nil {
		return fmt.Errorf("link %s: %w", name, err)
	}
	return nil
}

func (s *IngestService) linkPeople(ctx context.Context, titleID int64, role domain.Role, raw string) error {
	names := uniqueNames(SplitList(raw, domain.NotAvailable))
	if len(names) == 0 {
		return nil
	}

	byName, err := s.people.Resolve(ctx, names)
	if err != nil {
		return fmt.Errorf("resolve people as %s: %w", role, err)
	}

	if err := s.people.Link(ctx, titleID, role, idsInOrder(names, byName)); err != nil {
		return fmt.Errorf("link people as %s: %w", role, err)
	}
	return nil
}

// linkRatings stores one row per rating entry, each keeping its own value
// even when two entries name the same source.
func (s *IngestService) linkRatings(ctx context.Context, titleID int64, ratings []domain.RecordRating) error {
	var entries []domain.RecordRating
	var sources []string
	for _, r := range ratings {
		source := Optional(r.Source, domain.NotAvailable)
		value := Optional(r.Value, domain.NotAvailable)
		if source == nil || value == nil {
			continue
		}
		entries = append(entries, domain.RecordRating{Source: *source, Value: *value})
		sources = append(sources, *source)
	}
	if len(entries) == 0 {
		return nil
	}

	byName, err := s.ratings.Resolve(ctx, uniqueNames(sources))
	if err != nil {
		return fmt.Errorf("resolve rating sources: %w", err)
	}

	links := make([]domain.RatingLink, 0, len(entries))
	for _, e := range entries {
		id, ok := byName[e.Source]
		if !ok {
			return fmt.Errorf("rating source %q not resolved", e.Source)
		}
		links = append(links, domain.RatingLink{SourceID: id, Value: e.Value})
	}

	if err := s.ratings.Link(ctx, titleID, links); err != nil {
		return fmt.Errorf("link ratings: %w", err)
	}
	return nil
}

// classify turns a failed ingestion into the error reported to the caller.
// Causes of internal failures are logged here and never returned.
func (s *IngestService) classify(logger *slog.Logger, imdbID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		logger.Warn("rejected record", "error", err)
		return err
	case errors.Is(err, domain.ErrDuplicateTitle):
		logger.Warn("title already exists", "error", err)
		return &domain.ConflictError{IMDBID: imdbID}
	case errors.Is(err, domain.ErrWriteConflict):
		logger.Warn("ingestion conflicted with a concurrent write", "error", err)
		return &domain.ConflictError{IMDBID: imdbID, Retryable: true}
	default:
		logger.Error("failed to ingest title", "error", err)
		return &domain.InternalError{}
	}
}

// IngestByID fetches the record for imdbID from the source, ingests it and
// announces the new title. A failed announcement is logged but does not fail
// the ingestion, since the title is already committed.
func (s *IngestService) IngestByID(ctx context.Context, imdbID string) (int64, error) {
	titleID, _, err := s.ingestAndPublish(ctx, imdbID)
	return titleID, err
}

func (s *IngestService) ingestAndPublish(ctx context.Context, imdbID string) (int64, bool, error) {
	logger := s.logger.With("imdb_id", imdbID)

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	record, err := s.source.FetchRecord(ctx, imdbID)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			logger.Warn("record not available", "error", err)
			return 0, false, err
		}
		logger.Error("failed to fetch record", "error", err)
		return 0, false, &domain.InternalError{Message: "failed to fetch title metadata"}
	}

	titleID, err := s.Ingest(ctx, record)
	if err != nil {
		return 0, false, err
	}

	if s.publisher == nil {
		return titleID, false, nil
	}

	event := &domain.TitleIngested{
		EventID:   uuid.NewString(),
		TitleID:   titleID,
		IMDBID:    record.IMDBID,
		Name:      record.Title,
		Type:      titleTypeOf(record),
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Error("failed to publish title", "title_id", titleID, "error", err)
		return titleID, false, nil
	}
	return titleID, true, nil
}

// IngestBatch ingests every id with at most config.Workers ingestions in
// flight and reports what happened to them.
func (s *IngestService) IngestBatch(ctx context.Context, imdbIDs []string) *domain.IngestStats {
	startTime := time.Now()
	s.logger.Info("starting batch", "count", len(imdbIDs), "workers", s.config.Workers)

	stats := &domain.IngestStats{Requested: len(imdbIDs)}
	var mu sync.Mutex

	var g errgroup.Group
	if s.config.Workers > 0 {
		g.SetLimit(s.config.Workers)
	}

	for _, id := range imdbIDs {
		g.Go(func() error {
			_, published, err := s.ingestAndPublish(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				stats.Created++
			case errors.Is(err, domain.ErrValidation):
				stats.Invalid++
			case errors.Is(err, domain.ErrConflict):
				stats.Conflicts++
			default:
				stats.Failed++
			}
			if published {
				stats.Published++
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Duration = time.Since(startTime)

	s.logger.Info("batch completed",
		"created", stats.Created,
		"conflicts", stats.Conflicts,
		"invalid", stats.Invalid,
		"failed", stats.Failed,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats
}

func titleTypeOf(record *domain.Record) domain.TitleType {
	if t, ok := parseTitleType(record.Type); ok {
		return t
	}
	return domain.TitleTypeSeries
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func idsInOrder(names []string, byName map[string]int64) []int64 {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
