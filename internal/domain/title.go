package domain

import "time"

// NotAvailable marks a field the metadata provider has no value for.
const NotAvailable = "N/A"

type TitleType string

const (
	TitleTypeMovie  TitleType = "movie"
	TitleTypeSeries TitleType = "series"
)

type Role string

const (
	RoleActor    Role = "actor"
	RoleWriter   Role = "writer"
	RoleDirector Role = "director"
)

type Title struct {
	ID           int64     `db:"id"`
	Name         string    `db:"title"`
	PosterURL    *string   `db:"poster_url"`
	Rated        *string   `db:"rated"`
	Released     *string   `db:"released"`
	Runtime      *string   `db:"runtime"`
	Plot         *string   `db:"plot"`
	Awards       *string   `db:"awards"`
	Metascore    *string   `db:"meta_score"`
	IMDBRating   *string   `db:"imdb_rating"`
	IMDBVotes    *string   `db:"imdb_votes"`
	Type         TitleType `db:"type"`
	IMDBID       string    `db:"imdb_id"`
	Year         string    `db:"year"`
	BoxOffice    *string   `db:"box_office"`
	Website      *string   `db:"website"`
	Production   *string   `db:"production"`
	TotalSeasons *int      `db:"total_season"`
	CreatedAt    time.Time `db:"created_at"`
}

// RatingLink pairs a resolved rating source with the value reported for it.
type RatingLink struct {
	SourceID int64
	Value    string
}
