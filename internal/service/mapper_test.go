package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"title_ingester/internal/domain"
	"title_ingester/testdata/utils"
)

func baseRecord() *domain.Record {
	return &domain.Record{
		Title:  "Breaking Bad",
		IMDBID: "tt0903747",
		Type:   "series",
		Year:   "2008–2013",
	}
}

func TestMapTitle_SentinelsAreAbsent(t *testing.T) {
	r := baseRecord()
	r.Poster = "N/A"
	r.Rated = "N/A"
	r.Released = "N/A"
	r.Runtime = "N/A"
	r.Plot = "N/A"
	r.Awards = "N/A"
	r.Metascore = "N/A"
	r.IMDBRating = "N/A"
	r.IMDBVotes = "N/A"
	r.BoxOffice = "N/A"
	r.Website = "N/A"
	r.Production = "N/A"
	r.TotalSeasons = "N/A"

	title, err := MapTitle(r, false)
	require.NoError(t, err)

	assert.Nil(t, title.PosterURL)
	assert.Nil(t, title.Rated)
	assert.Nil(t, title.Released)
	assert.Nil(t, title.Runtime)
	assert.Nil(t, title.Plot)
	assert.Nil(t, title.Awards)
	assert.Nil(t, title.Metascore)
	assert.Nil(t, title.IMDBRating)
	assert.Nil(t, title.IMDBVotes)
	assert.Nil(t, title.BoxOffice)
	assert.Nil(t, title.Website)
	assert.Nil(t, title.Production)
	assert.Nil(t, title.TotalSeasons)
}

func TestMapTitle_CopiesFields(t *testing.T) {
	r := baseRecord()
	r.Poster = "https://example.com/poster.jpg"
	r.Rated = "TV-MA"
	r.IMDBRating = "9.5"
	r.IMDBVotes = "2,100,000"

	title, err := MapTitle(r, false)
	require.NoError(t, err)

	assert.Equal(t, "Breaking Bad", title.Name)
	assert.Equal(t, "tt0903747", title.IMDBID)
	assert.Equal(t, "2008–2013", title.Year)
	assert.Equal(t, utils.Ptr("https://example.com/poster.jpg"), title.PosterURL)
	assert.Equal(t, utils.Ptr("TV-MA"), title.Rated)
	assert.Equal(t, utils.Ptr("9.5"), title.IMDBRating)
	assert.Equal(t, utils.Ptr("2,100,000"), title.IMDBVotes)
}

func TestMapTitle_Seasons(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		seasons string
		want    *int
	}{
		{name: "series with count", typ: "series", seasons: "3", want: utils.Ptr(3)},
		{name: "series without count", typ: "series", seasons: "N/A", want: nil},
		{name: "series with garbage", typ: "series", seasons: "three", want: nil},
		{name: "series with zero", typ: "series", seasons: "0", want: nil},
		{name: "movie ignores count", typ: "movie", seasons: "3", want: nil},
		{name: "defaulted series ignores count", typ: "episode", seasons: "3", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRecord()
			r.Type = tt.typ
			r.TotalSeasons = tt.seasons

			title, err := MapTitle(r, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, title.TotalSeasons)
		})
	}
}

func TestMapTitle_Type(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.TitleType
	}{
		{raw: "movie", want: domain.TitleTypeMovie},
		{raw: "Movie", want: domain.TitleTypeMovie},
		{raw: "series", want: domain.TitleTypeSeries},
		{raw: "episode", want: domain.TitleTypeSeries},
		{raw: "game", want: domain.TitleTypeSeries},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := baseRecord()
			r.Type = tt.raw

			title, err := MapTitle(r, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, title.Type)
		})
	}
}

func TestMapTitle_StrictType(t *testing.T) {
	r := baseRecord()
	r.Type = "episode"

	_, err := MapTitle(r, true)

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"Type"}, validation.Fields)
}

func TestMapTitle_MissingRequired(t *testing.T) {
	_, err := MapTitle(&domain.Record{Title: " ", Type: "N/A"}, false)

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"Title", "imdbID", "Type", "Year"}, validation.Fields)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = MapTitle(nil, false)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
