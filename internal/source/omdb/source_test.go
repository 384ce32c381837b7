package omdb

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"title_ingester/internal/domain"
)

const inceptionJSON = `{
	"Title": "Inception",
	"Year": "2010",
	"Genre": "Action, Adventure, Sci-Fi",
	"Director": "Christopher Nolan",
	"Country": "United States, United Kingdom",
	"Ratings": [
		{"Source": "Internet Movie Database", "Value": "8.8/10"},
		{"Source": "Rotten Tomatoes", "Value": "87%"}
	],
	"Metascore": "74",
	"imdbID": "tt1375666",
	"Type": "movie",
	"BoxOffice": "N/A",
	"Response": "True"
}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Config{
		BaseURL:        server.URL,
		APIKey:         "secret",
		Timeout:        time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSource_FetchRecord(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt1375666", r.URL.Query().Get("i"))
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		assert.Equal(t, "full", r.URL.Query().Get("plot"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, inceptionJSON)
	})

	record, err := source.FetchRecord(context.Background(), "tt1375666")

	require.NoError(t, err)
	assert.Equal(t, "Inception", record.Title)
	assert.Equal(t, "tt1375666", record.IMDBID)
	assert.Equal(t, "movie", record.Type)
	assert.Equal(t, "N/A", record.BoxOffice)
	assert.Equal(t, []domain.RecordRating{
		{Source: "Internet Movie Database", Value: "8.8/10"},
		{Source: "Rotten Tomatoes", Value: "87%"},
	}, record.Ratings)
}

func TestSource_FetchRecord_NotFound(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"Response":"False","Error":"Incorrect IMDb ID."}`)
	})

	_, err := source.FetchRecord(context.Background(), "tt0000000")

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Reason, "Incorrect IMDb ID.")
}

func TestSource_FetchRecord_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, inceptionJSON)
	})

	record, err := source.FetchRecord(context.Background(), "tt1375666")

	require.NoError(t, err)
	assert.Equal(t, "Inception", record.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSource_FetchRecord_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := source.FetchRecord(context.Background(), "tt1375666")

	assert.ErrorContains(t, err, "unexpected status: 503")
	assert.Equal(t, int32(3), calls.Load())
}

func TestSource_FetchRecord_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := source.FetchRecord(context.Background(), "tt1375666")

	assert.ErrorContains(t, err, "unexpected status: 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSource_FetchRecord_EmptyID(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	})

	_, err := source.FetchRecord(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrValidation)
}
