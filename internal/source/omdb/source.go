package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"title_ingester/internal/domain"
)

// Config holds OMDb source configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches title records from the OMDb API.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", "omdb"),
	}
}

// FetchRecord looks up one title with its full plot. Unknown ids yield a
// *domain.ValidationError; transport failures are retried with exponential
// backoff.
func (s *Source) FetchRecord(ctx context.Context, imdbID string) (*domain.Record, error) {
	if imdbID == "" {
		return nil, &domain.ValidationError{Fields: []string{"imdbID"}, Reason: "missing required fields"}
	}

	reqURL, err := s.lookupURL(imdbID)
	if err != nil {
		return nil, err
	}

	var resp *APIResponse
	operation := func() error {
		r, err := s.doRequest(ctx, reqURL)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("request failed, retrying",
			"imdb_id", imdbID,
			"backoff", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, s.backoffPolicy(ctx), notify); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", imdbID, err)
	}

	if resp.Response == "False" {
		reason := resp.Error
		if reason == "" {
			reason = "unknown error"
		}
		return nil, &domain.ValidationError{Reason: "title not found: " + reason}
	}

	s.logger.Debug("fetched record", "imdb_id", imdbID, "type", resp.Type)
	return &resp.Record, nil
}

func (s *Source) lookupURL(imdbID string) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("i", imdbID)
	q.Set("apikey", s.apiKey)
	q.Set("plot", "full")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Source) doRequest(ctx context.Context, reqURL string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "TitleIngester/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}

	return &apiResp, nil
}

func (s *Source) backoffPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff
	b.MaxInterval = s.maxBackoff
	b.MaxElapsedTime = 0

	retries := s.maxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}
