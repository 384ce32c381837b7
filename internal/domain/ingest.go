package domain

import "time"

// IngestStats holds statistics about a batch of ingestions.
type IngestStats struct {
	Requested int
	Created   int
	Conflicts int
	Invalid   int
	Failed    int
	Published int
	Duration  time.Duration
}

// TitleIngested is announced after an ingestion commits.
type TitleIngested struct {
	EventID   string    `json:"event_id"`
	TitleID   int64     `json:"title_id"`
	IMDBID    string    `json:"imdb_id"`
	Name      string    `json:"title"`
	Type      TitleType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
