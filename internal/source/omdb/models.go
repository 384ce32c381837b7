package omdb

import "title_ingester/internal/domain"

// APIResponse is a title lookup as returned by OMDb. Failed lookups come
// back with status 200, Response "False" and an Error message.
type APIResponse struct {
	domain.Record
	Response string `json:"Response"`
	Error    string `json:"Error"`
}
