package service

import (
	"strconv"
	"strings"

	"title_ingester/internal/domain"
)

// MapTitle converts a provider record into a title row. Unrecognized type
// values map to series unless strictType is set, in which case they are
// rejected.
func MapTitle(record *domain.Record, strictType bool) (*domain.Title, error) {
	if record == nil {
		return nil, &domain.ValidationError{Reason: "record is empty"}
	}

	var missing []string
	required := []struct {
		field string
		value string
	}{
		{"Title", record.Title},
		{"imdbID", record.IMDBID},
		{"Type", record.Type},
		{"Year", record.Year},
	}
	for _, r := range required {
		if isAbsent(r.value, []string{domain.NotAvailable}) {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Fields: missing, Reason: "missing required fields"}
	}

	titleType, ok := parseTitleType(record.Type)
	if !ok {
		if strictType {
			return nil, &domain.ValidationError{
				Fields: []string{"Type"},
				Reason: "unrecognized title type " + strconv.Quote(record.Type),
			}
		}
		titleType = domain.TitleTypeSeries
	}

	title := &domain.Title{
		Name:       strings.TrimSpace(record.Title),
		PosterURL:  Optional(record.Poster, domain.NotAvailable),
		Rated:      Optional(record.Rated, domain.NotAvailable),
		Released:   Optional(record.Released, domain.NotAvailable),
		Runtime:    Optional(record.Runtime, domain.NotAvailable),
		Plot:       Optional(record.Plot, domain.NotAvailable),
		Awards:     Optional(record.Awards, domain.NotAvailable),
		Metascore:  Optional(record.Metascore, domain.NotAvailable),
		IMDBRating: Optional(record.IMDBRating, domain.NotAvailable),
		IMDBVotes:  Optional(record.IMDBVotes, domain.NotAvailable),
		Type:       titleType,
		IMDBID:     strings.TrimSpace(record.IMDBID),
		Year:       strings.TrimSpace(record.Year),
		BoxOffice:  Optional(record.BoxOffice, domain.NotAvailable),
		Website:    Optional(record.Website, domain.NotAvailable),
		Production: Optional(record.Production, domain.NotAvailable),
	}

	// Only an explicit series carries a season count, not a defaulted one.
	if strings.EqualFold(strings.TrimSpace(record.Type), string(domain.TitleTypeSeries)) {
		title.TotalSeasons = parseSeasons(record.TotalSeasons)
	}

	return title, nil
}

func parseTitleType(raw string) (domain.TitleType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(domain.TitleTypeMovie):
		return domain.TitleTypeMovie, true
	case string(domain.TitleTypeSeries):
		return domain.TitleTypeSeries, true
	}
	return "", false
}

func parseSeasons(raw string) *int {
	v := Optional(raw, domain.NotAvailable)
	if v == nil {
		return nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
