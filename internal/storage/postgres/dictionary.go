package postgres

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// dictionaryTable identifies a name-keyed dictionary and the join table that
// links it to titles.
type dictionaryTable struct {
	name       string
	linkTable  string
	linkColumn string
}

var (
	genresTable        = dictionaryTable{name: "genres", linkTable: "title_genres", linkColumn: "genre_id"}
	languagesTable     = dictionaryTable{name: "languages", linkTable: "title_languages", linkColumn: "language_id"}
	countriesTable     = dictionaryTable{name: "countries", linkTable: "title_countries", linkColumn: "country_id"}
	peopleTable        = dictionaryTable{name: "people", linkTable: "title_people", linkColumn: "person_id"}
	ratingSourcesTable = dictionaryTable{name: "rating_sources", linkTable: "title_ratings", linkColumn: "source_id"}
)

type dictionaryEntry struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type dictionary struct {
	db    *sqlx.DB
	table dictionaryTable
}

// Resolve returns the id of every name, creating the names that do not exist
// yet. Concurrent callers inserting the same name converge on one row.
func (d *dictionary) Resolve(ctx context.Context, names []string) (map[string]int64, error) {
	names = uniqueNames(names)
	if len(names) == 0 {
		return map[string]int64{}, nil
	}

	exec := GetExecutor(ctx, d.db)

	ids, err := d.findByNames(ctx, exec, names)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", d.table.name, err)
	}

	var missing []string
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return ids, nil
	}

	if err := d.insertMissing(ctx, exec, missing); err != nil {
		return nil, fmt.Errorf("insert %s: %w", d.table.name, err)
	}

	ids, err = d.findByNames(ctx, exec, names)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", d.table.name, err)
	}
	if len(ids) != len(names) {
		return nil, fmt.Errorf("resolve %s: %d of %d names unresolved", d.table.name, len(names)-len(ids), len(names))
	}
	return ids, nil
}

func (d *dictionary) findByNames(ctx context.Context, exec Executor, names []string) (map[string]int64, error) {
	query := "SELECT id, name FROM " + d.table.name + " WHERE name = ANY($1)"

	var entries []dictionaryEntry
	if err := exec.SelectContext(ctx, &entries, query, pq.Array(names)); err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(entries))
	for _, e := range entries {
		ids[e.Name] = e.ID
	}
	return ids, nil
}

// insertMissing inserts in name order so that concurrent transactions take
// row locks in the same order.
func (d *dictionary) insertMissing(ctx context.Context, exec Executor, names []string) error {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.table.name)
	sb.WriteString(" (name) VALUES ")
	sb.WriteString(placeholders(len(sorted), 1))
	sb.WriteString(" ON CONFLICT (name) DO NOTHING")

	args := make([]interface{}, len(sorted))
	for i, name := range sorted {
		args[i] = name
	}

	_, err := exec.ExecContext(ctx, sb.String(), args...)
	return err
}

// DimensionStore resolves and links one of the plain title dimensions.
type DimensionStore struct {
	dictionary
}

func NewGenreStore(db *sqlx.DB) *DimensionStore {
	return &DimensionStore{dictionary{db: db, table: genresTable}}
}

func NewLanguageStore(db *sqlx.DB) *DimensionStore {
	return &DimensionStore{dictionary{db: db, table: languagesTable}}
}

func NewCountryStore(db *sqlx.DB) *DimensionStore {
	return &DimensionStore{dictionary{db: db, table: countriesTable}}
}

func (s *DimensionStore) Link(ctx context.Context, titleID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(s.table.linkTable)
	sb.WriteString(" (title_id, ")
	sb.WriteString(s.table.linkColumn)
	sb.WriteString(") VALUES ")
	sb.WriteString(placeholders(len(ids), 2))

	args := make([]interface{}, 0, len(ids)*2)
	for _, id := range ids {
		args = append(args, titleID, id)
	}

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("link %s: %w", s.table.name, err)
	}
	return nil
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

// placeholders renders rows groups of cols positional parameters:
// placeholders(2, 2) == "($1, $2), ($3, $4)".
func placeholders(rows, cols int) string {
	var sb strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}
