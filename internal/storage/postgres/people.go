package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"title_ingester/internal/domain"
)

type PeopleStore struct {
	dictionary
}

func NewPeopleStore(db *sqlx.DB) *PeopleStore {
	return &PeopleStore{dictionary{db: db, table: peopleTable}}
}

// Link credits every person in ids with role on the title.
func (s *PeopleStore) Link(ctx context.Context, titleID int64, role domain.Role, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO title_people (title_id, person_id, role) VALUES ")
	sb.WriteString(placeholders(len(ids), 3))

	args := make([]interface{}, 0, len(ids)*3)
	for _, id := range ids {
		args = append(args, titleID, id, string(role))
	}

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("link people as %s: %w", role, err)
	}
	return nil
}

type Credit struct {
	Name string      `db:"name"`
	Role domain.Role `db:"role"`
}

func (s *PeopleStore) GetByTitleID(ctx context.Context, titleID int64) ([]Credit, error) {
	query := `
		SELECT p.name, tp.role
		FROM people p
		INNER JOIN title_people tp ON tp.person_id = p.id
		WHERE tp.title_id = $1
		ORDER BY tp.id`

	var credits []Credit
	err := GetExecutor(ctx, s.db).SelectContext(ctx, &credits, query, titleID)
	return credits, err
}
