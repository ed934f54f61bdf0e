package facts

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/factfeed/internal/dbx"
	domain "github.com/dmitrijs2005/factfeed/internal/facts"
)

const columns = `id, text, source, category, "votesInteresting", "votesMindblowing", "votesFalse", user_id, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, q Query) ([]domain.Fact, error) {
	var (
		where []string
		args  []any
	)
	if q.ID != nil {
		args = append(args, *q.ID)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if q.Category != "" {
		args = append(args, string(q.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = OrderByID
	}
	if !ValidOrderColumn(orderBy) {
		return nil, fmt.Errorf("unknown order column %q", orderBy)
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}

	var b strings.Builder
	b.WriteString("SELECT " + columns + " FROM facts")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, ` ORDER BY "%s" %s, id ASC`, orderBy, dir)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanFacts(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, nf domain.NewFact) (domain.Fact, error) {
	query :=
		`INSERT INTO facts (text, source, category, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + columns

	var author any
	if nf.AuthorID != "" {
		author = nf.AuthorID
	}

	rows, err := r.db.QueryContext(ctx, query, nf.Text, nf.Source, string(nf.Category), author)
	if err != nil {
		return domain.Fact{}, fmt.Errorf("db error: %w", err)
	}
	list, err := scanFacts(rows)
	if err != nil {
		return domain.Fact{}, err
	}
	if len(list) != 1 {
		return domain.Fact{}, fmt.Errorf("db error: insert returned %d rows", len(list))
	}
	return list[0], nil
}

func (r *PostgresRepository) UpdateVotes(ctx context.Context, id int64, votes map[domain.VoteColumn]int) ([]domain.Fact, error) {
	if len(votes) == 0 {
		return nil, fmt.Errorf("no columns to update")
	}

	cols := make([]string, 0, len(votes))
	for c := range votes {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownColumn, c)
		}
		cols = append(cols, string(c))
	}
	sort.Strings(cols)

	set := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		args = append(args, votes[domain.VoteColumn(c)])
		set[i] = fmt.Sprintf(`"%s" = $%d`, c, len(args))
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE facts SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), columns)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanFacts(rows)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) ([]domain.Fact, error) {
	query := `DELETE FROM facts WHERE id = $1 RETURNING ` + columns

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanFacts(rows)
}

func scanFacts(rows *sql.Rows) ([]domain.Fact, error) {
	defer rows.Close()

	list := make([]domain.Fact, 0)
	for rows.Next() {
		var (
			f        domain.Fact
			category string
			author   sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Text, &f.Source, &category,
			&f.VotesInteresting, &f.VotesMindblowing, &f.VotesFalse, &author, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		f.Category = domain.Category(category)
		f.AuthorID = author.String
		list = append(list, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}
