package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"formbase/internal/filter"
	"formbase/internal/storage"
	"formbase/pkg/model"
)

// Store is the Postgres-backed response store. Responses live in a
// single table with the answers in a JSONB column; every operator is
// expressed in SQL via guarded casts, so this backend never needs the
// memory fallback.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and verifies the connection.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Kind() storage.Kind {
	return storage.KindRelational
}

// EnsureSchema creates the responses table and indexes if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS responses (
    id           VARCHAR(64) PRIMARY KEY,
    form_id      VARCHAR(64) NOT NULL,
    data         JSONB NOT NULL DEFAULT '{}'::jsonb,
    submitted_at BIGINT NOT NULL,
    updated_at   BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_form ON responses(form_id);
CREATE INDEX IF NOT EXISTS idx_responses_form_submitted ON responses(form_id, submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_responses_data ON responses USING GIN (data);
`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// List compiles the filters into WHERE conditions and executes one page
// query plus one count query over the same conditions. The two queries
// have no data dependency and run concurrently.
func (s *Store) List(ctx context.Context, q storage.ListQuery) ([]*model.Response, int64, error) {
	conds, params, err := Compile(q.Filters, 2)
	if err != nil {
		return nil, 0, err
	}

	where := "form_id = $1"
	for _, cond := range conds {
		where += " AND " + cond
	}
	args := append([]interface{}{q.FormID}, params...)

	next := len(args) + 1
	listQuery := fmt.Sprintf(`
		SELECT id, form_id, data, submitted_at, updated_at
		FROM responses
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, where, sortExpr(q.SortBy), sortDir(q.SortOrder), next, next+1)
	listArgs := append(append([]interface{}{}, args...), q.Limit, q.Offset)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM responses WHERE %s`, where)

	type countResult struct {
		total int64
		err   error
	}
	countCh := make(chan countResult, 1)
	go func() {
		var total int64
		err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
		countCh <- countResult{total, err}
	}()

	rows, err := s.pool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var responses []*model.Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, 0, err
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	count := <-countCh
	if count.err != nil {
		return nil, 0, count.err
	}

	return responses, count.total, nil
}

func (s *Store) Create(ctx context.Context, resp *model.Response) error {
	data, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO responses (id, form_id, data, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, resp.ID, resp.FormID, data, resp.SubmittedAt, resp.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, formID, id string) (*model.Response, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, form_id, data, submitted_at, updated_at
		FROM responses
		WHERE id = $1 AND form_id = $2
	`, id, formID)

	resp, err := scanResponse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return resp, nil
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func scanResponse(row pgx.Row) (*model.Response, error) {
	var resp model.Response
	var data []byte

	if err := row.Scan(&resp.ID, &resp.FormID, &data, &resp.SubmittedAt, &resp.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &resp.Data); err != nil {
		return nil, err
	}
	return &resp, nil
}

// sortExpr renders the ORDER BY expression. Dynamic "data.<fieldId>"
// references sort on the extracted text value, which compares raw
// strings even for numeric fields.
func sortExpr(sortBy string) string {
	if fieldID, ok := strings.CutPrefix(sortBy, "data."); ok {
		if safe, err := filter.EnsureSafeFieldID(fieldID); err == nil {
			return fmt.Sprintf("data->>'%s'", safe)
		}
		return "submitted_at"
	}

	switch sortBy {
	case "updatedAt":
		return "updated_at"
	case "id":
		return "id"
	default:
		return "submitted_at"
	}
}

func sortDir(order string) string {
	if order == "asc" {
		return "ASC"
	}
	return "DESC"
}
