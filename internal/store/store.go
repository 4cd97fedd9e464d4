package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Skufu/symptom-checker/internal/suggestion"
)

// SymptomQuery is one persisted input/output pair.
type SymptomQuery struct {
	ID            int64                           `json:"id"`
	SymptomsInput string                          `json:"symptoms_input"`
	LLMResponse   suggestion.DiagnosticSuggestion `json:"llm_response"`
	CreatedAt     time.Time                       `json:"created_at"`
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS symptom_queries (
		id             SERIAL PRIMARY KEY,
		symptoms_input TEXT        NOT NULL,
		llm_response   JSONB       NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS symptom_queries_created_at_idx ON symptom_queries (created_at DESC)`,
}

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to postgres and verifies the connection with a ping.
func Open(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse db url")
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping db")
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// withConn hands fn a pooled connection and always releases it.
func (s *Store) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	defer conn.Release()
	return fn(conn)
}

// EnsureSchema is idempotent and safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		for _, stmt := range schema {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return errors.Wrap(err, "ensure schema")
			}
		}
		return nil
	})
}

func (s *Store) Insert(ctx context.Context, symptoms string, resp suggestion.DiagnosticSuggestion) (SymptomQuery, error) {
	q := SymptomQuery{SymptomsInput: symptoms, LLMResponse: resp}
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx,
			`INSERT INTO symptom_queries (symptoms_input, llm_response) VALUES ($1, $2) RETURNING id, created_at`,
			symptoms, resp,
		).Scan(&q.ID, &q.CreatedAt)
	})
	if err != nil {
		return SymptomQuery{}, errors.Wrap(err, "insert symptom query")
	}
	return q, nil
}

// ListRecent returns at most limit rows, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]SymptomQuery, error) {
	var out []SymptomQuery
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT id, symptoms_input, llm_response, created_at FROM symptom_queries ORDER BY id DESC LIMIT $1`,
			limit,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (SymptomQuery, error) {
			var q SymptomQuery
			err := row.Scan(&q.ID, &q.SymptomsInput, &q.LLMResponse, &q.CreatedAt)
			return q, err
		})
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list symptom queries")
	}
	if out == nil {
		out = []SymptomQuery{}
	}
	return out, nil
}
