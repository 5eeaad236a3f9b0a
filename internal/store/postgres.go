package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/komps-labs/komps/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	request    JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	actor_id   TEXT NOT NULL,
	actor_name TEXT,
	address    TEXT NOT NULL,
	payload    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_actor ON events(actor_id);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, req model.Request) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal request")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, request, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, reqJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Request:   req,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, request, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	run, err := scanPGRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, request, status, result, created_at, updated_at FROM runs`
	var args []any

	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPGRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) SaveEvent(ctx context.Context, event model.Event) (string, error) {
	id := event.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var payloadJSON []byte
	if event.Payload != nil {
		var err error
		payloadJSON, err = json.Marshal(event.Payload)
		if err != nil {
			return "", eris.Wrap(err, "postgres: marshal event payload")
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, event_type, actor_id, actor_name, address, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, event.Type, event.ActorID, event.ActorName, event.Address, payloadJSON, ts,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert event")
	}
	return id, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, event_type, actor_id, actor_name, address, payload, created_at FROM events WHERE 1=1`
	var args []any

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(` AND event_type = $%d`, len(args))
	}
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		query += fmt.Sprintf(` AND actor_id = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e           model.Event
			actorName   *string
			payloadJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.ActorID, &actorName, &e.Address, &payloadJSON, &e.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		if actorName != nil {
			e.ActorName = *actorName
		}
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal event payload %s", e.ID)
			}
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "postgres: iterate events")
}

func (s *PostgresStore) EventStats(ctx context.Context) (*model.EventStats, error) {
	stats := &model.EventStats{
		ByType:  make(map[string]int),
		ByActor: make(map[string]int),
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&stats.Total); err != nil {
		return nil, eris.Wrap(err, "postgres: count events")
	}

	rows, err := s.pool.Query(ctx, `SELECT event_type, COUNT(*) FROM events GROUP BY event_type`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by type")
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan type count")
		}
		stats.ByType[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate type counts")
	}

	actorRows, err := s.pool.Query(ctx, `SELECT actor_id, COUNT(*) FROM events GROUP BY actor_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by actor")
	}
	defer actorRows.Close()
	for actorRows.Next() {
		var actor string
		var n int
		if err := actorRows.Scan(&actor, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan actor count")
		}
		stats.ByActor[actor] = n
	}
	if err := actorRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate actor counts")
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE created_at >= now() - interval '24 hours'`,
	).Scan(&stats.Recent24h)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count recent events")
	}

	return stats, nil
}

func scanPGRun(row pgx.Row) (*model.Run, error) {
	var (
		run        model.Run
		reqJSON    []byte
		status     string
		resultJSON []byte
	)
	if err := row.Scan(&run.ID, &reqJSON, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrap(err, "run not found")
		}
		return nil, err
	}
	if err := json.Unmarshal(reqJSON, &run.Request); err != nil {
		return nil, eris.Wrapf(err, "unmarshal request for run %s", run.ID)
	}
	run.Status = model.RunStatus(status)
	if len(resultJSON) > 0 {
		run.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, run.Result); err != nil {
			return nil, eris.Wrapf(err, "unmarshal result for run %s", run.ID)
		}
	}
	return &run, nil
}
