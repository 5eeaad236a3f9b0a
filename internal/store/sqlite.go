package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/komps-labs/komps/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	request    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	actor_id   TEXT NOT NULL,
	actor_name TEXT,
	address    TEXT NOT NULL,
	payload    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_actor ON events(actor_id);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, req model.Request) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal request")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, request, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(reqJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Request:   req,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, request, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) SaveEvent(ctx context.Context, event model.Event) (string, error) {
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
			return "", eris.Wrap(err, "sqlite: marshal event payload")
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, event_type, actor_id, actor_name, address, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, event.Type, event.ActorID, event.ActorName, event.Address, string(payloadJSON), ts,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert event")
	}
	return id, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, event_type, actor_id, actor_name, address, payload, created_at FROM events WHERE 1=1`
	var args []any

	if filter.Type != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.Type)
	}
	if filter.ActorID != "" {
		query += ` AND actor_id = ?`
		args = append(args, filter.ActorID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e           model.Event
			actorName   sql.NullString
			payloadJSON sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.ActorID, &actorName, &e.Address, &payloadJSON, &e.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		e.ActorName = actorName.String
		if payloadJSON.Valid && payloadJSON.String != "" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &e.Payload); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal event payload %s", e.ID)
			}
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: iterate events")
}

func (s *SQLiteStore) EventStats(ctx context.Context) (*model.EventStats, error) {
	stats := &model.EventStats{
		ByType:  make(map[string]int),
		ByActor: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&stats.Total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count events")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT event_type, COUNT(*) FROM events GROUP BY event_type`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by type")
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan type count")
		}
		stats.ByType[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate type counts")
	}

	actorRows, err := s.db.QueryContext(ctx, `SELECT actor_id, COUNT(*) FROM events GROUP BY actor_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by actor")
	}
	defer actorRows.Close()
	for actorRows.Next() {
		var actor string
		var n int
		if err := actorRows.Scan(&actor, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan actor count")
		}
		stats.ByActor[actor] = n
	}
	if err := actorRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate actor counts")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE datetime(created_at) >= datetime('now', '-1 day')`,
	).Scan(&stats.Recent24h)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count recent events")
	}

	return stats, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		run        model.Run
		reqJSON    string
		status     string
		resultJSON sql.NullString
	)
	if err := row.Scan(&run.ID, &reqJSON, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(err, "sqlite: run not found")
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := json.Unmarshal([]byte(reqJSON), &run.Request); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal request for run %s", run.ID)
	}
	run.Status = model.RunStatus(status)
	if resultJSON.Valid && resultJSON.String != "" {
		run.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), run.Result); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal result for run %s", run.ID)
		}
	}
	return &run, nil
}
