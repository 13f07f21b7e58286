package database

import (
	"context"
	"database/sql"
	"dm-scheduler/model"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const scheduleColumns = `id, user_id, message, attachment_url, run_at, status, created_at`

// ScheduleStore persists schedules in a single table on SQLite or PostgreSQL.
type ScheduleStore struct {
	db *sqlx.DB
}

// NewScheduleStore wraps an already migrated connection.
func NewScheduleStore(db *sqlx.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Open connects to databaseURL, bounds the pool to maxConns and applies migrations.
// postgres:// and postgresql:// URLs use lib/pq; anything else is treated as a SQLite path.
func Open(ctx context.Context, databaseURL string, maxConns int) (*ScheduleStore, error) {
	driver, dsn := ParseDatabaseURL(databaseURL)
	if driver == "sqlite3" {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schedules table: %w", err)
	}
	return NewScheduleStore(db), nil
}

// ParseDatabaseURL maps a connection string onto a registered driver name and its DSN.
func ParseDatabaseURL(raw string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "postgres", raw
	case strings.HasPrefix(raw, "sqlite3://"):
		raw = strings.TrimPrefix(raw, "sqlite3://")
	case strings.HasPrefix(raw, "sqlite://"):
		raw = strings.TrimPrefix(raw, "sqlite://")
	}
	return "sqlite3", withSQLiteParams(raw)
}

func withSQLiteParams(path string) string {
	params := "_busy_timeout=5000&_foreign_keys=on"
	if !strings.Contains(path, ":memory:") && !strings.Contains(path, "mode=memory") {
		params += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

func ensureSQLiteDir(dsn string) error {
	path := strings.SplitN(dsn, "?", 2)[0]
	if strings.HasPrefix(path, "file:") || strings.Contains(path, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// dbTime normalises instants so SQLite text comparison orders them correctly.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func normalize(s *model.Schedule) {
	s.RunAt = s.RunAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
}

// Ping checks that the database is reachable.
func (s *ScheduleStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &model.StorageError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the connection pool.
func (s *ScheduleStore) Close() error {
	return s.db.Close()
}

// Create inserts a pending schedule and returns its id. Empty message or
// attachmentURL are stored as NULL.
func (s *ScheduleStore) Create(ctx context.Context, userID string, runAt time.Time, message, attachmentURL string) (int64, error) {
	query := s.db.Rebind(`INSERT INTO schedules (user_id, message, attachment_url, run_at, status)
              VALUES (?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := s.db.QueryRowxContext(ctx, query,
		userID, nullString(message), nullString(attachmentURL), dbTime(runAt), string(model.StatusPending),
	).Scan(&id)
	if err != nil {
		return 0, &model.StorageError{Op: "create schedule", Err: err}
	}
	return id, nil
}

// FetchDue returns up to limit pending schedules whose run_at is at or before now, earliest first.
func (s *ScheduleStore) FetchDue(ctx context.Context, now time.Time, limit int) ([]model.Schedule, error) {
	query := s.db.Rebind(`SELECT ` + scheduleColumns + ` FROM schedules
              WHERE status = ? AND run_at <= ?
              ORDER BY run_at ASC, id ASC
              LIMIT ?`)

	var schedules []model.Schedule
	if err := s.db.SelectContext(ctx, &schedules, query, string(model.StatusPending), dbTime(now), limit); err != nil {
		return nil, &model.StorageError{Op: "fetch due schedules", Err: err}
	}
	for i := range schedules {
		normalize(&schedules[i])
	}
	return schedules, nil
}

// Claim moves a schedule from pending to sending. It returns false when the
// schedule was no longer pending, e.g. because it was canceled meanwhile.
func (s *ScheduleStore) Claim(ctx context.Context, id int64) (bool, error) {
	return s.transition(ctx, "claim schedule", id, model.StatusPending, model.StatusSending)
}

// Cancel moves a schedule from pending to canceled. It returns false when the
// schedule was not pending at commit time.
func (s *ScheduleStore) Cancel(ctx context.Context, id int64) (bool, error) {
	return s.transition(ctx, "cancel schedule", id, model.StatusPending, model.StatusCanceled)
}

func (s *ScheduleStore) transition(ctx context.Context, op string, id int64, from, to model.ScheduleStatus) (bool, error) {
	query := s.db.Rebind(`UPDATE schedules SET status = ? WHERE id = ? AND status = ?`)
	result, err := s.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return false, &model.StorageError{Op: op, Err: err}
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, &model.StorageError{Op: op, Err: fmt.Errorf("failed to check rows affected for schedule %d: %w", id, err)}
	}
	return rowsAffected == 1, nil
}

// UpdateStatus sets the status unconditionally. Used by the dispatcher to record the delivery outcome.
func (s *ScheduleStore) UpdateStatus(ctx context.Context, id int64, status model.ScheduleStatus) error {
	query := s.db.Rebind(`UPDATE schedules SET status = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, string(status), id); err != nil {
		return &model.StorageError{Op: "update schedule status", Err: err}
	}
	return nil
}

// FailInterrupted marks deliveries left in flight by a previous process as failed.
func (s *ScheduleStore) FailInterrupted(ctx context.Context) (int64, error) {
	query := s.db.Rebind(`UPDATE schedules SET status = ? WHERE status = ?`)
	result, err := s.db.ExecContext(ctx, query, string(model.StatusFailed), string(model.StatusSending))
	if err != nil {
		return 0, &model.StorageError{Op: "fail interrupted schedules", Err: err}
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, &model.StorageError{Op: "fail interrupted schedules", Err: err}
	}
	return n, nil
}

// List returns every schedule ordered by run_at.
func (s *ScheduleStore) List(ctx context.Context) ([]model.Schedule, error) {
	var schedules []model.Schedule
	query := `SELECT ` + scheduleColumns + ` FROM schedules ORDER BY run_at ASC, id ASC`
	if err := s.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, &model.StorageError{Op: "list schedules", Err: err}
	}
	for i := range schedules {
		normalize(&schedules[i])
	}
	return schedules, nil
}

// Get returns the schedule with id, or nil without error when there is none.
func (s *ScheduleStore) Get(ctx context.Context, id int64) (*model.Schedule, error) {
	var sc model.Schedule
	query := s.db.Rebind(`SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?`)
	if err := s.db.GetContext(ctx, &sc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &model.StorageError{Op: "get schedule", Err: err}
	}
	normalize(&sc)
	return &sc, nil
}

// NextPending returns the earliest pending schedule, or nil when the queue is empty.
func (s *ScheduleStore) NextPending(ctx context.Context) (*model.Schedule, error) {
	var sc model.Schedule
	query := s.db.Rebind(`SELECT ` + scheduleColumns + ` FROM schedules
              WHERE status = ? ORDER BY run_at ASC, id ASC LIMIT 1`)
	if err := s.db.GetContext(ctx, &sc, query, string(model.StatusPending)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &model.StorageError{Op: "next pending schedule", Err: err}
	}
	normalize(&sc)
	return &sc, nil
}

// CountByStatus returns how many schedules are in each status.
func (s *ScheduleStore) CountByStatus(ctx context.Context) (map[model.ScheduleStatus]int, error) {
	var rows []struct {
		Status model.ScheduleStatus `db:"status"`
		Count  int                  `db:"n"`
	}
	query := `SELECT status, COUNT(*) AS n FROM schedules GROUP BY status`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, &model.StorageError{Op: "count schedules", Err: err}
	}
	counts := make(map[model.ScheduleStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
