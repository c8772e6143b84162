package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"github.com/google/uuid"
	"github.com/safedep/safeguard/core/security"

	_ "modernc.org/sqlite"
)

var runColumns = []string{
	"id", "session_id", "operation", "check_kind", "started_at", "finished_at",
	"passed", "terminated", "aborted", "message",
}

var violationColumns = []string{
	"id", "run_id", "sequence", "check_kind", "title", "message", "level",
	"raw_severity", "report_severity", "fault", "continued",
}

var selfAuditColumns = []string{
	"id", "timestamp", "action", "check_kind", "details", "result", "error_message", "tool_version",
}

// SQLiteStore implements Store using SQLite. Queries are built with ent's
// SQL dialect builder and the schema is managed by ent's migration engine.
type SQLiteStore struct {
	db   *sql.DB
	drv  *entsql.Driver
	path string
}

// NewSQLiteStore creates a new SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Use _pragma=foreign_keys(1) for modernc.org/sqlite
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		drv:  entsql.OpenDB(dialect.SQLite, db),
		path: path,
	}, nil
}

// Init initializes the database schema.
func (s *SQLiteStore) Init(ctx context.Context) error {
	migrate, err := schema.NewMigrate(s.drv)
	if err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	if err := migrate.Create(ctx, tables...); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.drv.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// RecordRun converts and persists a finished orchestration run.
func (s *SQLiteStore) RecordRun(ctx context.Context, sessionID uuid.UUID, run *security.Run) error {
	return s.SaveRun(ctx, NewRunRecord(sessionID, run))
}

// SaveRun persists a run and its violations atomically.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args := s.builder().Insert(tableCheckRuns).
		Columns(runColumns...).
		Values(
			run.ID.String(),
			run.SessionID.String(),
			run.Operation,
			nullString(run.CheckKind),
			run.StartedAt.UTC(),
			run.FinishedAt.UTC(),
			run.Passed,
			run.Terminated,
			run.Aborted,
			nullString(run.Message),
		).Query()

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, v := range run.Violations {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		v.RunID = run.ID

		query, args := s.builder().Insert(tableViolations).
			Columns(violationColumns...).
			Values(
				v.ID.String(),
				v.RunID.String(),
				v.Sequence,
				v.CheckKind,
				v.Title,
				v.Message,
				v.Level,
				v.RawSeverity,
				nullString(v.ReportSeverity),
				v.Fault,
				v.Continued,
			).Query()

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to save violation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID, including its violations.
func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	return s.getRun(ctx, entsql.EQ("id", id.String()))
}

// GetRunByPrefix retrieves a run by ID prefix, including its violations.
func (s *SQLiteStore) GetRunByPrefix(ctx context.Context, prefix string) (*RunRecord, error) {
	return s.getRun(ctx, entsql.HasPrefix("id", prefix))
}

func (s *SQLiteStore) getRun(ctx context.Context, p *entsql.Predicate) (*RunRecord, error) {
	query, args := s.builder().Select(runColumns...).
		From(s.builder().Table(tableCheckRuns)).
		Where(p).
		OrderBy(entsql.Desc("started_at")).
		Limit(1).
		Query()

	runs, err := s.queryRuns(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}

	run := runs[0]
	run.Violations, err = s.runViolations(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.ViolationCount = len(run.Violations)

	return run, nil
}

// QueryRuns retrieves runs matching the given filter, newest first.
func (s *SQLiteStore) QueryRuns(ctx context.Context, filter *RunFilter) ([]*RunRecord, error) {
	t := s.builder().Table(tableCheckRuns)
	selector := s.builder().Select(runColumns...).From(t)

	s.applyRunFilter(selector, t, filter)
	selector.OrderBy(entsql.Desc("started_at"))

	if filter != nil && filter.Limit > 0 {
		selector.Limit(filter.Limit)
	}
	if filter != nil && filter.Offset > 0 {
		selector.Offset(filter.Offset)
	}

	query, args := selector.Query()
	runs, err := s.queryRuns(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	if err := s.fillViolationCounts(ctx, runs); err != nil {
		return nil, err
	}

	return runs, nil
}

// CountRuns returns the count of runs matching the given filter.
func (s *SQLiteStore) CountRuns(ctx context.Context, filter *RunFilter) (int, error) {
	t := s.builder().Table(tableCheckRuns)
	selector := s.builder().Select(entsql.Count("*")).From(t)

	s.applyRunFilter(selector, t, filter)

	query, args := selector.Query()
	count, err := s.count(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}

	return count, nil
}

// DeleteRunsBefore deletes runs started before the given time. Violations
// are removed by the foreign key cascade.
func (s *SQLiteStore) DeleteRunsBefore(ctx context.Context, before time.Time) (int, error) {
	query, args := s.builder().Delete(tableCheckRuns).
		Where(entsql.LT("started_at", before.UTC())).
		Query()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}

	return int(deleted), nil
}

// CountRunsBefore returns the count of runs started before the given time.
func (s *SQLiteStore) CountRunsBefore(ctx context.Context, before time.Time) (int, error) {
	return s.CountRuns(ctx, &RunFilter{Until: &before})
}

// SaveSelfAudit persists a self-audit entry.
func (s *SQLiteStore) SaveSelfAudit(ctx context.Context, entry *SelfAuditEntry) error {
	var details any
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal self-audit details: %w", err)
		}
		details = string(data)
	}

	result := entry.Result
	if result == "" {
		result = "success"
	}

	query, args := s.builder().Insert(tableSelfAudits).
		Columns(selfAuditColumns...).
		Values(
			entry.ID.String(),
			entry.Timestamp.UTC(),
			entry.Action,
			nullString(entry.CheckKind),
			details,
			result,
			nullString(entry.ErrorMessage),
			entry.ToolVersion,
		).Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save self-audit: %w", err)
	}

	return nil
}

// QuerySelfAudits retrieves self-audit entries matching the filter.
func (s *SQLiteStore) QuerySelfAudits(ctx context.Context, filter *SelfAuditFilter) ([]*SelfAuditEntry, error) {
	selector := s.builder().Select(selfAuditColumns...).
		From(s.builder().Table(tableSelfAudits))

	if filter != nil {
		if filter.Since != nil {
			selector.Where(entsql.GTE("timestamp", filter.Since.UTC()))
		}
		if filter.Action != "" {
			selector.Where(entsql.EQ("action", filter.Action))
		}
	}

	// Newest first
	selector.OrderBy(entsql.Desc("timestamp"))

	if filter != nil && filter.Limit > 0 {
		selector.Limit(filter.Limit)
	}

	query, args := selector.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query self-audits: %w", err)
	}
	defer rows.Close()

	var result []*SelfAuditEntry
	for rows.Next() {
		var (
			id, action, res, toolVersion string
			kind, details, errMsg        sql.NullString
			entry                        SelfAuditEntry
		)

		if err := rows.Scan(&id, &entry.Timestamp, &action, &kind, &details, &res, &errMsg, &toolVersion); err != nil {
			return nil, fmt.Errorf("failed to scan self-audit: %w", err)
		}

		entry.ID, _ = uuid.Parse(id)
		entry.Action = action
		entry.CheckKind = kind.String
		entry.Result = res
		entry.ErrorMessage = errMsg.String
		entry.ToolVersion = toolVersion

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to decode self-audit details: %w", err)
			}
		}

		result = append(result, &entry)
	}

	return result, rows.Err()
}

// GetDatabaseInfo returns information about the database.
func (s *SQLiteStore) GetDatabaseInfo(ctx context.Context) (*DatabaseInfo, error) {
	info := &DatabaseInfo{
		Path: s.path,
	}

	if stat, err := os.Stat(s.path); err == nil {
		info.SizeBytes = stat.Size()
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{tableCheckRuns, &info.RunCount},
		{tableViolations, &info.ViolationCount},
		{tableSelfAudits, &info.SelfAuditCount},
	}

	for _, c := range counts {
		query, args := s.builder().Select(entsql.Count("*")).From(s.builder().Table(c.table)).Query()
		n, err := s.count(ctx, query, args)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
		*c.dst = n
	}

	oldest, err := s.boundaryRun(ctx, false)
	if err != nil {
		return nil, err
	}
	if oldest != nil {
		info.OldestRun = oldest.StartedAt
	}

	newest, err := s.boundaryRun(ctx, true)
	if err != nil {
		return nil, err
	}
	if newest != nil {
		info.NewestRun = newest.StartedAt
	}

	return info, nil
}

func (s *SQLiteStore) boundaryRun(ctx context.Context, newest bool) (*RunRecord, error) {
	order := entsql.Asc("started_at")
	if newest {
		order = entsql.Desc("started_at")
	}

	query, args := s.builder().Select(runColumns...).
		From(s.builder().Table(tableCheckRuns)).
		OrderBy(order).
		Limit(1).
		Query()

	runs, err := s.queryRuns(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

func (s *SQLiteStore) runViolations(ctx context.Context, runID uuid.UUID) ([]*ViolationRecord, error) {
	query, args := s.builder().Select(violationColumns...).
		From(s.builder().Table(tableViolations)).
		Where(entsql.EQ("run_id", runID.String())).
		OrderBy("sequence").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	var result []*ViolationRecord
	for rows.Next() {
		var (
			id, runIDStr   string
			reportSeverity sql.NullString
			v              ViolationRecord
		)

		if err := rows.Scan(&id, &runIDStr, &v.Sequence, &v.CheckKind, &v.Title, &v.Message,
			&v.Level, &v.RawSeverity, &reportSeverity, &v.Fault, &v.Continued); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}

		v.ID, _ = uuid.Parse(id)
		v.RunID, _ = uuid.Parse(runIDStr)
		v.ReportSeverity = reportSeverity.String

		result = append(result, &v)
	}

	return result, rows.Err()
}

func (s *SQLiteStore) fillViolationCounts(ctx context.Context, runs []*RunRecord) error {
	if len(runs) == 0 {
		return nil
	}

	ids := make([]any, len(runs))
	byID := make(map[string]*RunRecord, len(runs))
	for i, r := range runs {
		ids[i] = r.ID.String()
		byID[r.ID.String()] = r
	}

	query, args := s.builder().Select("run_id", entsql.Count("*")).
		From(s.builder().Table(tableViolations)).
		Where(entsql.In("run_id", ids...)).
		GroupBy("run_id").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to count violations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			runID string
			n     int
		)
		if err := rows.Scan(&runID, &n); err != nil {
			return fmt.Errorf("failed to scan violation count: %w", err)
		}
		if r, ok := byID[runID]; ok {
			r.ViolationCount = n
		}
	}

	return rows.Err()
}

func (s *SQLiteStore) queryRuns(ctx context.Context, query string, args []any) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*RunRecord
	for rows.Next() {
		var (
			id, sessionID string
			kind, message sql.NullString
			r             RunRecord
		)

		if err := rows.Scan(&id, &sessionID, &r.Operation, &kind, &r.StartedAt, &r.FinishedAt,
			&r.Passed, &r.Terminated, &r.Aborted, &message); err != nil {
			return nil, err
		}

		r.ID, _ = uuid.Parse(id)
		r.SessionID, _ = uuid.Parse(sessionID)
		r.CheckKind = kind.String
		r.Message = message.String

		result = append(result, &r)
	}

	return result, rows.Err()
}

func (s *SQLiteStore) count(ctx context.Context, query string, args []any) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// applyRunFilter adds the filter predicates to selector, which reads from runs.
// A kind matches a single check of that kind or any run that recorded a
// violation of it.
func (s *SQLiteStore) applyRunFilter(selector *entsql.Selector, runs *entsql.SelectTable, filter *RunFilter) {
	if filter == nil {
		return
	}

	if filter.Since != nil {
		selector.Where(entsql.GTE("started_at", filter.Since.UTC()))
	}
	if filter.Until != nil {
		selector.Where(entsql.LT("started_at", filter.Until.UTC()))
	}
	if filter.CheckKind != "" {
		violations := s.builder().Table(tableViolations)
		selector.Where(entsql.Or(
			entsql.EQ(runs.C("check_kind"), filter.CheckKind),
			entsql.Exists(
				s.builder().Select(violations.C("id")).
					From(violations).
					Where(entsql.And(
						entsql.ColumnsEQ(violations.C("run_id"), runs.C("id")),
						entsql.EQ(violations.C("check_kind"), filter.CheckKind),
					)),
			),
		))
	}
	if filter.Operation != "" {
		selector.Where(entsql.EQ("operation", filter.Operation))
	}
	if filter.FailedOnly {
		selector.Where(entsql.EQ("passed", false))
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
