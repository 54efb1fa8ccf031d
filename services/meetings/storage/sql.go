package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/xilidan/meetings/services/meetings/entity"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Timestamps are stored as fixed-width UTC text so ORDER BY created_at sorts
// chronologically on every driver.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const meetingColumns = "id, title, source, file_path, status, transcript, summary, action_items, error, created_at, updated_at"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQL is a Storage over database/sql, backed by SQLite or PostgreSQL.
type SQL struct {
	db      *sql.DB
	dialect dialect
	opts    options
}

// OpenSQLite opens (or creates) meetings.db in dataDir and applies pending migrations.
// Pass ":memory:" for an in-memory database.
func OpenSQLite(dataDir string, opts ...Option) (*SQL, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "meetings.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: an in-memory database exists per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return newSQL(db, dialectSQLite, opts)
}

// OpenPostgres connects with a lib/pq DSN and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*SQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return newSQL(db, dialectPostgres, opts)
}

// PostgresDSN builds a key/value connection string.
func PostgresDSN(host string, port int, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode)
}

func newSQL(db *sql.DB, d dialect, opts []Option) (*SQL, error) {
	s := &SQL{db: db, dialect: d, opts: newOptions(opts)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow(s.rebind("SELECT COUNT(*) FROM schema_version WHERE version = ?"), version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec(s.rebind("INSERT INTO schema_version (version) VALUES (?)"), version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *SQL) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func parseMigrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("invalid migration filename %q", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("invalid migration version in %q: %w", name, err)
	}
	return v, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQL) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) Create(ctx context.Context, req entity.MeetingCreate) (*entity.Meeting, error) {
	now := s.opts.now()
	m := &entity.Meeting{
		ID:             s.opts.ids.String(),
		Title:          req.Title,
		Source:         req.Source,
		AudioReference: req.AudioReference,
		Status:         entity.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO meetings (id, title, source, file_path, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.Title, nullString(m.Source), m.AudioReference, string(m.Status), formatTime(now), formatTime(now))
	if err != nil {
		return nil, entity.NewStorageError("insert meeting", err)
	}
	return m, nil
}

func (s *SQL) Get(ctx context.Context, id string) (*entity.Meeting, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+meetingColumns+" FROM meetings WHERE id = ?"), id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("meeting", id)
	}
	if err != nil {
		return nil, entity.NewStorageError("get meeting", err)
	}
	return m, nil
}

// Update applies upd with a single UPDATE ... RETURNING statement.
func (s *SQL) Update(ctx context.Context, id string, upd entity.MeetingUpdate) (*entity.Meeting, error) {
	var (
		sets []string
		args []any
	)
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.Transcript != nil {
		sets = append(sets, "transcript = ?")
		args = append(args, *upd.Transcript)
	}
	if upd.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *upd.Summary)
	}
	if upd.ActionItems != nil {
		items, err := json.Marshal(upd.ActionItems)
		if err != nil {
			return nil, entity.NewStorageError("encode action items", err)
		}
		sets = append(sets, "action_items = ?")
		args = append(args, string(items))
	}
	switch {
	case upd.ClearError:
		sets = append(sets, "error = NULL")
	case upd.Error != nil:
		sets = append(sets, "error = ?")
		args = append(args, *upd.Error)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(s.opts.now()), id)

	query := "UPDATE meetings SET " + strings.Join(sets, ", ") + " WHERE id = ? RETURNING " + meetingColumns
	m, err := scanMeeting(s.db.QueryRowContext(ctx, s.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("meeting", id)
	}
	if err != nil {
		return nil, entity.NewStorageError("update meeting", err)
	}
	return m, nil
}

func (s *SQL) ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error) {
	query := "SELECT " + meetingColumns + " FROM meetings ORDER BY created_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, entity.NewStorageError("list meetings", err)
	}
	defer rows.Close()

	meetings := []*entity.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, entity.NewStorageError("scan meeting", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, entity.NewStorageError("list meetings", err)
	}
	return meetings, nil
}

func (s *SQL) CreateTask(ctx context.Context, req entity.TaskCreate) (*entity.Task, error) {
	task := &entity.Task{
		ID:        s.opts.ids.String(),
		Title:     req.Title,
		Priority:  req.Priority,
		Tags:      append([]string{}, req.Tags...),
		Status:    req.Status,
		CreatedAt: s.opts.now(),
	}
	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return nil, entity.NewStorageError("encode tags", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO tasks (id, title, priority, tags, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		task.ID, task.Title, task.Priority, string(tags), task.Status, formatTime(task.CreatedAt))
	if err != nil {
		return nil, entity.NewStorageError("insert task", err)
	}
	return task, nil
}

func (s *SQL) ListTasks(ctx context.Context) ([]*entity.Task, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, priority, tags, status, created_at FROM tasks ORDER BY created_at, id")
	if err != nil {
		return nil, entity.NewStorageError("list tasks", err)
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		var (
			t               entity.Task
			tags, createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Priority, &tags, &t.Status, &createdAt); err != nil {
			return nil, entity.NewStorageError("scan task", err)
		}
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return nil, entity.NewStorageError("decode tags", err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, entity.NewStorageError("decode created_at", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row scanner) (*entity.Meeting, error) {
	var (
		m                                       entity.Meeting
		status, createdAt, updatedAt            string
		source, transcript, summary, items, msg sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Title, &source, &m.AudioReference, &status,
		&transcript, &summary, &items, &msg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	m.Status = entity.Status(status)
	m.Source = stringPtr(source)
	m.Transcript = stringPtr(transcript)
	m.Summary = stringPtr(summary)
	m.Error = stringPtr(msg)
	if items.Valid {
		m.ActionItems = []string{}
		if err := json.Unmarshal([]byte(items.String), &m.ActionItems); err != nil {
			return nil, fmt.Errorf("decode action items: %w", err)
		}
	}

	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
