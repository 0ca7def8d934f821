package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/LdDl/footfall-go/session"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

const schema = `CREATE TABLE IF NOT EXISTS session_summaries (
	session_id    TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	video_file    TEXT NOT NULL,
	output_video  TEXT NOT NULL,
	frames        INTEGER NOT NULL,
	total_entries INTEGER NOT NULL,
	total_exits   INTEGER NOT NULL,
	net_count     INTEGER NOT NULL
)`

// SQLite keeps session summaries in a SQLite database. It is safe for concurrent use.
type SQLite struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (creating if needed) SQLite database at the provided path
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &SQLite{sqlDB: sqlDB}, nil
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save inserts or replaces summary of a session
func (s *SQLite) Save(ctx context.Context, summary session.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errors.New("storage is not configured")
	}
	if strings.TrimSpace(summary.SessionID) == "" {
		return errors.New("session id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `INSERT OR REPLACE INTO session_summaries
		(session_id, started_at, finished_at, video_file, output_video, frames, total_entries, total_exits, net_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.SessionID,
		summary.StartedAt.UTC().Format(timeFormat),
		summary.Timestamp.UTC().Format(timeFormat),
		summary.VideoFile,
		summary.OutputVideo,
		summary.Frames,
		summary.TotalEntries,
		summary.TotalExits,
		summary.NetCount,
	)
	if err != nil {
		return errors.Wrapf(err, "Can't save summary of session %s", summary.SessionID)
	}
	return nil
}

// List returns stored summaries ordered by finish time
func (s *SQLite) List(ctx context.Context) ([]session.Summary, error) {
	if s == nil || s.sqlDB == nil {
		return nil, errors.New("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT session_id, started_at, finished_at, video_file, output_video,
		frames, total_entries, total_exits, net_count
		FROM session_summaries ORDER BY finished_at, session_id`)
	if err != nil {
		return nil, errors.Wrap(err, "Can't query summaries")
	}
	defer rows.Close()

	var summaries []session.Summary
	for rows.Next() {
		var (
			summary               session.Summary
			startedAt, finishedAt string
		)
		err := rows.Scan(
			&summary.SessionID, &startedAt, &finishedAt, &summary.VideoFile, &summary.OutputVideo,
			&summary.Frames, &summary.TotalEntries, &summary.TotalExits, &summary.NetCount,
		)
		if err != nil {
			return nil, errors.Wrap(err, "Can't scan summary")
		}
		if summary.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
			return nil, errors.Wrapf(err, "bad start time of session %s", summary.SessionID)
		}
		if summary.Timestamp, err = time.Parse(timeFormat, finishedAt); err != nil {
			return nil, errors.Wrapf(err, "bad finish time of session %s", summary.SessionID)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Can't iterate summaries")
	}
	return summaries, nil
}
