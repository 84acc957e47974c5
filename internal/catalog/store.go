package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"newscast/internal/config"
	"newscast/internal/episode"
)

// Store indexes episodes in SQLite so they can be listed and looked up by
// request id without walking the episodes directory.
type Store struct {
	db   *sql.DB
	path string
}

// Record is one catalog row.
type Record struct {
	RequestID         string            `json:"request_id"`
	Number            int               `json:"episode_number"`
	EpisodeID         string            `json:"episode_id"`
	Topic             episode.TopicSpec `json:"topic"`
	Status            episode.Status    `json:"status"`
	SegmentsTotal     int               `json:"segments_total"`
	SegmentsDone      int               `json:"segments_done"`
	SegmentsFailed    int               `json:"segments_failed"`
	Dir               string            `json:"dir"`
	MetadataPath      string            `json:"metadata_path"`
	CompleteAudioPath string            `json:"complete_audio_path,omitempty"`
	TotalMillis       int64             `json:"total_ms"`
	ErrorMessage      string            `json:"error,omitempty"`
	ErrorKind         string            `json:"error_kind,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Statuses []episode.Status
	Limit    int
}

var recordColumns = []string{
	"request_id", "episode_number", "episode_id", "topic_mode", "topic_value",
	"status", "segments_total", "segments_done", "segments_failed",
	"dir", "metadata_path", "complete_audio_path", "total_ms",
	"error_message", "error_kind", "created_at", "updated_at", "completed_at",
}

// connPragmas run on every pooled connection. generate and a concurrent
// status share the file, so each connection needs its own busy timeout.
var connPragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.CatalogDBPath()
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Upsert writes the catalog row for ep, replacing any existing row with the
// same request id.
func (s *Store) Upsert(ctx context.Context, ep episode.Episode) error {
	rec := RecordFrom(ep)
	query, args, err := sq.Insert("episodes").
		Columns(recordColumns...).
		Values(
			rec.RequestID, rec.Number, rec.EpisodeID, string(rec.Topic.Mode), rec.Topic.Value,
			string(rec.Status), rec.SegmentsTotal, rec.SegmentsDone, rec.SegmentsFailed,
			rec.Dir, rec.MetadataPath, nullableString(rec.CompleteAudioPath), rec.TotalMillis,
			nullableString(rec.ErrorMessage), nullableString(rec.ErrorKind),
			formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt), nullableTime(rec.CompletedAt),
		).
		Suffix(`ON CONFLICT(request_id) DO UPDATE SET
            status = excluded.status,
            segments_done = excluded.segments_done,
            segments_failed = excluded.segments_failed,
            complete_audio_path = excluded.complete_audio_path,
            total_ms = excluded.total_ms,
            error_message = excluded.error_message,
            error_kind = excluded.error_kind,
            updated_at = excluded.updated_at,
            completed_at = excluded.completed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", ep.EpisodeID, err)
	}
	return nil
}

// Get returns the record for requestID, or nil when none exists.
func (s *Store) Get(ctx context.Context, requestID string) (*Record, error) {
	return s.getOne(ctx, sq.Eq{"request_id": requestID})
}

// GetByNumber returns the record for an episode number, or nil when none exists.
func (s *Store) GetByNumber(ctx context.Context, number int) (*Record, error) {
	return s.getOne(ctx, sq.Eq{"episode_number": number})
}

func (s *Store) getOne(ctx context.Context, where sq.Eq) (*Record, error) {
	query, args, err := sq.Select(recordColumns...).From("episodes").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return rec, nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	builder := sq.Select(recordColumns...).From("episodes").OrderBy("episode_number DESC")
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return records, nil
}

// Running returns every record still marked running.
func (s *Store) Running(ctx context.Context) ([]Record, error) {
	return s.List(ctx, Filter{Statuses: []episode.Status{episode.StatusRunning}})
}

// MarkInterrupted fails a running row in place. It is used when the episode's
// info file is unreadable and cannot be sealed from disk.
func (s *Store) MarkInterrupted(ctx context.Context, requestID, reason string, at time.Time) error {
	stamp := formatTime(at)
	query, args, err := sq.Update("episodes").
		Set("status", string(episode.StatusFailed)).
		Set("error_message", reason).
		Set("error_kind", "interrupted").
		Set("updated_at", stamp).
		Set("completed_at", stamp).
		Where(sq.Eq{"request_id": requestID, "status": string(episode.StatusRunning)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark %s interrupted: %w", requestID, err)
	}
	return nil
}

// Stats counts records per status.
func (s *Store) Stats(ctx context.Context) (map[episode.Status]int, error) {
	query, args, err := sq.Select("status", "COUNT(*)").From("episodes").GroupBy("status").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("episode stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[episode.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[episode.Status(status)] = count
	}
	return stats, rows.Err()
}

// RecordFrom derives the catalog row for an episode snapshot.
func RecordFrom(ep episode.Episode) Record {
	done, failed, total := ep.Counts()
	rec := Record{
		RequestID:         ep.RequestID,
		Number:            ep.Number,
		EpisodeID:         ep.EpisodeID,
		Topic:             ep.Topic,
		Status:            ep.Status,
		SegmentsTotal:     total,
		SegmentsDone:      done,
		SegmentsFailed:    failed,
		Dir:               ep.Dir,
		MetadataPath:      ep.MetadataPath,
		CompleteAudioPath: ep.CompleteAudioPath,
		ErrorMessage:      ep.Error,
		ErrorKind:         ep.ErrorKind,
		CreatedAt:         ep.CreatedAt,
		UpdatedAt:         ep.UpdatedAt,
		CompletedAt:       ep.CompletedAt,
	}
	if ep.Assembly != nil {
		rec.TotalMillis = ep.Assembly.TotalMillis
	}
	return rec
}

// Duration is the assembled episode length.
func (r Record) Duration() time.Duration {
	return time.Duration(r.TotalMillis) * time.Millisecond
}
