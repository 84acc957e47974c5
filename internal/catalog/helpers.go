package catalog

import (
	"database/sql"
	"time"

	"newscast/internal/episode"
)

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec          Record
		topicMode    string
		status       string
		audioPath    sql.NullString
		errorMessage sql.NullString
		errorKind    sql.NullString
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.RequestID,
		&rec.Number,
		&rec.EpisodeID,
		&topicMode,
		&rec.Topic.Value,
		&status,
		&rec.SegmentsTotal,
		&rec.SegmentsDone,
		&rec.SegmentsFailed,
		&rec.Dir,
		&rec.MetadataPath,
		&audioPath,
		&rec.TotalMillis,
		&errorMessage,
		&errorKind,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	rec.Topic.Mode = episode.TopicMode(topicMode)
	rec.Status = episode.Status(status)
	rec.CompleteAudioPath = audioPath.String
	rec.ErrorMessage = errorMessage.String
	rec.ErrorKind = errorKind.String
	rec.CreatedAt = parseTime(createdRaw)
	rec.UpdatedAt = parseTime(updatedRaw)
	if completedRaw.Valid && completedRaw.String != "" {
		t := parseTime(completedRaw.String)
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
