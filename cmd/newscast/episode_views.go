package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"newscast/internal/catalog"
	"newscast/internal/episode"
)

const timeLayout = "2006-01-02 15:04"

func printEpisode(out io.Writer, ep episode.Episode, colorize bool) {
	done, failed, total := ep.Counts()
	lines := renderSectionHeader(fmt.Sprintf("Episode %s", ep.EpisodeID), colorize)
	lines = append(lines,
		renderField("Request", ep.RequestID),
		renderField("Topic", ep.Topic.String()),
		renderStatusLine("Status", episodeStatusKind(ep.Status), string(ep.Status), colorize),
		renderField("Segments", fmt.Sprintf("%d done, %d failed, %d total", done, failed, total)),
		renderField("Created", ep.CreatedAt.Local().Format(timeLayout)),
	)
	if ep.Assembly != nil {
		lines = append(lines,
			renderField("Duration", formatMillis(ep.Assembly.TotalMillis)),
			renderField("Gap policy", ep.Assembly.GapPolicy),
		)
	}
	if ep.CompleteAudioPath != "" {
		lines = append(lines, renderField("Audio", ep.CompleteAudioPath))
	}
	if ep.Error != "" {
		kind := statusError
		if ep.Status == episode.StatusPartial {
			kind = statusWarn
		}
		message := ep.Error
		if ep.ErrorKind != "" {
			message = fmt.Sprintf("%s (%s)", ep.Error, ep.ErrorKind)
		}
		lines = append(lines, renderStatusLine("Error", kind, message, colorize))
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))

	if len(ep.Segments) == 0 {
		return
	}
	rows := make([][]string, 0, len(ep.Segments))
	for _, seg := range ep.Segments {
		title := seg.Title
		if seg.Recap {
			title = "(recap) " + title
		}
		rows = append(rows, []string{
			strconv.Itoa(seg.Index),
			truncateText(title, 48),
			string(seg.Status),
			string(seg.ScriptSource),
			formatMillis(seg.DurationMillis),
			truncateText(seg.Error, 40),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		numCol("#"), col("Title"), col("Status"), col("Script"), numCol("Length"), col("Error"),
	}, rows))
}

func printRecords(out io.Writer, records []catalog.Record) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.EpisodeID,
			rec.Topic.String(),
			string(rec.Status),
			fmt.Sprintf("%d/%d", rec.SegmentsDone, rec.SegmentsTotal),
			formatMillis(rec.TotalMillis),
			rec.CreatedAt.Local().Format(timeLayout),
			rec.RequestID,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		col("Episode"), col("Topic"), col("Status"), numCol("Done"), numCol("Length"), col("Created"), col("Request"),
	}, rows))
}

// summarizeStats renders catalog-wide totals in lifecycle order.
func summarizeStats(stats map[episode.Status]int) string {
	parts := make([]string, 0, 4)
	total := 0
	for _, status := range []episode.Status{episode.StatusRunning, episode.StatusComplete, episode.StatusPartial, episode.StatusFailed} {
		if n := stats[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
			total += n
		}
	}
	if total == 0 {
		return "Total: 0 episodes"
	}
	return fmt.Sprintf("Total: %d episodes (%s)", total, strings.Join(parts, ", "))
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	d := (time.Duration(ms) * time.Millisecond).Round(time.Second)
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
