package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"newscast/internal/episode"
)

// statusKind is the badge shown next to a doctor or status line.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var badges = [...]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func (k statusKind) badge() (label, color string) {
	if int(k) < 0 || int(k) >= len(badges) {
		k = statusInfo
	}
	return badges[k].label, badges[k].color
}

// renderStatusLine prints "  Label:   [BADGE] message", colored as a whole.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	name, color := kind.badge()
	badge := "[" + name + "]"
	if message != "" {
		badge += " " + message
	}
	line := renderField(label, badge)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func renderField(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
}

func episodeStatusKind(status episode.Status) statusKind {
	switch status {
	case episode.StatusComplete:
		return statusOK
	case episode.StatusPartial:
		return statusWarn
	case episode.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = ansiBlue + lines[i] + ansiReset
		}
	}
	return lines
}

// shouldColorize is true only for terminals.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
