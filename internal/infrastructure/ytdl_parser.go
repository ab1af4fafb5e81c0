package infrastructure

import (
	"math"
	"strconv"
	"strings"

	"github.com/yourusername/ytdl-go/internal/domain"
)

// Marker tokens emitted by youtube-dl / yt-dlp
const (
	markerSource   = "[youtube]"
	markerDownload = "[download]"
	markerError    = "ERROR:"

	alreadyDownloaded = "has already been downloaded"
	andMerged         = " and merged"
)

// EventKind classifies one line of downloader output
type EventKind int

const (
	EventNone EventKind = iota
	EventSourceIdentified
	EventProgress
	EventAlreadyDownloaded
	EventFatalError
)

func (k EventKind) String() string {
	switch k {
	case EventSourceIdentified:
		return "source_identified"
	case EventProgress:
		return "progress"
	case EventAlreadyDownloaded:
		return "already_downloaded"
	case EventFatalError:
		return "fatal_error"
	default:
		return "none"
	}
}

// LineEvent is the result of parsing one output line
type LineEvent struct {
	Kind EventKind

	// EventSourceIdentified
	ID string

	// EventProgress. Speed and ETA are only meaningful when HasRate is set.
	Percent float64
	Speed   string
	ETA     string
	HasRate bool

	// EventFatalError
	Message string
}

// ParseLine classifies a single line of downloader output. It has no side
// effects and returns EventNone for anything it does not recognise.
func ParseLine(line string) LineEvent {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, markerError); ok {
		return LineEvent{Kind: EventFatalError, Message: strings.TrimSpace(rest)}
	}

	fields := strings.Fields(line)
	if len(fields) >= 2 {
		switch fields[0] {
		case markerSource:
			if id, ok := strings.CutSuffix(fields[1], ":"); ok && id != "" {
				return LineEvent{Kind: EventSourceIdentified, ID: id}
			}
		case markerDownload:
			if ev, ok := parseProgress(line, fields); ok {
				return ev
			}
		}
	}

	if isAlreadyDownloaded(line) {
		return LineEvent{Kind: EventAlreadyDownloaded}
	}
	return LineEvent{Kind: EventNone}
}

// parseProgress handles "[download]  37.2% of 10.00MiB at 1.23MiB/s ETA 00:30"
func parseProgress(line string, fields []string) (LineEvent, bool) {
	raw, ok := strings.CutSuffix(fields[1], "%")
	if !ok {
		return LineEvent{}, false
	}
	percent, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(percent) || math.IsInf(percent, 0) {
		return LineEvent{}, false
	}

	ev := LineEvent{Kind: EventProgress, Percent: clampPercent(percent)}
	if strings.Contains(line, "ETA") && !strings.Contains(line, "Unknown") {
		ev.Speed, ev.ETA = rateFields(fields)
		ev.HasRate = ev.Speed != "" || ev.ETA != ""
	}
	return ev, true
}

// rateFields reads speed and ETA from their fixed columns (6th and 8th).
// Lines too short for that layout fall back to the tokens after "at" and "ETA".
func rateFields(fields []string) (speed, eta string) {
	if len(fields) >= 8 {
		return fields[5], fields[7]
	}
	return tokenAfter(fields, "at"), tokenAfter(fields, "ETA")
}

func tokenAfter(fields []string, marker string) string {
	for i := 0; i < len(fields)-1; i++ {
		if fields[i] == marker {
			return fields[i+1]
		}
	}
	return ""
}

func clampPercent(p float64) float64 {
	if p > domain.MaxRunningPercent {
		return domain.MaxRunningPercent
	}
	if p < 0 {
		return 0
	}
	return p
}

func isAlreadyDownloaded(line string) bool {
	line = strings.TrimSuffix(line, andMerged)
	prefix, ok := strings.CutSuffix(line, alreadyDownloaded)
	return ok && prefix != ""
}
