package domain

import "context"

const (
	// UnknownPercent marks a percentage the downloader has not reported yet
	UnknownPercent = -1.0

	// UnknownValue is shown for speed and ETA when nothing is known
	UnknownValue = "-"

	// MaxRunningPercent caps progress until the task actually finishes
	MaxRunningPercent = 99.9
)

// Stage messages published while a task is running
const (
	StageInitializing = "Initializing"
	StageDownloading  = "Downloading"
)

// ProgressState is a point-in-time view of a task's observable progress
type ProgressState struct {
	Stage    string           `json:"stage"`
	Percent  float64          `json:"percent"`
	Speed    string           `json:"speed"`
	ETA      string           `json:"eta"`
	Title    string           `json:"title"`
	Finished bool             `json:"finished"`
	Outcome  *TerminalOutcome `json:"outcome,omitempty"`
}

// NewProgressState returns the state every task starts from
func NewProgressState() ProgressState {
	return ProgressState{
		Percent: UnknownPercent,
		Speed:   UnknownValue,
		ETA:     UnknownValue,
	}
}

// ProgressSink receives live progress from a running task.
//
// SetTitle may be called from a goroutine other than the one driving the
// task, and may arrive after Finish. Sinks for a finished task must ignore it.
type ProgressSink interface {
	SetStage(stage string)
	SetPercent(percent float64)
	SetSpeed(speed string)
	SetETA(eta string)
	SetTitle(title string)

	// Finish records the terminal outcome. Called exactly once, last.
	Finish(outcome TerminalOutcome)
}

// TitleResolver looks up a human-readable title for a video identifier
type TitleResolver interface {
	ResolveTitle(ctx context.Context, id string) (string, error)
}
