package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ProcessLog appends raw downloader output to a per-day log file
// (download-YYYYMMDD.log). Several tasks may share one file, so every line
// is tagged with the task it came from.
type ProcessLog struct {
	dir string
	mu  sync.Mutex
}

// NewProcessLog creates a process log rooted at dir
func NewProcessLog(dir string) *ProcessLog {
	return &ProcessLog{dir: dir}
}

// Path returns the log file used for the given day
func (p *ProcessLog) Path(day time.Time) string {
	return filepath.Join(p.dir, "download-"+day.Format("20060102")+".log")
}

// ProcessLogEntry is one task's section of the process log
type ProcessLogEntry struct {
	log  *ProcessLog
	file *os.File
	tag  string
}

// Begin opens today's log and writes the start marker with the command line
func (p *ProcessLog) Begin(taskID, cmdLine string) (*ProcessLogEntry, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	file, err := os.OpenFile(p.Path(time.Now()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open process log: %w", err)
	}

	e := &ProcessLogEntry{log: p, file: file, tag: sectionTag(taskID)}
	e.write(fmt.Sprintf("\n=== [%s] Download: %s ===\n$ %s\n", timestamp(), taskID, cmdLine))
	return e, nil
}

// Line appends one raw output line
func (e *ProcessLogEntry) Line(line string) {
	e.write(fmt.Sprintf("[%s] %s\n", e.tag, line))
}

// End writes the completion marker and closes the file
func (e *ProcessLogEntry) End(success bool, message string) error {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	e.write(fmt.Sprintf("[%s] [%s] %s: %s\n=== END %s ===\n", e.tag, timestamp(), status, message, e.tag))
	return e.file.Close()
}

func (e *ProcessLogEntry) write(s string) {
	e.log.mu.Lock()
	defer e.log.mu.Unlock()
	e.file.WriteString(s)
}

// sectionTag is the short task id prefixed to every line of a section
func sectionTag(taskID string) string {
	if len(taskID) > 8 {
		return taskID[:8]
	}
	return taskID
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
