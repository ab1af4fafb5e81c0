package logger

import (
	"bufio"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	processLogPrefix = "download-"
	processLogSuffix = ".log"
	maxLogLineBytes  = 1024 * 1024
)

// ProcessLogReader reads the per-day files written by ProcessLog
type ProcessLogReader struct {
	log *ProcessLog
}

// NewProcessLogReader creates a reader for the process logs in dir
func NewProcessLogReader(dir string) *ProcessLogReader {
	return &ProcessLogReader{log: NewProcessLog(dir)}
}

// Path returns the log file for the given day
func (r *ProcessLogReader) Path(day time.Time) string {
	return r.log.Path(day)
}

// Days returns the dates (YYYY-MM-DD) that have a process log, newest first
func (r *ProcessLogReader) Days() ([]string, error) {
	entries, err := os.ReadDir(r.log.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	days := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutPrefix(entry.Name(), processLogPrefix)
		if !ok {
			continue
		}
		name, ok = strings.CutSuffix(name, processLogSuffix)
		if !ok {
			continue
		}
		day, err := time.Parse("20060102", name)
		if err != nil {
			continue
		}
		days = append(days, day.Format("2006-01-02"))
	}

	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// ReadLines returns the last limit lines of the day's log, or all of them
// when limit is not positive. A non-empty taskID keeps only that task's
// sections. A missing file yields no lines.
func (r *ProcessLogReader) ReadLines(day time.Time, taskID string, limit int) ([]string, error) {
	file, err := os.Open(r.log.Path(day))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineBytes)

	filter := newSectionFilter(taskID)
	lines := []string{}
	for scanner.Scan() {
		line := scanner.Text()
		if !filter.keep(line) {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, nil
}

// sectionFilter selects the lines of one task's sections
type sectionFilter struct {
	taskID string
	header string
	prefix string
	footer string

	// the command line follows its header
	afterHeader bool
}

func newSectionFilter(taskID string) *sectionFilter {
	tag := sectionTag(taskID)
	return &sectionFilter{
		taskID: taskID,
		header: "] Download: " + taskID + " ===",
		prefix: "[" + tag + "] ",
		footer: "=== END " + tag + " ===",
	}
}

func (f *sectionFilter) keep(line string) bool {
	if f.taskID == "" {
		return true
	}

	afterHeader := f.afterHeader
	f.afterHeader = false

	switch {
	case strings.HasPrefix(line, "=== [") && strings.HasSuffix(line, f.header):
		f.afterHeader = true
		return true
	case afterHeader && strings.HasPrefix(line, "$ "):
		return true
	case strings.HasPrefix(line, f.prefix), line == f.footer:
		return true
	}
	return false
}
