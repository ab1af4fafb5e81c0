package domain

import "context"

// Task supervises a single downloader process
type Task interface {
	// Run drives the task to its terminal outcome. It must be called once.
	Run(ctx context.Context) TerminalOutcome

	// Cancel requests cooperative cancellation. Safe from any goroutine.
	Cancel()
}

// TaskFactory creates the task for download id that reports into sink
type TaskFactory func(id string, req DownloadRequest, sink ProgressSink) Task
