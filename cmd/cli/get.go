package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/ytdl-go/internal/app"
	"github.com/yourusername/ytdl-go/internal/domain"
	"github.com/yourusername/ytdl-go/internal/infrastructure"
	"github.com/yourusername/ytdl-go/pkg/logger"
)

var getCmd = &cobra.Command{
	Use:   "get [url]",
	Short: "Download a video in the foreground",
	Long: `Runs youtube-dl / yt-dlp for one URL and shows its progress.
Ctrl+C cancels the download and kills the downloader.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringP("format", "f", "", "Format selector passed to the downloader")
	getCmd.Flags().StringP("output", "o", "", "Output directory")
	getCmd.Flags().Bool("no-title", false, "Don't look up the video title")
	getCmd.Flags().BoolP("verbose", "v", false, "Log downloader output to stderr")
}

func runGet(cmd *cobra.Command, args []string) error {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	format, _ := cmd.Flags().GetString("format")
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		config.Download.OutputDir = output
	}
	noTitle, _ := cmd.Flags().GetBool("no-title")
	verbose, _ := cmd.Flags().GetBool("verbose")

	req := config.Download.Request(args[0], format)
	if err := req.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console", OutputPath: "stderr"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	opts := []infrastructure.TaskOption{
		infrastructure.WithLogger(log),
		infrastructure.WithProcessLog(logger.NewProcessLog(config.Download.LogsDir)),
	}
	if config.Metadata.Enabled && !noTitle {
		opts = append(opts,
			infrastructure.WithTitleResolver(infrastructure.NewHTTPTitleResolver(config.Metadata.Endpoint, config.Metadata.Timeout)),
			infrastructure.WithTitleTimeout(config.Metadata.Timeout))
	}

	progress := app.NewProgressPublisher()
	task := infrastructure.NewYTDLTask(req, progress, opts...)

	ctx, stop := interruptContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, unsubscribe := progress.Subscribe()
	defer unsubscribe()
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		r := newProgressRenderer(cmd.OutOrStdout())
		for snap := range updates {
			r.Render(snap)
		}
		r.Done()
	}()

	log.Debug("Running download", zap.Strings("args", task.Args()))
	outcome := task.Run(ctx)
	<-rendered

	return outcomeError(outcome)
}

// interruptContext is cancelled by the first of signals. Later signals get
// the default handling, so a second Ctrl+C exits even when the downloader
// is stalled and the task never reaches its next cancellation check.
func interruptContext(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, signals...)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}

// outcomeError maps a terminal outcome onto the command's exit status
func outcomeError(outcome domain.TerminalOutcome) error {
	switch outcome.Kind {
	case domain.OutcomeFailed:
		return &exitError{code: 1, msg: outcome.Message()}
	case domain.OutcomeCancelled:
		return &exitError{code: 130, msg: outcome.Message()}
	}
	return nil
}

// progressRenderer redraws a single status line in place
type progressRenderer struct {
	w       io.Writer
	lastLen int
}

func newProgressRenderer(w io.Writer) *progressRenderer {
	return &progressRenderer{w: w}
}

// Render overwrites the status line with snap
func (r *progressRenderer) Render(snap domain.ProgressState) {
	line := formatProgress(snap)
	pad := ""
	if n := r.lastLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprint(r.w, "\r"+line+pad)
	r.lastLen = len(line)
}

// Done ends the status line
func (r *progressRenderer) Done() {
	if r.lastLen > 0 {
		fmt.Fprintln(r.w)
	}
}

func formatProgress(snap domain.ProgressState) string {
	percent := "  ?  %"
	if snap.Percent >= 0 {
		percent = fmt.Sprintf("%5.1f%%", snap.Percent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", percent, snap.Stage)
	if !snap.Finished {
		fmt.Fprintf(&b, " | %s | ETA %s", snap.Speed, snap.ETA)
	}
	if snap.Title != "" {
		fmt.Fprintf(&b, " | %s", truncate(snap.Title, 60))
	}
	return b.String()
}
