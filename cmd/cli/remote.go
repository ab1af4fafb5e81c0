package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/ytdl-go/internal/domain"
)

// remoteClient returns a client for the configured server, starting the
// server first unless --no-auto-start is set
func remoteClient() *apiClient {
	client := newAPIClient(serverURL)
	if !noAutoStart {
		if err := ensureServerRunning(client); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	return client
}

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Queue a download on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		watch, _ := cmd.Flags().GetBool("watch")

		client := remoteClient()
		download, err := client.AddDownload(args[0], format)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Download added successfully!\n")
		fmt.Fprintf(out, "ID: %s\n", download.ID)
		fmt.Fprintf(out, "Status: %s\n", download.Status)

		if watch {
			return watchDownload(cmd, client, download.ID)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		downloads, err := remoteClient().ListDownloads(status)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tSTATUS\tTITLE\tCREATED")
		for _, d := range downloads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(d.ID, 8),
				truncate(d.URL, 40),
				d.Status,
				truncate(d.Title, 30),
				d.CreatedAt.Format(time.DateTime))
		}
		return w.Flush()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show download details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		download, err := remoteClient().GetDownload(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Download Details:\n")
		fmt.Fprintf(out, "  ID:       %s\n", download.ID)
		fmt.Fprintf(out, "  URL:      %s\n", download.URL)
		fmt.Fprintf(out, "  Status:   %s\n", download.Status)
		fmt.Fprintf(out, "  Format:   %s\n", download.Format)
		fmt.Fprintf(out, "  Output:   %s\n", download.OutputDir)
		if download.Title != "" {
			fmt.Fprintf(out, "  Title:    %s\n", download.Title)
		}
		if download.Message != "" {
			fmt.Fprintf(out, "  Message:  %s\n", download.Message)
		}
		if download.RetryCount > 0 {
			fmt.Fprintf(out, "  Retries:  %d\n", download.RetryCount)
		}
		fmt.Fprintf(out, "  Created:  %s\n", download.CreatedAt.Format(time.DateTime))
		if download.Progress != nil {
			fmt.Fprintf(out, "  Progress: %s\n", formatProgress(*download.Progress))
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [id]",
	Short: "Follow the progress of a running download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchDownload(cmd, remoteClient(), args[0])
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := remoteClient().CancelDownload(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Download cancellation requested")
		return nil
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Retry a failed or cancelled download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		download, err := remoteClient().RetryDownload(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Download queued for retry (attempt %d)\n", download.RetryCount+1)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a finished download record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := remoteClient().DeleteDownload(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Download deleted")
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := remoteClient().GetStats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Download Statistics:")
		fmt.Fprintf(out, "  Total:      %d\n", stats.Total)
		fmt.Fprintf(out, "  Queued:     %d\n", stats.Queued)
		fmt.Fprintf(out, "  Processing: %d\n", stats.Processing)
		fmt.Fprintf(out, "  Completed:  %d\n", stats.Completed)
		fmt.Fprintf(out, "  Failed:     %d\n", stats.Failed)
		fmt.Fprintf(out, "  Cancelled:  %d\n", stats.Cancelled)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [id]",
	Short: "Show raw downloader output for a download or a day",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")

		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		lines, err := remoteClient().GetLogs(id, date, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().String("date", "", "Day to show (YYYY-MM-DD), defaults to today")
	logsCmd.Flags().IntP("limit", "n", 200, "Number of trailing lines")
	addCmd.Flags().StringP("format", "f", "", "Format selector passed to the downloader")
	addCmd.Flags().BoolP("watch", "w", false, "Follow progress until the download ends")
	listCmd.Flags().StringP("status", "s", "", "Filter by status (queued, processing, completed, failed, cancelled)")
}

func watchDownload(cmd *cobra.Command, client *apiClient, id string) error {
	r := newProgressRenderer(cmd.OutOrStdout())
	var last domain.ProgressState
	err := client.WatchProgress(id, func(snap domain.ProgressState) {
		last = snap
		r.Render(snap)
	})
	r.Done()
	if err != nil {
		return err
	}
	if last.Outcome != nil {
		return outcomeError(*last.Outcome)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
