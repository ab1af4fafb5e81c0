package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yourusername/ytdl-go/internal/app"
	"github.com/yourusername/ytdl-go/internal/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath()
		if len(args) == 1 {
			path = args[0]
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "server:        %s:%d\n", config.Server.Host, config.Server.Port)
		fmt.Fprintf(out, "downloader:    %s\n", config.Download.YoutubeDLPath)
		fmt.Fprintf(out, "ffmpeg:        %s\n", config.Download.FFmpegPath)
		fmt.Fprintf(out, "output dir:    %s\n", config.Download.OutputDir)
		fmt.Fprintf(out, "format:        %s\n", config.Download.Format)
		fmt.Fprintf(out, "logs dir:      %s\n", config.Download.LogsDir)
		fmt.Fprintf(out, "concurrency:   %d\n", config.Download.ConcurrentLimit)
		fmt.Fprintf(out, "titles:        %t (%s)\n", config.Metadata.Enabled, config.Metadata.Timeout)
		fmt.Fprintf(out, "database:      %s\n", config.Queue.DatabasePath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("configs", "config.yaml")
	}
	return filepath.Join(home, ".ytdl-go", "config.yaml")
}
