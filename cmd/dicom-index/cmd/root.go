// Package cmd provides the commands of the dicom-index CLI.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/startup"
)

// NewRootCmd creates the root command for the dicom-index CLI.
func NewRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "dicom-index",
		Short: "Index a directory of DICOM files",
		Long: `dicom-index scans a directory tree, reads the header of every file and
groups the readable DICOM instances into studies and series.

It runs the same parallel scan as the viewer server without starting it,
which makes it useful for checking what a corpus will look like before
pointing DICOM_DIR at it.`,
		Version:      startup.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetOutput(cmd.ErrOrStderr())
			if logLevel != "" {
				logging.SetLevel(logging.ParseLevel(logLevel))
			}
		},
	}

	cmd.SetVersionTemplate("dicom-index version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from LOG_LEVEL)")

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command until it completes or an interrupt arrives.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}
