package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dicom-viewer/internal/dicommeta"
	"dicom-viewer/internal/index"
	"dicom-viewer/internal/indexer"
)

type scanOptions struct {
	workers    int
	timeout    time.Duration
	jsonOutput bool
}

// scanReport is the --json output.
type scanReport struct {
	Root    string               `json:"root"`
	Scan    indexer.ScanStats    `json:"scan"`
	Totals  index.Stats          `json:"totals"`
	Studies []index.StudySummary `json:"studies"`
}

func newScanCmd() *cobra.Command {
	opts := scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a directory and print its studies",
		Long: `Scan walks dir recursively, probes every file with a pool of workers and
prints one line per study with its patient, date, modality, series count
and image count.

Files that are not DICOM or lack a study identifier are skipped. With
--json the full study list, including series, is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	defaults := indexer.DefaultScannerConfig()
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Number of concurrent probes (0 = auto)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Maximum duration of the scan (0 = no limit)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runScan(ctx context.Context, out io.Writer, dir string, opts scanOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot scan %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot scan %s: not a directory", dir)
	}

	// A one-shot scan never sees a file twice, so the outcome cache is off.
	prober, err := dicommeta.NewProber(dicommeta.DICOMReader{}, 0)
	if err != nil {
		return err
	}

	config := indexer.DefaultScannerConfig()
	config.NumWorkers = opts.workers
	config.ChannelBuffer = 0
	config.Timeout = opts.timeout
	scanner := indexer.NewScanner(prober, config)

	idx, scanErr := scanner.Scan(ctx, root)
	if idx == nil {
		return scanErr
	}

	if opts.jsonOutput {
		err = writeScanJSON(out, root, scanner.Stats(), idx)
	} else {
		err = writeScanTable(out, scanner.Stats(), idx)
	}
	if err != nil {
		return err
	}

	if scanErr != nil {
		return fmt.Errorf("scan incomplete, partial results shown: %w", scanErr)
	}
	return nil
}

func writeScanJSON(out io.Writer, root string, stats indexer.ScanStats, idx *index.Index) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(scanReport{
		Root:    root,
		Scan:    stats,
		Totals:  idx.Stats(),
		Studies: idx.Summaries(),
	})
}

func writeScanTable(out io.Writer, stats indexer.ScanStats, idx *index.Index) error {
	studies := idx.Summaries()
	if len(studies) == 0 {
		_, err := fmt.Fprintf(out, "No studies found (%d files scanned)\n", stats.FilesSeen)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STUDY\tPATIENT\tDATE\tMODALITY\tSERIES\tIMAGES")
	for _, s := range studies {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			s.StudyInstanceUID, s.PatientName, orDash(s.StudyDate), orDash(s.Modality), s.SeriesCount, s.ImageCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	totals := idx.Stats()
	_, err := fmt.Fprintf(out, "\n%d studies, %d series, %d images from %d files (%d not indexable) in %v\n",
		totals.Studies, totals.Series, totals.Images, stats.FilesSeen, stats.NotIndexable,
		stats.Duration.Round(time.Millisecond))
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
