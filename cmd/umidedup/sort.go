package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scttfrdmn/umidedup-go/pkg/pipeline"
	"github.com/scttfrdmn/umidedup-go/pkg/sorter"
	"github.com/scttfrdmn/umidedup-go/pkg/storage"
)

var (
	sortSorter   string
	sortSamtools string
	sortThreads  int
	sortBufSize  pipeline.Size
	sortTempDir  string
	sortRegion   string
)

var sortCmd = &cobra.Command{
	Use:   "sort <input> <output.sam>",
	Short: "Group a SAM or BAM file by reference",
	Long: `Run only the sort step of dedup and write coordinate-sorted SAM.

The input may be SAM or BAM, a .zst file or an s3:// URI.

Examples:
  umidedup sort sample.sam sample.sorted.sam
  umidedup sort --sorter native --sort-buffer 1G sample.bam sample.sorted.sam`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, output := args[0], args[1]
		if storage.IsS3URI(output) {
			return fmt.Errorf("sorted output must be a local path, got %s", output)
		}

		cfg := sorter.Config{
			Name:         sortSorter,
			SamtoolsPath: sortSamtools,
			Threads:      sortThreads,
			Stderr:       os.Stderr,
			BufferSize:   int64(sortBufSize),
			TempDir:      sortTempDir,
			Logger:       logrus.StandardLogger(),
		}
		s, err := sorter.New(cfg)
		if err != nil {
			return err
		}

		local, cleanup, err := storage.Stage(cmd.Context(), input, &storage.Options{Region: sortRegion, TempDir: sortTempDir})
		if err != nil {
			return fmt.Errorf("failed to stage input: %w", err)
		}
		defer cleanup()

		start := time.Now()
		if err := s.Sort(cmd.Context(), local, output); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"output":  output,
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Info("sorted")
		return nil
	},
}

func init() {
	flags := sortCmd.Flags()
	flags.StringVar(&sortSorter, "sorter", sorter.NameSamtools, "Sorter: samtools or native")
	flags.StringVar(&sortSamtools, "samtools", "samtools", "samtools executable")
	flags.IntVar(&sortThreads, "threads", sorter.DefaultThreads(), "Additional samtools sort threads")
	flags.Var(&sortBufSize, "sort-buffer", "Native sort buffer (default min(8G, 25% RAM))")
	flags.StringVar(&sortTempDir, "temp-dir", os.TempDir(), "Directory for spill and staging files")
	flags.StringVar(&sortRegion, "region", "", "AWS region for s3:// input")
}
