package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scttfrdmn/umidedup-go/pkg/dedup"
	"github.com/scttfrdmn/umidedup-go/pkg/pipeline"
	"github.com/scttfrdmn/umidedup-go/pkg/sorter"
)

var (
	configPath      string
	inputPath       string
	outputPath      string
	sortedPath      string
	umisPath        string
	sorterName      string
	samtoolsPath    string
	samtoolsThreads int
	sortBuffer      pipeline.Size
	unmappedPolicy  string
	umiSeparators   string
	tempDir         string
	region          string
	showProgress    bool
)

var requiredFlags = []string{"input", "output", "sorted", "umis"}

var dedupCmd = &cobra.Command{
	Use:   "dedup -f <input.sam> -o <output.sam> -s <sorted.sam> -u <umis.txt>",
	Short: "Sort a SAM file and remove UMI-aware PCR duplicates",
	Long: `Sort the input by reference, then stream it and keep the first read of
every (UMI, reference, 5' position, strand) group.

Reads whose UMI is not in the list are dropped. Header lines are copied
unchanged. Records are written exactly as they appear in the sorted file.

Paths may be local or s3:// URIs (except --sorted) and may end in .zst.

Sorters:
  samtools - run "samtools sort" (default)
  native   - in-process external merge sort, spills to --temp-dir

Unmapped reads (flag 0x4 or RNAME "*") with a known UMI:
  keep - pass through without deduplication (default)
  drop - remove

Examples:
  umidedup dedup -f sample.sam -o sample.dedup.sam -s sample.sorted.sam -u STL96.txt

  # No samtools available
  umidedup dedup -f sample.sam -o out.sam -s sorted.sam -u umis.txt \
    --sorter native --sort-buffer 2G

  # Settings from a file, output straight to S3
  umidedup dedup --config run.yaml -o s3://bucket/out.sam.zst`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			for _, name := range requiredFlags {
				if err := cmd.MarkFlagRequired(name); err != nil {
					return err
				}
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}
		logrus.WithFields(cfg.Fields()).Debug("configuration")

		s, err := sorter.New(cfg.SorterConfig())
		if err != nil {
			return err
		}

		summary, err := pipeline.Run(cmd.Context(), cfg, s)
		if err != nil {
			return err
		}
		pipeline.PrintSummary(os.Stdout, summary)
		return nil
	},
}

// buildConfig layers defaults, the config file and explicitly set flags
func buildConfig(cmd *cobra.Command) (*pipeline.Config, error) {
	cfg := pipeline.NewConfig()
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("input", func() { cfg.Input = inputPath })
	set("output", func() { cfg.Output = outputPath })
	set("sorted", func() { cfg.Sorted = sortedPath })
	set("umis", func() { cfg.Whitelist = umisPath })
	set("sorter", func() { cfg.Sorter = sorterName })
	set("samtools", func() { cfg.SamtoolsPath = samtoolsPath })
	set("threads", func() { cfg.SamtoolsThreads = samtoolsThreads })
	set("sort-buffer", func() { cfg.SortBuffer = sortBuffer })
	set("unmapped", func() { cfg.Dedup.Unmapped = dedup.UnmappedPolicy(unmappedPolicy) })
	set("umi-separators", func() { cfg.Dedup.UMISeparators = umiSeparators })
	set("temp-dir", func() { cfg.TempDir = tempDir })
	set("region", func() { cfg.Region = region })
	set("progress", func() { cfg.ShowProgress = showProgress })

	cfg.Logger = logrus.StandardLogger()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	flags := dedupCmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML file with settings; flags override it")
	flags.StringVarP(&inputPath, "input", "f", "", "Input SAM or BAM")
	flags.StringVarP(&outputPath, "output", "o", "", "Deduplicated SAM output")
	flags.StringVarP(&sortedPath, "sorted", "s", "", "Intermediate sorted SAM (local path)")
	flags.StringVarP(&umisPath, "umis", "u", "", "Known UMIs, one per line")

	flags.StringVar(&sorterName, "sorter", sorter.NameSamtools, "Sorter: samtools or native")
	flags.StringVar(&samtoolsPath, "samtools", "samtools", "samtools executable")
	flags.IntVar(&samtoolsThreads, "threads", sorter.DefaultThreads(), "Additional samtools sort threads")
	flags.Var(&sortBuffer, "sort-buffer", "Native sort buffer (e.g. 512M, 8G; default min(8G, 25% RAM))")
	flags.StringVar(&unmappedPolicy, "unmapped", string(dedup.UnmappedKeep), "Unmapped reads: keep or drop")
	flags.StringVar(&umiSeparators, "umi-separators", dedup.DefaultUMISeparators, "Characters that may precede the UMI in read names")
	flags.StringVar(&tempDir, "temp-dir", os.TempDir(), "Directory for spill and staging files")
	flags.StringVar(&region, "region", "", "AWS region for s3:// paths")
	flags.BoolVar(&showProgress, "progress", false, "Show a progress bar while deduplicating")
}
