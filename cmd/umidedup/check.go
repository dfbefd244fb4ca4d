package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scttfrdmn/umidedup-go/pkg/dedup"
	"github.com/scttfrdmn/umidedup-go/pkg/storage"
)

var checkRegion string

var checkCmd = &cobra.Command{
	Use:   "check <sorted.sam>",
	Short: "Verify that records are grouped by reference",
	Long: `Scan a SAM file and report references whose records are split into
more than one run. dedup only catches duplicates within one run, so a
split reference means missed duplicates.

Exits non-zero when any reference is split.

Example:
  umidedup check sample.sorted.sam`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := storage.Open(cmd.Context(), args[0], &storage.Options{Region: checkRegion})
		if err != nil {
			return err
		}
		defer rc.Close()

		report, err := dedup.CheckGrouping(rc)
		if err != nil {
			return err
		}

		fmt.Printf("Records: %d\n", report.Records)
		fmt.Printf("Reference runs: %d\n", report.Groups)
		if report.Grouped() {
			fmt.Println(color.GreenString("Records are grouped by reference"))
			return nil
		}

		red := color.New(color.FgRed).SprintFunc()
		for _, v := range report.Violations {
			fmt.Printf("%s line %d: %s reappears after %s\n", red("split"), v.Line, v.Reference, v.After)
		}
		return fmt.Errorf("found %d split reference runs", len(report.Violations))
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkRegion, "region", "", "AWS region for s3:// input")
}
