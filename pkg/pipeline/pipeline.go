package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"

	"github.com/scttfrdmn/umidedup-go/pkg/dedup"
	"github.com/scttfrdmn/umidedup-go/pkg/sorter"
	"github.com/scttfrdmn/umidedup-go/pkg/storage"
)

// Summary describes a finished run
type Summary struct {
	Input         string
	Output        string
	Sorted        string
	WhitelistSize int
	Counters      *dedup.RunCounters
	SortElapsed   time.Duration
	Elapsed       time.Duration
}

// Run validates cfg, loads the UMI list, sorts the input with s into
// cfg.Sorted and streams the sorted file through the deduplicator. The
// output only appears once the whole pass has succeeded.
func Run(ctx context.Context, cfg *Config, s sorter.Sorter) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := cfg.logger()
	start := time.Now()
	opts := &storage.Options{Region: cfg.Region, TempDir: cfg.TempDir}

	whitelist, err := loadWhitelist(ctx, cfg.Whitelist, opts)
	if err != nil {
		return nil, err
	}
	log.WithField("umis", whitelist.Len()).Info("loaded UMI list")

	input, cleanup, err := storage.Stage(ctx, cfg.Input, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to stage input: %w", err)
	}
	defer cleanup()

	log.WithFields(logrus.Fields{"input": input, "sorted": cfg.Sorted}).Info("sorting input")
	sortStart := time.Now()
	if err := s.Sort(ctx, input, cfg.Sorted); err != nil {
		return nil, fmt.Errorf("failed to sort %s: %w", cfg.Input, err)
	}
	sortElapsed := time.Since(sortStart)

	counters, err := dedupSorted(ctx, cfg, whitelist, opts)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Input:         cfg.Input,
		Output:        cfg.Output,
		Sorted:        cfg.Sorted,
		WhitelistSize: whitelist.Len(),
		Counters:      counters,
		SortElapsed:   sortElapsed,
		Elapsed:       time.Since(start),
	}, nil
}

func loadWhitelist(ctx context.Context, path string, opts *storage.Options) (*dedup.Whitelist, error) {
	rc, err := storage.Open(ctx, path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open UMI list: %w", err)
	}
	defer rc.Close()
	return dedup.LoadWhitelist(rc)
}

func dedupSorted(ctx context.Context, cfg *Config, whitelist *dedup.Whitelist, opts *storage.Options) (*dedup.RunCounters, error) {
	sorted, err := os.Open(cfg.Sorted)
	if err != nil {
		return nil, fmt.Errorf("failed to open sorted file: %w", err)
	}
	defer sorted.Close()

	var r io.Reader = sorted
	if cfg.ShowProgress {
		stat, err := sorted.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat sorted file: %w", err)
		}
		bar := pb.Full.Start64(stat.Size())
		bar.Set(pb.Bytes, true)
		defer bar.Finish()
		r = bar.NewProxyReader(sorted)
	}

	out, err := storage.Create(ctx, cfg.Output, opts)
	if err != nil {
		return nil, err
	}

	dedupOpts := cfg.Dedup
	dedupOpts.Logger = cfg.logger()
	counters, err := dedup.NewDeduplicator(whitelist, dedupOpts).Run(r, out)
	if err != nil {
		out.Abort()
		return nil, fmt.Errorf("failed to deduplicate: %w", err)
	}
	if err := out.Commit(); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	return counters, nil
}
