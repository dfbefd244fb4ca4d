package sorter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// per-entry bookkeeping counted against the buffer on top of the line
	entryOverhead = 64

	// lines between context checks
	checkEvery = 1 << 16

	unmappedRank  = math.MaxInt - 1
	malformedRank = math.MaxInt
)

// Native is an in-process external merge sort. Records are ordered by
// reference (@SQ order, then unknown references in first-seen order, then
// "*"), then POS, then input order. Headers come first in input order.
// Lines that are not valid records sort last and are kept.
type Native struct {
	BufferSize int64  // bytes of lines held in memory before spilling
	TempDir    string // parent of the spill directory
	Logger     logrus.FieldLogger
}

type nativeRun struct {
	cfg *Native
	log logrus.FieldLogger

	ranks    map[string]int
	nextRank int

	headers     []string
	buffer      []Entry
	bufferBytes int64
	limit       int64
	seq         int64

	spillDir string
	spills   []SpillFile
}

// Sort reads SAM (or BAM when input ends in .bam) and writes SAM to output.
// A failed sort removes output and all spill files.
func (n *Native) Sort(ctx context.Context, input, output string) (err error) {
	log := n.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	limit := n.BufferSize
	if limit <= 0 {
		limit = DefaultBufferSize()
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open sort input: %w", err)
	}
	defer in.Close()

	var r io.Reader = in
	if IsBAM(input) {
		rc, err := BAMToSAM(bufio.NewReaderSize(in, 1*MB))
		if err != nil {
			return err
		}
		defer rc.Close()
		r = rc
	}

	run := &nativeRun{
		cfg:   n,
		log:   log,
		ranks: make(map[string]int),
		limit: limit,
	}
	defer run.cleanup()

	start := time.Now()
	if err := run.read(ctx, r); err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create sort output: %w", err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(output)
		}
	}()

	if err := run.write(ctx, out); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close sort output: %w", err)
	}

	log.WithFields(logrus.Fields{
		"records": run.seq,
		"spills":  len(run.spills),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("native sort finished")
	return nil
}

func (r *nativeRun) read(ctx context.Context, in io.Reader) error {
	reader := bufio.NewReaderSize(in, 1*MB)
	lineNum := 0
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("failed to read sort input at line %d: %w", lineNum+1, readErr)
		}
		if line != "" {
			lineNum++
			if lineNum%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if err := r.add(line); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
	}
}

func (r *nativeRun) add(line string) error {
	if strings.TrimRight(line, "\r\n") == "" {
		return nil
	}
	// the last line may move, so it needs a terminator
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	if strings.HasPrefix(line, "@") {
		r.headers = append(r.headers, line)
		if strings.HasPrefix(line, "@SQ\t") {
			if name, ok := sequenceName(line); ok {
				r.rank(name)
			}
		}
		return nil
	}

	rank, pos := malformedRank, 0
	fields := strings.SplitN(line, "\t", 5)
	if len(fields) == 5 {
		if p, err := strconv.Atoi(fields[3]); err == nil {
			rank, pos = r.rank(fields[2]), p
		}
	}

	r.buffer = append(r.buffer, Entry{Rank: rank, Pos: pos, Seq: r.seq, Line: line})
	r.seq++
	r.bufferBytes += int64(len(line)) + entryOverhead
	if r.bufferBytes >= r.limit {
		return r.spill()
	}
	return nil
}

// rank returns the sort rank of a reference, assigning the next one on
// first sight
func (r *nativeRun) rank(ref string) int {
	if ref == "*" {
		return unmappedRank
	}
	if rank, ok := r.ranks[ref]; ok {
		return rank
	}
	rank := r.nextRank
	r.ranks[ref] = rank
	r.nextRank++
	return rank
}

func sequenceName(line string) (string, bool) {
	for _, field := range strings.Split(strings.TrimRight(line, "\r\n"), "\t")[1:] {
		if name, ok := strings.CutPrefix(field, "SN:"); ok {
			return name, true
		}
	}
	return "", false
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].less(&entries[j])
	})
}

func (r *nativeRun) spill() error {
	if len(r.buffer) == 0 {
		return nil
	}
	if r.spillDir == "" {
		dir, err := os.MkdirTemp(r.cfg.TempDir, "umidedup-sort-*")
		if err != nil {
			return fmt.Errorf("failed to create spill directory: %w", err)
		}
		r.spillDir = dir
	}

	sortEntries(r.buffer)
	sw, err := NewSpillWriter(r.spillDir, len(r.spills))
	if err != nil {
		return err
	}
	for i := range r.buffer {
		if err := sw.Write(&r.buffer[i]); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write spill: %w", err)
		}
	}
	spill, err := sw.Close()
	if err != nil {
		return fmt.Errorf("failed to close spill: %w", err)
	}
	r.spills = append(r.spills, spill)

	r.log.WithFields(logrus.Fields{
		"entries": spill.Entries,
		"size_mb": fmt.Sprintf("%.1f", float64(spill.SizeBytes)/float64(MB)),
		"path":    spill.Path,
	}).Debug("spilled sort buffer")

	r.buffer = r.buffer[:0]
	r.bufferBytes = 0
	return nil
}

func (r *nativeRun) write(ctx context.Context, out io.Writer) error {
	w := bufio.NewWriterSize(out, 1*MB)
	for _, h := range r.headers {
		if _, err := w.WriteString(h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	sortEntries(r.buffer)
	sources := make([]source, 0, len(r.spills)+1)
	for _, spill := range r.spills {
		sr, err := NewSpillReader(spill.Path)
		if err != nil {
			return err
		}
		defer sr.Close()
		sources = append(sources, sr)
	}
	sources = append(sources, &memorySource{entries: r.buffer})

	written := 0
	err := kWayMerge(sources, func(e *Entry) error {
		written++
		if written%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(e.Line); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush sort output: %w", err)
	}
	return nil
}

func (r *nativeRun) cleanup() {
	if r.spillDir != "" {
		os.RemoveAll(r.spillDir)
	}
}
