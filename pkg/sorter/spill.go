package sorter

import (
	"bufio"
	"container/heap"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Entry is one buffered line with its sort key. Seq is the input order and
// breaks ties so the sort is stable across spills.
type Entry struct {
	Rank int
	Pos  int
	Seq  int64
	Line string
}

func (e *Entry) less(o *Entry) bool {
	if e.Rank != o.Rank {
		return e.Rank < o.Rank
	}
	if e.Pos != o.Pos {
		return e.Pos < o.Pos
	}
	return e.Seq < o.Seq
}

// SpillFile tracks a sorted run on disk
type SpillFile struct {
	Path      string
	Entries   int
	SizeBytes int64
}

// SpillWriter writes sorted entries to a zstd-compressed gob stream
type SpillWriter struct {
	file    *os.File
	writer  *bufio.Writer
	zw      *zstd.Encoder
	encoder *gob.Encoder
	count   int
}

// NewSpillWriter creates spill file number spillNum in dir
func NewSpillWriter(dir string, spillNum int) (*SpillWriter, error) {
	path := filepath.Join(dir, fmt.Sprintf("spill-%04d.gob.zst", spillNum))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	writer := bufio.NewWriterSize(file, 1*MB)
	zw, err := zstd.NewWriter(writer, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	return &SpillWriter{
		file:    file,
		writer:  writer,
		zw:      zw,
		encoder: gob.NewEncoder(zw),
	}, nil
}

// Write appends one entry
func (sw *SpillWriter) Write(e *Entry) error {
	if err := sw.encoder.Encode(e); err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	sw.count++
	return nil
}

// Close flushes and closes the spill file
func (sw *SpillWriter) Close() (SpillFile, error) {
	if err := sw.zw.Close(); err != nil {
		sw.file.Close()
		return SpillFile{}, fmt.Errorf("failed to close zstd stream: %w", err)
	}
	if err := sw.writer.Flush(); err != nil {
		sw.file.Close()
		return SpillFile{}, fmt.Errorf("failed to flush writer: %w", err)
	}

	path := sw.file.Name()
	if err := sw.file.Close(); err != nil {
		return SpillFile{}, fmt.Errorf("failed to close file: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return SpillFile{}, fmt.Errorf("failed to stat file: %w", err)
	}

	return SpillFile{
		Path:      path,
		Entries:   sw.count,
		SizeBytes: stat.Size(),
	}, nil
}

// source is one sorted input of the merge
type source interface {
	Peek() (*Entry, error)
	Next() (*Entry, error)
}

// SpillReader reads entries back from a spill file
type SpillReader struct {
	file    *os.File
	zr      *zstd.Decoder
	decoder *gob.Decoder
	current *Entry
	err     error
	eof     bool
}

// NewSpillReader opens a spill file and loads its first entry
func NewSpillReader(path string) (*SpillReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spill file: %w", err)
	}

	zr, err := zstd.NewReader(bufio.NewReaderSize(file, 1*MB), zstd.WithDecoderConcurrency(1))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	sr := &SpillReader{
		file:    file,
		zr:      zr,
		decoder: gob.NewDecoder(zr),
	}
	sr.advance()
	return sr, nil
}

func (sr *SpillReader) advance() {
	if sr.eof {
		return
	}

	var e Entry
	if err := sr.decoder.Decode(&e); err != nil {
		if err == io.EOF {
			sr.eof = true
			sr.current = nil
		} else {
			sr.err = fmt.Errorf("failed to decode %s: %w", sr.file.Name(), err)
		}
		return
	}
	sr.current = &e
}

// Peek returns the current entry without advancing
func (sr *SpillReader) Peek() (*Entry, error) {
	if sr.err != nil {
		return nil, sr.err
	}
	if sr.eof {
		return nil, io.EOF
	}
	return sr.current, nil
}

// Next returns the current entry and advances
func (sr *SpillReader) Next() (*Entry, error) {
	current, err := sr.Peek()
	if err != nil {
		return nil, err
	}
	sr.advance()
	return current, nil
}

// Close closes the spill reader
func (sr *SpillReader) Close() error {
	sr.zr.Close()
	return sr.file.Close()
}

// memorySource serves the sorted in-memory remainder
type memorySource struct {
	entries []Entry
	idx     int
}

func (m *memorySource) Peek() (*Entry, error) {
	if m.idx >= len(m.entries) {
		return nil, io.EOF
	}
	return &m.entries[m.idx], nil
}

func (m *memorySource) Next() (*Entry, error) {
	e, err := m.Peek()
	if err == nil {
		m.idx++
	}
	return e, err
}

type mergeItem struct {
	entry *Entry
	src   int
}

// mergeHeap implements heap.Interface for the k-way merge
type mergeHeap []mergeItem

func (h mergeHeap) Len() int           { return len(h) }
func (h mergeHeap) Less(i, j int) bool { return h[i].entry.less(h[j].entry) }
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x interface{}) {
	*h = append(*h, x.(mergeItem))
}

func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// kWayMerge streams the union of sorted sources to emit in order
func kWayMerge(sources []source, emit func(*Entry) error) error {
	h := &mergeHeap{}
	push := func(i int) error {
		e, err := sources[i].Peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read sorted run %d: %w", i, err)
		}
		heap.Push(h, mergeItem{entry: e, src: i})
		return nil
	}

	for i := range sources {
		if err := push(i); err != nil {
			return err
		}
	}

	for h.Len() > 0 {
		item := heap.Pop(h).(mergeItem)
		if err := emit(item.entry); err != nil {
			return err
		}
		if _, err := sources[item.src].Next(); err != nil {
			return fmt.Errorf("failed to advance sorted run %d: %w", item.src, err)
		}
		if err := push(item.src); err != nil {
			return err
		}
	}
	return nil
}
