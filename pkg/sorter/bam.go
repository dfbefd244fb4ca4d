package sorter

import (
	"fmt"
	"io"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// IsBAM reports whether path names a BAM file
func IsBAM(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".bam")
}

// BAMToSAM decodes a BAM stream and returns it as SAM text, header first.
// Decoding runs in its own goroutine until the returned reader is closed or
// drained.
func BAMToSAM(r io.Reader) (io.ReadCloser, error) {
	br, err := bam.NewReader(r, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create BAM reader: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		defer br.Close()
		pw.CloseWithError(copyBAM(br, pw))
	}()
	return pr, nil
}

func copyBAM(br *bam.Reader, w io.Writer) error {
	sw, err := sam.NewWriter(w, br.Header(), sam.FlagDecimal)
	if err != nil {
		return fmt.Errorf("failed to write SAM header: %w", err)
	}

	for {
		rec, err := br.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read BAM record: %w", err)
		}
		if err := sw.Write(rec); err != nil {
			return fmt.Errorf("failed to write SAM record: %w", err)
		}
	}
}
