// Package storage opens inputs and publishes outputs on the local
// filesystem or S3. Paths ending in .zst are zstd-compressed.
package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Options configures remote access and staging
type Options struct {
	Region  string      // AWS region, empty for the default chain
	TempDir string      // staging directory for S3 objects, os.TempDir() when empty
	Store   ObjectStore // nil creates an S3Client on first use
}

func (o *Options) store(ctx context.Context) (ObjectStore, error) {
	if o.Store == nil {
		client, err := NewS3Client(ctx, o.Region)
		if err != nil {
			return nil, err
		}
		o.Store = client
	}
	return o.Store, nil
}

// Open returns a reader over the (decompressed) contents of a local path or
// S3 object.
func Open(ctx context.Context, p string, opts *Options) (io.ReadCloser, error) {
	var rc io.ReadCloser
	if IsS3URI(p) {
		uri, err := ParseS3URI(p)
		if err != nil {
			return nil, err
		}
		store, err := opts.store(ctx)
		if err != nil {
			return nil, err
		}
		if rc, err = store.Get(ctx, uri); err != nil {
			return nil, err
		}
	} else {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", p, err)
		}
		rc = f
	}

	if IsCompressed(p) {
		return NewDecompressor(rc)
	}
	return rc, nil
}

// Stage makes p available as an uncompressed local file. Plain local paths
// are returned unchanged. S3 objects and .zst files are written to a
// temporary file that cleanup removes.
func Stage(ctx context.Context, p string, opts *Options) (local string, cleanup func(), err error) {
	noop := func() {}
	if !IsS3URI(p) && !IsCompressed(p) {
		return p, noop, nil
	}

	base := strings.TrimSuffix(path.Base(filepath.ToSlash(p)), ".zst")
	f, err := os.CreateTemp(opts.TempDir, "umidedup-stage-*-"+base)
	if err != nil {
		return "", noop, fmt.Errorf("failed to create staging file: %w", err)
	}
	cleanup = func() { os.Remove(f.Name()) }
	defer func() {
		if err != nil {
			f.Close()
			cleanup()
			cleanup = noop
		}
	}()

	if IsS3URI(p) && !IsCompressed(p) {
		uri, err := ParseS3URI(p)
		if err != nil {
			return "", noop, err
		}
		store, err := opts.store(ctx)
		if err != nil {
			return "", noop, err
		}
		if _, err := store.Download(ctx, uri, f); err != nil {
			return "", noop, err
		}
	} else {
		rc, err := Open(ctx, p, opts)
		if err != nil {
			return "", noop, err
		}
		defer rc.Close()
		if _, err := io.Copy(f, rc); err != nil {
			return "", noop, fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}

	if err := f.Close(); err != nil {
		return "", noop, fmt.Errorf("failed to close staging file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// Output is a destination that only appears once committed. Writes go to a
// temporary file next to a local destination, or in TempDir for S3.
type Output struct {
	ctx  context.Context
	dest string
	uri  *S3URI
	opts *Options
	file *os.File
	buf  *bufio.Writer
	zw   *zstd.Encoder
	w    io.Writer
	done bool
}

// OutputMode is the permission of published local outputs
const OutputMode os.FileMode = 0644

// Create starts a new output for p
func Create(ctx context.Context, p string, opts *Options) (*Output, error) {
	o := &Output{ctx: ctx, dest: p, opts: opts}

	dir := filepath.Dir(p)
	if IsS3URI(p) {
		uri, err := ParseS3URI(p)
		if err != nil {
			return nil, err
		}
		o.uri = uri
		dir = opts.TempDir
	}

	f, err := os.CreateTemp(dir, "."+path.Base(filepath.ToSlash(p))+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	o.file = f
	if o.uri == nil {
		// CreateTemp makes 0600 files and the rename keeps that mode
		if err := f.Chmod(OutputMode); err != nil {
			o.Abort()
			return nil, fmt.Errorf("failed to set output mode: %w", err)
		}
	}
	o.buf = bufio.NewWriterSize(f, 1024*1024)
	o.w = o.buf

	if IsCompressed(p) {
		zw, err := NewCompressor(o.buf)
		if err != nil {
			o.Abort()
			return nil, err
		}
		o.zw = zw
		o.w = zw
	}
	return o, nil
}

// Path returns the final destination
func (o *Output) Path() string {
	return o.dest
}

func (o *Output) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

func (o *Output) closeFile() error {
	if o.zw != nil {
		if err := o.zw.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	}
	if err := o.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := o.file.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// Commit publishes the output: a rename for local paths, an upload for S3.
// On error the temporary file is removed and nothing is published.
func (o *Output) Commit() error {
	if o.done {
		return fmt.Errorf("output %s already closed", o.dest)
	}
	o.done = true
	tmp := o.file.Name()
	defer os.Remove(tmp)

	if err := o.closeFile(); err != nil {
		return err
	}

	if o.uri == nil {
		if err := os.Rename(tmp, o.dest); err != nil {
			return fmt.Errorf("failed to publish %s: %w", o.dest, err)
		}
		return nil
	}

	store, err := o.opts.store(o.ctx)
	if err != nil {
		return err
	}
	f, err := os.Open(tmp)
	if err != nil {
		return fmt.Errorf("failed to reopen output: %w", err)
	}
	defer f.Close()
	return store.Upload(o.ctx, o.uri, f)
}

// Abort discards the output. It is a no-op after Commit.
func (o *Output) Abort() error {
	if o.done {
		return nil
	}
	o.done = true
	o.file.Close()
	if err := os.Remove(o.file.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temporary output: %w", err)
	}
	return nil
}
