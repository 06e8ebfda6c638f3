// Package textio opens line-oriented input files, transparently
// decompressing gzip content.
package textio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

// scannerBufferSize bounds the longest accepted line. Annotation rows for
// well-studied genes can carry hundreds of terms.
const scannerBufferSize = 4 << 20

// Reader is an input stream that closes both the decompressor and the file.
type Reader struct {
	io.Reader
	file *os.File
	gz   *gzip.Reader
}

// Open opens path for reading. Gzip input is detected by its magic bytes
// rather than the file extension. Use "-" for stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return wrap(os.Stdin, nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := wrap(f, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// NewReader wraps an existing stream, decompressing it if it is gzipped.
func NewReader(r io.Reader) (*Reader, error) {
	return wrap(r, nil)
}

func wrap(src io.Reader, file *os.File) (*Reader, error) {
	br := bufio.NewReader(src)
	r := &Reader{Reader: br, file: file}

	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.gz = gz
		r.Reader = gz
	}
	return r, nil
}

// Close closes the decompressor and the underlying file, if any.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// NewScanner returns a line scanner with a buffer large enough for long
// annotation rows.
func NewScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), scannerBufferSize)
	return s
}
