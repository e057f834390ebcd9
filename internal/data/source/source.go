// Package source opens input files, transparently decompressing gzip and
// zstd payloads.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression suffixes recognised by Open.
const (
	SuffixGzip = ".gz"
	SuffixZstd = ".zst"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Open opens path for reading. Compressed content is detected from the
// magic bytes, so a ".gz" or ".zst" suffix is not required.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &multiCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
}

// ReadFile reads and decompresses the whole file.
func ReadFile(path string) ([]byte, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// NewReader wraps r with a decompressor when its content starts with a gzip
// or zstd frame header.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return dec.IOReadCloser(), nil
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, nil
	}
	return io.NopCloser(br), nil
}

// Ext returns the extension of path after dropping a compression suffix,
// lower-cased: "palette.json.zst" -> ".json".
func Ext(path string) string {
	p := strings.ToLower(path)
	for _, s := range []string{SuffixGzip, SuffixZstd} {
		p = strings.TrimSuffix(p, s)
	}
	return filepath.Ext(p)
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
