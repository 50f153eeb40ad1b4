// Package compress packs evidence files with gzip or lz4.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// ErrTooLarge is returned when decoded output exceeds the caller's limit.
var ErrTooLarge = errors.New("decompressed output exceeds limit")

// Format selects the container format.
type Format string

const (
	Gzip Format = "gzip"
	LZ4  Format = "lz4"
)

// ParseFormat accepts "gzip"/"gz" and "lz4". Empty means gzip.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gzip", "gz":
		return Gzip, nil
	case "lz4":
		return LZ4, nil
	}
	return "", fmt.Errorf("unsupported compression format %q", name)
}

// Extension returns the conventional file suffix, including the dot.
func (f Format) Extension() string {
	if f == LZ4 {
		return ".lz4"
	}
	return ".gz"
}

// ContentType returns the MIME type of the compressed stream.
func (f Format) ContentType() string {
	if f == LZ4 {
		return "application/x-lz4"
	}
	return "application/gzip"
}

// Compress writes src to dst in format f.
func Compress(f Format, dst io.Writer, src io.Reader) error {
	var w io.WriteCloser
	switch f {
	case Gzip:
		w = gzip.NewWriter(dst)
	case LZ4:
		w = lz4.NewWriter(dst)
	default:
		return fmt.Errorf("unsupported compression format %q", f)
	}

	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return fmt.Errorf("compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}
	return nil
}

// Decompress writes the decoded form of src to dst.
func Decompress(f Format, dst io.Writer, src io.Reader) error {
	return DecompressLimit(f, dst, src, 0)
}

// DecompressLimit is Decompress with at most limit decoded bytes written
// to dst; a larger stream fails with ErrTooLarge. A limit <= 0 means no
// limit.
func DecompressLimit(f Format, dst io.Writer, src io.Reader, limit int64) error {
	var r io.Reader
	switch f {
	case Gzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return fmt.Errorf("decompression failed: %w", err)
		}
		defer zr.Close()
		r = zr
	case LZ4:
		r = lz4.NewReader(src)
	default:
		return fmt.Errorf("unsupported compression format %q", f)
	}

	if limit <= 0 {
		if _, err := io.Copy(dst, r); err != nil {
			return fmt.Errorf("decompression failed: %w", err)
		}
		return nil
	}

	n, err := io.Copy(dst, io.LimitReader(r, limit+1))
	if err != nil {
		return fmt.Errorf("decompression failed: %w", err)
	}
	if n > limit {
		return fmt.Errorf("%w of %d bytes", ErrTooLarge, limit)
	}
	return nil
}

// Bytes compresses data in memory.
func Bytes(f Format, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := Compress(f, &buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnBytes decompresses data in memory.
func UnBytes(f Format, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := Decompress(f, &buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Ratio is compressed size over original size; 1 for empty input.
func Ratio(original, compressed int) float64 {
	if original == 0 {
		return 1.0
	}
	return float64(compressed) / float64(original)
}
