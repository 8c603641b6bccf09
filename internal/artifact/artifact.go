// Package artifact writes build outputs into the output directory. Every file
// is staged under a temporary name and renamed into place, so a reader never
// observes a partially written bundle.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
)

// CompressedExtension is appended to the name of an lz4-compressed copy.
const CompressedExtension = ".lz4"

const (
	tmpExtension = ".tmp"
	filePerm     = 0o644
	dirPerm      = 0o755
)

// ErrInvalidName reports an artifact name that would escape the output directory.
var ErrInvalidName = errors.New("artifact name must be a bare file name")

// Writer stages and publishes files in one directory.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter returns a Writer for dir on fs. A nil fs means the OS filesystem.
func NewWriter(fs afero.Fs, dir string) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Writer{fs: fs, dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the final path of name inside the output directory.
func (w *Writer) Path(name string) string { return filepath.Join(w.dir, name) }

// Write publishes data as name.
func (w *Writer) Write(name string, data []byte) (string, error) {
	return w.WriteWith(name, func(dst io.Writer) error {
		_, err := dst.Write(data)

		return err
	})
}

// WriteCompressed publishes data as an lz4 frame named name+".lz4" and
// returns the path and the compressed size.
func (w *Writer) WriteCompressed(name string, data []byte) (string, int, error) {
	counter := &countingWriter{}

	path, err := w.WriteWith(name+CompressedExtension, func(dst io.Writer) error {
		counter.w = dst

		zw := lz4.NewWriter(counter)

		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("lz4 write: %w", err)
		}

		if err := zw.Close(); err != nil {
			return fmt.Errorf("lz4 close: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", 0, err
	}

	return path, counter.n, nil
}

// WriteWith stages the bytes produced by fn and renames them to name. The
// output directory is created when missing. On failure the staged file is
// removed and any existing file called name is left untouched.
func (w *Writer) WriteWith(name string, fn func(io.Writer) error) (string, error) {
	if filepath.Base(name) != name || name == "." || name == ".." || name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if err := w.fs.MkdirAll(w.dir, dirPerm); err != nil {
		return "", fmt.Errorf("artifact mkdir %s: %w", w.dir, err)
	}

	finalPath := w.Path(name)
	tmpPath := finalPath + tmpExtension

	fd, err := w.fs.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return "", fmt.Errorf("artifact create: %w", err)
	}

	if err := fn(fd); err != nil {
		fd.Close()
		w.discard(tmpPath)

		return "", fmt.Errorf("artifact write %s: %w", name, err)
	}

	if err := fd.Sync(); err != nil {
		fd.Close()
		w.discard(tmpPath)

		return "", fmt.Errorf("artifact sync: %w", err)
	}

	if err := fd.Close(); err != nil {
		w.discard(tmpPath)

		return "", fmt.Errorf("artifact close: %w", err)
	}

	if err := w.fs.Rename(tmpPath, finalPath); err != nil {
		w.discard(tmpPath)

		return "", fmt.Errorf("artifact rename: %w", err)
	}

	return finalPath, nil
}

func (w *Writer) discard(path string) {
	_ = w.fs.Remove(path)
}

// Decompress reads a whole lz4 frame.
func Decompress(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer

	if _, err := io.Copy(&buf, lz4.NewReader(r)); err != nil {
		return nil, fmt.Errorf("lz4 read: %w", err)
	}

	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n

	return n, err
}
