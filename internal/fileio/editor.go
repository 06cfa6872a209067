// Package fileio provides in-place byte-region editing for seekable
// files: growing a file by inserting a hole at an offset, and shrinking
// it by cutting a range out. Trailing content is shifted in bounded
// chunks, so memory use stays flat regardless of file size.
package fileio

import (
	"fmt"
	"io"
	"os"
)

// moveChunk is the buffer size used when shifting trailing content.
const moveChunk = 64 * 1024

// File is the handle surface the region editor needs. *os.File satisfies it.
type File interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Stat() (os.FileInfo, error)
}

// InsertSpace grows the file by n bytes at offset, shifting everything
// from offset onward toward the end. The inserted region's content is
// undefined until the caller overwrites it.
func InsertSpace(f File, offset, n int64) error {
	if offset < 0 || n < 0 {
		return fmt.Errorf("insert space: invalid offset %d or length %d", offset, n)
	}
	if n == 0 {
		return nil
	}

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("insert space: %w", err)
	}
	size := info.Size()
	if offset > size {
		return fmt.Errorf("insert space: offset %d beyond file size %d", offset, size)
	}

	if err := f.Truncate(size + n); err != nil {
		return fmt.Errorf("insert space: grow file: %w", err)
	}

	// Shift [offset, size) up by n, back to front, so no chunk is
	// overwritten before it has been read.
	buf := make([]byte, moveChunk)
	remaining := size - offset
	for remaining > 0 {
		c := min(remaining, int64(moveChunk))
		src := offset + remaining - c
		if err := readFull(f, buf[:c], src); err != nil {
			return fmt.Errorf("insert space: %w", err)
		}
		if _, err := f.WriteAt(buf[:c], src+n); err != nil {
			return fmt.Errorf("insert space: write at %d: %w", src+n, err)
		}
		remaining -= c
	}
	return nil
}

// DeleteBytes removes the n bytes at offset, shifting everything after
// them toward the start and truncating the file.
func DeleteBytes(f File, offset, n int64) error {
	if offset < 0 || n < 0 {
		return fmt.Errorf("delete bytes: invalid offset %d or length %d", offset, n)
	}
	if n == 0 {
		return nil
	}

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("delete bytes: %w", err)
	}
	size := info.Size()
	if offset+n > size {
		return fmt.Errorf("delete bytes: range [%d, %d) beyond file size %d", offset, offset+n, size)
	}

	// Shift (offset+n, size) down by n, front to back.
	buf := make([]byte, moveChunk)
	for pos := offset + n; pos < size; {
		c := min(size-pos, int64(moveChunk))
		if err := readFull(f, buf[:c], pos); err != nil {
			return fmt.Errorf("delete bytes: %w", err)
		}
		if _, err := f.WriteAt(buf[:c], pos-n); err != nil {
			return fmt.Errorf("delete bytes: write at %d: %w", pos-n, err)
		}
		pos += c
	}

	if err := f.Truncate(size - n); err != nil {
		return fmt.Errorf("delete bytes: shrink file: %w", err)
	}
	return nil
}

// readFull reads exactly len(b) bytes at off. ReadAt may legally return
// io.EOF alongside a full read at the end of the file.
func readFull(f File, b []byte, off int64) error {
	n, err := f.ReadAt(b, off)
	if err != nil && !(err == io.EOF && n == len(b)) {
		return fmt.Errorf("read at %d: %w", off, err)
	}
	if n < len(b) {
		return fmt.Errorf("read at %d: got %d bytes, expected %d", off, n, len(b))
	}
	return nil
}
