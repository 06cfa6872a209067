package vorbistag

import (
	"fmt"
	"os"

	"github.com/simonhull/vorbistag/internal/fileio"
	"github.com/simonhull/vorbistag/internal/ogg"
	"github.com/simonhull/vorbistag/internal/vorbis"
)

// Save serializes the comment block and splices it into the file in
// place, shifting the rest of the file as needed and renumbering later
// pages of the stream when the header page count changes. Audio data is
// never re-encoded or rewritten, only moved.
//
// Everything checkable happens before the first write: the comment keys
// are validated during serialization, and the header structure is
// verified during the pre-write scan. The splice itself is not atomic;
// a crash or I/O failure mid-write leaves the file structurally
// invalid. Use WithBackup to keep a recovery copy:
//
//	err := file.Save(
//	    vorbistag.WithBackup(".bak"),
//	    vorbistag.WithValidation(),
//	)
//
// A File must not be saved concurrently with other operations on the
// same underlying file.
func (f *File) Save(opts ...SaveOption) error {
	// Apply options
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}

	// Serialize first: a bad key or value fails the save before the
	// file is touched.
	body, err := vorbis.Marshal(f.Comments)
	if err != nil {
		return err
	}

	// Get original file's mod time if we need to preserve it
	var origModTime os.FileInfo
	if options.preserveModTime {
		info, err := os.Stat(f.Path)
		if err == nil {
			origModTime = info
		}
	}

	if options.backupSuffix != "" {
		if err := fileio.CopyFile(f.Path+options.backupSuffix, f.Path); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
	}

	h, err := os.OpenFile(f.Path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open for writing: %w", err)
	}
	if err := ogg.Inject(h, f.Path, f.Info.Serial, body, f.commentOffset); err != nil {
		_ = h.Close() //nolint:errcheck // Best effort cleanup
		return err
	}
	if err := h.Close(); err != nil {
		return fmt.Errorf("close after write: %w", err)
	}

	// The splice may have grown or shrunk the file
	if stat, err := os.Stat(f.Path); err == nil {
		f.Size = stat.Size()
	}

	// Handle preserveModTime option
	if options.preserveModTime && origModTime != nil {
		_ = os.Chtimes(f.Path, origModTime.ModTime(), origModTime.ModTime()) //nolint:errcheck // Non-fatal: file was written successfully
	}

	// Handle validate option (re-open and compare)
	if options.validate {
		if err := f.validateWrittenFile(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

// Delete removes every comment entry and saves. The vendor string is
// part of the stream's provenance, not of the user metadata, so it is
// kept.
func (f *File) Delete(opts ...SaveOption) error {
	f.Comments.Clear()
	return f.Save(opts...)
}

// validateWrittenFile re-opens the file and compares the comment block
// read back against the one just written.
func (f *File) validateWrittenFile() error {
	written, err := Open(f.Path)
	if err != nil {
		return fmt.Errorf("re-open: %w", err)
	}
	defer written.Close() //nolint:errcheck // Best effort close

	if !written.Comments.Equal(f.Comments) {
		return fmt.Errorf("comments read back differently: got %d entries, want %d",
			written.Comments.Len(), f.Comments.Len())
	}
	return nil
}
