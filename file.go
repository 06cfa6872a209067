package vorbistag

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/vorbistag/internal/binary"
	"github.com/simonhull/vorbistag/internal/ogg"
)

// File represents an opened Ogg Vorbis file: the target stream's
// technical properties and its parsed comment block.
//
// Open reads headers and scans for the stream duration; audio payload
// is never loaded into memory. Edit Comments in place, then call Save
// to splice the new block into the file.
//
// Always call Close() when done to release the file handle:
//
//	file, err := vorbistag.Open("song.ogg")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
type File struct {
	// Path to the file
	Path string

	// File size in bytes, refreshed by Save
	Size int64

	// Technical properties of the target stream
	Info StreamInfo

	// Parsed comment block. Mutate it, then call Save.
	Comments *Comments

	// Internal state (unexported)
	reader        io.ReaderAt // file handle
	commentOffset int64       // page offset where the comment packet starts
}

// Open opens an Ogg Vorbis file and reads its headers.
//
// The target stream is the first one in the file that declares a Vorbis
// identification packet; pages of other multiplexed streams are skipped.
// Parsing is strict: a corrupt page anywhere in the header region, a
// missing comment packet, or a failed duration scan fails the open.
//
// Options can be provided to customize the scan:
//
//	file, err := vorbistag.Open("song.ogg",
//	    vorbistag.WithResumeOffset(offset),
//	)
//
// Example:
//
//	file, err := vorbistag.Open("song.ogg")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
//	fmt.Printf("%s - %s\n", file.Comments.GetFirst("ARTIST"), file.Comments.GetFirst("TITLE"))
func Open(path string, opts ...Option) (*File, error) {
	// Apply options
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	file, err := openReader(f, stat.Size(), path, options)
	if err != nil {
		f.Close()
		return nil, err
	}

	// Keep the file handle for the duration of the File
	file.reader = f

	return file, nil
}

// openReader parses headers from an io.ReaderAt (internal, for testing)
func openReader(r io.ReaderAt, size int64, path string, options *openOptions) (*File, error) {
	sr := binary.NewSafeReader(r, size, path)

	info, next, err := ogg.ReadInfo(sr, options.resumeOffset)
	if err != nil {
		return nil, err
	}

	comments, commentOffset, err := ogg.ReadComments(sr, info.Serial, next)
	if err != nil {
		return nil, err
	}

	if err := ogg.ReadDuration(sr, info); err != nil {
		return nil, err
	}

	return &File{
		Path:          path,
		Size:          size,
		Info:          *info,
		Comments:      comments,
		commentOffset: commentOffset,
	}, nil
}

// Close releases resources held by the file.
//
// After Close is called, the File should not be used.
func (f *File) Close() error {
	if closer, ok := f.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// OpenContext opens a file with context support for cancellation.
//
// This is a thin wrapper around Open() that checks context before
// starting; header parsing itself is fast enough not to need
// incremental cancellation.
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	file, err := vorbistag.OpenContext(ctx, "song.ogg")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
func OpenContext(ctx context.Context, path string, opts ...Option) (*File, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Open(path, opts...)
}

// OpenMany opens multiple files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths.
//
// If any file fails to open, all successfully opened files are closed
// and an error is returned.
//
// Example:
//
//	files, err := vorbistag.OpenMany(ctx, paths...)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer func() {
//		for _, f := range files {
//			f.Close()
//		}
//	}()
func OpenMany(ctx context.Context, paths ...string) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU()) // Limit concurrent operations

	results := make([]*File, len(paths))

	for i, path := range paths {
		i, path := i, path // Capture loop variables
		g.Go(func() error {
			// Check for cancellation
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			file, err := Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Close any successfully opened files
		for _, file := range results {
			if file != nil {
				file.Close()
			}
		}
		return nil, err
	}

	return results, nil
}
