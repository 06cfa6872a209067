package types

import "fmt"

// OutOfBoundsError is returned when a read would go past the end of the
// file. During header scans this usually means the file is truncated.
type OutOfBoundsError struct {
	Path   string // file being read
	What   string // description of what was being read
	Offset int64  // where the read started
	Length int    // how many bytes were requested
	Size   int64  // actual file size
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (file size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// CorruptFrameError is returned when the page at a given offset fails
// capture-pattern, version, or checksum validation.
type CorruptFrameError struct {
	Path   string // file being read
	Offset int64  // offset of the bad page
	Reason string // what failed
}

func (e *CorruptFrameError) Error() string {
	return fmt.Sprintf("%s: corrupt page at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// GapError is returned when page sequence numbers within one logical
// stream are not contiguous, so packet reassembly cannot trust the
// segment tables.
type GapError struct {
	Serial uint32 // logical stream id
	Want   uint32 // expected sequence number
	Got    uint32 // sequence number actually seen
}

func (e *GapError) Error() string {
	return fmt.Sprintf("stream 0x%08x: page sequence gap: want %d, got %d", e.Serial, e.Want, e.Got)
}

// StructureError is returned when a stream's header packets violate the
// identification/comment/setup layout that in-place comment editing
// depends on. The file has not been modified when this is returned.
type StructureError struct {
	Path   string
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: invalid stream structure: %s", e.Path, e.Reason)
}

// NoHeaderError is returned when a header scan comes up empty: no
// identification packet in the file, no comment packet for the target
// stream, no pages at all for the stream a scan was asked about, or no
// page signature anywhere in the final-page search window.
type NoHeaderError struct {
	Path   string
	Reason string
}

func (e *NoHeaderError) Error() string {
	return fmt.Sprintf("%s: header not found: %s", e.Path, e.Reason)
}
