// Package vorbistag reads and edits Vorbis comments in Ogg files,
// rewriting only the header pages and leaving audio data untouched.
//
// # Quick Start
//
// Reading and editing comments:
//
//	file, err := vorbistag.Open("song.ogg")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer file.Close()
//
//	fmt.Printf("%s - %s (%s)\n",
//		file.Comments.GetFirst("ARTIST"),
//		file.Comments.GetFirst("TITLE"),
//		file.Info.Duration)
//
//	file.Comments.Set("TITLE", "New Title")
//	if err := file.Save(); err != nil {
//		log.Fatal(err)
//	}
//
// # How Saving Works
//
// The comment packet shares container pages with the codec setup
// packet, so neither can be rewritten alone. Save re-fragments both
// packets into fresh pages, splices them over the old ones by shifting
// the rest of the file, and renumbers the stream's later pages when the
// page count changes. Checksums are recomputed for every page written.
//
// The splice happens in place. Everything checkable is validated before
// the first write, but an I/O failure mid-splice leaves the file
// structurally invalid. For irreplaceable files, keep a copy:
//
//	err := file.Save(
//		vorbistag.WithBackup(".bak"),
//		vorbistag.WithValidation(),
//	)
//
// # Multiplexed Files
//
// Files that interleave several logical streams are handled: the target
// is the first stream declaring a Vorbis identification packet, and
// pages of other streams are traversed without being modified.
//
// # Error Handling
//
// Parsing is strict. A corrupt page, a sequence gap, or a malformed
// header fails the operation with a typed error (CorruptFrameError,
// GapError, StructureError, NoHeaderError, OutOfBoundsError) that
// errors.As can pick apart:
//
//	var corrupt *vorbistag.CorruptFrameError
//	if errors.As(err, &corrupt) {
//		log.Printf("bad page at offset %d: %s", corrupt.Offset, corrupt.Reason)
//	}
//
// Structure validation runs before any mutation, so a file that fails
// Save with StructureError or NoHeaderError is byte-for-byte unchanged.
//
// # Concurrency
//
// Open many files in parallel with OpenMany:
//
//	files, err := vorbistag.OpenMany(ctx, paths...)
//
// A single File is not safe for concurrent use, and two Files must not
// save to the same path at once.
package vorbistag
