package ogg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/simonhull/vorbistag/internal/binary"
	"github.com/simonhull/vorbistag/internal/fileio"
	"github.com/simonhull/vorbistag/internal/types"
)

// Inject replaces the target stream's comment packet with body (the
// serialized comment block, marker excluded) by splicing re-fragmented
// pages into the file in place.
//
// The pages from the one where the comment packet starts through the
// one where the setup packet starts are rebuilt as a unit: those two
// packets share pages, so neither can be rewritten alone. The rebuilt
// pages reuse the first old page's sequence number, and when the page
// count changes, every later page of the stream is renumbered so the
// sequence stays contiguous.
//
// Everything checkable is checked before the first write. The write
// phase itself is not atomic: an I/O failure mid-splice leaves the file
// structurally invalid. Callers needing crash safety keep a copy.
//
// resumeOffset may be any known page boundary at or before the comment
// packet; zero is always safe. The scan resynchronizes from there.
func Inject(f fileio.File, path string, serial uint32, body []byte, resumeOffset int64) error {
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	sr := binary.NewSafeReader(f, fi.Size(), path)

	oldPages, err := collectCommentPages(sr, serial, resumeOffset)
	if err != nil {
		return err
	}

	packets, complete, err := toPackets(oldPages)
	if err != nil {
		return err
	}
	// The run must hold exactly the comment packet and the setup packet
	// (the latter possibly spilling past the last collected page).
	if len(packets) != 2 {
		return &types.StructureError{
			Path:   path,
			Reason: fmt.Sprintf("comment region carries %d packets, want 2 (comment, setup)", len(packets)),
		}
	}
	packets[0] = append([]byte(commentMarker), body...)

	newPages := fromPackets(packets, serial, oldPages[0].SequenceNumber, 0)
	last := newPages[len(newPages)-1]
	if !complete {
		// The old run ended mid-setup-packet, so the rebuilt run must
		// leave it open too: drop the zero segment that closed it. If
		// that zero was the page's only segment, drop the page as well.
		n := len(last.Lacing)
		if n == 0 || last.Lacing[n-1] != 0 {
			return fmt.Errorf("ogg: internal: cannot reopen setup packet")
		}
		last.Lacing = last.Lacing[:n-1]
		if len(last.Lacing) == 0 {
			newPages = newPages[:len(newPages)-1]
			last = newPages[len(newPages)-1]
		} else if !anySegmentCloses(last.Lacing) {
			last.GranulePosition = -1
		}
	}
	last.SetLast(oldPages[len(oldPages)-1].Last())

	var blob []byte
	for _, page := range newPages {
		enc, err := page.Encode()
		if err != nil {
			return err
		}
		blob = append(blob, enc...)
	}

	// Write phase. Nothing below is atomic.
	start := oldPages[0].Offset
	if err := fileio.InsertSpace(f, start, int64(len(blob))); err != nil {
		return err
	}
	if _, err := f.WriteAt(blob, start); err != nil {
		return fmt.Errorf("%s: write rebuilt pages: %w", path, err)
	}

	// Remove the old pages, highest offset first, so the shifted
	// positions of the ones still pending stay valid.
	for i := len(oldPages) - 1; i >= 0; i-- {
		page := oldPages[i]
		if err := fileio.DeleteBytes(f, page.Offset+int64(len(blob)), int64(page.Size())); err != nil {
			return err
		}
	}

	if len(newPages) != len(oldPages) {
		end := start + int64(len(blob))
		if err := renumber(f, path, serial, last.SequenceNumber+1, end); err != nil {
			return err
		}
	}
	return nil
}

// collectCommentPages gathers the target stream's pages from the one
// where the comment packet starts through the one whose final fragment
// begins the setup packet. Pages of other streams in between are left
// alone.
func collectCommentPages(sr *binary.SafeReader, serial uint32, offset int64) ([]*Page, error) {
	page, next, err := findPage(sr, offset)
	if err == io.EOF {
		return nil, &types.NoHeaderError{Path: sr.Path(), Reason: "no comment packet found"}
	}
	if err != nil {
		return nil, err
	}

	var pages []*Page
	for {
		if page.SerialNumber == serial {
			frags := page.fragments()
			if len(pages) == 0 {
				if len(frags) > 0 && page.startsPacket(0) && bytes.HasPrefix(frags[0], []byte(commentMarker)) {
					pages = append(pages, page)
				}
			} else {
				pages = append(pages, page)
			}
			if len(pages) > 0 && len(frags) > 0 {
				i := len(frags) - 1
				if page.startsPacket(i) && bytes.HasPrefix(frags[i], []byte(setupMarker)) {
					return pages, nil
				}
			}
		}

		if next >= sr.Size() {
			break
		}
		page, next, err = readPage(sr, next)
		if err != nil {
			return nil, err
		}
	}

	if len(pages) == 0 {
		return nil, &types.NoHeaderError{Path: sr.Path(), Reason: "no comment packet found"}
	}
	return nil, &types.StructureError{Path: sr.Path(), Reason: "setup packet does not follow the comment packet"}
}

// renumber rewrites the sequence numbers of the target stream's pages
// from offset onward so they continue contiguously from next, redoing
// each page's checksum in place. Every rewrite keeps the page size, so
// offsets of later pages never move. Pages of other streams are
// traversed untouched.
func renumber(f fileio.File, path string, serial uint32, next uint32, offset int64) error {
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	sr := binary.NewSafeReader(f, fi.Size(), path)

	for offset < sr.Size() {
		page, after, err := readPage(sr, offset)
		if err != nil {
			return err
		}
		if page.SerialNumber == serial {
			page.SequenceNumber = next
			next++
			enc, err := page.Encode()
			if err != nil {
				return err
			}
			if _, err := f.WriteAt(enc, offset); err != nil {
				return fmt.Errorf("%s: renumber page at offset %d: %w", path, offset, err)
			}
		}
		offset = after
	}
	return nil
}
