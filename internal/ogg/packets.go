package ogg

import (
	"fmt"
	"slices"

	"github.com/simonhull/vorbistag/internal/types"
)

// toPackets reassembles the packets carried by an ordered run of pages
// from one logical stream.
//
// Packet boundaries come from the segment tables alone: every segment
// shorter than the maximum closes the packet in progress, including
// zero-length segments. The complete flag is false when the final
// packet runs past the last page; its accumulated prefix is still
// returned as the last element.
//
// The pages must be contiguous. A sequence-number hole fails with
// *types.GapError, since a missing page makes every later packet
// boundary unreliable. Passing a page from a different stream is a
// caller bug and fails outright.
func toPackets(pages []*Page) ([][]byte, bool, error) {
	if len(pages) == 0 {
		return nil, true, nil
	}
	serial := pages[0].SerialNumber
	want := pages[0].SequenceNumber

	var packets [][]byte
	var pending []byte
	for _, page := range pages {
		if page.SerialNumber != serial {
			return nil, false, fmt.Errorf("ogg: page of stream 0x%08x handed to reassembly of stream 0x%08x",
				page.SerialNumber, serial)
		}
		if page.SequenceNumber != want {
			return nil, false, &types.GapError{Serial: serial, Want: want, Got: page.SequenceNumber}
		}
		want++

		off := 0
		for _, lace := range page.Lacing {
			pending = append(pending, page.Data[off:off+int(lace)]...)
			off += int(lace)
			if lace < maxSegment {
				packets = append(packets, pending)
				pending = nil
			}
		}
	}
	if pending != nil {
		packets = append(packets, pending)
		return packets, false, nil
	}
	return packets, true, nil
}

// fromPackets fragments packets into pages for one stream, numbering
// them from sequence.
//
// Each packet is cut into maximum-size segments with a short, possibly
// empty, final segment closing it. A page closes when its segment table
// fills, and the spilling packet marks the next page as continued.
// Granule positions are zero except on pages where no packet ends,
// which get -1. Stream flags are left for the caller to set.
//
// breakAfter lists packet indexes that must close their page, so the
// following packet starts on a fresh one.
func fromPackets(packets [][]byte, serial, sequence uint32, breakAfter ...int) []*Page {
	var pages []*Page

	newPage := func(continued bool) *Page {
		p := &Page{SerialNumber: serial, SequenceNumber: sequence, Offset: -1}
		sequence++
		if continued {
			p.HeaderType = flagContinued
		}
		return p
	}
	closePage := func(p *Page) {
		if !anySegmentCloses(p.Lacing) {
			p.GranulePosition = -1
		}
		pages = append(pages, p)
	}

	page := newPage(false)
	for i, packet := range packets {
		rem := packet
		placed := false
		for {
			if len(page.Lacing) == maxSegments {
				closePage(page)
				page = newPage(placed)
			}
			seg := min(len(rem), maxSegment)
			page.Lacing = append(page.Lacing, byte(seg))
			page.Data = append(page.Data, rem[:seg]...)
			rem = rem[seg:]
			placed = true
			if seg < maxSegment {
				break
			}
		}
		if i < len(packets)-1 && slices.Contains(breakAfter, i) {
			closePage(page)
			page = newPage(false)
		}
	}
	if len(page.Lacing) > 0 {
		closePage(page)
	}
	return pages
}

// anySegmentCloses reports whether any segment ends a packet.
func anySegmentCloses(lacing []byte) bool {
	for _, lace := range lacing {
		if lace < maxSegment {
			return true
		}
	}
	return false
}
