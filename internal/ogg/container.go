// Package ogg implements the Ogg container framing used by Vorbis
// streams: the page codec, packet reassembly and fragmentation, header
// scanning, and the in-place comment splice.
package ogg

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/simonhull/vorbistag/internal/binary"
	"github.com/simonhull/vorbistag/internal/types"
)

const (
	// pageMagic is the capture pattern opening every page.
	pageMagic = "OggS"

	// headerSize is the fixed header length before the segment table.
	headerSize = 27

	// maxSegments is the segment-table capacity of one page.
	maxSegments = 255

	// maxSegment is the largest single segment. A segment of exactly
	// this size means its packet continues in the following segment,
	// or on the next page.
	maxSegment = 255
)

// Header type flag bits.
const (
	flagContinued = 0x01 // first segment continues a packet from the previous page
	flagFirst     = 0x02 // first page of a logical stream
	flagLast      = 0x04 // final page of a logical stream
)

// Page is one Ogg page, the physical framing unit of the container.
//
// Editing never mutates a decoded page's payload in place; new content
// is expressed as fresh pages and encoded.
type Page struct {
	HeaderType      byte
	GranulePosition int64  // stream progress counter, -1 when no packet ends in this page
	SerialNumber    uint32 // logical stream id
	SequenceNumber  uint32 // page index within its stream
	Lacing          []byte // segment table: fragment sizes 0-255, 255 meaning "continues"
	Data            []byte // payload, len(Data) == sum(Lacing)
	Offset          int64  // where the page was decoded from, -1 for synthesized pages
}

// Continued reports whether the first segment continues a packet begun
// on an earlier page of the same stream.
func (p *Page) Continued() bool { return p.HeaderType&flagContinued != 0 }

// First reports whether this is the first page of its logical stream.
func (p *Page) First() bool { return p.HeaderType&flagFirst != 0 }

// Last reports whether this is the final page of its logical stream.
func (p *Page) Last() bool { return p.HeaderType&flagLast != 0 }

// SetLast sets or clears the final-page flag.
func (p *Page) SetLast(v bool) {
	if v {
		p.HeaderType |= flagLast
	} else {
		p.HeaderType &^= flagLast
	}
}

// Complete reports whether the page's last packet fragment closes its
// packet, so nothing spills into the next page.
func (p *Page) Complete() bool {
	return len(p.Lacing) == 0 || p.Lacing[len(p.Lacing)-1] < maxSegment
}

// Size returns the encoded size of the page in bytes.
func (p *Page) Size() int {
	return headerSize + len(p.Lacing) + len(p.Data)
}

// fragments splits Data along the segment table into packet fragments:
// each run of maximum-size segments plus the short segment that closes
// it. A trailing run left open by the page boundary is included as the
// final fragment. The returned slices alias Data.
func (p *Page) fragments() [][]byte {
	var frags [][]byte
	start, off := 0, 0
	for _, lace := range p.Lacing {
		off += int(lace)
		if lace < maxSegment {
			frags = append(frags, p.Data[start:off])
			start = off
		}
	}
	if start < off {
		frags = append(frags, p.Data[start:off])
	}
	return frags
}

// startsPacket reports whether fragment i begins a new packet rather
// than continuing one from the previous page. Only the first fragment
// can be a continuation.
func (p *Page) startsPacket(i int) bool {
	return i > 0 || !p.Continued()
}

func (p *Page) String() string {
	return fmt.Sprintf("page{stream: 0x%08x, seq: %d, granule: %d, segments: %d, bytes: %d}",
		p.SerialNumber, p.SequenceNumber, p.GranulePosition, len(p.Lacing), len(p.Data))
}

// readPage decodes the page at exactly the given offset.
//
// Capture-pattern, version, and checksum failures return
// *types.CorruptFrameError; reads past the end of the file return
// *types.OutOfBoundsError. On success it also returns the offset of
// the byte after the page.
func readPage(sr *binary.SafeReader, offset int64) (*Page, int64, error) {
	header := make([]byte, headerSize)
	if err := sr.ReadAt(header, offset, "page header"); err != nil {
		return nil, 0, err
	}
	if string(header[0:4]) != pageMagic {
		return nil, 0, &types.CorruptFrameError{
			Path:   sr.Path(),
			Offset: offset,
			Reason: fmt.Sprintf("invalid capture pattern %q", header[0:4]),
		}
	}
	if header[4] != 0 {
		return nil, 0, &types.CorruptFrameError{
			Path:   sr.Path(),
			Offset: offset,
			Reason: fmt.Sprintf("unsupported stream structure version %d", header[4]),
		}
	}

	lacing := make([]byte, header[26])
	if err := sr.ReadAt(lacing, offset+headerSize, "segment table"); err != nil {
		return nil, 0, err
	}

	dataSize := 0
	for _, lace := range lacing {
		dataSize += int(lace)
	}
	data := make([]byte, dataSize)
	if err := sr.ReadAt(data, offset+headerSize+int64(len(lacing)), "page payload"); err != nil {
		return nil, 0, err
	}

	stored := binary.Uint32(header[22:26])
	binary.PutUint32(header[22:26], 0)
	crc := crcUpdate(0, header)
	crc = crcUpdate(crc, lacing)
	crc = crcUpdate(crc, data)
	if crc != stored {
		return nil, 0, &types.CorruptFrameError{
			Path:   sr.Path(),
			Offset: offset,
			Reason: fmt.Sprintf("checksum mismatch: computed 0x%08x, stored 0x%08x", crc, stored),
		}
	}

	page := &Page{
		HeaderType:      header[5],
		GranulePosition: int64(binary.Uint64(header[6:14])),
		SerialNumber:    binary.Uint32(header[14:18]),
		SequenceNumber:  binary.Uint32(header[18:22]),
		Lacing:          lacing,
		Data:            data,
		Offset:          offset,
	}
	return page, offset + int64(page.Size()), nil
}

// findPage scans forward from offset for the next decodable page. Byte
// runs that merely look like a page boundary (a stray capture pattern
// in payload data) fail decoding and are skipped. Returns io.EOF when
// no page starts at or after offset.
func findPage(sr *binary.SafeReader, offset int64) (*Page, int64, error) {
	const window = 64 * 1024
	magic := []byte(pageMagic)

	if offset < 0 {
		offset = 0
	}
	for offset < sr.Size() {
		n := min(int64(window), sr.Size()-offset)
		buf := make([]byte, n)
		if err := sr.ReadAt(buf, offset, "page search window"); err != nil {
			return nil, 0, err
		}

		at := 0
		for {
			i := bytes.Index(buf[at:], magic)
			if i < 0 {
				break
			}
			candidate := offset + int64(at+i)
			page, next, err := readPage(sr, candidate)
			if err == nil {
				return page, next, nil
			}
			var corrupt *types.CorruptFrameError
			var oob *types.OutOfBoundsError
			if !errors.As(err, &corrupt) && !errors.As(err, &oob) {
				return nil, 0, err
			}
			at += i + 1
		}

		// Overlap the window tail so a capture pattern straddling the
		// boundary is not missed.
		offset += max(n-int64(len(magic))+1, 1)
	}
	return nil, 0, io.EOF
}

// Encode serializes the page, computing and filling in its checksum.
func (p *Page) Encode() ([]byte, error) {
	if len(p.Lacing) > maxSegments {
		return nil, fmt.Errorf("ogg: page has %d segments, limit is %d", len(p.Lacing), maxSegments)
	}
	total := 0
	for _, lace := range p.Lacing {
		total += int(lace)
	}
	if total != len(p.Data) {
		return nil, fmt.Errorf("ogg: segment table sums to %d bytes, payload has %d", total, len(p.Data))
	}

	out := make([]byte, p.Size())
	copy(out[0:4], pageMagic)
	out[5] = p.HeaderType
	binary.PutUint64(out[6:14], uint64(p.GranulePosition))
	binary.PutUint32(out[14:18], p.SerialNumber)
	binary.PutUint32(out[18:22], p.SequenceNumber)
	out[26] = byte(len(p.Lacing))
	copy(out[headerSize:], p.Lacing)
	copy(out[headerSize+len(p.Lacing):], p.Data)
	binary.PutUint32(out[22:26], crcUpdate(0, out))
	return out, nil
}
