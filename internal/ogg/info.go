package ogg

import (
	"bytes"
	"fmt"
	"time"

	"github.com/simonhull/vorbistag/internal/binary"
	"github.com/simonhull/vorbistag/internal/types"
	"github.com/simonhull/vorbistag/internal/vorbis"
)

// Packet type markers opening the three header packets.
const (
	identMarker   = "\x01vorbis"
	commentMarker = "\x03vorbis"
	setupMarker   = "\x05vorbis"
)

// identPacketSize is the full fixed identification packet: marker,
// version, channels, sample rate, three bitrate bounds, blocksizes,
// framing bit.
const identPacketSize = 30

// tailWindow is how far back the fast final-page scan looks.
const tailWindow = 64 * 1024

// ReadInfo scans pages from offset until it finds an identification
// packet and returns the stream fields it declares, plus the offset of
// the page after it.
//
// The scan is strict: any undecodable page fails it. The identification
// packet must open the first page of its stream.
func ReadInfo(sr *binary.SafeReader, offset int64) (*types.StreamInfo, int64, error) {
	if offset < 0 {
		offset = 0
	}
	for offset < sr.Size() {
		page, next, err := readPage(sr, offset)
		if err != nil {
			return nil, 0, err
		}
		offset = next

		frags := page.fragments()
		if len(frags) == 0 || !page.startsPacket(0) || !bytes.HasPrefix(frags[0], []byte(identMarker)) {
			continue
		}
		if !page.First() {
			return nil, 0, &types.NoHeaderError{
				Path:   sr.Path(),
				Reason: "identification packet outside the first page of its stream",
			}
		}
		info, err := parseIdent(sr.Path(), frags[0])
		if err != nil {
			return nil, 0, err
		}
		info.Serial = page.SerialNumber
		return info, next, nil
	}
	return nil, 0, &types.NoHeaderError{Path: sr.Path(), Reason: "no identification packet found"}
}

// parseIdent extracts the identification fields. Layout after the
// 7-byte marker: version uint32, channels uint8, sample rate uint32,
// then bitrate maximum, nominal, and minimum as int32, all
// little-endian. Negative bitrate bounds mean "unset" and clamp to
// zero.
func parseIdent(path string, packet []byte) (*types.StreamInfo, error) {
	if len(packet) < identPacketSize {
		return nil, &types.NoHeaderError{
			Path:   path,
			Reason: fmt.Sprintf("identification packet truncated at %d bytes", len(packet)),
		}
	}
	if v := binary.Uint32(packet[7:11]); v != 0 {
		return nil, &types.NoHeaderError{
			Path:   path,
			Reason: fmt.Sprintf("unsupported codec version %d", v),
		}
	}
	return &types.StreamInfo{
		Channels:       int(packet[11]),
		SampleRate:     int(binary.Uint32(packet[12:16])),
		BitrateMaximum: clampBitrate(binary.Uint32(packet[16:20])),
		BitrateNominal: clampBitrate(binary.Uint32(packet[20:24])),
		BitrateMinimum: clampBitrate(binary.Uint32(packet[24:28])),
	}, nil
}

func clampBitrate(v uint32) int {
	if n := int32(v); n > 0 {
		return int(n)
	}
	return 0
}

// ReadComments scans pages from offset for the target stream's comment
// packet, reassembles it across page boundaries, and parses the block.
// It also returns the offset of the page where the packet starts, which
// a later splice can resume from.
//
// Pages of other streams are skipped; pages of the target stream are
// collected until one either completes a packet or carries more than
// one fragment, at which point the comment packet is necessarily whole.
func ReadComments(sr *binary.SafeReader, serial uint32, offset int64) (*types.Comments, int64, error) {
	if offset < 0 {
		offset = 0
	}
	var collected []*Page
	start := int64(-1)
	for offset < sr.Size() {
		page, next, err := readPage(sr, offset)
		if err != nil {
			return nil, 0, err
		}
		offset = next

		if page.SerialNumber != serial {
			continue
		}
		frags := page.fragments()
		if start < 0 {
			if len(frags) == 0 || !page.startsPacket(0) || !bytes.HasPrefix(frags[0], []byte(commentMarker)) {
				continue
			}
			start = page.Offset
		}
		collected = append(collected, page)

		if page.Complete() || len(frags) > 1 {
			packets, _, err := toPackets(collected)
			if err != nil {
				return nil, 0, err
			}
			comments, err := vorbis.Parse(packets[0][len(commentMarker):])
			if err != nil {
				return nil, 0, fmt.Errorf("%s: %w", sr.Path(), err)
			}
			return comments, start, nil
		}
	}
	return nil, 0, &types.NoHeaderError{Path: sr.Path(), Reason: "no comment packet found"}
}

// ReadDuration infers the stream duration from granule positions and
// stores it on info.
//
// Fast path: decode the last page signature in the file's tail window.
// If that page belongs to the target stream and carries a granule
// position, the duration follows directly. Anything else, including a
// stray capture pattern inside the final page's payload, falls back to
// a linear scan tracking the target stream's highest granule position;
// the scan ends at the first page flagged last-of-stream for any
// serial. A tail window without a single page signature fails with
// NoHeaderError.
func ReadDuration(sr *binary.SafeReader, info *types.StreamInfo) error {
	if info.SampleRate <= 0 {
		return fmt.Errorf("%s: cannot compute duration: sample rate is zero", sr.Path())
	}

	granule, ok, err := tailGranule(sr, info.Serial)
	if err != nil {
		return err
	}
	if !ok {
		if granule, err = scanLastGranule(sr, info.Serial); err != nil {
			return err
		}
	}
	info.Duration = granuleDuration(granule, info.SampleRate)
	return nil
}

// tailGranule reports the granule position of the last page signature
// in the tail window. A window without any signature fails outright.
// ok is false when the candidate cannot be decoded, belongs to another
// stream, or ends no packet; the caller falls back to a linear scan.
func tailGranule(sr *binary.SafeReader, serial uint32) (int64, bool, error) {
	n := min(sr.Size(), int64(tailWindow))
	buf := make([]byte, n)
	if err := sr.ReadAt(buf, sr.Size()-n, "final page window"); err != nil {
		return 0, false, err
	}
	i := bytes.LastIndex(buf, []byte(pageMagic))
	if i < 0 {
		return 0, false, &types.NoHeaderError{
			Path:   sr.Path(),
			Reason: fmt.Sprintf("no page signature in the final %d bytes", n),
		}
	}
	page, _, err := readPage(sr, sr.Size()-n+int64(i))
	if err != nil || page.SerialNumber != serial || page.GranulePosition < 0 {
		return 0, false, nil
	}
	return page.GranulePosition, true, nil
}

// scanLastGranule walks every page from the start of the file, tracking
// the highest granule position seen for the target stream. The walk
// ends at the first page flagged last-of-stream, whichever stream that
// page belongs to: the multiplex is over at that point.
func scanLastGranule(sr *binary.SafeReader, serial uint32) (int64, error) {
	granule := int64(-1)
	seen := false
	offset := int64(0)
	for offset < sr.Size() {
		page, next, err := readPage(sr, offset)
		if err != nil {
			return 0, err
		}
		offset = next
		if page.SerialNumber == serial {
			seen = true
			granule = max(granule, page.GranulePosition)
		}
		if page.Last() {
			break
		}
	}
	if !seen {
		return 0, &types.NoHeaderError{
			Path:   sr.Path(),
			Reason: fmt.Sprintf("no pages for stream 0x%08x", serial),
		}
	}
	return max(granule, 0), nil
}

func granuleDuration(granule int64, sampleRate int) time.Duration {
	seconds := float64(granule) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second))
}
