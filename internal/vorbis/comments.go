// Package vorbis parses and serializes the Vorbis comment block: a
// vendor string plus an ordered list of length-prefixed "KEY=VALUE"
// entries, all UTF-8, all lengths little-endian uint32.
package vorbis

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/simonhull/vorbistag/internal/binary"
	"github.com/simonhull/vorbistag/internal/types"
)

// Parse decodes a comment block. The packet type marker must already be
// stripped; data starts at the vendor length.
//
// The framing byte closing the block must have its low bit set when
// present, but a block cut exactly after its last entry is accepted:
// the packet boundary already delimits it, and such blocks exist in the
// wild.
func Parse(data []byte) (*types.Comments, error) {
	off := 0
	if len(data)-off < 4 {
		return nil, fmt.Errorf("comment block truncated reading vendor length")
	}
	vendorLen := int(binary.Uint32(data[off : off+4]))
	off += 4
	if len(data)-off < vendorLen {
		return nil, fmt.Errorf("comment block truncated reading vendor string (%d bytes)", vendorLen)
	}
	vendor := string(data[off : off+vendorLen])
	off += vendorLen

	if len(data)-off < 4 {
		return nil, fmt.Errorf("comment block truncated reading entry count")
	}
	count := int(binary.Uint32(data[off : off+4]))
	off += 4

	comments := types.NewComments(vendor)
	for i := 0; i < count; i++ {
		if len(data)-off < 4 {
			return nil, fmt.Errorf("comment block truncated reading length of entry %d", i)
		}
		entryLen := int(binary.Uint32(data[off : off+4]))
		off += 4
		if len(data)-off < entryLen {
			return nil, fmt.Errorf("comment block truncated reading entry %d (%d bytes)", i, entryLen)
		}
		entry := string(data[off : off+entryLen])
		off += entryLen

		key, value, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("comment entry %d has no '=' separator", i)
		}
		if !utf8.ValidString(entry) {
			return nil, fmt.Errorf("comment entry %d is not valid UTF-8", i)
		}
		comments.Add(key, value)
	}

	if off < len(data) && data[off]&0x01 == 0 {
		return nil, fmt.Errorf("comment block framing bit unset")
	}
	return comments, nil
}

// Marshal serializes a comment block, marker excluded, closing it with
// a framing byte. Keys are validated here so a bad key fails the write
// before any file mutation.
func Marshal(comments *types.Comments) ([]byte, error) {
	buf := &bytes.Buffer{}
	sw := binary.NewSafeWriter(buf)

	if err := binary.WriteLE(sw, uint32(len(comments.Vendor))); err != nil {
		return nil, err
	}
	if err := sw.WriteString(comments.Vendor); err != nil {
		return nil, err
	}
	if err := binary.WriteLE(sw, uint32(comments.Len())); err != nil {
		return nil, err
	}

	for key, value := range comments.All() {
		if !ValidKey(key) {
			return nil, fmt.Errorf("invalid comment key %q", key)
		}
		if !utf8.ValidString(value) {
			return nil, fmt.Errorf("comment value for %q is not valid UTF-8", key)
		}
		entry := key + "=" + value
		if err := binary.WriteLE(sw, uint32(len(entry))); err != nil {
			return nil, err
		}
		if err := sw.WriteString(entry); err != nil {
			return nil, err
		}
	}

	if err := binary.WriteLE(sw, uint8(0x01)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ValidKey reports whether key is legal as a comment field name:
// non-empty, printable ASCII 0x20 through 0x7D, '=' excluded.
func ValidKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x20 || key[i] > 0x7d || key[i] == '=' {
			return false
		}
	}
	return true
}
