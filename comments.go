package vorbistag

import (
	"github.com/simonhull/vorbistag/internal/types"
	"github.com/simonhull/vorbistag/internal/vorbis"
)

// Comments is an alias to types.Comments. Re-exporting from
// internal/types keeps the public API in this package while internal
// packages share the type.
//
// Comments is an ordered multimap: duplicate keys are legal, keys
// compare case-insensitively, and entry order survives a save/open
// round trip. Mutate it through its methods, then call File.Save:
//
//	file.Comments.Set("TITLE", "Persistence of Loss")
//	file.Comments.Add("GENRE", "Ambient")
//	file.Comments.Add("GENRE", "Drone")
//	if err := file.Save(); err != nil {
//	    return err
//	}
type Comments = types.Comments

// StreamInfo is an alias to types.StreamInfo: the identification-header
// fields of the target stream plus its scanned duration.
type StreamInfo = types.StreamInfo

// NewComments returns an empty comment block with the given vendor
// string. Files opened from disk carry their own block; this is for
// building blocks in tests or from scratch.
func NewComments(vendor string) *Comments {
	return types.NewComments(vendor)
}

// IsValidKey reports whether key can be written as a comment field
// name: non-empty, printable ASCII 0x20 through 0x7D, '=' excluded.
// Save rejects blocks containing invalid keys before touching the file.
func IsValidKey(key string) bool {
	return vorbis.ValidKey(key)
}
