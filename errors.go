package vorbistag

import (
	"github.com/simonhull/vorbistag/internal/types"
)

// The typed errors live in internal/types so every internal package can
// construct them; the aliases here are their public names. Match them
// with errors.As:
//
//	var gap *vorbistag.GapError
//	if errors.As(err, &gap) {
//	    log.Printf("stream 0x%08x is missing pages", gap.Serial)
//	}

// CorruptFrameError reports a page that failed capture-pattern,
// version, or checksum validation.
type CorruptFrameError = types.CorruptFrameError

// GapError reports non-contiguous page sequence numbers within one
// logical stream, which makes packet reassembly unreliable.
type GapError = types.GapError

// StructureError reports header packets that violate the
// identification/comment/setup layout in-place editing depends on.
// The file has not been modified when Save returns it.
type StructureError = types.StructureError

// NoHeaderError reports a header scan that came up empty: no
// identification packet, no comment packet for the target stream, or
// no page signature near the end of the file.
type NoHeaderError = types.NoHeaderError

// OutOfBoundsError reports a read past the end of the file, usually
// meaning the file is truncated.
type OutOfBoundsError = types.OutOfBoundsError
