package vorbistag

// Option configures how files are opened.
//
// Options use the functional options pattern:
//
//	file, err := vorbistag.Open("song.ogg",
//	    vorbistag.WithResumeOffset(offset),
//	)
type Option func(*openOptions)

// openOptions holds configuration for Open operations.
type openOptions struct {
	// resumeOffset is the page boundary the header scan starts from
	resumeOffset int64
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		resumeOffset: 0,
	}
}

// WithResumeOffset starts the header scan at a known page boundary
// instead of the start of the file.
//
// Useful when a previous pass over the same file recorded where the
// target stream's headers live, for instance to skip the pages of other
// multiplexed streams. The offset must be an exact page boundary; the
// scan is strict and does not resynchronize.
//
// Example:
//
//	file, err := vorbistag.Open("concert.ogg",
//	    vorbistag.WithResumeOffset(headerStart),
//	)
func WithResumeOffset(offset int64) Option {
	return func(o *openOptions) {
		o.resumeOffset = offset
	}
}
