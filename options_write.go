package vorbistag

// SaveOption configures behavior when saving files.
//
// Options use the functional options pattern:
//
//	err := file.Save(
//	    vorbistag.WithBackup(".bak"),
//	    vorbistag.WithValidation(),
//	)
type SaveOption func(*saveOptions)

// saveOptions holds configuration for saving files.
type saveOptions struct {
	backupSuffix    string // Suffix for backup file (e.g., ".bak")
	validate        bool   // Re-read after write to verify
	preserveModTime bool   // Keep original modification time
}

// defaultSaveOptions returns the default configuration for saving.
func defaultSaveOptions() *saveOptions {
	return &saveOptions{
		backupSuffix:    "",
		validate:        false,
		preserveModTime: false,
	}
}

// WithBackup copies the original file aside before saving.
//
// The backup file gets the specified suffix appended to the original
// filename: WithBackup(".bak") copies "song.ogg" to "song.ogg.bak"
// before modifying "song.ogg". An existing backup is overwritten.
//
// Because Save splices the file in place rather than writing a new
// copy, an I/O failure mid-write can leave the file invalid. The backup
// is the recovery path for that case.
//
// Example:
//
//	err := file.Save(vorbistag.WithBackup(".bak"))
//	// Original preserved as song.ogg.bak
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-reads the file after writing to verify integrity.
//
// After saving, the file is re-opened and parsed, and the comment block
// read back is compared against what was written. This adds a full
// header scan of overhead but catches splice failures immediately.
//
// Example:
//
//	err := file.Save(vorbistag.WithValidation())
//	// File is re-read after save to verify
func WithValidation() SaveOption {
	return func(o *saveOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
//
// By default, saving updates the file's modification time to the
// current time. This option restores the original time after the
// splice, so tools tracking "modified" dates see no change.
//
// Example:
//
//	err := file.Save(vorbistag.WithPreserveModTime())
//	// File modification time unchanged
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) {
		o.preserveModTime = true
	}
}
