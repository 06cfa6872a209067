// Command vorbistag reads and edits Vorbis comments in Ogg files.
//
// Usage:
//
//	vorbistag show album/*.ogg
//	vorbistag set song.ogg -c TITLE="New Title" -c ARTIST="Someone"
//	vorbistag del song.ogg --key COMMENT
//	vorbistag apply --manifest rules.toml music/
//	vorbistag watch --manifest rules.toml incoming/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/simonhull/vorbistag"
)

var logger zerolog.Logger

func main() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "vorbistag",
		Short:         "Read and edit Vorbis comments in Ogg files",
		Version:       vorbistag.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var quiet bool
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if quiet {
			logger = logger.Level(zerolog.WarnLevel)
		}
	}

	root.AddCommand(
		newShowCmd(),
		newSetCmd(),
		newDelCmd(),
		newClearCmd(),
		newApplyCmd(),
		newWatchCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("vorbistag")
		os.Exit(1)
	}
}

// saveFlags are the write-behavior flags shared by every editing command.
type saveFlags struct {
	backup      string
	verify      bool
	keepModTime bool
}

func (sf *saveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sf.backup, "backup", "", "copy the original aside with this suffix before writing (e.g. .bak)")
	cmd.Flags().BoolVar(&sf.verify, "verify", false, "re-read each file after writing and compare")
	cmd.Flags().BoolVar(&sf.keepModTime, "keep-mtime", false, "preserve file modification times")
}

func (sf *saveFlags) options() []vorbistag.SaveOption {
	var opts []vorbistag.SaveOption
	if sf.backup != "" {
		opts = append(opts, vorbistag.WithBackup(sf.backup))
	}
	if sf.verify {
		opts = append(opts, vorbistag.WithValidation())
	}
	if sf.keepModTime {
		opts = append(opts, vorbistag.WithPreserveModTime())
	}
	return opts
}
