package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/vorbistag"
)

func newShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show FILE...",
		Short: "Print stream properties and comments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := vorbistag.OpenMany(cmd.Context(), args...)
			if err != nil {
				return err
			}
			defer func() {
				for _, f := range files {
					f.Close()
				}
			}()

			if asJSON {
				return printJSON(files)
			}
			for i, f := range files {
				if i > 0 {
					fmt.Println()
				}
				printFile(f)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of text")
	return cmd
}

func printFile(f *vorbistag.File) {
	fmt.Println(f.Path)
	fmt.Printf("  stream 0x%08x: %d Hz, %d ch, %d kbps, %s\n",
		f.Info.Serial, f.Info.SampleRate, f.Info.Channels,
		f.Info.Bitrate()/1000, f.Info.Duration.Round(time.Millisecond))
	fmt.Printf("  vendor: %s\n", f.Comments.Vendor)
	for key, value := range f.Comments.All() {
		fmt.Printf("  %s=%s\n", key, value)
	}
}

type fileJSON struct {
	Path       string      `json:"path"`
	Serial     uint32      `json:"serial"`
	SampleRate int         `json:"sample_rate"`
	Channels   int         `json:"channels"`
	Bitrate    int         `json:"bitrate"`
	DurationMS int64       `json:"duration_ms"`
	Vendor     string      `json:"vendor"`
	Comments   [][2]string `json:"comments"`
}

func printJSON(files []*vorbistag.File) error {
	out := make([]fileJSON, 0, len(files))
	for _, f := range files {
		j := fileJSON{
			Path:       f.Path,
			Serial:     f.Info.Serial,
			SampleRate: f.Info.SampleRate,
			Channels:   f.Info.Channels,
			Bitrate:    f.Info.Bitrate(),
			DurationMS: f.Info.Duration.Milliseconds(),
			Vendor:     f.Comments.Vendor,
			Comments:   make([][2]string, 0, f.Comments.Len()),
		}
		for key, value := range f.Comments.All() {
			j.Comments = append(j.Comments, [2]string{key, value})
		}
		out = append(out, j)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
