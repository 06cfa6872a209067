package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/vorbistag"
)

// Applier runs one rule set against many files concurrently.
type Applier struct {
	Log         zerolog.Logger
	Rules       *Rules
	Concurrency int // goroutine cap, defaults to runtime.NumCPU()
	SaveOptions []vorbistag.SaveOption
}

// Run applies the rules to every path. A file that fails is logged and
// counted, not fatal to the batch; Run reports the failure count at the
// end. Cancelling ctx stops the batch between files.
func (a *Applier) Run(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	limit := a.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var failed atomic.Int64
	for _, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err := a.applyOne(path); err != nil {
				failed.Add(1)
				a.Log.Error().Err(err).Str("file", path).Msg("tagging failed")
				return nil
			}
			a.Log.Info().Str("file", path).Msg("tagged")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(paths))
	}
	return nil
}

func (a *Applier) applyOne(path string) error {
	file, err := vorbistag.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	a.Rules.Apply(file.Comments)
	return file.Save(a.SaveOptions...)
}

// CollectFiles expands the argument list: directories are walked
// recursively for .ogg files, plain files pass through as given.
func CollectFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".ogg") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}
