package batch

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher tags .ogg files as they appear in a directory.
type Watcher struct {
	Applier *Applier

	// Debounce is the quiet period before a batch runs, so a file
	// still being copied in settles before it is opened. Defaults to
	// 500ms.
	Debounce time.Duration
}

// Run watches dir until ctx is done, applying the rules to files that
// are created or rewritten there. Arrivals within one debounce window
// are tagged as a single batch.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	log := w.Applier.Log
	log.Info().Str("dir", dir).Msg("watching")

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".ogg") {
				continue
			}
			pending[event.Name] = struct{}{}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			slices.Sort(paths)
			clear(pending)

			if err := w.Applier.Run(ctx, paths); err != nil {
				log.Error().Err(err).Msg("batch failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watch error")
		}
	}
}
