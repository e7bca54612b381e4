package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a single file.
//
// The parent directory is watched rather than the file itself, so editors
// that save by writing a temporary file and renaming it are still seen.
type Watcher struct {
	path string
}

// NewWatcher creates a Watcher for the given file path.
func NewWatcher(path string) *Watcher {
	return &Watcher{path: path}
}

// Watch begins watching and returns a channel that receives a nudge whenever
// the file's contents change. Rewrites with identical contents are ignored,
// and so are events for other files in the directory. Removing the file
// counts as a change. Pending nudges coalesce: the channel holds at most one.
//
// The channel is closed when ctx is done. Watch fails if the directory does
// not exist.
func (w *Watcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	target := filepath.Clean(w.path)
	last, present := w.digest()
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}

				sum, ok := w.digest()
				if ok == present && sum == last {
					continue
				}
				last, present = sum, ok

				select {
				case out <- struct{}{}:
				default:
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return out, nil
}

// digest hashes the current file contents. It reports false when the file
// cannot be read.
func (w *Watcher) digest() (uint64, bool) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(data), true
}
