// Package watch drives the builders' --watch mode: rebuild an archive after
// changes to the staging directories settle.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/sscc/internal/debug"
)

// DefaultDebounce batches bursts of staging-tree writes into one rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Dirs blocks watching the given directories recursively and calls onChange
// after events settle for the debounce interval. It returns when stop is
// closed. Directories created while watching are picked up.
func Dirs(dirs []string, debounce time.Duration, stop <-chan struct{}, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := addRecursive(w, dir); err != nil {
			return err
		}
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			debug.Log("WATCH", "event: %s\n", ev)
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(w, ev.Name); err != nil {
						debug.Log("WATCH", "cannot watch %s: %v\n", ev.Name, err)
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			debug.Log("WATCH", "watcher error: %v\n", err)
		case <-timerC:
			timer = nil
			timerC = nil
			onChange()
		}
	}
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
