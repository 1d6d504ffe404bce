// Package watcher reports when a local file's content changes.
//
// It feeds edits made in an external editor into an analysis session. The
// session's own debounce window decides when those edits reach the analyzer,
// so the watcher only reports what changed.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/zeromicro/go-zero/core/logx"
)

// FileWatcher reports content changes of a single file.
//
// It watches the file's directory rather than the file, so editors that save
// by writing a temporary file and renaming it over the original are still
// seen.
type FileWatcher struct {
	path     string
	onChange func(content string)

	content string
	seen    bool
}

// NewWatcher creates a watcher for path. onChange runs on the Run goroutine
// with the full new content.
func NewWatcher(path string, onChange func(content string)) *FileWatcher {
	return &FileWatcher{
		path:     path,
		onChange: onChange,
	}
}

// Run reports the current content once, then every change until ctx is
// done. A file that disappears is not an error; the watcher waits for it to
// come back.
func (w *FileWatcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if err := w.check(abs); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := w.check(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logx.Errorf("watch %s: %v", w.path, err)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logx.Errorf("watch %s: %v", w.path, err)
		}
	}
}

// check reads the file and reports content that differs from the last report.
func (w *FileWatcher) check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(data)
	if w.seen && content == w.content {
		return nil
	}
	w.seen = true
	w.content = content
	logx.Debugf("watch %s: %d bytes", w.path, len(data))
	if w.onChange != nil {
		w.onChange(content)
	}
	return nil
}
