package main

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Watches dir recursively, ignoring directories that match patterns in excludes
// which are checked with filepath.Match. Events are batched and sent in groups
// at most every 100ms.
func watch(dir string, excludes []string, logger log.Logger) chan []fsnotify.Event {
	w, err := fsnotify.NewWatcher()
	ch := make(chan []fsnotify.Event)

	if err != nil {
		level.Error(logger).Log("msg", "could not start watcher", "err", err)
		return ch
	}

	go func() {
		defer w.Close()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		queue := []fsnotify.Event{}
		watched := []string{}

		for {
			for _, dir := range watched {
				w.Remove(dir)
			}
			watched = watched[:0]

			filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					for _, pat := range excludes {
						if match, _ := filepath.Match(pat, path); match {
							return filepath.SkipDir
						}
					}
					if err := w.Add(path); err == nil {
						watched = append(watched, path)
					}
				}
				return nil
			})

		polling:
			for {
				select {
				case err := <-w.Errors:
					level.Warn(logger).Log("msg", "watcher error", "err", err)
				case e := <-w.Events:
					if e.Op != fsnotify.Chmod {
						level.Debug(logger).Log("msg", "changed", "file", e.Name, "op", e.Op)
						queue = append(queue, e)
					}
				case <-ticker.C:
					if len(queue) > 0 {
						ch <- queue
						queue = []fsnotify.Event{}
						break polling
					}
				}
			}
		}
	}()

	return ch
}
