package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives the re-loaded configuration, or the load error.
// Exactly one of cfg and err is non-nil.
type ReloadFunc func(cfg *Config, err error)

// debounceWindow coalesces the write bursts editors produce on save.
const debounceWindow = 100 * time.Millisecond

// Watcher re-loads a config file whenever it changes on disk. The parent
// directory is watched rather than the file itself, so atomic
// rename-over-save and late creation are both picked up.
type Watcher struct {
	path   string
	reload ReloadFunc

	fw   *fsnotify.Watcher
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewWatcher starts watching path and invokes reload after each change.
func NewWatcher(path string, reload ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:   abs,
		reload: reload,
		fw:     fw,
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timerC
				}
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload(Load(w.path))

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.reload(nil, err)
		}
	}
}
