package data

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to source files. Editors often save through a
// rename, so the containing directories are watched and events are filtered
// to the source paths. A path is reported after it has been quiet for the
// debounce interval.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]bool
	debounce time.Duration

	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(sources []Source, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	paths := make(map[string]bool, len(sources))
	dirs := make(map[string]bool)
	for _, src := range sources {
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher:  w,
		paths:    paths,
		debounce: debounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

// run reports a path once no new event for it has arrived for the debounce
// interval, so a save written in several steps is seen only when complete.
func (w *Watcher) run() {
	defer close(w.done)

	pending := make(map[string]time.Time) // path -> quiet deadline
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	arm := func() {
		var next time.Time
		for _, d := range pending {
			if next.IsZero() || d.Before(next) {
				next = d
			}
		}
		if !next.IsZero() {
			timer.Reset(time.Until(next))
		}
	}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.paths[abs] {
				continue
			}
			pending[abs] = time.Now().Add(w.debounce)
			arm()

		case <-timer.C:
			now := time.Now()
			var due []string
			for p, d := range pending {
				if !d.After(now) {
					due = append(due, p)
				}
			}
			sort.Strings(due)
			for _, p := range due {
				delete(pending, p)
				select {
				case w.Events <- p:
				case <-w.closeCh:
					return
				}
			}
			arm()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}
