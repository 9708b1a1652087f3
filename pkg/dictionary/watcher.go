package dictionary

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bastiangx/dotlabel/internal/logger"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events produced by one save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls onChange after the snapshot file is written or replaced.
// The parent directory is watched, since an atomic save replaces the file
// and a watch on the old inode would go silent.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	fsw      *fsnotify.Watcher
	log      *log.Logger
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWatcher creates and starts a watcher for path.
func NewWatcher(path string, debounce time.Duration, onChange func()) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		fsw:      fsw,
		log:      logger.Default("watch"),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	w.log.Debugf("watching %s", abs)
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warnf("watch error on %s: %v", w.path, err)
		case <-fire:
			fire = nil
			w.onChange()
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
