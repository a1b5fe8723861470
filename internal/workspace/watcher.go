package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// skipDirs are never watched
var skipDirs = map[string]struct{}{
	"vendor":       {},
	"node_modules": {},
	".git":         {},
}

// ScanFunc receives the result of every debounced rescan
type ScanFunc func(*ScanResult, error)

// Watcher rescans a plugin directory after file system changes settle
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	scanner  *Scanner
	debounce time.Duration
	onScan   ScanFunc
	logger   logrus.FieldLogger

	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
}

// NewWatcher creates a new watcher for the given root directory
func NewWatcher(root string, scanner *Scanner, debounce time.Duration, onScan ScanFunc, logger logrus.FieldLogger) (*Watcher, error) {
	absRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	if scanner == nil {
		return nil, errors.New("watcher requires a scanner")
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  w,
		root:     absRoot,
		scanner:  scanner,
		debounce: debounce,
		onScan:   onScan,
		logger:   logger.WithField("root", absRoot),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins watching. It returns
// immediately; the watch ends when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	started := false
	w.startOnce.Do(func() {
		started = true
		w.addTree(w.root)
		w.logger.Info("watcher started")
		go w.watchLoop(ctx)
	})
	if !started {
		return errors.New("watcher already started")
	}
	return nil
}

// Stop ends the watch and waits for an in-flight rescan to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	started := true
	w.startOnce.Do(func() {
		// never started: release the fsnotify handle here
		started = false
		_ = w.watcher.Close()
	})
	if started {
		<-w.done
	}
}

func (w *Watcher) addTree(root string) {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (skipDir(filepath.Base(path)) || w.excluded(path, true)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.WithError(err).WithField("path", path).Warn("unable to watch directory")
		}
		return nil
	})
	if err != nil {
		w.logger.WithError(err).Warn("error walking directory for watcher setup")
	}
}

// excluded applies the scanner's exclude globs to an absolute path
func (w *Watcher) excluded(path string, isDir bool) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return w.scanner.excluded(filepath.ToSlash(rel), isDir)
}

func skipDir(base string) bool {
	if _, skip := skipDirs[base]; skip {
		return true
	}
	return strings.HasPrefix(base, ".")
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)
	defer w.watcher.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}

			// quiet period restarts on every relevant change
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.rescan(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("watcher error")

		case <-ctx.Done():
			return

		case <-w.stopChan:
			return
		}
	}
}

// relevant filters out chmod noise, excluded paths and non-PHP files, and
// starts watching newly created directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if skipDir(filepath.Base(event.Name)) || w.excluded(event.Name, true) {
				return false
			}
			w.addTree(event.Name)
			return true
		}
	}

	if w.excluded(event.Name, false) {
		return false
	}

	if strings.EqualFold(filepath.Ext(event.Name), ".php") {
		return true
	}
	// a removed or renamed directory takes its PHP files with it
	return event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *Watcher) rescan(ctx context.Context) {
	w.logger.Info("file changes detected, rescanning")
	result, err := w.scanner.Scan(ctx, w.root)
	if err != nil {
		w.logger.WithError(err).Error("rescan failed")
	} else {
		w.logger.WithField("files", result.Stats.Files).Info("rescan complete")
	}
	if w.onScan != nil {
		w.onScan(result, err)
	}
}
