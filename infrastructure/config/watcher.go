package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"go.uber.org/zap"
)

// LexiconWatcher reloads the lexicon file when it changes on disk and swaps
// it into a ClassifierHolder. An invalid file leaves the current lexicon in place.
type LexiconWatcher struct {
	path     string
	holder   *ClassifierHolder
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	version  string
	onChange []func(emotion.Lexicon)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLexiconWatcher loads path into holder and prepares to watch it
func NewLexiconWatcher(path string, holder *ClassifierHolder, logger *zap.Logger) (*LexiconWatcher, error) {
	lex, version, err := LoadLexicon(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial lexicon: %w", err)
	}
	holder.Swap(lex)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// editors that save by rename replace the inode, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch lexicon directory: %w", err)
	}

	return &LexiconWatcher{
		path:     path,
		holder:   holder,
		watcher:  watcher,
		debounce: 100 * time.Millisecond,
		logger:   logger,
		version:  version,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in the background
func (w *LexiconWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Lexicon watcher started", zap.String("path", w.path))
}

// Stop ends the watch loop
func (w *LexiconWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Lexicon watcher stopped")
	})
}

// OnChange registers a callback run after every successful reload
func (w *LexiconWatcher) OnChange(fn func(emotion.Lexicon)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Version is the version field of the lexicon in use
func (w *LexiconWatcher) Version() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.version
}

func (w *LexiconWatcher) watchLoop() {
	var debounceTimer *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// reload re-reads the file and swaps the classifier
func (w *LexiconWatcher) reload() {
	lex, version, err := LoadLexicon(w.path)
	if err != nil {
		w.logger.Error("Invalid lexicon, keeping current", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.holder.Swap(lex)

	w.mu.Lock()
	previous := w.version
	w.version = version
	callbacks := append([]func(emotion.Lexicon){}, w.onChange...)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(lex)
	}

	w.logger.Info("Lexicon reloaded",
		zap.String("previousVersion", previous),
		zap.String("version", version),
		zap.Int("keywords", lex.Size()),
	)
}
