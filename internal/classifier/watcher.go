package classifier

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
)

// Watcher reloads a rules file into a Classifier whenever the file changes.
// A file that fails to load or compile is logged and the previous rules
// stay active.
type Watcher struct {
	path       string
	classifier *Classifier
	watcher    *fsnotify.Watcher
	log        infralogger.Logger
}

// NewWatcher watches the directory holding path, so editors that replace
// the file by rename are picked up too.
func NewWatcher(path string, c *Classifier, log infralogger.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve rules path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err = fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:       abs,
		classifier: c,
		watcher:    fw,
		log:        log,
	}, nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("rules watcher error", infralogger.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	rules, err := LoadRules(w.path)
	if err != nil {
		w.log.Warn("rules reload failed, keeping current rules",
			infralogger.String("path", w.path),
			infralogger.Error(err))
		return
	}
	if err = w.classifier.SetRules(rules); err != nil {
		w.log.Warn("rules reload failed, keeping current rules",
			infralogger.String("path", w.path),
			infralogger.Error(err))
		return
	}

	w.log.Info("classifier rules reloaded",
		infralogger.String("path", w.path),
		infralogger.Int("block_patterns", len(rules.BlockPatterns)),
		infralogger.Int("irrelevant_terms", len(rules.IrrelevantTerms)))
}
