// Package prompt serves the instruction sent with every photo. The built-in
// jewelry prompt is used unless an override file is configured; the override
// is re-read whenever it changes on disk.
package prompt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"jewelry-identifier/api/internal/jewel"
)

type Source struct {
	path string
	log  *zap.Logger

	mu   sync.RWMutex
	text string
}

// Load reads path if set. A missing or blank override file is an error at startup.
func Load(path string, log *zap.Logger) (*Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Source{path: strings.TrimSpace(path), log: log, text: jewel.Prompt}
	if s.path == "" {
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

func (s *Source) Path() string { return s.path }

// Reload re-reads the override file. On failure the previous prompt stays active.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("prompt %s: %w", s.path, err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return fmt.Errorf("prompt %s is empty", s.path)
	}
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	return nil
}

// Watch reloads the override on change until ctx is done. Without an override it returns at once.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("prompt watcher: %w", err)
	}
	defer w.Close()

	// watch the directory: editors replace files by rename
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("prompt watcher: %w", err)
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.log.Warn("prompt reload failed", zap.Error(err))
				continue
			}
			s.log.Info("prompt reloaded", zap.String("path", s.path))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("prompt watcher error", zap.Error(err))
		}
	}
}
