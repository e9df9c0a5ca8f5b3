package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github/itish2003/docsearch/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/tmc/langchaingo/textsplitter"
)

// SplitText breaks extracted text into overlapping chunks.
func SplitText(text string, chunkSize, chunkOverlap int) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// InboxWatcher hands every PDF created or rewritten in a directory to a callback.
// A file whose content hash has not changed since the last successful hand-off is skipped.
type InboxWatcher struct {
	dir    string
	onFile func(ctx context.Context, path string) error
	logger logger.ILogger

	mu     sync.Mutex
	hashes map[string]string
}

func NewInboxWatcher(dir string, log logger.ILogger, onFile func(ctx context.Context, path string) error) *InboxWatcher {
	return &InboxWatcher{
		dir:    dir,
		onFile: onFile,
		logger: log,
		hashes: make(map[string]string),
	}
}

// Watch blocks until ctx is cancelled. It fails fast if the directory cannot be watched.
func (w *InboxWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("WATCHER", "Watching directory", map[string]interface{}{"dir": w.dir})

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSupportedFile(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				w.handle(ctx, event.Name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				w.forget(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("WATCHER", "Watcher error", map[string]interface{}{"error": err.Error()})
		case <-ctx.Done():
			w.logger.Info("WATCHER", "Context cancelled, shutting down watcher", nil)
			return nil
		}
	}
}

func (w *InboxWatcher) handle(ctx context.Context, path string) {
	hash, err := calculateFileHash(path)
	if err != nil {
		w.logger.Warn("WATCHER", "Could not hash file", map[string]interface{}{"path": path, "error": err.Error()})
		return
	}

	w.mu.Lock()
	unchanged := w.hashes[path] == hash
	w.mu.Unlock()
	if unchanged {
		return
	}

	w.logger.Info("WATCHER", "New document in inbox", map[string]interface{}{"path": path})
	if err := w.onFile(ctx, path); err != nil {
		w.logger.Error("WATCHER", "Failed to load document", map[string]interface{}{"path": path, "error": err.Error()})
		return
	}

	w.mu.Lock()
	w.hashes[path] = hash
	w.mu.Unlock()
}

func (w *InboxWatcher) forget(path string) {
	w.mu.Lock()
	delete(w.hashes, path)
	w.mu.Unlock()
}

func isSupportedFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
