package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github/itish2003/docsearch/logger"
	"github/itish2003/docsearch/services"
)

// Run starts the terminal UI on a fresh session and blocks until the user quits.
// When watchDir is set, PDFs dropped there are loaded into the session.
func Run(ctx context.Context, session *services.Session, docs services.DocumentService, search services.WebSearchService, delay time.Duration, watchDir string, log logger.ILogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, session, docs, search, delay), tea.WithAltScreen(), tea.WithContext(ctx))

	if watchDir != "" {
		watcher := services.NewInboxWatcher(watchDir, log, func(ctx context.Context, path string) error {
			info, err := docs.LoadFile(ctx, session, path)
			p.Send(DocumentLoadedMsg{Info: info, Err: err})
			return err
		})
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				log.Error("WATCHER", "Inbox watcher stopped", map[string]interface{}{"error": err.Error()})
				p.Send(DocumentLoadedMsg{Err: err})
			}
		}()
	}

	_, err := p.Run()
	return err
}
