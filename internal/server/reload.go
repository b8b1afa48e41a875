package server

import (
	"context"

	"github.com/conneroisu/knygynas/internal/livereload"
	"github.com/conneroisu/knygynas/internal/logging"
	"github.com/conneroisu/knygynas/internal/watcher"
)

// HandleFragmentChanges reloads the shared header and footer and tells
// connected browsers to refresh. It is registered as a watcher handler when
// hot reload is enabled.
func (s *Server) HandleFragmentChanges(ctx context.Context, events []watcher.ChangeEvent) error {
	paths := make([]string, 0, len(events))
	for _, e := range events {
		paths = append(paths, e.Path)
	}

	op := logging.StartOperation(s.logger, "fragment_reload")
	err := s.renderer.Reload()
	s.metrics.FragmentReload(err)
	if err != nil {
		op.EndWithError(ctx, err)
		// Keep serving the previous header and footer; the browser is not
		// told to reload into a broken page.
		s.errors.Handle(ctx, err)
		return err
	}

	op.End(ctx)
	s.logger.Info(ctx, "Fragments reloaded", "paths", paths)

	if s.hub == nil {
		return nil
	}
	return s.hub.Broadcast(livereload.ReloadMessage(paths...))
}
