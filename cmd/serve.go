package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/knygynas/internal/config"
	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/livereload"
	"github.com/conneroisu/knygynas/internal/logging"
	"github.com/conneroisu/knygynas/internal/messages"
	"github.com/conneroisu/knygynas/internal/monitoring"
	"github.com/conneroisu/knygynas/internal/renderer"
	"github.com/conneroisu/knygynas/internal/server"
	"github.com/conneroisu/knygynas/internal/store"
	"github.com/conneroisu/knygynas/internal/watcher"
)

// fragmentDebounce collapses the burst of events an editor save produces.
const fragmentDebounce = 300 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the book catalog web server",
	Long: `Start the book catalog web server.

The data files are created empty when missing. With --hot-reload the
fragment directory is watched and open pages reload when a fragment changes.

Examples:
  knygynas serve                              # Serve on localhost:8080
  knygynas serve --port 80 --domain http://books.final/
  knygynas serve --data-dir /var/lib/knygynas # Keep books.json and session.json elsewhere
  knygynas serve --hot-reload                 # Reload pages on fragment edits`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("domain", "", "Absolute URL prefixed to redirects and links")
	serveCmd.Flags().String("data-dir", "", "Directory holding the data files")
	serveCmd.Flags().String("backend", config.BackendFile, "Storage backend (file, memory, sqlite)")
	serveCmd.Flags().Bool("hot-reload", false, "Reload open pages when fragments change")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.domain", serveCmd.Flags().Lookup("domain"))
	viper.BindPFlag("storage.data_dir", serveCmd.Flags().Lookup("data-dir"))
	viper.BindPFlag("storage.backend", serveCmd.Flags().Lookup("backend"))
	viper.BindPFlag("development.hot_reload", serveCmd.Flags().Lookup("hot-reload"))

	AddFlagValidation(serveCmd.Flags(), "port", ValidatePort)
	AddFlagValidation(serveCmd.Flags(), "backend",
		formatValidator(config.BackendFile, config.BackendMemory, config.BackendSQLite))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return apperrors.NewEnhancedError("Failed to load configuration", err,
			apperrors.ConfigurationError(err.Error(), configPathUsed()))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

// serve runs the server, and the fragment watcher when hot reload is on,
// until ctx is cancelled or one of them fails.
func serve(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	st, err := store.Open(cfg.Storage)
	if err != nil {
		path := storagePath(cfg.Storage)
		return apperrors.NewEnhancedError(
			fmt.Sprintf("Failed to open %s storage", cfg.Storage.Backend), err,
			apperrors.StorageOpenError(err, cfg.Storage.Backend, path))
	}
	defer st.Close()

	rend, err := renderer.New(cfg.Templates.Dir, cfg.Templates.Header, cfg.Templates.Footer)
	if err != nil {
		return apperrors.NewEnhancedError("Failed loading fragments", err,
			apperrors.FragmentLoadError(cfg.Templates.Dir))
	}

	catalog, err := messages.New()
	if err != nil {
		return apperrors.NewInternalError(apperrors.ErrCodeInternalError, "building message catalog", err)
	}

	var hub *livereload.Hub
	if cfg.Development.HotReload {
		hub = livereload.NewHub(cfg.Server.AllowedOrigins, logger)
	}

	srv, err := server.New(server.Deps{
		Config:   cfg,
		Books:    st,
		Sessions: st,
		Renderer: rend,
		Messages: catalog,
		Logger:   logger,
		Metrics:  monitoring.NewMetrics(),
		Hub:      hub,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var fw *watcher.FileWatcher
	if hub != nil {
		fw, err = newFragmentWatcher(cfg.Templates.Dir, srv, logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if fw != nil {
		g.Go(func() error {
			return fw.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		if suggestions := apperrors.ServerStartError(err, cfg.Server.Port); len(suggestions) > 0 {
			return apperrors.NewEnhancedError(
				fmt.Sprintf("Failed to start server on port %d", cfg.Server.Port), err, suggestions)
		}
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// storagePath names the file the configured backend keeps its data in.
func storagePath(cfg config.StorageConfig) string {
	if cfg.Backend == config.BackendSQLite {
		return cfg.SQLitePath
	}
	return cfg.BooksPath
}

func configPathUsed() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return ".knygynas.yml"
}

func newFragmentWatcher(dir string, srv *server.Server, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(fragmentDebounce, logger)
	if err != nil {
		return nil, err
	}

	fw.AddFilter(watcher.HTMLFilter)
	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddHandler(srv.HandleFragmentChanges)

	if err := fw.AddPath(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return fw, nil
}
