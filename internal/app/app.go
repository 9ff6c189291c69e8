package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"blocknotes/internal/boundary"
	"blocknotes/internal/config"
	"blocknotes/internal/httpapi"
	"blocknotes/internal/logger"
	mcpserver "blocknotes/internal/mcp"
	"blocknotes/internal/service"
	"blocknotes/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// App wires storage, services and the outer surfaces together.
type App struct {
	cfg *config.Config
	log *logger.Logger

	db       *storage.DB
	docs     *service.DocumentService
	transfer *service.TransferService
	boundary *boundary.Boundary
}

// New creates a new App. Call Startup before serving.
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// logEmitter records service events in the debug log. There is no live
// frontend to push them to.
type logEmitter struct {
	log *logger.Logger
}

func (e logEmitter) Emit(_ context.Context, event string, data any) {
	e.log.Debug("event", "name", event, "data", data)
}

// Startup opens the database and builds the services.
func (a *App) Startup(ctx context.Context) error {
	db, err := storage.New(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db

	emitter := logEmitter{log: a.log.With("component", "events")}
	a.docs = service.NewDocumentService(
		storage.NewDocumentStore(db),
		storage.NewBlockStore(db),
		emitter,
		a.log.With("component", "documents"),
	)
	a.transfer = service.NewTransferService(a.docs, service.TransferConfig{
		ExportDir: a.cfg.ExportDir,
		ImportDir: a.cfg.ImportDir,
		Schedule:  a.cfg.ExportSchedule,
	}, emitter, a.log.With("component", "transfer"))

	blog := a.log.With("component", "boundary")
	a.boundary = boundary.New(a.cfg.FailurePath, func(recovered any) {
		blog.Error("request handler panicked; serving the failure page from now on", "panic", recovered)
	})

	a.log.Info("storage ready", "db", a.cfg.DBPath)
	return nil
}

// Shutdown stops background work and closes the database.
func (a *App) Shutdown(ctx context.Context) {
	if a.transfer != nil {
		a.transfer.Stop()
		a.transfer.WaitRunning(ctx)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("close database", "error", err)
		}
	}
	a.log.Sync()
}

// Handler builds the HTTP router.
func (a *App) Handler() http.Handler {
	if a.cfg.LogMode == "prod" || a.cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return httpapi.NewRouter(httpapi.RouterConfig{
		Log:             a.log.With("component", "http"),
		DocumentHandler: httpapi.NewDocumentHandler(a.log, a.docs),
		Boundary:        a.boundary,
	})
}

// ServeHTTP runs the transfer service and the HTTP API until ctx is done.
func (a *App) ServeHTTP(ctx context.Context) error {
	if err := a.transfer.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", a.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.log.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

// ServeMCP runs the MCP server on stdin/stdout. The transfer service is not
// started in this mode.
func (a *App) ServeMCP(ctx context.Context) error {
	srv := mcpserver.New(mcpserver.Deps{
		Documents: a.docs,
		Log:       a.log.With("component", "mcp"),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
