package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"

	"blocknotes/internal/domain"
	"blocknotes/internal/logger"
)

// ─────────────────────────────────────────────────────────────
// Transfer Service: scheduled export and watched import
// ─────────────────────────────────────────────────────────────

const importDebounce = 500 * time.Millisecond

// TransferService writes every document to ExportDir on a cron schedule and
// imports JSON files dropped into ImportDir.
type TransferService struct {
	docs    *DocumentService
	emitter EventEmitter
	log     *logger.Logger
	running runningGuard

	exportDir string
	importDir string
	schedule  string

	// watcher / cron lifecycle
	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// TransferConfig names the directories and schedule used by TransferService.
// An empty Schedule disables scheduled export; an empty ImportDir disables the
// watcher.
type TransferConfig struct {
	ExportDir string
	ImportDir string
	Schedule  string
}

// NewTransferService creates a TransferService. Call Start to begin work.
func NewTransferService(docs *DocumentService, cfg TransferConfig, emitter EventEmitter, log *logger.Logger) *TransferService {
	return &TransferService{
		docs:      docs,
		emitter:   emitter,
		log:       log,
		exportDir: cfg.ExportDir,
		importDir: cfg.ImportDir,
		schedule:  cfg.Schedule,
	}
}

// ── Export ─────────────────────────────────────────────────

// ExportAll writes each document to <exportDir>/<id>.json and returns how many
// were written. A failing document does not stop the others; their errors are
// returned together. ErrTransferBusy is returned if an export is in progress.
func (s *TransferService) ExportAll(ctx context.Context) (int, error) {
	if !s.running.TryLock(exportKey) {
		return 0, ErrTransferBusy
	}
	defer s.running.Unlock(exportKey)

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}

	var result *multierror.Error
	written := 0
	for _, d := range docs {
		if err := s.exportOne(ctx, d.ID); err != nil {
			result = multierror.Append(result, fmt.Errorf("export %s: %w", d.ID, err))
			continue
		}
		written++
	}

	s.log.Info("export finished", "dir", s.exportDir, "written", written, "total", len(docs))
	s.emitter.Emit(ctx, EventExportCompleted, map[string]int{"written": written})
	return written, result.ErrorOrNil()
}

func (s *TransferService) exportOne(ctx context.Context, id string) error {
	exp, err := s.docs.ExportDocument(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return err
	}

	// write then rename so a watcher never sees a half-written file
	path := filepath.Join(s.exportDir, id+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ── Import ─────────────────────────────────────────────────

// ImportFile reads one exported document and writes it to the store.
func (s *TransferService) ImportFile(ctx context.Context, path string) (*domain.Document, error) {
	key := importKey(path)
	if !s.running.TryLock(key) {
		return nil, ErrTransferBusy
	}
	defer s.running.Unlock(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var exp domain.DocumentExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidArgument, filepath.Base(path), err)
	}
	if err := s.docs.ImportDocument(ctx, exp); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, EventImportCompleted, map[string]string{"documentId": exp.Document.ID, "file": path})
	return &exp.Document, nil
}

// ── Lifecycle (cron + file watch) ─────────────────────────

// Start schedules the exporter and begins watching the import directory.
// Calling Start again restarts both. On error nothing is left running.
func (s *TransferService) Start(ctx context.Context) (err error) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if err != nil {
			s.teardown()
		}
	}()

	if s.schedule != "" {
		c := cron.New()
		_, err := c.AddFunc(s.schedule, func() {
			if _, err := s.ExportAll(ctx); err != nil {
				s.log.Error("scheduled export failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid export schedule %q: %w", s.schedule, err)
		}
		c.Start()
		s.cronSched = c
		s.log.Info("export scheduled", "schedule", s.schedule, "dir", s.exportDir)
	}

	if s.importDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.importDir, 0o755); err != nil {
		return fmt.Errorf("create import dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.importDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.importDir, err)
	}
	s.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel
	go s.watch(watchCtx, watcher)

	s.log.Info("watching import dir", "dir", s.importDir)
	return nil
}

func (s *TransferService) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			path := event.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(importDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				doc, err := s.ImportFile(ctx, path)
				if err != nil {
					s.log.Warn("import failed", "file", path, "error", err)
					return
				}
				s.log.Info("imported document", "file", path, "document_id", doc.ID)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("import watcher error", "error", err)
		}
	}
}

// WaitRunning blocks until running exports and imports finish or ctx is
// cancelled.
func (s *TransferService) WaitRunning(ctx context.Context) {
	s.running.WaitAll(ctx)
}

// Stop tears down the watcher and the scheduler.
func (s *TransferService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

// teardown requires s.mu.
func (s *TransferService) teardown() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
