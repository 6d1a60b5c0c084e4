// Package ingest feeds the pipeline from a local drop directory: PDFs that
// appear under the watched root are started and run as jobs automatically,
// as if they had been uploaded.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/scandocx/constants"
	"github.com/joseph-ayodele/scandocx/internal/async"
	"github.com/joseph-ayodele/scandocx/internal/intake"
	"github.com/joseph-ayodele/scandocx/internal/pipeline"
)

// Config controls the drop-directory watcher.
type Config struct {
	Dir         string        // directory to watch
	InitialScan bool          // if true, walk the dir and ingest existing PDFs
	Debounce    time.Duration // coalesce rapid create/write bursts
}

// Watcher turns dropped PDF files into pipeline jobs.
type Watcher struct {
	cfg    Config
	orch   *pipeline.Orchestrator
	queue  *async.PipelineQueue
	logger *slog.Logger
}

func NewWatcher(cfg Config, orch *pipeline.Orchestrator, queue *async.PipelineQueue, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	return &Watcher{cfg: cfg, orch: orch, queue: queue, logger: logger}
}

// Start watches the drop directory until ctx is done. Each settled PDF is
// started as a job and submitted to the queue; failures are logged and do
// not stop the watcher.
func (w *Watcher) Start(ctx context.Context) error {
	if w.cfg.Dir == "" {
		return errors.New("no watch directory provided")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create fsnotify watcher", "error", err)
		return err
	}
	if err := fw.Add(w.cfg.Dir); err != nil {
		w.logger.Error("failed to watch directory", "dir", w.cfg.Dir, "error", err)
		_ = fw.Close()
		return err
	}

	if w.cfg.InitialScan {
		entries, err := os.ReadDir(w.cfg.Dir)
		if err != nil {
			_ = fw.Close()
			return err
		}
		for _, e := range entries {
			if !e.IsDir() && allowed(e.Name()) {
				w.ingest(ctx, filepath.Join(w.cfg.Dir, e.Name()))
			}
		}
	}

	go func() {
		defer func() {
			if err := fw.Close(); err != nil {
				w.logger.Warn("failed to close watcher", "error", err)
			}
		}()

		// pending is owned by this goroutine. The debounce timer callback
		// only signals flush; it never touches the map.
		var timer *time.Timer
		pending := map[string]struct{}{}
		flush := make(chan struct{}, 1)

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-flush:
				for p := range pending {
					delete(pending, p)
					w.ingest(ctx, p)
				}
			case e := <-fw.Events:
				if allowed(e.Name) && (e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename)) != 0 {
					pending[e.Name] = struct{}{}
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(w.cfg.Debounce, func() {
						select {
						case flush <- struct{}{}:
						default:
						}
					})
				}
			case err := <-fw.Errors:
				w.logger.Error("watcher error", "error", err)
			}
		}
	}()

	w.logger.Info("watching drop directory", "dir", w.cfg.Dir)
	return nil
}

// ingest starts and submits one job for a dropped file. The job runs on the
// queue workers; the watcher only waits long enough to log the outcome.
func (w *Watcher) ingest(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		w.logger.Warn("cannot open dropped file", "path", path, "error", err)
		return
	}

	jobID, err := w.orch.Start(ctx, nil)
	if err != nil {
		_ = f.Close()
		w.logger.Error("ingest start failed", "path", path, "error", err)
		return
	}

	up := intake.Upload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Body:        f,
	}
	done, err := w.queue.Submit(ctx, jobID, up)
	if err != nil {
		_ = f.Close()
		w.logger.Error("ingest submit failed", "job_id", jobID, "path", path, "error", err)
		return
	}

	go func() {
		res := <-done
		_ = f.Close()
		if res.Err != nil {
			w.logger.Error("ingest job failed", "job_id", jobID, "path", path, "error", res.Err)
			return
		}
		w.logger.Info("ingest job finished", "job_id", jobID, "path", path,
			"artifact", res.Final.Job.Output.ArtifactPath)
	}()
}

func allowed(path string) bool {
	return constants.NormalizeExt(filepath.Ext(path)) == constants.PDFExtension
}
