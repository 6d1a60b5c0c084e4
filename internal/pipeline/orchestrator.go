// Package pipeline sequences the job stages (validate, rasterize, OCR,
// classify, render) and drives the job state machine in the store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/scandocx/constants"
	"github.com/joseph-ayodele/scandocx/internal/common"
	"github.com/joseph-ayodele/scandocx/internal/intake"
	"github.com/joseph-ayodele/scandocx/internal/mathpass"
	"github.com/joseph-ayodele/scandocx/internal/ocr"
	"github.com/joseph-ayodele/scandocx/internal/render"
	"github.com/joseph-ayodele/scandocx/internal/repository"
)

// Progress checkpoints per stage boundary. Values only ever increase over a
// job's lifetime.
const (
	progressCreated    = 0
	progressUploaded   = 10
	progressConverting = 20
	progressConverted  = 35
	progressOCRStart   = 40
	progressOCRDone    = 75
	progressRendering  = 80
	progressDone       = 100
)

// FinalResult is what Run hands back: the terminal job record plus the
// reference the caller uses against the result-fetch interface.
type FinalResult struct {
	Job          *repository.Job `json:"job"`
	DownloadPath string          `json:"download_url"`
}

// Orchestrator owns the job lifecycle. It is the sole writer to the job
// store; stages hand their results forward by value.
type Orchestrator struct {
	store      repository.JobStore
	intake     *intake.Intake
	raster     intake.Rasterizer
	engine     ocr.Engine
	normalizer ocr.Normalizer
	classifier *mathpass.Classifier
	renderCfg  render.Config
	dataDir    string
	logger     *slog.Logger
}

func NewOrchestrator(
	store repository.JobStore,
	in *intake.Intake,
	raster intake.Rasterizer,
	engine ocr.Engine,
	normalizer ocr.Normalizer,
	classifier *mathpass.Classifier,
	renderCfg render.Config,
	dataDir string,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if classifier == nil {
		classifier = mathpass.NewClassifier(mathpass.Config{})
	}
	return &Orchestrator{
		store:      store,
		intake:     in,
		raster:     raster,
		engine:     engine,
		normalizer: normalizer,
		classifier: classifier,
		renderCfg:  renderCfg,
		dataDir:    dataDir,
		logger:     logger,
	}
}

// Start registers a new job at CREATED/VALIDATE/0 with the given settings
// document and returns its id. It fails only on invalid settings or an
// unavailable store.
func (o *Orchestrator) Start(ctx context.Context, rawSettings []byte) (string, error) {
	settings, err := ParseSettings(rawSettings)
	if err != nil {
		return "", err
	}
	jobID := uuid.NewString()
	if _, err := o.store.Create(ctx, jobID, settings); err != nil {
		return "", err
	}
	o.logger.Info("pipeline.start.ok", "job_id", jobID)
	return jobID, nil
}

// Status is a pure read of the job record.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*repository.Job, error) {
	if jobID == "" {
		return nil, common.NewValidationError(common.CodeValidation, "job id is required")
	}
	return o.store.Get(ctx, jobID)
}

// FetchResult returns the artifact location once the job has succeeded. Any
// other state, including still-processing and failed, surfaces as not found.
func (o *Orchestrator) FetchResult(ctx context.Context, jobID string) (string, error) {
	job, err := o.Status(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.Status != constants.JobStatusSucceeded || job.Output.ArtifactPath == "" {
		return "", common.NewNotFoundError("no result available for job %s", jobID)
	}
	return job.Output.ArtifactPath, nil
}

// Run drives a previously created job through the full stage sequence. Any
// stage failure funnels through failJob exactly once: the job moves to
// FAILED/DONE/100 with the stage message recorded, and the stage error is
// returned to the caller. No stage is retried.
func (o *Orchestrator) Run(ctx context.Context, jobID string, up intake.Upload) (*FinalResult, error) {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.State().Terminal() {
		return nil, common.NewAppError(common.CodeConflict,
			fmt.Sprintf("job %s already finished with status %s", jobID, job.Status), nil)
	}
	cur := job.State()
	settings := job.Settings
	jobDir := filepath.Join(o.dataDir, jobID)

	// Stage 1: validate and persist the upload.
	saved, err := o.intake.ValidateSaveUpload(ctx, up, jobDir, "input.pdf")
	if err != nil {
		return nil, o.failJob(ctx, jobID, "validate", err)
	}
	cur, err = o.advance(ctx, jobID, cur, constants.StateUploaded, progressUploaded, repository.JobUpdate{
		Input: map[string]any{
			"filename":     up.Filename,
			"content_type": up.ContentType,
			"size_bytes":   saved.SizeBytes,
		},
	})
	if err != nil {
		return nil, err
	}

	// Stage 2: rasterize to page images.
	cur, err = o.advance(ctx, jobID, cur, constants.StateConvertPages, progressConverting, repository.JobUpdate{})
	if err != nil {
		return nil, err
	}
	pagesDir := filepath.Join(jobDir, "pages")
	pagePaths, err := o.raster.Rasterize(ctx, saved.Path, pagesDir, settings.DPI, settings.PageFormat)
	if err != nil {
		return nil, o.failJob(ctx, jobID, "rasterize", err)
	}
	cur, err = o.advance(ctx, jobID, cur, constants.StateConvertPages, progressConverted, repository.JobUpdate{
		Input: map[string]any{
			"pages_dir":  pagesDir,
			"page_count": len(pagePaths),
		},
	})
	if err != nil {
		return nil, err
	}

	// Stage 3: OCR, normalize, order, classify.
	cur, err = o.advance(ctx, jobID, cur, constants.StateProcessOCR, progressOCRStart, repository.JobUpdate{})
	if err != nil {
		return nil, err
	}
	doc, err := o.ocrPages(ctx, pagePaths)
	if err != nil {
		return nil, o.failJob(ctx, jobID, "ocr", err)
	}
	doc = o.classifier.Tag(doc)
	cur, err = o.advance(ctx, jobID, cur, constants.StateProcessOCR, progressOCRDone, repository.JobUpdate{
		Output: map[string]any{
			"total_blocks": doc.TotalBlocks,
		},
	})
	if err != nil {
		return nil, err
	}

	// Stage 4: render the artifact.
	cur, err = o.advance(ctx, jobID, cur, constants.StateRenderDocx, progressRendering, repository.JobUpdate{})
	if err != nil {
		return nil, err
	}
	format := settings.OutputFormat
	if format == "" {
		format = render.FormatDocx
	}
	renderCfg := o.renderCfg
	if settings.Title != "" {
		renderCfg.Title = settings.Title
	}
	renderer, err := render.ForFormat(format, renderCfg)
	if err != nil {
		return nil, o.failJob(ctx, jobID, "render", err)
	}
	artifactPath := filepath.Join(jobDir, "result"+render.ArtifactExt(format))
	if err := renderer.Render(doc, artifactPath); err != nil {
		return nil, o.failJob(ctx, jobID, "render", common.NewStageError("render", err))
	}

	// Terminal success.
	_, err = o.advance(ctx, jobID, cur, constants.StateSucceeded, progressDone, repository.JobUpdate{
		Output: map[string]any{
			"artifact_path": artifactPath,
			"format":        format,
		},
	})
	if err != nil {
		return nil, err
	}

	final, err := o.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	o.logger.Info("pipeline.run.ok",
		"job_id", jobID,
		"pages", final.Input.PageCount,
		"blocks", final.Output.TotalBlocks,
		"artifact", final.Output.ArtifactPath,
	)
	return &FinalResult{
		Job:          final,
		DownloadPath: "/v1/jobs/" + jobID + "/result",
	}, nil
}

// ocrPages runs the engine over every page image and assembles the ordered,
// normalized document.
func (o *Orchestrator) ocrPages(ctx context.Context, pagePaths []string) (ocr.Document, error) {
	doc := ocr.Document{PageCount: len(pagePaths)}
	for i, path := range pagePaths {
		dets, err := o.engine.RecognizeImage(ctx, path)
		if err != nil {
			return doc, common.NewStageError("ocr", fmt.Errorf("page %d: %w", i+1, err))
		}
		blocks := ocr.SortReadingOrder(o.normalizer.Normalize(dets))
		doc.TotalBlocks += len(blocks)
		doc.Pages = append(doc.Pages, ocr.Page{
			PageIndex: i + 1,
			ImagePath: path,
			Blocks:    blocks,
		})
	}
	return doc, nil
}

// advance writes one forward state-machine step. Illegal transitions are
// programming errors, not runtime error paths, so they surface loudly.
func (o *Orchestrator) advance(ctx context.Context, jobID string, from, to constants.JobState, progress int, upd repository.JobUpdate) (constants.JobState, error) {
	if from != to && !constants.CanTransition(from, to) {
		return from, common.NewAppError("STATE_VIOLATION",
			fmt.Sprintf("illegal transition %s/%s -> %s/%s", from.Status, from.Step, to.Status, to.Step), nil)
	}
	upd.Status = repository.StatusPtr(to.Status)
	upd.Step = repository.StepPtr(to.Step)
	upd.Progress = repository.ProgressPtr(progress)
	if _, err := o.store.Update(ctx, jobID, upd); err != nil {
		return from, err
	}
	o.logger.Debug("pipeline.state", "job_id", jobID, "status", to.Status, "step", to.Step, "progress", progress)
	return to, nil
}

// failJob is the single failure funnel: record the stage message, move the
// job to FAILED/DONE/100, and hand the original stage error back. A store
// failure while recording is logged and the store error wins, since the
// caller can no longer trust the job record.
func (o *Orchestrator) failJob(ctx context.Context, jobID, stage string, stageErr error) error {
	o.logger.Error("pipeline.stage.failed", "job_id", jobID, "stage", stage, "error", stageErr)
	upd := repository.JobUpdate{
		Status:   repository.StatusPtr(constants.JobStatusFailed),
		Step:     repository.StepPtr(constants.JobStepDone),
		Progress: repository.ProgressPtr(progressDone),
		Error: &repository.JobError{
			Stage:   stage,
			Message: stageErr.Error(),
		},
	}
	if _, err := o.store.Update(ctx, jobID, upd); err != nil {
		o.logger.Error("pipeline.fail.write_failed", "job_id", jobID, "error", err)
		return err
	}
	return stageErr
}
