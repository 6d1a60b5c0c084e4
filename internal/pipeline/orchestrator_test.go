package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/scandocx/constants"
	"github.com/joseph-ayodele/scandocx/internal/common"
	"github.com/joseph-ayodele/scandocx/internal/intake"
	"github.com/joseph-ayodele/scandocx/internal/ocr"
	"github.com/joseph-ayodele/scandocx/internal/render"
	"github.com/joseph-ayodele/scandocx/internal/repository"
)

// memStore is an in-memory JobStore that records every state snapshot an
// Update produces, so tests can assert on the whole lifecycle sequence.
type memStore struct {
	jobs    map[string]*repository.Job
	history []snapshot
}

type snapshot struct {
	status   constants.JobStatus
	step     constants.JobStep
	progress int
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*repository.Job)}
}

func (s *memStore) Create(_ context.Context, jobID string, settings repository.JobSettings) (*repository.Job, error) {
	if _, ok := s.jobs[jobID]; ok {
		return nil, common.NewAppError(common.CodeConflict, "job already exists", nil)
	}
	now := time.Now().UTC()
	job := &repository.Job{
		ID:        jobID,
		Status:    constants.JobStatusCreated,
		Step:      constants.JobStepValidate,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
		Settings:  settings,
	}
	s.jobs[jobID] = job
	return copyJob(job), nil
}

func (s *memStore) Get(_ context.Context, jobID string) (*repository.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, common.NewNotFoundError("job %s not found", jobID)
	}
	return copyJob(job), nil
}

func (s *memStore) Update(_ context.Context, jobID string, upd repository.JobUpdate) (*repository.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, common.NewNotFoundError("job %s not found", jobID)
	}
	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Step != nil {
		job.Step = *upd.Step
	}
	if upd.Progress != nil {
		job.Progress = *upd.Progress
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}
	for k, v := range upd.Input {
		switch k {
		case "filename":
			job.Input.Filename = v.(string)
		case "content_type":
			job.Input.ContentType = v.(string)
		case "size_bytes":
			job.Input.SizeBytes = v.(int64)
		case "pages_dir":
			job.Input.PagesDir = v.(string)
		case "page_count":
			job.Input.PageCount = v.(int)
		}
	}
	for k, v := range upd.Output {
		switch k {
		case "total_blocks":
			job.Output.TotalBlocks = v.(int)
		case "artifact_path":
			job.Output.ArtifactPath = v.(string)
		case "format":
			job.Output.Format = v.(string)
		}
	}
	job.UpdatedAt = time.Now().UTC()
	s.history = append(s.history, snapshot{job.Status, job.Step, job.Progress})
	return copyJob(job), nil
}

func (s *memStore) ListRecent(_ context.Context, limit int) ([]repository.Job, error) {
	out := make([]repository.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *copyJob(j))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func copyJob(j *repository.Job) *repository.Job {
	c := *j
	return &c
}

// fakeRaster fabricates page paths without shelling out.
type fakeRaster struct {
	pages int
	fail  error
}

func (f *fakeRaster) Rasterize(_ context.Context, _ string, outDir string, _ int, format string) ([]string, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if format == "" {
		format = "jpeg"
	}
	paths := make([]string, f.pages)
	for i := range paths {
		paths[i] = filepath.Join(outDir, fmt.Sprintf("page_%d.jpg", i+1))
	}
	return paths, nil
}

// fakeEngine emits the same detections for every page.
type fakeEngine struct {
	dets []ocr.RawDetection
	fail error
}

func (f *fakeEngine) RecognizeImage(_ context.Context, _ string) ([]ocr.RawDetection, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.dets, nil
}

func det(text string, conf float64) ocr.RawDetection {
	return ocr.RawDetection{
		Box:        []ocr.Point{{0, 0}, {100, 0}, {100, 20}, {0, 20}},
		Text:       text,
		Confidence: conf,
	}
}

func testOrchestrator(t *testing.T, store repository.JobStore, raster intake.Rasterizer, engine ocr.Engine) *Orchestrator {
	t.Helper()
	in := intake.NewIntake(intake.Config{}, nil)
	return NewOrchestrator(store, in, raster, engine, ocr.Normalizer{}, nil,
		render.Config{Title: "OCR Output"}, t.TempDir(), nil)
}

func pdfUpload() intake.Upload {
	body := make([]byte, 4096)
	copy(body, "%PDF-1.4\n")
	return intake.Upload{Filename: "scan.pdf", ContentType: "application/pdf", Body: bytes.NewReader(body)}
}

func TestRunHappyPathStateSequence(t *testing.T) {
	store := newMemStore()
	orch := testOrchestrator(t, store, &fakeRaster{pages: 2}, &fakeEngine{dets: []ocr.RawDetection{
		det("x = 2y + 3", 0.9),
		det("plain text line", 0.8),
	}})

	jobID, err := orch.Start(context.Background(), nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := orch.Run(context.Background(), jobID, pdfUpload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []snapshot{
		{constants.JobStatusUploaded, constants.JobStepValidate, 10},
		{constants.JobStatusProcessing, constants.JobStepConvertPages, 20},
		{constants.JobStatusProcessing, constants.JobStepConvertPages, 35},
		{constants.JobStatusProcessing, constants.JobStepProcessOCR, 40},
		{constants.JobStatusProcessing, constants.JobStepProcessOCR, 75},
		{constants.JobStatusProcessing, constants.JobStepRenderDocx, 80},
		{constants.JobStatusSucceeded, constants.JobStepDone, 100},
	}
	if len(store.history) != len(want) {
		t.Fatalf("got %d state writes, want %d: %v", len(store.history), len(want), store.history)
	}
	for i, w := range want {
		if store.history[i] != w {
			t.Errorf("write %d = %+v, want %+v", i, store.history[i], w)
		}
	}
	// Progress and rank never move backwards.
	prev := snapshot{constants.JobStatusCreated, constants.JobStepValidate, 0}
	for _, s := range store.history {
		if s.progress < prev.progress {
			t.Errorf("progress regressed: %d -> %d", prev.progress, s.progress)
		}
		pr := constants.JobState{Status: prev.status, Step: prev.step}.Rank()
		cr := constants.JobState{Status: s.status, Step: s.step}.Rank()
		if cr < pr {
			t.Errorf("state rank regressed: %+v -> %+v", prev, s)
		}
		prev = s
	}

	if res.Job.Status != constants.JobStatusSucceeded || res.Job.Progress != 100 {
		t.Errorf("final job = %s/%d, want SUCCEEDED/100", res.Job.Status, res.Job.Progress)
	}
	if res.Job.Input.PageCount != 2 {
		t.Errorf("page_count = %d, want 2", res.Job.Input.PageCount)
	}
	if res.Job.Output.TotalBlocks != 4 {
		t.Errorf("total_blocks = %d, want 4", res.Job.Output.TotalBlocks)
	}
	if res.DownloadPath != "/v1/jobs/"+jobID+"/result" {
		t.Errorf("download path = %q", res.DownloadPath)
	}
	if _, err := os.Stat(res.Job.Output.ArtifactPath); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestRunValidationFailureFunnels(t *testing.T) {
	store := newMemStore()
	orch := testOrchestrator(t, store, &fakeRaster{pages: 1}, &fakeEngine{})

	jobID, _ := orch.Start(context.Background(), nil)
	up := intake.Upload{Filename: "report.txt", ContentType: "text/plain", Body: strings.NewReader("hello")}

	_, err := orch.Run(context.Background(), jobID, up)
	if common.CodeOf(err) != common.CodeBadExtension {
		t.Fatalf("returned error code = %q, want %q", common.CodeOf(err), common.CodeBadExtension)
	}

	job, _ := store.Get(context.Background(), jobID)
	if job.Status != constants.JobStatusFailed || job.Step != constants.JobStepDone || job.Progress != 100 {
		t.Errorf("job = %s/%s/%d, want FAILED/DONE/100", job.Status, job.Step, job.Progress)
	}
	if job.Error.Stage != "validate" || job.Error.Message == "" {
		t.Errorf("job error = %+v, want validate stage with message", job.Error)
	}
}

func TestRunRasterizeFailureFunnels(t *testing.T) {
	store := newMemStore()
	stageErr := common.NewStageError("rasterize", fmt.Errorf("pdftoppm exploded"))
	orch := testOrchestrator(t, store, &fakeRaster{fail: stageErr}, &fakeEngine{})

	jobID, _ := orch.Start(context.Background(), nil)
	_, err := orch.Run(context.Background(), jobID, pdfUpload())
	if common.CodeOf(err) != common.CodeStageExecution {
		t.Fatalf("code = %q, want %q", common.CodeOf(err), common.CodeStageExecution)
	}

	job, _ := store.Get(context.Background(), jobID)
	if job.Error.Stage != "rasterize" {
		t.Errorf("error stage = %q, want rasterize", job.Error.Stage)
	}
}

func TestRunOCRFailureFunnels(t *testing.T) {
	store := newMemStore()
	orch := testOrchestrator(t, store, &fakeRaster{pages: 1},
		&fakeEngine{fail: fmt.Errorf("tesseract crashed")})

	jobID, _ := orch.Start(context.Background(), nil)
	_, err := orch.Run(context.Background(), jobID, pdfUpload())
	if err == nil {
		t.Fatal("want OCR failure")
	}

	job, _ := store.Get(context.Background(), jobID)
	if job.Error.Stage != "ocr" {
		t.Errorf("error stage = %q, want ocr", job.Error.Stage)
	}
	if job.Status != constants.JobStatusFailed {
		t.Errorf("status = %s, want FAILED", job.Status)
	}
}

func TestRunRefusesTerminalJob(t *testing.T) {
	store := newMemStore()
	orch := testOrchestrator(t, store, &fakeRaster{pages: 1}, &fakeEngine{dets: []ocr.RawDetection{det("hello world text", 0.9)}})

	jobID, _ := orch.Start(context.Background(), nil)
	if _, err := orch.Run(context.Background(), jobID, pdfUpload()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err := orch.Run(context.Background(), jobID, pdfUpload())
	if common.CodeOf(err) != common.CodeConflict {
		t.Fatalf("re-run code = %q, want %q", common.CodeOf(err), common.CodeConflict)
	}
}

func TestRunUnknownJob(t *testing.T) {
	orch := testOrchestrator(t, newMemStore(), &fakeRaster{}, &fakeEngine{})
	_, err := orch.Run(context.Background(), "missing", pdfUpload())
	if !common.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestFetchResultGating(t *testing.T) {
	store := newMemStore()
	orch := testOrchestrator(t, store, &fakeRaster{pages: 1}, &fakeEngine{dets: []ocr.RawDetection{det("some readable text", 0.9)}})

	jobID, _ := orch.Start(context.Background(), nil)

	// Still CREATED: no result yet.
	if _, err := orch.FetchResult(context.Background(), jobID); !common.IsNotFound(err) {
		t.Fatalf("pre-run fetch: want not found, got %v", err)
	}

	res, err := orch.Run(context.Background(), jobID, pdfUpload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	path, err := orch.FetchResult(context.Background(), jobID)
	if err != nil {
		t.Fatalf("FetchResult: %v", err)
	}
	if path != res.Job.Output.ArtifactPath {
		t.Errorf("path = %q, want %q", path, res.Job.Output.ArtifactPath)
	}
}

func TestFetchResultFailedJob(t *testing.T) {
	store := newMemStore()
	orch := testOrchestrator(t, store, &fakeRaster{fail: fmt.Errorf("nope")}, &fakeEngine{})

	jobID, _ := orch.Start(context.Background(), nil)
	_, _ = orch.Run(context.Background(), jobID, pdfUpload())

	if _, err := orch.FetchResult(context.Background(), jobID); !common.IsNotFound(err) {
		t.Fatalf("failed job fetch: want not found, got %v", err)
	}
}

func TestStartRejectsBadSettings(t *testing.T) {
	orch := testOrchestrator(t, newMemStore(), &fakeRaster{}, &fakeEngine{})
	_, err := orch.Start(context.Background(), []byte(`{"dpi": 9000}`))
	if !common.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestStatusRequiresID(t *testing.T) {
	orch := testOrchestrator(t, newMemStore(), &fakeRaster{}, &fakeEngine{})
	if _, err := orch.Status(context.Background(), ""); !common.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestRunUsesSettingsOutputFormat(t *testing.T) {
	store := newMemStore()
	orch := testOrchestrator(t, store, &fakeRaster{pages: 1}, &fakeEngine{dets: []ocr.RawDetection{det("E = mc^2", 0.95)}})

	jobID, err := orch.Start(context.Background(), []byte(`{"output_format": "html", "title": "Physics Notes"}`))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := orch.Run(context.Background(), jobID, pdfUpload())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Job.Output.Format != "html" {
		t.Errorf("format = %q, want html", res.Job.Output.Format)
	}
	if filepath.Ext(res.Job.Output.ArtifactPath) != ".html" {
		t.Errorf("artifact = %q, want .html extension", res.Job.Output.ArtifactPath)
	}
	data, err := os.ReadFile(res.Job.Output.ArtifactPath)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.Contains(string(data), "Physics Notes") {
		t.Error("artifact missing settings title")
	}
}
