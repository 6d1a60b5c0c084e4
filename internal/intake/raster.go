package intake

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	// Page image probing handles everything pdftoppm and downstream OCR
	// engines are fed, not just png/jpeg.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/jpeg"
	_ "image/png"

	"github.com/joseph-ayodele/scandocx/constants"
	"github.com/joseph-ayodele/scandocx/internal/common"
)

// Rasterizer converts a PDF into an ordered sequence of page image paths.
// dpi <= 0 and format == "" fall back to the implementation's defaults.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string, dpi int, format string) ([]string, error)
}

// RasterConfig configures the poppler-backed rasterizer.
type RasterConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // default 250
	Format   string // "jpeg" (default) or "png"
	MaxPages int    // 0 = no limit
}

// PopplerRasterizer shells out to pdftoppm through a Runner.
type PopplerRasterizer struct {
	cfg    RasterConfig
	runner Runner
	logger *slog.Logger
}

func NewPopplerRasterizer(cfg RasterConfig, logger *slog.Logger) *PopplerRasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 250
	}
	if _, ok := constants.PageImageFormats[cfg.Format]; !ok {
		cfg.Format = "jpeg"
	}
	return &PopplerRasterizer{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Rasterize renders pdfPath into outDir as page_1.<ext>, page_2.<ext>, ...
// and returns the paths in page order.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int, format string) ([]string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, common.NewStageError("rasterize", fmt.Errorf("PDF not found: %s", pdfPath))
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, common.NewStageError("rasterize", err)
	}

	if dpi <= 0 {
		dpi = r.cfg.DPI
	}
	if _, ok := constants.PageImageFormats[format]; !ok {
		format = r.cfg.Format
	}
	formatFlag, ext := "-jpeg", "jpg"
	if format == "png" {
		formatFlag, ext = "-png", "png"
	}

	prefix := filepath.Join(outDir, "pp")
	// pdftoppm -r <dpi> -jpeg <in.pdf> <outDir/pp>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", dpi), formatFlag, pdfPath, prefix)
	if err != nil {
		return nil, common.NewStageError("rasterize", fmt.Errorf("pdftoppm: %v: %s", err, truncate(string(errb), 512)))
	}

	// pdftoppm pads page numbers to a fixed width, so a string sort is a
	// page-order sort.
	matches, _ := filepath.Glob(prefix + "-*." + ext)
	sort.Strings(matches)
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		for _, extra := range matches[r.cfg.MaxPages:] {
			_ = os.Remove(extra)
		}
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, common.NewStageError("rasterize", fmt.Errorf("pdftoppm produced no images"))
	}

	paths := make([]string, 0, len(matches))
	for i, m := range matches {
		dst := filepath.Join(outDir, fmt.Sprintf("page_%d.%s", i+1, ext))
		if err := os.Rename(m, dst); err != nil {
			return nil, common.NewStageError("rasterize", err)
		}
		if err := probePageImage(dst); err != nil {
			return nil, common.NewStageError("rasterize", err)
		}
		paths = append(paths, dst)
	}

	r.logger.Info("converted PDF pages", "pdf", pdfPath, "pages", len(paths), "out_dir", outDir)
	return paths, nil
}

// probePageImage confirms the rendered page decodes as an image.
func probePageImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("unreadable page image %s: %w", path, err)
	}
	return nil
}
