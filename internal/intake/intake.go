// Package intake handles upload validation and PDF rasterization: the two
// steps that turn an inbound byte stream into a directory of page images.
package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/scandocx/constants"
	"github.com/joseph-ayodele/scandocx/internal/common"
)

const copyChunkSize = 1 << 20 // 1MB

// Upload is a transport-agnostic view of an inbound file.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// SavedFile describes a persisted upload.
type SavedFile struct {
	Path      string
	SizeBytes int64
}

// Config controls validation limits. The %PDF- signature check is on by
// default; SkipMagic is the explicit opt-out.
type Config struct {
	MaxSizeBytes int64
	SkipMagic    bool
}

// Intake validates and persists uploads without ever buffering the whole
// file in memory.
type Intake struct {
	cfg Config
	log *slog.Logger
}

func NewIntake(cfg Config, logger *slog.Logger) *Intake {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 25 * 1024 * 1024
	}
	return &Intake{cfg: cfg, log: logger}
}

// ValidateSaveUpload checks the upload is plausibly a PDF and streams it to
// jobDir/filename. Rejections before the first byte (extension, content
// type) persist nothing; rejections mid-stream (size ceiling) or after
// (magic header) delete the partial file before surfacing the error.
func (i *Intake) ValidateSaveUpload(ctx context.Context, up Upload, jobDir, filename string) (SavedFile, error) {
	if up.Body == nil {
		return SavedFile{}, common.NewValidationError(common.CodeValidation, "uploaded file not found")
	}
	if constants.NormalizeExt(filepath.Ext(up.Filename)) != constants.PDFExtension {
		return SavedFile{}, common.NewValidationError(common.CodeBadExtension,
			"only PDF files are supported, got %q", up.Filename)
	}
	if !constants.ContentTypeAllowed(up.ContentType) {
		return SavedFile{}, common.NewValidationError(common.CodeBadContentType,
			"unexpected content type: %s", up.ContentType)
	}

	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return SavedFile{}, common.WrapError(err, "create job dir")
	}
	outPath := filepath.Join(jobDir, filename)

	f, err := os.Create(outPath)
	if err != nil {
		return SavedFile{}, common.WrapError(err, "create upload file")
	}

	var total int64
	var firstChunk []byte
	buf := make([]byte, copyChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			i.discard(f, outPath)
			return SavedFile{}, err
		}
		n, rerr := up.Body.Read(buf)
		if n > 0 {
			// Readers may deliver arbitrarily short reads, so the signature
			// probe accumulates until it holds 16 bytes.
			if need := 16 - len(firstChunk); need > 0 {
				firstChunk = append(firstChunk, buf[:min(n, need)]...)
			}
			total += int64(n)
			if total > i.cfg.MaxSizeBytes {
				i.discard(f, outPath)
				return SavedFile{}, common.NewValidationError(common.CodeTooLarge,
					"file too large, max is %d bytes", i.cfg.MaxSizeBytes)
			}
			if _, werr := f.Write(buf[:n]); werr != nil {
				i.discard(f, outPath)
				return SavedFile{}, common.WrapError(werr, "write upload")
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			i.discard(f, outPath)
			return SavedFile{}, common.WrapError(rerr, "read upload")
		}
	}

	if err := f.Close(); err != nil {
		i.remove(outPath)
		return SavedFile{}, common.WrapError(err, "close upload file")
	}

	if !i.cfg.SkipMagic && !strings.HasPrefix(string(firstChunk), constants.PDFMagic) {
		i.remove(outPath)
		return SavedFile{}, common.NewValidationError(common.CodeBadSignature,
			"file is not a valid PDF (missing %s header)", constants.PDFMagic)
	}

	i.log.Info("saved PDF upload", "filename", up.Filename, "path", outPath, "bytes", total)
	return SavedFile{Path: outPath, SizeBytes: total}, nil
}

// discard closes and removes a partial upload; failures are best-effort.
func (i *Intake) discard(f *os.File, path string) {
	_ = f.Close()
	i.remove(path)
}

func (i *Intake) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		i.log.Warn("failed to remove partial upload", "path", path, "error", err)
	}
}
