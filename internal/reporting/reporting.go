// Package reporting runs a report end to end: catalog check, query, render,
// store, record.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/catalog"
	"memberreports/internal/ledger"
	"memberreports/internal/logger"
	"memberreports/internal/metrics"
	"memberreports/internal/model"
	"memberreports/internal/queue"
	"memberreports/internal/render"
)

// DefaultOwner is recorded when a request has no authenticated owner.
const DefaultOwner = "system"

// Catalog looks up report definitions.
type Catalog interface {
	Get(ctx context.Context, reportID string) (model.ReportDefinition, error)
}

// Engine builds payloads.
type Engine interface {
	Definition(reportID string) (model.ReportDefinition, bool)
	Generate(ctx context.Context, reportID string, raw map[string]string) (model.Payload, error)
}

// Renderer turns payloads into documents.
type Renderer interface {
	Render(p model.Payload, format model.OutputFormat) (render.Document, error)
}

// Files is the generated-file ledger.
type Files interface {
	Blobs() ledger.BlobStore
	Record(ctx context.Context, in ledger.RecordInput) (model.GeneratedFile, error)
	Resolve(ctx context.Context, fileID string) (ledger.Download, error)
	ListForOwner(ctx context.Context, owner string) ([]model.GeneratedFile, error)
}

// Request asks for one rendered report.
type Request struct {
	ReportID   string
	Parameters map[string]string
	Format     model.OutputFormat
	Owner      string
}

// Result describes a recorded file.
type Result struct {
	File        model.GeneratedFile `json:"file"`
	DownloadURL string              `json:"download_url"`
}

// Service wires the report pipeline together.
type Service struct {
	catalog  Catalog
	engine   Engine
	renderer Renderer
	files    Files
	queue    queue.Queue
	metrics  *metrics.Reports
}

// NewService creates the pipeline. q may be nil, in which case expired
// downloads are left for the periodic sweep.
func NewService(cat Catalog, eng Engine, r Renderer, files Files, q queue.Queue, m *metrics.Reports) *Service {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Service{catalog: cat, engine: eng, renderer: r, files: files, queue: q, metrics: m}
}

// DownloadURL is the API path serving fileID.
func DownloadURL(fileID string) string {
	return "/v1/files/" + fileID + "/download"
}

// Definition returns the catalog entry for reportID, or the engine's
// built-in definition for report kinds the catalog does not seed.
func (s *Service) Definition(ctx context.Context, reportID string) (model.ReportDefinition, error) {
	def, err := s.catalog.Get(ctx, reportID)
	if err == nil {
		return def, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		if builtin, ok := s.engine.Definition(reportID); ok {
			return builtin, nil
		}
	}
	return model.ReportDefinition{}, err
}

// Generate validates, renders and records a report. Nothing reaches the
// ledger unless the bytes were fully built and stored.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if req.Owner == "" {
		req.Owner = DefaultOwner
	}
	if req.Parameters == nil {
		req.Parameters = map[string]string{}
	}

	def, err := s.Definition(ctx, req.ReportID)
	if err != nil {
		return Result{}, s.fail(req.ReportID, err)
	}
	if err := catalog.Validate(def, req.Format, req.Parameters); err != nil {
		return Result{}, s.fail(req.ReportID, err)
	}

	payload, err := s.engine.Generate(ctx, req.ReportID, req.Parameters)
	if err != nil {
		return Result{}, s.fail(req.ReportID, err)
	}
	renderStart := time.Now()
	doc, err := s.renderer.Render(payload, req.Format)
	if err != nil {
		return Result{}, s.fail(req.ReportID, err)
	}
	renderTime := time.Since(renderStart)

	fileID := ledger.NewFileID()
	blobs := s.files.Blobs()
	path, err := blobs.Put(ctx, fileID+"_"+doc.Filename, doc.Bytes)
	if err != nil {
		return Result{}, s.fail(req.ReportID, fmt.Errorf("store %s: %w", doc.Filename, err))
	}
	file, err := s.files.Record(ctx, ledger.RecordInput{
		FileID:      fileID,
		ReportID:    req.ReportID,
		Filename:    doc.Filename,
		FilePath:    path,
		Parameters:  req.Parameters,
		Format:      req.Format,
		GeneratedBy: req.Owner,
		FileSize:    int64(len(doc.Bytes)),
	})
	if err != nil {
		if derr := blobs.Delete(ctx, path); derr != nil {
			logger.Warn("orphaned report file", "path", path, "err", derr)
		}
		return Result{}, s.fail(req.ReportID, err)
	}

	format := string(req.Format)
	s.metrics.GeneratedTotal.WithLabelValues(req.ReportID, format).Inc()
	s.metrics.RenderSeconds.WithLabelValues(req.ReportID, format).Observe(renderTime.Seconds())
	s.metrics.FileBytes.WithLabelValues(format).Observe(float64(file.FileSize))
	logger.Info("report generated",
		"report_id", req.ReportID, "file_id", file.FileID, "format", format,
		"owner", req.Owner, "bytes", file.FileSize, "elapsed", time.Since(start).String())

	return Result{File: file, DownloadURL: DownloadURL(file.FileID)}, nil
}

// Preview runs the query without rendering or recording anything.
func (s *Service) Preview(ctx context.Context, reportID string, raw map[string]string) (model.Payload, error) {
	def, err := s.Definition(ctx, reportID)
	if err != nil {
		return model.Payload{}, err
	}
	if !def.IsActive {
		return model.Payload{}, fmt.Errorf("%w: report %s is not active", apperr.ErrValidation, reportID)
	}
	return s.engine.Generate(ctx, reportID, raw)
}

// Download resolves a file. An expired entry is queued for purging.
func (s *Service) Download(ctx context.Context, fileID string) (ledger.Download, error) {
	d, err := s.files.Resolve(ctx, fileID)
	s.metrics.DownloadsTotal.WithLabelValues(downloadOutcome(err)).Inc()
	if errors.Is(err, apperr.ErrExpired) && s.queue != nil {
		if perr := s.queue.Publish(ctx, queue.PurgeMessage(fileID)); perr != nil {
			logger.Warn("purge request not queued", "file_id", fileID, "err", perr)
		}
	}
	return d, err
}

// ListFiles returns the owner's live files, newest first.
func (s *Service) ListFiles(ctx context.Context, owner string) ([]model.GeneratedFile, error) {
	return s.files.ListForOwner(ctx, owner)
}

func (s *Service) fail(reportID string, err error) error {
	reason := "error"
	switch {
	case errors.Is(err, apperr.ErrValidation):
		reason = "validation"
	case errors.Is(err, apperr.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, apperr.ErrNotImplemented):
		reason = "not_implemented"
	case errors.Is(err, apperr.ErrRender):
		reason = "render"
	}
	s.metrics.FailedTotal.WithLabelValues(reportID, reason).Inc()
	if reason == "error" || reason == "render" {
		logger.Error("report generation failed", "report_id", reportID, "err", err)
	}
	return err
}

func downloadOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.DownloadOK
	case errors.Is(err, apperr.ErrNotFound):
		return metrics.DownloadNotFound
	case errors.Is(err, apperr.ErrExpired):
		return metrics.DownloadExpired
	case errors.Is(err, apperr.ErrGone):
		return metrics.DownloadGone
	default:
		return metrics.DownloadError
	}
}
