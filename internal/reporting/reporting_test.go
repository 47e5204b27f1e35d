package reporting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberreports/internal/apperr"
	"memberreports/internal/catalog"
	"memberreports/internal/ledger"
	"memberreports/internal/memstore"
	"memberreports/internal/metrics"
	"memberreports/internal/model"
	"memberreports/internal/queue"
	"memberreports/internal/render"
	"memberreports/internal/report"
	"memberreports/internal/reporting"
)

type failingRenderer struct{}

func (failingRenderer) Render(p model.Payload, _ model.OutputFormat) (render.Document, error) {
	return render.Document{}, apperr.ErrRender
}

type fixture struct {
	svc     *reporting.Service
	files   *memstore.Files
	blobs   *memstore.Blobs
	queue   *queue.InMemory
	metrics *metrics.Reports
	clock   *time.Time
}

func newFixture(t *testing.T, r reporting.Renderer) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	fx := &fixture{
		files:   memstore.NewFiles(),
		blobs:   memstore.NewBlobs(),
		queue:   queue.NewInMemory(8),
		metrics: metrics.New(nil),
		clock:   &now,
	}

	cat := catalog.NewService(memstore.NewCatalog())
	_, err := cat.SeedDefaults(ctx)
	require.NoError(t, err)

	members := memstore.NewMembers(
		model.Member{StudentID: "S00001", Name: "Ava Brown", Grade: "3", Status: model.StatusActive},
		model.Member{StudentID: "S00002", Name: "Ben Cole", Grade: "4", Status: model.StatusActive},
	)
	clockFn := func() time.Time { return *fx.clock }
	eng := report.NewEngine(memstore.NewAttendance(), members, report.WithLocation(time.UTC), report.WithClock(clockFn))
	if r == nil {
		r = render.New(render.Options{Location: time.UTC, Now: clockFn})
	}
	files := ledger.NewService(fx.files, fx.blobs, ledger.WithClock(clockFn))
	fx.svc = reporting.NewService(cat, eng, r, files, fx.queue, fx.metrics)
	return fx
}

func TestGenerateRecordsFile(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil)

	res, err := fx.svc.Generate(ctx, reporting.Request{
		ReportID:   "student_roster",
		Parameters: map[string]string{"include_contact": "false"},
		Format:     model.FormatExcel,
		Owner:      "staff-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "student_roster_20240115_120000.xlsx", res.File.Filename)
	assert.Equal(t, "/v1/files/"+res.File.FileID+"/download", res.DownloadURL)
	assert.Equal(t, "staff-1", res.File.GeneratedBy)
	assert.Equal(t, map[string]string{"include_contact": "false"}, res.File.Parameters)
	assert.Positive(t, res.File.FileSize)
	assert.Equal(t, 1, fx.blobs.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.GeneratedTotal.WithLabelValues("student_roster", "Excel")))

	d, err := fx.svc.Download(ctx, res.File.FileID)
	require.NoError(t, err)
	assert.Equal(t, res.File.FileSize, int64(len(d.Bytes)))
	assert.Equal(t, model.ContentTypeXLSX, d.ContentType)

	files, err := fx.svc.ListFiles(ctx, "staff-1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 1, files[0].DownloadCount)
}

func TestGenerateObservesRenderTime(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil)

	_, err := fx.svc.Generate(ctx, reporting.Request{ReportID: "student_roster", Format: model.FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(fx.metrics.RenderSeconds, "report_render_seconds"))

	failed := newFixture(t, failingRenderer{})
	_, err = failed.svc.Generate(ctx, reporting.Request{ReportID: "student_roster", Format: model.FormatPDF})
	require.Error(t, err)
	assert.Equal(t, 0, testutil.CollectAndCount(failed.metrics.RenderSeconds, "report_render_seconds"))
}

func TestGenerateDefaultsOwner(t *testing.T) {
	fx := newFixture(t, nil)
	res, err := fx.svc.Generate(context.Background(), reporting.Request{ReportID: "daily_attendance", Format: model.FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, reporting.DefaultOwner, res.File.GeneratedBy)
}

func TestGenerateIDCardsFromBuiltinDefinition(t *testing.T) {
	fx := newFixture(t, nil)
	res, err := fx.svc.Generate(context.Background(), reporting.Request{ReportID: report.MemberIDCards, Format: model.FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "member_id_cards_20240115_120000.pdf", res.File.Filename)

	_, err = fx.svc.Generate(context.Background(), reporting.Request{ReportID: report.MemberIDCards, Format: model.FormatExcel})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestGenerateFailuresLeaveNoTrace(t *testing.T) {
	tests := []struct {
		name     string
		renderer reporting.Renderer
		req      reporting.Request
		target   error
		reason   string
	}{
		{"render failure", failingRenderer{}, reporting.Request{ReportID: "student_roster", Format: model.FormatPDF}, apperr.ErrRender, "render"},
		{"unknown report", nil, reporting.Request{ReportID: "no_such_report", Format: model.FormatPDF}, apperr.ErrNotFound, "not_found"},
		{"inactive report", nil, reporting.Request{ReportID: "volunteer_contribution", Format: model.FormatPDF}, apperr.ErrValidation, "validation"},
		{"missing parameter", nil, reporting.Request{ReportID: "attendance_summary", Format: model.FormatPDF,
			Parameters: map[string]string{"start_date": "2024-01-01"}}, apperr.ErrValidation, "validation"},
		{"no generator", nil, reporting.Request{ReportID: "enrollment_statistics", Format: model.FormatPDF,
			Parameters: map[string]string{"academic_year": "2024-2025"}}, apperr.ErrNotImplemented, "not_implemented"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.renderer)
			_, err := fx.svc.Generate(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.Zero(t, fx.blobs.Len())

			files, err := fx.svc.ListFiles(context.Background(), reporting.DefaultOwner)
			require.NoError(t, err)
			assert.Empty(t, files)
			assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.FailedTotal.WithLabelValues(tt.req.ReportID, tt.reason)))
		})
	}
}

func TestDownloadExpiredQueuesPurge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx := newFixture(t, nil)

	res, err := fx.svc.Generate(ctx, reporting.Request{ReportID: "daily_attendance", Format: model.FormatPDF})
	require.NoError(t, err)

	*fx.clock = fx.clock.Add(ledger.DefaultTTL + time.Second)
	_, err = fx.svc.Download(ctx, res.File.FileID)
	assert.True(t, errors.Is(err, apperr.ErrExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.DownloadsTotal.WithLabelValues(metrics.DownloadExpired)))

	msgs, err := fx.queue.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-msgs:
		assert.Equal(t, queue.TypePurge, msg.Type)
		assert.Equal(t, res.File.FileID, string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("no purge request queued")
	}

	_, err = fx.svc.Download(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.DownloadsTotal.WithLabelValues(metrics.DownloadNotFound)))
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil)

	p, err := fx.svc.Preview(ctx, "student_roster", nil)
	require.NoError(t, err)
	assert.Len(t, p.Rows, 2)
	assert.Zero(t, fx.blobs.Len())

	_, err = fx.svc.Preview(ctx, "volunteer_contribution", nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
