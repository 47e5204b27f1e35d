package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberreports/internal/apperr"
	"memberreports/internal/catalog"
	"memberreports/internal/memstore"
	"memberreports/internal/model"
)

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewCatalog()
	svc := catalog.NewService(store)

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestSeedSkipsNonEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewCatalog()
	_, err := store.Insert(ctx, model.ReportDefinition{ReportID: "custom", Category: "X", Title: "Custom"})
	require.NoError(t, err)

	n, err := catalog.NewService(store).SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	count, _ := store.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewService(memstore.NewCatalog())
	_, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)

	active, err := svc.List(ctx, "", true)
	require.NoError(t, err)
	ids := make([]string, len(active))
	for i, d := range active {
		ids[i] = d.ReportID
	}
	// Analytics < Attendance < Students; within Attendance, titles sort
	// "Attendance Summary Report" before "Daily Attendance Report".
	assert.Equal(t, []string{"enrollment_statistics", "attendance_summary", "daily_attendance", "student_roster"}, ids)

	all, err := svc.List(ctx, "", false)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	attendance, err := svc.List(ctx, "Attendance", true)
	require.NoError(t, err)
	assert.Len(t, attendance, 2)

	none, err := svc.List(ctx, "attendance", true)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetAndSetActive(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewService(memstore.NewCatalog())
	_, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)

	def, err := svc.Get(ctx, "volunteer_contribution")
	require.NoError(t, err)
	assert.False(t, def.IsActive)

	require.NoError(t, svc.SetActive(ctx, "volunteer_contribution", true))
	def, err = svc.Get(ctx, "volunteer_contribution")
	require.NoError(t, err)
	assert.True(t, def.IsActive)

	_, err = svc.Get(ctx, "nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.True(t, errors.Is(svc.SetActive(ctx, "nope", true), apperr.ErrNotFound))
}

func TestValidate(t *testing.T) {
	defs := map[string]model.ReportDefinition{}
	for _, d := range catalog.DefaultDefinitions(time.Time{}) {
		defs[d.ReportID] = d
	}
	pdfOnly := defs["volunteer_contribution"]
	pdfOnly.IsActive = true

	tests := []struct {
		name    string
		def     model.ReportDefinition
		format  model.OutputFormat
		raw     map[string]string
		wantErr bool
	}{
		{"complete", defs["attendance_summary"], model.FormatPDF, map[string]string{"start_date": "2024-01-01", "end_date": "2024-01-31"}, false},
		{"missing required", defs["attendance_summary"], model.FormatPDF, map[string]string{"start_date": "2024-01-01"}, true},
		{"blank required", defs["attendance_summary"], model.FormatExcel, map[string]string{"start_date": "2024-01-01", "end_date": "  "}, true},
		{"required with default", defs["daily_attendance"], model.FormatPDF, nil, false},
		{"unsupported format", pdfOnly, model.FormatExcel, map[string]string{"start_date": "2024-01-01", "end_date": "2024-01-31"}, true},
		{"supported format", pdfOnly, model.FormatPDF, map[string]string{"start_date": "2024-01-01", "end_date": "2024-01-31"}, false},
		{"inactive", defs["volunteer_contribution"], model.FormatPDF, map[string]string{"start_date": "2024-01-01", "end_date": "2024-01-31"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := catalog.Validate(tt.def, tt.format, tt.raw)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
