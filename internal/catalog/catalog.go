// Package catalog manages the registered report definitions.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/logger"
	"memberreports/internal/model"
)

// Store persists report definitions. Get returns apperr.ErrNotFound for an
// unknown id. Insert must be an upsert-by-id that reports whether a row was
// actually written.
type Store interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, def model.ReportDefinition) (bool, error)
	List(ctx context.Context, category string, activeOnly bool) ([]model.ReportDefinition, error)
	Get(ctx context.Context, reportID string) (model.ReportDefinition, error)
	SetActive(ctx context.Context, reportID string, active bool) error
}

// Service is the report catalog.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a catalog backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// List returns definitions filtered by exact category (when non-empty) and
// by active flag, ordered by category then title.
func (s *Service) List(ctx context.Context, category string, activeOnly bool) ([]model.ReportDefinition, error) {
	defs, err := s.store.List(ctx, category, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Category != defs[j].Category {
			return defs[i].Category < defs[j].Category
		}
		return defs[i].Title < defs[j].Title
	})
	return defs, nil
}

// Get returns one definition.
func (s *Service) Get(ctx context.Context, reportID string) (model.ReportDefinition, error) {
	def, err := s.store.Get(ctx, reportID)
	if err != nil {
		return model.ReportDefinition{}, fmt.Errorf("report %q: %w", reportID, err)
	}
	return def, nil
}

// SetActive toggles a definition's active flag.
func (s *Service) SetActive(ctx context.Context, reportID string, active bool) error {
	if err := s.store.SetActive(ctx, reportID, active); err != nil {
		return fmt.Errorf("report %q: %w", reportID, err)
	}
	return nil
}

// SeedDefaults inserts the default definitions when the catalog is empty.
// Inserts are upserts by id, so a racing instance that also saw an empty
// catalog cannot duplicate entries.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	inserted := 0
	for _, def := range DefaultDefinitions(s.now()) {
		ok, err := s.store.Insert(ctx, def)
		if err != nil {
			return inserted, fmt.Errorf("seed %s: %w", def.ReportID, err)
		}
		if ok {
			inserted++
		}
	}
	logger.Info("default reports initialized", "inserted", inserted)
	return inserted, nil
}

// Validate checks a generation request against a definition before any
// query or rendering work happens.
func Validate(def model.ReportDefinition, format model.OutputFormat, raw map[string]string) error {
	if !def.IsActive {
		return fmt.Errorf("%w: report %s is not active", apperr.ErrValidation, def.ReportID)
	}
	if !def.Supports(format) {
		return fmt.Errorf("%w: report %s does not support %s output", apperr.ErrValidation, def.ReportID, format)
	}
	var missing []string
	for _, p := range def.Parameters {
		if !p.Required || p.Default != "" {
			continue
		}
		if strings.TrimSpace(raw[p.Name]) == "" {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required parameters: %s", apperr.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
