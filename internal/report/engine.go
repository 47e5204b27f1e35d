// Package report turns a report id and its parameters into a normalized
// payload. Each report kind is a Generator registered under its id.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/catalog"
	"memberreports/internal/model"
)

// AttendanceSource reads check-ins. AttendanceBetween is inclusive on both
// ends and ordered by timestamp ascending.
type AttendanceSource interface {
	AttendanceBetween(ctx context.Context, from, to time.Time) ([]model.AttendanceRecord, error)
}

// MemberSource reads members. ListMembers orders by grade then name.
type MemberSource interface {
	MembersByIDs(ctx context.Context, ids []string) ([]model.Member, error)
	ListMembers(ctx context.Context, filter model.MemberFilter) ([]model.Member, error)
}

// Generator builds the payload of one report kind from parsed parameters.
type Generator interface {
	Definition() model.ReportDefinition
	Generate(ctx context.Context, p Params) (model.Payload, error)
}

// Engine dispatches report ids to generators.
type Engine struct {
	generators map[string]Generator
	now        func() time.Time
	loc        *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now, used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the location day windows are computed in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an engine with the built-in report kinds registered.
func NewEngine(att AttendanceSource, members MemberSource, opts ...Option) *Engine {
	e := &Engine{
		generators: map[string]Generator{},
		now:        time.Now,
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Register(&attendanceSummary{att: att, members: members, loc: e.loc})
	e.Register(&studentRoster{members: members})
	e.Register(&dailyAttendance{att: att, members: members, loc: e.loc})
	e.Register(&memberIDCards{members: members})
	return e
}

// Register adds or replaces the generator for its definition's id.
func (e *Engine) Register(g Generator) {
	e.generators[g.Definition().ReportID] = g
}

// Definition returns the built-in definition of a registered report.
func (e *Engine) Definition(reportID string) (model.ReportDefinition, bool) {
	g, ok := e.generators[reportID]
	if !ok {
		return model.ReportDefinition{}, false
	}
	return g.Definition(), true
}

// Generate parses raw against the report's parameter specs and runs it.
func (e *Engine) Generate(ctx context.Context, reportID string, raw map[string]string) (model.Payload, error) {
	g, ok := e.generators[reportID]
	if !ok {
		return model.Payload{}, fmt.Errorf("%w: %s", apperr.ErrNotImplemented, reportID)
	}
	params, err := ParseParams(g.Definition().Parameters, raw, e.now(), e.loc)
	if err != nil {
		return model.Payload{}, err
	}
	payload, err := g.Generate(ctx, params)
	if err != nil {
		return model.Payload{}, fmt.Errorf("generate %s: %w", reportID, err)
	}
	payload.ReportID = reportID
	return payload, nil
}

// seededDefinition returns the catalog default for id so generators and the
// seeded catalog share one parameter list.
func seededDefinition(id string) model.ReportDefinition {
	for _, def := range catalog.DefaultDefinitions(time.Time{}) {
		if def.ReportID == id {
			return def
		}
	}
	panic("report: no default definition for " + id)
}

func sortMembers(members []model.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Grade != members[j].Grade {
			return members[i].Grade < members[j].Grade
		}
		return members[i].Name < members[j].Name
	})
}

func filterValue(p Params, name, fallback string) string {
	if v := p.String(name); v != "" {
		return v
	}
	return fallback
}
