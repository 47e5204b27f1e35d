package report

import (
	"context"
	"fmt"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

type attendanceSummaryParams struct {
	start, end time.Time
	grade      string
}

func decodeAttendanceSummary(p Params) (attendanceSummaryParams, error) {
	out := attendanceSummaryParams{
		start: p.Date("start_date"),
		end:   p.Date("end_date"),
		grade: filterValue(p, "grade", model.FilterAll),
	}
	if out.end.Before(out.start) {
		return out, fmt.Errorf("%w: end_date %s is before start_date %s", apperr.ErrValidation,
			out.end.Format(DateLayout), out.start.Format(DateLayout))
	}
	return out, nil
}

type attendanceSummary struct {
	att     AttendanceSource
	members MemberSource
	loc     *time.Location
}

func (g *attendanceSummary) Definition() model.ReportDefinition {
	return seededDefinition("attendance_summary")
}

func (g *attendanceSummary) Generate(ctx context.Context, p Params) (model.Payload, error) {
	args, err := decodeAttendanceSummary(p)
	if err != nil {
		return model.Payload{}, err
	}
	from := args.start
	to := args.end.AddDate(0, 0, 1).Add(-time.Microsecond)

	records, err := g.att.AttendanceBetween(ctx, from, to)
	if err != nil {
		return model.Payload{}, fmt.Errorf("load attendance: %w", err)
	}

	ids := make([]string, 0, len(records))
	seen := map[string]bool{}
	for _, r := range records {
		if !seen[r.StudentID] {
			seen[r.StudentID] = true
			ids = append(ids, r.StudentID)
		}
	}
	members, err := g.members.MembersByIDs(ctx, ids)
	if err != nil {
		return model.Payload{}, fmt.Errorf("load members: %w", err)
	}
	byID := make(map[string]model.Member, len(members))
	for _, m := range members {
		byID[m.StudentID] = m
	}

	rows := make([]model.Row, 0, len(records))
	unique := map[string]bool{}
	for _, r := range records {
		m, ok := byID[r.StudentID]
		if !ok {
			continue
		}
		if args.grade != model.FilterAll && m.Grade != args.grade {
			continue
		}
		ts := r.Timestamp.In(g.loc)
		rows = append(rows, model.Row{
			{Key: "student_id", Value: r.StudentID},
			{Key: "name", Value: m.Name},
			{Key: "grade", Value: m.Grade},
			{Key: "date", Value: ts.Format(DateLayout)},
			{Key: "time", Value: ts.Format("15:04:05")},
		})
		unique[r.StudentID] = true
	}

	dateRange := fmt.Sprintf("%s to %s", args.start.Format(DateLayout), args.end.Format(DateLayout))
	return model.Payload{
		Title: fmt.Sprintf("Attendance Summary (%s)", dateRange),
		Rows:  rows,
		Summary: []model.SummaryEntry{
			{Key: "total_records", Value: len(rows)},
			{Key: "unique_students", Value: len(unique)},
			{Key: "date_range", Value: dateRange},
		},
	}, nil
}
