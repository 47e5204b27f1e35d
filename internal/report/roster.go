package report

import (
	"context"
	"fmt"

	"memberreports/internal/model"
)

type studentRoster struct {
	members MemberSource
}

func (g *studentRoster) Definition() model.ReportDefinition {
	return seededDefinition("student_roster")
}

func (g *studentRoster) Generate(ctx context.Context, p Params) (model.Payload, error) {
	filter := model.MemberFilter{
		Status: filterValue(p, "status", model.FilterAll),
		Grade:  filterValue(p, "grade", model.FilterAll),
	}
	includeContact := p.Bool("include_contact")

	members, err := g.members.ListMembers(ctx, filter)
	if err != nil {
		return model.Payload{}, fmt.Errorf("load members: %w", err)
	}
	sortMembers(members)

	rows := make([]model.Row, 0, len(members))
	for _, m := range members {
		if !filter.Matches(m) {
			continue
		}
		row := model.Row{
			{Key: "student_id", Value: m.StudentID},
			{Key: "name", Value: m.Name},
			{Key: "grade", Value: m.Grade},
			{Key: "status", Value: m.Status},
		}
		if includeContact {
			row = append(row,
				model.Field{Key: "parent_name", Value: m.ParentName},
				model.Field{Key: "contact", Value: m.Contact},
				model.Field{Key: "email", Value: m.Email},
			)
		}
		rows = append(rows, row)
	}

	return model.Payload{
		Title: "Student Roster Report",
		Rows:  rows,
		Summary: []model.SummaryEntry{
			{Key: "total_students", Value: len(rows)},
			{Key: "filters", Children: []model.Field{
				{Key: "status", Value: filter.Status},
				{Key: "grade", Value: filter.Grade},
				{Key: "include_contact", Value: includeContact},
			}},
		},
	}, nil
}
