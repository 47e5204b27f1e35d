package report

import (
	"context"
	"fmt"
	"strconv"

	"memberreports/internal/catalog"
	"memberreports/internal/model"
)

// MemberIDCards is the id of the card-structured report.
const MemberIDCards = "member_id_cards"

// DefaultAcademicYear is printed on cards when no year is requested.
const DefaultAcademicYear = "2024-2025"

type memberIDCards struct {
	members MemberSource
}

func (g *memberIDCards) Definition() model.ReportDefinition {
	return model.ReportDefinition{
		ReportID:    MemberIDCards,
		Title:       "Member ID Cards",
		Description: "Printable ID cards for members with optional QR codes",
		Category:    "Students",
		IsActive:    true,
		Parameters: []model.ParameterSpec{
			{Name: "status", Type: model.ParamSelect, Label: "Member Status", Default: model.StatusActive, Options: catalog.StatusOptions},
			{Name: "grade", Type: model.ParamSelect, Label: "Grade", Default: model.FilterAll, Options: catalog.GradeOptions},
			{Name: "cards_per_page", Type: model.ParamSelect, Label: "Cards Per Page", Default: "10", Options: []string{"8", "10"}},
			{Name: "include_qr_code", Type: model.ParamCheckbox, Label: "Include QR Code", Default: "true"},
			{Name: "academic_year", Type: model.ParamSelect, Label: "Academic Year", Default: DefaultAcademicYear},
		},
		OutputFormats: []model.OutputFormat{model.FormatPDF},
		EstimatedTime: "1-2 minutes",
	}
}

func (g *memberIDCards) Generate(ctx context.Context, p Params) (model.Payload, error) {
	filter := model.MemberFilter{
		Status: filterValue(p, "status", model.StatusActive),
		Grade:  filterValue(p, "grade", model.FilterAll),
	}
	perPage, err := strconv.Atoi(filterValue(p, "cards_per_page", "10"))
	if err != nil || perPage <= 0 {
		perPage = 10
	}
	includeQR := p.Bool("include_qr_code")
	year := filterValue(p, "academic_year", DefaultAcademicYear)

	members, err := g.members.ListMembers(ctx, filter)
	if err != nil {
		return model.Payload{}, fmt.Errorf("load members: %w", err)
	}
	sortMembers(members)

	cards := make([]model.Card, 0, len(members))
	for _, m := range members {
		if !filter.Matches(m) {
			continue
		}
		cards = append(cards, model.Card{
			StudentID:     m.StudentID,
			Name:          m.Name,
			Grade:         m.Grade,
			Status:        m.Status,
			ParentName:    m.ParentName,
			Contact:       m.Contact,
			AcademicYear:  year,
			IncludeQRCode: includeQR,
		})
	}
	pages := EstimatedPages(len(cards), perPage)

	return model.Payload{
		Title:          "Member ID Cards - " + year,
		Cards:          cards,
		CardsPerPage:   perPage,
		EstimatedPages: pages,
		IncludeQRCode:  includeQR,
		AcademicYear:   year,
		Summary: []model.SummaryEntry{
			{Key: "total_cards", Value: len(cards)},
			{Key: "cards_per_page", Value: perPage},
			{Key: "estimated_pages", Value: pages},
			{Key: "filters", Children: []model.Field{
				{Key: "status", Value: filter.Status},
				{Key: "grade", Value: filter.Grade},
				{Key: "academic_year", Value: year},
			}},
		},
	}, nil
}

// EstimatedPages is ceil(count / perPage); zero cards need zero pages.
func EstimatedPages(count, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}
