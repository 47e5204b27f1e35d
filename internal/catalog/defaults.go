package catalog

import (
	"time"

	"memberreports/internal/model"
)

// GradeOptions lists the grades offered by grade selectors.
var GradeOptions = []string{"All", "Pre-K", "K", "1", "2", "3", "4", "5", "6", "7", "8"}

// StatusOptions lists the member statuses offered by status selectors.
var StatusOptions = []string{"All", model.StatusActive, model.StatusInactive, model.StatusAlumni}

var bothFormats = []model.OutputFormat{model.FormatPDF, model.FormatExcel}

// DefaultDefinitions returns the definitions seeded into an empty catalog.
func DefaultDefinitions(now time.Time) []model.ReportDefinition {
	defs := []model.ReportDefinition{
		{
			ReportID:    "attendance_summary",
			Title:       "Attendance Summary Report",
			Description: "Summary of student attendance for a specified date range",
			Category:    "Attendance",
			IsActive:    true,
			Parameters: []model.ParameterSpec{
				{Name: "start_date", Type: model.ParamDate, Label: "Start Date", Required: true},
				{Name: "end_date", Type: model.ParamDate, Label: "End Date", Required: true},
				{Name: "grade", Type: model.ParamSelect, Label: "Grade", Options: GradeOptions},
			},
			OutputFormats: bothFormats,
			EstimatedTime: "2-5 minutes",
		},
		{
			ReportID:    "student_roster",
			Title:       "Student Roster Report",
			Description: "Complete list of students with their details and contact information",
			Category:    "Students",
			IsActive:    true,
			Parameters: []model.ParameterSpec{
				{Name: "status", Type: model.ParamSelect, Label: "Student Status", Default: "All", Options: StatusOptions},
				{Name: "grade", Type: model.ParamSelect, Label: "Grade", Default: "All", Options: GradeOptions},
				{Name: "include_contact", Type: model.ParamCheckbox, Label: "Include Parent Contact Information", Default: "true"},
			},
			OutputFormats: bothFormats,
			EstimatedTime: "1-3 minutes",
		},
		{
			ReportID:    "daily_attendance",
			Title:       "Daily Attendance Report",
			Description: "Daily attendance report for a specific date",
			Category:    "Attendance",
			IsActive:    true,
			Parameters: []model.ParameterSpec{
				{Name: "date", Type: model.ParamDate, Label: "Date", Required: true, Default: "today"},
			},
			OutputFormats: bothFormats,
			EstimatedTime: "1 minute",
		},
		{
			ReportID:    "enrollment_statistics",
			Title:       "Enrollment Statistics",
			Description: "Statistical overview of student enrollment and demographics",
			Category:    "Analytics",
			IsActive:    true,
			Parameters: []model.ParameterSpec{
				{Name: "academic_year", Type: model.ParamSelect, Label: "Academic Year", Required: true,
					Options: []string{"2024-2025", "2023-2024", "2022-2023"}},
			},
			OutputFormats: bothFormats,
			EstimatedTime: "2-4 minutes",
		},
		{
			ReportID:    "volunteer_contribution",
			Title:       "Volunteer Contribution Report",
			Description: "Report on volunteer/teacher contributions and participation",
			Category:    "Volunteers",
			IsActive:    false,
			Parameters: []model.ParameterSpec{
				{Name: "start_date", Type: model.ParamDate, Label: "Start Date", Required: true},
				{Name: "end_date", Type: model.ParamDate, Label: "End Date", Required: true},
			},
			OutputFormats: []model.OutputFormat{model.FormatPDF},
			EstimatedTime: "3-6 minutes",
		},
	}
	for i := range defs {
		defs[i].CreatedAt = now
		defs[i].UpdatedAt = now
	}
	return defs
}
