package report

import (
	"context"
	"fmt"
	"time"

	"memberreports/internal/model"
)

// Check-in states used in daily attendance rows.
const (
	StatePresent = "Present"
	StateAbsent  = "Absent"
)

type dailyAttendance struct {
	att     AttendanceSource
	members MemberSource
	loc     *time.Location
}

func (g *dailyAttendance) Definition() model.ReportDefinition {
	return seededDefinition("daily_attendance")
}

func (g *dailyAttendance) Generate(ctx context.Context, p Params) (model.Payload, error) {
	day := p.Date("date")
	from := day
	to := day.AddDate(0, 0, 1).Add(-time.Second)

	records, err := g.att.AttendanceBetween(ctx, from, to)
	if err != nil {
		return model.Payload{}, fmt.Errorf("load attendance: %w", err)
	}
	checkIns := make(map[string]time.Time, len(records))
	for _, r := range records {
		if _, ok := checkIns[r.StudentID]; !ok {
			checkIns[r.StudentID] = r.Timestamp
		}
	}

	members, err := g.members.ListMembers(ctx, model.MemberFilter{Status: model.StatusActive, Grade: model.FilterAll})
	if err != nil {
		return model.Payload{}, fmt.Errorf("load members: %w", err)
	}
	sortMembers(members)

	rows := make([]model.Row, 0, len(members))
	present := 0
	for _, m := range members {
		state, at := StateAbsent, ""
		if ts, ok := checkIns[m.StudentID]; ok {
			state, at = StatePresent, ts.In(g.loc).Format("15:04:05")
			present++
		}
		rows = append(rows, model.Row{
			{Key: "student_id", Value: m.StudentID},
			{Key: "name", Value: m.Name},
			{Key: "grade", Value: m.Grade},
			{Key: "status", Value: state},
			{Key: "check_in_time", Value: at},
		})
	}

	total := len(rows)
	date := day.Format(DateLayout)
	return model.Payload{
		Title: "Daily Attendance Report - " + date,
		Rows:  rows,
		Summary: []model.SummaryEntry{
			{Key: "date", Value: date},
			{Key: "total_students", Value: total},
			{Key: "present", Value: present},
			{Key: "absent", Value: total - present},
			{Key: "attendance_rate", Value: attendanceRate(present, total)},
		},
	}, nil
}

func attendanceRate(present, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(present)/float64(total)*100)
}
