package member

import (
	"context"
	"sort"
	"strconv"

	"memberreports/internal/model"
)

const recentAdditions = 5

// Overview counts members by status.
type Overview struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Alumni   int `json:"alumni"`
}

// GradeCount is the number of active members in one grade.
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// Stats summarizes the member table for dashboards.
type Stats struct {
	Overview        Overview       `json:"overview"`
	ByGrade         []GradeCount   `json:"by_grade"`
	RecentAdditions []model.Member `json:"recent_additions"`
}

// Stats returns status totals, active members per grade and the most
// recently created members.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.store.ListMembers(ctx, model.MemberFilter{})
	if err != nil {
		return Stats{}, err
	}

	st := Stats{ByGrade: []GradeCount{}, RecentAdditions: []model.Member{}}
	perGrade := map[string]int{}
	for _, m := range all {
		st.Overview.Total++
		switch m.Status {
		case model.StatusActive:
			st.Overview.Active++
			perGrade[m.Grade]++
		case model.StatusInactive:
			st.Overview.Inactive++
		case model.StatusAlumni:
			st.Overview.Alumni++
		}
	}
	for _, g := range sortGrades(keys(perGrade)) {
		st.ByGrade = append(st.ByGrade, GradeCount{Grade: g, Count: perGrade[g]})
	}

	recent := append([]model.Member(nil), all...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentAdditions {
		recent = recent[:recentAdditions]
	}
	st.RecentAdditions = append(st.RecentAdditions, recent...)
	return st, nil
}

// Grades returns the distinct grades of active members. Numeric grades sort
// numerically, everything else by name.
func (s *Service) Grades(ctx context.Context) ([]string, error) {
	active, err := s.store.ListMembers(ctx, model.MemberFilter{Status: model.StatusActive})
	if err != nil {
		return nil, err
	}
	seen := map[string]int{}
	for _, m := range active {
		if m.Grade != "" {
			seen[m.Grade]++
		}
	}
	return sortGrades(keys(seen)), nil
}

func keys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortGrades(grades []string) []string {
	sort.Slice(grades, func(i, j int) bool {
		a, errA := strconv.Atoi(grades[i])
		b, errB := strconv.Atoi(grades[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return grades[i] < grades[j]
	})
	return grades
}
