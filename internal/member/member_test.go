package member_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberreports/internal/apperr"
	"memberreports/internal/member"
	"memberreports/internal/memstore"
	"memberreports/internal/model"
)

func TestPrefixForGrade(t *testing.T) {
	tests := []struct {
		grade string
		want  string
	}{
		{"Pre-K", member.PrefixStudent},
		{"K", member.PrefixStudent},
		{"kindergarten", member.PrefixStudent},
		{"3", member.PrefixStudent},
		{" 12 ", member.PrefixStudent},
		{"Teacher", member.PrefixTeacher},
		{"staff", member.PrefixTeacher},
		{"Parent", member.PrefixParent},
		{"guardian", member.PrefixParent},
		{"Volunteer", member.PrefixOther},
		{"", member.PrefixOther},
	}
	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			assert.Equal(t, tt.want, member.PrefixForGrade(tt.grade))
		})
	}
}

func TestCreateAssignsSequentialIDsPerPrefix(t *testing.T) {
	ctx := context.Background()
	svc := member.NewService(memstore.NewMembers())

	a, err := svc.Create(ctx, member.Input{Name: "Ava Brown", Grade: "3"})
	require.NoError(t, err)
	assert.Equal(t, "S00001", a.StudentID)
	assert.Equal(t, model.StatusActive, a.Status)

	teacher, err := svc.Create(ctx, member.Input{Name: "Ms. Grey", Grade: "Teacher"})
	require.NoError(t, err)
	assert.Equal(t, "T00001", teacher.StudentID)

	b, err := svc.Create(ctx, member.Input{Name: "Ben Cole", Grade: "K"})
	require.NoError(t, err)
	assert.Equal(t, "S00002", b.StudentID)
}

func TestCreateExplicitID(t *testing.T) {
	ctx := context.Background()
	svc := member.NewService(memstore.NewMembers())

	m, err := svc.Create(ctx, member.Input{StudentID: "s00042", Name: "Cara", Email: " Cara@Example.COM "})
	require.NoError(t, err)
	assert.Equal(t, "S00042", m.StudentID)
	assert.Equal(t, "cara@example.com", m.Email)

	next, err := svc.NextID(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, "S00043", next)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   member.Input
	}{
		{"missing name", member.Input{Grade: "3"}},
		{"bad id", member.Input{StudentID: "X123", Name: "A"}},
		{"reserved grade", member.Input{Name: "A", Grade: "all"}},
		{"long grade", member.Input{Name: "A", Grade: "Grade Twelve Advanced Placement"}},
		{"bad status", member.Input{Name: "A", Status: "Graduated"}},
		{"bad email", member.Input{Name: "A", Email: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := member.NewService(memstore.NewMembers()).Create(context.Background(), tt.in)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
		})
	}
}

func TestCreateConflicts(t *testing.T) {
	ctx := context.Background()
	svc := member.NewService(memstore.NewMembers())
	_, err := svc.Create(ctx, member.Input{StudentID: "S00001", Name: "Ava", Email: "ava@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, member.Input{StudentID: "S00001", Name: "Other"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	_, err = svc.Create(ctx, member.Input{Name: "Ava"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	_, err = svc.Create(ctx, member.Input{Name: "Zed", Email: "AVA@example.com"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestSequenceExhausted(t *testing.T) {
	svc := member.NewService(memstore.NewMembers(model.Member{StudentID: "O99999", Name: "Last"}))
	_, err := svc.NextID(context.Background(), "Volunteer")
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestUpdateKeepsID(t *testing.T) {
	ctx := context.Background()
	svc := member.NewService(memstore.NewMembers())
	m, err := svc.Create(ctx, member.Input{Name: "Ava", Grade: "3"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, m.StudentID, member.Input{Name: "Ava Brown", Grade: "4", Status: model.StatusAlumni})
	require.NoError(t, err)
	assert.Equal(t, m.StudentID, updated.StudentID)
	assert.Equal(t, "4", updated.Grade)
	assert.Equal(t, m.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, m.StudentID, member.Input{StudentID: "S00009", Name: "Ava"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = svc.Update(ctx, "S09999", member.Input{Name: "Nobody"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := member.NewService(memstore.NewMembers(model.Member{StudentID: "S00001", Name: "Ava"}))
	require.NoError(t, svc.Delete(ctx, "S00001"))
	assert.True(t, errors.Is(svc.Delete(ctx, "S00001"), apperr.ErrNotFound))
	_, err := svc.Get(ctx, "S00001")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCheckID(t *testing.T) {
	ctx := context.Background()
	svc := member.NewService(memstore.NewMembers(
		model.Member{StudentID: "S00001", Name: "Ava", Grade: "3"},
		model.Member{StudentID: "S00002", Name: "Ben", Grade: "4"},
	))

	res, err := svc.CheckID(ctx, "S00005")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Nil(t, res.Existing)
	assert.Empty(t, res.Suggestions)

	res, err = svc.CheckID(ctx, "S00001")
	require.NoError(t, err)
	assert.False(t, res.Available)
	require.NotNil(t, res.Existing)
	assert.Equal(t, "Ava", res.Existing.Name)
	assert.Equal(t, []string{"S00003", "S00004", "S00005"}, res.Suggestions)

	_, err = svc.CheckID(ctx, " ")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestStatsAndGrades(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var seed []model.Member
	for i, m := range []struct{ grade, status string }{
		{"10", model.StatusActive},
		{"3", model.StatusActive},
		{"K", model.StatusActive},
		{"3", model.StatusActive},
		{"Teacher", model.StatusActive},
		{"4", model.StatusInactive},
		{"8", model.StatusAlumni},
	} {
		seed = append(seed, model.Member{
			StudentID: fmt.Sprintf("S%05d", i+1),
			Name:      fmt.Sprintf("Member %d", i+1),
			Grade:     m.grade,
			Status:    m.status,
			CreatedAt: base.AddDate(0, 0, i),
		})
	}
	svc := member.NewService(memstore.NewMembers(seed...))

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, member.Overview{Total: 7, Active: 5, Inactive: 1, Alumni: 1}, st.Overview)
	assert.Equal(t, []member.GradeCount{
		{Grade: "3", Count: 2},
		{Grade: "10", Count: 1},
		{Grade: "K", Count: 1},
		{Grade: "Teacher", Count: 1},
	}, st.ByGrade)
	require.Len(t, st.RecentAdditions, 5)
	assert.Equal(t, "S00007", st.RecentAdditions[0].StudentID)
	assert.Equal(t, "S00003", st.RecentAdditions[4].StudentID)

	grades, err := svc.Grades(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "10", "K", "Teacher"}, grades)
}

func TestStatsEmpty(t *testing.T) {
	st, err := member.NewService(memstore.NewMembers()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, member.Overview{}, st.Overview)
	assert.Empty(t, st.ByGrade)
	assert.NotNil(t, st.RecentAdditions)
}
