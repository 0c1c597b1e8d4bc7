package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/attendance"
	"github.com/trezcool/lophoc/core/user"
	testutil "github.com/trezcool/lophoc/tests"
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	verr, ok := err.(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.NotEmpty(t, verr.Fields)
	return verr.Fields[0].Field
}

func TestService_Take(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	today := core.DateOnly(time.Now())

	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	s1 := app.CreateUser(t, "s1@test.test", user.RoleStudent)
	s2 := app.CreateUser(t, "s2@test.test", user.RoleStudent)
	outsider := app.CreateUser(t, "out@test.test", user.RoleStudent)
	cls := app.CreateClass(t, lecturer, "Roll call", today.AddDate(0, 0, -30), today.AddDate(0, 0, 30))
	app.Enroll(t, cls, s1, s2)

	tomorrow := core.NewDate(today.AddDate(0, 0, 1))

	tests := []struct {
		name      string
		take      attendance.Take
		wantField string
	}{
		{name: "out of range", take: attendance.Take{Date: core.NewDate(today.AddDate(0, 0, 31))}, wantField: "date"},
		{name: "in the past", take: attendance.Take{Date: core.NewDate(today.AddDate(0, 0, -1))}, wantField: "date"},
		{name: "not a member", take: attendance.Take{Date: tomorrow, AbsentIDs: []string{outsider.ID}}, wantField: "absent_student_ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.AttendanceSvc.Take(ctx, lecturer, cls.ID, tt.take)
			assert.Equal(t, tt.wantField, fieldOf(t, err))
		})
	}

	att, err := app.AttendanceSvc.Take(ctx, lecturer, cls.ID, attendance.Take{Date: tomorrow, AbsentIDs: []string{s2.ID}})
	require.NoError(t, err)
	statuses := map[string]attendance.Status{}
	for _, r := range att.Records {
		statuses[r.StudentID] = r.Status
	}
	assert.Equal(t, map[string]attendance.Status{s1.ID: attendance.StatusPresent, s2.ID: attendance.StatusAbsent}, statuses)

	t.Run("same date twice", func(t *testing.T) {
		_, err := app.AttendanceSvc.Take(ctx, lecturer, cls.ID, attendance.Take{Date: tomorrow})
		assert.Equal(t, "date", fieldOf(t, err))
	})

	t.Run("students cannot take attendance", func(t *testing.T) {
		_, err := app.AttendanceSvc.Take(ctx, s1, cls.ID, attendance.Take{Date: tomorrow})
		assert.True(t, core.IsPermission(err))
	})

	t.Run("set status toggles", func(t *testing.T) {
		updated, err := app.AttendanceSvc.SetStatus(ctx, lecturer, att.ID, attendance.SetStatus{StudentIDs: []string{s1.ID, s2.ID, s1.ID}})
		require.NoError(t, err)
		for _, r := range updated.Records {
			switch r.StudentID {
			case s1.ID:
				assert.Equal(t, attendance.StatusAbsent, r.Status)
			case s2.ID:
				assert.Equal(t, attendance.StatusPresent, r.Status)
			}
		}

		_, err = app.AttendanceSvc.SetStatus(ctx, lecturer, att.ID, attendance.SetStatus{StudentIDs: []string{outsider.ID}})
		assert.Equal(t, "student_ids", fieldOf(t, err))
	})

	t.Run("list by date", func(t *testing.T) {
		_, err := app.AttendanceSvc.List(ctx, lecturer, cls.ID, attendance.ListFilter{})
		assert.Equal(t, "date", fieldOf(t, err))

		_, err = app.AttendanceSvc.List(ctx, lecturer, cls.ID, attendance.ListFilter{Date: core.NewDate(today.AddDate(0, 0, 2))})
		assert.True(t, core.IsNotFound(err))

		got, err := app.AttendanceSvc.List(ctx, lecturer, cls.ID, attendance.ListFilter{Date: tomorrow})
		require.NoError(t, err)
		assert.Equal(t, att.ID, got.ID)
		assert.Len(t, got.Records, 2)
	})

	t.Run("student records", func(t *testing.T) {
		records, err := app.AttendanceSvc.StudentRecords(ctx, s2, cls.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, attendance.StatusPresent, records[0].Status)
		assert.Equal(t, tomorrow.String(), records[0].Date.String())

		_, err = app.AttendanceSvc.StudentRecords(ctx, outsider, cls.ID)
		assert.True(t, core.IsPermission(err))
	})
}
