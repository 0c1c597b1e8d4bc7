package absence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/absence"
	"github.com/trezcool/lophoc/core/notification"
	"github.com/trezcool/lophoc/core/user"
	testutil "github.com/trezcool/lophoc/tests"
)

func TestService_RequestAndReview(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()

	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	other := app.CreateUser(t, "other@test.test", user.RoleLecturer)
	student := app.CreateUser(t, "stu@test.test", user.RoleStudent)
	outsider := app.CreateUser(t, "out@test.test", user.RoleStudent)
	cls := app.CreateClass(t, lecturer, "Databases", testutil.Date(2024, time.January, 1), testutil.Date(2024, time.January, 31))
	app.Enroll(t, cls, student)

	inRange := absence.NewRequest{Date: core.NewDate(testutil.Date(2024, time.January, 15)), Reason: "sick"}

	t.Run("request", func(t *testing.T) {
		_, err := app.AbsenceSvc.Request(ctx, outsider, cls.ID, inRange)
		assert.True(t, core.IsPermission(err))

		_, err = app.AbsenceSvc.Request(ctx, student, cls.ID, absence.NewRequest{
			Date: core.NewDate(testutil.Date(2024, time.February, 1)), Reason: "late",
		})
		assert.True(t, core.IsValidation(err))
	})

	req, err := app.AbsenceSvc.Request(ctx, student, cls.ID, inRange)
	require.NoError(t, err)
	assert.Equal(t, absence.StatusPending, req.Status)

	notifs, err := app.NotificationSvc.List(ctx, lecturer, core.Page{})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeAbsence, notifs[0].Type)
	assert.Equal(t, req.ID, notifs[0].RelatedID)

	t.Run("list", func(t *testing.T) {
		_, err := app.AbsenceSvc.List(ctx, other, cls.ID, absence.QueryFilter{})
		assert.True(t, core.IsPermission(err))

		_, err = app.AbsenceSvc.List(ctx, lecturer, cls.ID, absence.QueryFilter{Status: "maybe"})
		assert.True(t, core.IsValidation(err))

		reqs, err := app.AbsenceSvc.List(ctx, lecturer, cls.ID, absence.QueryFilter{Status: "pending"})
		require.NoError(t, err)
		assert.Len(t, reqs, 1)

		reqs, err = app.AbsenceSvc.List(ctx, lecturer, cls.ID, absence.QueryFilter{Date: core.NewDate(testutil.Date(2024, time.January, 16))})
		require.NoError(t, err)
		assert.Empty(t, reqs)
	})

	t.Run("review", func(t *testing.T) {
		_, err := app.AbsenceSvc.Review(ctx, other, req.ID, absence.Review{Status: absence.StatusApproved})
		assert.True(t, core.IsPermission(err))

		reviewed, err := app.AbsenceSvc.Review(ctx, lecturer, req.ID, absence.Review{Status: absence.StatusRejected})
		require.NoError(t, err)
		assert.Equal(t, absence.StatusRejected, reviewed.Status)
		assert.NotNil(t, reviewed.ReviewedAt)

		_, err = app.AbsenceSvc.Review(ctx, lecturer, req.ID, absence.Review{Status: absence.StatusApproved})
		assert.True(t, core.IsConflict(err))

		ev, ok := app.Events.Last(core.EventAbsenceReviewed)
		require.True(t, ok)
		assert.Equal(t, []string{student.ID}, ev.Recipients)

		notifs, err := app.NotificationSvc.List(ctx, student, core.Page{})
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, notification.TypeAbsenceRejected, notifs[0].Type)
		assert.Equal(t, "Absence request for 2024-01-15 rejected", notifs[0].Message)
	})

	t.Run("review validation", func(t *testing.T) {
		r := absence.Review{Status: "pending"}
		assert.Error(t, r.Validate(app.Validate))
		r = absence.Review{Status: " approved "}
		require.NoError(t, r.Validate(app.Validate))
		assert.Equal(t, absence.StatusApproved, r.Status)
	})
}

func TestService_Review_concurrent(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()

	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	student := app.CreateUser(t, "stu@test.test", user.RoleStudent)
	cls := app.CreateClass(t, lecturer, "Databases", testutil.Date(2024, time.January, 1), testutil.Date(2024, time.January, 31))
	app.Enroll(t, cls, student)

	req, err := app.AbsenceSvc.Request(ctx, student, cls.ID, absence.NewRequest{
		Date: core.NewDate(testutil.Date(2024, time.January, 15)), Reason: "sick",
	})
	require.NoError(t, err)

	statuses := []absence.Status{absence.StatusApproved, absence.StatusRejected}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reviewed int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(status absence.Status) {
			defer wg.Done()
			_, err := app.AbsenceSvc.Review(ctx, lecturer, req.ID, absence.Review{Status: status})
			if err != nil {
				assert.True(t, core.IsConflict(err), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			reviewed++
			mu.Unlock()
		}(statuses[i%2])
	}
	wg.Wait()
	assert.Equal(t, 1, reviewed)

	notifs, err := app.NotificationSvc.List(ctx, student, core.Page{})
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}
