package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/absence"
	"github.com/trezcool/lophoc/core/attendance"
	"github.com/trezcool/lophoc/core/notification"
)

func TestAttendanceRepository_CreateAttendance(t *testing.T) {
	ctx := context.Background()
	date := core.NewDate(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))
	att := attendance.Attendance{
		ClassID: "c1",
		Date:    date,
		Records: []attendance.Record{
			{StudentID: "s1", Status: attendance.StatusPresent, Date: date},
			{StudentID: "s2", Status: attendance.StatusAbsent, Date: date},
		},
	}

	t.Run("ok", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(q(`INSERT INTO attendances`)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q(`INSERT INTO attendance_records`)).
			WithArgs(sqlmock.AnyArg(), "s1", "CO_MAT").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q(`INSERT INTO attendance_records`)).
			WithArgs(sqlmock.AnyArg(), "s2", "VANG_MAT").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		created, err := NewAttendanceRepository(db).CreateAttendance(ctx, att)
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		for _, r := range created.Records {
			require.Equal(t, created.ID, r.AttendanceID)
		}
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already taken", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(q(`INSERT INTO attendances`)).WillReturnError(errUnique)
		mock.ExpectRollback()

		_, err := NewAttendanceRepository(db).CreateAttendance(ctx, att)
		require.Equal(t, attendance.ErrAlreadyTaken, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAbsenceRepository_QueryRequests(t *testing.T) {
	date := core.NewDate(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))
	tests := []struct {
		name   string
		filter absence.QueryFilter
		query  string
		args   []driver.Value
	}{
		{
			name:  "class only",
			query: `WHERE class_id = $1 ORDER BY date`,
			args:  []driver.Value{"c1"},
		},
		{
			name:   "status and date",
			filter: absence.QueryFilter{Status: absence.StatusPending, Date: date},
			query:  `WHERE class_id = $1 AND status = $2 AND date = $3 ORDER BY date`,
			args:   []driver.Value{"c1", "PENDING", date.Time},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(q(tt.query)).WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			reqs, err := NewAbsenceRepository(db).QueryRequests(context.Background(), "c1", tt.filter)
			require.NoError(t, err)
			require.Empty(t, reqs)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAbsenceRepository_ReviewRequest(t *testing.T) {
	now := time.Now().UTC()
	req := absence.Request{ID: "a1", Status: absence.StatusApproved, ReviewedAt: &now}
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "pending", affected: 1},
		{name: "already reviewed", affected: 0, wantErr: absence.ErrAlreadyChecked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(q(`WHERE id = $3 AND status = 'PENDING'`)).
				WithArgs("APPROVED", now, "a1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			_, err := NewAbsenceRepository(db).ReviewRequest(context.Background(), req)
			require.Equal(t, tt.wantErr, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNotificationRepository_ListNotifications(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery(q(`FROM notifications WHERE receiver_id = $1`)).
		WithArgs("s1", 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sender_id", "receiver_id", "type", "message", "related_id", "is_read", "created_at",
		}).AddRow("n1", "l1", "s1", "GENERAL", "hello", "", false, now))

	list, err := NewNotificationRepository(db).ListNotifications(context.Background(), "s1", core.Page{Index: 40})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, notification.TypeGeneral, list[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_MarkRead(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(q(`UPDATE messages SET is_read = TRUE WHERE conversation_id = $1 AND sender_id <> $2`)).
		WithArgs("conv1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewConversationRepository(db).MarkRead(context.Background(), "conv1", "u2")
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
