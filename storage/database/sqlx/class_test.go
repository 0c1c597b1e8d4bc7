package sqlxrepos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/schedule"
)

func testClass() class.Class {
	now := time.Now().UTC()
	return class.Class{
		Name:        "Go 101",
		MaxStudents: 30,
		Type:        class.TypeTheory,
		TimeStart:   core.NewDate(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
		TimeEnd:     core.NewDate(time.Date(2024, time.January, 22, 0, 0, 0, 0, time.UTC)),
		IsOpen:      true,
		LecturerID:  "0f8b3f34-7f0e-4a8c-8c51-0f3c8b6b2d11",
		Sessions: []schedule.Session{
			{DayOfWeek: schedule.Wednesday, StartTime: "08:00", EndTime: "10:00"},
			{DayOfWeek: schedule.Friday, StartTime: "13:00", EndTime: "15:00"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestClassRepository_CreateClass(t *testing.T) {
	ctx := context.Background()

	t.Run("class and sessions in one transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(q(`INSERT INTO classes (`)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q(`DELETE FROM class_sessions WHERE class_id = $1`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(q(`INSERT INTO class_sessions`)).
			WithArgs(sqlmock.AnyArg(), 0, schedule.Wednesday, "08:00", "10:00").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q(`INSERT INTO class_sessions`)).
			WithArgs(sqlmock.AnyArg(), 1, schedule.Friday, "13:00", "15:00").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		cls, err := NewClassRepository(db).CreateClass(ctx, testClass())
		require.NoError(t, err)
		require.NotEmpty(t, cls.ID)
		require.Len(t, cls.Sessions, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on session error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(q(`INSERT INTO classes (`)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q(`DELETE FROM class_sessions`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(q(`INSERT INTO class_sessions`)).WillReturnError(errors.New("boom"))
		mock.ExpectRollback()

		_, err := NewClassRepository(db).CreateClass(ctx, testClass())
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClassRepository_GetClass(t *testing.T) {
	ctx := context.Background()
	id := "b7f1e3f0-2f7c-4b8e-9a53-0b6a1cf1d2aa"
	cls := testClass()

	db, mock := newMockDB(t)
	mock.ExpectQuery(q(`FROM classes WHERE id = $1`)).WithArgs(id).WillReturnRows(
		sqlmock.NewRows([]string{
			"id", "name", "description", "max_students", "type", "semester", "time_start", "time_end", "is_open",
			"lecturer_id", "revision", "created_at", "updated_at",
		}).AddRow(
			id, cls.Name, "", cls.MaxStudents, "LT", "", cls.TimeStart.Time, cls.TimeEnd.Time, true,
			cls.LecturerID, 3, cls.CreatedAt, cls.UpdatedAt,
		),
	)
	mock.ExpectQuery(q(`FROM class_sessions`)).WithArgs(id).WillReturnRows(
		sqlmock.NewRows([]string{"class_id", "position", "day_of_week", "start_time", "end_time"}).
			AddRow(id, 0, int64(3), "08:00", "10:00"),
	)

	got, err := NewClassRepository(db).GetClass(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 3, got.Revision)
	require.Equal(t, "2024-01-22", got.TimeEnd.String())
	require.Equal(t, []schedule.Session{{DayOfWeek: schedule.Wednesday, StartTime: "08:00", EndTime: "10:00"}}, got.Sessions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepository_UpdateClass_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE classes SET`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	cls := testClass()
	cls.ID = "b7f1e3f0-2f7c-4b8e-9a53-0b6a1cf1d2aa"
	_, err := NewClassRepository(db).UpdateClass(context.Background(), cls)
	require.Equal(t, class.ErrNotFound, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepository_AddMember(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		members int
		execErr error
		wantErr error
	}{
		{name: "added", members: 1},
		{name: "already member", members: 1, execErr: errUnique, wantErr: class.ErrAlreadyMember},
		{name: "class full", members: 2, wantErr: class.ErrFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectBegin()
			mock.ExpectQuery(q(`SELECT id FROM classes WHERE id = $1 FOR UPDATE`)).WithArgs("c1").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c1"))
			mock.ExpectQuery(q(`SELECT COUNT(*) FROM class_members`)).WithArgs("c1").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.members))
			if tt.wantErr == class.ErrFull {
				mock.ExpectRollback()
			} else {
				exp := mock.ExpectExec(q(`INSERT INTO class_members`)).WithArgs("c1", "s1")
				if tt.execErr != nil {
					exp.WillReturnError(tt.execErr)
					mock.ExpectRollback()
				} else {
					exp.WillReturnResult(sqlmock.NewResult(0, 1))
					mock.ExpectCommit()
				}
			}

			err := NewClassRepository(db).AddMember(ctx, "c1", "s1", 2)
			require.Equal(t, tt.wantErr, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
