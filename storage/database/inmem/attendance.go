package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/attendance"
)

type attendanceRepository struct {
	db *table[attendance.Attendance]
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

func copyAttendance(att attendance.Attendance) attendance.Attendance {
	records := make([]attendance.Record, len(att.Records))
	copy(records, att.Records)
	att.Records = records
	return att
}

func (repo *attendanceRepository) CreateAttendance(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.rows {
		if a.ClassID == att.ClassID && a.Date.Equal(att.Date.Time) {
			return attendance.Attendance{}, attendance.ErrAlreadyTaken
		}
	}
	att.ID = uuid.New().String()
	att = copyAttendance(att)
	for i := range att.Records {
		att.Records[i].AttendanceID = att.ID
		att.Records[i].Date = att.Date
	}
	repo.db.rows[att.ID] = att
	return copyAttendance(att), nil
}

func (repo *attendanceRepository) GetAttendance(_ context.Context, id string) (attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	att, ok := repo.db.rows[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	return copyAttendance(att), nil
}

func (repo *attendanceRepository) GetAttendanceByDate(_ context.Context, classID string, date core.Date) (attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, att := range repo.db.rows {
		if att.ClassID == classID && att.Date.Equal(date.Time) {
			return copyAttendance(att), nil
		}
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) StudentRecords(_ context.Context, classID, studentID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	days := repo.db.all(
		func(att attendance.Attendance) bool { return att.ClassID == classID },
		func(a, b attendance.Attendance) bool { return a.Date.Before(b.Date.Time) },
	)
	records := make([]attendance.Record, 0, len(days))
	for _, att := range days {
		for _, r := range att.Records {
			if r.StudentID == studentID {
				records = append(records, r)
			}
		}
	}
	return records, nil
}

func (repo *attendanceRepository) UpdateRecords(_ context.Context, records []attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range records {
		att, ok := repo.db.rows[rec.AttendanceID]
		if !ok {
			return attendance.ErrNotFound
		}
		for i := range att.Records {
			if att.Records[i].StudentID == rec.StudentID {
				att.Records[i].Status = rec.Status
			}
		}
	}
	return nil
}
