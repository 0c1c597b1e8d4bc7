package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) CreateAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	att.ID = uuid.New().String()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO attendances (id, class_id, date, created_at) VALUES (:id, :class_id, :date, :created_at)`
		if _, err := tx.NamedExecContext(ctx, q, att); err != nil {
			if isUniqueViolation(err) {
				return attendance.ErrAlreadyTaken
			}
			return errors.Wrap(err, "inserting attendance")
		}
		for i := range att.Records {
			att.Records[i].AttendanceID = att.ID
			q = `INSERT INTO attendance_records (attendance_id, student_id, status) VALUES (:attendance_id, :student_id, :status)`
			if _, err := tx.NamedExecContext(ctx, q, att.Records[i]); err != nil {
				return errors.Wrap(err, "inserting attendance record")
			}
		}
		return nil
	})
	if err != nil {
		return attendance.Attendance{}, err
	}
	return att, nil
}

func (repo attendanceRepository) withRecords(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := `SELECT r.attendance_id, r.student_id, r.status, a.date
		FROM attendance_records r
		JOIN attendances a ON a.id = r.attendance_id
		WHERE r.attendance_id = $1
		ORDER BY r.student_id`
	att.Records = make([]attendance.Record, 0)
	if err := repo.db.SelectContext(ctx, &att.Records, q, att.ID); err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "selecting attendance records")
	}
	return att, nil
}

func (repo attendanceRepository) GetAttendance(ctx context.Context, id string) (attendance.Attendance, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	var att attendance.Attendance
	q := `SELECT id, class_id, date, created_at FROM attendances WHERE id = $1`
	if err := repo.db.GetContext(ctx, &att, q, id); err != nil {
		return attendance.Attendance{}, trapNoRowsErr(err, attendance.ErrNotFound, "selecting attendance")
	}
	return repo.withRecords(ctx, att)
}

func (repo attendanceRepository) GetAttendanceByDate(ctx context.Context, classID string, date core.Date) (attendance.Attendance, error) {
	var att attendance.Attendance
	q := `SELECT id, class_id, date, created_at FROM attendances WHERE class_id = $1 AND date = $2`
	if err := repo.db.GetContext(ctx, &att, q, classID, date); err != nil {
		return attendance.Attendance{}, trapNoRowsErr(err, attendance.ErrNotFound, "selecting attendance by date")
	}
	return repo.withRecords(ctx, att)
}

func (repo attendanceRepository) StudentRecords(ctx context.Context, classID, studentID string) ([]attendance.Record, error) {
	q := `SELECT r.attendance_id, r.student_id, r.status, a.date
		FROM attendance_records r
		JOIN attendances a ON a.id = r.attendance_id
		WHERE a.class_id = $1 AND r.student_id = $2
		ORDER BY a.date`
	records := make([]attendance.Record, 0)
	if err := repo.db.SelectContext(ctx, &records, q, classID, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting student attendance records")
	}
	return records, nil
}

func (repo attendanceRepository) UpdateRecords(ctx context.Context, records []attendance.Record) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE attendance_records SET status = :status WHERE attendance_id = :attendance_id AND student_id = :student_id`
		for _, r := range records {
			if _, err := tx.NamedExecContext(ctx, q, r); err != nil {
				return errors.Wrap(err, "updating attendance record")
			}
		}
		return nil
	})
}
