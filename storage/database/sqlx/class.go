package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/schedule"
	"github.com/trezcool/lophoc/core/user"
)

const classColumns = `id, name, description, max_students, type, semester, time_start, time_end, is_open, lecturer_id, revision, created_at, updated_at`

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{db: db}
}

type sessionRow struct {
	ClassID  string `db:"class_id"`
	Position int    `db:"position"`
	schedule.Session
}

func insertSessions(ctx context.Context, tx *sqlx.Tx, cls class.Class) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM class_sessions WHERE class_id = $1`, cls.ID); err != nil {
		return errors.Wrap(err, "deleting class sessions")
	}
	for i, s := range cls.Sessions {
		row := sessionRow{ClassID: cls.ID, Position: i, Session: s}
		q := `INSERT INTO class_sessions (class_id, position, day_of_week, start_time, end_time)
			VALUES (:class_id, :position, :day_of_week, :start_time, :end_time)`
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrap(err, "inserting class session")
		}
	}
	return nil
}

func (repo classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = uuid.New().String()
	cls.Revision = 0
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO classes (` + classColumns + `) VALUES
			(:id, :name, :description, :max_students, :type, :semester, :time_start, :time_end, :is_open,
			:lecturer_id, :revision, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, q, cls); err != nil {
			return errors.Wrap(err, "inserting class")
		}
		return insertSessions(ctx, tx, cls)
	})
	if err != nil {
		return class.Class{}, err
	}
	return cls, nil
}

func (repo classRepository) GetClass(ctx context.Context, id string) (class.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return class.Class{}, class.ErrNotFound
	}

	var cls class.Class
	if err := repo.db.GetContext(ctx, &cls, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id); err != nil {
		return class.Class{}, trapNoRowsErr(err, class.ErrNotFound, "selecting class")
	}

	var rows []sessionRow
	q := `SELECT class_id, position, day_of_week, start_time, end_time FROM class_sessions
		WHERE class_id = $1 ORDER BY position`
	if err := repo.db.SelectContext(ctx, &rows, q, id); err != nil {
		return class.Class{}, errors.Wrap(err, "selecting class sessions")
	}
	cls.Sessions = make([]schedule.Session, 0, len(rows))
	for _, r := range rows {
		cls.Sessions = append(cls.Sessions, r.Session)
	}
	return cls, nil
}

func (repo classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE classes SET name = :name, description = :description, max_students = :max_students,
			type = :type, semester = :semester, time_start = :time_start, time_end = :time_end,
			is_open = :is_open, revision = revision + 1, updated_at = :updated_at
			WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, q, cls)
		if err != nil {
			return errors.Wrap(err, "updating class")
		}
		if err = expectOne(res, class.ErrNotFound); err != nil {
			return err
		}
		return insertSessions(ctx, tx, cls)
	})
	if err != nil {
		return class.Class{}, err
	}
	cls.Revision++
	return cls, nil
}

func (repo classRepository) DeleteClass(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return expectOne(res, class.ErrNotFound)
}

func (repo classRepository) QueryClasses(ctx context.Context, filter class.QueryFilter) ([]class.Summary, error) {
	q := `SELECT c.id, c.name, c.type, c.is_open, c.time_start, c.time_end,
			COALESCE(NULLIF(u.username, ''), u.email, 'Unknown') AS lecturer_name,
			(SELECT COUNT(*) FROM class_members m WHERE m.class_id = c.id) AS student_count
		FROM classes c
		LEFT JOIN users u ON u.id = c.lecturer_id`
	var arg string
	switch {
	case filter.LecturerID != "":
		q += ` WHERE c.lecturer_id = $1`
		arg = filter.LecturerID
	case filter.StudentID != "":
		q += ` WHERE c.id IN (SELECT class_id FROM class_members WHERE student_id = $1)`
		arg = filter.StudentID
	default:
		return []class.Summary{}, nil
	}
	q += ` ORDER BY c.time_start DESC, c.name`

	summaries := make([]class.Summary, 0)
	if err := repo.db.SelectContext(ctx, &summaries, q, arg); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	return summaries, nil
}

// AddMember locks the class row so concurrent enrollments cannot exceed capacity.
func (repo classRepository) AddMember(ctx context.Context, classID, studentID string, capacity int) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var id string
		if err := tx.GetContext(ctx, &id, `SELECT id FROM classes WHERE id = $1 FOR UPDATE`, classID); err != nil {
			return trapNoRowsErr(err, class.ErrNotFound, "locking class")
		}
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM class_members WHERE class_id = $1`, classID); err != nil {
			return errors.Wrap(err, "counting class members")
		}
		if count >= capacity {
			return class.ErrFull
		}

		q := `INSERT INTO class_members (class_id, student_id, joined_at) VALUES ($1, $2, NOW())`
		if _, err := tx.ExecContext(ctx, q, classID, studentID); err != nil {
			if isUniqueViolation(err) {
				return class.ErrAlreadyMember
			}
			return errors.Wrap(err, "inserting class member")
		}
		return nil
	})
}

func (repo classRepository) IsMember(ctx context.Context, classID, studentID string) (bool, error) {
	var ok bool
	q := `SELECT EXISTS (SELECT 1 FROM class_members WHERE class_id = $1 AND student_id = $2)`
	if err := repo.db.GetContext(ctx, &ok, q, classID, studentID); err != nil {
		return false, errors.Wrap(err, "checking class member")
	}
	return ok, nil
}

func (repo classRepository) ListMembers(ctx context.Context, classID string) ([]user.User, error) {
	q := `SELECT u.id, u.email, u.username, u.phone, u.address, u.avatar, u.role, u.is_active,
			u.password_hash, u.created_at, u.updated_at, u.last_login
		FROM users u
		JOIN class_members m ON m.student_id = u.id
		WHERE m.class_id = $1
		ORDER BY m.joined_at, u.email`
	members := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &members, q, classID); err != nil {
		return nil, errors.Wrap(err, "selecting class members")
	}
	return members, nil
}
