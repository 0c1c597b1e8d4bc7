package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/schedule"
	"github.com/trezcool/lophoc/core/user"
)

type classRepository struct {
	users   *table[user.User]
	db      *table[class.Class]
	members *memberTable
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{users: db.user, db: db.class, members: db.member}
}

func copySessions(sessions []schedule.Session) []schedule.Session {
	cp := make([]schedule.Session, len(sessions))
	copy(cp, sessions)
	return cp
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.New().String()
	cls.Revision = 0
	cls.Sessions = copySessions(cls.Sessions)
	repo.db.rows[cls.ID] = cls
	cls.Sessions = copySessions(cls.Sessions)
	return cls, nil
}

func (repo *classRepository) GetClass(_ context.Context, id string) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cls, ok := repo.db.rows[id]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	cls.Sessions = copySessions(cls.Sessions)
	return cls, nil
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.rows[cls.ID]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	cls.Revision = orig.Revision + 1
	cls.CreatedAt = orig.CreatedAt
	cls.LecturerID = orig.LecturerID
	cls.Sessions = copySessions(cls.Sessions)
	repo.db.rows[cls.ID] = cls
	cls.Sessions = copySessions(cls.Sessions)
	return cls, nil
}

func (repo *classRepository) DeleteClass(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.members.Lock()
	defer repo.members.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return class.ErrNotFound
	}
	delete(repo.db.rows, id)
	delete(repo.members.rows, id)
	return nil
}

func (repo *classRepository) QueryClasses(_ context.Context, filter class.QueryFilter) ([]class.Summary, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.members.RLock()
	defer repo.members.RUnlock()

	keep := func(cls class.Class) bool {
		switch {
		case filter.LecturerID != "":
			return cls.LecturerID == filter.LecturerID
		case filter.StudentID != "":
			for _, m := range repo.members.rows[cls.ID] {
				if m.studentID == filter.StudentID {
					return true
				}
			}
		}
		return false
	}
	less := func(a, b class.Class) bool {
		if !a.TimeStart.Equal(b.TimeStart.Time) {
			return a.TimeStart.After(b.TimeStart.Time)
		}
		return a.Name < b.Name
	}

	classes := repo.db.all(keep, less)
	summaries := make([]class.Summary, 0, len(classes))
	for _, cls := range classes {
		lecturerName := "Unknown"
		if lecturer, ok := repo.users.rows[cls.LecturerID]; ok {
			lecturerName = lecturer.DisplayName()
		}
		summaries = append(summaries, class.Summary{
			ID:           cls.ID,
			Name:         cls.Name,
			LecturerName: lecturerName,
			StudentCount: len(repo.members.rows[cls.ID]),
			Type:         cls.Type,
			IsOpen:       cls.IsOpen,
			TimeStart:    cls.TimeStart,
			TimeEnd:      cls.TimeEnd,
		})
	}
	return summaries, nil
}

func (repo *classRepository) AddMember(_ context.Context, classID, studentID string, capacity int) error {
	repo.members.Lock()
	defer repo.members.Unlock()

	for _, m := range repo.members.rows[classID] {
		if m.studentID == studentID {
			return class.ErrAlreadyMember
		}
	}
	if len(repo.members.rows[classID]) >= capacity {
		return class.ErrFull
	}
	repo.members.rows[classID] = append(repo.members.rows[classID], membership{studentID: studentID, joinedAt: time.Now().UTC()})
	return nil
}

func (repo *classRepository) IsMember(_ context.Context, classID, studentID string) (bool, error) {
	repo.members.RLock()
	defer repo.members.RUnlock()

	for _, m := range repo.members.rows[classID] {
		if m.studentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *classRepository) ListMembers(_ context.Context, classID string) ([]user.User, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()
	repo.members.RLock()
	defer repo.members.RUnlock()

	members := make([]user.User, 0, len(repo.members.rows[classID]))
	for _, m := range repo.members.rows[classID] {
		if usr, ok := repo.users.rows[m.studentID]; ok {
			members = append(members, usr)
		}
	}
	return members, nil
}
