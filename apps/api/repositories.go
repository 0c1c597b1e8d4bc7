package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/absence"
	"github.com/trezcool/lophoc/core/assignment"
	"github.com/trezcool/lophoc/core/attendance"
	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/conversation"
	"github.com/trezcool/lophoc/core/material"
	"github.com/trezcool/lophoc/core/notification"
	"github.com/trezcool/lophoc/core/user"
	"github.com/trezcool/lophoc/storage/database"
	inmemdb "github.com/trezcool/lophoc/storage/database/inmem"
	sqlxrepos "github.com/trezcool/lophoc/storage/database/sqlx"
)

type repositories struct {
	user         user.Repository
	class        class.Repository
	attendance   attendance.Repository
	assignment   assignment.Repository
	absence      absence.Repository
	conversation conversation.Repository
	notification notification.Repository
	material     material.Repository
}

// setUpRepositories opens the configured database engine and returns its repositories & closer.
func setUpRepositories(conf *core.Config) (*repositories, func() error, error) {
	switch conf.Database.Engine {
	case "memory":
		db, err := inmemdb.Open()
		if err != nil {
			return nil, nil, err
		}
		return &repositories{
			user:         inmemdb.NewUserRepository(db),
			class:        inmemdb.NewClassRepository(db),
			attendance:   inmemdb.NewAttendanceRepository(db),
			assignment:   inmemdb.NewAssignmentRepository(db),
			absence:      inmemdb.NewAbsenceRepository(db),
			conversation: inmemdb.NewConversationRepository(db),
			notification: inmemdb.NewNotificationRepository(db),
			material:     inmemdb.NewMaterialRepository(db),
		}, func() error { return nil }, nil

	case "postgres":
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, err
		}
		if err = database.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return &repositories{
			user:         sqlxrepos.NewUserRepository(db),
			class:        sqlxrepos.NewClassRepository(db),
			attendance:   sqlxrepos.NewAttendanceRepository(db),
			assignment:   sqlxrepos.NewAssignmentRepository(db),
			absence:      sqlxrepos.NewAbsenceRepository(db),
			conversation: sqlxrepos.NewConversationRepository(db),
			notification: sqlxrepos.NewNotificationRepository(db),
			material:     sqlxrepos.NewMaterialRepository(db),
		}, db.Close, nil
	}
	return nil, nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}
