// Package testutil wires the services on an in-memory database for tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/absence"
	"github.com/trezcool/lophoc/core/assignment"
	"github.com/trezcool/lophoc/core/attendance"
	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/conversation"
	"github.com/trezcool/lophoc/core/material"
	"github.com/trezcool/lophoc/core/notification"
	"github.com/trezcool/lophoc/core/upload"
	"github.com/trezcool/lophoc/core/user"
	appfs "github.com/trezcool/lophoc/fs"
	cachesvc "github.com/trezcool/lophoc/services/cache"
	emailsvc "github.com/trezcool/lophoc/services/email"
	logsvc "github.com/trezcool/lophoc/services/logger"
	inmemdb "github.com/trezcool/lophoc/storage/database/inmem"
)

const DefaultPassword = "Pwd.1234"

type (
	Mailer interface {
		core.EmailService
		SentMessages() []core.EmailMessage
	}

	// App holds every service of the application, backed by an in-memory DB.
	App struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Cache      *cachesvc.GoCache
		Events     *EventRecorder
		Mailer     Mailer
		Files      *MemoryStorage
		UserRepo   user.Repository
		ClassRepo  class.Repository

		UserSvc         *user.Service
		ClassSvc        *class.Service
		AttendanceSvc   *attendance.Service
		AssignmentSvc   *assignment.Service
		AbsenceSvc      *absence.Service
		NotificationSvc *notification.Service
		ConversationSvc *conversation.Service
		MaterialSvc     *material.Service
		UploadSvc       *upload.Service
	}
)

// NewApp returns the services wired on a fresh in-memory DB.
func NewApp(t *testing.T) *App {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	class.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)
	loadAssets(t, logger)

	app := &App{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Cache:      cachesvc.NewGoCache(conf),
		Events:     &EventRecorder{},
		Mailer:     emailsvc.NewConsoleServiceMock(conf, logger),
		Files:      NewMemoryStorage(conf.Storage.BaseURL),
		UserRepo:   inmemdb.NewUserRepository(db),
		ClassRepo:  inmemdb.NewClassRepository(db),
	}

	app.UserSvc = user.NewService(app.UserRepo, app.Mailer, conf)
	app.ClassSvc = class.NewService(app.ClassRepo, app.UserSvc, app.Cache, app.Events, conf, logger)
	app.NotificationSvc = notification.NewService(inmemdb.NewNotificationRepository(db), app.UserSvc, app.Events, logger)
	app.AttendanceSvc = attendance.NewService(inmemdb.NewAttendanceRepository(db), app.ClassSvc)
	app.AssignmentSvc = assignment.NewService(inmemdb.NewAssignmentRepository(db), app.ClassSvc, app.NotificationSvc, logger)
	app.AbsenceSvc = absence.NewService(inmemdb.NewAbsenceRepository(db), app.ClassSvc, app.NotificationSvc, app.Events, logger)
	app.ConversationSvc = conversation.NewService(inmemdb.NewConversationRepository(db), app.UserSvc, app.Events, logger)
	app.MaterialSvc = material.NewService(inmemdb.NewMaterialRepository(db), app.ClassSvc)
	app.UploadSvc = upload.NewService(app.Files)
	return app
}

var assetsOnce sync.Once

func loadAssets(t *testing.T, logger core.Logger) {
	assetsOnce.Do(func() {
		core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true /* strict */, logger)

		f, err := appfs.FS.Open(appfs.CommonPasswords)
		if err != nil {
			t.Fatalf("loadAssets() failed: %v", err)
		}
		defer f.Close()
		user.LoadCommonPasswords(f, logger)
	})
}

// CreateUser stores an active user with the DefaultPassword.
func (app *App) CreateUser(t *testing.T, email string, role user.Role, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword(DefaultPassword); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := app.UserRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateClass creates an open class taught by lecturer, over [start, end].
func (app *App) CreateClass(t *testing.T, lecturer user.User, name string, start, end time.Time, nc ...class.NewClass) class.Class {
	t.Helper()

	in := class.NewClass{Name: name, MaxStudents: 30, Type: class.TypeTheory}
	if len(nc) > 0 {
		in = nc[0]
		in.Name = name
	}
	in.TimeStart = core.NewDate(start)
	in.TimeEnd = core.NewDate(end)
	cls, err := app.ClassSvc.Create(context.Background(), lecturer, in)
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

// Enroll adds the students to the class.
func (app *App) Enroll(t *testing.T, cls class.Class, students ...user.User) {
	t.Helper()

	for _, s := range students {
		if err := app.ClassRepo.AddMember(context.Background(), cls.ID, s.ID, cls.MaxStudents); err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
	}
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
