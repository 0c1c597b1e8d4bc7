package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/lophoc/apps/api/echo"
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
	eventsvc "github.com/trezcool/lophoc/services/events"
	filestore "github.com/trezcool/lophoc/services/filestore"
	logsvc "github.com/trezcool/lophoc/services/logger"
	"github.com/trezcool/lophoc/services/realtime"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration", err)
	}

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	repos, closeDB, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	files, err := setUpFileStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	hub := realtime.NewHub(conf, logger)
	events := eventsvc.Fanout{eventsvc.NewLogPublisher(logger), hub}
	if conf.Events.NatsURL != "" {
		natsPub, err := eventsvc.NewNatsPublisher(conf, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up nats: %v", err), err)
		}
		defer natsPub.Close()
		events = append(events, natsPub)
	}

	cache := cachesvc.NewGoCache(conf)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(repos.user, mailSvc, conf)
	classSvc := class.NewService(repos.class, usrSvc, cache, events, conf, logger)
	notifSvc := notification.NewService(repos.notification, usrSvc, events, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	class.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, false, logger)

	pwds, err := appfs.FS.Open(appfs.CommonPasswords)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening common passwords: %v", err), err)
	}
	user.LoadCommonPasswords(pwds, logger)
	_ = pwds.Close()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		Cache:           cache,
		Hub:             hub,
		UserSvc:         usrSvc,
		ClassSvc:        classSvc,
		AttendanceSvc:   attendance.NewService(repos.attendance, classSvc),
		AssignmentSvc:   assignment.NewService(repos.assignment, classSvc, notifSvc, logger),
		AbsenceSvc:      absence.NewService(repos.absence, classSvc, notifSvc, events, logger),
		ConversationSvc: conversation.NewService(repos.conversation, usrSvc, events, logger),
		NotificationSvc: notifSvc,
		MaterialSvc:     material.NewService(repos.material, classSvc),
		UploadSvc:       upload.NewService(files),
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpFileStorage(conf *core.Config) (core.FileStorage, error) {
	if conf.Storage.Backend == "minio" {
		return filestore.NewMinIOStorage(context.Background(), conf)
	}
	return filestore.NewDiskStorage(conf)
}
