package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/user"
	appfs "github.com/trezcool/lophoc/fs"
	logsvc "github.com/trezcool/lophoc/services/logger"
	"github.com/trezcool/lophoc/storage/database"
	inmemdb "github.com/trezcool/lophoc/storage/database/inmem"
	sqlxrepos "github.com/trezcool/lophoc/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	if pwds, err := appfs.FS.Open(appfs.CommonPasswords); err == nil {
		user.LoadCommonPasswords(pwds, logger)
		_ = pwds.Close()
	}

	cli := commandLine{validate: validate}
	switch conf.Database.Engine {
	case "memory":
		db, err := inmemdb.Open()
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		cli.usrRepo = inmemdb.NewUserRepository(db)
	default:
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer func(db *sql.DB) { _ = db.Close() }(db.DB)
		cli.db = db.DB
		cli.usrRepo = sqlxrepos.NewUserRepository(db)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		logger.Close()
		os.Exit(1)
	}
}
