package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
	emailsvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/email"
	logsvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/logger"
	"github.com/Brainhard-droid/sports-school-crm-sub001/storage/database"
	sqlxrepos "github.com/Brainhard-droid/sports-school-crm-sub001/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	defer logger.Sync()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	usrRepo := sqlxrepos.NewUserRepository(db)
	projector := schedule.NewProjector(logger, schedule.WithLocation(conf.Location()))

	// start CLI
	cli := commandLine{
		db:        db,
		usrRepo:   usrRepo,
		usrSvc:    user.NewService(usrRepo, emailsvc.NewConsoleService(logger)),
		groupSvc:  group.NewService(sqlxrepos.NewGroupRepository(db), projector, conf),
		projector: projector,
		conf:      conf,
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
