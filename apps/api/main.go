package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/Brainhard-droid/sports-school-crm-sub001/apps/api/echo"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
	emailsvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/email"
	lockersvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/locker"
	logsvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/logger"
	"github.com/Brainhard-droid/sports-school-crm-sub001/storage/database"
	sqlxrepos "github.com/Brainhard-droid/sports-school-crm-sub001/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	defer logger.Sync()

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	locker := setUpLocker(conf, logger)

	var mailSvc core.EmailService
	if conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	projector := schedule.NewProjector(logger, schedule.WithLocation(conf.Location()))

	// set up services
	groupRepo := sqlxrepos.NewGroupRepository(db)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	groupSvc := group.NewService(groupRepo, projector, conf)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db), groupRepo, locker)
	trialSvc := trial.NewService(trial.Deps{
		Repo:     sqlxrepos.NewTrialRepository(db),
		GroupSvc: groupSvc,
		UserSvc:  usrSvc,
		MailSvc:  mailSvc,
		Locker:   locker,
		Conf:     conf,
		Logger:   logger,
	})
	attendanceSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), studentSvc, groupSvc, projector)
	paymentSvc := payment.NewService(sqlxrepos.NewPaymentRepository(db), studentSvc)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(&echoapi.Options{
		Address:       conf.Server.Address,
		RateLimit:     conf.Server.LoginRateLimit,
		Conf:          conf,
		Logger:        logger,
		Projector:     projector,
		UserSvc:       usrSvc,
		GroupSvc:      groupSvc,
		StudentSvc:    studentSvc,
		TrialSvc:      trialSvc,
		AttendanceSvc: attendanceSvc,
		PaymentSvc:    paymentSvc,
	})

	go func() {
		server.Start()
	}()

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

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// setUpLocker shares locks through redis when it answers, and keeps them in process otherwise.
func setUpLocker(conf *core.Config, logger core.Logger) core.Locker {
	if conf.Redis.Address != "" {
		client, err := lockersvc.NewRedisClient(conf)
		if err == nil {
			return lockersvc.NewRedisLocker(client, conf.Redis.LockTTL, logger)
		}
		logger.Warn("redis unavailable, using in-process locks", err)
	}
	return lockersvc.NewLocalLocker()
}
