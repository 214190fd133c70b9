package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/athlos-club/athlos/apps/api/echo"
	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/athlete"
	"github.com/athlos-club/athlos/core/attendance"
	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/notification"
	"github.com/athlos-club/athlos/core/payment"
	"github.com/athlos-club/athlos/core/thread"
	"github.com/athlos-club/athlos/core/user"
	emailsvc "github.com/athlos-club/athlos/services/email"
	logsvc "github.com/athlos-club/athlos/services/logger"
	pushsvc "github.com/athlos-club/athlos/services/push"
	"github.com/athlos-club/athlos/storage/database"
	"github.com/athlos-club/athlos/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %+v", err)
	}

	// set up logger
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

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

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	var pushSvc core.PushService
	if conf.Push.VAPIDPrivateKey == "" {
		pushSvc = pushsvc.NewConsoleService()
	} else {
		pushSvc = pushsvc.NewWebpushService(logger, conf)
	}

	tx := database.NewTransactor(db)
	usrRepo := sqlxrepos.NewUserRepository(db)
	athRepo := sqlxrepos.NewAthleteRepository(db)

	usrSvc := user.NewService(usrRepo, tx, mailSvc, conf)
	branchSvc := branch.NewService(sqlxrepos.NewBranchRepository(db))
	athSvc := athlete.NewService(athRepo, tx)
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), athRepo, branchSvc, tx)
	paySvc := payment.NewService(sqlxrepos.NewPaymentRepository(db), athRepo)
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db), pushSvc, conf)
	threadSvc := thread.NewService(sqlxrepos.NewThreadRepository(db), branchSvc, notifSvc, logger, tx)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address(),
		Conf:           conf,
		Logger:         logger,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },

		UserSvc:         usrSvc,
		BranchSvc:       branchSvc,
		AthleteSvc:      athSvc,
		AttendanceSvc:   attSvc,
		PaymentSvc:      paySvc,
		ThreadSvc:       threadSvc,
		NotificationSvc: notifSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
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
		return nil, err
	}
	return db, nil
}
