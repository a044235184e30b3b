package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/ryitech/institute/api/echo"
	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/catalog"
	"github.com/ryitech/institute/core/principal"
	emailsvc "github.com/ryitech/institute/services/email"
	googlesvc "github.com/ryitech/institute/services/google"
	logsvc "github.com/ryitech/institute/services/logger"
	uploadsvc "github.com/ryitech/institute/services/upload"
	"github.com/ryitech/institute/storage/database"
	sqlxrepos "github.com/ryitech/institute/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err))
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close")
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	uploadSvc := uploadsvc.NewCloudinaryService(conf)

	adminRepo := sqlxrepos.NewAdminRepository(db)
	studentRepo := sqlxrepos.NewStudentRepository(db)
	dir := principal.NewDirectory(adminRepo, studentRepo)
	seq := principal.NewSequencer(sqlxrepos.NewSequenceRepository(db), adminRepo, studentRepo)
	otp := principal.NewOTPEngine(dir, mailSvc, conf)
	tokens := principal.NewTokenManager(conf)

	principalSvc := principal.NewService(adminRepo, studentRepo, dir, seq, otp, uploadSvc, logger)
	auth := principal.NewAuthenticator(dir, tokens, mailSvc, googlesvc.NewTokeninfoVerifier(conf), conf)
	catalogSvc := catalog.NewService(
		sqlxrepos.NewCourseRepository(db),
		sqlxrepos.NewBranchRepository(db),
		sqlxrepos.NewTeamRepository(db),
		sqlxrepos.NewActivityRepository(db),
		sqlxrepos.NewGalleryRepository(db),
		sqlxrepos.NewEnquiryRepository(db),
		uploadSvc,
		logger,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	principal.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err))
		}
	}()

	// =========================================================================
	// Start Background Reaper

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go principalSvc.StartReaper(reaperCtx, conf.OTP.ReaperInterval)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			PrincipalSvc: principalSvc,
			CatalogSvc:   catalogSvc,
			Auth:         auth,
			Tokens:       tokens,
			Validate:     validate,
			Translator:   translator,
		},
	)
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err))

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		stopReaper()

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err))

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err))
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

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
