package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/minhaescola/backend/apps/api/echo"
	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
	emailsvc "github.com/minhaescola/backend/services/email"
	filesvc "github.com/minhaescola/backend/services/filestore"
	logsvc "github.com/minhaescola/backend/services/logger"
	"github.com/minhaescola/backend/storage/database"
	inmemdb "github.com/minhaescola/backend/storage/database/inmem"
	sqlxrepos "github.com/minhaescola/backend/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	files, err := setUpFileStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}

	var (
		userRepo user.Repository
		crsRepo  course.Repository
		quizRepo quiz.Repository
		subRepo  submission.Repository
	)
	if conf.Database.Engine == "inmem" {
		db := inmemdb.Open()
		userRepo = inmemdb.NewUserRepository(db)
		crsRepo = inmemdb.NewCourseRepository(db)
		quizRepo = inmemdb.NewQuizRepository(db)
		subRepo = inmemdb.NewSubmissionRepository(db)
	} else {
		var db *sqlx.DB
		db, err = setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() { _ = db.Close() }()

		userRepo = sqlxrepos.NewUserRepository(db)
		crsRepo = sqlxrepos.NewCourseRepository(db)
		quizRepo = sqlxrepos.NewQuizRepository(db)
		subRepo = sqlxrepos.NewSubmissionRepository(db)
	}

	usrSvc := user.NewService(userRepo, mailSvc)
	crsSvc := course.NewService(crsRepo, files)
	quizSvc := quiz.NewService(quizRepo, crsSvc)
	subSvc := submission.NewService(subRepo, quizSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Address:       conf.Server.Address(),
		Logger:        logger,
		UserSvc:       usrSvc,
		CourseSvc:     crsSvc,
		QuizSvc:       quizSvc,
		SubmissionSvc: subSvc,
		Validate:      validate,
		Translator:    translator,
	})
	server.Start()

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

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func setUpFileStore(conf *core.Config) (core.FileStore, error) {
	if conf.Store.Engine == "inmem" {
		return filesvc.NewMemoryStore(), nil
	}
	return filesvc.NewMinioStore(conf)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
