package main

import (
	"log"
	"os"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/storage/database"
	inmemdb "github.com/minhaescola/backend/storage/database/inmem"
	sqlxrepos "github.com/minhaescola/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.Conf

	cli := commandLine{}
	if conf.Database.Engine == "inmem" {
		db := inmemdb.Open()
		cli.usrRepo = inmemdb.NewUserRepository(db)
		cli.crsRepo = inmemdb.NewCourseRepository(db)
		cli.quizRepo = inmemdb.NewQuizRepository(db)
		cli.subRepo = inmemdb.NewSubmissionRepository(db)
	} else {
		errAndDie(database.CreateIfNotExist(conf))

		db, err := database.Open(conf)
		errAndDie(err)
		defer func() { _ = db.Close() }()

		cli.db = db
		cli.usrRepo = sqlxrepos.NewUserRepository(db)
		cli.crsRepo = sqlxrepos.NewCourseRepository(db)
		cli.quizRepo = sqlxrepos.NewQuizRepository(db)
		cli.subRepo = sqlxrepos.NewSubmissionRepository(db)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
