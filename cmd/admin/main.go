package main

import (
	"log"
	"os"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/principal"
	"github.com/ryitech/institute/storage/database"
	sqlxrepos "github.com/ryitech/institute/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	adminRepo := sqlxrepos.NewAdminRepository(db)
	studentRepo := sqlxrepos.NewStudentRepository(db)

	// start CLI
	cli := commandLine{
		db:     db.DB,
		admins: adminRepo,
		dir:    principal.NewDirectory(adminRepo, studentRepo),
		seq:    principal.NewSequencer(sqlxrepos.NewSequenceRepository(db), adminRepo, studentRepo),
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
