package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/storage/database"
)

var migrateRunFunc = runMigration // mockable

func (cli *commandLine) createDB() error {
	if cli.db == nil {
		return errDBRequired
	}
	return database.CreateIfNotExist(core.Conf)
}

func (cli *commandLine) migrate(args []string) error {
	command := args[0]
	switch command {
	case "up", "down", "version": // pass
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force must be of form: admin migrate force VERSION")
		}
		if _, err := strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("version must be a number (got '%s')", args[1])
		}
	default:
		return fmt.Errorf("%q: no such command", command)
	}

	if cli.db == nil {
		return errDBRequired
	}
	return migrateRunFunc(cli.db.DB, command, args[1:]...)
}

func runMigration(db *sql.DB, command string, args ...string) error {
	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			return err
		}
	case "version":
		version, dirty, err := m.Version()
		if err == migrate.ErrNilVersion {
			fmt.Println("version: none")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version: %d (dirty: %t)\n", version, dirty)
	case "force":
		version, _ := strconv.Atoi(args[0])
		return m.Force(version)
	}
	return nil
}
