package main

import (
	"database/sql"

	"github.com/trezcool/goose"

	appfs "github.com/Brainhard-droid/sports-school-crm-sub001/fs"
)

const migrationsDir = "migrations"

var gooseRunFunc = goose.RunFS // mockable

// migrate runs a goose command (up, down-to 3, status...) against the embedded migrations.
func (cli *commandLine) migrate(args []string) error {
	var db *sql.DB
	if cli.db != nil {
		db = cli.db.DB
	}
	command, rest := args[0], args[1:]
	return gooseRunFunc(command, db, appfs.FS, migrationsDir, rest...)
}
