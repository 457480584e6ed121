package database

import (
	"context"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	appfs "github.com/Brainhard-droid/sports-school-crm-sub001/fs"
)

const (
	migrationsDir  = "migrations"
	maintenanceDB  = "postgres"
	pingAttempts   = 30
	pingBackoffInc = 100 * time.Millisecond
)

// DSN builds the connection URL of dbName, as the admin user if admin is set and one is configured.
func DSN(dbName string, admin bool, conf *core.Config) string {
	dbc := conf.Database
	login := url.UserPassword(dbc.User, dbc.Password)
	if admin && dbc.AdminUser != "" {
		login = url.UserPassword(dbc.AdminUser, dbc.AdminPassword)
	}
	sslMode := "require"
	if dbc.DisableTLS {
		sslMode = "disable"
	}
	return (&url.URL{
		Scheme:   dbc.Engine,
		User:     login,
		Host:     dbc.Address(),
		Path:     dbName,
		RawQuery: url.Values{"sslmode": {sslMode}, "timezone": {"utc"}}.Encode(),
	}).String()
}

// connect opens dbName and waits until the server answers.
func connect(ctx context.Context, dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(conf.Database.Engine, DSN(dbName, admin, conf))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbName)
	}
	if err = waitReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// waitReady pings db until it answers, sleeping 100ms longer after every failed attempt.
func waitReady(ctx context.Context, db *sqlx.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "waiting for database")
		case <-time.After(time.Duration(attempt) * pingBackoffInc):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Open connects to the app database.
func Open(conf *core.Config) (*sqlx.DB, error) {
	return connect(context.Background(), conf.Database.Name, false, conf)
}

// ensure runs create unless probe finds a row for arg.
func ensure(ctx context.Context, db *sqlx.DB, probe, arg, create string) error {
	var found bool
	err := db.GetContext(ctx, &found, db.Rebind("SELECT EXISTS ("+probe+")"), arg)
	if err != nil {
		return errors.Wrap(err, "probing")
	}
	if found {
		return nil
	}
	_, err = db.ExecContext(ctx, create)
	return err
}

// CreateIfNotExist creates the app role (as admin) and then the app database (as the app role).
func CreateIfNotExist(conf *core.Config) error {
	ctx := context.Background()
	dbc := conf.Database

	if dbc.User != "" {
		admin, err := connect(ctx, maintenanceDB, true, conf)
		if err != nil {
			return err
		}
		defer func() { _ = admin.Close() }()

		err = ensure(ctx, admin, "SELECT 1 FROM pg_roles WHERE rolname = ?", dbc.User,
			"CREATE USER "+pq.QuoteIdentifier(dbc.User)+" CREATEDB ENCRYPTED PASSWORD "+pq.QuoteLiteral(dbc.Password))
		if err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}

	app, err := connect(ctx, maintenanceDB, false, conf)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	err = ensure(ctx, app, "SELECT 1 FROM pg_database WHERE datname = ?", dbc.Name,
		"CREATE DATABASE "+pq.QuoteIdentifier(dbc.Name))
	return errors.Wrap(err, "creating database")
}

// Migrate applies every pending migration embedded under fs/migrations.
func Migrate(db *sqlx.DB) error {
	return errors.Wrap(goose.RunFS("up", db.DB, appfs.FS, migrationsDir), "migrating database")
}
