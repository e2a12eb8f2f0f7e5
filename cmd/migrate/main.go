package main

import (
	"database/sql"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/user-directory/internal/database"
)

var (
	down = flag.Bool("down", false, "run migration down")
	dir  = flag.String("dir", "db/migrations", "migrations directory")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "3306"
	}
	cfg, err := mysql.ParseDSN(database.DSN(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_HOST"), port, os.Getenv("DB_NAME")))
	if err != nil {
		logrus.WithError(err).Fatal("invalid database settings")
	}
	// each migration file holds several statements
	cfg.MultiStatements = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		logrus.WithError(err).Fatal("error opening db connection")
	}
	defer db.Close()

	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("error creating migrate driver")
	}
	abs, err := filepath.Abs(*dir)
	if err != nil {
		logrus.WithError(err).Fatal("error resolving migrations dir")
	}
	source := "file://" + filepath.ToSlash(abs)
	logrus.WithField("source", source).Info("using migrations")

	m, err := migrate.NewWithDatabaseInstance(source, "mysql", driver)
	if err != nil {
		logrus.WithError(err).Fatal("NewWithDatabaseInstance error")
	}
	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logrus.WithError(err).WithField("down", *down).Fatal("migration failed")
	}
	logrus.Info("migrations applied")
}
