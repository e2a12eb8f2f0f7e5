// Package repository holds the MySQL and in-memory stores for users and
// addresses. Failures are reported with the sentinel kinds from the model
// package so higher layers can match them with errors.Is without knowing
// which store is in use.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/user-directory/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL duplicate-key error.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors onto model sentinels. what names the entity
// for the error message.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	case isDuplicate(err):
		return fmt.Errorf("%s: %w", what, model.ErrAlreadyExists)
	default:
		return err
	}
}
