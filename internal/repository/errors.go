// Package repository contains the MySQL-backed stores: the credential
// store (users), the role registry, the theater repository and the
// session table.  Repositories translate driver errors into the sentinel
// values of package model so that services never inspect MySQL error
// codes themselves.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repositories care about.
const (
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlNoReferencedRow = 1452 // ER_NO_REFERENCED_ROW_2
)

// isDuplicateKey reports whether err is a unique-index violation.
func isDuplicateKey(err error) bool {
	return mysqlErrorNumber(err) == mysqlDuplicateEntry
}

// isMissingReference reports whether err is a foreign-key violation on
// insert or update (the referenced row does not exist).
func isMissingReference(err error) bool {
	return mysqlErrorNumber(err) == mysqlNoReferencedRow
}

func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
