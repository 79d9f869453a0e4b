// Package repository holds the MySQL-backed stores.  Lookups of missing
// rows return sql.ErrNoRows; unique-key violations are reported with the
// sentinel errors below so handlers can answer 409.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrEmailExists       = errors.New("email already exists")
	ErrPhoneExists       = errors.New("phone already exists")
	ErrTableNumberExists = errors.New("table number already exists")
)

const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique-key violation and, if so,
// the message MySQL gave for it (which names the key).
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return me.Message, true
	}
	return "", false
}

func userConflict(err error) error {
	msg, ok := duplicateKey(err)
	if !ok {
		return err
	}
	if strings.Contains(msg, "phone") {
		return ErrPhoneExists
	}
	return ErrEmailExists
}
