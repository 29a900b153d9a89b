// Package repository contains the SQL data access layer.  This file defines
// the error values shared by the repositories.  Every sentinel is an
// *apperr.Error so handlers can translate it into an HTTP status without
// knowing which repository produced it, while errors.Is still matches the
// exact condition.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
)

var (
	ErrApplicantNotFound = apperr.NotFound("applicant not found")
	ErrEmailExists       = apperr.Conflict("an application with this email already exists")
	ErrUnknownLocation   = apperr.Validation("one or more selected locations do not exist")
	ErrUnknownEmployee   = apperr.Validation("assigned employee does not exist")
	ErrValueTooLong      = apperr.Validation("one or more answers are too long")

	ErrLocationNotFound = apperr.NotFound("location not found")
	ErrLocationExists   = apperr.Conflict("a location with this name already exists")
	ErrLocationInUse    = apperr.Conflict("location is used by existing applicants")

	ErrUserNotFound = apperr.NotFound("user not found")
	ErrUserExists   = apperr.Conflict("a user with this email already exists")
	ErrUserAssigned = apperr.Conflict("user is assigned to existing applicants")
)

// MySQL server error numbers the repositories react to.
const (
	errDupEntry          = 1062 // ER_DUP_ENTRY
	errRowIsReferenced   = 1451 // ER_ROW_IS_REFERENCED_2
	errNoReferencedRow   = 1452 // ER_NO_REFERENCED_ROW_2
	errRowIsReferencedV1 = 1217 // ER_ROW_IS_REFERENCED
	errDataTooLong       = 1406 // ER_DATA_TOO_LONG
)

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports a unique key violation.
func isDuplicate(err error) bool { return mysqlErrno(err) == errDupEntry }

// isMissingParent reports an insert or update whose foreign key points at
// a row that does not exist.
func isMissingParent(err error) bool { return mysqlErrno(err) == errNoReferencedRow }

// isTooLong reports a value rejected by a strict-mode column length.
func isTooLong(err error) bool { return mysqlErrno(err) == errDataTooLong }

// isReferenced reports a delete blocked by a child row.
func isReferenced(err error) bool {
	n := mysqlErrno(err)
	return n == errRowIsReferenced || n == errRowIsReferencedV1
}

// storageErr wraps any other driver error as a storage fault.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Storage(err)
}
