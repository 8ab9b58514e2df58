package database

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation       = "23505"
	pqInsufficientPrivilege = "42501"
)

// occurrenceConstraint is the partial unique index on (origin_rule_id, occurrence_date).
const occurrenceConstraint = "ledger_entries_occurrence_unique"

func pqCode(err error) (pq.ErrorCode, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, pqErr.Constraint
	}
	return "", ""
}

func isPermissionDenied(err error) bool {
	code, _ := pqCode(err)
	return code == pqInsufficientPrivilege
}
