package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers map these onto HTTP
// statuses; see the handlers package.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrForbidden         = errors.New("forbidden")
	ErrTenantSuspended   = errors.New("tenant is not active")
	ErrReportLocked      = errors.New("report is locked")
	ErrInvalidTransition = errors.New("invalid report status transition")
	ErrUserLimitReached  = errors.New("company user limit reached")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrInviteExpired     = errors.New("invitation token is invalid or already used")
)

// DuplicateWeekError signals that a report already exists for the
// (user, year, week) tuple. It is not a failure: handlers redirect the
// caller to the existing report's edit flow.
type DuplicateWeekError struct {
	ExistingID   uint
	ExistingUUID string
}

func (e *DuplicateWeekError) Error() string {
	return fmt.Sprintf("weekly report already exists (id=%d)", e.ExistingID)
}
