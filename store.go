package main

import (
	"context"
	"errors"

	"agroanalyst/models"
)

var (
	// ErrWriteConflict means a guarded update found the report in a status
	// other than the expected one. Safe to drop: either a concurrent handler
	// already applied the transition or a later event will re-attempt.
	ErrWriteConflict = errors.New("report not in expected status")

	// ErrDuplicateNotification means a notification with the same
	// idempotency key already exists.
	ErrDuplicateNotification = errors.New("notification already exists")

	ErrReportNotFound = errors.New("report not found")
)

// ReportStore mutates report documents. All mutations are field-scoped and
// conditioned on the expected prior status; blind full-document overwrites
// are not part of the contract.
type ReportStore interface {
	Get(ctx context.Context, id string) (*models.Report, error)

	// ApplyTransition sets the given fields only if the report's current
	// status equals from, returning ErrWriteConflict otherwise.
	ApplyTransition(ctx context.Context, id string, from models.ReportStatus, set map[string]any) error
}

// ActivityLog appends immutable audit records. Best-effort: callers swallow
// append failures into the process log rather than failing a transition.
type ActivityLog interface {
	Append(ctx context.Context, message string, context map[string]any) error
}

// NotificationStore creates farmer-facing notification documents. Create
// must honor the notification's idempotency key and return
// ErrDuplicateNotification instead of writing a second document.
type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) (string, error)
}
