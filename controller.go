package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agroanalyst/models"
)

// userFacingAnalysisError is the only failure detail the requester ever
// sees. The underlying technical error goes to the activity log instead.
const userFacingAnalysisError = "The AI analysis failed. The technical team has been notified."

// Transition is the classification of a single change event.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionCreate
	TransitionApprove
)

func (t Transition) String() string {
	switch t {
	case TransitionCreate:
		return "creation"
	case TransitionApprove:
		return "approval"
	default:
		return "noop"
	}
}

// Classify decides which transition a change event represents. It inspects
// the snapshots only and has no side effects; committing to a transition is
// HandleEvent's job. Events are delivered at-least-once and unordered, so
// the approval branch keys off the before/after diff rather than any assumed
// sequence.
func Classify(before, after *models.Report) Transition {
	switch {
	case before == nil && after != nil:
		return TransitionCreate
	case before != nil && after != nil &&
		before.Status != models.StatusApprovedByExpert &&
		after.Status == models.StatusApprovedByExpert:
		return TransitionApprove
	default:
		return TransitionNone
	}
}

// Controller owns the report state machine. All collaborators are injected
// capabilities so tests can run against in-memory fakes.
type Controller struct {
	reports       ReportStore
	activity      ActivityLog
	notifications NotificationStore
	analysis      AnalysisService

	analysisTimeout time.Duration
	logger          *slog.Logger
	metrics         *controllerMetrics
}

func NewController(
	reports ReportStore,
	activity ActivityLog,
	notifications NotificationStore,
	analysis AnalysisService,
	analysisTimeout time.Duration,
	logger *slog.Logger,
	metrics *controllerMetrics,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		reports:         reports,
		activity:        activity,
		notifications:   notifications,
		analysis:        analysis,
		analysisTimeout: analysisTimeout,
		logger:          logger,
		metrics:         metrics,
	}
}

// HandleEvent classifies one change event and executes the matching
// transition. Safe to invoke arbitrarily often for the same logical write:
// redeliveries lose the guarded status update and stop before any
// externally visible side effect.
func (c *Controller) HandleEvent(ctx context.Context, ev ChangeEvent) error {
	c.metrics.events.Inc()

	tr := Classify(ev.Before, ev.After)
	c.metrics.transitions.WithLabelValues(tr.String()).Inc()

	switch tr {
	case TransitionCreate:
		return c.handleCreation(ctx, ev)
	case TransitionApprove:
		return c.handleApproval(ctx, ev)
	default:
		c.logger.Debug("no action for report event", "report", ev.ID)
		return nil
	}
}

// handleCreation drives requested → processing → {pending_review | error}.
func (c *Controller) handleCreation(ctx context.Context, ev ChangeEvent) error {
	after := ev.After
	if after.PlotID == "" || after.FarmerID == "" {
		c.metrics.failures.WithLabelValues("malformed").Inc()
		c.audit(ctx, "Malformed report event: missing plotId or farmerId", map[string]any{"id": ev.ID})
		return fmt.Errorf("malformed creation event for report %s", ev.ID)
	}

	c.audit(ctx, fmt.Sprintf("New report requested: %s", ev.ID), map[string]any{
		"id":       ev.ID,
		"plotId":   after.PlotID,
		"farmerId": after.FarmerID,
	})

	// Claim the report before invoking analysis: a concurrent read observes
	// in-flight work, and a redelivered creation event loses this guarded
	// update and never starts a second analysis run.
	err := c.reports.ApplyTransition(ctx, ev.ID, after.Status, map[string]any{
		"status": models.StatusProcessing,
	})
	if errors.Is(err, ErrWriteConflict) {
		c.metrics.failures.WithLabelValues("conflict").Inc()
		c.logger.Info("report already claimed, skipping", "report", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim report %s: %w", ev.ID, err)
	}

	actx, cancel := context.WithTimeout(ctx, c.analysisTimeout)
	defer cancel()

	start := time.Now()
	out, err := c.analysis.Analyze(actx, after.PlotID)
	c.metrics.analysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.failCreation(ctx, ev.ID, err)
		return nil
	}

	err = c.reports.ApplyTransition(ctx, ev.ID, models.StatusProcessing, map[string]any{
		"status":      models.StatusPendingReview,
		"processedAt": time.Now().UTC(),
		"raw_output":  out,
	})
	if errors.Is(err, ErrWriteConflict) {
		c.metrics.failures.WithLabelValues("conflict").Inc()
		c.logger.Warn("report left processing before analysis finished", "report", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("store analysis result for report %s: %w", ev.ID, err)
	}

	c.audit(ctx, "Report processed and awaiting expert review", map[string]any{"id": ev.ID})
	c.logger.Info("report processed", "report", ev.ID, "plot", after.PlotID)
	return nil
}

// failCreation parks the report in the terminal error status. The requester
// sees only the generic message; the real cause lands in the activity log.
func (c *Controller) failCreation(ctx context.Context, id string, cause error) {
	c.metrics.failures.WithLabelValues("analysis").Inc()
	c.logger.Error("analysis failed", "report", id, "error", cause)

	err := c.reports.ApplyTransition(ctx, id, models.StatusProcessing, map[string]any{
		"status":       models.StatusError,
		"errorMessage": userFacingAnalysisError,
	})
	if err != nil && !errors.Is(err, ErrWriteConflict) {
		c.logger.Error("failed to mark report as errored", "report", id, "error", err)
	}

	c.audit(ctx, fmt.Sprintf("Error processing report %s", id), map[string]any{
		"id":    id,
		"error": cause.Error(),
	})
}

// handleApproval drives approved_by_expert → delivered. Applied at most once
// per document: the guarded status update elects a single winner, and the
// notification's idempotency key backstops it at the store.
func (c *Controller) handleApproval(ctx context.Context, ev ChangeEvent) error {
	after := ev.After
	if after.ExpertID == "" {
		c.metrics.failures.WithLabelValues("malformed").Inc()
		c.audit(ctx, "Malformed approval event: missing expertId", map[string]any{"id": ev.ID})
		return fmt.Errorf("malformed approval event for report %s", ev.ID)
	}

	c.audit(ctx, fmt.Sprintf("Report approved by expert: %s", after.ExpertID), map[string]any{
		"id":       ev.ID,
		"expertId": after.ExpertID,
		"plotId":   after.PlotID,
	})

	err := c.reports.ApplyTransition(ctx, ev.ID, models.StatusApprovedByExpert, map[string]any{
		"status":     models.StatusDelivered,
		"approvedAt": time.Now().UTC(),
	})
	if errors.Is(err, ErrWriteConflict) {
		// Redelivered or raced: delivery and its side effects belong to
		// whichever handler won the update.
		c.metrics.failures.WithLabelValues("conflict").Inc()
		c.logger.Info("report already delivered, skipping", "report", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("deliver report %s: %w", ev.ID, err)
	}

	n := models.Notification{
		FarmerID:       after.FarmerID,
		PlotID:         after.PlotID,
		Type:           models.NotificationTypeReportReady,
		Message:        fmt.Sprintf("Your Smart Agro-Analyst report for Plot %s is ready.", after.PlotID),
		Link:           fmt.Sprintf("/farmers/reports/%s?plotId=%s", ev.ID, after.PlotID),
		Status:         models.NotificationUnread,
		IdempotencyKey: idempotencyKey(ev.ID, models.StatusDelivered),
	}
	if _, err := c.notifications.Create(ctx, n); err != nil {
		if errors.Is(err, ErrDuplicateNotification) {
			c.logger.Info("notification already exists", "report", ev.ID)
		} else {
			// Best-effort relative to the status transition: the report is
			// delivered regardless.
			c.metrics.failures.WithLabelValues("notification").Inc()
			c.logger.Error("notification create failed", "report", ev.ID, "error", err)
		}
	}

	c.audit(ctx, "Report delivered and notification sent to farmer", map[string]any{
		"id":       ev.ID,
		"farmerId": after.FarmerID,
	})
	c.logger.Info("report delivered", "report", ev.ID, "farmer", after.FarmerID)
	return nil
}

// audit appends to the activity log, swallowing failures into the process
// log. Audit emission never blocks or reverts a status transition.
func (c *Controller) audit(ctx context.Context, message string, fields map[string]any) {
	if err := c.activity.Append(ctx, message, fields); err != nil {
		c.metrics.failures.WithLabelValues("audit").Inc()
		c.logger.Warn("activity log append failed", "message", message, "error", err)
	}
}

// idempotencyKey fingerprints a document id plus its target status so
// duplicate side effects are detected deterministically.
func idempotencyKey(id string, target models.ReportStatus) string {
	sum := sha256.Sum256([]byte(id + ":" + string(target)))
	return hex.EncodeToString(sum[:16])
}
