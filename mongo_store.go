package main

import (
	"context"
	"time"

	"agroanalyst/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoReports implements ReportStore over the saa_reports collection.
type mongoReports struct {
	col *mongo.Collection
}

func (s *mongoReports) Get(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	var r models.Report
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ApplyTransition performs a guarded, field-scoped update: the filter pins
// the expected prior status so a concurrent transition's result is never
// clobbered. Zero matches means the guard failed.
func (s *mongoReports) ApplyTransition(ctx context.Context, id string, from models.ReportStatus, set map[string]any) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrReportNotFound
	}
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": oid, "status": from},
		bson.M{"$set": bson.M(set)},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrWriteConflict
	}
	return nil
}

// mongoActivityLog implements ActivityLog over the activity_log collection.
type mongoActivityLog struct {
	col *mongo.Collection
}

func (l *mongoActivityLog) Append(ctx context.Context, message string, fields map[string]any) error {
	_, err := l.col.InsertOne(ctx, models.ActivityLogEntry{
		Timestamp: time.Now().UTC(),
		Message:   message,
		Context:   fields,
	})
	return err
}

// mongoNotifications implements NotificationStore over the notifications
// collection. The unique sparse index on idempotencyKey (created at startup)
// turns redelivered creates into duplicate-key errors.
type mongoNotifications struct {
	col *mongo.Collection
}

func (s *mongoNotifications) Create(ctx context.Context, n models.Notification) (string, error) {
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.col.InsertOne(ctx, &n); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateNotification
		}
		return "", err
	}
	return n.NotificationID, nil
}
