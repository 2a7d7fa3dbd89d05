package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationTypeReportReady marks notifications produced by report delivery.
const NotificationTypeReportReady = "saa_report_ready"

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// Notification — one document per delivery event, owned by the farmer.
// Only the farmer's client flips Status to "read".
type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	NotificationID string             `bson:"notificationId" json:"notificationId"`
	FarmerID       string             `bson:"farmerId"       json:"farmerId"`
	PlotID         string             `bson:"plotId"         json:"plotId"`
	Type           string             `bson:"type"           json:"type"`
	Message        string             `bson:"message"        json:"message"`
	Link           string             `bson:"link"           json:"link"`
	Status         NotificationStatus `bson:"status"         json:"status"`
	CreatedAt      time.Time          `bson:"createdAt"      json:"createdAt"`

	// IdempotencyKey dedupes creation under at-least-once event delivery.
	// A unique sparse index on this field rejects the second insert.
	IdempotencyKey string `bson:"idempotencyKey,omitempty" json:"-"`
}
