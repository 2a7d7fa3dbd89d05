package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportStatus tracks an analysis report through its workflow. The chain
// only ever moves forward; "error" is terminal and reachable only from
// "processing".
type ReportStatus string

const (
	StatusRequested        ReportStatus = "requested"
	StatusProcessing       ReportStatus = "processing"
	StatusPendingReview    ReportStatus = "pending_review"
	StatusApprovedByExpert ReportStatus = "approved_by_expert"
	StatusDelivered        ReportStatus = "delivered"
	StatusError            ReportStatus = "error"
)

// Terminal reports whether no further transition may leave s.
func (s ReportStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusError
}

// validNext maps each status to the statuses it may advance to.
var validNext = map[ReportStatus][]ReportStatus{
	StatusRequested:        {StatusProcessing},
	StatusProcessing:       {StatusPendingReview, StatusError},
	StatusPendingReview:    {StatusApprovedByExpert},
	StatusApprovedByExpert: {StatusDelivered},
}

// ValidTransition reports whether moving from one status to another follows
// the forward chain. Regressions and jumps are rejected.
func ValidTransition(from, to ReportStatus) bool {
	for _, next := range validNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Report — one document per analysis request in the "saa_reports" collection.
// The requester creates it with status "requested"; every later mutation up
// to "delivered" or "error" belongs to the lifecycle controller, except the
// reviewer flipping status to "approved_by_expert".
type Report struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlotID   string             `bson:"plotId"             json:"plotId"`
	FarmerID string             `bson:"farmerId"           json:"farmerId"`
	ExpertID string             `bson:"expertId,omitempty" json:"expertId,omitempty"`

	Status ReportStatus `bson:"status" json:"status"`

	// Each timestamp is assigned exactly once, by the transition that
	// produces the corresponding status.
	RequestedAt time.Time  `bson:"requestedAt"           json:"requestedAt"`
	ProcessedAt *time.Time `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	ApprovedAt  *time.Time `bson:"approvedAt,omitempty"  json:"approvedAt,omitempty"`

	// RawOutput and ErrorMessage are mutually exclusive.
	RawOutput    *AnalysisOutput `bson:"raw_output,omitempty"   json:"raw_output,omitempty"`
	ErrorMessage string          `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
}

// AnalysisOutput is the structured result produced by the analysis service.
type AnalysisOutput struct {
	Summary         string   `bson:"summary"         json:"summary"`
	Recommendations []string `bson:"recommendations" json:"recommendations"`
}
