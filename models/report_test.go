package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransitionForwardOnly(t *testing.T) {
	allowed := []struct{ from, to ReportStatus }{
		{StatusRequested, StatusProcessing},
		{StatusProcessing, StatusPendingReview},
		{StatusProcessing, StatusError},
		{StatusPendingReview, StatusApprovedByExpert},
		{StatusApprovedByExpert, StatusDelivered},
	}
	for _, tc := range allowed {
		assert.True(t, ValidTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	rejected := []struct{ from, to ReportStatus }{
		{StatusProcessing, StatusRequested},
		{StatusPendingReview, StatusProcessing},
		{StatusRequested, StatusPendingReview},
		{StatusRequested, StatusError},
		{StatusApprovedByExpert, StatusError},
		{StatusDelivered, StatusApprovedByExpert},
		{StatusError, StatusProcessing},
		{StatusDelivered, StatusDelivered},
	}
	for _, tc := range rejected {
		assert.False(t, ValidTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusRequested.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, StatusPendingReview.Terminal())
	assert.False(t, StatusApprovedByExpert.Terminal())
}
