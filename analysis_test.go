package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agroanalyst/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze", r.URL.Path)

		var req analyzeReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "P1", req.PlotID)

		_ = json.NewEncoder(w).Encode(models.AnalysisOutput{
			Summary:         "looks healthy",
			Recommendations: []string{"keep irrigating"},
		})
	}))
	defer srv.Close()

	a := NewHTTPAnalysis(srv.URL, 5*time.Second)
	out, err := a.Analyze(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, "looks healthy", out.Summary)
	assert.Equal(t, []string{"keep irrigating"}, out.Recommendations)
}

func TestHTTPAnalysisNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewHTTPAnalysis(srv.URL, 5*time.Second)
	_, err := a.Analyze(context.Background(), "P1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-2xx")
}

func TestCannedAnalysisDeterministic(t *testing.T) {
	a := CannedAnalysis{}
	out, err := a.Analyze(context.Background(), "P7")
	require.NoError(t, err)
	assert.Contains(t, out.Summary, "Plot P7")
	assert.NotEmpty(t, out.Recommendations)

	again, err := a.Analyze(context.Background(), "P7")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestCannedAnalysisHonorsCancellation(t *testing.T) {
	a := CannedAnalysis{Delay: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.Analyze(ctx, "P1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
