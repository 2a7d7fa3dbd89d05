package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agroanalyst/models"
)

// AnalysisService produces a summary and recommendations for a plot. Calls
// may take arbitrarily long and may fail; callers bound them with a context
// deadline and treat any error as an analysis failure.
type AnalysisService interface {
	Analyze(ctx context.Context, plotID string) (models.AnalysisOutput, error)
}

// HTTPAnalysis calls an external analysis processor over HTTP.
type HTTPAnalysis struct {
	baseURL string
	client  *http.Client
}

func NewHTTPAnalysis(baseURL string, timeout time.Duration) *HTTPAnalysis {
	return &HTTPAnalysis{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type analyzeReq struct {
	PlotID string `json:"plotId"`
}

func (h *HTTPAnalysis) Analyze(ctx context.Context, plotID string) (models.AnalysisOutput, error) {
	var out models.AnalysisOutput

	body, err := json.Marshal(analyzeReq{PlotID: plotID})
	if err != nil {
		return out, fmt.Errorf("marshal analysis req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("analysis call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, fmt.Errorf("analysis non-2xx: %s, body: %s", resp.Status, string(data))
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode analysis resp: %w", err)
	}
	return out, nil
}

// CannedAnalysis stands in for a real inference service: a fixed delay
// followed by a deterministic result. Used when no analysis URL is
// configured.
type CannedAnalysis struct {
	Delay time.Duration
}

func (c CannedAnalysis) Analyze(ctx context.Context, plotID string) (models.AnalysisOutput, error) {
	if c.Delay > 0 {
		t := time.NewTimer(c.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return models.AnalysisOutput{}, ctx.Err()
		case <-t.C:
		}
	}
	return models.AnalysisOutput{
		Summary: fmt.Sprintf("Analysis for Plot %s: Soil pH is optimal, but crop diversity could be improved based on regional data.", plotID),
		Recommendations: []string{
			"Actionable Insight: Consider intercropping with leguminous plants like peanuts to boost soil nitrogen.",
			"Long-term: A regular pruning schedule for your existing fruit trees is recommended to increase yield.",
		},
	}, nil
}
