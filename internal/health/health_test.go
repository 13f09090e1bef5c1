// Copyright 2025 Prompt Enhancer Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func staticChecker(status string) Checker {
	return CheckerFunc(func(ctx context.Context) CheckResult {
		return CheckResult{Status: status}
	})
}

func TestCheckNoDependencies(t *testing.T) {
	m := NewManager("test-service", "1.2.3", zap.NewNop())

	resp := m.Check(context.Background())

	if resp.Status != StatusHealthy {
		t.Errorf("Expected healthy with no checkers, got %q", resp.Status)
	}
	if resp.Service != "test-service" || resp.Version != "1.2.3" {
		t.Errorf("Unexpected identity %q/%q", resp.Service, resp.Version)
	}
	if len(resp.Dependencies) != 0 {
		t.Errorf("Expected no dependencies, got %d", len(resp.Dependencies))
	}
	if resp.Metadata["go_version"] == "" {
		t.Error("Expected runtime metadata to include go_version")
	}
}

func TestCheckAggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"all healthy", []string{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"degraded wins over healthy", []string{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins over degraded", []string{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("test-service", "1.0.0", zap.NewNop())
			for i, status := range tt.statuses {
				m.AddChecker(string(rune('a'+i)), staticChecker(status))
			}

			resp := m.Check(context.Background())

			if resp.Status != tt.want {
				t.Errorf("Expected aggregate %q, got %q", tt.want, resp.Status)
			}
			if len(resp.Dependencies) != len(tt.statuses) {
				t.Errorf("Expected %d dependency results, got %d", len(tt.statuses), len(resp.Dependencies))
			}
		})
	}
}

func TestCheckRecordsLatencyAndTimestamp(t *testing.T) {
	m := NewManager("test-service", "1.0.0", zap.NewNop())
	m.AddCheckerFunc("slow", func(ctx context.Context) CheckResult {
		time.Sleep(5 * time.Millisecond)
		return CheckResult{Status: StatusHealthy}
	})

	resp := m.Check(context.Background())

	result, ok := resp.Dependencies["slow"]
	if !ok {
		t.Fatal("Expected a result for the registered checker")
	}
	if result.Latency < 5*time.Millisecond {
		t.Errorf("Expected latency >= 5ms, got %v", result.Latency)
	}
	if result.Timestamp.IsZero() {
		t.Error("Expected result timestamp to be populated")
	}
}

func TestCheckTimeoutPropagation(t *testing.T) {
	m := NewManager("test-service", "1.0.0", zap.NewNop())
	m.SetTimeout(10 * time.Millisecond)

	var deadlineSet bool
	m.AddCheckerFunc("ctx", func(ctx context.Context) CheckResult {
		_, deadlineSet = ctx.Deadline()
		return CheckResult{Status: StatusHealthy}
	})

	m.Check(context.Background())

	if !deadlineSet {
		t.Error("Expected checker context to carry a deadline")
	}
}

func TestHTTPHandler(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantCode int
	}{
		{"healthy", StatusHealthy, http.StatusOK},
		{"degraded still serves 200", StatusDegraded, http.StatusOK},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("test-service", "1.0.0", zap.NewNop())
			m.AddChecker("dep", staticChecker(tt.status))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			m.HTTPHandler()(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON content type, got %q", ct)
			}

			var resp Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response body: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("Expected body status %q, got %q", tt.status, resp.Status)
			}
		})
	}
}

func TestHTTPHandlerRejectsNonGet(t *testing.T) {
	m := NewManager("test-service", "1.0.0", zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	m.HTTPHandler()(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestDatabaseChecker(t *testing.T) {
	t.Run("healthy ping", func(t *testing.T) {
		checker := DatabaseChecker("sqlite", func(ctx context.Context) error { return nil })

		result := checker.Check(context.Background())

		if result.Status != StatusHealthy {
			t.Errorf("Expected healthy, got %q", result.Status)
		}
		if result.Metadata["database"] != "sqlite" {
			t.Errorf("Expected database metadata, got %v", result.Metadata)
		}
	})

	t.Run("failed ping", func(t *testing.T) {
		checker := DatabaseChecker("sqlite", func(ctx context.Context) error {
			return errors.New("connection refused")
		})

		result := checker.Check(context.Background())

		if result.Status != StatusUnhealthy {
			t.Errorf("Expected unhealthy, got %q", result.Status)
		}
		if !strings.Contains(result.Error, "connection refused") {
			t.Errorf("Expected ping error in result, got %q", result.Error)
		}
	})
}

func TestProviderChecker(t *testing.T) {
	t.Run("providers configured", func(t *testing.T) {
		checker := ProviderChecker(func() []string { return []string{"groq", "openai"} })

		result := checker.Check(context.Background())

		if result.Status != StatusHealthy {
			t.Errorf("Expected healthy, got %q", result.Status)
		}
		if result.Metadata["count"] != 2 {
			t.Errorf("Expected count 2, got %v", result.Metadata["count"])
		}
	})

	t.Run("no providers is degraded", func(t *testing.T) {
		checker := ProviderChecker(func() []string { return nil })

		result := checker.Check(context.Background())

		if result.Status != StatusDegraded {
			t.Errorf("Expected degraded, got %q", result.Status)
		}
		if result.Metadata["count"] != 0 {
			t.Errorf("Expected count 0, got %v", result.Metadata["count"])
		}
	})
}
