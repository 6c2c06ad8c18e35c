package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/runeforge/optimizer/internal/log"
)

func init() {
	log.Initialize()
}

func testConfig() OptimizerAPIConfig {
	c := DefaultAPIConfig()
	c.SearchTimeoutSecs = 5
	c.OverallTimeoutSecs = 5
	c.SearchTimeout = time.Duration(c.SearchTimeoutSecs) * time.Second
	c.OverallTimeout = time.Duration(c.OverallTimeoutSecs) * time.Second
	return c
}

func TestOptimizeEmptyInventoryReturnsDiagnostic(t *testing.T) {
	handler := NewHandler(testConfig())
	defer handler.Close()

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", body)
	rr := httptest.NewRecorder()

	handler.Optimize(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Diagnostics []struct {
			Tag string `json:"tag"`
		} `json:"diagnostics"`
		Builds []interface{} `json:"builds"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Builds) != 0 {
		t.Errorf("expected no builds from an empty inventory, got %d", len(resp.Builds))
	}

	found := false
	for _, d := range resp.Diagnostics {
		if d.Tag == "empty_inventory_for_slot" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected empty_inventory_for_slot diagnostic, got %+v", resp.Diagnostics)
	}
}

func TestOptimizeMalformedBodyReturns400(t *testing.T) {
	handler := NewHandler(testConfig())
	defer handler.Close()

	body := bytes.NewBufferString(`{"runes": not-json}`)
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", body)
	rr := httptest.NewRecorder()

	handler.Optimize(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var errResp StandardError
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Details["code"] != "MALFORMED_REQUEST" {
		t.Errorf("expected MALFORMED_REQUEST, got %v", errResp.Details["code"])
	}
}

func TestOptimizeUnknownFieldRejected(t *testing.T) {
	handler := NewHandler(testConfig())
	defer handler.Close()

	body := bytes.NewBufferString(`{"not_a_real_field": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", body)
	rr := httptest.NewRecorder()

	handler.Optimize(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rr.Code)
	}
}

func TestOptimizeInventoryTooLarge(t *testing.T) {
	config := testConfig()
	config.MaxInventorySize = 1
	handler := NewHandler(config)
	defer handler.Close()

	payload := map[string]interface{}{
		"runes": []map[string]interface{}{
			{"rune_id": 1, "slot": 1, "set": "Fatal", "main_stat": "ATK_FLAT", "main_value": 100},
			{"rune_id": 2, "slot": 2, "set": "Fatal", "main_stat": "ATK_FLAT", "main_value": 100},
		},
	}
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewReader(raw))
	rr := httptest.NewRecorder()

	handler.Optimize(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestListObjectives(t *testing.T) {
	handler := NewHandler(testConfig())
	defer handler.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/objectives", nil)
	rr := httptest.NewRecorder()

	handler.ListObjectives(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Objectives []string `json:"objectives"`
		Default    string   `json:"default"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Default != "SCORE" {
		t.Errorf("expected default objective SCORE, got %s", resp.Default)
	}
	if len(resp.Objectives) == 0 {
		t.Error("expected at least one registered objective")
	}
}

func TestHealthCheck(t *testing.T) {
	handler := NewHandler(testConfig())
	defer handler.Close()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	handler.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", resp["status"])
	}
}

func TestRegisterRoutesWiresExpectedPaths(t *testing.T) {
	router := mux.NewRouter()
	handler := RegisterRoutes(router, testConfig())
	defer handler.Close()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/optimize"},
		{http.MethodGet, "/api/objectives"},
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/health"},
	}

	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, bytes.NewBufferString("{}"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code == http.StatusNotFound {
			t.Errorf("%s %s: route not registered", c.method, c.path)
		}
	}
}
