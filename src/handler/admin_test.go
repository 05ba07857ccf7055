package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jimmer89/bloop-tracker/src/spread"
)

type mockResetter struct {
	calls int
	err   error
}

func (m *mockResetter) DeleteAll(ctx context.Context) error {
	m.calls++
	return m.err
}

type mockRecalculator struct {
	updated int
	err     error
}

func (m *mockRecalculator) RecalculateAll(ctx context.Context) (int, error) {
	return m.updated, m.err
}

func TestResetHandler_ClearsEveryEntity(t *testing.T) {
	signals := &mockResetter{}
	trades := &mockResetter{}
	positions := &mockResetter{}

	req := httptest.NewRequest(http.MethodPost, "/admin/reset", nil)
	rr := httptest.NewRecorder()
	ResetHandler(signals, trades, positions).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	assert.Equal(t, 1, signals.calls)
	assert.Equal(t, 1, trades.calls)
	assert.Equal(t, 1, positions.calls)

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, "reset", body["status"])
}

func TestResetHandler_StopsOnFirstFailure(t *testing.T) {
	signals := &mockResetter{err: assert.AnError}
	trades := &mockResetter{}
	positions := &mockResetter{}

	req := httptest.NewRequest(http.MethodPost, "/admin/reset", nil)
	rr := httptest.NewRecorder()
	ResetHandler(signals, trades, positions).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	assert.Equal(t, 0, trades.calls)
	assert.Equal(t, 0, positions.calls)
}

func TestSpreadGetHandler_ReturnsSnapshot(t *testing.T) {
	spreads := spread.NewConfig()

	req := httptest.NewRequest(http.MethodGet, "/admin/spread", nil)
	rr := httptest.NewRecorder()
	SpreadGetHandler(spreads).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		DefaultSymbol string                  `json:"default_symbol"`
		Spreads       map[string]spread.Entry `json:"spreads"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, spread.DefaultSymbol, body.DefaultSymbol)
	assert.Equal(t, 2.0, body.Spreads[spread.DefaultSymbol].Spread)
}

func TestSpreadSetHandler_UpdatesTable(t *testing.T) {
	spreads := spread.NewConfig()

	req := httptest.NewRequest(http.MethodPut, "/admin/spread",
		strings.NewReader(`{"symbol":"GER40","spread":1.2,"source":"broker sheet"}`))
	rr := httptest.NewRecorder()
	SpreadSetHandler(spreads).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	assert.Equal(t, 1.2, spreads.Lookup("GER40"))
}

func TestSpreadSetHandler_RejectsBadInput(t *testing.T) {
	spreads := spread.NewConfig()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"symbol":`},
		{"empty symbol", `{"symbol":"","spread":1}`},
		{"negative spread", `{"symbol":"USTEC","spread":-1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/admin/spread", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			SpreadSetHandler(spreads).ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
		})
	}

	// The baseline entry must survive rejected updates.
	assert.Equal(t, 2.0, spreads.Lookup(spread.DefaultSymbol))
}

func TestRecalculateHandler_ReportsUpdateCount(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/recalculate", nil)
	rr := httptest.NewRecorder()
	RecalculateHandler(&mockRecalculator{updated: 7}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Status  string `json:"status"`
		Updated int    `json:"updated"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 7, body.Updated)
}

func TestRecalculateHandler_Error(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/recalculate", nil)
	rr := httptest.NewRecorder()
	RecalculateHandler(&mockRecalculator{err: assert.AnError}).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}
