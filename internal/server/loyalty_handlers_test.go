package server

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/authorization"
	loyaltydomain "github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/domain"
)

func TestLoyaltyStatusForwardsPhone(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/v1/loyalty/status?phone=9876543210", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ts.loyalty.lastPhone != "9876543210" {
		t.Fatalf("phone not forwarded, got %q", ts.loyalty.lastPhone)
	}

	var payload struct {
		Data loyaltydomain.Status `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.NextPurchaseNumber != 5 || !payload.Data.WillEarnReward {
		t.Fatalf("unexpected status payload: %+v", payload.Data)
	}
}

func TestLoyaltyStatusForwardsProspectiveSubtotal(t *testing.T) {
	ts := newTestServer(t)
	preview := 50.0
	ts.loyalty.status = &loyaltydomain.Status{
		Phone:              "9876543210",
		PurchaseCount:      4,
		NextPurchaseNumber: 5,
		WillEarnReward:     true,
		PotentialDiscount:  &preview,
	}

	resp := ts.request(t, http.MethodGet, "/api/v1/loyalty/status?phone=9876543210&subtotal=500", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ts.loyalty.lastProspective != 50000 {
		t.Fatalf("expected subtotal forwarded as 50000 paise, got %d", ts.loyalty.lastProspective)
	}

	var payload struct {
		Data loyaltydomain.Status `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.PotentialDiscount == nil || *payload.Data.PotentialDiscount != 50 {
		t.Fatalf("unexpected preview: %+v", payload.Data.PotentialDiscount)
	}
}

func TestLoyaltyStatusOmitsPreviewWithoutSubtotal(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/v1/loyalty/status?phone=9876543210", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if ts.loyalty.lastProspective != 0 {
		t.Fatalf("expected no prospective subtotal, got %d", ts.loyalty.lastProspective)
	}

	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := payload.Data["potential_discount"]; ok {
		t.Fatal("potential_discount should be omitted without a subtotal")
	}
}

func TestLoyaltyStatusRejectsBadSubtotal(t *testing.T) {
	ts := newTestServer(t)

	for _, raw := range []string{"abc", "-10"} {
		resp := ts.request(t, http.MethodGet, "/api/v1/loyalty/status?phone=9876543210&subtotal="+raw, "", true)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("subtotal %q: expected status 400, got %d", raw, resp.Code)
		}
	}
	if ts.loyalty.lastPhone != "" {
		t.Fatal("service should not be reached with a malformed subtotal")
	}
}

func TestLoyaltyStatusMapsInvalidPhone(t *testing.T) {
	ts := newTestServer(t)
	ts.loyalty.statusErr = loyaltydomain.ErrInvalidPhone

	resp := ts.request(t, http.MethodGet, "/api/v1/loyalty/status", "", true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	var payload struct {
		Error struct {
			Type   string            `json:"type"`
			Errors []ValidationError `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", payload.Error.Type)
	}
	if len(payload.Error.Errors) != 1 || payload.Error.Errors[0].Code != "invalid_phone" {
		t.Fatalf("unexpected validation detail: %+v", payload.Error.Errors)
	}
}

func TestLoyaltyHistoryReturnsEntries(t *testing.T) {
	ts := newTestServer(t)
	ts.loyalty.history = []*loyaltydomain.HistoryEntry{
		{BillNumber: "BILL-20260301-0001", BillDate: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), CakeSubtotal: 400, PurchaseNumber: 1},
		{BillNumber: "BILL-20260314-0007", BillDate: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC), CakeSubtotal: 500, PurchaseNumber: 2},
	}

	resp := ts.request(t, http.MethodGet, "/api/v1/loyalty/history?phone=9876543210", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var payload struct {
		Data []loyaltydomain.HistoryEntry `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data) != 2 || payload.Data[1].PurchaseNumber != 2 {
		t.Fatalf("unexpected history payload: %+v", payload.Data)
	}
}

func TestLoyaltyLookupDeniedWithoutPermission(t *testing.T) {
	ts := newTestServer(t)
	ts.authz.denied = map[string]error{
		"loyalty:loyalty.view": authorization.ErrForbidden,
	}

	resp := ts.request(t, http.MethodGet, "/api/v1/loyalty/status?phone=9876543210", "", true)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
	if ts.loyalty.lastPhone != "" {
		t.Fatal("service should not be reached when authorization denies")
	}
}

func TestLoyaltyRateLimitSkippedWhenUnconfigured(t *testing.T) {
	ts := newTestServer(t)

	// No limiter wired: lookups must pass untouched.
	for i := 0; i < 5; i++ {
		resp := ts.request(t, http.MethodGet, "/api/v1/loyalty/status?phone=9876543210", "", true)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200 on call %d, got %d", i+1, resp.Code)
		}
	}
}
