package server

import (
	"encoding/json"
	"net/http"
	"testing"

	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
)

func TestCheckoutHandlerCreatesBill(t *testing.T) {
	ts := newTestServer(t)

	body := `{
		"customer_name": "Asha",
		"customer_phone": "9876543210",
		"items": [
			{"product_id": "11", "quantity": 1, "weight": 0.5},
			{"product_id": "12", "quantity": 2, "discount": {"kind": "percentage", "value": 10}}
		]
	}`
	resp := ts.request(t, http.MethodPost, "/api/v1/bills", body, true)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data billingdomain.BillResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.BillNumber != "BILL-20260314-0007" {
		t.Fatalf("unexpected bill number %q", payload.Data.BillNumber)
	}

	if got := ts.billing.lastCheckout; got.CustomerPhone != "9876543210" || len(got.Items) != 2 {
		t.Fatalf("service saw unexpected request: %+v", got)
	}
	if ts.billing.lastCheckout.Items[0].Weight == nil || *ts.billing.lastCheckout.Items[0].Weight != 0.5 {
		t.Fatal("weight not forwarded to service")
	}
	if d := ts.billing.lastCheckout.Items[1].Discount; d == nil || d.Kind != "percentage" || d.Value != 10 {
		t.Fatalf("discount not forwarded: %+v", d)
	}

	if got := ts.authz.calls; len(got) == 0 || got[0] != "bill:bill.create" {
		t.Fatalf("expected bill.create authorization, got %v", got)
	}
}

func TestCheckoutHandlerRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/v1/bills", `{"items": "nope"`, true)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if ts.billing.lastCheckout.CustomerPhone != "" {
		t.Fatal("service should not be called for malformed body")
	}
}

func TestCheckoutHandlerMapsProductNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.billing.checkoutErr = billingdomain.ErrProductNotFound

	resp := ts.request(t, http.MethodPost, "/api/v1/bills", `{"customer_name":"A","customer_phone":"1","items":[{"product_id":"99","quantity":1}]}`, true)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutHandlerMapsTransactionError(t *testing.T) {
	ts := newTestServer(t)
	ts.billing.checkoutErr = billingdomain.ErrTransaction

	resp := ts.request(t, http.MethodPost, "/api/v1/bills", `{"customer_name":"A","customer_phone":"1","items":[{"product_id":"11","quantity":1}]}`, true)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}

	var payload struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Type != "transaction_error" {
		t.Fatalf("expected transaction_error, got %q", payload.Error.Type)
	}
}

func TestCheckoutHandlerMapsValidationError(t *testing.T) {
	ts := newTestServer(t)
	ts.billing.checkoutErr = billingdomain.ErrWeightRequired

	resp := ts.request(t, http.MethodPost, "/api/v1/bills", `{"customer_name":"A","customer_phone":"1","items":[{"product_id":"11","quantity":1}]}`, true)

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
	if len(payload.Error.Errors) != 1 || payload.Error.Errors[0].Code != "weight_required" {
		t.Fatalf("unexpected validation detail: %+v", payload.Error.Errors)
	}
	if payload.Error.Errors[0].Field != "weight" {
		t.Fatalf("unexpected field %q", payload.Error.Errors[0].Field)
	}
}

func TestGetBillRoutesNumberToNumberLookup(t *testing.T) {
	ts := newTestServer(t)
	ts.billing.bill = testBill()

	resp := ts.request(t, http.MethodGet, "/api/v1/bills/BILL-20260314-0007", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if ts.billing.lastGetNum != "BILL-20260314-0007" {
		t.Fatalf("expected number lookup, got id=%q number=%q", ts.billing.lastGetID, ts.billing.lastGetNum)
	}

	resp = ts.request(t, http.MethodGet, "/api/v1/bills/9001", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if ts.billing.lastGetID != "9001" {
		t.Fatalf("expected id lookup, got %q", ts.billing.lastGetID)
	}
}

func TestListBillsForwardsFilters(t *testing.T) {
	ts := newTestServer(t)
	ts.billing.bill = testBill()

	resp := ts.request(t, http.MethodGet, "/api/v1/bills?phone=9876543210&from=2026-03-01&to=2026-03-31&page_size=5", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	got := ts.billing.lastListReq
	if got.Phone != "9876543210" || got.From != "2026-03-01" || got.To != "2026-03-31" {
		t.Fatalf("filters not forwarded: %+v", got)
	}
	if got.Page.PageSize != 5 {
		t.Fatalf("page size not forwarded: %+v", got.Page)
	}
}

func TestBillReceiptPDFStreamsDocument(t *testing.T) {
	ts := newTestServer(t)
	ts.billing.bill = testBill()
	ts.srv.pdfProvider = stubPDFProvider{payload: []byte("%PDF-1.7 fake")}

	resp := ts.request(t, http.MethodGet, "/api/v1/bills/9001/pdf", "", true)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); cd == "" {
		t.Fatal("expected Content-Disposition header")
	}
	if resp.Body.String() != "%PDF-1.7 fake" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestRevenueSummaryForwardsRange(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/admin/reports/revenue?from=2026-03-01&to=2026-03-31", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data billingdomain.RevenueSummaryResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.BillCount != 1 {
		t.Fatalf("unexpected summary: %+v", payload.Data)
	}
}
