package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

type productFixture struct {
	ID   string
	Name string
}

type billPayload struct {
	Data struct {
		ID            string  `json:"id"`
		BillNumber    string  `json:"bill_number"`
		Subtotal      float64 `json:"subtotal"`
		TotalDiscount float64 `json:"total_discount"`
		Total         float64 `json:"total"`
		HasCakeItems  bool    `json:"has_cake_items"`
		ArchiveStatus string  `json:"archive_status"`
		Loyalty       *struct {
			Applied         bool    `json:"applied"`
			PurchaseNumber  int64   `json:"purchase_number"`
			DiscountPercent int     `json:"discount_percent"`
			Discount        float64 `json:"discount"`
			Message         string  `json:"message"`
		} `json:"loyalty"`
		Items []struct {
			DisplayName  string  `json:"display_name"`
			IsCake       bool    `json:"is_cake"`
			Quantity     int     `json:"quantity"`
			LineSubtotal float64 `json:"line_subtotal"`
			Discount     float64 `json:"discount"`
			Total        float64 `json:"total"`
		} `json:"items"`
	} `json:"data"`
}

func TestE2E_LoyaltyMilestoneCheckout(t *testing.T) {
	resetDatabase(t, env.db)

	client := loginAdmin(t)
	cake := createProduct(t, client, "Chocolate Cake", "cakes", 500, false)

	phone := "+91 98765 00001"
	datePart := time.Now().UTC().Format("20060102")

	for i := 1; i <= 5; i++ {
		bill := checkout(t, client, map[string]any{
			"customer_name":  "Asha",
			"customer_phone": phone,
			"items": []map[string]any{
				{"product_id": cake.ID, "quantity": 1},
			},
		})

		wantNumber := fmt.Sprintf("BILL-%s-%04d", datePart, i)
		if bill.Data.BillNumber != wantNumber {
			t.Fatalf("bill %d: expected number %s, got %s", i, wantNumber, bill.Data.BillNumber)
		}
		if !bill.Data.HasCakeItems {
			t.Fatalf("bill %d: expected has_cake_items", i)
		}
		if bill.Data.Loyalty == nil {
			t.Fatalf("bill %d: expected loyalty snapshot", i)
		}
		if bill.Data.Loyalty.PurchaseNumber != int64(i) {
			t.Fatalf("bill %d: expected purchase number %d, got %d", i, i, bill.Data.Loyalty.PurchaseNumber)
		}

		if i < 5 {
			if bill.Data.Loyalty.Applied {
				t.Fatalf("bill %d: reward applied before the milestone", i)
			}
			if bill.Data.Total != 500 {
				t.Fatalf("bill %d: expected total 500, got %v", i, bill.Data.Total)
			}
			if i == 4 {
				// On the cusp a what-if lookup previews the milestone
				// discount without advancing the counter.
				cusp := loyaltyStatus(t, client, phone, "subtotal=500")
				if !cusp.WillEarnReward {
					t.Fatal("expected milestone on the next purchase")
				}
				if cusp.PotentialDiscount == nil || *cusp.PotentialDiscount != 50 {
					t.Fatalf("expected preview 50, got %v", cusp.PotentialDiscount)
				}
			}
			continue
		}

		// Fifth qualifying purchase: 10% off the cake subtotal.
		if !bill.Data.Loyalty.Applied {
			t.Fatalf("expected reward on the 5th purchase: %+v", bill.Data.Loyalty)
		}
		if bill.Data.Loyalty.Discount != 50 {
			t.Fatalf("expected discount 50, got %v", bill.Data.Loyalty.Discount)
		}
		if bill.Data.Total != 450 {
			t.Fatalf("expected total 450, got %v", bill.Data.Total)
		}
	}

	// Status after five purchases: next reward five purchases away.
	status := loyaltyStatus(t, client, phone)
	if status.PurchaseCount != 5 {
		t.Fatalf("expected purchase count 5, got %d", status.PurchaseCount)
	}
	if status.WillEarnReward {
		t.Fatalf("purchase 6 should not earn a reward")
	}

	history := loyaltyHistory(t, client, phone)
	if len(history) != 5 {
		t.Fatalf("expected 5 history entries, got %d", len(history))
	}
	if !history[4].RewardApplied || history[4].PurchaseNumber != 5 {
		t.Fatalf("expected reward on entry 5: %+v", history[4])
	}
}

func TestE2E_NonCakeCheckoutSkipsLoyalty(t *testing.T) {
	resetDatabase(t, env.db)

	client := loginAdmin(t)
	jar := createProduct(t, client, "Cookie Jar", "snacks", 200, false)

	bill := checkout(t, client, map[string]any{
		"customer_name":  "Ravi",
		"customer_phone": "+91 98765 00002",
		"items": []map[string]any{
			{"product_id": jar.ID, "quantity": 2},
		},
	})

	if bill.Data.HasCakeItems {
		t.Fatalf("snack-only bill flagged has_cake_items")
	}
	if bill.Data.Loyalty != nil {
		t.Fatalf("expected no loyalty snapshot, got %+v", bill.Data.Loyalty)
	}
	if bill.Data.Total != 400 {
		t.Fatalf("expected total 400, got %v", bill.Data.Total)
	}

	// Non-cake bills never advance the counter.
	status := loyaltyStatus(t, client, "+91 98765 00002")
	if status.PurchaseCount != 0 {
		t.Fatalf("expected zero qualifying purchases, got %d", status.PurchaseCount)
	}
}

func TestE2E_WeightedAndDiscountedLines(t *testing.T) {
	resetDatabase(t, env.db)

	client := loginAdmin(t)
	weighed := createProduct(t, client, "Black Forest", "cakes", 800, true)
	pastry := createProduct(t, client, "Almond Croissant", "pastries", 300, false)

	bill := checkout(t, client, map[string]any{
		"customer_name":  "Meera",
		"customer_phone": "+91 98765 00003",
		"items": []map[string]any{
			{"product_id": weighed.ID, "quantity": 1, "weight": 1.5},
			{"product_id": pastry.ID, "quantity": 1, "discount": map[string]any{"kind": "percentage", "value": 20}},
		},
	})

	if len(bill.Data.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(bill.Data.Items))
	}
	cakeLine := bill.Data.Items[0]
	if cakeLine.LineSubtotal != 1200 {
		t.Fatalf("expected weighted line 1200, got %v", cakeLine.LineSubtotal)
	}
	if !strings.Contains(cakeLine.DisplayName, "(1.5kg)") {
		t.Fatalf("expected weight suffix in display name, got %q", cakeLine.DisplayName)
	}
	pastryLine := bill.Data.Items[1]
	if pastryLine.Discount != 60 || pastryLine.Total != 240 {
		t.Fatalf("expected 20%% off 300 => 60/240, got %v/%v", pastryLine.Discount, pastryLine.Total)
	}
	if bill.Data.Total != 1440 {
		t.Fatalf("expected total 1440, got %v", bill.Data.Total)
	}

	// A weighed product without a weight is rejected outright.
	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/api/v1/bills", map[string]any{
		"customer_name":  "Meera",
		"customer_phone": "+91 98765 00003",
		"items": []map[string]any{
			{"product_id": weighed.ID, "quantity": 1},
		},
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing weight, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_StaleCartAbortsWholeCheckout(t *testing.T) {
	resetDatabase(t, env.db)

	client := loginAdmin(t)
	cake := createProduct(t, client, "Red Velvet", "cakes", 650, false)

	before := countRows(t, env.db, "bills", "1 = 1")

	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/api/v1/bills", map[string]any{
		"customer_name":  "Kiran",
		"customer_phone": "+91 98765 00004",
		"items": []map[string]any{
			{"product_id": cake.ID, "quantity": 1},
			{"product_id": "999999999999999999", "quantity": 1},
		},
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for vanished product, got %d: %s", resp.StatusCode, string(body))
	}

	// No partial bill may survive the abort.
	if after := countRows(t, env.db, "bills", "1 = 1"); after != before {
		t.Fatalf("expected no bill persisted, got %d new", after-before)
	}
	if items := countRows(t, env.db, "bill_items", "1 = 1"); items != 0 {
		t.Fatalf("expected no bill items persisted, got %d", items)
	}
}

func TestE2E_RevenueReport(t *testing.T) {
	resetDatabase(t, env.db)

	client := loginAdmin(t)
	cake := createProduct(t, client, "Chocolate Cake", "cakes", 500, false)
	jar := createProduct(t, client, "Cookie Jar", "snacks", 200, false)

	checkout(t, client, map[string]any{
		"customer_name":  "Asha",
		"customer_phone": "+91 98765 00005",
		"items":          []map[string]any{{"product_id": cake.ID, "quantity": 1}},
	})
	checkout(t, client, map[string]any{
		"customer_name":  "Ravi",
		"customer_phone": "+91 98765 00006",
		"items":          []map[string]any{{"product_id": jar.ID, "quantity": 2}},
	})

	resp, body := doJSON(t, client, http.MethodGet, env.baseURL+"/admin/reports/revenue", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("revenue report failed: %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data struct {
			BillCount      int64   `json:"bill_count"`
			Gross          float64 `json:"gross"`
			Net            float64 `json:"net"`
			CakeRevenue    float64 `json:"cake_revenue"`
			NonCakeRevenue float64 `json:"non_cake_revenue"`
			TopProducts    []struct {
				Name     string `json:"name"`
				Quantity int64  `json:"quantity"`
			} `json:"top_products"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode revenue report: %v", err)
	}

	if payload.Data.BillCount != 2 {
		t.Fatalf("expected 2 bills, got %d", payload.Data.BillCount)
	}
	if payload.Data.Gross != 900 || payload.Data.Net != 900 {
		t.Fatalf("expected gross/net 900, got %v/%v", payload.Data.Gross, payload.Data.Net)
	}
	if payload.Data.CakeRevenue != 500 || payload.Data.NonCakeRevenue != 400 {
		t.Fatalf("expected cake 500 / non-cake 400, got %v/%v", payload.Data.CakeRevenue, payload.Data.NonCakeRevenue)
	}
	if len(payload.Data.TopProducts) == 0 || payload.Data.TopProducts[0].Quantity != 2 {
		t.Fatalf("expected cookie jar on top by quantity: %+v", payload.Data.TopProducts)
	}
}

func TestE2E_ArchiveSweepBackfillsReceipts(t *testing.T) {
	resetDatabase(t, env.db)

	client := loginAdmin(t)
	cake := createProduct(t, client, "Pineapple Cake", "cakes", 450, false)

	bill := checkout(t, client, map[string]any{
		"customer_name":  "Divya",
		"customer_phone": "+91 98765 00007",
		"items":          []map[string]any{{"product_id": cake.ID, "quantity": 1}},
	})

	// The post-commit worker usually archives within moments; the sweep
	// covers whatever it missed.
	deadline := time.Now().Add(3 * time.Second)
	for archiveStatus(t, client, bill.Data.ID).ArchiveStatus == "pending" && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if err := env.scheduler.ArchiveSweepJob(context.Background()); err != nil {
		t.Fatalf("archive sweep: %v", err)
	}

	archived := archiveStatus(t, client, bill.Data.ID)
	if archived.ArchiveStatus != "archived" {
		t.Fatalf("expected archived, got %s", archived.ArchiveStatus)
	}
	if archived.ArchiveURL == nil || !strings.HasPrefix(*archived.ArchiveURL, "file://") {
		t.Fatalf("expected file:// archive url, got %v", archived.ArchiveURL)
	}
}

type loyaltyStatusPayload struct {
	PurchaseCount        int64    `json:"purchase_count"`
	NextPurchaseNumber   int64    `json:"next_purchase_number"`
	WillEarnReward       bool     `json:"will_earn_reward"`
	PurchasesUntilReward int      `json:"purchases_until_reward"`
	Message              string   `json:"message"`
	PotentialDiscount    *float64 `json:"potential_discount"`
}

type loyaltyHistoryEntry struct {
	BillNumber     string  `json:"bill_number"`
	PurchaseNumber int     `json:"purchase_number"`
	RewardApplied  bool    `json:"reward_applied"`
	DiscountAmount float64 `json:"discount_amount"`
}

type archiveStatusPayload struct {
	BillNumber    string  `json:"bill_number"`
	ArchiveStatus string  `json:"archive_status"`
	ArchiveURL    *string `json:"archive_url"`
}

func createProduct(t *testing.T, client *http.Client, name, categorySlug string, price float64, byWeight bool) productFixture {
	t.Helper()

	resp, body := doJSON(t, client, http.MethodGet, env.baseURL+"/api/v1/categories", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list categories failed: %d: %s", resp.StatusCode, string(body))
	}
	var categories struct {
		Data []struct {
			ID   string `json:"id"`
			Slug string `json:"slug"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &categories); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	categoryID := ""
	for _, cat := range categories.Data {
		if cat.Slug == categorySlug {
			categoryID = cat.ID
			break
		}
	}
	if categoryID == "" {
		t.Fatalf("seed category %q missing", categorySlug)
	}

	req := map[string]any{
		"category_id":    categoryID,
		"name":           name,
		"price":          price,
		"sold_by_weight": byWeight,
	}
	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/admin/products", req, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product failed: %d: %s", resp.StatusCode, string(body))
	}
	var created struct {
		Data struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return productFixture{ID: created.Data.ID, Name: created.Data.Name}
}

func checkout(t *testing.T, client *http.Client, req map[string]any) billPayload {
	t.Helper()

	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/api/v1/bills", req, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout failed: %d: %s", resp.StatusCode, string(body))
	}
	var payload billPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode bill: %v", err)
	}
	return payload
}

func loyaltyStatus(t *testing.T, client *http.Client, phone string, extraQuery ...string) loyaltyStatusPayload {
	t.Helper()

	reqURL := env.baseURL + "/api/v1/loyalty/status?phone=" + url.QueryEscape(phone)
	for _, q := range extraQuery {
		reqURL += "&" + q
	}
	resp, body := doJSON(t, client, http.MethodGet, reqURL, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("loyalty status failed: %d: %s", resp.StatusCode, string(body))
	}
	var payload struct {
		Data loyaltyStatusPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode loyalty status: %v", err)
	}
	return payload.Data
}

func loyaltyHistory(t *testing.T, client *http.Client, phone string) []loyaltyHistoryEntry {
	t.Helper()

	reqURL := env.baseURL + "/api/v1/loyalty/history?phone=" + url.QueryEscape(phone)
	resp, body := doJSON(t, client, http.MethodGet, reqURL, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("loyalty history failed: %d: %s", resp.StatusCode, string(body))
	}
	var payload struct {
		Data []loyaltyHistoryEntry `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode loyalty history: %v", err)
	}
	return payload.Data
}

func archiveStatus(t *testing.T, client *http.Client, billID string) archiveStatusPayload {
	t.Helper()

	resp, body := doJSON(t, client, http.MethodGet, env.baseURL+"/admin/bills/"+billID+"/archive", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive status failed: %d: %s", resp.StatusCode, string(body))
	}
	var payload struct {
		Data archiveStatusPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode archive status: %v", err)
	}
	return payload.Data
}
