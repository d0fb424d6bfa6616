package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	archivedomain "github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	authdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/auth/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/auth/session"
	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	catalogdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	loyaltydomain "github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/providers/pdf"
)

const testSessionToken = "test-session-token"

type fakeAuthService struct {
	user            *authdomain.User
	loginErr        error
	authenticateErr error
	changePassCalls int
	lastNewPassword string
	createUserCalls int
	lastCreateUser  authdomain.CreateUserRequest
	logoutCalls     int
}

func newFakeAuthService() *fakeAuthService {
	hash := "$argon2id$fake"
	return &fakeAuthService{
		user: &authdomain.User{
			ID:           snowflake.ID(42),
			Email:        "admin@cakeraft.test",
			DisplayName:  "Admin",
			Role:         authdomain.RoleAdmin,
			PasswordHash: &hash,
		},
	}
}

func (f *fakeAuthService) CreateUser(_ context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	f.createUserCalls++
	f.lastCreateUser = req
	return &authdomain.User{
		ID:          snowflake.ID(77),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &authdomain.LoginResult{
		User:      f.user,
		RawToken:  testSessionToken,
		SessionID: snowflake.ID(300),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) Logout(_ context.Context, _ string) error {
	f.logoutCalls++
	return nil
}

func (f *fakeAuthService) Authenticate(_ context.Context, rawToken string) (*authdomain.Session, error) {
	if f.authenticateErr != nil {
		return nil, f.authenticateErr
	}
	if rawToken != testSessionToken {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{
		ID:     snowflake.ID(300),
		UserID: f.user.ID,
	}, nil
}

func (f *fakeAuthService) GetUser(_ context.Context, id snowflake.ID) (*authdomain.User, error) {
	if id != f.user.ID {
		return nil, authdomain.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, _ snowflake.ID, newPassword string) error {
	f.changePassCalls++
	f.lastNewPassword = newPassword
	return nil
}

type fakeAuthzService struct {
	denied map[string]error
	calls  []string
}

func (f *fakeAuthzService) Authorize(_ context.Context, _ snowflake.ID, object, action string) error {
	key := object + ":" + action
	f.calls = append(f.calls, key)
	if f.denied != nil {
		if err, ok := f.denied[key]; ok {
			return err
		}
	}
	return nil
}

type fakeBillingService struct {
	bill         *billingdomain.BillResponse
	checkoutErr  error
	lastCheckout billingdomain.CheckoutRequest
	lastListReq  billingdomain.ListBillsRequest
	lastGetID    string
	lastGetNum   string
	summary      *billingdomain.RevenueSummaryResponse
	summaryErr   error
}

func testBill() *billingdomain.BillResponse {
	return &billingdomain.BillResponse{
		ID:            snowflake.ID(9001).String(),
		BillNumber:    "BILL-20260314-0007",
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Subtotal:      500,
		TotalDiscount: 50,
		Total:         450,
		HasCakeItems:  true,
		ArchiveStatus: string(billingdomain.ArchiveStatusPending),
		CreatedAt:     time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Items: []billingdomain.BillItemResponse{
			{
				ProductID:    snowflake.ID(11).String(),
				DisplayName:  "Chocolate Truffle (0.5kg)",
				CategoryName: "Cakes",
				IsCake:       true,
				Quantity:     1,
				UnitPrice:    500,
				LineSubtotal: 500,
				Discount:     50,
				Total:        450,
			},
		},
	}
}

func (f *fakeBillingService) Checkout(_ context.Context, req billingdomain.CheckoutRequest) (*billingdomain.BillResponse, error) {
	f.lastCheckout = req
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	if f.bill == nil {
		f.bill = testBill()
	}
	return f.bill, nil
}

func (f *fakeBillingService) GetBill(_ context.Context, id string) (*billingdomain.BillResponse, error) {
	f.lastGetID = id
	if f.bill == nil {
		return nil, billingdomain.ErrNotFound
	}
	return f.bill, nil
}

func (f *fakeBillingService) GetBillByNumber(_ context.Context, number string) (*billingdomain.BillResponse, error) {
	f.lastGetNum = number
	if f.bill == nil {
		return nil, billingdomain.ErrNotFound
	}
	return f.bill, nil
}

func (f *fakeBillingService) ListBills(_ context.Context, req billingdomain.ListBillsRequest) (*billingdomain.ListBillsResponse, error) {
	f.lastListReq = req
	resp := &billingdomain.ListBillsResponse{}
	if f.bill != nil {
		resp.Bills = []billingdomain.BillResponse{*f.bill}
	}
	return resp, nil
}

func (f *fakeBillingService) RevenueSummary(_ context.Context, _ billingdomain.RevenueSummaryRequest) (*billingdomain.RevenueSummaryResponse, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	if f.summary == nil {
		f.summary = &billingdomain.RevenueSummaryResponse{BillCount: 1, Gross: 500, Net: 450}
	}
	return f.summary, nil
}

type fakeCatalogService struct {
	product     *catalogdomain.ProductResponse
	categories  []catalogdomain.CategoryResponse
	lastListReq catalogdomain.ListProductsRequest
	createCat   catalogdomain.CreateCategoryRequest
	createProd  catalogdomain.CreateProductRequest
	createErr   error
}

func (f *fakeCatalogService) CreateCategory(_ context.Context, req catalogdomain.CreateCategoryRequest) (*catalogdomain.CategoryResponse, error) {
	f.createCat = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &catalogdomain.CategoryResponse{ID: "1", Name: req.Name, Slug: "cakes", Active: true}, nil
}

func (f *fakeCatalogService) ListCategories(_ context.Context, _ catalogdomain.ListCategoriesRequest) ([]catalogdomain.CategoryResponse, error) {
	return f.categories, nil
}

func (f *fakeCatalogService) UpdateCategory(_ context.Context, req catalogdomain.UpdateCategoryRequest) (*catalogdomain.CategoryResponse, error) {
	return &catalogdomain.CategoryResponse{ID: req.ID, Name: "Renamed", Active: true}, nil
}

func (f *fakeCatalogService) DeactivateCategory(_ context.Context, id string) (*catalogdomain.CategoryResponse, error) {
	return &catalogdomain.CategoryResponse{ID: id, Active: false}, nil
}

func (f *fakeCatalogService) CreateProduct(_ context.Context, req catalogdomain.CreateProductRequest) (*catalogdomain.ProductResponse, error) {
	f.createProd = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &catalogdomain.ProductResponse{ID: "11", Name: req.Name, Price: req.Price, Active: true}, nil
}

func (f *fakeCatalogService) GetProduct(_ context.Context, id string) (*catalogdomain.ProductResponse, error) {
	if f.product == nil {
		return nil, catalogdomain.ErrNotFound
	}
	_ = id
	return f.product, nil
}

func (f *fakeCatalogService) ListProducts(_ context.Context, req catalogdomain.ListProductsRequest) (*catalogdomain.ListProductsResponse, error) {
	f.lastListReq = req
	resp := &catalogdomain.ListProductsResponse{}
	if f.product != nil {
		resp.Products = []catalogdomain.ProductResponse{*f.product}
	}
	return resp, nil
}

func (f *fakeCatalogService) UpdateProduct(_ context.Context, req catalogdomain.UpdateProductRequest) (*catalogdomain.ProductResponse, error) {
	return &catalogdomain.ProductResponse{ID: req.ID, Active: true}, nil
}

func (f *fakeCatalogService) DeactivateProduct(_ context.Context, id string) (*catalogdomain.ProductResponse, error) {
	return &catalogdomain.ProductResponse{ID: id, Active: false}, nil
}

func (f *fakeCatalogService) PricedProduct(_ context.Context, _ int64) (*catalogdomain.PricedProduct, error) {
	return nil, catalogdomain.ErrNotFound
}

type fakeLoyaltyService struct {
	status          *loyaltydomain.Status
	statusErr       error
	history         []*loyaltydomain.HistoryEntry
	lastPhone       string
	lastProspective int64
}

func (f *fakeLoyaltyService) CheckStatus(_ context.Context, phone string, prospectiveCakeSubtotalMinor int64) (*loyaltydomain.Status, error) {
	f.lastPhone = phone
	f.lastProspective = prospectiveCakeSubtotalMinor
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if f.status == nil {
		f.status = &loyaltydomain.Status{Phone: phone, PurchaseCount: 4, NextPurchaseNumber: 5, WillEarnReward: true}
	}
	return f.status, nil
}

func (f *fakeLoyaltyService) Evaluate(_ context.Context, _ string, _ int64) (loyaltydomain.Decision, error) {
	return loyaltydomain.Decision{}, nil
}

func (f *fakeLoyaltyService) History(_ context.Context, phone string) ([]*loyaltydomain.HistoryEntry, error) {
	f.lastPhone = phone
	return f.history, nil
}

type fakeArchiveService struct {
	result    *archivedomain.ExportResult
	exportErr error
	lastCut   time.Time
}

func (f *fakeArchiveService) ArchiveBill(_ context.Context, _ int64) error { return nil }

func (f *fakeArchiveService) SweepPending(_ context.Context, _ int) (int, error) { return 0, nil }

func (f *fakeArchiveService) ExportAged(_ context.Context, olderThan time.Time) (*archivedomain.ExportResult, error) {
	f.lastCut = olderThan
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	if f.result == nil {
		f.result = &archivedomain.ExportResult{Path: "data/export/aged.xlsx", BillCount: 3, ItemCount: 7, OlderThan: olderThan}
	}
	return f.result, nil
}

type stubPDFProvider struct {
	payload []byte
	err     error
}

func (s stubPDFProvider) GenerateReceipt(_ context.Context, _ pdf.ReceiptData) (io.Reader, error) {
	if s.err != nil {
		return nil, s.err
	}
	return bytes.NewReader(s.payload), nil
}

type testServer struct {
	srv     *Server
	auth    *fakeAuthService
	authz   *fakeAuthzService
	billing *fakeBillingService
	catalog *fakeCatalogService
	loyalty *fakeLoyaltyService
	archive *fakeArchiveService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		HTTPAddr:         ":0",
		ExportMaxAgeDays: 90,
		Store: config.StoreConfig{
			Name:    "CakeRaft Bakery",
			Address: "12 MG Road",
			Phone:   "080-1234",
		},
	}

	ts := &testServer{
		auth:    newFakeAuthService(),
		authz:   &fakeAuthzService{},
		billing: &fakeBillingService{},
		catalog: &fakeCatalogService{},
		loyalty: &fakeLoyaltyService{},
		archive: &fakeArchiveService{},
	}

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	ts.srv = &Server{
		engine:     engine,
		cfg:        cfg,
		authsvc:    ts.auth,
		sessions:   session.NewManager(cfg),
		authzSvc:   ts.authz,
		catalogSvc: ts.catalog,
		billingSvc: ts.billing,
		loyaltySvc: ts.loyalty,
		archiveSvc: ts.archive,
	}
	ts.srv.registerAuthRoutes()
	ts.srv.registerAPIRoutes()
	ts.srv.registerAdminRoutes()

	return ts
}

func (ts *testServer) request(t *testing.T, method, target, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: ts.srv.sessions.CookieName(), Value: testSessionToken})
	}

	resp := httptest.NewRecorder()
	ts.srv.engine.ServeHTTP(resp, req)
	return resp
}
