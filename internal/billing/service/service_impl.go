// Package service implements checkout and bill reporting.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/billing/numbering"
	catalogdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/clock"
	loyaltydomain "github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/domain"
	obsmetrics "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/metrics"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/storemetrics"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/money"
)

const topProductsLimit = 5

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Catalog  catalogdomain.Service
	Loyalty  loyaltydomain.Service
	Numbers  *numbering.Allocator
	Archiver domain.Archiver     `optional:"true"`
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	catalog  catalogdomain.Service
	loyalty  loyaltydomain.Service
	numbers  *numbering.Allocator
	archiver domain.Archiver
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		catalog:  p.Catalog,
		loyalty:  p.Loyalty,
		numbers:  p.Numbers,
		archiver: p.Archiver,
		metrics:  p.Metrics,
	}
}

func (s *service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.BillResponse, error) {
	resp, err := s.checkout(ctx, req)
	s.metrics.RecordCheckout(ctx, checkoutOutcome(err))
	return resp, err
}

func (s *service) checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.BillResponse, error) {
	name := strings.TrimSpace(req.CustomerName)
	phone := strings.TrimSpace(req.CustomerPhone)

	if err := validateCheckout(name, phone, req.Items); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	var (
		lines         []domain.BillItem
		subtotal      int64
		itemDiscounts int64
		cakeSubtotal  int64
		hasCake       bool
	)
	for _, item := range req.Items {
		priced, err := s.resolveProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		display := priced.Name
		var (
			lineSubtotal int64
			weight       *float64
		)
		if priced.SoldByWeight {
			if item.Weight == nil {
				return nil, domain.ErrWeightRequired
			}
			w := *item.Weight
			lineSubtotal = int64(math.Round(float64(priced.PriceMinor)*w)) * int64(item.Quantity)
			display = fmt.Sprintf("%s (%skg)", priced.Name, formatWeight(w))
			weight = &w
		} else {
			// Weight on a unit-priced product is ignored.
			lineSubtotal = priced.PriceMinor * int64(item.Quantity)
		}

		discountMinor, discountKind := itemDiscount(item.Discount, lineSubtotal)
		lineTotal := lineSubtotal - discountMinor
		isCake := strings.Contains(strings.ToLower(priced.CategoryName), "cake")

		subtotal += lineSubtotal
		itemDiscounts += discountMinor
		if isCake {
			hasCake = true
			// The loyalty basis is the extended price, before any
			// per-item discount.
			cakeSubtotal += lineSubtotal
		}

		lines = append(lines, domain.BillItem{
			ID:                s.genID.Generate().Int64(),
			ProductID:         priced.ID,
			DisplayName:       display,
			CategoryName:      priced.CategoryName,
			IsCake:            isCake,
			Quantity:          item.Quantity,
			Weight:            weight,
			UnitPriceMinor:    priced.PriceMinor,
			LineSubtotalMinor: lineSubtotal,
			DiscountMinor:     discountMinor,
			DiscountKind:      discountKind,
			TotalMinor:        lineTotal,
			CreatedAt:         now,
		})
	}

	var decision loyaltydomain.Decision
	if hasCake {
		var err error
		decision, err = s.loyalty.Evaluate(ctx, phone, cakeSubtotal)
		if err != nil {
			return nil, err
		}
	}

	totalDiscount := itemDiscounts + decision.DiscountMinor
	bill := &domain.Bill{
		ID:                 s.genID.Generate().Int64(),
		CustomerName:       name,
		CustomerPhone:      phone,
		SubtotalMinor:      subtotal,
		TotalDiscountMinor: totalDiscount,
		TotalMinor:         subtotal - totalDiscount,
		HasCakeItems:       hasCake,
		LoyaltyInfo:        datatypes.NewJSONType(decision),
		ArchiveStatus:      domain.ArchiveStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
		Items:              lines,
	}

	if err := s.persistBill(ctx, bill, now); err != nil {
		return nil, err
	}

	if s.archiver != nil {
		s.archiver.Enqueue(bill.ID)
	}
	storemetrics.RecordBill(bill.TotalMinor, bill.TotalDiscountMinor, decision.Applied)

	s.log.Info("checkout complete",
		zap.String("bill_number", bill.BillNumber),
		zap.Int64("total_minor", bill.TotalMinor),
		zap.Bool("loyalty_applied", decision.Applied),
	)

	return s.toBillResponse(bill), nil
}

// persistBill allocates a number and writes the bill with its items in
// one transaction. The allocation commits on its own, so a duplicate
// number reported by the insert re-enters the retry budget with a fresh
// number; once the budget is exhausted on a transient error a
// timestamp-derived number keeps checkout moving.
func (s *service) persistBill(ctx context.Context, bill *domain.Bill, now time.Time) error {
	persist := func(ctx context.Context, number string) error {
		if number == "" {
			next, err := s.numbers.Next(ctx, s.db, now)
			if err != nil {
				return err
			}
			bill.BillNumber = next
		} else {
			bill.BillNumber = number
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.repo.CreateBill(ctx, tx, bill)
		})
	}

	err := retry.Do(ctx, s.numbers.Backoff(), func(ctx context.Context) error {
		if err := persist(ctx, ""); err != nil {
			if numbering.IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if !numbering.IsRetryable(err) {
		s.log.Error("checkout transaction failed", zap.Error(err))
		return domain.ErrTransaction
	}

	if fbErr := persist(ctx, s.numbers.Fallback(s.clock.Now())); fbErr != nil {
		s.log.Error("checkout failed after numbering fallback",
			zap.Error(err),
			zap.NamedError("fallback_error", fbErr),
		)
		return domain.ErrTransaction
	}
	return nil
}

func (s *service) resolveProduct(ctx context.Context, id string) (*catalogdomain.PricedProduct, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrProductNotFound
	}
	priced, err := s.catalog.PricedProduct(ctx, productID.Int64())
	if err != nil {
		if errors.Is(err, catalogdomain.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return priced, nil
}

func checkoutOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrTransaction):
		return "transaction_error"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInvalidCustomer),
		errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, domain.ErrInvalidWeight),
		errors.Is(err, domain.ErrWeightRequired):
		return "validation_error"
	default:
		return "error"
	}
}

func validateCheckout(name, phone string, items []domain.CheckoutItemRequest) error {
	if name == "" || phone == "" {
		return domain.ErrInvalidCustomer
	}
	if len(items) == 0 {
		return domain.ErrNoItems
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return domain.ErrInvalidQuantity
		}
		if item.Weight != nil && *item.Weight <= 0 {
			return domain.ErrInvalidWeight
		}
		if item.Discount == nil {
			continue
		}
		kind := domain.DiscountKind(strings.ToLower(strings.TrimSpace(item.Discount.Kind)))
		if kind != domain.DiscountKindPercentage && kind != domain.DiscountKindFixed {
			return domain.ErrInvalidDiscount
		}
		if item.Discount.Value < 0 {
			return domain.ErrInvalidDiscount
		}
		if kind == domain.DiscountKindPercentage && item.Discount.Value > 100 {
			return domain.ErrInvalidDiscount
		}
	}
	return nil
}

// itemDiscount computes the line discount, clamped so a line can never
// go negative.
func itemDiscount(req *domain.DiscountRequest, lineSubtotal int64) (int64, domain.DiscountKind) {
	if req == nil {
		return 0, ""
	}
	kind := domain.DiscountKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	var minor int64
	switch kind {
	case domain.DiscountKindPercentage:
		minor = money.Percent(lineSubtotal, req.Value)
	case domain.DiscountKindFixed:
		minor = money.ToMinor(req.Value)
	default:
		return 0, ""
	}
	if minor > lineSubtotal {
		minor = lineSubtotal
	}
	return minor, kind
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func (s *service) GetBill(ctx context.Context, id string) (*domain.BillResponse, error) {
	billID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	bill, err := s.repo.FindBillByID(ctx, s.db, billID.Int64())
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	return s.toBillResponse(bill), nil
}

func (s *service) GetBillByNumber(ctx context.Context, number string) (*domain.BillResponse, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domain.ErrNotFound
	}
	bill, err := s.repo.FindBillByNumber(ctx, s.db, number)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	return s.toBillResponse(bill), nil
}

func (s *service) ListBills(ctx context.Context, req domain.ListBillsRequest) (*domain.ListBillsResponse, error) {
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	filter := domain.ListBillsFilter{
		Phone: strings.TrimSpace(req.Phone),
		From:  from,
		To:    to,
	}
	bills, err := s.repo.ListBills(ctx, s.db, filter, req.Page)
	if err != nil {
		return nil, err
	}

	pageInfo, bills := pagination.BuildCursorPageInfo(bills, req.Page.Limit(), func(b *domain.Bill) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        snowflake.ID(b.ID).String(),
			CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	out := make([]domain.BillResponse, 0, len(bills))
	for _, bill := range bills {
		if bill == nil {
			continue
		}
		out = append(out, *s.toBillResponse(bill))
	}

	return &domain.ListBillsResponse{
		Bills:    out,
		PageInfo: *pageInfo,
	}, nil
}

func (s *service) RevenueSummary(ctx context.Context, req domain.RevenueSummaryRequest) (*domain.RevenueSummaryResponse, error) {
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.RevenueTotals(ctx, s.db, from, to)
	if err != nil {
		return nil, err
	}
	itemTotals, err := s.repo.ItemTotals(ctx, s.db, from, to)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, s.db, from, to, topProductsLimit)
	if err != nil {
		return nil, err
	}

	// Loyalty is the only discount not attached to a line; it always
	// comes off cake items, so cake revenue is reported net of it and
	// cake + non-cake reconciles with net.
	loyaltyDiscount := totals.TotalDiscountMinor - itemTotals.ItemDiscountMinor
	if loyaltyDiscount < 0 {
		loyaltyDiscount = 0
	}
	cakeRevenue := itemTotals.CakeRevenueMinor - loyaltyDiscount

	topProducts := make([]domain.TopProductResponse, 0, len(top))
	for _, row := range top {
		topProducts = append(topProducts, domain.TopProductResponse{
			ProductID: snowflake.ID(row.ProductID).String(),
			Name:      row.Name,
			Quantity:  row.Quantity,
			Revenue:   money.ToRupees(row.RevenueMinor),
		})
	}

	return &domain.RevenueSummaryResponse{
		From:            from,
		To:              to,
		BillCount:       totals.BillCount,
		Gross:           money.ToRupees(totals.GrossMinor),
		ItemDiscount:    money.ToRupees(itemTotals.ItemDiscountMinor),
		LoyaltyDiscount: money.ToRupees(loyaltyDiscount),
		Net:             money.ToRupees(totals.NetMinor),
		CakeRevenue:     money.ToRupees(cakeRevenue),
		NonCakeRevenue:  money.ToRupees(itemTotals.NonCakeRevenueMinor),
		TopProducts:     topProducts,
	}, nil
}

// parseRange parses inclusive from/to dates (2006-01-02) into UTC
// bounds, to exclusive.
func parseRange(from, to string) (*time.Time, *time.Time, error) {
	var fromAt, toAt *time.Time

	if v := strings.TrimSpace(from); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return nil, nil, domain.ErrInvalidRange
		}
		fromAt = &t
	}
	if v := strings.TrimSpace(to); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return nil, nil, domain.ErrInvalidRange
		}
		t = t.Add(24 * time.Hour)
		toAt = &t
	}
	if fromAt != nil && toAt != nil && !fromAt.Before(*toAt) {
		return nil, nil, domain.ErrInvalidRange
	}
	return fromAt, toAt, nil
}

func (s *service) toBillResponse(bill *domain.Bill) *domain.BillResponse {
	items := make([]domain.BillItemResponse, 0, len(bill.Items))
	for _, item := range bill.Items {
		items = append(items, domain.BillItemResponse{
			ProductID:    snowflake.ID(item.ProductID).String(),
			DisplayName:  item.DisplayName,
			CategoryName: item.CategoryName,
			IsCake:       item.IsCake,
			Quantity:     item.Quantity,
			Weight:       item.Weight,
			UnitPrice:    money.ToRupees(item.UnitPriceMinor),
			LineSubtotal: money.ToRupees(item.LineSubtotalMinor),
			Discount:     money.ToRupees(item.DiscountMinor),
			Total:        money.ToRupees(item.TotalMinor),
		})
	}

	resp := &domain.BillResponse{
		ID:            snowflake.ID(bill.ID).String(),
		BillNumber:    bill.BillNumber,
		CustomerName:  bill.CustomerName,
		CustomerPhone: bill.CustomerPhone,
		Subtotal:      money.ToRupees(bill.SubtotalMinor),
		TotalDiscount: money.ToRupees(bill.TotalDiscountMinor),
		Total:         money.ToRupees(bill.TotalMinor),
		HasCakeItems:  bill.HasCakeItems,
		ArchiveStatus: string(bill.ArchiveStatus),
		ArchiveURL:    bill.ArchiveURL,
		CreatedAt:     bill.CreatedAt,
		Items:         items,
	}

	decision := bill.LoyaltyInfo.Data()
	if decision.PurchaseNumber > 0 {
		resp.Loyalty = &domain.BillLoyaltyResponse{
			Applied:         decision.Applied,
			PurchaseNumber:  decision.PurchaseNumber,
			DiscountPercent: decision.DiscountPercent,
			Discount:        money.ToRupees(decision.DiscountMinor),
			Message:         decision.Message,
		}
	}
	return resp
}
