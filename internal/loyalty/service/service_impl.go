// Package service implements the loyalty reward cadence.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/money"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Loyalty *config.LoyaltyConfigHolder
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	loyalty *config.LoyaltyConfigHolder
}

func New(p Params) domain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("loyalty.service"),
		repo:    p.Repo,
		loyalty: p.Loyalty,
	}
}

func (s *service) CheckStatus(ctx context.Context, phone string, prospectiveCakeSubtotalMinor int64) (*domain.Status, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, domain.ErrInvalidPhone
	}

	count, err := s.repo.CountQualifyingBills(ctx, s.db, phone)
	if err != nil {
		return nil, err
	}

	cfg := s.loyalty.Get()
	interval := int64(cfg.RewardInterval)
	next := count + 1
	willEarn := next%interval == 0
	// Inclusive of the milestone purchase: a new customer sees the full
	// interval, not interval-1.
	until := int(interval - count%interval)

	msg := fmt.Sprintf("%d more cake purchases until your next reward.", until)
	if willEarn {
		msg = fmt.Sprintf("Your next cake purchase earns %d%% off cake items!", cfg.DiscountPercent)
	}

	status := &domain.Status{
		Phone:                phone,
		PurchaseCount:        count,
		NextPurchaseNumber:   next,
		WillEarnReward:       willEarn,
		PurchasesUntilReward: until,
		Message:              msg,
	}

	// What-if preview against a prospective cake subtotal; reads only.
	if prospectiveCakeSubtotalMinor > 0 {
		var preview float64
		if willEarn {
			discount := money.Percent(prospectiveCakeSubtotalMinor, float64(cfg.DiscountPercent))
			if discount > prospectiveCakeSubtotalMinor {
				discount = prospectiveCakeSubtotalMinor
			}
			preview = money.ToRupees(discount)
		}
		status.PotentialDiscount = &preview
	}

	return status, nil
}

func (s *service) Evaluate(ctx context.Context, phone string, cakeSubtotalMinor int64) (domain.Decision, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return domain.Decision{}, domain.ErrInvalidPhone
	}

	count, err := s.repo.CountQualifyingBills(ctx, s.db, phone)
	if err != nil {
		return domain.Decision{}, err
	}

	cfg := s.loyalty.Get()
	interval := int64(cfg.RewardInterval)
	purchase := count + 1

	if cakeSubtotalMinor > 0 && purchase%interval == 0 {
		discount := money.Percent(cakeSubtotalMinor, float64(cfg.DiscountPercent))
		if discount > cakeSubtotalMinor {
			discount = cakeSubtotalMinor
		}
		return domain.Decision{
			Applied:         true,
			PurchaseNumber:  purchase,
			DiscountPercent: cfg.DiscountPercent,
			DiscountMinor:   discount,
			Message: fmt.Sprintf("Loyalty reward! %d%% off cake items on your %s purchase.",
				cfg.DiscountPercent, ordinal(purchase)),
		}, nil
	}

	until := interval - purchase%interval
	noun := "purchases"
	if until == 1 {
		noun = "purchase"
	}
	return domain.Decision{
		Applied:        false,
		PurchaseNumber: purchase,
		Message:        fmt.Sprintf("%d more cake %s until your next reward.", until, noun),
	}, nil
}

func (s *service) History(ctx context.Context, phone string) ([]*domain.HistoryEntry, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, domain.ErrInvalidPhone
	}

	bills, err := s.repo.ListQualifyingBills(ctx, s.db, phone)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.HistoryEntry, 0, len(bills))
	for i, b := range bills {
		var dec domain.Decision
		if len(b.LoyaltyInfo) > 0 {
			if err := json.Unmarshal(b.LoyaltyInfo, &dec); err != nil {
				s.log.Warn("unreadable loyalty snapshot",
					zap.String("bill_number", b.BillNumber),
					zap.Error(err),
				)
			}
		}
		entries = append(entries, &domain.HistoryEntry{
			BillNumber:     b.BillNumber,
			BillDate:       b.BillDate,
			CakeSubtotal:   money.ToRupees(b.CakeSubtotalMinor),
			PurchaseNumber: i + 1,
			RewardApplied:  dec.Applied,
			DiscountAmount: money.ToRupees(dec.DiscountMinor),
		})
	}
	return entries, nil
}

func ordinal(n int64) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
