package service

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/state"
	"context"
	"strings"
)

// FinanceSummary totals the ledger, optionally restricted to one month.
type FinanceSummary struct {
	Month      string             `json:"month,omitempty"` // YYYY-MM
	Income     float64            `json:"income"`
	Expense    float64            `json:"expense"`
	Balance    float64            `json:"balance"`
	Entries    int                `json:"entries"`
	ByCategory map[string]float64 `json:"byCategory"` // income positive, expense negative
}

type FinanceService interface {
	Summary(ctx context.Context, month string) FinanceSummary
}

type financeService struct {
	finance *state.Collection[domain.FinanceEntry]
}

func NewFinanceService(store *state.Store) FinanceService {
	return &financeService{finance: store.Finance()}
}

func (s *financeService) Summary(ctx context.Context, month string) FinanceSummary {
	return summarize(s.finance.All(), month)
}

func summarize(entries []domain.FinanceEntry, month string) FinanceSummary {
	sum := FinanceSummary{Month: month, ByCategory: map[string]float64{}}
	for _, e := range entries {
		if month != "" && !strings.HasPrefix(e.Date, month) {
			continue
		}
		category := e.Category
		if category == "" {
			category = "other"
		}
		switch e.Type {
		case domain.EntryIncome:
			sum.Income += e.Amount
			sum.ByCategory[category] += e.Amount
		case domain.EntryExpense:
			sum.Expense += e.Amount
			sum.ByCategory[category] -= e.Amount
		}
		sum.Entries++
	}
	sum.Balance = sum.Income - sum.Expense
	return sum
}
