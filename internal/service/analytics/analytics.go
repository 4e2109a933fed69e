// Package analytics holds the pure read-side computations: grouping of sales
// and expenses, and the reporting period windows. Nothing here touches the
// store or caches results; every call is a function of its inputs.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mdiouf/bookkeep/internal/domain/models"
)

// SalesSortMode selects the ordering of grouped sales.
type SalesSortMode string

const (
	SortByRevenue SalesSortMode = "revenue"
	SortByProfit  SalesSortMode = "profit"
	SortByQty     SalesSortMode = "qty"
)

// Period names a reporting window anchored to the current time.
type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

// GroupSales folds sales into one group per book name, keeping the member
// transactions. Sort order follows mode; unknown modes fall back to revenue.
func GroupSales(sales []models.Sale, mode SalesSortMode) []models.SalesGroup {
	index := make(map[string]*models.SalesGroup)
	order := make([]string, 0)

	for _, sale := range sales {
		group, ok := index[sale.BookName]
		if !ok {
			group = &models.SalesGroup{BookName: sale.BookName}
			index[sale.BookName] = group
			order = append(order, sale.BookName)
		}
		group.TotalQty += sale.Qty
		group.TotalRevenue += sale.TotalAmount
		group.TotalProfit += sale.Profit
		group.Transactions = append(group.Transactions, sale)
	}

	groups := make([]models.SalesGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, *index[name])
	}

	sort.SliceStable(groups, func(i, j int) bool {
		switch mode {
		case SortByProfit:
			return groups[i].TotalProfit > groups[j].TotalProfit
		case SortByQty:
			return groups[i].TotalQty > groups[j].TotalQty
		default:
			return groups[i].TotalRevenue > groups[j].TotalRevenue
		}
	})
	return groups
}

// GroupExpenses folds expenses into one group per category, sorted by total
// spent, highest first.
func GroupExpenses(expenses []models.Expense) []models.ExpenseGroup {
	index := make(map[string]*models.ExpenseGroup)
	order := make([]string, 0)

	for _, expense := range expenses {
		group, ok := index[expense.Type]
		if !ok {
			group = &models.ExpenseGroup{Type: expense.Type}
			index[expense.Type] = group
			order = append(order, expense.Type)
		}
		group.Total += expense.Amount
		group.Count++
	}

	groups := make([]models.ExpenseGroup, 0, len(order))
	for _, t := range order {
		groups = append(groups, *index[t])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total > groups[j].Total
	})
	return groups
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the most recent Monday at 00:00 relative to t.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday == 0
	return day.AddDate(0, 0, -offset)
}

// StartOfMonth returns the first of t's month at 00:00.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// WindowStart resolves a period name against now. Custom periods are a
// single-day window anchored at the chosen date; callers pair them with a
// day-bounded query rather than an open-ended one.
func WindowStart(period Period, now time.Time, custom time.Time) (time.Time, error) {
	switch Period(strings.ToLower(string(period))) {
	case PeriodToday:
		return StartOfDay(now), nil
	case PeriodWeek:
		return StartOfWeek(now), nil
	case PeriodMonth:
		return StartOfMonth(now), nil
	case PeriodCustom:
		if custom.IsZero() {
			return time.Time{}, fmt.Errorf("custom period requires a date")
		}
		return StartOfDay(custom), nil
	default:
		return time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}

// InDayWindow reports whether ts falls inside the 24h window starting at the
// beginning of day's date.
func InDayWindow(ts, day time.Time) bool {
	start := StartOfDay(day)
	end := start.Add(24 * time.Hour)
	return !ts.Before(start) && ts.Before(end)
}
