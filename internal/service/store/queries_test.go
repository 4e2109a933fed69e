package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdiouf/bookkeep/internal/domain/models"
)

func TestDashboardStatsIdentities(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddBook(models.Book{Name: "A", Stock: 10, CostPrice: 5, SellPrice: 10, TargetStock: 3})
	require.NoError(t, err)
	_, err = s.AddBook(models.Book{Name: "B", Stock: 2, CostPrice: 3, SellPrice: 7, TargetStock: 5})
	require.NoError(t, err)
	_, err = s.RecordSale(1, 2, 20, 5, "A")
	require.NoError(t, err)
	_, err = s.RecordSale(2, 1, 7, 3, "B")
	require.NoError(t, err)
	_, err = s.RecordExpense(models.Expense{Type: "Rent", Amount: 6})
	require.NoError(t, err)

	stats, err := s.GetDashboardStats()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.BookCount)
	assert.Equal(t, 9, stats.TotalStockUnits) // 8 + 1 after the sales
	assert.Equal(t, 8*5.0+1*3.0, stats.StockValue)
	assert.Equal(t, 27.0, stats.TotalSales)
	assert.Equal(t, 14.0, stats.GrossProfit)
	assert.Equal(t, 6.0, stats.TotalExpenses)
	assert.Equal(t, stats.GrossProfit-stats.TotalExpenses, stats.NetProfit)
	assert.Equal(t, 2, stats.TransactionCount)
	assert.Equal(t, 1, stats.LowStockCount) // B is at 1 <= 5
	assert.InDelta(t, 8.0/27.0*100, stats.ProfitMargin, 1e-9)
}

func TestDashboardProfitMarginZeroWithoutSales(t *testing.T) {
	s := newTestStore(t)
	_, err := s.RecordExpense(models.Expense{Type: "Rent", Amount: 100})
	require.NoError(t, err)

	stats, err := s.GetDashboardStats()
	require.NoError(t, err)
	assert.Zero(t, stats.ProfitMargin)
	assert.Equal(t, -100.0, stats.NetProfit)
}

func TestLowStockBoundaryIsInclusive(t *testing.T) {
	s := newTestStore(t)
	for _, b := range []models.Book{
		{Name: "empty", Stock: 0, TargetStock: 5},
		{Name: "at-threshold", Stock: 5, TargetStock: 5},
		{Name: "above", Stock: 6, TargetStock: 5},
	} {
		_, err := s.AddBook(b)
		require.NoError(t, err)
	}

	low, err := s.GetLowStockBooks()
	require.NoError(t, err)
	names := make([]string, 0, len(low))
	for _, b := range low {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"empty", "at-threshold"}, names)
}

func TestStockValueBreakdownSortsByValueAndSkipsEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddBook(models.Book{Name: "cheap", Stock: 10, CostPrice: 1})
	require.NoError(t, err)
	_, err = s.AddBook(models.Book{Name: "dear", Stock: 3, CostPrice: 20})
	require.NoError(t, err)
	_, err = s.AddBook(models.Book{Name: "out", Stock: 0, CostPrice: 50})
	require.NoError(t, err)

	items, err := s.GetStockValueBreakdown()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "dear", items[0].Name)
	assert.Equal(t, 60.0, items[0].TotalValue)
	assert.Equal(t, "cheap", items[1].Name)
	assert.Equal(t, 10.0, items[1].TotalValue)
}

func TestSalesWindowQueries(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	s.now = func() time.Time { return day1 }
	_, err := s.RecordSale(1, 1, 10, 5, "first")
	require.NoError(t, err)

	s.now = func() time.Time { return day2 }
	_, err = s.RecordSale(1, 1, 12, 5, "second")
	require.NoError(t, err)

	onDay1, err := s.SalesOn(day1)
	require.NoError(t, err)
	require.Len(t, onDay1, 1)
	assert.Equal(t, "first", onDay1[0].BookName)

	since, err := s.SalesSince(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "second", since[0].BookName, "newest first")

	sinceDay2, err := s.SalesSince(day2)
	require.NoError(t, err)
	require.Len(t, sinceDay2, 1)
}

func TestExpenseWindowQueries(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 3)

	_, err := s.RecordExpense(models.Expense{Type: "Fuel", Amount: 5, Date: day1})
	require.NoError(t, err)
	_, err = s.RecordExpense(models.Expense{Type: "Rent", Amount: 50, Date: day2})
	require.NoError(t, err)

	onDay1, err := s.ExpensesOn(day1)
	require.NoError(t, err)
	require.Len(t, onDay1, 1)
	assert.Equal(t, "Fuel", onDay1[0].Type)

	since, err := s.ExpensesSince(day1)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "Rent", since[0].Type, "newest first")
}
