package store

import (
	"sort"
	"time"

	"github.com/mdiouf/bookkeep/internal/domain/models"
	"github.com/mdiouf/bookkeep/internal/service/analytics"
)

// GetDashboardStats aggregates the whole data set. NetProfit is exactly
// GrossProfit - TotalExpenses; ProfitMargin is zero when there are no sales.
func (s *Store) GetDashboardStats() (models.DashboardStats, error) {
	snap, err := s.repo.Snapshot()
	if err != nil {
		return models.DashboardStats{}, err
	}

	var stats models.DashboardStats
	stats.BookCount = len(snap.Books)
	for _, b := range snap.Books {
		stats.TotalStockUnits += b.Stock
		stats.StockValue += b.StockValue()
		if b.IsLowStock() {
			stats.LowStockCount++
		}
	}
	for _, sale := range snap.Sales {
		stats.TotalSales += sale.TotalAmount
		stats.GrossProfit += sale.Profit
	}
	for _, e := range snap.Expenses {
		stats.TotalExpenses += e.Amount
	}
	stats.NetProfit = stats.GrossProfit - stats.TotalExpenses
	stats.TransactionCount = len(snap.Sales)
	if stats.TotalSales > 0 {
		stats.ProfitMargin = stats.NetProfit / stats.TotalSales * 100
	}
	return stats, nil
}

// GetStockValueBreakdown lists books holding stock, annotated with the cost
// value of that stock, most valuable first.
func (s *Store) GetStockValueBreakdown() ([]models.StockValueItem, error) {
	books, err := s.repo.LoadBooks()
	if err != nil {
		return nil, err
	}

	items := make([]models.StockValueItem, 0, len(books))
	for _, b := range books {
		if b.Stock <= 0 {
			continue
		}
		items = append(items, models.StockValueItem{Book: b, TotalValue: b.StockValue()})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TotalValue > items[j].TotalValue
	})
	return items, nil
}

// GetBook fetches one book by id. The second return is false when the id is
// unknown.
func (s *Store) GetBook(id int64) (models.Book, bool, error) {
	books, err := s.repo.LoadBooks()
	if err != nil {
		return models.Book{}, false, err
	}
	for _, b := range books {
		if b.ID == id {
			return b, true, nil
		}
	}
	return models.Book{}, false, nil
}

// GetLowStockBooks returns every book at or below its reorder threshold.
func (s *Store) GetLowStockBooks() ([]models.Book, error) {
	books, err := s.repo.LoadBooks()
	if err != nil {
		return nil, err
	}
	low := make([]models.Book, 0)
	for _, b := range books {
		if b.IsLowStock() {
			low = append(low, b)
		}
	}
	return low, nil
}

// SalesOn returns the sales of a single calendar day, newest first.
func (s *Store) SalesOn(day time.Time) ([]models.Sale, error) {
	sales, err := s.repo.LoadSales()
	if err != nil {
		return nil, err
	}
	matched := make([]models.Sale, 0)
	for _, sale := range sales {
		if analytics.InDayWindow(sale.Date, day) {
			matched = append(matched, sale)
		}
	}
	sortSalesNewestFirst(matched)
	return matched, nil
}

// SalesSince returns every sale dated at or after from, newest first.
func (s *Store) SalesSince(from time.Time) ([]models.Sale, error) {
	sales, err := s.repo.LoadSales()
	if err != nil {
		return nil, err
	}
	matched := make([]models.Sale, 0)
	for _, sale := range sales {
		if !sale.Date.Before(from) {
			matched = append(matched, sale)
		}
	}
	sortSalesNewestFirst(matched)
	return matched, nil
}

// ExpensesOn returns the expenses of a single calendar day, newest first.
func (s *Store) ExpensesOn(day time.Time) ([]models.Expense, error) {
	expenses, err := s.repo.LoadExpenses()
	if err != nil {
		return nil, err
	}
	matched := make([]models.Expense, 0)
	for _, e := range expenses {
		if analytics.InDayWindow(e.Date, day) {
			matched = append(matched, e)
		}
	}
	sortExpensesNewestFirst(matched)
	return matched, nil
}

// ExpensesSince returns every expense dated at or after from, newest first.
func (s *Store) ExpensesSince(from time.Time) ([]models.Expense, error) {
	expenses, err := s.repo.LoadExpenses()
	if err != nil {
		return nil, err
	}
	matched := make([]models.Expense, 0)
	for _, e := range expenses {
		if !e.Date.Before(from) {
			matched = append(matched, e)
		}
	}
	sortExpensesNewestFirst(matched)
	return matched, nil
}

func sortSalesNewestFirst(sales []models.Sale) {
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].Date.After(sales[j].Date)
	})
}

func sortExpensesNewestFirst(expenses []models.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date)
	})
}
