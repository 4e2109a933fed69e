package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/domain/models"
	"github.com/mdiouf/bookkeep/internal/service/analytics"
	"github.com/mdiouf/bookkeep/internal/service/store"
)

// LedgerHandler exposes sales, expenses and the derived analytics.
type LedgerHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(s *store.Store, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{store: s, logger: logger}
}

type recordSaleRequest struct {
	BookID      int64   `json:"bookId"`
	Qty         int     `json:"qty"`
	TotalAmount float64 `json:"totalAmount"`
	CostPrice   float64 `json:"costPrice"`
	BookName    string  `json:"bookName"`
}

// RecordSale appends a sale. When the caller omits the book name or cost
// price, both are snapshot from the referenced book before recording.
func (h *LedgerHandler) RecordSale(c *gin.Context) {
	var req recordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.BookName == "" || req.CostPrice == 0 {
		if book, ok, err := h.store.GetBook(req.BookID); err == nil && ok {
			if req.BookName == "" {
				req.BookName = book.Name
			}
			if req.CostPrice == 0 {
				req.CostPrice = book.CostPrice
			}
		}
	}

	sale, err := h.store.RecordSale(req.BookID, req.Qty, req.TotalAmount, req.CostPrice, req.BookName)
	if err != nil {
		h.logger.Error("failed recording sale", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record sale"})
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// ListSales returns sales inside the requested window, newest first.
// ?period=today|week|month selects an open-ended window; ?date=YYYY-MM-DD a
// single day. Default is today.
func (h *LedgerHandler) ListSales(c *gin.Context) {
	sales, err := h.windowedSales(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sales)
}

// GroupedSales returns the sales of the window grouped per book name.
// ?sort=revenue|profit|qty selects the ordering.
func (h *LedgerHandler) GroupedSales(c *gin.Context) {
	sales, err := h.windowedSales(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode := analytics.SalesSortMode(c.DefaultQuery("sort", string(analytics.SortByRevenue)))
	c.JSON(http.StatusOK, analytics.GroupSales(sales, mode))
}

// CreateExpense records a new expense.
func (h *LedgerHandler) CreateExpense(c *gin.Context) {
	var input models.Expense
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	expense, err := h.store.RecordExpense(input)
	if err != nil {
		h.logger.Error("failed recording expense", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record expense"})
		return
	}
	c.JSON(http.StatusCreated, expense)
}

// UpdateExpense replaces the expense with the id in the URL; unknown ids are
// a silent no-op.
func (h *LedgerHandler) UpdateExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	var input models.Expense
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	input.ID = id

	if err := h.store.UpdateExpense(input); err != nil {
		h.logger.Error("failed updating expense", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update expense"})
		return
	}
	c.JSON(http.StatusOK, input)
}

// DeleteExpense removes by id; unknown ids are a silent no-op.
func (h *LedgerHandler) DeleteExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	if err := h.store.DeleteExpense(id); err != nil {
		h.logger.Error("failed deleting expense", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete expense"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListExpenses mirrors ListSales' window selection for expenses.
func (h *LedgerHandler) ListExpenses(c *gin.Context) {
	expenses, err := h.windowedExpenses(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// GroupedExpenses returns the window's expenses grouped per category, sorted
// by total spent.
func (h *LedgerHandler) GroupedExpenses(c *gin.Context) {
	expenses, err := h.windowedExpenses(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analytics.GroupExpenses(expenses))
}

// ExpenseTypes returns the suggested expense categories. Custom values stay
// legal everywhere; this list only seeds the UI picker.
func (h *LedgerHandler) ExpenseTypes(c *gin.Context) {
	c.JSON(http.StatusOK, models.SuggestedExpenseTypes)
}

// Dashboard returns the aggregate stats for the home screen.
func (h *LedgerHandler) Dashboard(c *gin.Context) {
	stats, err := h.store.GetDashboardStats()
	if err != nil {
		h.logger.Error("failed computing dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute dashboard"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *LedgerHandler) windowedSales(c *gin.Context) ([]models.Sale, error) {
	day, from, err := resolveWindow(c)
	if err != nil {
		return nil, err
	}
	if !day.IsZero() {
		return h.store.SalesOn(day)
	}
	return h.store.SalesSince(from)
}

func (h *LedgerHandler) windowedExpenses(c *gin.Context) ([]models.Expense, error) {
	day, from, err := resolveWindow(c)
	if err != nil {
		return nil, err
	}
	if !day.IsZero() {
		return h.store.ExpensesOn(day)
	}
	return h.store.ExpensesSince(from)
}

// resolveWindow maps the query parameters onto the two query shapes: a
// single-day window (?date=..., or the default of today) or an open-ended
// window starting at the period boundary (?period=week|month).
func resolveWindow(c *gin.Context) (day time.Time, from time.Time, err error) {
	if dateStr := c.Query("date"); dateStr != "" {
		day, err = time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return day, time.Time{}, nil
	}

	period := analytics.Period(c.DefaultQuery("period", string(analytics.PeriodToday)))
	if period == analytics.PeriodToday {
		return time.Now(), time.Time{}, nil
	}
	from, err = analytics.WindowStart(period, time.Now(), time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return time.Time{}, from, nil
}
