package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/domain/models"
	"github.com/mdiouf/bookkeep/internal/service/store"
)

// InventoryHandler exposes the book collection over HTTP.
type InventoryHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(s *store.Store, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{store: s, logger: logger}
}

// ListBooks returns all books, or a filtered list when ?q= is present.
func (h *InventoryHandler) ListBooks(c *gin.Context) {
	var (
		books []models.Book
		err   error
	)
	if q := c.Query("q"); q != "" {
		books, err = h.store.SearchBooks(q)
	} else {
		books, err = h.store.ListBooks()
	}
	if err != nil {
		h.logger.Error("failed listing books", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list books"})
		return
	}
	c.JSON(http.StatusOK, books)
}

// CreateBook adds a new book; the store assigns the id and restock entry.
func (h *InventoryHandler) CreateBook(c *gin.Context) {
	var input models.Book
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	book, err := h.store.AddBook(input)
	if err != nil {
		h.logger.Error("failed creating book", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create book"})
		return
	}
	c.JSON(http.StatusCreated, book)
}

// UpdateBook replaces the book with the id in the URL. Unknown ids are a
// silent no-op, mirroring the store contract.
func (h *InventoryHandler) UpdateBook(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	var input models.Book
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	input.ID = id

	if err := h.store.UpdateBook(input); err != nil {
		h.logger.Error("failed updating book", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update book"})
		return
	}
	c.JSON(http.StatusOK, input)
}

// DeleteBook removes the book by id. Unknown ids are a silent no-op.
func (h *InventoryHandler) DeleteBook(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	if err := h.store.DeleteBook(id); err != nil {
		h.logger.Error("failed deleting book", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete book"})
		return
	}
	c.Status(http.StatusNoContent)
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

// AdjustStock applies a stock delta (restock or correction).
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	book, err := h.store.AdjustStock(id, req.Delta)
	if err != nil {
		h.logger.Error("failed adjusting stock", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to adjust stock"})
		return
	}
	c.JSON(http.StatusOK, book)
}

// LowStock lists every book at or below its reorder threshold.
func (h *InventoryHandler) LowStock(c *gin.Context) {
	books, err := h.store.GetLowStockBooks()
	if err != nil {
		h.logger.Error("failed computing low stock", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute low stock"})
		return
	}
	c.JSON(http.StatusOK, books)
}

// StockValue returns the per-book stock valuation breakdown.
func (h *InventoryHandler) StockValue(c *gin.Context) {
	items, err := h.store.GetStockValueBreakdown()
	if err != nil {
		h.logger.Error("failed computing stock value", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stock value"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
