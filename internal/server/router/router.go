package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(inventory *handlers.InventoryHandler, ledger *handlers.LedgerHandler, bkp *handlers.BackupHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/books", inventory.ListBooks)
		api.POST("/books", inventory.CreateBook)
		api.PUT("/books/:id", inventory.UpdateBook)
		api.DELETE("/books/:id", inventory.DeleteBook)
		api.POST("/books/:id/stock", inventory.AdjustStock)
		api.GET("/books/low-stock", inventory.LowStock)
		api.GET("/books/stock-value", inventory.StockValue)

		api.POST("/sales", ledger.RecordSale)
		api.GET("/sales", ledger.ListSales)
		api.GET("/sales/grouped", ledger.GroupedSales)

		api.POST("/expenses", ledger.CreateExpense)
		api.GET("/expenses", ledger.ListExpenses)
		api.PUT("/expenses/:id", ledger.UpdateExpense)
		api.DELETE("/expenses/:id", ledger.DeleteExpense)
		api.GET("/expenses/grouped", ledger.GroupedExpenses)
		api.GET("/expenses/types", ledger.ExpenseTypes)

		api.GET("/dashboard", ledger.Dashboard)

		api.GET("/backup/export", bkp.ExportWorkbook)
		api.POST("/backup/import", bkp.ImportWorkbook)
		api.GET("/backup/export.json", bkp.ExportJSON)
		api.POST("/backup/import.json", bkp.ImportJSON)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
