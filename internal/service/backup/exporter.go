// Package backup implements the spreadsheet export/import pipeline and the
// lighter JSON backup path. Export renders the whole store into a six-sheet
// xlsx workbook; import validates an external workbook row by row and swaps
// it into the store with a rollback guarantee.
package backup

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/domain/models"
)

const (
	sheetSummary  = "Summary"
	sheetBooks    = "Books"
	sheetSales    = "Sales"
	sheetExpenses = "Expenses"
	sheetLowStock = "Low Stock"
	sheetRestocks = "Restocks"

	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// DataSource is the read side of the store the exporter depends on.
type DataSource interface {
	ExportRaw() (models.Snapshot, error)
	GetDashboardStats() (models.DashboardStats, error)
	GetLowStockBooks() ([]models.Book, error)
}

// Exporter renders backup workbooks.
type Exporter struct {
	source   DataSource
	shopName string
	logger   *zap.Logger
	now      func() time.Time
}

// NewExporter wires an exporter; shopName appears in the Summary title.
func NewExporter(source DataSource, shopName string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shopName == "" {
		shopName = "Book Shop"
	}
	return &Exporter{source: source, shopName: shopName, logger: logger, now: time.Now}
}

// ExportWorkbook serializes the full data set into an xlsx workbook and
// returns its bytes. Missing fields become zeros and empty strings; a single
// odd record never fails the whole export.
func (e *Exporter) ExportWorkbook() ([]byte, error) {
	snap, err := e.source.ExportRaw()
	if err != nil {
		return nil, fmt.Errorf("read store snapshot: %w", err)
	}
	stats, err := e.source.GetDashboardStats()
	if err != nil {
		return nil, fmt.Errorf("compute dashboard stats: %w", err)
	}
	lowStock, err := e.source.GetLowStockBooks()
	if err != nil {
		return nil, fmt.Errorf("compute low stock list: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("prepare summary sheet: %w", err)
	}
	if err := e.writeSummary(f, stats); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetBooks,
		[]any{"id", "name", "author", "isbn", "costPrice", "sellPrice", "stock", "targetStock"},
		len(snap.Books), func(i int) []any {
			b := snap.Books[i]
			return []any{b.ID, b.Name, b.Author, b.ISBN, b.CostPrice, b.SellPrice, b.Stock, b.TargetStock}
		}); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetSales,
		[]any{"id", "bookId", "bookName", "qty", "totalAmount", "profit", "Date", "Time"},
		len(snap.Sales), func(i int) []any {
			sale := snap.Sales[i]
			return []any{sale.ID, sale.BookID, sale.BookName, sale.Qty, sale.TotalAmount, sale.Profit,
				sale.Date.Format(dateLayout), sale.Date.Format(timeLayout)}
		}); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetExpenses,
		[]any{"id", "type", "amount", "description", "Date", "Time"},
		len(snap.Expenses), func(i int) []any {
			exp := snap.Expenses[i]
			return []any{exp.ID, exp.Type, exp.Amount, exp.Description,
				exp.Date.Format(dateLayout), exp.Date.Format(timeLayout)}
		}); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetLowStock,
		[]any{"name", "author", "stock", "targetStock", "needed"},
		len(lowStock), func(i int) []any {
			b := lowStock[i]
			return []any{b.Name, b.Author, b.Stock, b.TargetStock, b.NeededUnits()}
		}); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetRestocks,
		[]any{"id", "bookId", "bookName", "qtyAdded", "Date", "Time"},
		len(snap.Restocks), func(i int) []any {
			r := snap.Restocks[i]
			return []any{r.ID, r.BookID, r.BookName, r.QtyAdded,
				r.Date.Format(dateLayout), r.Date.Format(timeLayout)}
		}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}

	e.logger.Info("backup workbook rendered",
		zap.Int("books", len(snap.Books)),
		zap.Int("sales", len(snap.Sales)),
		zap.Int("expenses", len(snap.Expenses)),
		zap.Int("restocks", len(snap.Restocks)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (e *Exporter) writeSummary(f *excelize.File, stats models.DashboardStats) error {
	rows := [][]any{
		{e.shopName + " - Inventory Backup"},
		{"Generated", e.now().Format("Jan 2, 2006 3:04:05 PM")},
		{"Total Books", stats.BookCount},
		{"Total Stock Units", stats.TotalStockUnits},
		{"Stock Value", stats.StockValue},
		{"Total Sales", stats.TotalSales},
		{"Gross Profit", stats.GrossProfit},
		{"Total Expenses", stats.TotalExpenses},
		{"Net Profit", stats.NetProfit},
		{"Profit Margin (%)", stats.ProfitMargin},
		{"Low Stock Items", stats.LowStockCount},
		{"Transactions", stats.TransactionCount},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeSheet(f *excelize.File, name string, header []any, count int, row func(i int) []any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create %s sheet: %w", name, err)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for i := 0; i < count; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}
