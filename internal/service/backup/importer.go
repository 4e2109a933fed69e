package backup

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/domain/models"
)

// Structural failures; the store is never touched when these are returned.
var (
	ErrNoDataSheets = errors.New(`backup must contain a "Books" or "Sales" sheet`)
	ErrNoValidRows  = errors.New("no valid data found in backup")
)

// Restorer is the slice of the store the importer needs: a snapshot for the
// rollback capture and the atomic replace that forms the transaction
// boundary.
type Restorer interface {
	ExportRaw() (models.Snapshot, error)
	ReplaceAll(models.Snapshot) error
}

// Result reports a completed restore: rows accepted per collection and the
// per-row warnings for everything that was dropped along the way.
type Result struct {
	BooksImported    int      `json:"booksImported"`
	SalesImported    int      `json:"salesImported"`
	ExpensesImported int      `json:"expensesImported"`
	Warnings         []string `json:"warnings"`
}

// Importer validates external backup documents and swaps them into the store.
type Importer struct {
	store  Restorer
	logger *zap.Logger
}

// NewImporter wires an importer against the given store.
func NewImporter(store Restorer, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, logger: logger}
}

// ImportWorkbook runs the full restore pipeline:
//
//  1. Parse the workbook and locate sheets by case-insensitive name.
//  2. Validate every row, collecting 1-based row warnings; invalid rows are
//     dropped, never fatal.
//  3. Dedupe by id within each collection, first occurrence wins.
//  4. Capture the current snapshot, then atomically replace the store.
//  5. On a write failure, restore the captured snapshot; the returned error
//     states whether the previous data survived.
//
// Restocks are not part of the external document format and come back empty.
func (i *Importer) ImportWorkbook(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("unreadable backup document: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := make(map[string]string) // lower-case name -> actual name
	for _, name := range f.GetSheetList() {
		sheets[strings.ToLower(name)] = name
	}
	booksSheet, hasBooks := sheets[strings.ToLower(sheetBooks)]
	salesSheet, hasSales := sheets[strings.ToLower(sheetSales)]
	expensesSheet, hasExpenses := sheets[strings.ToLower(sheetExpenses)]
	if !hasBooks && !hasSales {
		return nil, ErrNoDataSheets
	}

	result := &Result{Warnings: []string{}}
	var snap models.Snapshot

	if hasBooks {
		rows, err := f.GetRows(booksSheet)
		if err != nil {
			return nil, fmt.Errorf("read %s sheet: %w", booksSheet, err)
		}
		snap.Books = parseBookRows(rows, &result.Warnings)
	}
	if hasSales {
		rows, err := f.GetRows(salesSheet)
		if err != nil {
			return nil, fmt.Errorf("read %s sheet: %w", salesSheet, err)
		}
		snap.Sales = parseSaleRows(rows, &result.Warnings)
	}
	if hasExpenses {
		rows, err := f.GetRows(expensesSheet)
		if err != nil {
			return nil, fmt.Errorf("read %s sheet: %w", expensesSheet, err)
		}
		snap.Expenses = parseExpenseRows(rows, &result.Warnings)
	}

	if len(snap.Books) == 0 && len(snap.Sales) == 0 && len(snap.Expenses) == 0 {
		return nil, ErrNoValidRows
	}

	if err := i.replaceWithRollback(snap); err != nil {
		return nil, err
	}

	result.BooksImported = len(snap.Books)
	result.SalesImported = len(snap.Sales)
	result.ExpensesImported = len(snap.Expenses)
	i.logger.Info("backup restored",
		zap.Int("books", result.BooksImported),
		zap.Int("sales", result.SalesImported),
		zap.Int("expenses", result.ExpensesImported),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// replaceWithRollback is the one transaction in the system: snapshot before
// any destructive write, one restore attempt on failure, and an error that
// never hides an uncertain data state.
func (i *Importer) replaceWithRollback(snap models.Snapshot) error {
	previous, err := i.store.ExportRaw()
	if err != nil {
		return fmt.Errorf("capture rollback snapshot: %w", err)
	}

	if err := i.store.ReplaceAll(snap); err != nil {
		i.logger.Error("restore write failed, rolling back", zap.Error(err))
		if rbErr := i.store.ReplaceAll(previous); rbErr != nil {
			return fmt.Errorf("restore failed and rollback failed, data state is uncertain: %w (rollback: %v)", err, rbErr)
		}
		return fmt.Errorf("restore failed, previous data kept: %w", err)
	}
	return nil
}

// Rows below are positional, matching the documented export column order.
// The first row is the header and is skipped; warnings index data rows from 1.

func parseBookRows(rows [][]string, warnings *[]string) []models.Book {
	books := make([]models.Book, 0)
	seen := make(map[int64]bool)

	for n, row := range dataRows(rows) {
		rowNum := n + 1

		id, err := parseID(cell(row, 0))
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("Books row %d: Invalid id %q", rowNum, cell(row, 0)))
			continue
		}
		name := strings.TrimSpace(cell(row, 1))
		if name == "" {
			*warnings = append(*warnings, fmt.Sprintf("Books row %d: Missing name", rowNum))
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		books = append(books, models.Book{
			ID:          id,
			Name:        name,
			Author:      strings.TrimSpace(cell(row, 2)),
			ISBN:        strings.TrimSpace(cell(row, 3)),
			CostPrice:   floatOrDefault(cell(row, 4), 0, 0),
			SellPrice:   floatOrDefault(cell(row, 5), 0, 0),
			Stock:       intOrDefault(cell(row, 6), 0, 0),
			TargetStock: intOrDefault(cell(row, 7), models.DefaultTargetStock, 1),
		})
	}
	return books
}

func parseSaleRows(rows [][]string, warnings *[]string) []models.Sale {
	sales := make([]models.Sale, 0)
	seen := make(map[int64]bool)

	for n, row := range dataRows(rows) {
		rowNum := n + 1

		id, err := parseID(cell(row, 0))
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("Sales row %d: Invalid id %q", rowNum, cell(row, 0)))
			continue
		}
		date, err := parseTimestamp(cell(row, 6), cell(row, 7))
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("Sales row %d: Invalid date %q", rowNum, cell(row, 6)))
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		bookID, err := parseID(cell(row, 1))
		if err != nil {
			bookID = 0 // unknown references are tolerated
		}

		sale := models.Sale{
			ID:          id,
			BookID:      bookID,
			BookName:    strings.TrimSpace(cell(row, 2)),
			Qty:         intOrDefault(cell(row, 3), 0, 0),
			TotalAmount: floatOrDefault(cell(row, 4), 0, 0),
			Date:        date,
		}
		// Profit may legitimately be negative; no clamp.
		if v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, 5)), 64); err == nil {
			sale.Profit = v
		}
		sales = append(sales, sale)
	}
	return sales
}

func parseExpenseRows(rows [][]string, warnings *[]string) []models.Expense {
	expenses := make([]models.Expense, 0)
	seen := make(map[int64]bool)

	for n, row := range dataRows(rows) {
		rowNum := n + 1

		id, err := parseID(cell(row, 0))
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("Expenses row %d: Invalid id %q", rowNum, cell(row, 0)))
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(cell(row, 2)), 64)
		if err != nil || amount < 0 {
			*warnings = append(*warnings, fmt.Sprintf("Expenses row %d: Invalid amount %q", rowNum, cell(row, 2)))
			continue
		}
		date, err := parseTimestamp(cell(row, 4), cell(row, 5))
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("Expenses row %d: Invalid date %q", rowNum, cell(row, 4)))
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		expenseType := strings.TrimSpace(cell(row, 1))
		if expenseType == "" {
			expenseType = "Misc"
		}
		expenses = append(expenses, models.Expense{
			ID:          id,
			Type:        expenseType,
			Amount:      amount,
			Description: strings.TrimSpace(cell(row, 3)),
			Date:        date,
		})
	}
	return expenses
}

func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}

func intOrDefault(value string, def, min int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		n = def
	}
	if n < min {
		n = min
	}
	return n
}

func floatOrDefault(value string, def, min float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		f = def
	}
	if f < min {
		f = min
	}
	return f
}

// parseTimestamp combines the split Date and Time columns back into one
// timestamp. Longer date strings are cut to the date part first, so full
// timestamps in the date column still parse.
func parseTimestamp(dateCell, timeCell string) (time.Time, error) {
	dateStr := strings.TrimSpace(dateCell)
	if dateStr == "" {
		return time.Time{}, errors.New("empty date")
	}
	if len(dateStr) > len(dateLayout) {
		dateStr = dateStr[:len(dateLayout)]
	}
	day, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, err
	}

	timeStr := strings.TrimSpace(timeCell)
	if timeStr == "" {
		return day, nil
	}
	clock, err := time.Parse(timeLayout, timeStr)
	if err != nil {
		// A bad time column does not invalidate the row; the date stands.
		return day, nil
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), nil
}
