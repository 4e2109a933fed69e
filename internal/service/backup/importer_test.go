package backup

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mdiouf/bookkeep/internal/domain/models"
	"github.com/mdiouf/bookkeep/internal/repository/badgerdb"
	"github.com/mdiouf/bookkeep/internal/service/store"
)

// buildWorkbook renders sheets of string rows into an xlsx document.
func buildWorkbook(t *testing.T, sheets map[string][][]string) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			values := make([]any, len(row))
			for j, v := range row {
				values[j] = v
			}
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func newEmptyStore(t *testing.T) *store.Store {
	t.Helper()
	repo, err := badgerdb.Open(badgerdb.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	s, err := store.New(repo, nil)
	require.NoError(t, err)
	return s
}

var booksHeader = []string{"id", "name", "author", "isbn", "costPrice", "sellPrice", "stock", "targetStock"}
var salesHeader = []string{"id", "bookId", "bookName", "qty", "totalAmount", "profit", "Date", "Time"}
var expensesHeader = []string{"id", "type", "amount", "description", "Date", "Time"}

func TestImportWorkbookHappyPath(t *testing.T) {
	s := newEmptyStore(t)
	importer := NewImporter(s, nil)

	doc := buildWorkbook(t, map[string][][]string{
		"Books": {
			booksHeader,
			{"1", "Things Fall Apart", "Achebe", "9780385474542", "6.5", "12", "8", "5"},
			{"2", "Beloved", "Morrison", "", "4", "9", "2", "5"},
		},
		"Sales": {
			salesHeader,
			{"1", "1", "Things Fall Apart", "2", "24", "11", "2025-04-07", "14:05:09"},
		},
		"Expenses": {
			expensesHeader,
			{"1", "Rent", "150", "April", "2025-04-07", "09:00:00"},
		},
	})

	result, err := importer.ImportWorkbook(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksImported)
	assert.Equal(t, 1, result.SalesImported)
	assert.Equal(t, 1, result.ExpensesImported)
	assert.Empty(t, result.Warnings)

	snap, err := s.ExportRaw()
	require.NoError(t, err)
	require.Len(t, snap.Books, 2)
	assert.Equal(t, 6.5, snap.Books[0].CostPrice)
	require.Len(t, snap.Sales, 1)
	assert.Equal(t, time.Date(2025, 4, 7, 14, 5, 9, 0, time.UTC), snap.Sales[0].Date)
	assert.Equal(t, 11.0, snap.Sales[0].Profit)
	assert.Empty(t, snap.Restocks, "restocks are not part of the document format")
}

func TestImportSheetNamesMatchCaseInsensitively(t *testing.T) {
	s := newEmptyStore(t)
	importer := NewImporter(s, nil)

	doc := buildWorkbook(t, map[string][][]string{
		"books": {booksHeader, {"1", "Lowercase Sheet", "", "", "1", "2", "3", "5"}},
	})

	result, err := importer.ImportWorkbook(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksImported)
}

func TestImportRowValidation(t *testing.T) {
	s := newEmptyStore(t)
	importer := NewImporter(s, nil)

	doc := buildWorkbook(t, map[string][][]string{
		"Books": {
			booksHeader,
			{"abc", "Bad Id"},
			{"3", "   "},
			{"4", "Defaults", "", "", "oops", "-2", "bad", "x"},
		},
		"Sales": {
			salesHeader,
			{"1", "1", "No Date", "1", "10", "2", "not-a-date", ""},
			{"2", "x", "Tolerated", "-3", "-9", "-1.5", "2025-04-07", "garbage"},
		},
		"Expenses": {
			expensesHeader,
			{"1", "Food", "-5", "", "2025-04-07", "09:00:00"},
			{"2", "", "30", "", "2025-04-07", "10:00:00"},
			{"3", "Fuel", "12", "", "never", ""},
		},
	})

	result, err := importer.ImportWorkbook(doc)
	require.NoError(t, err)

	assert.Equal(t, 1, result.BooksImported)
	assert.Equal(t, 1, result.SalesImported)
	assert.Equal(t, 1, result.ExpensesImported)

	require.Len(t, result.Warnings, 5)
	assert.Contains(t, result.Warnings[0], "Books row 1")
	assert.Contains(t, result.Warnings[0], "Invalid id")
	assert.Contains(t, result.Warnings[1], "Books row 2")
	assert.Contains(t, result.Warnings[1], "Missing name")
	assert.Contains(t, result.Warnings[2], "Sales row 1")
	assert.Contains(t, result.Warnings[2], "Invalid date")
	assert.Contains(t, result.Warnings[3], "Expenses row 1")
	assert.Contains(t, result.Warnings[3], "Invalid amount")
	assert.Contains(t, result.Warnings[4], "Expenses row 3")
	assert.Contains(t, result.Warnings[4], "Invalid date")

	snap, err := s.ExportRaw()
	require.NoError(t, err)

	require.Len(t, snap.Books, 1)
	book := snap.Books[0]
	assert.Equal(t, int64(4), book.ID)
	assert.Equal(t, 0.0, book.CostPrice, "non-numeric costPrice defaults to 0")
	assert.Equal(t, 0.0, book.SellPrice, "negative sellPrice clamps to 0")
	assert.Equal(t, 0, book.Stock, "non-numeric stock defaults to 0")
	assert.Equal(t, models.DefaultTargetStock, book.TargetStock, "zero targetStock falls back to default")

	require.Len(t, snap.Sales, 1)
	sale := snap.Sales[0]
	assert.Equal(t, int64(0), sale.BookID, "non-numeric bookId defaults to 0")
	assert.Equal(t, 0, sale.Qty, "negative qty clamps to 0")
	assert.Equal(t, 0.0, sale.TotalAmount)
	assert.Equal(t, -1.5, sale.Profit, "profit is never clamped")
	assert.Equal(t, time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC), sale.Date, "bad time column keeps the date")

	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, "Misc", snap.Expenses[0].Type, "empty type defaults to Misc")
}

func TestImportDuplicateIDsFirstWins(t *testing.T) {
	s := newEmptyStore(t)
	importer := NewImporter(s, nil)

	doc := buildWorkbook(t, map[string][][]string{
		"Books": {
			booksHeader,
			{"7", "First", "", "", "1", "2", "3", "5"},
			{"7", "Second", "", "", "9", "9", "9", "9"},
		},
	})

	result, err := importer.ImportWorkbook(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksImported)
	assert.Empty(t, result.Warnings, "duplicates are dropped silently")

	snap, err := s.ExportRaw()
	require.NoError(t, err)
	require.Len(t, snap.Books, 1)
	assert.Equal(t, "First", snap.Books[0].Name)
}

func TestImportRequiresBooksOrSalesSheet(t *testing.T) {
	s := newEmptyStore(t)
	importer := NewImporter(s, nil)

	doc := buildWorkbook(t, map[string][][]string{
		"Expenses": {expensesHeader, {"1", "Rent", "100", "", "2025-04-07", ""}},
	})

	_, err := importer.ImportWorkbook(doc)
	assert.ErrorIs(t, err, ErrNoDataSheets)
}

func TestImportRejectsWorkbookWithNoValidRows(t *testing.T) {
	s := newEmptyStore(t)
	_, err := s.AddBook(models.Book{Name: "Keep Me", Stock: 1})
	require.NoError(t, err)
	importer := NewImporter(s, nil)

	doc := buildWorkbook(t, map[string][][]string{
		"Books": {booksHeader, {"nope", "Bad"}},
	})

	_, err = importer.ImportWorkbook(doc)
	assert.ErrorIs(t, err, ErrNoValidRows)

	books, err := s.ListBooks()
	require.NoError(t, err)
	require.Len(t, books, 1, "store must be untouched")
	assert.Equal(t, "Keep Me", books[0].Name)
}

// failingStore injects write failures to exercise the rollback path.
type failingStore struct {
	snapshot    models.Snapshot
	failures    int
	replayCalls []models.Snapshot
}

func (f *failingStore) ExportRaw() (models.Snapshot, error) {
	return f.snapshot, nil
}

func (f *failingStore) ReplaceAll(snap models.Snapshot) error {
	f.replayCalls = append(f.replayCalls, snap)
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	f.snapshot = snap
	return nil
}

func TestImportRollsBackOnWriteFailure(t *testing.T) {
	previous := models.Snapshot{Books: []models.Book{{ID: 1, Name: "Survivor", Stock: 3, TargetStock: 5}}}
	fs := &failingStore{snapshot: previous, failures: 1}
	importer := NewImporter(fs, nil)

	doc := buildWorkbook(t, map[string][][]string{
		"Books": {booksHeader, {"2", "Incoming", "", "", "1", "2", "3", "5"}},
	})

	_, err := importer.ImportWorkbook(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "previous data kept")

	require.Len(t, fs.replayCalls, 2, "failed write then rollback")
	assert.Equal(t, previous, fs.snapshot, "rollback restored the captured snapshot")
}

func TestImportReportsWhenRollbackAlsoFails(t *testing.T) {
	fs := &failingStore{snapshot: models.Snapshot{}, failures: 2}
	importer := NewImporter(fs, nil)

	doc := buildWorkbook(t, map[string][][]string{
		"Books": {booksHeader, {"1", "Incoming", "", "", "1", "2", "3", "5"}},
	})

	_, err := importer.ImportWorkbook(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data state is uncertain")
}

func TestImportJSONRequiresBooksAndSales(t *testing.T) {
	s := newEmptyStore(t)
	importer := NewImporter(s, nil)

	_, err := importer.ImportJSON([]byte(`{"books": []}`))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = importer.ImportJSON([]byte(`{"sales": []}`))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = importer.ImportJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestImportJSONRoundTrip(t *testing.T) {
	s := newEmptyStore(t)
	_, err := s.AddBook(models.Book{Name: "Original", Stock: 4, CostPrice: 2})
	require.NoError(t, err)
	_, err = s.RecordSale(1, 1, 5, 2, "Original")
	require.NoError(t, err)

	exporter := NewExporter(s, "", nil)
	content, err := exporter.ExportJSON()
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())

	result, err := NewImporter(s, nil).ImportJSON(content)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksImported)
	assert.Equal(t, 1, result.SalesImported)

	books, err := s.ListBooks()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Original", books[0].Name)
}
