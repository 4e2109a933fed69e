// Package store implements the record store: CRUD over the four collections,
// per-collection id assignment, and the derived reads the dashboard and
// backup pipeline are built on.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/domain/models"
	"github.com/mdiouf/bookkeep/internal/repository/badgerdb"
)

// Store owns all entity data. Mutations are read-modify-write cycles against
// the repository, serialized by a single mutex so overlapping callers cannot
// lose updates. Ids are per-collection counters recomputed from the data on
// open, ReplaceAll and ClearAll; they are never package state.
type Store struct {
	repo   *badgerdb.Repository
	logger *zap.Logger

	mu            sync.Mutex
	nextBookID    int64
	nextSaleID    int64
	nextExpenseID int64
	nextRestockID int64

	now func() time.Time
}

// New loads the current collections to seed the id counters.
func New(repo *badgerdb.Repository, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{repo: repo, logger: logger, now: time.Now}

	snap, err := repo.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("load initial snapshot: %w", err)
	}
	s.resetCounters(snap)

	logger.Info("store ready",
		zap.Int("books", len(snap.Books)),
		zap.Int("sales", len(snap.Sales)),
		zap.Int("expenses", len(snap.Expenses)),
		zap.Int("restocks", len(snap.Restocks)))
	return s, nil
}

func (s *Store) resetCounters(snap models.Snapshot) {
	s.nextBookID = 1
	for _, b := range snap.Books {
		if b.ID >= s.nextBookID {
			s.nextBookID = b.ID + 1
		}
	}
	s.nextSaleID = 1
	for _, sale := range snap.Sales {
		if sale.ID >= s.nextSaleID {
			s.nextSaleID = sale.ID + 1
		}
	}
	s.nextExpenseID = 1
	for _, e := range snap.Expenses {
		if e.ID >= s.nextExpenseID {
			s.nextExpenseID = e.ID + 1
		}
	}
	s.nextRestockID = 1
	for _, r := range snap.Restocks {
		if r.ID >= s.nextRestockID {
			s.nextRestockID = r.ID + 1
		}
	}
}

// ListBooks returns every book, low-stock titles first, then alphabetical.
func (s *Store) ListBooks() ([]models.Book, error) {
	books, err := s.repo.LoadBooks()
	if err != nil {
		return nil, err
	}
	sortBooks(books)
	return books, nil
}

// SearchBooks filters by case-insensitive substring on name or author,
// keeping the ListBooks ordering.
func (s *Store) SearchBooks(query string) ([]models.Book, error) {
	books, err := s.repo.LoadBooks()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	matched := books[:0]
	for _, b := range books {
		if needle == "" ||
			strings.Contains(strings.ToLower(b.Name), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) {
			matched = append(matched, b)
		}
	}
	sortBooks(matched)
	return matched, nil
}

func sortBooks(books []models.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		li, lj := books[i].IsLowStock(), books[j].IsLowStock()
		if li != lj {
			return li
		}
		return strings.ToLower(books[i].Name) < strings.ToLower(books[j].Name)
	})
}

// AddBook assigns an id, stamps lastStockedAt and, when the initial stock is
// positive, records the matching restock entry in the same write.
func (s *Store) AddBook(input models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.repo.LoadBooks()
	if err != nil {
		return models.Book{}, err
	}

	book := input
	book.ID = s.nextBookID
	if book.Stock < 0 {
		book.Stock = 0
	}
	if book.TargetStock <= 0 {
		book.TargetStock = models.DefaultTargetStock
	}
	now := s.now()
	book.LastStockedAt = &now
	books = append(books, book)

	updates := []badgerdb.SlotUpdate{badgerdb.BooksSlot(books)}
	if book.Stock > 0 {
		restocks, err := s.repo.LoadRestocks()
		if err != nil {
			return models.Book{}, err
		}
		restocks = append(restocks, models.Restock{
			ID:       s.nextRestockID,
			BookID:   book.ID,
			BookName: book.Name,
			QtyAdded: book.Stock,
			Date:     now,
		})
		updates = append(updates, badgerdb.RestocksSlot(restocks))
	}

	if err := s.repo.Save(updates...); err != nil {
		return models.Book{}, err
	}
	s.nextBookID++
	if book.Stock > 0 {
		s.nextRestockID++
	}
	s.logger.Info("book added", zap.Int64("id", book.ID), zap.String("name", book.Name))
	return book, nil
}

// UpdateBook replaces the stored book with the same id. Missing ids are a
// silent no-op; the mutation is idempotent against absent records.
func (s *Store) UpdateBook(book models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.repo.LoadBooks()
	if err != nil {
		return err
	}
	for i := range books {
		if books[i].ID == book.ID {
			if book.Stock < 0 {
				book.Stock = 0
			}
			if book.TargetStock <= 0 {
				book.TargetStock = models.DefaultTargetStock
			}
			books[i] = book
			return s.repo.Save(badgerdb.BooksSlot(books))
		}
	}
	return nil
}

// DeleteBook removes the book by id. Sales and restocks referencing it are
// kept; orphaned references are tolerated. Missing ids are a silent no-op.
func (s *Store) DeleteBook(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.repo.LoadBooks()
	if err != nil {
		return err
	}
	for i := range books {
		if books[i].ID == id {
			books = append(books[:i], books[i+1:]...)
			return s.repo.Save(badgerdb.BooksSlot(books))
		}
	}
	return nil
}

// AdjustStock applies delta to the book's stock, clamped at zero. Positive
// deltas stamp lastStockedAt and append a restock entry atomically with the
// stock change. A missing id is a no-op returning a zero book.
func (s *Store) AdjustStock(id int64, delta int) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.repo.LoadBooks()
	if err != nil {
		return models.Book{}, err
	}

	for i := range books {
		if books[i].ID != id {
			continue
		}

		books[i].Stock += delta
		if books[i].Stock < 0 {
			books[i].Stock = 0
		}

		updates := []badgerdb.SlotUpdate{badgerdb.BooksSlot(books)}
		if delta > 0 {
			now := s.now()
			books[i].LastStockedAt = &now

			restocks, err := s.repo.LoadRestocks()
			if err != nil {
				return models.Book{}, err
			}
			restocks = append(restocks, models.Restock{
				ID:       s.nextRestockID,
				BookID:   id,
				BookName: books[i].Name,
				QtyAdded: delta,
				Date:     now,
			})
			updates = append(updates, badgerdb.RestocksSlot(restocks))
		}

		if err := s.repo.Save(updates...); err != nil {
			return models.Book{}, err
		}
		if delta > 0 {
			s.nextRestockID++
		}
		return books[i], nil
	}
	return models.Book{}, nil
}

// RecordSale appends the sale and decrements the book's stock in one
// repository transaction, so a crash can never leave a sale against
// un-decremented stock. Profit is computed once here and stored; it is never
// recomputed from later book prices. A sale against an unknown book id is
// still recorded (orphaned references are tolerated), it just moves no stock.
func (s *Store) RecordSale(bookID int64, qty int, totalAmount, costPrice float64, bookName string) (models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.repo.LoadSales()
	if err != nil {
		return models.Sale{}, err
	}
	books, err := s.repo.LoadBooks()
	if err != nil {
		return models.Sale{}, err
	}

	if qty < 0 {
		qty = 0
	}
	sale := models.Sale{
		ID:          s.nextSaleID,
		BookID:      bookID,
		BookName:    bookName,
		Qty:         qty,
		TotalAmount: totalAmount,
		Profit:      totalAmount - float64(qty)*costPrice,
		Date:        s.now(),
	}
	sales = append(sales, sale)

	updates := []badgerdb.SlotUpdate{badgerdb.SalesSlot(sales)}
	for i := range books {
		if books[i].ID == bookID {
			books[i].Stock -= qty
			if books[i].Stock < 0 {
				books[i].Stock = 0
			}
			updates = append(updates, badgerdb.BooksSlot(books))
			break
		}
	}

	if err := s.repo.Save(updates...); err != nil {
		return models.Sale{}, err
	}
	s.nextSaleID++
	s.logger.Info("sale recorded",
		zap.Int64("id", sale.ID),
		zap.Int64("book_id", bookID),
		zap.Int("qty", qty),
		zap.Float64("total", totalAmount))
	return sale, nil
}

// RecordExpense assigns an id and appends the expense. A zero date is
// stamped with the current time; an empty type falls back to Misc.
func (s *Store) RecordExpense(input models.Expense) (models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expenses, err := s.repo.LoadExpenses()
	if err != nil {
		return models.Expense{}, err
	}

	expense := input
	expense.ID = s.nextExpenseID
	if expense.Amount < 0 {
		expense.Amount = 0
	}
	if strings.TrimSpace(expense.Type) == "" {
		expense.Type = "Misc"
	}
	if expense.Date.IsZero() {
		expense.Date = s.now()
	}
	expenses = append(expenses, expense)

	if err := s.repo.Save(badgerdb.ExpensesSlot(expenses)); err != nil {
		return models.Expense{}, err
	}
	s.nextExpenseID++
	return expense, nil
}

// UpdateExpense mirrors UpdateBook's contract: replace by id, silent no-op
// when the id is unknown.
func (s *Store) UpdateExpense(expense models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expenses, err := s.repo.LoadExpenses()
	if err != nil {
		return err
	}
	for i := range expenses {
		if expenses[i].ID == expense.ID {
			if expense.Amount < 0 {
				expense.Amount = 0
			}
			expenses[i] = expense
			return s.repo.Save(badgerdb.ExpensesSlot(expenses))
		}
	}
	return nil
}

// DeleteExpense removes by id; silent no-op when the id is unknown.
func (s *Store) DeleteExpense(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expenses, err := s.repo.LoadExpenses()
	if err != nil {
		return err
	}
	for i := range expenses {
		if expenses[i].ID == id {
			expenses = append(expenses[:i], expenses[i+1:]...)
			return s.repo.Save(badgerdb.ExpensesSlot(expenses))
		}
	}
	return nil
}

// ExportRaw returns the full consistent snapshot of all four collections.
func (s *Store) ExportRaw() (models.Snapshot, error) {
	return s.repo.Snapshot()
}

// ReplaceAll overwrites every collection atomically and recomputes the id
// counters from the new data.
func (s *Store) ReplaceAll(snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ReplaceAll(snap); err != nil {
		return err
	}
	s.resetCounters(snap)
	s.logger.Info("store replaced",
		zap.Int("books", len(snap.Books)),
		zap.Int("sales", len(snap.Sales)),
		zap.Int("expenses", len(snap.Expenses)),
		zap.Int("restocks", len(snap.Restocks)))
	return nil
}

// ClearAll empties every collection and resets the id counters to 1.
func (s *Store) ClearAll() error {
	return s.ReplaceAll(models.Snapshot{})
}
