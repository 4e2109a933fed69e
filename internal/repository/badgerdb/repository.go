// Package badgerdb persists the shop's four record collections in an
// embedded BadgerDB instance.
//
// Layout: one key per collection ("books", "sales", "expenses", "restocks"),
// each holding the JSON-encoded list. An absent key is an empty collection,
// never an error. Multi-slot writes go through a single Badger transaction,
// which is the store's atomicity primitive.
package badgerdb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/domain/models"
)

const (
	slotBooks    = "books"
	slotSales    = "sales"
	slotExpenses = "expenses"
	slotRestocks = "restocks"
)

// Config holds the options for opening a repository.
type Config struct {
	// Path is the directory for the database files. Ignored when InMemory.
	Path string
	// InMemory keeps all data in RAM. Used by tests.
	InMemory bool
}

// Repository is the durable four-slot record store.
type Repository struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open creates or opens the underlying database. Every committed write is
// synced to disk; the single-user workload does not justify write-behind.
func Open(cfg Config, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("data path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	logger.Info("record store opened", zap.String("path", cfg.Path), zap.Bool("in_memory", cfg.InMemory))
	return &Repository{db: db, logger: logger}, nil
}

// Close releases the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// SlotUpdate is one collection write, built by the typed constructors below.
type SlotUpdate struct {
	key   string
	value any
}

// BooksSlot stages a full replacement of the books collection.
func BooksSlot(books []models.Book) SlotUpdate { return SlotUpdate{slotBooks, books} }

// SalesSlot stages a full replacement of the sales collection.
func SalesSlot(sales []models.Sale) SlotUpdate { return SlotUpdate{slotSales, sales} }

// ExpensesSlot stages a full replacement of the expenses collection.
func ExpensesSlot(expenses []models.Expense) SlotUpdate { return SlotUpdate{slotExpenses, expenses} }

// RestocksSlot stages a full replacement of the restocks collection.
func RestocksSlot(restocks []models.Restock) SlotUpdate { return SlotUpdate{slotRestocks, restocks} }

// Save writes the given collections in one transaction. Either all slots are
// replaced or none are.
func (r *Repository) Save(updates ...SlotUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	encoded := make(map[string][]byte, len(updates))
	for _, u := range updates {
		data, err := json.Marshal(u.value)
		if err != nil {
			return fmt.Errorf("encode %s slot: %w", u.key, err)
		}
		encoded[u.key] = data
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		for key, data := range encoded {
			if err := txn.Set([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write slots: %w", err)
	}
	return nil
}

// LoadBooks returns the books collection.
func (r *Repository) LoadBooks() ([]models.Book, error) {
	var books []models.Book
	if err := r.loadSlot(slotBooks, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// LoadSales returns the sales collection.
func (r *Repository) LoadSales() ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.loadSlot(slotSales, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// LoadExpenses returns the expenses collection.
func (r *Repository) LoadExpenses() ([]models.Expense, error) {
	var expenses []models.Expense
	if err := r.loadSlot(slotExpenses, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// LoadRestocks returns the restocks collection.
func (r *Repository) LoadRestocks() ([]models.Restock, error) {
	var restocks []models.Restock
	if err := r.loadSlot(slotRestocks, &restocks); err != nil {
		return nil, err
	}
	return restocks, nil
}

// Snapshot reads all four collections inside one read transaction so the
// result is a consistent view of the store.
func (r *Repository) Snapshot() (models.Snapshot, error) {
	var snap models.Snapshot
	err := r.db.View(func(txn *badger.Txn) error {
		if err := readSlot(txn, slotBooks, &snap.Books); err != nil {
			return err
		}
		if err := readSlot(txn, slotSales, &snap.Sales); err != nil {
			return err
		}
		if err := readSlot(txn, slotExpenses, &snap.Expenses); err != nil {
			return err
		}
		return readSlot(txn, slotRestocks, &snap.Restocks)
	})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return snap, nil
}

// ReplaceAll overwrites every collection with the snapshot's contents in one
// transaction.
func (r *Repository) ReplaceAll(snap models.Snapshot) error {
	return r.Save(
		BooksSlot(snap.Books),
		SalesSlot(snap.Sales),
		ExpensesSlot(snap.Expenses),
		RestocksSlot(snap.Restocks),
	)
}

func (r *Repository) loadSlot(key string, out any) error {
	err := r.db.View(func(txn *badger.Txn) error {
		return readSlot(txn, key, out)
	})
	if err != nil {
		return fmt.Errorf("read %s slot: %w", key, err)
	}
	return nil
}

func readSlot(txn *badger.Txn, key string, out any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
