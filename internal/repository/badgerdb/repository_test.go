package badgerdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdiouf/bookkeep/internal/domain/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{}, nil)
	assert.ErrorContains(t, err, "data path is required")
}

func TestMissingSlotsAreEmptyCollections(t *testing.T) {
	repo := newTestRepo(t)

	books, err := repo.LoadBooks()
	require.NoError(t, err)
	assert.Empty(t, books)

	snap, err := repo.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.Books)
	assert.Empty(t, snap.Sales)
	assert.Empty(t, snap.Expenses)
	assert.Empty(t, snap.Restocks)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	books := []models.Book{{ID: 1, Name: "Things Fall Apart", Author: "Achebe", Stock: 4, TargetStock: 5, CostPrice: 6.5, SellPrice: 12}}
	sales := []models.Sale{{ID: 1, BookID: 1, BookName: "Things Fall Apart", Qty: 2, TotalAmount: 24, Profit: 11, Date: time.Now().UTC()}}
	require.NoError(t, repo.Save(BooksSlot(books), SalesSlot(sales)))

	gotBooks, err := repo.LoadBooks()
	require.NoError(t, err)
	assert.Equal(t, books, gotBooks)

	gotSales, err := repo.LoadSales()
	require.NoError(t, err)
	require.Len(t, gotSales, 1)
	assert.Equal(t, sales[0].Profit, gotSales[0].Profit)
	assert.True(t, sales[0].Date.Equal(gotSales[0].Date))
}

func TestReplaceAllOverwritesEverySlot(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(
		BooksSlot([]models.Book{{ID: 9, Name: "Old"}}),
		ExpensesSlot([]models.Expense{{ID: 3, Type: "Rent", Amount: 100}}),
	))

	next := models.Snapshot{
		Books:    []models.Book{{ID: 1, Name: "New"}},
		Restocks: []models.Restock{{ID: 1, BookID: 1, BookName: "New", QtyAdded: 5}},
	}
	require.NoError(t, repo.ReplaceAll(next))

	snap, err := repo.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Books, 1)
	assert.Equal(t, "New", snap.Books[0].Name)
	assert.Empty(t, snap.Sales)
	assert.Empty(t, snap.Expenses)
	require.Len(t, snap.Restocks, 1)
}

func TestSaveWithNoUpdatesIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Save())
}
