package models

import "time"

// DefaultTargetStock is the reorder threshold applied when a book is created
// or imported without one.
const DefaultTargetStock = 5

// SuggestedExpenseTypes is the closed set of categories surfaced to the UI.
// Custom category strings remain legal everywhere an expense type is accepted.
var SuggestedExpenseTypes = []string{
	"Food", "Rent", "Fuel", "Utilities", "Stationery", "Transport", "Misc",
}

// Book is a title held in stock.
type Book struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Author        string     `json:"author"`
	ISBN          string     `json:"isbn"`
	Stock         int        `json:"stock"`
	TargetStock   int        `json:"targetStock"`
	CostPrice     float64    `json:"costPrice"`
	SellPrice     float64    `json:"sellPrice"`
	LastStockedAt *time.Time `json:"lastStockedAt,omitempty"`
}

// IsLowStock reports whether the book sits at or below its reorder threshold.
func (b Book) IsLowStock() bool {
	return b.Stock <= b.TargetStock || b.Stock == 0
}

// StockValue is the cost-basis value of the units currently on hand.
func (b Book) StockValue() float64 {
	return float64(b.Stock) * b.CostPrice
}

// NeededUnits is how many units are missing to reach the reorder threshold.
func (b Book) NeededUnits() int {
	if n := b.TargetStock - b.Stock; n > 0 {
		return n
	}
	return 0
}

// Sale records a completed transaction. BookName is a snapshot taken at sale
// time; renaming the book later must not alter the record.
type Sale struct {
	ID          int64     `json:"id"`
	BookID      int64     `json:"bookId"`
	BookName    string    `json:"bookName"`
	Qty         int       `json:"qty"`
	TotalAmount float64   `json:"totalAmount"`
	Profit      float64   `json:"profit"`
	Date        time.Time `json:"date"`
}

// Expense is a business cost entry. Type is free form; see
// SuggestedExpenseTypes for the categories offered by default.
type Expense struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// Restock records a stock increase. Written whenever a book's stock goes up,
// never directly by the user.
type Restock struct {
	ID       int64     `json:"id"`
	BookID   int64     `json:"bookId"`
	BookName string    `json:"bookName"`
	QtyAdded int       `json:"qtyAdded"`
	Date     time.Time `json:"date"`
}

// Snapshot is the store's full contents, used for backups and for the
// restore transaction boundary.
type Snapshot struct {
	Books    []Book    `json:"books"`
	Sales    []Sale    `json:"sales"`
	Expenses []Expense `json:"expenses"`
	Restocks []Restock `json:"restocks"`
}
