package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mdiouf/bookkeep/internal/domain/models"
)

// ErrInvalidFormat marks a plain-data document missing the required
// collections.
var ErrInvalidFormat = errors.New("invalid backup format: books and sales fields are required")

// PlainBackup is the lighter-weight single-document backup. Books and Sales
// are pointers so a missing field can be told apart from an empty list;
// import rejects documents where either is absent.
type PlainBackup struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Books       *[]models.Book    `json:"books"`
	Sales       *[]models.Sale    `json:"sales"`
	Expenses    []models.Expense  `json:"expenses"`
	Restocks    []models.Restock  `json:"restocks"`
}

// ExportJSON serializes all four collections plus a generation timestamp.
func (e *Exporter) ExportJSON() ([]byte, error) {
	snap, err := e.source.ExportRaw()
	if err != nil {
		return nil, fmt.Errorf("read store snapshot: %w", err)
	}
	if snap.Books == nil {
		snap.Books = []models.Book{}
	}
	if snap.Sales == nil {
		snap.Sales = []models.Sale{}
	}

	doc := PlainBackup{
		GeneratedAt: e.now(),
		Books:       &snap.Books,
		Sales:       &snap.Sales,
		Expenses:    snap.Expenses,
		Restocks:    snap.Restocks,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// ImportJSON replaces the store from a plain-data document, with the same
// snapshot/rollback boundary as the workbook path. Documents missing the
// books or sales fields are rejected before the store is touched.
func (i *Importer) ImportJSON(data []byte) (*Result, error) {
	var doc PlainBackup
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unreadable backup document: %w", err)
	}
	if doc.Books == nil || doc.Sales == nil {
		return nil, ErrInvalidFormat
	}

	snap := models.Snapshot{
		Books:    *doc.Books,
		Sales:    *doc.Sales,
		Expenses: doc.Expenses,
		Restocks: doc.Restocks,
	}
	if err := i.replaceWithRollback(snap); err != nil {
		return nil, err
	}

	return &Result{
		BooksImported:    len(snap.Books),
		SalesImported:    len(snap.Sales),
		ExpensesImported: len(snap.Expenses),
		Warnings:         []string{},
	}, nil
}
