// Package catalog maintains the registry of books that can be checked out.
// Books are stored in SQLite keyed by the id derived from their title and
// ISBN so a checkout in the ledger can be resolved back to a title.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a book id is not in the catalog.
var ErrNotFound = errors.New("book not found")

// Catalog provides access to the book registry.
type Catalog struct {
	db *sql.DB
}

// New opens (or creates) the catalog at dbPath. Use ":memory:" for a
// catalog that lives only for the life of the process.
func New(dbPath string) (*Catalog, error) {
	dsn := ":memory:"
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create catalog dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps an in-memory catalog alive and serializes
	// writers for the file backed one.
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS books (
		id    TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		isbn  TEXT NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the catalog.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add registers the book with its derived id. Adding the same title and
// ISBN again returns the existing book.
func (c *Catalog) Add(ctx context.Context, title string, isbn string) (database.Book, error) {
	book := database.NewBook(title, isbn)

	const q = `INSERT INTO books(id, title, isbn) VALUES(?, ?, ?) ON CONFLICT(id) DO NOTHING`
	if _, err := c.db.ExecContext(ctx, q, book.ID, book.Title, book.ISBN); err != nil {
		return database.Book{}, fmt.Errorf("insert book[%s]: %w", book.ID, err)
	}

	return book, nil
}

// Lookup returns the book for the specified id.
func (c *Catalog) Lookup(ctx context.Context, id string) (database.Book, error) {
	var book database.Book

	const q = `SELECT id, title, isbn FROM books WHERE id = ?`
	err := c.db.QueryRowContext(ctx, q, id).Scan(&book.ID, &book.Title, &book.ISBN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Book{}, fmt.Errorf("book[%s]: %w", id, ErrNotFound)
		}
		return database.Book{}, fmt.Errorf("select book[%s]: %w", id, err)
	}

	return book, nil
}

// List returns every book in the catalog ordered by title.
func (c *Catalog) List(ctx context.Context) ([]database.Book, error) {
	const q = `SELECT id, title, isbn FROM books ORDER BY title, isbn`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer rows.Close()

	var books []database.Book
	for rows.Next() {
		var book database.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.ISBN); err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, rows.Err()
}
