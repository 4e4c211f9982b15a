package database

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/bookledger/foundation/blockchain/signature"
)

// Book represents a book that can be checked out of the library. The id
// is derived from the title and ISBN, so two books with the same title and
// ISBN share an id.
type Book struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	ISBN  string `json:"isbn"`
}

// NewBook constructs a book with its derived id.
func NewBook(title string, isbn string) Book {
	return Book{
		ID:    DeriveBookID(title, isbn),
		Title: title,
		ISBN:  isbn,
	}
}

// Checkout records the checkout of this book by the specified user.
func (b Book) Checkout(user string) CheckoutRecord {
	return NewCheckout(b.ID, user)
}

// DeriveBookID returns the hex encoded MD5 of the title followed by the ISBN.
func DeriveBookID(title string, isbn string) string {
	return signature.MD5(title + isbn)
}

// =============================================================================

// CheckoutRecord represents a single book checkout event. It is the payload
// carried by a block.
type CheckoutRecord struct {
	BookID            string `json:"book_id"`
	User              string `json:"user"`
	CheckoutTimestamp string `json:"checkout_timestamp"` // Seconds since epoch as a decimal string.
	IsGenesis         bool   `json:"is_genesis"`
}

// NewCheckout constructs a checkout record stamped with the current time.
func NewCheckout(bookID string, user string) CheckoutRecord {
	return CheckoutRecord{
		BookID:            bookID,
		User:              user,
		CheckoutTimestamp: strconv.FormatInt(time.Now().UTC().Unix(), 10),
	}
}

// NewGenesis constructs the marker record carried by the genesis block.
func NewGenesis() CheckoutRecord {
	return CheckoutRecord{
		IsGenesis: true,
	}
}

// Canonical returns the representation of the record that is fed into the
// block hash. Any change to this format changes every block hash.
//
//	CheckoutRecord { book_id: "<id>", user: "<user>", checkout_timestamp: "<secs>", is_genesis: <bool> }
//
// String values are quoted using Go's %q rules.
func (cr CheckoutRecord) Canonical() string {
	return fmt.Sprintf("CheckoutRecord { book_id: %q, user: %q, checkout_timestamp: %q, is_genesis: %t }",
		cr.BookID, cr.User, cr.CheckoutTimestamp, cr.IsGenesis)
}

// String implements the fmt.Stringer interface for display.
func (cr CheckoutRecord) String() string {
	return fmt.Sprintf("Book ID #%s [User: %s, Checkout date: %s, Is genesis: %t]",
		cr.BookID, cr.User, cr.CheckoutTimestamp, cr.IsGenesis)
}
