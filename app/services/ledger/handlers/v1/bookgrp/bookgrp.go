// Package bookgrp maintains the group of handlers for the book catalog.
package bookgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/bookledger/business/sys/validate"
	"github.com/ardanlabs/bookledger/business/web/errs"
	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
	"github.com/ardanlabs/bookledger/foundation/catalog"
	"github.com/ardanlabs/bookledger/foundation/web"
)

// NewBook is what a client sends to register a book.
type NewBook struct {
	Title string `json:"title" validate:"required,max=256"`
	ISBN  string `json:"isbn" validate:"required,max=32"`
}

// Handlers manages the set of catalog endpoints.
type Handlers struct {
	Catalog *catalog.Catalog
}

// Create registers a book in the catalog.
func (h Handlers) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nb NewBook
	if err := web.Decode(r, &nb); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(nb); err != nil {
		return err
	}

	book, err := h.Catalog.Add(ctx, nb.Title, nb.ISBN)
	if err != nil {
		return fmt.Errorf("add book: %w", err)
	}

	return web.Respond(ctx, w, book, http.StatusCreated)
}

// List returns every book in the catalog.
func (h Handlers) List(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	books, err := h.Catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	if books == nil {
		books = []database.Book{}
	}

	return web.Respond(ctx, w, books, http.StatusOK)
}

// QueryByID returns the book for the specified id.
func (h Handlers) QueryByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	book, err := h.Catalog.Lookup(ctx, web.Param(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("lookup book: %w", err)
	}

	return web.Respond(ctx, w, book, http.StatusOK)
}
