// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/bookledger/business/sys/validate"
	"github.com/ardanlabs/bookledger/business/web/errs"
	"github.com/ardanlabs/bookledger/foundation/blockchain/database"
	"github.com/ardanlabs/bookledger/foundation/blockchain/state"
	"github.com/ardanlabs/bookledger/foundation/catalog"
	"github.com/ardanlabs/bookledger/foundation/events"
	"github.com/ardanlabs/bookledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Catalog *catalog.Catalog
	Evts    *events.Events
	WS      websocket.Upgrader
}

// Chain returns every block in the ledger.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveBlocks()

	resp := chain{
		Difficulty: h.State.Difficulty(),
		Length:     len(blocks),
		Blocks:     make([]block, len(blocks)),
	}
	for i, blk := range blocks {
		resp.Blocks[i] = toBlock(blk, h.title(ctx, blk))
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Block returns the block for the specified number.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	num, err := strconv.ParseUint(web.Param(r, "number"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block number: %w", err), http.StatusBadRequest)
	}

	blk, err := h.State.RetrieveBlock(num)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("retrieve block: %w", err)
	}

	return web.Respond(ctx, w, toBlock(blk, h.title(ctx, blk)), http.StatusOK)
}

// Validate walks the ledger and reports the first corruption found.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validation{Valid: true}

	if err := h.State.Validate(); err != nil {
		var ce *database.CorruptionError
		if !errors.As(err, &ce) {
			return fmt.Errorf("validate: %w", err)
		}

		resp = validation{
			Valid:     false,
			Index:     &ce.Index,
			Violation: ce.Violation.String(),
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Attest returns the signed head of the ledger.
func (h Handlers) Attest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	att, err := h.State.Attest()
	if err != nil {
		if errors.Is(err, state.ErrNoSigningKey) {
			return errs.NewTrusted(err, http.StatusNotImplemented)
		}
		return fmt.Errorf("attest: %w", err)
	}

	return web.Respond(ctx, w, att, http.StatusOK)
}

// Checkout mines a checkout of a catalogued book into the ledger.
func (h Handlers) Checkout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nc NewCheckout
	if err := web.Decode(r, &nc); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(nc); err != nil {
		return err
	}

	book, err := h.Catalog.Lookup(ctx, nc.BookID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("lookup book: %w", err)
	}

	h.Log.Infow("checkout", "traceid", web.GetTraceID(ctx), "book", book.ID, "title", book.Title, "user", nc.User)

	blk, err := h.State.Checkout(ctx, book.ID, nc.User)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrMiningExhausted):
		return errs.NewTrusted(err, http.StatusServiceUnavailable)
	case database.IsAppendRejected(err):
		return errs.NewTrusted(err, http.StatusConflict)
	default:
		return fmt.Errorf("checkout: %w", err)
	}

	return web.Respond(ctx, w, toBlock(blk, book.Title), http.StatusCreated)
}

// Submit admits a block that was mined by the client.
func (h Handlers) Submit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var bd database.BlockData
	if err := web.Decode(r, &bd); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	blk := database.ToBlock(bd)

	if err := h.State.Submit(blk); err != nil {
		if errors.Is(err, state.ErrNotSolved) || database.IsAppendRejected(err) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return fmt.Errorf("submit: %w", err)
	}

	return web.Respond(ctx, w, toBlock(blk, h.title(ctx, blk)), http.StatusCreated)
}

// Events handles a web socket to provide mining events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Subscribe()
	defer h.Evts.Release(id)

	h.Log.Infow("events: subscribed", "traceid", web.GetTraceID(ctx), "id", id, "subscribers", h.Evts.Subscribers())

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// title resolves the book title for a block, empty when the book is not
// in the catalog.
func (h Handlers) title(ctx context.Context, blk database.Block) string {
	if blk.Data.IsGenesis {
		return ""
	}

	book, err := h.Catalog.Lookup(ctx, blk.Data.BookID)
	if err != nil {
		return ""
	}
	return book.Title
}
