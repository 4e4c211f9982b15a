// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/bookledger/app/services/ledger/handlers/v1/bookgrp"
	"github.com/ardanlabs/bookledger/app/services/ledger/handlers/v1/ledgergrp"
	"github.com/ardanlabs/bookledger/foundation/blockchain/state"
	"github.com/ardanlabs/bookledger/foundation/catalog"
	"github.com/ardanlabs/bookledger/foundation/events"
	"github.com/ardanlabs/bookledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Catalog *catalog.Catalog
	Evts    *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:     cfg.Log,
		State:   cfg.State,
		Catalog: cfg.Catalog,
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/chain", lgh.Chain)
	app.Handle(http.MethodGet, version, "/chain/validate", lgh.Validate)
	app.Handle(http.MethodGet, version, "/chain/attest", lgh.Attest)
	app.Handle(http.MethodGet, version, "/blocks/:number", lgh.Block)
	app.Handle(http.MethodPost, version, "/blocks", lgh.Submit)
	app.Handle(http.MethodPost, version, "/checkouts", lgh.Checkout)
	app.Handle(http.MethodGet, version, "/events", lgh.Events)

	bgh := bookgrp.Handlers{
		Catalog: cfg.Catalog,
	}

	app.Handle(http.MethodGet, version, "/books", bgh.List)
	app.Handle(http.MethodGet, version, "/books/:id", bgh.QueryByID)
	app.Handle(http.MethodPost, version, "/books", bgh.Create)
}
