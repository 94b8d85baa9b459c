// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/web/errs"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"github.com/ardanlabs/lockbox/foundation/ledger/pipeline"
	"github.com/ardanlabs/lockbox/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log      *zap.SugaredLogger
	DB       *database.Database
	Pipeline *pipeline.Pipeline
	Access   *access.Core
}

// Stats returns the ledger summary.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toStats(h.DB.Stats(), h.Pipeline.Len()), http.StatusOK)
}

// Blocks returns every block in the ledger.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks := h.DB.Blocks()

	blocks := make([]block, len(dbBlocks))
	for i, b := range dbBlocks {
		blocks[i] = toBlock(b)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Block returns the block with the specified sequence id.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	seq, err := strconv.ParseUint(web.Param(r, "seq"), 10, 32)
	if err != nil {
		return errs.NewTrusted(errors.New("invalid sequence id"), http.StatusBadRequest)
	}

	b, err := h.DB.Block(uint32(seq))
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toBlock(b), http.StatusOK)
}

// History returns the transactions recorded for a user.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans := h.DB.History(web.Param(r, "user"))
	if len(trans) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, toTxs(trans), http.StatusOK)
}

// Validate walks the chain and reports the first block that fails.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.DB.Validate(); err != nil {
		return err
	}

	return web.Respond(ctx, w, validation{Valid: true}, http.StatusOK)
}

// Reset starts the ledger over from a new genesis block.
func (h Handlers) Reset(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var rs reset
	if err := web.Decode(r, &rs); err != nil {
		return err
	}

	if err := h.Access.Reset(); err != nil {
		return err
	}

	return web.Respond(ctx, w, result{Status: "ledger reset"}, http.StatusOK)
}
