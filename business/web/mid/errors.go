package mid

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/business/sys/validate"
	"github.com/ardanlabs/lockbox/business/web/errs"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"github.com/ardanlabs/lockbox/foundation/ledger/pipeline"
	"github.com/ardanlabs/lockbox/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform way.
// Unexpected errors (status >= 500) are logged.
func Errors(log *zap.SugaredLogger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// If the context is missing this value, request the service
			// to be shutdown gracefully.
			v, err := web.GetValues(ctx)
			if err != nil {
				return web.NewShutdownError("web value missing from context")
			}

			// Run the next handler and catch any propagated error.
			if err := handler(ctx, w, r); err != nil {

				// Log the error.
				log.Errorw("ERROR", "traceid", v.TraceID, "ERROR", err)

				er, status := Response(err)

				// Respond with the error back to the client.
				if err := web.Respond(ctx, w, er, status); err != nil {
					return err
				}

				// If we receive the shutdown err we need to return it
				// back to the base handler to shut down the service.
				if web.IsShutdown(err) {
					return err
				}
			}

			// The error has been handled so we can stop propagating it.
			return nil
		}

		return h
	}

	return m
}

// Response maps an error to the response body and status code the api
// sends for it.
func Response(err error) (errs.Response, int) {
	switch {
	case validate.IsFieldErrors(err):
		fe := validate.GetFieldErrors(err)
		return errs.Response{Error: "data validation error", Fields: fe.Fields()}, http.StatusBadRequest

	case errs.IsTrusted(err):
		t := errs.GetTrusted(err)
		return errs.Response{Error: t.Error()}, t.Status

	case errors.Is(err, access.ErrShutdown), errors.Is(err, events.ErrHalted):
		return errs.Response{Error: access.ErrShutdown.Error()}, http.StatusLocked

	case errors.Is(err, attr.ErrInvalidArgument), errors.Is(err, access.ErrBadUser):
		return errs.Response{Error: err.Error()}, http.StatusBadRequest

	case errors.Is(err, access.ErrNoPresence):
		return errs.Response{Error: err.Error()}, http.StatusConflict

	case errors.Is(err, database.ErrNotFound), errors.Is(err, events.ErrNotFound):
		return errs.Response{Error: err.Error()}, http.StatusNotFound

	case errors.Is(err, database.ErrFull), errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, events.ErrCapacity):
		return errs.Response{Error: err.Error()}, http.StatusServiceUnavailable
	}

	if idx, ok := database.InvalidAt(err); ok {
		return errs.Response{Error: err.Error(), Fields: map[string]string{"index": strconv.Itoa(idx)}}, http.StatusConflict
	}

	return errs.Response{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError
}
