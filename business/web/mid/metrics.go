package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/lockbox/business/sys/metrics"
	"github.com/ardanlabs/lockbox/foundation/web"
)

// Metrics updates program counters.
func Metrics(rec *metrics.Recorder) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			status := http.StatusOK
			since := time.Duration(0)
			if v, verr := web.GetValues(ctx); verr == nil {
				if v.StatusCode != 0 {
					status = v.StatusCode
				}
				since = time.Since(v.Now)
			}

			rec.ObserveRequest(r.Method, status, since)

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
