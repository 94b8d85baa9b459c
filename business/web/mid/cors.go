package mid

import (
	"context"
	"net/http"
	"strings"

	"github.com/ardanlabs/lockbox/foundation/web"
)

// Methods and headers a browser console is allowed to use. X-Peer-ID ties a
// one-shot attribute write to a connected peer session.
var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}, ", ")
	corsHeaders = strings.Join([]string{"Origin", "Accept", "Content-Type", "Content-Length", "X-Peer-ID"}, ", ")
)

// Cors sets the response headers needed for Cross-Origin Resource Sharing.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsHeaders)

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
