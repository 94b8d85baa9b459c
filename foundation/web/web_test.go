package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/lockbox/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type payload struct {
	Name string `json:"name"`
}

func (p payload) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func Test_App(t *testing.T) {
	t.Log("Given the need to route requests through middleware.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a request with a path parameter.", testID)
		{
			var order []string
			mw := func(name string) web.Middleware {
				return func(h web.Handler) web.Handler {
					return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						order = append(order, name)
						return h(ctx, w, r)
					}
				}
			}

			app := web.NewApp(make(chan os.Signal, 1), mw("app"))

			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				v, err := web.GetValues(ctx)
				if err != nil {
					return err
				}
				if v.TraceID == "" {
					return errors.New("missing trace id")
				}
				return web.Respond(ctx, w, web.Param(r, "id"), http.StatusOK)
			}
			app.Handle(http.MethodGet, "v1", "/item/:id", h, mw("route"))

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/item/7", nil))

			if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `"7"` {
				t.Fatalf("\t%s\tTest %d:\tShould respond with the parameter: %d %s", failed, testID, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest %d:\tShould respond with the parameter.", success, testID)

			if len(order) != 2 || order[0] != "app" || order[1] != "route" {
				t.Fatalf("\t%s\tTest %d:\tShould run app middleware first: %v", failed, testID, order)
			}
			t.Logf("\t%s\tTest %d:\tShould run app middleware first.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a handler returns a shutdown error.", testID)
		{
			shutdown := make(chan os.Signal, 1)
			app := web.NewApp(shutdown)

			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return web.NewShutdownError("integrity issue")
			}
			app.Handle(http.MethodGet, "", "/down", h)

			app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/down", nil))

			select {
			case <-shutdown:
				t.Logf("\t%s\tTest %d:\tShould signal shutdown.", success, testID)
			default:
				t.Fatalf("\t%s\tTest %d:\tShould signal shutdown.", failed, testID)
			}
		}
	}
}

func Test_Decode(t *testing.T) {
	t.Log("Given the need to decode and validate request bodies.")
	{
		tt := []struct {
			name string
			body string
			ok   bool
		}{
			{"valid", `{"name":"alice"}`, true},
			{"invalid", `{"name":""}`, false},
			{"unknown", `{"nick":"alice"}`, false},
			{"garbage", `{`, false},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen decoding the %s body.", testID, tst.name)
			{
				r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tst.body))

				var p payload
				err := web.Decode(r, &p)
				if (err == nil) != tst.ok {
					t.Fatalf("\t%s\tTest %d:\tShould decode with ok[%v]: %v", failed, testID, tst.ok, err)
				}
				t.Logf("\t%s\tTest %d:\tShould decode with ok[%v].", success, testID, tst.ok)
			}
		}
	}
}
