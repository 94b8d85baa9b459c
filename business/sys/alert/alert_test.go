package alert_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ardanlabs/lockbox/business/sys/alert"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Alert(t *testing.T) {
	t.Log("Given the need to raise an alert on tamper shutdown.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the webhook is enabled.", testID)
		{
			bodies := make(chan map[string]any, 1)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var m map[string]any
				json.NewDecoder(r.Body).Decode(&m)
				bodies <- m
			}))
			defer srv.Close()

			m := alert.New(alert.Config{
				Log:     zap.NewNop().Sugar(),
				Enabled: true,
				Webhook: srv.URL,
				Device:  "brain-1",
			})

			m.Alert("accel avg 20.00 > 15.00")
			m.Wait()

			body := <-bodies
			if text, _ := body["text"].(string); !strings.Contains(text, "TAMPER") {
				t.Fatalf("\t%s\tTest %d:\tShould post the tamper alert: %v", failed, testID, body)
			}
			t.Logf("\t%s\tTest %d:\tShould post the tamper alert.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the webhook is disabled.", testID)
		{
			m := alert.New(alert.Config{Log: zap.NewNop().Sugar()})

			if err := m.LedgerInvalid(t.Context(), 1, "hash mismatch"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould do nothing: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould do nothing.", success, testID)
		}
	}
}
