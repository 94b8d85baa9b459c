package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/lockbox/business/sys/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Recorder(t *testing.T) {
	t.Log("Given the need to expose the brain metrics.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block is observed.", testID)
		{
			reg := prometheus.NewRegistry()
			rec := metrics.NewRecorder(reg)

			rec.ObserveBlock(3, 2)
			rec.ObserveMining(20 * time.Millisecond)
			rec.SetShutdown(true)

			w := httptest.NewRecorder()
			metrics.Handler(reg).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

			body, _ := io.ReadAll(w.Body)
			for _, exp := range []string{"lockbox_blocks_appended_total 1", "lockbox_transactions_sealed_total 3", "lockbox_ledger_blocks 2", "lockbox_shutdown 1", "lockbox_mining_duration_seconds_count 1"} {
				if !strings.Contains(string(body), exp) {
					t.Fatalf("\t%s\tTest %d:\tShould expose %q.", failed, testID, exp)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould expose the block metrics.", success, testID)
		}
	}
}
