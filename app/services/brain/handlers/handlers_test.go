package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/lockbox/app/services/brain/handlers"
	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/business/core/notify"
	"github.com/ardanlabs/lockbox/business/core/sensor"
	"github.com/ardanlabs/lockbox/business/sys/metrics"
	"github.com/ardanlabs/lockbox/foundation/actuator"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"github.com/ardanlabs/lockbox/foundation/ledger/pipeline"
	"github.com/ardanlabs/lockbox/foundation/ledger/storage/memory"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// presenceBeacon is an ibeacon payload from the presence node carrying a
// VOC reading of 600 in the major field.
const presenceBeacon = "4c000215" + "00000000000000000000000000000000" + "0258" + "0000" + "c5"

type brain struct {
	mux  http.Handler
	lt   *latch.Latch
	db   *database.Database
	evts *events.Events
}

func newBrain(t *testing.T) *brain {
	log := zap.NewNop().Sugar()
	lt := latch.New()

	db, err := database.New(database.Config{Storage: memory.New(), Latch: lt})
	if err != nil {
		t.Fatalf("Should be able to open the ledger: %v", err)
	}

	evts := events.New()
	notifier := notify.New(evts, lt)

	pl := pipeline.Run(pipeline.Config{
		DB:           db,
		Latch:        lt,
		FlushTimeout: 20 * time.Millisecond,
	})
	t.Cleanup(pl.Shutdown)

	core := access.NewCore(access.Config{
		Log:       log,
		Latch:     lt,
		Pipeline:  pl,
		Ledger:    db,
		Actuator:  actuator.New(nil),
		Notifier:  notifier,
		Peers:     evts,
		Generator: func(time.Duration, string) string { return "482913" },
	})

	sense := sensor.NewCore(sensor.Config{
		Log:      log,
		Access:   core,
		Notifier: notifier,
	})

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		Metrics:  metrics.NewRecorder(prometheus.NewRegistry()),
		Latch:    lt,
		DB:       db,
		Pipeline: pl,
		Access:   core,
		Sensor:   sense,
		Evts:     evts,
		Beacons:  attr.BeaconAddrs{Presence: attr.PresenceAddr, Tamper: attr.TamperAddr},
	})

	return &brain{mux: mux, lt: lt, db: db, evts: evts}
}

func (b *brain) do(method string, path string, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	b.mux.ServeHTTP(w, r)
	return w
}

// =============================================================================

func Test_Attributes(t *testing.T) {
	t.Log("Given the need to unlock through the attribute surface.")
	{
		b := newBrain(t)

		tt := []struct {
			name   string
			method string
			path   string
			body   string
			status int
			resp   string
		}{
			{"short passcode", http.MethodPut, "/v1/attr/passcode", "123", http.StatusBadRequest, ""},
			{"read only", http.MethodPut, "/v1/attr/lock", "\x01", http.StatusMethodNotAllowed, ""},
			{"unknown", http.MethodGet, "/v1/attr/battery", "", http.StatusNotFound, ""},
			{"presence", http.MethodPost, "/v1/scan", `{"addr":"da:ff:aa:ff:aa:ff","data":"` + presenceBeacon + `"}`, http.StatusOK, `{"kind":"presence"}`},
			{"username", http.MethodPut, "/v1/attr/username", "alice\x00\x00", http.StatusOK, `{"attr":"username","accepted":true}`},
			{"read username", http.MethodGet, "/v1/attr/username", "", http.StatusOK, "alice"},
			{"read passcode", http.MethodGet, "/v1/attr/passcode", "", http.StatusOK, "482913"},
			{"passcode", http.MethodPut, "/v1/attr/passcode", "482913", http.StatusOK, `{"attr":"passcode","accepted":true}`},
			{"read lock", http.MethodGet, "/v1/attr/lock", "", http.StatusOK, "\x01"},
			{"read status", http.MethodGet, "/v1/attr/status", "", http.StatusOK, "\x00\x00\x00\x00"},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s request.", testID, tst.name)
			{
				w := b.do(tst.method, tst.path, tst.body)
				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould respond with %d, got %d: %s", failed, testID, tst.status, w.Code, w.Body.String())
				}
				t.Logf("\t%s\tTest %d:\tShould respond with %d.", success, testID, tst.status)

				if tst.resp != "" && strings.TrimSpace(w.Body.String()) != tst.resp {
					t.Fatalf("\t%s\tTest %d:\tShould respond with %q, got %q.", failed, testID, tst.resp, w.Body.String())
				}
				t.Logf("\t%s\tTest %d:\tShould respond with the expected body.", success, testID)
			}
		}
	}
}

func Test_Console(t *testing.T) {
	t.Log("Given the need to drive the brain from the console.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen generating a passcode without presence.", testID)
		{
			b := newBrain(t)

			w := b.do(http.MethodPost, "/v1/passcode/generate", `{"user":"alice"}`)
			if w.Code != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould respond with 409, got %d.", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould respond with 409.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen running a full access cycle.", testID)
		{
			b := newBrain(t)

			steps := []struct {
				path   string
				body   string
				status int
			}{
				{"/v1/presence", `{"reading":600}`, http.StatusOK},
				{"/v1/passcode/generate", `{"user":"alice"}`, http.StatusOK},
				{"/v1/passcode/verify", `{"user":"alice","code":"12345"}`, http.StatusBadRequest},
				{"/v1/passcode/verify", `{"user":"alice","code":"482913"}`, http.StatusOK},
				{"/v1/lock/close", ``, http.StatusOK},
			}

			for _, s := range steps {
				if w := b.do(http.MethodPost, s.path, s.body); w.Code != s.status {
					t.Fatalf("\t%s\tTest %d:\tShould respond to %s with %d, got %d: %s", failed, testID, s.path, s.status, w.Code, w.Body.String())
				}
			}
			t.Logf("\t%s\tTest %d:\tShould complete the access cycle.", success, testID)

			w := b.do(http.MethodGet, "/v1/status", "")
			var st struct {
				Phase    string `json:"phase"`
				LockOpen bool   `json:"lock_open"`
				Username string `json:"username"`
			}
			if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould decode the status: %v", failed, testID, err)
			}
			if st.Phase != "READY" || st.LockOpen || st.Username != "alice" {
				t.Fatalf("\t%s\tTest %d:\tShould be ready with the lock closed: %+v", failed, testID, st)
			}
			t.Logf("\t%s\tTest %d:\tShould be ready with the lock closed.", success, testID)

			var blocks []any
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				w := b.do(http.MethodGet, "/v1/ledger/history/alice", "")
				if w.Code == http.StatusOK {
					json.NewDecoder(w.Body).Decode(&blocks)
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			if len(blocks) == 0 {
				t.Fatalf("\t%s\tTest %d:\tShould record the history of the user.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould record the history of the user.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen triggering a tamper shutdown.", testID)
		{
			b := newBrain(t)

			if w := b.do(http.MethodPost, "/v1/tamper", `{"reason":"drilled"}`); w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould accept the trigger, got %d.", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the trigger.", success, testID)

			tt := []struct {
				method string
				path   string
				body   string
			}{
				{http.MethodPut, "/v1/attr/username", "alice"},
				{http.MethodPost, "/v1/presence", `{"reading":600}`},
				{http.MethodPost, "/v1/lock/open", ""},
				{http.MethodPost, "/v1/ledger/reset", `{"confirm":"RESET"}`},
				{http.MethodGet, "/v1/peers", ""},
			}

			for _, tst := range tt {
				if w := b.do(tst.method, tst.path, tst.body); w.Code != http.StatusLocked {
					t.Fatalf("\t%s\tTest %d:\tShould reject %s with 423, got %d.", failed, testID, tst.path, w.Code)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould reject every change with 423.", success, testID)
		}
	}
}

func Test_Ledger(t *testing.T) {
	t.Log("Given the need to inspect and reset the ledger.")
	{
		b := newBrain(t)

		tt := []struct {
			name   string
			method string
			path   string
			body   string
			status int
		}{
			{"stats", http.MethodGet, "/v1/ledger/stats", "", http.StatusOK},
			{"blocks", http.MethodGet, "/v1/ledger/blocks", "", http.StatusOK},
			{"genesis", http.MethodGet, "/v1/ledger/blocks/1", "", http.StatusOK},
			{"missing block", http.MethodGet, "/v1/ledger/blocks/9", "", http.StatusNotFound},
			{"bad block", http.MethodGet, "/v1/ledger/blocks/x", "", http.StatusBadRequest},
			{"no history", http.MethodGet, "/v1/ledger/history/nobody", "", http.StatusNoContent},
			{"validate", http.MethodPost, "/v1/ledger/validate", "", http.StatusOK},
			{"reset unconfirmed", http.MethodPost, "/v1/ledger/reset", `{"confirm":"yes"}`, http.StatusBadRequest},
			{"reset", http.MethodPost, "/v1/ledger/reset", `{"confirm":"RESET"}`, http.StatusOK},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s request.", testID, tst.name)
			{
				w := b.do(tst.method, tst.path, tst.body)
				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould respond with %d, got %d: %s", failed, testID, tst.status, w.Code, w.Body.String())
				}
				t.Logf("\t%s\tTest %d:\tShould respond with %d.", success, testID, tst.status)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen reading the stats after a reset.", testID)
		{
			w := b.do(http.MethodGet, "/v1/ledger/stats", "")

			var st struct {
				TotalBlocks uint32 `json:"total_blocks"`
				LatestHash  string `json:"latest_hash"`
			}
			json.NewDecoder(w.Body).Decode(&st)

			if st.TotalBlocks != 1 || !strings.HasPrefix(st.LatestHash, "0x") {
				t.Fatalf("\t%s\tTest %d:\tShould hold only the genesis block: %+v", failed, testID, st)
			}
			t.Logf("\t%s\tTest %d:\tShould hold only the genesis block.", success, testID)
		}
	}
}

func Test_Peers(t *testing.T) {
	t.Log("Given the need to push notifications to peers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a peer subscribes to the lock topic.", testID)
		{
			b := newBrain(t)

			srv := httptest.NewServer(b.mux)
			defer srv.Close()

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/peers"
			c, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould connect: %v", failed, testID, err)
			}
			defer c.Close()
			c.SetReadDeadline(time.Now().Add(5 * time.Second))

			var frame struct {
				Type     string `json:"type"`
				Peer     string `json:"peer"`
				Topic    string `json:"topic"`
				Payload  []byte `json:"payload"`
				Accepted bool   `json:"accepted"`
			}

			if err := c.ReadJSON(&frame); err != nil || frame.Type != "welcome" || frame.Peer == "" {
				t.Fatalf("\t%s\tTest %d:\tShould be welcomed: %+v %v", failed, testID, frame, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be welcomed.", success, testID)

			c.WriteJSON(map[string]string{"type": "subscribe", "topic": "lock"})
			if err := c.ReadJSON(&frame); err != nil || frame.Type != "result" || !frame.Accepted {
				t.Fatalf("\t%s\tTest %d:\tShould accept the subscription: %+v %v", failed, testID, frame, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the subscription.", success, testID)

			if w := b.do(http.MethodPost, "/v1/lock/open", ""); w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould open the lock, got %d.", failed, testID, w.Code)
			}

			if err := c.ReadJSON(&frame); err != nil || frame.Type != "notify" || frame.Topic != "lock" || len(frame.Payload) != 1 || frame.Payload[0] != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould push the lock state: %+v %v", failed, testID, frame, err)
			}
			t.Logf("\t%s\tTest %d:\tShould push the lock state.", success, testID)

			if w := b.do(http.MethodPost, "/v1/tamper", "{}"); w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould trigger the shutdown, got %d.", failed, testID, w.Code)
			}

			for {
				if err := c.ReadJSON(&frame); err != nil {
					break
				}
			}
			t.Logf("\t%s\tTest %d:\tShould disconnect the peer on shutdown.", success, testID)

			if !b.evts.Halted() || b.evts.Len() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould halt the events hub.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould halt the events hub.", success, testID)
		}
	}
}
