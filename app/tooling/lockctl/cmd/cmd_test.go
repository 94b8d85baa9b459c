package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Commands(t *testing.T) {
	t.Log("Given the need to drive the brain from the console.")
	{
		var lastBody map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastBody = nil
			json.NewDecoder(r.Body).Decode(&lastBody)

			w.Header().Set("Content-Type", "application/json")

			switch r.URL.Path {
			case "/v1/passcode/generate":
				w.Write([]byte(`{"status":"passcode generated","user":"alice","code":"482913"}`))
			case "/v1/ledger/stats":
				w.Write([]byte(`{"total_blocks":3,"capacity":20,"latest_hash":"0x1234","latest_id":3,"transactions":7}`))
			case "/v1/lock/open":
				w.WriteHeader(http.StatusLocked)
				w.Write([]byte(`{"error":"system halted"}`))
			case "/v1/ledger/reset":
				w.Write([]byte(`{"status":"ledger reset"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		tt := []struct {
			name string
			args []string
			out  string
			err  string
		}{
			{"passcode", []string{"passcode", "--user", "alice"}, "Passcode for alice: 482913", ""},
			{"stats", []string{"stats"}, "Blocks:       3 / 20", ""},
			{"halted", []string{"lock", "open"}, "", "(423) system halted"},
			{"bad lock arg", []string{"lock", "jiggle"}, "", "invalid argument"},
			{"reset unconfirmed", []string{"reset"}, "", "requires --confirm RESET"},
			{"reset", []string{"reset", "--confirm", "RESET"}, "ledger reset", ""},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen running the %s command.", testID, tst.name)
			{
				var out bytes.Buffer
				rootCmd.SetOut(&out)
				rootCmd.SetArgs(append(tst.args, "--url", srv.URL))

				err := rootCmd.Execute()

				switch tst.err {
				case "":
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould succeed: %v", failed, testID, err)
					}
					if !strings.Contains(out.String(), tst.out) {
						t.Fatalf("\t%s\tTest %d:\tShould print %q, got %q.", failed, testID, tst.out, out.String())
					}
					t.Logf("\t%s\tTest %d:\tShould print %q.", success, testID, tst.out)

				default:
					if err == nil || !strings.Contains(err.Error(), tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould fail with %q, got %v.", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould fail with %q.", success, testID, tst.err)
				}
			}
		}

		confirm = ""
		if lastBody["confirm"] != "RESET" {
			t.Fatalf("\t%s\tShould send the confirmation token: %v", failed, lastBody)
		}
		t.Logf("\t%s\tShould send the confirmation token.", success)
	}
}
