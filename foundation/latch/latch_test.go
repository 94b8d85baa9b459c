package latch_test

import (
	"sync"
	"testing"

	"github.com/ardanlabs/lockbox/foundation/latch"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Latch(t *testing.T) {
	t.Log("Given the need to latch the system exactly once.")
	{
		l := latch.New()

		if l.IsSet() {
			t.Fatalf("\t%s\tShould start open.", failed)
		}
		t.Logf("\t%s\tShould start open.", success)

		if l.Context().Err() != nil {
			t.Fatalf("\t%s\tShould have a live context while open.", failed)
		}
		t.Logf("\t%s\tShould have a live context while open.", success)

		const callers = 10
		var wg sync.WaitGroup
		wins := make(chan bool, callers)
		wg.Add(callers)
		for range callers {
			go func() {
				defer wg.Done()
				wins <- l.Set("tamper")
			}()
		}
		wg.Wait()
		close(wins)

		var first int
		for w := range wins {
			if w {
				first++
			}
		}
		if first != 1 {
			t.Fatalf("\t%s\tShould report exactly one winning Set, got %d.", failed, first)
		}
		t.Logf("\t%s\tShould report exactly one winning Set.", success)

		select {
		case <-l.Done():
			t.Logf("\t%s\tShould close the done channel.", success)
		default:
			t.Fatalf("\t%s\tShould close the done channel.", failed)
		}

		if l.Reason() != "tamper" {
			t.Fatalf("\t%s\tShould keep the reason, got %q.", failed, l.Reason())
		}
		t.Logf("\t%s\tShould keep the reason.", success)

		if l.Set("again") {
			t.Fatalf("\t%s\tShould not set twice.", failed)
		}
		t.Logf("\t%s\tShould not set twice.", success)
	}
}
