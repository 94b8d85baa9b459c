package notify_test

import (
	"bytes"
	"testing"

	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/notify"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/latch"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Notify(t *testing.T) {
	t.Log("Given the need to push state changes to peers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a status change is sent before and after shutdown.", testID)
		{
			evts := events.New()
			lt := latch.New()
			n := notify.New(evts, lt)

			ch, _ := evts.Acquire("console")
			evts.Subscribe("console", events.TopicStatus, true)

			n.Status(access.State{Phase: access.PhaseWaitingPasscode})

			msg := <-ch
			if msg.Topic != events.TopicStatus || !bytes.Equal(msg.Payload, []byte{2, 0, 0, 0}) {
				t.Fatalf("\t%s\tTest %d:\tShould receive the encoded status: %+v", failed, testID, msg)
			}
			t.Logf("\t%s\tTest %d:\tShould receive the encoded status.", success, testID)

			lt.Set("tamper")
			n.Status(access.State{Phase: access.PhaseShutdown})

			select {
			case msg := <-ch:
				t.Fatalf("\t%s\tTest %d:\tShould drop notifications after shutdown: %+v", failed, testID, msg)
			default:
			}
			t.Logf("\t%s\tTest %d:\tShould drop notifications after shutdown.", success, testID)
		}
	}
}
