package access_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ardanlabs/lockbox/business/core/access"
)

func Test_PasscodeTable(t *testing.T) {
	t.Log("Given the need to hold one passcode per user.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the table is filled past capacity.", testID)
		{
			pt := access.NewPasscodeTable(time.Minute)

			for i := range access.TableCapacity {
				pt.Insert(fmt.Sprintf("user%d", i), "111111", time.Duration(i)*time.Second)
			}

			evicted := pt.Insert("late", "222222", 20*time.Second)
			if evicted != "user0" || pt.Len() != access.TableCapacity {
				t.Fatalf("\t%s\tTest %d:\tShould evict the oldest entry: got %q len %d", failed, testID, evicted, pt.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould evict the oldest entry.", success, testID)

			if code, ok := pt.Lookup("late", 21*time.Second); !ok || code != "222222" {
				t.Fatalf("\t%s\tTest %d:\tShould find the new entry.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould find the new entry.", success, testID)

			pt.Insert("late", "333333", 22*time.Second)
			if code, _ := pt.Lookup("late", 22*time.Second); code != "333333" {
				t.Fatalf("\t%s\tTest %d:\tShould replace the entry of the same user.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the entry of the same user.", success, testID)

			if n := pt.Purge(2 * time.Minute); n != access.TableCapacity {
				t.Fatalf("\t%s\tTest %d:\tShould purge every expired entry: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould purge every expired entry.", success, testID)
		}
	}
}
