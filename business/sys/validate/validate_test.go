package validate_test

import (
	"testing"

	"github.com/ardanlabs/lockbox/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type verify struct {
	User     string `json:"user" validate:"required,max=15"`
	Passcode string `json:"passcode" validate:"required,len=6,numeric"`
}

func Test_Check(t *testing.T) {
	type table struct {
		name   string
		val    verify
		fields []string
	}

	tt := []table{
		{name: "valid", val: verify{User: "alice", Passcode: "482913"}},
		{name: "missing-user", val: verify{Passcode: "482913"}, fields: []string{"user"}},
		{name: "short-code", val: verify{User: "alice", Passcode: "123"}, fields: []string{"passcode"}},
	}

	t.Log("Given the need to validate request models.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen checking the %s model.", testID, tst.name)
			{
				err := validate.Check(tst.val)
				if len(tst.fields) == 0 {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
					continue
				}

				fields := validate.GetFieldErrors(err).Fields()
				for _, f := range tst.fields {
					if _, exists := fields[f]; !exists {
						t.Fatalf("\t%s\tTest %d:\tShould report field %q: %v", failed, testID, f, err)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould report the failing fields.", success, testID)
			}
		}
	}
}
