package bolt_test

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/lockbox/foundation/ledger/storage/bolt"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_ReadWrite(t *testing.T) {
	t.Log("Given the need to keep the ledger image in a bolt database.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen writing and reopening the database.", testID)
		{
			path := filepath.Join(t.TempDir(), "ledger.db")

			b, err := bolt.New(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the database: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to open the database.", success, testID)

			if _, err := b.Read(); !errors.Is(err, fs.ErrNotExist) {
				t.Fatalf("\t%s\tTest %d:\tShould get not exist before the first write: %v", failed, testID, err)
			}

			image := bytes.Repeat([]byte{0x01, 0x02}, 100)
			if err := b.Write(image); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write: %v", failed, testID, err)
			}

			if err := b.Close(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to close: %v", failed, testID, err)
			}

			b, err = bolt.New(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reopen the database: %v", failed, testID, err)
			}
			defer b.Close()

			got, err := b.Read()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read: %v", failed, testID, err)
			}

			if !bytes.Equal(got, image) {
				t.Fatalf("\t%s\tTest %d:\tShould read back the same image.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould read back the same image.", success, testID)

			if err := b.Remove(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to remove: %v", failed, testID, err)
			}

			if _, err := b.Read(); !errors.Is(err, fs.ErrNotExist) {
				t.Fatalf("\t%s\tTest %d:\tShould get not exist after remove: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get not exist after remove.", success, testID)
		}
	}
}
