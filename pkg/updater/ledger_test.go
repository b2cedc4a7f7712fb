package updater

import (
	"testing"

	"github.com/twpayne/go-vfs/vfst"
)

func TestLedgerContainsMissingFile(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/opt/orm/.keep": "",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	l := newLedger(fs, "/opt/orm")

	found, err := l.Contains("1.1.0")
	if err != nil {
		t.Fatal(err)
	}

	if found {
		t.Error("a missing ledger must mean no version ever failed")
	}
}

func TestLedgerAppendThenContains(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/opt/orm/.keep": "",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	l := newLedger(fs, "/opt/orm")

	if err := l.Append("1.1.0"); err != nil {
		t.Fatal(err)
	}
	if err := l.Append("1.2.0"); err != nil {
		t.Fatal(err)
	}

	for _, ver := range []string{"1.1.0", "1.2.0"} {
		found, err := l.Contains(ver)
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Errorf("expected %s to be recorded", ver)
		}
	}

	content, err := fs.ReadFile("/opt/orm/.orm_failed")
	if err != nil {
		t.Fatal(err)
	}

	expected := "1.1.0\n1.2.0\n"
	if string(content) != expected {
		t.Errorf("unexpected ledger content: expected=%q, got=%q", expected, string(content))
	}
}

func TestLedgerExactStringMatchOnly(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/opt/orm/.orm_failed": "v1.1.0\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	l := newLedger(fs, "/opt/orm")

	found, err := l.Contains("1.1.0")
	if err != nil {
		t.Fatal(err)
	}

	if found {
		t.Error("differently formatted strings denoting the same version must not be deduplicated")
	}
}
