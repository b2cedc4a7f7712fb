package updater

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/twpayne/go-vfs"
)

// LedgerName is the newline-delimited, append-only record of versions that
// previously failed to start after install, kept under the local prefix.
const LedgerName = ".orm_failed"

// ledger is the failed-version ledger. A version recorded here is never
// auto-retried; only exact string matches count, differently formatted
// strings denoting the same semantic version are not deduplicated.
type ledger struct {
	fs   vfs.FS
	path string
}

func newLedger(fs vfs.FS, localPrefix string) *ledger {
	return &ledger{fs: fs, path: filepath.Join(localPrefix, LedgerName)}
}

// Contains scans the ledger line by line for an exact match of ver. A
// missing ledger file means no version ever failed.
func (l *ledger) Contains(ver string) (bool, error) {
	content, err := l.fs.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &IoError{Op: "reading ledger " + l.path, Err: err}
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ver {
			return true, nil
		}
	}

	return false, nil
}

// Append records ver as failed, creating the ledger if absent. The ledger
// only ever grows; compaction is left to operators.
func (l *ledger) Append(ver string) error {
	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &IoError{Op: "opening ledger " + l.path, Err: err}
	}
	defer f.Close()

	if _, err := f.WriteString(ver + "\n"); err != nil {
		return &IoError{Op: "appending to ledger " + l.path, Err: err}
	}

	return nil
}
