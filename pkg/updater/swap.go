package updater

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cchantep/orm/pkg/shell"
)

// SwapMarkerName is the resumable marker recording an in-flight swap, so an
// agent restart can finish or roll back an interrupted one.
const SwapMarkerName = ".orm_swap"

const archiveTimestampLayout = "20060102150405"

// swapAndRun swaps the staged application tree into place, supervises
// run.sh, and follows the success or failure path. Once the first rename
// succeeds, the only valid exits are completion or revert.
func (u *Updater) swapAndRun(stagedApp, verStr string) (ExecutionStatus, error) {
	appDir := u.appDir()
	archived := filepath.Join(u.LocalPrefix,
		fmt.Sprintf("%s-%s", u.AppName, u.now().UTC().Format(archiveTimestampLayout)))

	if err := u.writeSwapMarker(archived); err != nil {
		return nil, err
	}

	u.Logger.Info("renaming previous application directory", "to", archived)

	if err := u.fs.Rename(appDir, archived); err != nil {
		u.clearSwapMarker()
		return nil, &SwapError{Op: "archiving " + appDir, Err: err}
	}

	if err := u.fs.Rename(stagedApp, appDir); err != nil {
		// Nothing was written into appDir yet; the archived generation is
		// the recovery point.
		if rerr := u.fs.Rename(archived, appDir); rerr != nil {
			return nil, &RevertError{Err: rerr}
		}
		u.clearSwapMarker()
		return nil, &SwapError{Op: "installing staged tree to " + appDir, Err: err}
	}

	runScript := filepath.Join(appDir, "run.sh")

	u.Logger.Info("starting updated application", "script", runScript)

	sh := &shell.Shell{Exec: u.exec}
	res := sh.Interact(&shell.Command{Name: runScript})

	if res.Error != nil && !isExitError(res.Error) {
		return u.failUpdate(res.Error, archived, verStr)
	}

	u.Logger.Info("updated application terminated", "exitStatus", res.ExitStatus)

	if err := u.archiveAndPrune(archived, verStr); err != nil {
		return u.failUpdate(err, archived, verStr)
	}

	return &AppTerminated{ExitStatus: res.ExitStatus}, nil
}

// archiveAndPrune is the success path: compress the archived previous
// generation, drop its uncompressed tree, delete older retained archives
// (at most one generation is kept at rest) and record the new version.
func (u *Updater) archiveAndPrune(archived, verStr string) error {
	stale, err := u.retainedArchives()
	if err != nil {
		return err
	}

	tarball, err := u.compressDir(archived)
	if err != nil {
		return err
	}

	u.Logger.V(1).Info("archived previous generation", "tarball", tarball)

	if err := u.fs.RemoveAll(archived); err != nil {
		return &IoError{Op: "removing archived directory " + archived, Err: err}
	}

	for _, path := range stale {
		if err := u.fs.Remove(path); err != nil {
			return &IoError{Op: "pruning retained archive " + path, Err: err}
		}
		u.Logger.V(1).Info("pruned retained archive", "path", path)
	}

	if err := u.writeVersionMarker(verStr); err != nil {
		return err
	}

	u.clearSwapMarker()

	return nil
}

// failUpdate is the failure path: record the version in the ledger so it is
// never auto-retried, then restore the archived previous generation. A
// failed restore is unrecoverable.
func (u *Updater) failUpdate(cause error, archived, verStr string) (ExecutionStatus, error) {
	msg := fmt.Sprintf("reverts due to failed execution of application from update archive: %s", cause)

	u.Logger.Info(msg, "warning", cause.Error())

	if u.metrics != nil {
		u.metrics.Failed.Inc()
	}

	if err := u.ledger.Append(verStr); err != nil {
		msg = fmt.Sprintf("%s (ledger append failed: %s)", msg, err)
	}

	appDir := u.appDir()

	if _, err := u.fs.Stat(appDir); err == nil {
		if err := u.fs.RemoveAll(appDir); err != nil {
			return nil, &RevertError{Err: err}
		}
	}

	if err := u.fs.Rename(archived, appDir); err != nil {
		return nil, &RevertError{Err: err}
	}

	if u.metrics != nil {
		u.metrics.Reverts.Inc()
	}

	u.clearSwapMarker()

	return &NoUpdate{Reason: msg}, nil
}

func (u *Updater) swapMarkerPath() string {
	return filepath.Join(u.LocalPrefix, SwapMarkerName)
}

func (u *Updater) writeSwapMarker(archived string) error {
	if err := u.fs.WriteFile(u.swapMarkerPath(), []byte(archived+"\n"), 0644); err != nil {
		return &IoError{Op: "writing swap marker", Err: err}
	}
	return nil
}

func (u *Updater) clearSwapMarker() {
	if err := u.fs.Remove(u.swapMarkerPath()); err != nil && !os.IsNotExist(err) {
		u.Logger.Info("fails to clear swap marker", "warning", err.Error())
	}
}

// recoverInterruptedSwap detects a leftover swap marker from a crashed
// attempt and rolls back to the recorded previous generation when it is
// still on disk, or finishes the cleanup when it is not.
func (u *Updater) recoverInterruptedSwap() error {
	content, err := u.fs.ReadFile(u.swapMarkerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &IoError{Op: "reading swap marker", Err: err}
	}

	archived := strings.TrimSpace(string(content))

	u.Logger.Info("found interrupted swap", "archived", archived)

	if archived != "" {
		if _, err := u.fs.Stat(archived); err == nil {
			appDir := u.appDir()

			if _, err := u.fs.Stat(appDir); err == nil {
				if err := u.fs.RemoveAll(appDir); err != nil {
					return &RevertError{Err: err}
				}
			}

			if err := u.fs.Rename(archived, appDir); err != nil {
				return &RevertError{Err: err}
			}

			u.Logger.Info("rolled back interrupted swap", "appDir", appDir)

			if u.metrics != nil {
				u.metrics.Reverts.Inc()
			}
		}
	}

	if err := u.fs.Remove(u.swapMarkerPath()); err != nil {
		return &IoError{Op: "clearing swap marker", Err: err}
	}

	return nil
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
