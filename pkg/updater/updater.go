// Package updater implements the update orchestration pipeline for one
// locally-installed managed application: manifest resolution and device
// matching, version gating against the failed-version ledger, archive
// acquisition and validation, the rename-based directory swap with
// rollback, and retained-archive pruning.
package updater

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/twpayne/go-vfs"
	"k8s.io/klog/klogr"

	"github.com/cchantep/orm/pkg/cmdsite"
	"github.com/cchantep/orm/pkg/httpget"
	"github.com/cchantep/orm/pkg/manifest"
	"github.com/cchantep/orm/pkg/semver"
	"github.com/cchantep/orm/pkg/shell"
	"github.com/cchantep/orm/pkg/telemetry"
)

// Spec identifies the managed application and its update source.
type Spec struct {
	// ObjectType is the type of IoT object; must correspond to the
	// object type published in the manifest.
	ObjectType string

	// ManifestURL is the URL to GET the YAML manifest from.
	ManifestURL string

	// ApplicationName is the name of the managed application.
	ApplicationName string

	// LocalPrefix is the prefix path holding the application directory,
	// the ledger and retained archives.
	LocalPrefix string
}

type Updater struct {
	ObjectType  string
	ManifestURL string
	AppName     string
	LocalPrefix string

	Logger logr.Logger

	fs         vfs.FS
	cmdr       cmdsite.RunCommand
	httpGetter httpget.Getter
	exec       shell.Exec
	now        func() time.Time
	metrics    *telemetry.Metrics

	ledger *ledger
}

func New(spec Spec, opts ...Option) (*Updater, error) {
	u := &Updater{
		ObjectType:  spec.ObjectType,
		ManifestURL: spec.ManifestURL,
		AppName:     spec.ApplicationName,
		LocalPrefix: spec.LocalPrefix,
	}

	for _, o := range opts {
		if err := o.SetOption(u); err != nil {
			return nil, err
		}
	}

	if u.Logger == nil {
		u.Logger = klogr.New()
	}

	if u.fs == nil {
		u.fs = vfs.OSFS
	}

	if u.cmdr == nil {
		u.cmdr = cmdsite.DefaultRunCommand
	}

	if u.httpGetter == nil {
		u.httpGetter = httpget.New()
	}

	if u.exec == nil {
		u.exec = shell.DefaultExec
	}

	if u.now == nil {
		u.now = time.Now
	}

	u.ledger = newLedger(u.fs, u.LocalPrefix)

	return u, nil
}

func (u *Updater) appDir() string {
	return filepath.Join(u.LocalPrefix, u.AppName)
}

// Run performs one complete attempt: preflight, recovery of any interrupted
// swap, then the update pipeline. Every pipeline error except RevertError
// is converted into a NoUpdate outcome so the caller can keep running
// whatever application is currently installed.
func (u *Updater) Run() (ExecutionStatus, error) {
	if err := u.preflight(); err != nil {
		return nil, err
	}

	if err := u.recoverInterruptedSwap(); err != nil {
		return nil, err
	}

	if u.metrics != nil {
		u.metrics.Attempts.Inc()
	}

	status, err := u.Execute()
	if err != nil {
		var revertErr *RevertError
		if errors.As(err, &revertErr) {
			return nil, err
		}

		u.Logger.Info("update attempt aborted", "warning", err.Error())
		status = &NoUpdate{Reason: err.Error()}
	}

	if _, terminated := status.(*AppTerminated); terminated && u.metrics != nil {
		u.metrics.Applied.Inc()
	}

	return status, nil
}

// Execute runs the update pipeline once. Stages before the swap abort with
// an error and zero mutation of the application directory; from the swap on,
// only completion or rollback are valid exits.
func (u *Updater) Execute() (ExecutionStatus, error) {
	current := u.currentVersion()

	u.Logger.Info("current version", "version", current.String())

	client := &manifest.Client{
		ObjectType: u.ObjectType,
		URL:        u.ManifestURL,
		Getter:     u.httpGetter,
		CmdSite:    &cmdsite.CommandSite{RunCmd: u.cmdr, Env: map[string]string{}},
		Logger:     u.Logger,
	}

	thingID, err := client.ThingID(u.appDir())
	if err != nil {
		return nil, err
	}

	device, err := client.DeviceSettings(thingID)
	if err != nil {
		return nil, err
	}

	if device == nil {
		return nil, &NoDeviceMatchError{ThingID: thingID}
	}

	newVer, err := semver.Parse(device.Version)
	if err != nil {
		return nil, &InvalidVersionError{Version: device.Version, Err: err}
	}

	u.Logger.V(1).Info("checking candidate against current version",
		"candidate", newVer.String(), "current", current.String())

	if !newVer.GreaterThan(current) {
		return &NoUpdate{Reason: fmt.Sprintf("application version is already up-to-date: %s", current)}, nil
	}

	// The ledger stores the attempted string verbatim; only a string that
	// parses identically is deduplicated.
	verStr := strings.TrimSpace(device.Version)

	failed, err := u.ledger.Contains(verStr)
	if err != nil {
		return nil, err
	}

	if failed {
		return &NoUpdate{Reason: fmt.Sprintf("failed version: %s", verStr)}, nil
	}

	archiveURL, err := ArchiveURL(u.ManifestURL, u.AppName, device.Version)
	if err != nil {
		return nil, err
	}

	archivePath, err := u.fetchArchive(archiveURL, verStr)
	if err != nil {
		return nil, err
	}
	defer u.removeQuietly(archivePath)

	stagingDir := filepath.Join(u.LocalPrefix,
		fmt.Sprintf(".orm_staging-%s", u.now().UTC().Format(archiveTimestampLayout)))

	if err := u.mkdirAll(stagingDir); err != nil {
		return nil, err
	}

	if err := u.extractArchive(archivePath, stagingDir); err != nil {
		u.removeQuietly(stagingDir)
		return nil, err
	}

	status, err := u.swapAndRun(filepath.Join(stagingDir, u.AppName), verStr)

	u.removeQuietly(stagingDir)

	return status, err
}

// RunCurrent spawns the installed application's run.sh and blocks until it
// exits, returning the captured exit status. The child's own exit code is
// reported, never interpreted.
func (u *Updater) RunCurrent() (int, error) {
	runScript := filepath.Join(u.appDir(), "run.sh")

	u.Logger.Info("executing current application", "script", runScript)

	sh := &shell.Shell{Exec: u.exec}
	res := sh.Interact(&shell.Command{Name: runScript})

	if res.Error != nil {
		var exitErr *exec.ExitError
		if !errors.As(res.Error, &exitErr) {
			return 0, res.Error
		}
	}

	return res.ExitStatus, nil
}

func (u *Updater) preflight() error {
	info, err := u.fs.Stat(u.LocalPrefix)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("local prefix is not a valid directory: %s", u.LocalPrefix)
	}

	info, err = u.fs.Stat(u.appDir())
	if err != nil || !info.IsDir() {
		return fmt.Errorf("application directory is not a valid one: %s", u.appDir())
	}

	return nil
}

func (u *Updater) mkdirAll(dir string) error {
	if err := vfs.MkdirAll(u.fs, dir, 0755); err != nil {
		return &IoError{Op: "creating directory " + dir, Err: err}
	}
	return nil
}

// removeQuietly removes attempt-scoped paths; a removal failure is logged
// but never masks the error being surfaced.
func (u *Updater) removeQuietly(path string) {
	if err := u.fs.RemoveAll(path); err != nil {
		u.Logger.Info("cleanup failed", "warning", err.Error(), "path", path)
	}
}
