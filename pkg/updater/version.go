package updater

import (
	"path/filepath"
	"strings"

	"github.com/cchantep/orm/pkg/semver"
)

// VersionMarkerName is the file inside the application directory recording
// the installed version.
const VersionMarkerName = ".orm_version"

// currentVersion reads the version marker of the live application. A
// missing or unparsable marker falls back to the zero version with a
// warning, supporting first runs; it is never fatal.
func (u *Updater) currentVersion() *semver.Version {
	markerPath := filepath.Join(u.appDir(), VersionMarkerName)

	content, err := u.fs.ReadFile(markerPath)
	if err != nil {
		u.Logger.Info("missing version marker, assuming first run", "warning", err.Error(), "path", markerPath)
		return semver.Zero()
	}

	v, err := semver.Parse(strings.TrimSpace(string(content)))
	if err != nil {
		u.Logger.Info("unparsable version marker, assuming first run", "warning", err.Error(), "path", markerPath)
		return semver.Zero()
	}

	return v
}

// writeVersionMarker records ver as the version of the code currently in
// the application directory.
func (u *Updater) writeVersionMarker(ver string) error {
	markerPath := filepath.Join(u.appDir(), VersionMarkerName)

	if err := u.fs.WriteFile(markerPath, []byte(ver), 0644); err != nil {
		return &IoError{Op: "writing version marker " + markerPath, Err: err}
	}

	return nil
}
