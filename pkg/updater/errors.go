package updater

import (
	"fmt"
	"strings"
)

// NoDeviceMatchError reports a manifest with no device rule matching the
// resolved thing ID.
type NoDeviceMatchError struct {
	ThingID string
}

func (e *NoDeviceMatchError) Error() string {
	return fmt.Sprintf("no device matching %s", e.ThingID)
}

// InvalidVersionError reports a device version string that does not parse.
type InvalidVersionError struct {
	Version string
	Err     error
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Version, e.Err)
}

func (e *InvalidVersionError) Unwrap() error { return e.Err }

// InvalidManifestURLError reports a manifest URL without a usable path, from
// which no archive URL can be derived.
type InvalidManifestURLError struct {
	URL string
}

func (e *InvalidManifestURLError) Error() string {
	return fmt.Sprintf("invalid manifest URL: %s", e.URL)
}

// InvalidArchiveError reports a release archive missing one of the required
// entry points under the application-name prefix.
type InvalidArchiveError struct {
	Found []string
}

func (e *InvalidArchiveError) Error() string {
	return fmt.Sprintf("invalid archive; missing script(s): [%s]", strings.Join(e.Found, ", "))
}

// SwapError reports a failed directory rename while swapping the staged
// tree in. The previous state is the recovery point.
type SwapError struct {
	Op  string
	Err error
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("swap failed (%s): %s", e.Op, e.Err)
}

func (e *SwapError) Unwrap() error { return e.Err }

// IoError wraps a filesystem failure outside the swap renames.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// RevertError reports a failure to restore the archived previous generation.
// There is no recovery path; manual intervention is required.
type RevertError struct {
	Err error
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("fails to revert to previous application: %s", e.Err)
}

func (e *RevertError) Unwrap() error { return e.Err }
