package manifest

import (
	"fmt"
)

// IdentityError reports a thing ID that could not be resolved from id.sh.
type IdentityError struct {
	Path string
	Err  error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("fails to resolve thing ID from %s: %s", e.Path, e.Err)
}

func (e *IdentityError) Unwrap() error { return e.Err }

// FetchError reports a manifest that could not be fetched over HTTP.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fails to fetch manifest from %s: %s", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a manifest body that is not valid UTF-8 YAML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fails to parse manifest: %s", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MismatchError reports a manifest published for another object type.
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("unexpected object_type: %s != %s", e.Actual, e.Expected)
}
