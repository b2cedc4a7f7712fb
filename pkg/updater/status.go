package updater

import (
	"fmt"
)

// ExecutionStatus is the outcome of one update attempt. Exactly two
// variants exist: NoUpdate and AppTerminated.
type ExecutionStatus interface {
	executionStatus()
	String() string
}

// NoUpdate means the installed application was left as-is, with the reason.
type NoUpdate struct {
	Reason string
}

func (s *NoUpdate) executionStatus() {}

func (s *NoUpdate) String() string {
	return fmt.Sprintf("no update: %s", s.Reason)
}

// AppTerminated means the updated application was swapped in, ran, and
// exited with the captured status. The exit status is reported, never
// interpreted.
type AppTerminated struct {
	ExitStatus int
}

func (s *AppTerminated) executionStatus() {}

func (s *AppTerminated) String() string {
	return fmt.Sprintf("application terminated with status %d", s.ExitStatus)
}
