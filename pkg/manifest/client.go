package manifest

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-logr/logr"

	"github.com/cchantep/orm/pkg/cmdsite"
	"github.com/cchantep/orm/pkg/httpget"
)

var thingIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// Client resolves the device identity and fetches the manifest assigned to
// this object type.
type Client struct {
	ObjectType string
	URL        string

	Getter  httpget.Getter
	CmdSite *cmdsite.CommandSite
	Logger  logr.Logger
}

// ThingID runs the application-supplied id.sh and returns its trimmed
// stdout. The script's exit code is ignored; only a command that cannot be
// run at all, non-UTF-8 output, or an identifier failing the
// [A-Za-z][A-Za-z0-9-]* shape is an IdentityError.
func (c *Client) ThingID(appDir string) (string, error) {
	idPath := filepath.Join(appDir, "id.sh")

	stdout, _, err := c.CmdSite.CaptureStrings(idPath, nil)
	if err != nil {
		if _, exited := err.(*exec.ExitError); !exited {
			return "", &IdentityError{Path: idPath, Err: err}
		}
		// The command ran; its exit code carries no meaning here.
		c.Logger.V(1).Info("ignoring id.sh exit status", "path", idPath, "error", err.Error())
	}

	if !utf8.ValidString(stdout) {
		return "", &IdentityError{Path: idPath, Err: errNotText}
	}

	thingID := strings.TrimSpace(stdout) // Trim as CLI can output EOL

	if !thingIDRegex.MatchString(thingID) {
		return "", &IdentityError{Path: idPath, Err: &invalidIDError{id: thingID}}
	}

	c.Logger.V(1).Info("resolved thing ID", "thingID", thingID)

	return thingID, nil
}

// DeviceSettings fetches and parses the manifest, verifies its object type
// and returns the first device rule matching thingID, or nil when no rule
// matches.
func (c *Client) DeviceSettings(thingID string) (*Device, error) {
	c.Logger.Info("fetching manifest", "url", c.URL)

	body, err := c.Getter.DoRequest(c.URL)
	if err != nil {
		return nil, &FetchError{URL: c.URL, Err: err}
	}

	m, err := Parse([]byte(body))
	if err != nil {
		return nil, err
	}

	if m.ObjectType != c.ObjectType {
		return nil, &MismatchError{Expected: c.ObjectType, Actual: m.ObjectType}
	}

	return m.Match(thingID, c.Logger), nil
}

var errNotText = &notTextError{}

type notTextError struct{}

func (e *notTextError) Error() string { return "output is not valid text" }

type invalidIDError struct {
	id string
}

func (e *invalidIDError) Error() string {
	return fmt.Sprintf("invalid thing ID: %q", e.id)
}
