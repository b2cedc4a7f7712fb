package manifest

import (
	"regexp"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"
)

// Device is one manifest rule pairing a thing-ID pattern with the version
// assigned to the devices it matches.
type Device struct {
	Pattern string `yaml:"pattern"`
	Version string `yaml:"version"`
}

// Manifest maps device patterns to target versions for one object type.
// It is parsed from the remote YAML document once per update attempt and
// discarded afterwards.
type Manifest struct {
	ObjectType string   `yaml:"object_type"`
	Devices    []Device `yaml:"devices"`
}

func Parse(body []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := yaml.Unmarshal(body, m); err != nil {
		return nil, &ParseError{Err: err}
	}
	return m, nil
}

// Match returns the first device whose pattern compiles and matches thingID,
// in declared order. A device with an invalid pattern is skipped with a
// warning. Returns nil when no device matches.
func (m *Manifest) Match(thingID string, logger logr.Logger) *Device {
	for i := range m.Devices {
		dev := &m.Devices[i]

		re, err := regexp.Compile(dev.Pattern)
		if err != nil {
			logger.Info("skipping device with invalid pattern", "warning", err.Error(), "pattern", dev.Pattern)
			continue
		}

		if re.MatchString(thingID) {
			return dev
		}
	}

	return nil
}
