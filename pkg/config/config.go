package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the agent configuration. Values are resolved from defaults,
// then an optional YAML config file, then ORM_* environment variables.
type Config struct {
	// ObjectType is the type of IoT object; must correspond to the object
	// type published in the manifest.
	ObjectType string `mapstructure:"object_type"`

	// ManifestURL is the URL to GET the YAML manifest from.
	ManifestURL string `mapstructure:"manifest_url"`

	// ApplicationName is the name of the managed application.
	ApplicationName string `mapstructure:"application_name"`

	// LocalPrefix is the local prefix path holding the application
	// directory, the failed-version ledger and retained archives.
	LocalPrefix string `mapstructure:"local_prefix"`

	// PushGateway is an optional Prometheus pushgateway endpoint; metrics
	// are pushed at the end of each attempt when set.
	PushGateway string `mapstructure:"push_gateway"`
}

// Load reads configuration from the given file (optional) and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("local_prefix", "/usr/local/orm")
	v.SetDefault("push_gateway", "")

	v.SetEnvPrefix("orm")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"object_type", "manifest_url", "application_name", "local_prefix", "push_gateway"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *Config) Validate() error {
	if c.ObjectType == "" {
		return fmt.Errorf("object_type must be set")
	}
	if c.ManifestURL == "" {
		return fmt.Errorf("manifest_url must be set")
	}
	if c.ApplicationName == "" {
		return fmt.Errorf("application_name must be set")
	}
	if c.LocalPrefix == "" {
		return fmt.Errorf("local_prefix must be set")
	}
	return nil
}
