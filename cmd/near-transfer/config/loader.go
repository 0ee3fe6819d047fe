package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/quantumauth-io/near-transfer/internal/constants"
	"github.com/quantumauth-io/near-transfer/internal/registry"
	"github.com/quantumauth-io/near-transfer/internal/transfer"
)

//go:embed config.yaml
var EmbeddedConfigYAML []byte

const (
	EnvPrefix = "NEAR_TRANSFER"
	FileName  = "near-transfer.yaml"
)

var CredentialSources = []string{"env", "file", "keystore", "prompt"}

type Credential struct {
	Source   string `mapstructure:"source"`
	Account  string `mapstructure:"account"`
	EnvVar   string `mapstructure:"env_var"`
	File     string `mapstructure:"file"`
	Keystore string `mapstructure:"keystore"`
}

// TransferDefaults fill any transfer flag the user leaves unset.
type TransferDefaults struct {
	From                string `mapstructure:"from"`
	To                  string `mapstructure:"to"`
	Amount              string `mapstructure:"amount"`
	Symbol              string `mapstructure:"symbol"`
	RegistrationDeposit string `mapstructure:"registration_deposit"`
}

type Metrics struct {
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

type Config struct {
	Network    transfer.NetworkSettings `mapstructure:"network"`
	Credential Credential               `mapstructure:"credential"`
	Transfer   TransferDefaults         `mapstructure:"transfer"`
	Tokens     []registry.Entry         `mapstructure:"tokens"`
	Metrics    Metrics                  `mapstructure:"metrics"`

	// Path is the user file merged over the defaults, if any.
	Path string `mapstructure:"-"`
}

// SearchPaths lists where an unnamed config file is looked for, first match wins.
func SearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", constants.AppName, FileName),
		filepath.Join(".", FileName),
	}
}

// Load reads the embedded defaults, merges the user file (explicit path or
// the first of SearchPaths that exists) and applies NEAR_TRANSFER_* overrides.
func Load(explicitPath string) (*Config, error) {
	return load(explicitPath, SearchPaths())
}

func load(explicitPath string, paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, errors.Wrap(err, "read embedded config")
	}

	path := strings.TrimSpace(explicitPath)
	if path == "" {
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "merge config %s", path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Network.NetworkID = strings.TrimSpace(c.Network.NetworkID)
	c.Network.NodeURL = strings.TrimSpace(c.Network.NodeURL)
	c.Credential.Source = strings.ToLower(strings.TrimSpace(c.Credential.Source))

	if c.Network.NetworkID == "" {
		return errors.New("network.id is required")
	}
	if c.Network.NodeURL == "" {
		return errors.New("network.node_url is required")
	}
	if c.Network.CallTimeout < 0 {
		return fmt.Errorf("network.call_timeout must not be negative, got %s", c.Network.CallTimeout)
	}
	if !slices.Contains(CredentialSources, c.Credential.Source) {
		return fmt.Errorf("credential.source %q is not one of %s", c.Credential.Source, strings.Join(CredentialSources, ", "))
	}
	if len(c.Tokens) == 0 {
		c.Tokens = registry.Defaults()
	}
	return nil
}

// CredentialsFile is the near-cli credentials path for the configured account
// unless one is set explicitly.
func (c *Config) CredentialsFile() string {
	if c.Credential.File != "" {
		return c.Credential.File
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".near-credentials", c.Network.NetworkID, c.Credential.Account+".json")
}
