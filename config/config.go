package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
	yaml "gopkg.in/yaml.v3"
)

func (c Config) Validate() error {
	if len(c.ChainCfg.RPCAddrs) == 0 {
		return errors.New("at least one rpc address is required")
	}
	if c.ChainCfg.Contract == "" {
		return errors.New("invalid contract account")
	}
	if c.ChainCfg.ExpireSeconds <= 0 {
		return errors.New("expire_seconds must be positive")
	}

	switch c.ClaimCfg.Mode {
	case "", "ticking", "simple":
	default:
		return fmt.Errorf("invalid claim mode %q, use ticking or simple", c.ClaimCfg.Mode)
	}
	if c.ClaimCfg.TickInterval <= 0 || c.ClaimCfg.PassPeriod <= 0 {
		return errors.New("tick_interval and pass_period must be positive")
	}
	if c.ClaimCfg.Pacing < 0 || c.ClaimCfg.Settle < 0 || c.ClaimCfg.Backoff < 0 {
		return errors.New("claim delays cannot be negative")
	}

	if c.TablesCfg.PageLimit == 0 {
		return errors.New("page_limit must be positive")
	}
	if c.TablesCfg.ReadAttempts <= 0 {
		return errors.New("read_attempts must be positive")
	}

	if c.SSHConfig.Enable {
		for i := range c.SSHConfig.AuthorizedPubKeys {
			_, _, _, _, err := ssh.ParseAuthorizedKey([]byte(c.SSHConfig.AuthorizedPubKeys[i]))
			if err != nil {
				return errors.Join(errors.New("invalid ssh authorized key"), err)
			}
		}
	}

	return nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	return os.ExpandEnv(p)
}

// ReadConfig parses data and returns Config.
// Error during parsing or an invalid configuration in the Config will return an error.
func ReadConfig(data []byte) (*Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	config.expand()

	return config, config.Validate()
}

func (c *Config) expand() {
	c.JournalDirectory = expandPath(c.JournalDirectory)
	c.LogFile = expandPath(c.LogFile)
	c.SSHConfig.HostKeyFile = expandPath(c.SSHConfig.HostKeyFile)
}

// Export converts the config to yaml format
func (c Config) Export() ([]byte, error) {
	sb := strings.Builder{}
	sb.WriteString("######################\n")
	sb.WriteString("### Rancher Config ###\n")
	sb.WriteString("######################\n\n")

	d, err := yaml.Marshal(&c)
	if err != nil {
		return nil, err
	}

	sb.Write(d)

	sb.WriteString("\n######################\n")

	return []byte(sb.String()), nil
}
