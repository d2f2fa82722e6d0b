package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitCreatesDefaults(t *testing.T) {
	r := require.New(t)

	home := t.TempDir()
	cfg, err := Init(home)
	r.NoError(err)

	_, err = os.Stat(filepath.Join(home, ConfigFileName))
	r.NoError(err)

	def := DefaultConfig()
	def.expand()
	r.Equal(def.ChainCfg, cfg.ChainCfg)
	r.Equal(def.ClaimCfg, cfg.ClaimCfg)
	r.Equal(def.TablesCfg, cfg.TablesCfg)
	r.Equal(def.JournalDirectory, cfg.JournalDirectory)
	r.Equal(def.SSHConfig.HostKeyFile, cfg.SSHConfig.HostKeyFile)
	r.Equal("ranchersland", cfg.ChainCfg.Contract)
	r.EqualValues(100, cfg.TablesCfg.PageLimit)
}

func TestInitReadsFile(t *testing.T) {
	r := require.New(t)

	home := t.TempDir()
	cfg := DefaultConfig()
	cfg.ClaimCfg.Mode = "simple"
	cfg.ClaimCfg.ClaimAll = false
	cfg.ChainCfg.RPCAddrs = []string{"http://127.0.0.1:8888"}
	cfg.APICfg.Port = 4444
	r.NoError(Write(home, cfg))

	loaded, err := Init(home)
	r.NoError(err)
	r.Equal("simple", loaded.ClaimCfg.Mode)
	r.False(loaded.ClaimCfg.ClaimAll)
	r.Equal([]string{"http://127.0.0.1:8888"}, loaded.ChainCfg.RPCAddrs)
	r.EqualValues(4444, loaded.APICfg.Port)
}

func TestReadConfigValidates(t *testing.T) {
	r := require.New(t)

	_, err := ReadConfig([]byte("claim:\n  mode: turbo\n"))
	r.ErrorContains(err, "invalid claim mode")

	_, err = ReadConfig([]byte("chain_config:\n  rpc_addrs: []\n"))
	r.Error(err)

	_, err = ReadConfig([]byte("ssh_config:\n  enable: true\n  authorized_keys: [\"not a key\"]\n"))
	r.ErrorContains(err, "invalid ssh authorized key")

	cfg, err := ReadConfig([]byte("claim:\n  backoff: 20\n"))
	r.NoError(err)
	r.EqualValues(20, cfg.ClaimCfg.Backoff)
	r.EqualValues(5, cfg.ClaimCfg.Settle, "unset keys keep their defaults")
}

func TestExport(t *testing.T) {
	r := require.New(t)

	data, err := DefaultConfig().Export()
	r.NoError(err)
	r.Contains(string(data), "### Rancher Config ###")

	cfg, err := ReadConfig(data)
	r.NoError(err)
	r.Equal(DefaultConfig().ClaimCfg, cfg.ClaimCfg)
}

func TestLoadSecrets(t *testing.T) {
	r := require.New(t)

	t.Setenv(EnvPrivateKey, "")
	t.Setenv(EnvOwner, "")

	dir := t.TempDir()
	_, err := LoadSecrets(dir)
	r.ErrorIs(err, ErrMissingSecret)
	r.ErrorContains(err, EnvPrivateKey)
	r.ErrorContains(err, EnvOwner)

	r.NoError(os.WriteFile(filepath.Join(dir, ".env"), []byte("PRIVATE_KEY=5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3\nOWNER=rancher11111\n"), 0o600))

	s, err := LoadSecrets(dir)
	r.NoError(err)
	r.Equal("rancher11111", s.Owner)
	r.Equal("5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3", s.PrivateKey)

	t.Setenv(EnvOwner, "override1111")
	s, err = LoadSecrets(dir)
	r.NoError(err)
	r.Equal("override1111", s.Owner, "the environment wins over .env")
}
