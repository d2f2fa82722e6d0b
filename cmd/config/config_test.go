package config

import (
	"reflect"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/config"
)

func TestGetConfigValue(t *testing.T) {
	r := require.New(t)
	cfg := config.DefaultConfig()

	v, err := getConfigValue(cfg, "claim.mode")
	r.NoError(err)
	r.Equal("ticking", v)

	v, err = getConfigValue(cfg, "api_config.port")
	r.NoError(err)
	r.Equal("3333", v)

	v, err = getConfigValue(cfg, "chain_config.rpc_addrs")
	r.NoError(err)
	r.Equal("https://wax.greymass.com,https://wax.eosusa.io,https://api.wax.alohaeos.com", v)

	v, err = getConfigValue(cfg, "tables")
	r.NoError(err)
	r.Contains(v, "page_limit: 100")

	_, err = getConfigValue(cfg, "claim.speed")
	r.Error(err)
}

func TestSetConfigValue(t *testing.T) {
	r := require.New(t)
	cfg := config.DefaultConfig()

	r.NoError(setConfigValue(cfg, "claim.mode", "simple"))
	r.Equal("simple", cfg.ClaimCfg.Mode)

	r.NoError(setConfigValue(cfg, "claim.claim_all", "false"))
	r.False(cfg.ClaimCfg.ClaimAll)

	r.NoError(setConfigValue(cfg, "chain_config.blocks_behind", "6"))
	r.EqualValues(6, cfg.ChainCfg.BlocksBehind)

	r.NoError(setConfigValue(cfg, "chain_config.rpc_addrs", "https://a.example, https://b.example,"))
	r.Equal([]string{"https://a.example", "https://b.example"}, cfg.ChainCfg.RPCAddrs)

	r.Error(setConfigValue(cfg, "api_config.port", "eighty"))
	r.Error(setConfigValue(cfg, "claim.claim_all", "maybe"))
	r.Error(setConfigValue(cfg, "nope", "1"))
}

func TestSetConfigValueRejectsSections(t *testing.T) {
	r := require.New(t)
	cfg := config.DefaultConfig()

	r.ErrorContains(setConfigValue(cfg, "claim", "simple"), "is a section")
	r.ErrorContains(setConfigValue(cfg, "claim.mode.kind", "x"), "has no key")

	err := setConfigValue(cfg, "claim.speed", "2")
	r.ErrorContains(err, "claim_all")
	r.ErrorContains(err, "pass_period")
	r.Equal("ticking", cfg.ClaimCfg.Mode)
}

func TestConfigKeys(t *testing.T) {
	r := require.New(t)

	keys := configKeys(reflect.TypeOf(config.Config{}), "")
	r.Contains(keys, "claim.mode")
	r.Contains(keys, "chain_config.rpc_addrs")
	r.Contains(keys, "ssh_config.authorized_keys")
	r.Contains(keys, "journal_directory")
	r.NotContains(keys, "claim")
	r.True(sort.StringsAreSorted(keys))

	cfg := config.DefaultConfig()
	for _, k := range keys {
		_, err := getConfigValue(cfg, k)
		r.NoError(err, k)
	}
}
