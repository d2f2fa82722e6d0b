package config

import (
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	ChainCfg         ChainConfig  `yaml:"chain_config" mapstructure:"chain_config"`
	ClaimCfg         ClaimConfig  `yaml:"claim" mapstructure:"claim"`
	TablesCfg        TablesConfig `yaml:"tables" mapstructure:"tables"`
	APICfg           APIConfig    `yaml:"api_config" mapstructure:"api_config"`
	SSHConfig        SSHConfig    `yaml:"ssh_config" mapstructure:"ssh_config"`
	EventsCfg        EventsConfig `yaml:"events" mapstructure:"events"`
	JournalDirectory string       `yaml:"journal_directory" mapstructure:"journal_directory"`
	LogFile          string       `yaml:"log_file" mapstructure:"log_file"`
	Dashboard        bool         `yaml:"dashboard" mapstructure:"dashboard"`
	MonitorInterval  int64        `yaml:"monitor_interval" mapstructure:"monitor_interval"`
	PProfAddress     string       `yaml:"pprof_address" mapstructure:"pprof_address"`
}

type ChainConfig struct {
	RPCAddrs      []string `yaml:"rpc_addrs" mapstructure:"rpc_addrs"`
	Contract      string   `yaml:"contract" mapstructure:"contract"`
	TokenContract string   `yaml:"token_contract" mapstructure:"token_contract"`
	TokenSymbol   string   `yaml:"token_symbol" mapstructure:"token_symbol"`
	BlocksBehind  uint32   `yaml:"blocks_behind" mapstructure:"blocks_behind"`
	ExpireSeconds int64    `yaml:"expire_seconds" mapstructure:"expire_seconds"`
}

// ClaimConfig intervals are in seconds.
type ClaimConfig struct {
	Mode         string `yaml:"mode" mapstructure:"mode"`
	TickInterval int64  `yaml:"tick_interval" mapstructure:"tick_interval"`
	Pacing       int64  `yaml:"pacing" mapstructure:"pacing"`
	Settle       int64  `yaml:"settle" mapstructure:"settle"`
	Backoff      int64  `yaml:"backoff" mapstructure:"backoff"`
	PassPeriod   int64  `yaml:"pass_period" mapstructure:"pass_period"`
	ClaimAll     bool   `yaml:"claim_all" mapstructure:"claim_all"`
}

type TablesConfig struct {
	PageLimit      uint32 `yaml:"page_limit" mapstructure:"page_limit"`
	ReadAttempts   int    `yaml:"read_attempts" mapstructure:"read_attempts"`
	ReadRetryDelay int64  `yaml:"read_retry_delay" mapstructure:"read_retry_delay"`
}

type APIConfig struct {
	Port int64 `yaml:"port" mapstructure:"port"`
}

type SSHConfig struct {
	Enable            bool     `yaml:"enable" mapstructure:"enable"`
	Port              int      `yaml:"port" mapstructure:"port"`
	HostKeyFile       string   `yaml:"host_key_file" mapstructure:"host_key_file"`
	AuthorizedPubKeys []string `yaml:"authorized_keys" mapstructure:"authorized_keys"`
}

type EventsConfig struct {
	NATSURL string `yaml:"nats_url" mapstructure:"nats_url"`
	Subject string `yaml:"subject" mapstructure:"subject"`
}

// Secrets are only ever read from the environment or a .env file.
type Secrets struct {
	PrivateKey string
	Owner      string
}

func Seconds(s int64) time.Duration {
	return time.Duration(s) * time.Second
}

func DefaultConfig() *Config {
	return &Config{
		ChainCfg: ChainConfig{
			RPCAddrs: []string{
				"https://wax.greymass.com",
				"https://wax.eosusa.io",
				"https://api.wax.alohaeos.com",
			},
			Contract:      "ranchersland",
			TokenContract: "eosio.token",
			TokenSymbol:   "WAX",
			BlocksBehind:  3,
			ExpireSeconds: 30,
		},
		ClaimCfg: ClaimConfig{
			Mode:         "ticking",
			TickInterval: 1,
			Pacing:       2,
			Settle:       5,
			Backoff:      10,
			PassPeriod:   60,
			ClaimAll:     true,
		},
		TablesCfg: TablesConfig{
			PageLimit:      100,
			ReadAttempts:   3,
			ReadRetryDelay: 2,
		},
		APICfg: APIConfig{
			Port: 3333,
		},
		SSHConfig: SSHConfig{
			Enable:            false,
			Port:              2222,
			HostKeyFile:       "$HOME/.rancher/ssh_host_ed25519",
			AuthorizedPubKeys: []string{},
		},
		EventsCfg: EventsConfig{
			Subject: "rancher.claims",
		},
		JournalDirectory: "$HOME/.rancher/journal",
		Dashboard:        true,
		MonitorInterval:  30,
	}
}

func (c Config) MarshalZerologObject(e *zerolog.Event) {
	e.Strs("RPCAddrs", c.ChainCfg.RPCAddrs).
		Str("Contract", c.ChainCfg.Contract).
		Uint32("BlocksBehind", c.ChainCfg.BlocksBehind).
		Int64("ExpireSeconds", c.ChainCfg.ExpireSeconds).
		Str("ClaimMode", c.ClaimCfg.Mode).
		Int64("Pacing", c.ClaimCfg.Pacing).
		Int64("Settle", c.ClaimCfg.Settle).
		Int64("Backoff", c.ClaimCfg.Backoff).
		Int64("PassPeriod", c.ClaimCfg.PassPeriod).
		Bool("ClaimAll", c.ClaimCfg.ClaimAll).
		Uint32("PageLimit", c.TablesCfg.PageLimit).
		Int64("APIPort", c.APICfg.Port).
		Bool("SSH", c.SSHConfig.Enable).
		Str("NATS", c.EventsCfg.NATSURL).
		Str("JournalDirectory", c.JournalDirectory).
		Str("LogFile", c.LogFile).
		Bool("Dashboard", c.Dashboard)
}
