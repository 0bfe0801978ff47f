package config

// Package config provides a reusable loader for Animica configuration files
// and environment variables. It is versioned so that applications can depend
// on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"animica/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for an Animica node. It mirrors
// the structure of the YAML files Load reads (default.yaml plus an optional
// per-environment file, searched for under cmd/config and config).
type Config struct {
	Network struct {
		ID             string   `mapstructure:"id" json:"id"`
		ChainID        uint64   `mapstructure:"chain_id" json:"chain_id"`
		MaxPeers       int      `mapstructure:"max_peers" json:"max_peers"`
		GenesisFile    string   `mapstructure:"genesis_file" json:"genesis_file"`
		RPCEnabled     bool     `mapstructure:"rpc_enabled" json:"rpc_enabled"`
		P2PPort        int      `mapstructure:"p2p_port" json:"p2p_port"`
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		DiscoveryTag   string   `mapstructure:"discovery_tag" json:"discovery_tag"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"network" json:"network"`

	Gas struct {
		BaseTx      uint64 `mapstructure:"base_tx" json:"base_tx"`
		CreateExtra uint64 `mapstructure:"create_extra" json:"create_extra"`
		DataZero    uint64 `mapstructure:"data_zero" json:"data_zero"`
		DataNonzero uint64 `mapstructure:"data_nonzero" json:"data_nonzero"`
		AccessAddr  uint64 `mapstructure:"access_addr" json:"access_addr"`
		AccessSlot  uint64 `mapstructure:"access_slot" json:"access_slot"`
	} `mapstructure:"gas" json:"gas"`

	VM struct {
		DefaultTier  string `mapstructure:"default_tier" json:"default_tier"`
		HeavyEnabled bool   `mapstructure:"heavy_enabled" json:"heavy_enabled"`
		MaxGasPerTx  uint64 `mapstructure:"max_gas_per_tx" json:"max_gas_per_tx"`
	} `mapstructure:"vm" json:"vm"`

	Capabilities struct {
		// Endpoint, when non-empty, selects an off-chain compute host
		// implementing CapabilityProvider over RPC instead of the built-in
		// InMemoryCapabilities (hash only).
		Endpoint string `mapstructure:"endpoint" json:"endpoint"`
		// SyscallRPS is the files-per-second default `animicad chain import`
		// uses when its --rate-limit flag is left at zero. The syscalls
		// execution path does not read it.
		SyscallRPS float64 `mapstructure:"syscall_rps" json:"syscall_rps"`
	} `mapstructure:"capabilities" json:"capabilities"`

	Storage struct {
		DBPath string `mapstructure:"db_path" json:"db_path"`
		Prune  bool   `mapstructure:"prune" json:"prune"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// DefaultConfig returns a Config populated with the consensus-fixed gas
// schedule (core.GasBaseTx etc.) and conservative VM/network defaults, for
// callers that need a usable Config without reading any file.
func DefaultConfig() Config {
	var c Config
	c.Network.ChainID = 1
	c.Network.MaxPeers = 32
	c.Network.P2PPort = 30303
	c.Network.ListenAddr = "0.0.0.0"
	c.Gas.BaseTx = 21_000
	c.Gas.CreateExtra = 32_000
	c.Gas.DataZero = 4
	c.Gas.DataNonzero = 16
	c.Gas.AccessAddr = 2_400
	c.Gas.AccessSlot = 1_900
	c.VM.DefaultTier = "light"
	c.VM.MaxGasPerTx = 10_000_000
	c.Capabilities.SyscallRPS = 50
	c.Storage.DBPath = "./data"
	c.Logging.Level = "info"
	return c
}

// ToYAML renders c the same shape its own config files are written in, for
// operators who want to inspect or diff a resolved configuration.
func (c Config) ToYAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, utils.Wrap(err, "marshal config as yaml")
	}
	return out, nil
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig = DefaultConfig()

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	cfg := DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	AppConfig = cfg
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ANIMICA_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ANIMICA_ENV", ""))
}
