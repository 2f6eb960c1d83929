// Package config loads and validates the deployment configuration: chain,
// contract addresses, explorer, and coordinator tuning.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config is the complete deployment configuration.
type Config struct {
	Chain       ChainConfig       `yaml:"chain"`
	Contracts   ContractsConfig   `yaml:"contracts"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
}

// ChainConfig identifies the target chain and its endpoints.
type ChainConfig struct {
	ChainID     int64  `yaml:"chain_id"`
	RPCURL      string `yaml:"rpc_url"`
	ExplorerURL string `yaml:"explorer_url"`
}

// ContractsConfig holds the deployed protocol contract addresses.
type ContractsConfig struct {
	Factory         string `yaml:"factory"`
	PositionManager string `yaml:"position_manager"`
	Oracle          string `yaml:"oracle"`
	Lens            string `yaml:"lens"`
	Multicall3      string `yaml:"multicall3"`
}

// CoordinatorConfig tunes the position action coordinator.
type CoordinatorConfig struct {
	// DebounceMillis is the idle window before a projection query fires.
	DebounceMillis int `yaml:"debounce_millis"`
	// Confirmations is the default confirmation count for primary actions.
	Confirmations int `yaml:"confirmations"`
	// CloseConfirmations is the confirmation count for close position.
	CloseConfirmations int `yaml:"close_confirmations"`
}

// Defaults returns a config with coordinator defaults filled in. Chain and
// contract values have no defaults; a deployment file must provide them.
func Defaults() Config {
	return Config{
		Coordinator: CoordinatorConfig{
			DebounceMillis:     800,
			Confirmations:      1,
			CloseConfirmations: 2,
		},
	}
}

// Load reads a YAML config file, applies defaults, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that all required fields are present and well formed.
func (c *Config) Validate() error {
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("chain.chain_id must be positive, got %d", c.Chain.ChainID)
	}
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Chain.ExplorerURL == "" {
		return fmt.Errorf("chain.explorer_url is required")
	}
	for name, addr := range map[string]string{
		"contracts.factory":          c.Contracts.Factory,
		"contracts.position_manager": c.Contracts.PositionManager,
		"contracts.oracle":           c.Contracts.Oracle,
		"contracts.lens":             c.Contracts.Lens,
	} {
		if addr == "" {
			return fmt.Errorf("%s is required", name)
		}
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%s is not a valid address: %q", name, addr)
		}
	}
	if c.Contracts.Multicall3 != "" && !common.IsHexAddress(c.Contracts.Multicall3) {
		return fmt.Errorf("contracts.multicall3 is not a valid address: %q", c.Contracts.Multicall3)
	}
	if c.Coordinator.DebounceMillis <= 0 {
		return fmt.Errorf("coordinator.debounce_millis must be positive")
	}
	if c.Coordinator.Confirmations <= 0 || c.Coordinator.CloseConfirmations <= 0 {
		return fmt.Errorf("coordinator confirmation counts must be positive")
	}
	return nil
}

// Debounce returns the debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Coordinator.DebounceMillis) * time.Millisecond
}

// TxURL builds a block explorer link for a transaction hash.
func (c *ChainConfig) TxURL(hash string) string {
	return fmt.Sprintf("%s/tx/%s", c.ExplorerURL, hash)
}
