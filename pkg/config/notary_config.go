// Copyright 2025 Certen Protocol
//
// Notary Chain Configuration - YAML-loaded definitions of the peer systems
// this node notarizes, the currencies it tracks, and the notary sets that
// finalize attestations. Read after the env/flag Config: main.go takes the
// first peer from it only when no peer system is set, and its protocol
// thresholds replace the env values.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// NotaryConfig is the root of the YAML configuration file.
type NotaryConfig struct {
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`

	Home       HomeSettings       `yaml:"home"`
	Peers      []PeerSettings     `yaml:"peers"`
	Currencies []CurrencySettings `yaml:"currencies"`
	Protocol   ProtocolSettings   `yaml:"protocol"`
}

// HomeSettings describes the chain this node runs on behalf of.
type HomeSettings struct {
	SystemID  string `yaml:"system_id"`
	ChainID   string `yaml:"chain_id"`
	ProofType string `yaml:"proof_type"` // PBAAS or ETHEREUM
}

// PeerSettings describes one notary system reachable over RPC.
type PeerSettings struct {
	SystemID   string   `yaml:"system_id"`
	RPCURL     string   `yaml:"rpc_url"`
	RPCTimeout Duration `yaml:"rpc_timeout"`
	ProofType  string   `yaml:"proof_type"`
	Notaries   []string `yaml:"notaries"`
	Protocol   string   `yaml:"protocol"` // NOTARY_CONFIRM, AUTO, or NOTARY_CHAINID
}

// CurrencySettings carries a currency's immutable launch parameters, the
// inputs the transition function reads.
type CurrencySettings struct {
	CurrencyID     string   `yaml:"currency_id"`
	SystemID       string   `yaml:"system_id"`
	LaunchSystemID string   `yaml:"launch_system_id"`
	StartBlock     int64    `yaml:"start_block"`
	Currencies     []string `yaml:"currencies"`
	MaxPreconvert  []int64  `yaml:"max_preconvert"`
	MinPreconvert  []int64  `yaml:"min_preconvert"`
	Contributions  []int64  `yaml:"contributions"`
	IsFractional   bool     `yaml:"is_fractional"`
	IsToken        bool     `yaml:"is_token"`
}

// ProtocolSettings tunes the notarization cadence and thresholds.
type ProtocolSettings struct {
	BlockNotarizationModulo  int64    `yaml:"block_notarization_modulo"`
	MinBlocksBeforeFinalized int64    `yaml:"min_blocks_before_finalized"`
	MinNotariesConfirm       int      `yaml:"min_notaries_confirm"`
	SchedulerCheckInterval   Duration `yaml:"scheduler_check_interval"`
	TrackerPollInterval      Duration `yaml:"tracker_poll_interval"`
}

// Duration wraps time.Duration for YAML "15s"/"5m" syntax.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration converts to time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} references in the file.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// substituteEnvVars expands environment references before YAML parsing.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if value := os.Getenv(groups[1]); value != "" {
			return value
		}
		if len(groups) >= 4 {
			return groups[3]
		}
		return ""
	})
}

// LoadNotaryConfig reads and parses the YAML file at path.
func LoadNotaryConfig(path string) (*NotaryConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notary config: %w", err)
	}

	var cfg NotaryConfig
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(content))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse notary config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *NotaryConfig) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Home.ProofType == "" {
		c.Home.ProofType = "PBAAS"
	}
	if c.Protocol.BlockNotarizationModulo == 0 {
		c.Protocol.BlockNotarizationModulo = 10
	}
	if c.Protocol.MinBlocksBeforeFinalized == 0 {
		c.Protocol.MinBlocksBeforeFinalized = 10
	}
	if c.Protocol.MinNotariesConfirm == 0 {
		c.Protocol.MinNotariesConfirm = 2
	}
	if c.Protocol.SchedulerCheckInterval == 0 {
		c.Protocol.SchedulerCheckInterval = Duration(5 * time.Second)
	}
	if c.Protocol.TrackerPollInterval == 0 {
		c.Protocol.TrackerPollInterval = Duration(30 * time.Second)
	}
	for i := range c.Peers {
		if c.Peers[i].RPCTimeout == 0 {
			c.Peers[i].RPCTimeout = Duration(10 * time.Second)
		}
		if c.Peers[i].ProofType == "" {
			c.Peers[i].ProofType = "PBAAS"
		}
		if c.Peers[i].Protocol == "" {
			c.Peers[i].Protocol = "NOTARY_CONFIRM"
		}
	}
}

// Validate checks the declared chains and currencies for consistency.
func (c *NotaryConfig) Validate() error {
	if c.Home.SystemID == "" {
		return fmt.Errorf("home.system_id is required")
	}
	if len(c.Peers) == 0 {
		return fmt.Errorf("at least one peer system is required")
	}

	seen := map[string]bool{c.Home.SystemID: true}
	for _, p := range c.Peers {
		if p.SystemID == "" {
			return fmt.Errorf("peer system_id is required")
		}
		if seen[p.SystemID] {
			return fmt.Errorf("duplicate system_id %q", p.SystemID)
		}
		seen[p.SystemID] = true
		if p.RPCURL == "" {
			return fmt.Errorf("peer %s: rpc_url is required", p.SystemID)
		}
		if p.Protocol == "NOTARY_CONFIRM" && len(p.Notaries) < c.Protocol.MinNotariesConfirm {
			return fmt.Errorf("peer %s: notary set smaller than min_notaries_confirm", p.SystemID)
		}
	}

	for _, cur := range c.Currencies {
		n := len(cur.Currencies)
		if cur.CurrencyID == "" {
			return fmt.Errorf("currency_id is required")
		}
		if len(cur.MaxPreconvert) != 0 && len(cur.MaxPreconvert) != n {
			return fmt.Errorf("currency %s: max_preconvert length mismatch", cur.CurrencyID)
		}
		if len(cur.MinPreconvert) != 0 && len(cur.MinPreconvert) != n {
			return fmt.Errorf("currency %s: min_preconvert length mismatch", cur.CurrencyID)
		}
		if len(cur.Contributions) != 0 && len(cur.Contributions) != n {
			return fmt.Errorf("currency %s: contributions length mismatch", cur.CurrencyID)
		}
	}

	return nil
}

// Peer returns the settings for one peer system.
func (c *NotaryConfig) Peer(systemID string) (*PeerSettings, bool) {
	for i := range c.Peers {
		if c.Peers[i].SystemID == systemID {
			return &c.Peers[i], true
		}
	}
	return nil, false
}

// Currency returns the settings for one currency.
func (c *NotaryConfig) Currency(currencyID string) (*CurrencySettings, bool) {
	for i := range c.Currencies {
		if c.Currencies[i].CurrencyID == currencyID {
			return &c.Currencies[i], true
		}
	}
	return nil, false
}

// IsProduction reports whether this is a production deployment.
func (c *NotaryConfig) IsProduction() bool {
	return c.Environment == "production"
}
