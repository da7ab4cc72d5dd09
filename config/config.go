// Package config loads the custody program's deployment configuration: a
// TOML file that is created with defaults on first run and otherwise
// decoded as-is. Vault addresses are derived, not keypair-generated, so
// there is no signing-key material for this config to manage.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/quorumvault/custody/principal"
)

// Config is the custody program's deployment configuration: its own
// program identifier, the admin principal the registry is created with,
// the asset mint it custodies, the data directory its bbolt store lives
// in, and the environment label logging tags every line with.
type Config struct {
	ProgramID string `toml:"ProgramID"`
	Admin     string `toml:"Admin"`
	AssetMint string `toml:"AssetMint"`
	DataDir   string `toml:"DataDir"`
	Env       string `toml:"Env"`
	LogFile   string `toml:"LogFile"`
}

// ProgramPrincipal parses ProgramID as a principal.ID.
func (c *Config) ProgramPrincipal() (principal.ID, error) {
	return principal.Parse(c.ProgramID)
}

// AdminPrincipal parses Admin as a principal.ID.
func (c *Config) AdminPrincipal() (principal.ID, error) {
	return principal.Parse(c.Admin)
}

// AssetMintPrincipal parses AssetMint as a principal.ID.
func (c *Config) AssetMintPrincipal() (principal.ID, error) {
	return principal.Parse(c.AssetMint)
}

// Load reads the configuration at path, writing a default file there first
// if none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir: "./custody-data",
		Env:     "development",
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: encode default %s: %w", path, err)
	}
	return cfg, nil
}
