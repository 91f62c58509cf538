// Package config loads the genesis document a host process hands to
// runtime.Genesis: a flat {chain_id, services: [{name, payload}]} TOML file,
// following the teacher's decode-or-fail Load shape (github.com/BurntSushi/toml)
// minus its auto-generated-validator-key side effect — a genesis document is
// not a keystore, so there is nothing to default or persist back to disk.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ServiceGenesis is one entry in the genesis document: the service name and
// its init_genesis payload, still JSON-encoded (spec.md §6: "each payload is
// the JSON-encoded init struct for the service").
type ServiceGenesis struct {
	Name    string `toml:"name"`
	Payload string `toml:"payload"`
}

// Genesis is the decoded genesis document.
type Genesis struct {
	ChainID  string           `toml:"chain_id"`
	Services []ServiceGenesis `toml:"services"`
}

// LoadGenesis reads and decodes the TOML genesis document at path.
func LoadGenesis(path string) (*Genesis, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("genesis file %q: %w", path, err)
	}
	var doc Genesis
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("decode genesis file %q: %w", path, err)
	}
	if doc.ChainID == "" {
		return nil, fmt.Errorf("genesis file %q: chain_id is required", path)
	}
	return &doc, nil
}
