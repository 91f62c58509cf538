package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadGenesisParsesServiceList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.toml")
	contents := `chain_id = "servicechain-local"

[[services]]
name = "asset"
payload = "{\"admin\":\"0x01\"}"

[[services]]
name = "governance"
payload = "{\"admin\":\"0x01\"}"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	doc, err := LoadGenesis(path)
	require.NoError(t, err)
	require.Equal(t, "servicechain-local", doc.ChainID)
	require.Len(t, doc.Services, 2)
	require.Equal(t, "asset", doc.Services[0].Name)
	require.Equal(t, "governance", doc.Services[1].Name)
}

func TestLoadGenesisMissingFile(t *testing.T) {
	_, err := LoadGenesis(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadGenesisRequiresChainID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.toml")
	require.NoError(t, os.WriteFile(path, []byte(`services = []`), 0o644))

	_, err := LoadGenesis(path)
	require.Error(t, err)
}
