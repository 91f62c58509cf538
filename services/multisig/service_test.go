package multisig

import (
	"encoding/json"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"servicechain/dispatch"
	"servicechain/state"
	"servicechain/storage/trie"
	"servicechain/types"
)

func newTestLayer(t *testing.T) *state.Layer {
	t.Helper()
	tr, err := trie.New(nil)
	require.NoError(t, err)
	return state.NewLayer(state.NewRoot(tr))
}

func newTestTable() *dispatch.Table {
	table := dispatch.NewTable()
	Register(table)
	return table
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestVerifySignatureAcceptsMatchingSigner(t *testing.T) {
	priv, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	sender := types.BytesToAddress(ethcrypto.PubkeyToAddress(priv.PublicKey).Bytes())

	tx := &types.Transaction{Sender: sender, Nonce: 1, Service: "asset", Method: "transfer", CyclesLimit: 1000, CyclesPrice: 1}
	require.NoError(t, tx.Sign(priv))

	layer := newTestLayer(t)
	table := newTestTable()
	ctx := types.NewRootContext(sender, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, ctx, Name, "verify_signature", mustJSON(t, tx))
	require.False(t, resp.IsError(), resp.Msg)
}

func TestVerifySignatureRejectsWrongSender(t *testing.T) {
	priv, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	attackerPriv, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	attacker := types.BytesToAddress(ethcrypto.PubkeyToAddress(attackerPriv.PublicKey).Bytes())

	tx := &types.Transaction{Sender: attacker, Nonce: 1, Service: "asset", Method: "transfer", CyclesLimit: 1000, CyclesPrice: 1}
	require.NoError(t, tx.Sign(priv))

	layer := newTestLayer(t)
	table := newTestTable()
	ctx := types.NewRootContext(attacker, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, ctx, Name, "verify_signature", mustJSON(t, tx))
	require.True(t, resp.IsError())
	require.Equal(t, CodeSignatureMismatch, resp.Code)
}

func TestVerifySignatureRejectsMissingSignature(t *testing.T) {
	sender := types.BytesToAddress([]byte{0x01})
	tx := &types.Transaction{Sender: sender, Nonce: 1, Service: "asset", Method: "transfer"}

	layer := newTestLayer(t)
	table := newTestTable()
	ctx := types.NewRootContext(sender, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, ctx, Name, "verify_signature", mustJSON(t, tx))
	require.True(t, resp.IsError())
	require.Equal(t, CodeMissingSignature, resp.Code)
}
